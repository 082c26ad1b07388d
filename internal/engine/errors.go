package engine

import "errors"

// Contract violations detected by the mirror. They are logged, never
// returned to the host.
var (
	// ErrReentrantCommit indicates CommitText was called while a commit
	// was already in progress.
	ErrReentrantCommit = errors.New("reentrant commit")

	// ErrCompositionLost indicates the composition machine was active but
	// the buffer carried no composing range.
	ErrCompositionLost = errors.New("composing range missing while composing")

	// ErrUnbalancedBatch indicates EndBatchEdit without BeginBatchEdit.
	ErrUnbalancedBatch = errors.New("unbalanced batch edit")

	// ErrNoComposition indicates FinishComposingText with nothing composing.
	ErrNoComposition = errors.New("no composition to finish")
)
