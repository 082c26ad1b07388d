package cursor

// TransformOffset updates an offset after the text in old was replaced by
// newLen runes.
//
// Transformation rules:
//   - If the edit is entirely before offset: adjust offset by the delta
//   - If the edit starts at or after offset: offset unchanged
//   - If the edit spans offset: move offset to the end of the new text
func TransformOffset(offset int, old Range, newLen int) int {
	if old.End <= offset {
		return offset - old.Len() + newLen
	}
	if old.Start >= offset {
		return offset
	}
	return old.Start + newLen
}

// TransformSelection updates a selection after an edit.
func TransformSelection(sel Selection, old Range, newLen int) Selection {
	return NewSelection(
		TransformOffset(sel.Start, old, newLen),
		TransformOffset(sel.End, old, newLen),
	)
}
