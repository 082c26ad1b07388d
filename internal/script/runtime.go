package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/imebridge/internal/logging"
)

// DefaultTimeout bounds each call into Lua.
const DefaultTimeout = 250 * time.Millisecond

// Listener names looked up in the script globals.
const (
	KeyDownListener = "on_keydown"
	InputListener   = "on_input"
)

// Document is the engine surface exposed to scripts as the doc module.
type Document interface {
	Text() string
	SetText(text string)
	Selection() (start, end int)
}

// Runtime is a sandboxed Lua state. gopher-lua states are not goroutine
// safe; the mutex serializes every entry.
type Runtime struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	logger  *logging.Logger
	doc     Document
	closed  bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger used by the log() builtin.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a runtime with the restricted library set.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		timeout: DefaultTimeout,
		logger:  logging.NullLogger,
	}
	for _, opt := range opts {
		opt(r)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("log", L.NewFunction(r.luaLog))
	L.SetGlobal("doc", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"text":      r.luaText,
		"set_text":  r.luaSetText,
		"selection": r.luaSelection,
	}))
	r.L = L
	return r
}

// Bind sets the document the doc module operates on.
func (r *Runtime) Bind(doc Document) {
	r.mu.Lock()
	r.doc = doc
	r.mu.Unlock()
}

// LoadString runs a chunk, typically to define listeners.
func (r *Runtime) LoadString(code, name string) error {
	return r.run(func(L *lua.LState) error {
		fn, err := L.Load(strings.NewReader(code), name)
		if err != nil {
			return err
		}
		L.Push(fn)
		return L.PCall(0, lua.MultRet, nil)
	})
}

// LoadFile runs the chunk stored at path.
func (r *Runtime) LoadFile(path string) error {
	return r.run(func(L *lua.LState) error {
		return L.DoFile(path)
	})
}

// HasListener reports whether the script defines the named function.
func (r *Runtime) HasListener(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	return r.L.GetGlobal(name).Type() == lua.LTFunction
}

// OnKeyDown calls on_keydown(code, mods). It reports false only when the
// listener returns false; a missing listener or an error allows the
// default action.
func (r *Runtime) OnKeyDown(code, mods int) (bool, error) {
	allow := true
	err := r.call(KeyDownListener, func(ret lua.LValue) {
		if ret == lua.LFalse {
			allow = false
		}
	}, lua.LNumber(code), lua.LNumber(mods))
	return allow, err
}

// OnInput calls on_input(text).
func (r *Runtime) OnInput(text string) error {
	return r.call(InputListener, nil, lua.LString(text))
}

// Close releases the Lua state.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.L.Close()
		r.closed = true
	}
}

func (r *Runtime) call(name string, result func(lua.LValue), args ...lua.LValue) error {
	return r.run(func(L *lua.LState) error {
		fn := L.GetGlobal(name)
		if fn.Type() != lua.LTFunction {
			return nil
		}
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
			return err
		}
		ret := L.Get(-1)
		L.Pop(1)
		if result != nil {
			result(ret)
		}
		return nil
	})
}

func (r *Runtime) run(fn func(L *lua.LState) error) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic: %v", ErrScript, rec)
		}
	}()
	if err = fn(r.L); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, r.timeout)
		}
		return fmt.Errorf("%w: %v", ErrScript, err)
	}
	return nil
}

// Builtins run inside run, with r.mu held.

func (r *Runtime) luaLog(L *lua.LState) int {
	r.logger.Info("script: %s", L.CheckString(1))
	return 0
}

func (r *Runtime) luaText(L *lua.LState) int {
	if r.doc == nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(r.doc.Text()))
	return 1
}

func (r *Runtime) luaSetText(L *lua.LState) int {
	text := L.CheckString(1)
	if r.doc != nil {
		r.doc.SetText(text)
	}
	return 0
}

func (r *Runtime) luaSelection(L *lua.LState) int {
	start, end := 0, 0
	if r.doc != nil {
		start, end = r.doc.Selection()
	}
	L.Push(lua.LNumber(start))
	L.Push(lua.LNumber(end))
	return 2
}
