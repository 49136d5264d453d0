// Package inputtest provides an in-memory injector and a contract suite
// shared by every input.Injector implementation.
package inputtest

import (
	"sync"

	"edgekvm/internal/input"
)

// Call is one recorded injector invocation.
type Call struct {
	Op      string
	Keycode uint32
	Button  uint8
	X, Y    int32
}

// Recorder is an input.Injector that remembers what it was asked to do.
type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	closed bool

	// Err, when set, is returned from every inject call
	Err error

	// OnInject runs inside every inject call, after the call is recorded
	OnInject func(Call)
}

var _ input.Injector = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	hook, err := r.OnInject, r.Err
	r.mu.Unlock()

	if hook != nil {
		hook(c)
	}
	return err
}

func (r *Recorder) InjectKeyPress(keycode uint32) error {
	return r.record(Call{Op: "key_press", Keycode: keycode})
}

func (r *Recorder) InjectKeyRelease(keycode uint32) error {
	return r.record(Call{Op: "key_release", Keycode: keycode})
}

func (r *Recorder) InjectMouseMove(x, y int32) error {
	return r.record(Call{Op: "mouse_move", X: x, Y: y})
}

func (r *Recorder) InjectMouseButtonPress(button uint8, x, y int32) error {
	return r.record(Call{Op: "button_press", Button: button, X: x, Y: y})
}

func (r *Recorder) InjectMouseButtonRelease(button uint8, x, y int32) error {
	return r.record(Call{Op: "button_release", Button: button, X: x, Y: y})
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Calls returns a copy of everything recorded so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Len returns the number of recorded calls.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
