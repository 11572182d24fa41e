// Package enginetest provides an in-memory stand-in for the native engine.
//
// Fake implements engine.Library over Go-owned buffers and keeps allocator
// accounting so tests can assert that every buffer is freed exactly once.
// Handlers decide what each operation answers; Simulated installs handlers
// that behave like the engine for the operations the pipeline uses.
package enginetest

import (
	"sync"
	"unsafe"

	"xdao.co/txkit/engine"
)

// Handler answers one request. Returning nil simulates a function that
// produced no output.
type Handler func(request []byte) []byte

// Call records one invocation.
type Call struct {
	Op      engine.Operation
	Request []byte
}

// Fake is an engine.Library backed by Go memory.
type Fake struct {
	mu sync.Mutex

	live     map[unsafe.Pointer][]byte
	handlers map[engine.Operation]Handler
	calls    []Call

	allocs      int
	frees       int
	doubleFrees int

	// FailAlloc makes Alloc return nil.
	FailAlloc bool
}

func NewFake() *Fake {
	return &Fake{
		live:     make(map[unsafe.Pointer][]byte),
		handlers: make(map[engine.Operation]Handler),
	}
}

// Handle installs h for op, replacing any previous handler.
func (f *Fake) Handle(op engine.Operation, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[op] = h
}

// Respond installs a handler that always answers body.
func (f *Fake) Respond(op engine.Operation, body string) {
	f.Handle(op, func([]byte) []byte { return []byte(body) })
}

func (f *Fake) Alloc(capacity uint) unsafe.Pointer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAlloc {
		return nil
	}
	return f.allocLocked(int(capacity))
}

func (f *Fake) allocLocked(capacity int) unsafe.Pointer {
	if capacity < 1 {
		capacity = 1
	}
	buf := make([]byte, capacity)
	p := unsafe.Pointer(&buf[0])
	f.live[p] = buf
	f.allocs++
	return p
}

func (f *Fake) Free(p unsafe.Pointer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live[p]; !ok {
		f.doubleFrees++
		return
	}
	delete(f.live, p)
	f.frees++
}

func (f *Fake) Function(op engine.Operation) (engine.Function, bool) {
	f.mu.Lock()
	h, ok := f.handlers[op]
	f.mu.Unlock()
	if !ok {
		return nil, false
	}
	return func(request unsafe.Pointer) unsafe.Pointer {
		req := f.read(request)

		f.mu.Lock()
		f.calls = append(f.calls, Call{Op: op, Request: req})
		f.mu.Unlock()

		resp := h(req)
		if resp == nil {
			return nil
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		p := f.allocLocked(len(resp) + 1)
		copy(f.live[p], resp)
		return p
	}, true
}

func (f *Fake) read(p unsafe.Pointer) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf, ok := f.live[p]
	if !ok {
		panic("enginetest: request buffer was not allocated by this library")
	}
	for i, b := range buf {
		if b == 0 {
			return append([]byte(nil), buf[:i]...)
		}
	}
	panic("enginetest: request buffer is not NUL-terminated")
}

// Allocs returns the number of buffers handed out, requests and responses.
func (f *Fake) Allocs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allocs
}

// Frees returns the number of successful frees.
func (f *Fake) Frees() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frees
}

// DoubleFrees counts frees of pointers that were not live.
func (f *Fake) DoubleFrees() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doubleFrees
}

// Outstanding returns the number of buffers not yet freed.
func (f *Fake) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

// Calls returns the invocations seen so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
