// Package providertest provides a scriptable in-memory wallet provider.
package providertest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mrz1836/pocket/internal/provider"
)

// HandlerFunc answers one request. The returned value is JSON encoded.
type HandlerFunc func(ctx context.Context, params []any) (any, error)

// Call is a recorded request.
type Call struct {
	Method string
	Params []any
}

// Fake is a provider.Provider whose answers are scripted per method.
// Unscripted methods fail with code 4200.
type Fake struct {
	Caps provider.Capabilities

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	calls    []Call
	subs     map[string]map[int]provider.Handler
	nextSub  int
}

// New returns a fake that identifies as TokenPocket.
func New() *Fake {
	return &Fake{
		Caps:     provider.Capabilities{TokenPocket: true},
		handlers: make(map[string]HandlerFunc),
		subs:     make(map[string]map[int]provider.Handler),
	}
}

// Handle scripts method with fn.
func (f *Fake) Handle(method string, fn HandlerFunc) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = fn
	return f
}

// Respond scripts method to always return result.
func (f *Fake) Respond(method string, result any) *Fake {
	return f.Handle(method, func(context.Context, []any) (any, error) {
		return result, nil
	})
}

// Fail scripts method to always fail with a provider error.
func (f *Fake) Fail(method string, code int, message string) *Fake {
	return f.Handle(method, func(context.Context, []any) (any, error) {
		return nil, &provider.Error{Code: code, Message: message}
	})
}

// Flags implements provider.Flagger.
func (f *Fake) Flags() provider.Capabilities {
	return f.Caps
}

// Request implements provider.Provider.
func (f *Fake) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: method, Params: params})
	fn, ok := f.handlers[method]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, provider.NewError(provider.CodeUnsupportedMethod, "method %s not supported", method)
	}

	result, err := fn(ctx, params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

// Subscribe implements provider.Provider.
func (f *Fake) Subscribe(event string, handler provider.Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSub
	f.nextSub++
	if f.subs[event] == nil {
		f.subs[event] = make(map[int]provider.Handler)
	}
	f.subs[event][id] = handler

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[event], id)
	}
}

// Emit delivers payload to every current subscriber of event.
func (f *Fake) Emit(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}

	f.mu.Lock()
	handlers := make([]provider.Handler, 0, len(f.subs[event]))
	for _, h := range f.subs[event] {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(raw)
	}
}

// Subscribers returns the number of live registrations for event.
func (f *Fake) Subscribers(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[event])
}

// Calls returns a copy of every recorded request.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Methods returns the recorded method names in order.
func (f *Fake) Methods() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

// CallCount returns how many times method was requested.
func (f *Fake) CallCount(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
