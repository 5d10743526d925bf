package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mrz1836/pocket/internal/provider"
	"github.com/mrz1836/pocket/internal/provider/providertest"
)

const (
	testAddress = "0x1111111111111111111111111111111111111111"
	otherAddr   = "0x2222222222222222222222222222222222222222"
)

var errDiskFull = errors.New("disk full")

type memLogger struct {
	mu     sync.Mutex
	debug  []string
	errors []string
}

func (l *memLogger) Debug(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}

func (l *memLogger) Error(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func (l *memLogger) errorLines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

type memHints struct {
	mu      sync.Mutex
	saved   []string
	cleared int
	err     error
}

func (h *memHints) SaveHints(address string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.saved = append(h.saved, address)
	return nil
}

func (h *memHints) ClearHints() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleared++
	return h.err
}

func (h *memHints) clearCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cleared
}

// storeBalance mimics the balance service: it writes a fixed value into
// the store, or fails.
type storeBalance struct {
	mu    sync.Mutex
	store *Store
	value string
	err   error
	calls []string
}

func (b *storeBalance) UpdateBalance(_ context.Context, address string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, address)
	if b.err != nil {
		return b.err
	}
	b.store.SetNativeBalance(b.value)
	return nil
}

func (b *storeBalance) addresses() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// happyWallet returns a TokenPocket fake already on BSC with one account.
func happyWallet() *providertest.Fake {
	return providertest.New().
		Respond(provider.MethodRequestAccounts, []string{testAddress}).
		Respond(provider.MethodAccounts, []string{testAddress}).
		Respond(provider.MethodChainID, "0x38")
}

type harness struct {
	fake    *providertest.Fake
	store   *Store
	balance *storeBalance
	hints   *memHints
	log     *memLogger
	seq     *Sequencer
}

func newHarness(fake *providertest.Fake) *harness {
	h := &harness{
		fake:  fake,
		store: NewStore(),
		hints: &memHints{},
		log:   &memLogger{},
	}
	h.balance = &storeBalance{store: h.store, value: "1.5000"}

	var p provider.Provider
	if fake != nil {
		p = fake
	}
	h.seq = NewSequencer(&Config{
		Provider: p,
		Store:    h.store,
		Balance:  h.balance,
		Hints:    h.hints,
		Logger:   h.log,
	})
	return h
}
