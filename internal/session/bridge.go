package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mrz1836/pocket/internal/provider"
)

// QueueSize is the capacity of the notification queue. Provider handlers
// block once it is full.
const QueueSize = 16

type notification struct {
	event   string
	payload json.RawMessage
}

// Bridge turns wallet notifications into session updates. Handlers only
// enqueue; Run applies events one at a time, in arrival order.
type Bridge struct {
	seq    *Sequencer
	queue  chan notification
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	unsubs []func()
}

// NewBridge creates a bridge that applies events through seq.
func NewBridge(seq *Sequencer) *Bridge {
	return &Bridge{
		seq:   seq,
		queue: make(chan notification, QueueSize),
		done:  make(chan struct{}),
	}
}

// Attach subscribes to accountsChanged, chainChanged and disconnect on p.
func (b *Bridge) Attach(p provider.Provider) {
	if p == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, event := range []string{provider.EventAccountsChanged, provider.EventChainChanged, provider.EventDisconnect} {
		b.unsubs = append(b.unsubs, p.Subscribe(event, b.handler(event)))
	}
}

func (b *Bridge) handler(event string) provider.Handler {
	return func(payload json.RawMessage) {
		select {
		case b.queue <- notification{event: event, payload: payload}:
		case <-b.done:
		}
	}
}

// Detach removes exactly the subscriptions Attach made and stops Run.
func (b *Bridge) Detach() {
	b.mu.Lock()
	unsubs := b.unsubs
	b.unsubs = nil
	b.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	b.once.Do(func() { close(b.done) })
}

// Run applies queued notifications until ctx ends or Detach is called.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return nil
		case n := <-b.queue:
			b.apply(ctx, n)
		}
	}
}

func (b *Bridge) apply(ctx context.Context, n notification) {
	switch n.event {
	case provider.EventAccountsChanged:
		var accounts []string
		if err := json.Unmarshal(n.payload, &accounts); err != nil {
			b.seq.log.Error("bridge: bad accountsChanged payload: %v", err)
			return
		}
		b.seq.applyAccounts(ctx, accounts)

	case provider.EventChainChanged:
		var chainID string
		if err := json.Unmarshal(n.payload, &chainID); err != nil {
			b.seq.log.Error("bridge: bad chainChanged payload: %v", err)
			return
		}
		b.seq.log.Debug("bridge: chain changed to %s", chainID)
		b.seq.applyChain(ctx, chainID)

	case provider.EventDisconnect:
		b.seq.log.Debug("bridge: wallet disconnected")
		b.seq.Disconnect()
	}
}
