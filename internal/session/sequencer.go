package session

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/provider"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// ConnectResult is the outcome of a user-initiated connect.
type ConnectResult struct {
	Success bool   `json:"success"`
	Address string `json:"address,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Config wires a Sequencer.
type Config struct {
	Provider provider.Provider // nil means no wallet is present
	Store    *Store
	Target   chain.Config
	Balance  BalanceRefresher
	Hints    HintStore
	Logger   Logger
	Metrics  Recorder
}

// Sequencer runs the ordered provider interactions that move the session
// between disconnected and connected.
type Sequencer struct {
	provider provider.Provider
	store    *Store
	target   chain.Config
	balance  BalanceRefresher
	hints    HintStore
	log      Logger
	metrics  Recorder
}

// NewSequencer creates a sequencer. Store defaults to a fresh store and
// Target to BNB Smart Chain.
func NewSequencer(cfg *Config) *Sequencer {
	s := &Sequencer{
		provider: cfg.Provider,
		store:    cfg.Store,
		target:   cfg.Target,
		balance:  cfg.Balance,
		hints:    cfg.Hints,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
	}
	if s.store == nil {
		s.store = NewStore()
	}
	if s.target.ChainID == "" {
		s.target = chain.BSC.Clone()
	}
	if s.log == nil {
		s.log = nopLogger{}
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	return s
}

// Store returns the session store.
func (s *Sequencer) Store() *Store {
	return s.store
}

// Provider returns the wallet provider, which may be nil.
func (s *Sequencer) Provider() provider.Provider {
	return s.provider
}

// Target returns the chain sessions are kept on.
func (s *Sequencer) Target() chain.Config {
	return s.target
}

// Connect runs the full connect sequence. On success the store is
// connected; on failure LastError holds the message and the returned error
// carries the cause (provider errors are passed through unchanged).
func (s *Sequencer) Connect(ctx context.Context) (ConnectResult, error) {
	s.store.BeginLoading()
	defer s.store.SetLoading(false)

	address, err := s.connect(ctx)
	if err != nil {
		msg := ErrorMessage(err)
		s.store.SetError(msg)
		s.log.Error("connect: %v", err)
		return ConnectResult{Error: msg}, err
	}
	return ConnectResult{Success: true, Address: address}, nil
}

func (s *Sequencer) connect(ctx context.Context) (string, error) {
	if s.provider == nil {
		return "", pocketerr.ErrProviderMissing
	}
	if caps := provider.Probe(s.provider, s.log); !caps.TokenPocket {
		return "", pocketerr.ErrWrongWalletApp
	}

	accounts, err := provider.Call[[]string](ctx, s.provider, provider.MethodRequestAccounts)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", pocketerr.ErrNoAccounts
	}

	if err := EnsureChain(ctx, s.provider, s.target, s.log); err != nil {
		return "", err
	}

	chainID, err := provider.Call[string](ctx, s.provider, provider.MethodChainID)
	if err != nil {
		return "", err
	}

	address := accounts[0]
	id := uuid.NewString()
	s.store.MarkConnected(address, chainID, chain.SameChain(chainID, s.target.ChainID), id)
	s.metrics.RecordTransition("connect", true)
	s.log.Debug("session %s connected %s on %s", id, address, chainID)

	s.refreshBalance(ctx, address)

	if s.hints != nil {
		if err := s.hints.SaveHints(address); err != nil {
			s.log.Error("saving reconnect hints: %v", err)
		}
	}
	return address, nil
}

// Disconnect resets the store and clears the reconnect hints. It never
// contacts the provider and is safe to call repeatedly.
func (s *Sequencer) Disconnect() {
	s.store.Reset()
	if s.hints != nil {
		if err := s.hints.ClearHints(); err != nil {
			s.log.Error("clearing reconnect hints: %v", err)
		}
	}
	s.metrics.RecordTransition("disconnect", false)
	s.log.Debug("session disconnected")
}

// Restore re-establishes a session the wallet already authorized, without
// prompting. It reports whether the store ended up connected; failures are
// logged only.
func (s *Sequencer) Restore(ctx context.Context) bool {
	if s.provider == nil {
		s.log.Debug("restore: no wallet provider present")
		return false
	}
	if caps := provider.Probe(s.provider, s.log); !caps.TokenPocket {
		s.log.Debug("restore: provider is not TokenPocket")
		return false
	}

	accounts, err := provider.Call[[]string](ctx, s.provider, provider.MethodAccounts)
	if err != nil {
		s.log.Error("restore: reading accounts: %v", err)
		return false
	}
	if len(accounts) == 0 {
		s.log.Debug("restore: wallet has not authorized any account")
		return false
	}

	chainID, err := provider.Call[string](ctx, s.provider, provider.MethodChainID)
	if err != nil {
		s.log.Error("restore: reading chain id: %v", err)
		return false
	}

	address := accounts[0]
	s.store.MarkConnected(address, chainID, chain.SameChain(chainID, s.target.ChainID), uuid.NewString())
	s.metrics.RecordTransition("restore", true)
	s.refreshBalance(ctx, address)
	return true
}

// SwitchToTarget runs chain assurance and then resyncs the chain id and
// balance. Failures are recorded in LastError like Connect's.
func (s *Sequencer) SwitchToTarget(ctx context.Context) error {
	s.store.SetError("")
	chainID, err := s.switchToTarget(ctx)
	if err != nil {
		s.store.SetError(ErrorMessage(err))
		s.log.Error("switch chain: %v", err)
		return err
	}
	s.applyChain(ctx, chainID)
	return nil
}

func (s *Sequencer) switchToTarget(ctx context.Context) (string, error) {
	if s.provider == nil {
		return "", pocketerr.ErrProviderMissing
	}
	if err := EnsureChain(ctx, s.provider, s.target, s.log); err != nil {
		return "", err
	}
	return provider.Call[string](ctx, s.provider, provider.MethodChainID)
}

// applyChain records chainID and refreshes the balance of a connected
// session.
func (s *Sequencer) applyChain(ctx context.Context, chainID string) {
	s.store.SetChain(chainID, chain.SameChain(chainID, s.target.ChainID))

	st := s.store.Snapshot()
	s.metrics.RecordTransition("chain_changed", st.Connected)
	if st.Connected {
		s.refreshBalance(ctx, st.Address)
	}
}

// applyAccounts handles a new account list from the wallet.
func (s *Sequencer) applyAccounts(ctx context.Context, accounts []string) {
	if len(accounts) == 0 {
		s.log.Debug("wallet revoked all accounts")
		s.Disconnect()
		return
	}

	st := s.store.Snapshot()
	if !st.Connected {
		s.log.Debug("ignoring account change while disconnected")
		return
	}
	if strings.EqualFold(accounts[0], st.Address) {
		return
	}

	s.store.SetAddress(accounts[0])
	s.metrics.RecordTransition("account_changed", true)
	s.log.Debug("active account changed to %s", accounts[0])
	s.refreshBalance(ctx, accounts[0])
}

func (s *Sequencer) refreshBalance(ctx context.Context, address string) {
	if s.balance == nil {
		return
	}
	if err := s.balance.UpdateBalance(ctx, address); err != nil {
		s.log.Error("refreshing balance of %s: %v", address, err)
	}
}

// ErrorMessage returns the user-facing text of err: the wallet's own
// message for provider errors, the bare message for pocket errors.
func ErrorMessage(err error) string {
	var pe *provider.Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return pocketerr.Message(err)
}
