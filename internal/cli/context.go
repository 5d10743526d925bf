package cli

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"os"

	"github.com/spf13/cobra"
	bolt "go.etcd.io/bbolt"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/config"
	"github.com/mrz1836/pocket/internal/keys"
	"github.com/mrz1836/pocket/internal/metrics"
	"github.com/mrz1836/pocket/internal/output"
	"github.com/mrz1836/pocket/internal/provider"
	"github.com/mrz1836/pocket/internal/provider/local"
	"github.com/mrz1836/pocket/internal/service/balance"
	"github.com/mrz1836/pocket/internal/service/history"
	"github.com/mrz1836/pocket/internal/service/transaction"
	"github.com/mrz1836/pocket/internal/session"
	"github.com/mrz1836/pocket/internal/store"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

type cmdContextKey struct{}

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg      ConfigProvider
	Log      LogWriter
	Fmt      FormatProvider
	Store    *store.Store
	Wallet   *local.Wallet // nil when the provider is not the local wallet
	Provider provider.Provider
	Session  *session.Sequencer
	Balance  *balance.Service
	Sender   *transaction.Service
	History  *history.Scanner
	Metrics  *metrics.Metrics
}

// SetCmdContext attaches cc to the command's context.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey{}, cc))
}

// GetCmdContext returns the CommandContext attached to cmd, or nil.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cc, _ := ctx.Value(cmdContextKey{}).(*CommandContext)
	return cc
}

// NewCommandContext wires the session and services around p. st may be nil
// for commands that never touch durable state.
func NewCommandContext(c ConfigProvider, log LogWriter, f FormatProvider, st *store.Store, p provider.Provider, m *metrics.Metrics) *CommandContext {
	if m == nil {
		m = metrics.Global
	}

	state := session.NewStore()
	bal := balance.NewService(&balance.Config{
		Provider: p,
		Store:    state,
		Logger:   log,
	})

	seqCfg := &session.Config{
		Provider: p,
		Store:    state,
		Target:   c.TargetChain(),
		Balance:  bal,
		Logger:   log,
		Metrics:  m,
	}
	if st != nil {
		seqCfg.Hints = st
	}

	return &CommandContext{
		Cfg:      c,
		Log:      log,
		Fmt:      f,
		Store:    st,
		Provider: p,
		Session:  session.NewSequencer(seqCfg),
		Balance:  bal,
		Sender: transaction.NewService(&transaction.Config{
			Provider: p,
			Store:    state,
			Balance:  bal,
			Logger:   log,
			Metrics:  m,
		}),
		History: history.NewScanner(&history.Config{
			Provider: p,
			Store:    state,
			Logger:   log,
			Metrics:  m,
		}),
		Metrics: m,
	}
}

// openCommandContext opens the store and the local wallet described by c.
func openCommandContext(c *config.Config, log *config.Logger, f *output.Formatter) (*CommandContext, error) {
	st, err := store.Open(c.StorePath())
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, pocketerr.Wrap(pocketerr.ErrStoreLocked, "%s", c.StorePath())
		}
		return nil, err
	}

	account, err := local.LoadAccount(st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	wallet := local.New(&local.Config{
		Store:        st,
		Account:      account,
		Unlock:       unlockKey(c.KeyPath()),
		Identity:     c.Wallet.Identity,
		RPCOverrides: rpcOverrides(c),
		Limiter:      chain.NewRateLimiter(c.Network.RatePerSecond, c.Network.Burst),
		Approver:     newPromptApprover(assumeYes),
		Logger:       log,
	})

	m := metrics.Global
	cc := NewCommandContext(c, log, f, st, metrics.Instrument(wallet, m), m)
	cc.Wallet = wallet
	return cc, nil
}

// rpcOverrides points the target chain at the configured node.
func rpcOverrides(c *config.Config) map[string]string {
	if c.Network.RPC == "" {
		return nil
	}
	return map[string]string{c.TargetChain().ChainID: c.Network.RPC}
}

// unlockKey returns a callback that decrypts the key file, reading the
// password from the environment or the terminal.
func unlockKey(path string) func(ctx context.Context) (*ecdsa.PrivateKey, error) {
	return func(context.Context) (*ecdsa.PrivateKey, error) {
		password := os.Getenv(config.EnvPassword)
		if password == "" {
			pw, err := promptPasswordFn("Key password: ")
			if err != nil {
				return nil, err
			}
			password = string(pw)
			keys.ZeroBytes(pw)
		}
		return keys.Load(path, password)
	}
}

// Close releases the wallet and the store.
func (c *CommandContext) Close() {
	if c.Wallet != nil {
		_ = c.Wallet.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}
