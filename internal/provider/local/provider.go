// Package local implements a software wallet behind the provider
// interface. Accounts come from an age-encrypted key file, wallet state is
// kept in bbolt, and chain reads are forwarded to a JSON-RPC node.
package local

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/keys"
	"github.com/mrz1836/pocket/internal/provider"
	"github.com/mrz1836/pocket/internal/store"
)

// Identities a local wallet can advertise.
const (
	IdentityTokenPocket = "tokenpocket"
	IdentityMetaMask    = "metamask"
	IdentitySafePal     = "safepal"
	IdentityNone        = "none"
)

// Logger is the logging surface of the local wallet.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// DialFunc opens a JSON-RPC client for a node URL.
type DialFunc func(ctx context.Context, url string) (*rpc.Client, error)

// Config holds the configuration for a local wallet.
type Config struct {
	// Store persists authorization, chains and watched assets. Required.
	Store *store.Store

	// Key signs transactions. When nil, Account names the wallet's address
	// and Unlock is asked for the key the first time a signature is needed.
	// Without either the wallet has no accounts.
	Key     *ecdsa.PrivateKey
	Account string
	Unlock  func(ctx context.Context) (*ecdsa.PrivateKey, error)

	// Identity selects the flags reported by Flags.
	Identity string

	// RPCOverrides maps a chain id to the node URL used instead of the
	// chain's first rpcUrls entry.
	RPCOverrides map[string]string

	Limiter  *chain.RateLimiter
	Retry    chain.RetryConfig
	Approver Approver
	Dial     DialFunc
	Logger   Logger
}

// Wallet is a provider.Provider backed by a local key.
type Wallet struct {
	store     *store.Store
	key       *ecdsa.PrivateKey
	unlock    func(ctx context.Context) (*ecdsa.PrivateKey, error)
	address   string
	identity  string
	overrides map[string]string
	limiter   *chain.RateLimiter
	retry     chain.RetryConfig
	approver  Approver
	dial      DialFunc
	log       Logger

	keyMu sync.Mutex

	mu      sync.Mutex
	clients map[string]*rpc.Client
	subs    map[string]map[int]provider.Handler
	nextSub int
}

// New creates a local wallet.
func New(cfg *Config) *Wallet {
	w := &Wallet{
		store:     cfg.Store,
		key:       cfg.Key,
		unlock:    cfg.Unlock,
		identity:  strings.ToLower(cfg.Identity),
		overrides: make(map[string]string, len(cfg.RPCOverrides)),
		limiter:   cfg.Limiter,
		retry:     cfg.Retry,
		approver:  cfg.Approver,
		dial:      cfg.Dial,
		log:       cfg.Logger,
		clients:   make(map[string]*rpc.Client),
		subs:      make(map[string]map[int]provider.Handler),
	}
	switch {
	case w.key != nil:
		w.address = keys.Address(&w.key.PublicKey)
	case common.IsHexAddress(cfg.Account):
		w.address = common.HexToAddress(cfg.Account).Hex()
	}
	for id, url := range cfg.RPCOverrides {
		w.overrides[strings.ToLower(id)] = url
	}
	if w.limiter == nil {
		w.limiter = chain.DefaultRateLimiter()
	}
	if w.retry.MaxAttempts == 0 {
		w.retry = chain.DefaultRetryConfig()
	}
	if w.approver == nil {
		w.approver = AutoApprove{}
	}
	if w.dial == nil {
		w.dial = rpc.DialContext
	}
	if w.log == nil {
		w.log = nopLog{}
	}
	return w
}

// Flags reports the configured identity.
func (w *Wallet) Flags() provider.Capabilities {
	switch w.identity {
	case IdentityTokenPocket, "":
		return provider.Capabilities{TokenPocket: true}
	case IdentityMetaMask:
		return provider.Capabilities{MetaMask: true}
	case IdentitySafePal:
		return provider.Capabilities{SafePal: true}
	}
	return provider.Capabilities{}
}

// Address returns the signing account, or an empty string without a key.
func (w *Wallet) Address() string {
	return w.address
}

// signingKey returns the key for address, unlocking it on first use.
func (w *Wallet) signingKey(ctx context.Context) (*ecdsa.PrivateKey, error) {
	w.keyMu.Lock()
	defer w.keyMu.Unlock()

	if w.key != nil {
		return w.key, nil
	}
	if w.unlock == nil {
		return nil, provider.NewError(provider.CodeUnauthorized, "wallet is locked")
	}
	key, err := w.unlock(ctx)
	if err != nil {
		return nil, provider.NewError(provider.CodeUnauthorized, "unlocking wallet: %v", err)
	}
	if !strings.EqualFold(keys.Address(&key.PublicKey), w.address) {
		return nil, provider.NewError(provider.CodeUnauthorized, "key file does not match account %s", w.address)
	}
	w.key = key
	return key, nil
}

// Request dispatches a wallet request.
func (w *Wallet) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		out any
		err error
	)
	switch method {
	case provider.MethodRequestAccounts:
		out, err = w.requestAccounts(ctx)
	case provider.MethodAccounts:
		out, err = w.accounts()
	case provider.MethodChainID:
		out, err = w.chainID()
	case provider.MethodSwitchChain:
		out, err = w.switchChain(params)
	case provider.MethodAddChain:
		out, err = w.addChain(ctx, params)
	case provider.MethodWatchAsset:
		out, err = w.watchAsset(ctx, params)
	case provider.MethodSendTransaction:
		out, err = w.sendTransaction(ctx, params)
	case provider.MethodGetBalance, provider.MethodCall, provider.MethodBlockNumber,
		provider.MethodGetBlockByNumber, methodGasPrice, methodGetTransactionCount, methodEstimateGas:
		return w.forward(ctx, method, params...)
	default:
		return nil, provider.NewError(provider.CodeUnsupportedMethod, "method %s is not supported", method)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// Subscribe registers handler for event.
func (w *Wallet) Subscribe(event string, handler provider.Handler) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextSub
	w.nextSub++
	if w.subs[event] == nil {
		w.subs[event] = make(map[int]provider.Handler)
	}
	w.subs[event][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.subs[event], id)
		})
	}
}

// emit delivers payload to the handlers of event. It must be called
// without w.mu held.
func (w *Wallet) emit(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		w.log.Error("encoding %s payload: %v", event, err)
		return
	}

	w.mu.Lock()
	handlers := make([]provider.Handler, 0, len(w.subs[event]))
	for _, h := range w.subs[event] {
		handlers = append(handlers, h)
	}
	w.mu.Unlock()

	for _, h := range handlers {
		h(raw)
	}
}

// Revoke withdraws the account authorization and notifies subscribers with
// an empty account list.
func (w *Wallet) Revoke() error {
	changed := false
	_, err := w.update(func(st *walletState) error {
		changed = len(st.Authorized) > 0
		st.Authorized = nil
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		w.emit(provider.EventAccountsChanged, []string{})
	}
	return nil
}

// Close drops node connections and emits disconnect.
func (w *Wallet) Close() error {
	w.mu.Lock()
	clients := w.clients
	w.clients = make(map[string]*rpc.Client)
	w.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	w.emit(provider.EventDisconnect, provider.NewError(provider.CodeDisconnected, "wallet closed"))
	return nil
}

type nopLog struct{}

func (nopLog) Debug(string, ...any) {}
func (nopLog) Error(string, ...any) {}
