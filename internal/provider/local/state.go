package local

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/provider"
	"github.com/mrz1836/pocket/internal/store"
)

// Records inside store.BucketWallet.
const (
	stateKey   = "state"
	accountKey = "account"
)

//nolint:gochecknoglobals // validator caches struct metadata
var validate = validator.New()

// walletState is everything the wallet remembers between runs.
type walletState struct {
	Authorized  []string                `json:"authorized,omitempty"`
	ActiveChain string                  `json:"activeChain,omitempty"`
	Chains      map[string]chain.Config `json:"chains,omitempty"`
	Assets      []chain.Token           `json:"assets,omitempty"`
}

func (st *walletState) active() string {
	if st.ActiveChain == "" {
		return chain.BSC.ChainID
	}
	return st.ActiveChain
}

// lookup finds a known chain by id. Mainnet is always known; everything
// else has to be added first.
func (st *walletState) lookup(id string) (chain.Config, bool) {
	if chain.SameChain(id, chain.BSC.ChainID) {
		return chain.BSC, true
	}
	for _, c := range st.Chains {
		if chain.SameChain(id, c.ChainID) {
			return c, true
		}
	}
	return chain.Config{}, false
}

func (st *walletState) authorized(address string) bool {
	for _, a := range st.Authorized {
		if strings.EqualFold(a, address) {
			return true
		}
	}
	return false
}

func (w *Wallet) load() (walletState, error) {
	var st walletState
	err := w.store.Get(store.BucketWallet, stateKey, &st)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return st, provider.NewError(provider.CodeInternal, "reading wallet state: %v", err)
	}
	return st, nil
}

func (w *Wallet) update(fn func(*walletState) error) (walletState, error) {
	st, err := store.Mutate(w.store, store.BucketWallet, stateKey, fn)
	if err != nil {
		var pe *provider.Error
		if errors.As(err, &pe) {
			return st, pe
		}
		return st, provider.NewError(provider.CodeInternal, "writing wallet state: %v", err)
	}
	return st, nil
}

func (w *Wallet) approve(ctx context.Context, kind, summary string) error {
	ok, err := w.approver.Approve(ctx, Prompt{Kind: kind, Summary: summary})
	if err != nil {
		return provider.NewError(provider.CodeInternal, "approval failed: %v", err)
	}
	if !ok {
		return provider.NewError(provider.CodeUserRejected, "User rejected the request.")
	}
	return nil
}

func (w *Wallet) requestAccounts(ctx context.Context) ([]string, error) {
	if w.address == "" {
		return nil, provider.NewError(provider.CodeUnauthorized, "no account available, import a key first")
	}

	st, err := w.load()
	if err != nil {
		return nil, err
	}
	if st.authorized(w.address) {
		return []string{w.address}, nil
	}

	if err := w.approve(ctx, KindConnect, "Connect account "+w.address); err != nil {
		return nil, err
	}
	if _, err := w.update(func(st *walletState) error {
		st.Authorized = []string{w.address}
		return nil
	}); err != nil {
		return nil, err
	}

	w.log.Debug("local wallet: authorized %s", w.address)
	w.emit(provider.EventAccountsChanged, []string{w.address})
	return []string{w.address}, nil
}

func (w *Wallet) accounts() ([]string, error) {
	if w.address == "" {
		return []string{}, nil
	}
	st, err := w.load()
	if err != nil {
		return nil, err
	}
	if !st.authorized(w.address) {
		return []string{}, nil
	}
	return []string{w.address}, nil
}

func (w *Wallet) chainID() (string, error) {
	st, err := w.load()
	if err != nil {
		return "", err
	}
	return st.active(), nil
}

type switchRequest struct {
	ChainID string `json:"chainId"`
}

func (w *Wallet) switchChain(params []any) (any, error) {
	var req switchRequest
	if err := decodeParam(params, 0, &req); err != nil {
		return nil, err
	}
	if req.ChainID == "" {
		return nil, provider.NewError(provider.CodeInvalidParams, "chainId is required")
	}

	var changed bool
	st, err := w.update(func(st *walletState) error {
		target, ok := st.lookup(req.ChainID)
		if !ok {
			return provider.NewError(provider.CodeUnrecognizedChain,
				"Unrecognized chain ID %q. Try adding the chain using wallet_addEthereumChain first.", req.ChainID)
		}
		changed = !chain.SameChain(st.active(), target.ChainID)
		st.ActiveChain = target.ChainID
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		w.emit(provider.EventChainChanged, st.ActiveChain)
	}
	return nil, nil
}

// addChain stores the definition and makes it the active chain.
func (w *Wallet) addChain(ctx context.Context, params []any) (any, error) {
	var cfg chain.Config
	if err := decodeParam(params, 0, &cfg); err != nil {
		return nil, err
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, provider.NewError(provider.CodeInvalidParams, "invalid chain definition: %v", err)
	}
	id, err := chain.ParseChainID(cfg.ChainID)
	if err != nil {
		return nil, provider.NewError(provider.CodeInvalidParams, "%v", err)
	}
	cfg.ChainID = chain.FormatChainID(id)

	if err := w.approve(ctx, KindAddChain, "Add network "+cfg.ChainName+" ("+cfg.ChainID+")"); err != nil {
		return nil, err
	}

	var changed bool
	st, err := w.update(func(st *walletState) error {
		if st.Chains == nil {
			st.Chains = make(map[string]chain.Config)
		}
		st.Chains[cfg.ChainID] = cfg.Clone()
		changed = !chain.SameChain(st.active(), cfg.ChainID)
		st.ActiveChain = cfg.ChainID
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.log.Debug("local wallet: added chain %s %s", cfg.ChainID, cfg.ChainName)
	if changed {
		w.emit(provider.EventChainChanged, st.ActiveChain)
	}
	return nil, nil
}

type watchRequest struct {
	Type    string `json:"type"`
	Options struct {
		Address  string `json:"address"`
		Symbol   string `json:"symbol"`
		Decimals int    `json:"decimals"`
	} `json:"options"`
}

func (w *Wallet) watchAsset(ctx context.Context, params []any) (bool, error) {
	var req watchRequest
	if err := decodeParam(params, 0, &req); err != nil {
		return false, err
	}
	if !strings.EqualFold(req.Type, "ERC20") {
		return false, provider.NewError(provider.CodeInvalidParams, "asset type %q is not supported", req.Type)
	}

	tok := chain.Token{
		Symbol:   req.Options.Symbol,
		Address:  req.Options.Address,
		Decimals: req.Options.Decimals,
	}
	if err := validate.Struct(tok); err != nil {
		return false, provider.NewError(provider.CodeInvalidParams, "invalid asset: %v", err)
	}
	tok.Address = common.HexToAddress(tok.Address).Hex()

	if err := w.approve(ctx, KindWatchAsset, "Track "+tok.Symbol+" at "+tok.Address); err != nil {
		return false, err
	}

	_, err := w.update(func(st *walletState) error {
		for i, a := range st.Assets {
			if strings.EqualFold(a.Address, tok.Address) {
				st.Assets[i] = tok
				return nil
			}
		}
		st.Assets = append(st.Assets, tok)
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// WatchedAssets returns the tokens added through wallet_watchAsset, sorted
// by symbol.
func (w *Wallet) WatchedAssets() ([]chain.Token, error) {
	st, err := w.load()
	if err != nil {
		return nil, err
	}
	out := append([]chain.Token(nil), st.Assets...)
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// decodeParam re-encodes params[i] into v so callers may pass any value
// with the right JSON shape.
func decodeParam(params []any, i int, v any) error {
	if len(params) <= i {
		return provider.NewError(provider.CodeInvalidParams, "missing parameter %d", i)
	}
	raw, err := json.Marshal(params[i])
	if err != nil {
		return provider.NewError(provider.CodeInvalidParams, "encoding parameter %d: %v", i, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return provider.NewError(provider.CodeInvalidParams, "decoding parameter %d: %v", i, err)
	}
	return nil
}

// SaveAccount remembers the address of the imported key so the wallet can
// list it without decrypting the key file.
func SaveAccount(s *store.Store, address string) error {
	return s.Put(store.BucketWallet, accountKey, common.HexToAddress(address).Hex())
}

// LoadAccount returns the remembered address, or an empty string.
func LoadAccount(s *store.Store) (string, error) {
	var address string
	if err := s.Get(store.BucketWallet, accountKey, &address); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return address, nil
}
