// Package balance reads native and token balances through the wallet
// provider and normalizes them to decimal strings.
package balance

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/provider"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// Config holds the configuration for the balance service.
type Config struct {
	Provider provider.Provider
	Store    StateStore
	Logger   LogWriter
}

// Service reads balances for the active session.
type Service struct {
	provider provider.Provider
	store    StateStore
	log      LogWriter

	mu       sync.Mutex
	decimals map[string]int
}

// NewService creates a new balance service.
func NewService(cfg *Config) *Service {
	s := &Service{
		provider: cfg.Provider,
		store:    cfg.Store,
		log:      cfg.Logger,
		decimals: make(map[string]int),
	}
	if s.log == nil {
		s.log = nopLog{}
	}
	return s
}

// UpdateBalance reads the native balance of address and stores it rounded
// to four places. On failure the stored balance is left alone.
func (s *Service) UpdateBalance(ctx context.Context, address string) error {
	wei, err := s.NativeBalance(ctx, address)
	if err != nil {
		return err
	}
	s.store.SetNativeBalance(chain.FormatBalance(wei))
	return nil
}

// NativeBalance returns the balance of address in wei.
func (s *Service) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	if s.provider == nil {
		return nil, pocketerr.ErrProviderMissing
	}
	raw, err := provider.Call[string](ctx, s.provider, provider.MethodGetBalance, address, "latest")
	if err != nil {
		return nil, err
	}
	wei, err := hexutil.DecodeBig(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding balance %q: %w", raw, err)
	}
	return wei, nil
}

// GetTokenBalance reads the active account's balance of the token at
// tokenAddress using the contract interface abiJSON. Failures never
// propagate: they yield an Unavailable result with Value "0".
func (s *Service) GetTokenBalance(ctx context.Context, tokenAddress, abiJSON string) Result {
	st := s.store.Snapshot()
	if !st.Connected {
		return unavailable(tokenAddress, pocketerr.ErrNotConnected.Message)
	}
	if s.provider == nil {
		return unavailable(tokenAddress, pocketerr.ErrProviderMissing.Message)
	}
	if !common.IsHexAddress(tokenAddress) {
		return unavailable(tokenAddress, pocketerr.ErrInvalidAddress.Message)
	}

	contract, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		s.log.Error("token %s: parsing abi: %v", tokenAddress, err)
		return unavailable(tokenAddress, "invalid contract interface: "+err.Error())
	}

	var amount *big.Int
	if err := s.call(ctx, contract, tokenAddress, "balanceOf", &amount, common.HexToAddress(st.Address)); err != nil {
		s.log.Error("token %s: balanceOf %s: %v", tokenAddress, st.Address, err)
		return unavailable(tokenAddress, err.Error())
	}

	decimals, err := s.tokenDecimals(ctx, contract, tokenAddress)
	if err != nil {
		s.log.Error("token %s: decimals: %v", tokenAddress, err)
		return unavailable(tokenAddress, err.Error())
	}
	return Result{
		Token:    tokenAddress,
		Status:   StatusOK,
		Value:    chain.FormatDecimalAmount(amount, decimals),
		Decimals: decimals,
	}
}

// Portfolio looks up every token in turn, one result per token.
func (s *Service) Portfolio(ctx context.Context, tokens []chain.Token) []Result {
	out := make([]Result, 0, len(tokens))
	for _, tok := range tokens {
		if ctx.Err() != nil {
			r := unavailable(tok.Address, ctx.Err().Error())
			r.Symbol = tok.Symbol
			out = append(out, r)
			continue
		}
		r := s.GetTokenBalance(ctx, tok.Address, ERC20ABI)
		r.Symbol = tok.Symbol
		out = append(out, r)
	}
	return out
}

type watchAssetParams struct {
	Type    string       `json:"type"`
	Options watchOptions `json:"options"`
}

type watchOptions struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// WatchAsset asks the wallet to track token. It returns false when the
// wallet declines or the request fails.
func (s *Service) WatchAsset(ctx context.Context, token chain.Token) bool {
	if s.provider == nil {
		s.log.Error("watch asset %s: %v", token.Symbol, pocketerr.ErrProviderMissing)
		return false
	}
	accepted, err := provider.Call[bool](ctx, s.provider, provider.MethodWatchAsset, watchAssetParams{
		Type: "ERC20",
		Options: watchOptions{
			Address:  token.Address,
			Symbol:   token.Symbol,
			Decimals: token.Decimals,
		},
	})
	if err != nil {
		s.log.Error("watch asset %s: %v", token.Symbol, err)
		return false
	}
	return accepted
}

// tokenDecimals asks the contract for its decimals. Answers are cached per
// token.
func (s *Service) tokenDecimals(ctx context.Context, contract abi.ABI, token string) (int, error) {
	key := strings.ToLower(token)
	s.mu.Lock()
	d, ok := s.decimals[key]
	s.mu.Unlock()
	if ok {
		return d, nil
	}

	if _, has := contract.Methods["decimals"]; !has {
		return 0, fmt.Errorf("contract interface has no decimals method")
	}

	var raw uint8
	if err := s.call(ctx, contract, token, "decimals", &raw); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.decimals[key] = int(raw)
	s.mu.Unlock()
	return int(raw), nil
}

type callMsg struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// call packs method, runs eth_call against token and unpacks the single
// return value into out.
func (s *Service) call(ctx context.Context, contract abi.ABI, token, method string, out any, args ...any) error {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("packing %s: %w", method, err)
	}

	raw, err := provider.Call[string](ctx, s.provider, provider.MethodCall,
		callMsg{To: token, Data: hexutil.Encode(data)}, "latest")
	if err != nil {
		return err
	}

	ret, err := hexutil.Decode(raw)
	if err != nil {
		return fmt.Errorf("decoding %s result: %w", method, err)
	}
	if len(ret) == 0 {
		return fmt.Errorf("%s: empty result from %s", method, token)
	}

	if err := contract.UnpackIntoInterface(out, method, ret); err != nil {
		return fmt.Errorf("unpacking %s: %w", method, err)
	}
	return nil
}

type nopLog struct{}

func (nopLog) Debug(string, ...any) {}
func (nopLog) Error(string, ...any) {}
