// Package transaction submits native BNB transfers through the wallet
// provider.
package transaction

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/provider"
	"github.com/mrz1836/pocket/internal/session"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// Config holds the configuration for the transaction service.
type Config struct {
	Provider provider.Provider
	Store    StateStore
	Balance  BalanceRefresher
	Logger   LogWriter
	Metrics  Recorder
}

// Service submits transfers for the active session.
type Service struct {
	provider provider.Provider
	store    StateStore
	balance  BalanceRefresher
	log      LogWriter
	metrics  Recorder
}

// NewService creates a new transaction service.
func NewService(cfg *Config) *Service {
	return &Service{
		provider: cfg.Provider,
		store:    cfg.Store,
		balance:  cfg.Balance,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// SendNative asks the wallet to send amount BNB (a decimal string) from the
// active account to to. Inputs are checked before the wallet is contacted.
// The transaction is submitted once and never awaited.
func (s *Service) SendNative(ctx context.Context, to, amount string) (SendResult, error) {
	res, err := s.send(ctx, to, amount)
	if s.metrics != nil {
		s.metrics.RecordSend(err == nil)
	}
	if err != nil {
		s.logError("send %s BNB to %s: %v", amount, to, err)
		return SendResult{Error: session.ErrorMessage(err)}, err
	}
	return res, nil
}

func (s *Service) send(ctx context.Context, to, amount string) (SendResult, error) {
	st := s.store.Snapshot()
	if !st.Connected {
		return SendResult{}, pocketerr.ErrNotConnected
	}
	if s.provider == nil {
		return SendResult{}, pocketerr.ErrProviderMissing
	}

	if err := ValidateAddress(to); err != nil {
		return SendResult{}, err
	}

	wei, err := chain.ParseDecimalAmount(amount, chain.NativeDecimals, pocketerr.ErrInvalidAmount)
	if err != nil || wei.Sign() == 0 {
		return SendResult{}, pocketerr.WithDetails(pocketerr.ErrInvalidAmount, map[string]string{"amount": amount})
	}
	if chain.CompareDisplay(wei, st.NativeBalance, chain.NativeDecimals) > 0 {
		return SendResult{}, pocketerr.WithDetails(pocketerr.ErrInsufficientFunds, map[string]string{
			"amount":  amount,
			"balance": st.NativeBalance,
		})
	}

	hash, err := provider.Call[string](ctx, s.provider, provider.MethodSendTransaction, txRequest{
		From:  st.Address,
		To:    to,
		Value: hexutil.EncodeBig(wei),
	})
	if err != nil {
		return SendResult{}, err
	}
	s.logDebug("submitted %s BNB to %s: %s", amount, to, hash)

	if s.balance != nil {
		if err := s.balance.UpdateBalance(ctx, st.Address); err != nil {
			s.logError("refreshing balance after send: %v", err)
		}
	}
	return SendResult{Success: true, Hash: hash}, nil
}

func (s *Service) logDebug(format string, args ...any) {
	if s.log != nil {
		s.log.Debug(format, args...)
	}
}

func (s *Service) logError(format string, args ...any) {
	if s.log != nil {
		s.log.Error(format, args...)
	}
}
