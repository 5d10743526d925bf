// Package history finds recent transactions of the active account by
// walking blocks backward from the chain tip.
package history

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/provider"
)

// Scan bounds.
const (
	DefaultLimit    = 10
	BlocksPerRecord = 10
	MaxBlocks       = 1000
)

// gweiDecimals formats gas prices in gwei.
const gweiDecimals = 9

// Config holds the configuration for the history scanner.
type Config struct {
	Provider provider.Provider
	Store    StateStore
	Logger   LogWriter
	Metrics  Recorder
}

// Scanner reads transaction history through the wallet provider.
type Scanner struct {
	provider provider.Provider
	store    StateStore
	log      LogWriter
	metrics  Recorder
}

// NewScanner creates a new history scanner.
func NewScanner(cfg *Config) *Scanner {
	return &Scanner{
		provider: cfg.Provider,
		store:    cfg.Store,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// BlockBudget returns how many blocks a scan for limit records may read.
func BlockBudget(limit int) uint64 {
	if limit <= 0 {
		return 0
	}
	return uint64(min(limit*BlocksPerRecord, MaxBlocks)) //nolint:gosec // bounded above
}

// GetHistory returns up to limit transactions sent from or to the active
// account, newest block first. A limit of zero or less reads nothing.
// Blocks that cannot be fetched are skipped. The result is empty, never
// nil, when the wallet is not connected or the tip cannot be read.
func (s *Scanner) GetHistory(ctx context.Context, limit int) []Record {
	records := []Record{}

	if limit <= 0 {
		return records
	}
	st := s.store.Snapshot()
	if !st.Connected || st.Address == "" || s.provider == nil {
		return records
	}

	tipHex, err := provider.Call[hexutil.Uint64](ctx, s.provider, provider.MethodBlockNumber)
	if err != nil {
		s.logError("reading block number: %v", err)
		return records
	}
	tip := uint64(tipHex)

	budget := BlockBudget(limit)
	var scanned, skipped int
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordBlocks(scanned, skipped)
		}
	}()

	for i := uint64(0); i < budget && i <= tip; i++ {
		if ctx.Err() != nil {
			s.logDebug("history scan stopped at block %d: %v", tip-i, ctx.Err())
			break
		}
		n := tip - i
		scanned++

		block, err := s.block(ctx, n)
		if err != nil {
			skipped++
			s.logError("skipping block %d: %v", n, err)
			continue
		}

		for _, tx := range block.Transactions {
			rec, ok := match(st.Address, block, tx)
			if !ok {
				continue
			}
			records = append(records, rec)
			if len(records) == limit {
				return records
			}
		}
	}

	s.logDebug("history scan read %d blocks from %d, found %d records", scanned, tip, len(records))
	return records
}

func (s *Scanner) block(ctx context.Context, n uint64) (*rpcBlock, error) {
	block, err := provider.Call[*rpcBlock](ctx, s.provider, provider.MethodGetBlockByNumber, hexutil.EncodeUint64(n), true)
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, fmt.Errorf("block %d not available", n)
	}
	block.Number = hexutil.Uint64(n)
	return block, nil
}

func match(address string, block *rpcBlock, tx rpcTx) (Record, bool) {
	to := ""
	if tx.To != nil {
		to = *tx.To
	}

	var dir Direction
	switch {
	case strings.EqualFold(tx.From, address):
		dir = DirectionSent
	case strings.EqualFold(to, address):
		dir = DirectionReceived
	default:
		return Record{}, false
	}

	return Record{
		Hash:        tx.Hash,
		From:        tx.From,
		To:          to,
		Value:       chain.FormatBalance(bigOf(tx.Value)),
		BlockNumber: uint64(block.Number),
		Timestamp:   uint64(block.Timestamp),
		Direction:   dir,
		Status:      StatusSuccess,
		GasPrice:    chain.FormatDecimalAmount(bigOf(tx.GasPrice), gweiDecimals),
	}, true
}

func bigOf(v *hexutil.Big) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToInt()
}

func (s *Scanner) logDebug(format string, args ...any) {
	if s.log != nil {
		s.log.Debug(format, args...)
	}
}

func (s *Scanner) logError(format string, args ...any) {
	if s.log != nil {
		s.log.Error(format, args...)
	}
}
