package history

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/pocket/internal/provider"
	"github.com/mrz1836/pocket/internal/provider/providertest"
	"github.com/mrz1836/pocket/internal/session"
)

const (
	me    = "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa"
	other = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	third = "0xcccccccccccccccccccccccccccccccccccccccc"
)

type memLog struct {
	mu     sync.Mutex
	errors []string
}

func (l *memLog) Debug(string, ...any) {}

func (l *memLog) Error(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

type blockCounter struct {
	scanned, skipped int
}

func (c *blockCounter) RecordBlocks(scanned, skipped int) {
	c.scanned += scanned
	c.skipped += skipped
}

func tx(hash, from, to string, wei string) map[string]any {
	out := map[string]any{
		"hash":     hash,
		"from":     from,
		"value":    wei,
		"gasPrice": "0xb2d05e00",
	}
	if to != "" {
		out["to"] = to
	}
	return out
}

// chainFake serves eth_blockNumber and eth_getBlockByNumber from blocks.
// Numbers missing from blocks are empty blocks, numbers in broken fail.
func chainFake(t *testing.T, tip uint64, blocks map[uint64][]map[string]any, broken map[uint64]bool) *providertest.Fake {
	t.Helper()

	f := providertest.New()
	f.Respond(provider.MethodBlockNumber, hexutil.EncodeUint64(tip))
	f.Handle(provider.MethodGetBlockByNumber, func(_ context.Context, params []any) (any, error) {
		require.Len(t, params, 2)
		assert.Equal(t, true, params[1])

		n, err := hexutil.DecodeUint64(params[0].(string))
		if err != nil {
			return nil, provider.NewError(provider.CodeInvalidParams, "bad block %v", params[0])
		}
		if n > tip {
			return nil, nil
		}
		if broken[n] {
			return nil, provider.NewError(provider.CodeInternal, "header not found")
		}
		txs := blocks[n]
		if txs == nil {
			txs = []map[string]any{}
		}
		return map[string]any{
			"number":       hexutil.EncodeUint64(n),
			"timestamp":    hexutil.EncodeUint64(1_700_000_000 + n),
			"transactions": txs,
		}, nil
	})
	return f
}

func connected() *session.Store {
	s := session.NewStore()
	s.MarkConnected(me, "0x38", true, "test")
	return s
}

func newScanner(f *providertest.Fake, store *session.Store) (*Scanner, *memLog, *blockCounter) {
	log := &memLog{}
	counter := &blockCounter{}
	return NewScanner(&Config{Provider: f, Store: store, Logger: log, Metrics: counter}), log, counter
}

func TestGetHistory_NotConnected(t *testing.T) {
	t.Parallel()

	f := chainFake(t, 100, nil, nil)
	s, _, _ := newScanner(f, session.NewStore())

	got := s.GetHistory(context.Background(), 10)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, f.Calls())
}

func TestGetHistory_MatchesAndStopsAtLimit(t *testing.T) {
	t.Parallel()

	f := chainFake(t, 100, map[uint64][]map[string]any{
		100: {
			tx("0x01", other, third, "0x1"),
			tx("0x02", strings.ToLower(me), other, "0x14d1120d7b160000"),
		},
		98: {tx("0x03", other, strings.ToUpper("0x"+me[2:]), "0xde0b6b3a7640000")},
		97: {tx("0x04", me, other, "0x1")},
	}, nil)
	s, _, counter := newScanner(f, connected())

	got := s.GetHistory(context.Background(), 2)
	require.Len(t, got, 2)

	assert.Equal(t, Record{
		Hash:        "0x02",
		From:        strings.ToLower(me),
		To:          other,
		Value:       "1.5000",
		BlockNumber: 100,
		Timestamp:   1_700_000_100,
		Direction:   DirectionSent,
		Status:      StatusSuccess,
		GasPrice:    "3.0",
	}, got[0])

	assert.Equal(t, "0x03", got[1].Hash)
	assert.Equal(t, DirectionReceived, got[1].Direction)
	assert.Equal(t, "1.0000", got[1].Value)
	assert.Equal(t, uint64(98), got[1].BlockNumber)

	assert.Equal(t, 3, f.CallCount(provider.MethodGetBlockByNumber), "walk stops once the limit is met")
	assert.Equal(t, 3, counter.scanned)
}

func TestGetHistory_BlockBudget(t *testing.T) {
	t.Parallel()

	f := chainFake(t, 5000, nil, nil)
	s, _, counter := newScanner(f, connected())

	got := s.GetHistory(context.Background(), 3)
	assert.Empty(t, got)
	assert.Equal(t, 30, f.CallCount(provider.MethodGetBlockByNumber))
	assert.Equal(t, 30, counter.scanned)

	calls := f.Calls()
	assert.Equal(t, provider.MethodBlockNumber, calls[0].Method)
	assert.Equal(t, hexutil.EncodeUint64(5000), calls[1].Params[0])
	assert.Equal(t, hexutil.EncodeUint64(4971), calls[len(calls)-1].Params[0])
}

func TestGetHistory_NonPositiveLimit(t *testing.T) {
	t.Parallel()

	for _, limit := range []int{0, -1} {
		f := chainFake(t, 200, map[uint64][]map[string]any{
			200: {tx("0x0a", me, other, "0x1")},
			199: {tx("0x0b", other, me, "0x2")},
		}, nil)
		s, _, counter := newScanner(f, connected())

		got := s.GetHistory(context.Background(), limit)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Empty(t, f.Calls(), "limit %d", limit)
		assert.Zero(t, counter.scanned)
	}
}

func TestGetHistory_StopsAtGenesis(t *testing.T) {
	t.Parallel()

	f := chainFake(t, 3, map[uint64][]map[string]any{
		0: {tx("0x0a", other, me, "0x0")},
	}, nil)
	s, _, _ := newScanner(f, connected())

	got := s.GetHistory(context.Background(), 10)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(0), got[0].BlockNumber)
	assert.Equal(t, "0.0000", got[0].Value)
	assert.Equal(t, 4, f.CallCount(provider.MethodGetBlockByNumber))
}

func TestGetHistory_SkipsFailingBlocks(t *testing.T) {
	t.Parallel()

	f := chainFake(t, 10, map[uint64][]map[string]any{
		9: {tx("0x09", me, other, "0x1")},
		7: {tx("0x07", other, me, "0x1")},
	}, map[uint64]bool{9: true, 8: true})
	s, log, counter := newScanner(f, connected())

	got := s.GetHistory(context.Background(), 1)
	require.Len(t, got, 1)
	assert.Equal(t, "0x07", got[0].Hash)

	assert.Len(t, log.errors, 2)
	assert.Equal(t, 4, counter.scanned)
	assert.Equal(t, 2, counter.skipped)
}

func TestGetHistory_NullBlockSkipped(t *testing.T) {
	t.Parallel()

	f := providertest.New()
	f.Respond(provider.MethodBlockNumber, "0x1")
	f.Respond(provider.MethodGetBlockByNumber, nil)
	s, log, counter := newScanner(f, connected())

	assert.Empty(t, s.GetHistory(context.Background(), 5))
	assert.Equal(t, 2, counter.skipped)
	assert.Len(t, log.errors, 2)
}

func TestGetHistory_ContractCreation(t *testing.T) {
	t.Parallel()

	f := chainFake(t, 1, map[uint64][]map[string]any{
		1: {tx("0x0c", me, "", "0x0")},
	}, nil)
	s, _, _ := newScanner(f, connected())

	got := s.GetHistory(context.Background(), 1)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].To)
	assert.Equal(t, DirectionSent, got[0].Direction)
}

func TestGetHistory_TipFailure(t *testing.T) {
	t.Parallel()

	f := providertest.New().Fail(provider.MethodBlockNumber, provider.CodeDisconnected, "disconnected")
	s, log, _ := newScanner(f, connected())

	got := s.GetHistory(context.Background(), 10)
	assert.Empty(t, got)
	assert.Len(t, log.errors, 1)
	assert.Zero(t, f.CallCount(provider.MethodGetBlockByNumber))
}

func TestGetHistory_Canceled(t *testing.T) {
	t.Parallel()

	f := chainFake(t, 100, nil, nil)
	s, _, _ := newScanner(f, connected())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, s.GetHistory(ctx, 10))
	assert.Zero(t, f.CallCount(provider.MethodGetBlockByNumber))
}

func TestBlockBudget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		limit int
		want  uint64
	}{
		{-1, 0},
		{0, 0},
		{1, 10},
		{10, 100},
		{100, 1000},
		{250, 1000},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("limit_%d", tc.limit), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, BlockBudget(tc.limit))
		})
	}
}
