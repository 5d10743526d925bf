package local

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/store"
)

// fakeNode is the eth namespace of an in-memory BSC node.
type fakeNode struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
	tip      uint64
	nonce    uint64
	gasPrice *big.Int
	sent     []*types.Transaction
	reject   error
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		balances: make(map[common.Address]*big.Int),
		tip:      1000,
		nonce:    7,
		gasPrice: big.NewInt(3_000_000_000),
	}
}

func (n *fakeNode) GetBalance(addr common.Address, _ string) *hexutil.Big {
	n.mu.Lock()
	defer n.mu.Unlock()
	if b, ok := n.balances[addr]; ok {
		return (*hexutil.Big)(b)
	}
	return (*hexutil.Big)(new(big.Int))
}

func (n *fakeNode) BlockNumber() hexutil.Uint64 {
	return hexutil.Uint64(n.tip)
}

func (n *fakeNode) GetBlockByNumber(num string, _ bool) (map[string]any, error) {
	v, err := hexutil.DecodeUint64(num)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"number":       hexutil.EncodeUint64(v),
		"timestamp":    hexutil.EncodeUint64(1_700_000_000 + v),
		"transactions": []any{},
	}, nil
}

func (n *fakeNode) GasPrice() *hexutil.Big {
	return (*hexutil.Big)(n.gasPrice)
}

func (n *fakeNode) GetTransactionCount(common.Address, string) hexutil.Uint64 {
	return hexutil.Uint64(n.nonce)
}

func (n *fakeNode) EstimateGas(map[string]any) hexutil.Uint64 {
	return 55_000
}

func (n *fakeNode) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.reject != nil {
		return common.Hash{}, n.reject
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}
	n.sent = append(n.sent, tx)
	return tx.Hash(), nil
}

func (n *fakeNode) setBalance(addr string, wei *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances[common.HexToAddress(addr)] = wei
}

func (n *fakeNode) setReject(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reject = err
}

func (n *fakeNode) transactions() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*types.Transaction(nil), n.sent...)
}

// nodeServer serves node over HTTP. The first failures requests answer 503.
type nodeServer struct {
	*httptest.Server
	requests atomic.Int32
	failures atomic.Int32
}

func startNode(t *testing.T, node *fakeNode) *nodeServer {
	t.Helper()

	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", node))

	ns := &nodeServer{}
	ns.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ns.requests.Add(1)
		if ns.failures.Load() > 0 {
			ns.failures.Add(-1)
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		srv.ServeHTTP(w, r)
	}))
	t.Cleanup(func() {
		ns.Close()
		srv.Stop()
	})
	return ns
}

type recordingApprover struct {
	mu      sync.Mutex
	prompts []Prompt
	deny    map[string]bool
}

func (a *recordingApprover) Approve(_ context.Context, p Prompt) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prompts = append(a.prompts, p)
	return !a.deny[p.Kind], nil
}

func (a *recordingApprover) kinds() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.prompts))
	for _, p := range a.prompts {
		out = append(out, p.Kind)
	}
	return out
}

type env struct {
	wallet   *Wallet
	key      *ecdsa.PrivateKey
	node     *fakeNode
	server   *nodeServer
	approver *recordingApprover
	store    *store.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(t.TempDir(), store.FileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	node := newFakeNode()
	server := startNode(t, node)
	approver := &recordingApprover{deny: map[string]bool{}}

	w := New(&Config{
		Store:        st,
		Key:          key,
		Identity:     IdentityTokenPocket,
		RPCOverrides: map[string]string{chain.BSC.ChainID: server.URL},
		Limiter:      chain.NewRateLimiter(1000, 1000),
		Retry: chain.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    2 * time.Millisecond,
		},
		Approver: approver,
	})
	t.Cleanup(func() { _ = w.Close() })

	return &env{wallet: w, key: key, node: node, server: server, approver: approver, store: st}
}

// testnet returns the testnet definition pointed at the fake node.
func (e *env) testnet() chain.Config {
	cfg := chain.BSCTestnet.Clone()
	cfg.RPCURLs = []string{e.server.URL}
	return cfg
}

var errNonceTooLow = errors.New("nonce too low")
