package local

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/provider"
)

// Node methods used while signing.
const (
	methodGasPrice            = "eth_gasPrice"
	methodGetTransactionCount = "eth_getTransactionCount"
	methodEstimateGas         = "eth_estimateGas"
	methodSendRawTransaction  = "eth_sendRawTransaction"
)

// endpoint returns the node URL for the active chain.
func (w *Wallet) endpoint() (string, string, error) {
	st, err := w.load()
	if err != nil {
		return "", "", err
	}
	id := st.active()
	if url, ok := w.overrides[strings.ToLower(id)]; ok && url != "" {
		return id, url, nil
	}
	cfg, ok := st.lookup(id)
	if !ok || len(cfg.RPCURLs) == 0 {
		return "", "", provider.NewError(provider.CodeChainDisconnected, "no node configured for chain %s", id)
	}
	return id, cfg.RPCURLs[0], nil
}

func (w *Wallet) client(ctx context.Context, url string) (*rpc.Client, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if c, ok := w.clients[url]; ok {
		return c, nil
	}
	c, err := w.dial(ctx, url)
	if err != nil {
		return nil, provider.NewError(provider.CodeDisconnected, "connecting to %s: %v", url, err)
	}
	w.clients[url] = c
	return c, nil
}

// forward relays a read to the active chain's node. Reads are rate limited
// per host and retried on transient failures.
func (w *Wallet) forward(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	_, url, err := w.endpoint()
	if err != nil {
		return nil, err
	}
	c, err := w.client(ctx, url)
	if err != nil {
		return nil, err
	}

	raw, err := chain.RetryWithConfig(ctx, w.retry, func() (json.RawMessage, error) {
		if err := w.limiter.Wait(ctx, url); err != nil {
			return nil, err
		}
		var out json.RawMessage
		err := c.CallContext(ctx, &out, method, params...)
		return out, err
	})
	if err != nil {
		w.log.Debug("local wallet: %s via %s failed: %v", method, url, err)
		return nil, nodeError(err)
	}
	return raw, nil
}

// submit sends once without retry.
func (w *Wallet) submit(ctx context.Context, url string, result any, method string, params ...any) error {
	c, err := w.client(ctx, url)
	if err != nil {
		return err
	}
	if err := w.limiter.Wait(ctx, url); err != nil {
		return err
	}
	if err := c.CallContext(ctx, result, method, params...); err != nil {
		return nodeError(err)
	}
	return nil
}

// nodeError maps a node failure onto a provider error. JSON-RPC errors keep
// their code; transport failures become disconnected.
func nodeError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		out := &provider.Error{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
		var dataErr rpc.DataError
		if errors.As(err, &dataErr) {
			out.Data = dataErr.ErrorData()
		}
		return out
	}
	return provider.NewError(provider.CodeDisconnected, "%v", err)
}
