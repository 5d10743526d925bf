package local

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/provider"
)

// transferGas is the fixed cost of a plain value transfer.
const transferGas = 21000

type txRequest struct {
	From  string          `json:"from"`
	To    string          `json:"to"`
	Value *hexutil.Big    `json:"value"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
	Gas   *hexutil.Uint64 `json:"gas,omitempty"`
}

type estimateRequest struct {
	From  string        `json:"from"`
	To    string        `json:"to"`
	Value *hexutil.Big  `json:"value,omitempty"`
	Data  hexutil.Bytes `json:"data,omitempty"`
}

// sendTransaction signs a legacy EIP-155 transaction for the authorized
// account and broadcasts it. The hash is returned as soon as the node
// accepts the raw transaction.
func (w *Wallet) sendTransaction(ctx context.Context, params []any) (string, error) {
	var req txRequest
	if err := decodeParam(params, 0, &req); err != nil {
		return "", err
	}
	if w.address == "" {
		return "", provider.NewError(provider.CodeUnauthorized, "no account available")
	}

	st, err := w.load()
	if err != nil {
		return "", err
	}
	if !st.authorized(w.address) || !strings.EqualFold(req.From, w.address) {
		return "", provider.NewError(provider.CodeUnauthorized, "account %s is not authorized", req.From)
	}
	if !common.IsHexAddress(req.To) {
		return "", provider.NewError(provider.CodeInvalidParams, "invalid recipient %q", req.To)
	}

	value := new(big.Int)
	if req.Value != nil {
		value = req.Value.ToInt()
	}
	to := common.HexToAddress(req.To)

	chainIDHex, url, err := w.endpoint()
	if err != nil {
		return "", err
	}
	chainID, err := chain.ParseChainID(chainIDHex)
	if err != nil {
		return "", provider.NewError(provider.CodeInternal, "%v", err)
	}

	summary := "Send " + chain.FormatDecimalAmount(value, chain.NativeDecimals) + " to " + to.Hex() + " on " + chainIDHex
	if err := w.approve(ctx, KindTransaction, summary); err != nil {
		return "", err
	}

	key, err := w.signingKey(ctx)
	if err != nil {
		return "", err
	}

	var nonce hexutil.Uint64
	if err := w.read(ctx, &nonce, methodGetTransactionCount, w.address, "pending"); err != nil {
		return "", err
	}
	var gasPrice hexutil.Big
	if err := w.read(ctx, &gasPrice, methodGasPrice); err != nil {
		return "", err
	}

	gas := uint64(transferGas)
	switch {
	case req.Gas != nil:
		gas = uint64(*req.Gas)
	case len(req.Data) > 0:
		var est hexutil.Uint64
		if err := w.read(ctx, &est, methodEstimateGas, estimateRequest{
			From: w.address, To: to.Hex(), Value: req.Value, Data: req.Data,
		}); err != nil {
			return "", err
		}
		gas = uint64(est)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    uint64(nonce),
		GasPrice: gasPrice.ToInt(),
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     req.Data,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), key)
	if err != nil {
		return "", provider.NewError(provider.CodeInternal, "signing transaction: %v", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return "", provider.NewError(provider.CodeInternal, "encoding transaction: %v", err)
	}

	var hash common.Hash
	if err := w.submit(ctx, url, &hash, methodSendRawTransaction, hexutil.Encode(raw)); err != nil {
		return "", err
	}
	w.log.Debug("local wallet: broadcast %s nonce=%d", hash.Hex(), uint64(nonce))
	return hash.Hex(), nil
}

// read forwards method and decodes the result into out.
func (w *Wallet) read(ctx context.Context, out any, method string, params ...any) error {
	raw, err := w.forward(ctx, method, params...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return provider.NewError(provider.CodeInternal, "decoding %s: %v", method, err)
	}
	return nil
}
