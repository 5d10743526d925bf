// Package provider defines the wallet provider contract: an EIP-1193 style
// endpoint that answers JSON-RPC requests and emits notifications.
package provider

import (
	"context"
	"encoding/json"
)

// Request methods understood by a wallet provider.
const (
	MethodRequestAccounts = "eth_requestAccounts"
	MethodAccounts        = "eth_accounts"
	MethodChainID         = "eth_chainId"
	MethodSwitchChain     = "wallet_switchEthereumChain"
	MethodAddChain        = "wallet_addEthereumChain"
	MethodWatchAsset      = "wallet_watchAsset"

	MethodGetBalance       = "eth_getBalance"
	MethodCall             = "eth_call"
	MethodBlockNumber      = "eth_blockNumber"
	MethodGetBlockByNumber = "eth_getBlockByNumber"
	MethodSendTransaction  = "eth_sendTransaction"
)

// Notification events emitted by a wallet provider.
const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
	EventDisconnect      = "disconnect"
)

// Handler receives the payload of a notification. accountsChanged carries a
// JSON array of addresses, chainChanged a JSON string, disconnect an error
// object or nothing.
type Handler func(payload json.RawMessage)

// Provider is a wallet endpoint. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Request sends a JSON-RPC request and returns the raw result. Wallet
	// failures are reported as *Error.
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)

	// Subscribe registers handler for event and returns the function that
	// removes exactly that registration.
	Subscribe(event string, handler Handler) (unsubscribe func())
}

// Capabilities are the identity flags a provider advertises.
type Capabilities struct {
	TokenPocket bool `json:"isTokenPocket"`
	MetaMask    bool `json:"isMetaMask"`
	SafePal     bool `json:"isSafePal"`
}

// Flagger is implemented by providers that advertise identity flags.
type Flagger interface {
	Flags() Capabilities
}
