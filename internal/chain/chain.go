// Package chain provides the target chain definitions, the token registry,
// and amount helpers shared by the session and service packages.
package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NativeDecimals is the decimal count of BNB.
const NativeDecimals = 18

// DisplayPlaces is the number of fractional digits shown for balances.
const DisplayPlaces = 4

// NativeCurrency describes the chain's native coin.
type NativeCurrency struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Symbol   string `json:"symbol" yaml:"symbol" validate:"required"`
	Decimals int    `json:"decimals" yaml:"decimals" validate:"gte=0,lte=36"`
}

// Config is the chain definition passed to wallet_addEthereumChain.
// The JSON field names are part of the wallet request vocabulary.
type Config struct {
	ChainID           string         `json:"chainId" yaml:"chain_id" validate:"required,startswith=0x"`
	ChainName         string         `json:"chainName" yaml:"chain_name" validate:"required"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency" yaml:"native_currency"`
	RPCURLs           []string       `json:"rpcUrls" yaml:"rpc_urls" validate:"min=1,dive,url"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls" yaml:"block_explorer_urls" validate:"dive,url"`
}

// BSC is BNB Smart Chain mainnet, the target chain of every session.
//
//nolint:gochecknoglobals // Fixed chain definition
var BSC = Config{
	ChainID:   "0x38",
	ChainName: "BNB Smart Chain",
	NativeCurrency: NativeCurrency{
		Name:     "BNB",
		Symbol:   "BNB",
		Decimals: NativeDecimals,
	},
	RPCURLs:           []string{"https://bsc-dataseed1.binance.org/"},
	BlockExplorerURLs: []string{"https://bscscan.com/"},
}

// BSCTestnet is the BNB Smart Chain test network.
//
//nolint:gochecknoglobals // Fixed chain definition
var BSCTestnet = Config{
	ChainID:   "0x61",
	ChainName: "BNB Smart Chain Testnet",
	NativeCurrency: NativeCurrency{
		Name:     "tBNB",
		Symbol:   "tBNB",
		Decimals: NativeDecimals,
	},
	RPCURLs:           []string{"https://data-seed-prebsc-1-s1.binance.org:8545/"},
	BlockExplorerURLs: []string{"https://testnet.bscscan.com/"},
}

// KnownChains returns the built-in chain definitions.
func KnownChains() []Config {
	return []Config{BSC, BSCTestnet}
}

// ExplorerTxURL returns the block explorer link for a transaction hash,
// or an empty string when the chain has no explorer configured.
func (c Config) ExplorerTxURL(hash string) string {
	if len(c.BlockExplorerURLs) == 0 || hash == "" {
		return ""
	}
	return strings.TrimSuffix(c.BlockExplorerURLs[0], "/") + "/tx/" + hash
}

// ExplorerAddressURL returns the block explorer link for an address.
func (c Config) ExplorerAddressURL(address string) string {
	if len(c.BlockExplorerURLs) == 0 || address == "" {
		return ""
	}
	return strings.TrimSuffix(c.BlockExplorerURLs[0], "/") + "/address/" + address
}

// Clone returns a deep copy so callers can mutate slices safely.
func (c Config) Clone() Config {
	out := c
	out.RPCURLs = append([]string(nil), c.RPCURLs...)
	out.BlockExplorerURLs = append([]string(nil), c.BlockExplorerURLs...)
	return out
}

// ParseChainID decodes a hex chain id such as "0x38". Leading zeros and
// an upper-case prefix are tolerated since some wallets report them.
func ParseChainID(id string) (*big.Int, error) {
	s := strings.ToLower(strings.TrimSpace(id))
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("parsing chain id %q: %w", id, hexutil.ErrMissingPrefix)
	}
	if len(s) == 2 {
		return nil, fmt.Errorf("parsing chain id %q: %w", id, hexutil.ErrEmptyNumber)
	}
	n, ok := new(big.Int).SetString(s[2:], 16)
	if !ok {
		return nil, fmt.Errorf("parsing chain id %q: %w", id, hexutil.ErrSyntax)
	}
	return n, nil
}

// FormatChainID encodes a numeric chain id as a hex quantity.
func FormatChainID(id *big.Int) string {
	if id == nil {
		return ""
	}
	return hexutil.EncodeBig(id)
}

// SameChain reports whether two hex chain ids name the same chain.
// Ids that fail to parse fall back to a case-insensitive string compare.
func SameChain(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	left, errA := ParseChainID(a)
	right, errB := ParseChainID(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(a, b)
	}
	return left.Cmp(right) == 0
}

// ShortAddress abbreviates an address as 0x1234...abcd.
func ShortAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
