package chain

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// RegistryDecimals is the decimal count announced for registry tokens in
// watch-asset requests. Balances always use the contract's own decimals().
const RegistryDecimals = 18

// maxSymbolDistance bounds "did you mean" suggestions.
const maxSymbolDistance = 2

// Token describes a BEP-20 token on BNB Smart Chain.
type Token struct {
	Symbol   string `json:"symbol" yaml:"symbol" validate:"required"`
	Address  string `json:"address" yaml:"address" validate:"required,eth_addr"`
	Decimals int    `json:"decimals" yaml:"decimals" validate:"gte=0,lte=36"`
}

// registry holds the popular BSC tokens keyed by symbol.
//
//nolint:gochecknoglobals // Static token table
var registry = map[string]string{
	// Popular
	"USDT":  "0x55d398326f99059fF775485246999027B3197955",
	"USDC":  "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d",
	"BUSD":  "0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56",
	"CAKE":  "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82",
	"ADA":   "0x3EE2200Efb3400fAbB9AacF31297cBdD1d435D47",
	"DOT":   "0x7083609fCE4d1d8Dc0C979AAb8c869Ea2C873402",
	"LINK":  "0xF8A0BF9cF54Bb92F17374d9e9A321E6a111a51bD",
	"UNI":   "0xBf5140A22578168FD562DCcF235E5D43A02ce9B1",
	"LTC":   "0x4338665CBB7B2485A8855A139b75D5e34AB0DB94",
	"BCH":   "0x8fF795a6F4D97E7887C79beA79aba5cc76444aDf",
	"EOS":   "0x56b6fB708fC5732DEC32683D9bd18C5e20F1d04e",
	"XRP":   "0x1D2F0da169ceB9fC7B3144628dB156f3F6c60dBE",
	"TRX":   "0xCE7de646e7208a4Ef112cb6ed5038FA6cC6b12e3",
	"MATIC": "0xCC42724C6683B7E57334c4E856f4c9965ED682bD",
	"AVAX":  "0x1CE0c2827e2eF14D5C4f29a091d735A204794041",
	"SHIB":  "0x2859e4544C4bB03966803b044A93563Bd2D0DD4D",
	"DOGE":  "0xbA2aE424d960c26247Dd6c32edC70B295c744C43",

	// DeFi
	"ALPHA":  "0xa1faa113cbE53436Df28FF0aEe54275c13B40183",
	"BETH":   "0x250632378E573c6Be1AC2f97Fcdf00515d0Aa91B",
	"VAI":    "0x4BD17003473389A42DAF6a0a729f6Fdb328BbBd7",
	"XVS":    "0xcF6BB5389c92Bdda8a3747Ddb454cB7a64626C63",
	"SXP":    "0x47BEAd2563dCBf3bF2c9407fEa4dC236fAbA485A",
	"BAKE":   "0xE02dF9e3e622DeBdD69fb838bB799E3F168902c5",
	"BURGER": "0xAe9269f27437f0fcBC232d39Ec814844a51d6b8f",
	"AUTO":   "0xa184088a740c695E156F91f5cC086a06bb78b827",
	"BELT":   "0xE0e514c71282b6f4e823703a39374Cf58dc3eA4f",
	"BUNNY":  "0xC9849E6fdB743d08fAeE3E34dd2D1bc69EA11a51",

	// Gaming and NFT
	"TLM":   "0x2222227E22102Fe3322098e4CBfE18cFebD57c95",
	"AXS":   "0x715D400F88537C0be9c3Ef2860F0A8e0feE6394F",
	"MBOX":  "0x3203c9E46cA618C8C1cE5dC67e7e9D75f5da2377",
	"CHR":   "0xf9CeC8d50f6c8ad3Bb6c2558c0E1dC6CC37E3c94",
	"ALICE": "0xAC51066d7bEC65Dc4589368da368b212745d63E8",
	"SLP":   "0x070a08BeEF8d36734dD67A491202Ff35a6A16d97",

	// Bridged
	"ETH":  "0x2170Ed0880ac9A755fd29B2688956BD959F933F8",
	"BTC":  "0x7130d2A12B9BCbFAe4f2634d864A1Ee1Ce3Ead9c",
	"DAI":  "0x1AF3F329e8BE154074D8769D1FFa4eE058B1DBc3",
	"FIL":  "0x0D8Ce2A99Bb6e3B7Db580eD848240e4a0F9aE153",
	"ATOM": "0x0Eb3a705fc54725037CC9e008bDede697f62F335",
	"XTZ":  "0x16939ef78684453bfDFb47825F8a5F714f12623a",
	"ZIL":  "0xb86AbCb37C3A4B64f74f59301AFF131a1BEcC787",
	"ONT":  "0xFd7B3A77848f1C2D67E05E54d78d174a0C850335",

	// Ecosystem
	"ALPACA":  "0x8F0528cE5eF7B51152A59745bEfDD91D97091d2F",
	"BANANA":  "0x603c7f932ED1fc6575303D8Fb018fDCBb0f39a95",
	"BTCB":    "0x7130d2A12B9BCbFAe4f2634d864A1Ee1Ce3Ead9c",
	"MDX":     "0x9C65AB58d8d978DB963e63f2bfB7121627e3a739",
	"SWINGBY": "0x71DE20e0C4616E7fcBfDD3f875d568492cBE4739",
	"WATCH":   "0x7A9f28EB62C791422Aa23CeAE1dA9C847cBeC9b0",
	"BMXX":    "0x4131b87F74415190425ccD873048C708F8005823",
	"HARD":    "0xf79037F6f6bE66832DE4E7516be52826BC3cBcc4",
	"SWP":     "0x47BEAd2563dCBf3bF2c9407fEa4dC236fAbA485A",

	// Community
	"SAFEMOON": "0x8076C74C5e3F5852037F31Ff0093Eeb8c8ADd8D3",
	"BABY":     "0x53E562b9B7E5E94b81f10e96Ee70Ad06df3D2657",
	"KISHU":    "0xA2B726B1145A4773F68593CF171187d8EBe4d495",
}

// LookupToken returns the registry entry for a symbol (case-insensitive).
func LookupToken(symbol string) (Token, bool) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	addr, ok := registry[sym]
	if !ok {
		return Token{}, false
	}
	return Token{Symbol: sym, Address: addr, Decimals: RegistryDecimals}, true
}

// Tokens returns every registry token sorted by symbol.
func Tokens() []Token {
	out := make([]Token, 0, len(registry))
	for sym, addr := range registry {
		out = append(out, Token{Symbol: sym, Address: addr, Decimals: RegistryDecimals})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// SuggestToken returns the closest registry symbol to input, or an empty
// string when nothing is close enough. Ties go to a symbol spelled with the
// same letters, then to the longest shared prefix, then alphabetically.
func SuggestToken(input string) string {
	in := strings.ToUpper(strings.TrimSpace(input))
	if in == "" {
		return ""
	}

	best := ""
	minDist := math.MaxInt
	for _, tok := range Tokens() {
		dist := levenshtein.ComputeDistance(in, tok.Symbol)
		if dist < minDist || (dist == minDist && breaksTie(in, tok.Symbol, best)) {
			minDist = dist
			best = tok.Symbol
		}
	}

	if minDist <= maxSymbolDistance {
		return best
	}
	return ""
}

// breaksTie reports whether candidate is a better match for in than current
// at equal edit distance.
func breaksTie(in, candidate, current string) bool {
	ca, cu := sameLetters(in, candidate), sameLetters(in, current)
	if ca != cu {
		return ca
	}
	return commonPrefix(in, candidate) > commonPrefix(in, current)
}

func sameLetters(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	ra, rb := []rune(a), []rune(b)
	sort.Slice(ra, func(i, j int) bool { return ra[i] < ra[j] })
	sort.Slice(rb, func(i, j int) bool { return rb[i] < rb[j] })
	return string(ra) == string(rb)
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
