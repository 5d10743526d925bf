package chain_test

import (
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/pocket/internal/chain"
)

func TestLookupToken(t *testing.T) {
	t.Parallel()

	tok, ok := chain.LookupToken(" usdt ")
	require.True(t, ok)
	assert.Equal(t, "USDT", tok.Symbol)
	assert.Equal(t, "0x55d398326f99059fF775485246999027B3197955", tok.Address)
	assert.Equal(t, chain.RegistryDecimals, tok.Decimals)

	_, ok = chain.LookupToken("NOPE")
	assert.False(t, ok)
}

func TestTokensAreSortedAndValid(t *testing.T) {
	t.Parallel()

	toks := chain.Tokens()
	require.NotEmpty(t, toks)
	assert.True(t, sort.SliceIsSorted(toks, func(i, j int) bool { return toks[i].Symbol < toks[j].Symbol }))
	for _, tok := range toks {
		assert.True(t, common.IsHexAddress(tok.Address), tok.Symbol)
	}
}

func TestSuggestToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"USDTT", "USDT"},
		{"cak", "CAKE"},
		{"USTD", "USDT"},
		{"ustd", "USDT"},
		{"BSUD", "BUSD"},
		{"USDX", "USDC"},
		{"", ""},
		{"ZZZZZZZZ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, chain.SuggestToken(tt.input))
		})
	}
}
