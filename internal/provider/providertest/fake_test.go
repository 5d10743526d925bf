package providertest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/pocket/internal/provider"
)

func TestFakeRecordsAndAnswers(t *testing.T) {
	t.Parallel()

	f := New().Respond(provider.MethodChainID, "0x38")
	raw, err := f.Request(context.Background(), provider.MethodChainID)
	require.NoError(t, err)
	assert.JSONEq(t, `"0x38"`, string(raw))

	_, err = f.Request(context.Background(), provider.MethodSwitchChain, map[string]string{"chainId": "0x38"})
	assert.Equal(t, provider.CodeUnsupportedMethod, provider.CodeOf(err))

	assert.Equal(t, []string{provider.MethodChainID, provider.MethodSwitchChain}, f.Methods())
	assert.Equal(t, 1, f.CallCount(provider.MethodSwitchChain))

	f.Reset()
	assert.Empty(t, f.Calls())
}

func TestFakeSubscriptions(t *testing.T) {
	t.Parallel()

	f := New()
	var got []string
	unsub := f.Subscribe(provider.EventChainChanged, func(payload json.RawMessage) {
		var id string
		require.NoError(t, json.Unmarshal(payload, &id))
		got = append(got, id)
	})
	other := f.Subscribe(provider.EventChainChanged, func(json.RawMessage) {})

	f.Emit(provider.EventChainChanged, "0x61")
	assert.Equal(t, []string{"0x61"}, got)
	assert.Equal(t, 2, f.Subscribers(provider.EventChainChanged))

	unsub()
	f.Emit(provider.EventChainChanged, "0x38")
	assert.Equal(t, []string{"0x61"}, got)
	assert.Equal(t, 1, f.Subscribers(provider.EventChainChanged))
	other()
	assert.Zero(t, f.Subscribers(provider.EventChainChanged))
}

func TestFakeCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Respond(provider.MethodAccounts, []string{}).Request(ctx, provider.MethodAccounts)
	require.ErrorIs(t, err, context.Canceled)
}
