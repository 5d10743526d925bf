package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/pocket/internal/provider"
	"github.com/mrz1836/pocket/internal/provider/providertest"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// switchingWallet starts on startChain and moves to whatever chain a
// successful switch or add requests.
func switchingWallet(startChain string, knowsTarget bool) *providertest.Fake {
	var mu sync.Mutex
	current := startChain

	f := providertest.New().Respond(provider.MethodRequestAccounts, []string{testAddress})
	f.Handle(provider.MethodChainID, func(context.Context, []any) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		return current, nil
	})
	f.Handle(provider.MethodSwitchChain, func(_ context.Context, params []any) (any, error) {
		if !knowsTarget {
			return nil, provider.NewError(provider.CodeUnrecognizedChain, "Unrecognized chain ID")
		}
		mu.Lock()
		defer mu.Unlock()
		current = params[0].(switchParams).ChainID
		return nil, nil
	})
	f.Handle(provider.MethodAddChain, func(context.Context, []any) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		current = "0x38"
		return nil, nil
	})
	return f
}

func TestConnect_Success(t *testing.T) {
	t.Parallel()
	h := newHarness(happyWallet())

	res, err := h.seq.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ConnectResult{Success: true, Address: testAddress}, res)

	st := h.store.Snapshot()
	assert.True(t, st.Connected)
	assert.Equal(t, testAddress, st.Address)
	assert.Equal(t, "0x38", st.ChainID)
	assert.True(t, st.OnTargetChain)
	assert.Equal(t, "1.5000", st.NativeBalance)
	assert.False(t, st.Loading)
	assert.Empty(t, st.LastError)
	assert.NotEmpty(t, st.ID)

	assert.Equal(t, []string{
		provider.MethodRequestAccounts,
		provider.MethodChainID,
		provider.MethodChainID,
	}, h.fake.Methods())
	assert.Equal(t, []string{testAddress}, h.hints.saved)
	assert.Equal(t, []string{testAddress}, h.balance.addresses())
}

func TestConnect_SwitchesAndAdds(t *testing.T) {
	t.Parallel()

	t.Run("switch", func(t *testing.T) {
		t.Parallel()
		h := newHarness(switchingWallet("0x1", true))
		res, err := h.seq.Connect(context.Background())
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Zero(t, h.fake.CallCount(provider.MethodAddChain))
		assert.True(t, h.store.Snapshot().OnTargetChain)
	})

	t.Run("add after unknown chain", func(t *testing.T) {
		t.Parallel()
		h := newHarness(switchingWallet("0x1", false))
		res, err := h.seq.Connect(context.Background())
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, 1, h.fake.CallCount(provider.MethodSwitchChain))
		assert.Equal(t, 1, h.fake.CallCount(provider.MethodAddChain))
		assert.Equal(t, "0x38", h.store.Snapshot().ChainID)
	})
}

func TestConnect_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fake     func() *providertest.Fake
		wantErr  error
		wantMsg  string
		maxCalls int
	}{
		{
			name:    "no provider",
			fake:    func() *providertest.Fake { return nil },
			wantErr: pocketerr.ErrProviderMissing,
			wantMsg: "wallet provider not found",
		},
		{
			name: "not tokenpocket",
			fake: func() *providertest.Fake {
				f := happyWallet()
				f.Caps = provider.Capabilities{MetaMask: true}
				return f
			},
			wantErr: pocketerr.ErrWrongWalletApp,
			wantMsg: "please use TokenPocket browser to connect",
		},
		{
			name: "no accounts",
			fake: func() *providertest.Fake {
				return happyWallet().Respond(provider.MethodRequestAccounts, []string{})
			},
			wantErr: pocketerr.ErrNoAccounts,
			wantMsg: "no accounts found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(tt.fake())

			res, err := h.seq.Connect(context.Background())
			require.ErrorIs(t, err, tt.wantErr)
			assert.False(t, res.Success)
			assert.Equal(t, tt.wantMsg, res.Error)

			st := h.store.Snapshot()
			assert.False(t, st.Connected)
			assert.Empty(t, st.Address)
			assert.Equal(t, "0", st.NativeBalance)
			assert.False(t, st.Loading)
			assert.Equal(t, tt.wantMsg, st.LastError)
			assert.Empty(t, h.hints.saved)
		})
	}
}

func TestConnect_NonTokenPocketIssuesNoRequest(t *testing.T) {
	t.Parallel()
	f := happyWallet()
	f.Caps = provider.Capabilities{SafePal: true}
	h := newHarness(f)

	_, err := h.seq.Connect(context.Background())
	require.ErrorIs(t, err, pocketerr.ErrWrongWalletApp)
	assert.Empty(t, f.Calls())
}

func TestConnect_UserRejectionPassesThrough(t *testing.T) {
	t.Parallel()
	f := happyWallet().Fail(provider.MethodRequestAccounts, provider.CodeUserRejected, "User rejected the request.")
	h := newHarness(f)

	res, err := h.seq.Connect(context.Background())
	var pe *provider.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, provider.CodeUserRejected, pe.Code)
	assert.Equal(t, "User rejected the request.", res.Error)
	assert.Equal(t, "User rejected the request.", h.store.Snapshot().LastError)
	assert.False(t, h.store.Snapshot().Connected)
}

func TestConnect_ChainAssuranceFailureLeavesDisconnected(t *testing.T) {
	t.Parallel()
	f := happyWallet().
		Respond(provider.MethodChainID, "0x1").
		Fail(provider.MethodSwitchChain, provider.CodeUserRejected, "User rejected the request.")
	h := newHarness(f)

	res, err := h.seq.Connect(context.Background())
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, provider.CodeUserRejected, provider.CodeOf(err))

	st := h.store.Snapshot()
	assert.False(t, st.Connected)
	assert.Empty(t, st.Address)
	assert.Empty(t, h.balance.addresses())
}

func TestConnect_BestEffortSteps(t *testing.T) {
	t.Parallel()
	h := newHarness(happyWallet())
	h.balance.err = provider.NewError(provider.CodeInternal, "node down")
	h.hints.err = errDiskFull

	res, err := h.seq.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)

	st := h.store.Snapshot()
	assert.True(t, st.Connected)
	assert.Equal(t, "0", st.NativeBalance)
	assert.Empty(t, st.LastError, "best-effort failures are not user errors")

	lines := h.log.errorLines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "refreshing balance")
	assert.Contains(t, lines[1], "saving reconnect hints")
}

func TestConnect_LoadingDuringSequence(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)
	f := happyWallet()
	var loadingSeen bool
	f.Handle(provider.MethodRequestAccounts, func(context.Context, []any) (any, error) {
		loadingSeen = h.store.Snapshot().Loading
		return []string{testAddress}, nil
	})
	h.seq.provider = f

	_, err := h.seq.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, loadingSeen)
	assert.False(t, h.store.Snapshot().Loading)
}

func TestConnect_ClearsPreviousError(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)
	h.store.SetError("previous failure")

	f := happyWallet()
	var errSeen string
	f.Handle(provider.MethodRequestAccounts, func(context.Context, []any) (any, error) {
		errSeen = h.store.Snapshot().LastError
		return []string{testAddress}, nil
	})
	h.seq.provider = f

	_, err := h.seq.Connect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, errSeen)
	assert.Empty(t, h.store.Snapshot().LastError)
}

func TestDisconnect(t *testing.T) {
	t.Parallel()
	h := newHarness(happyWallet())
	_, err := h.seq.Connect(context.Background())
	require.NoError(t, err)
	h.fake.Reset()

	h.seq.Disconnect()
	h.seq.Disconnect()

	assert.Equal(t, State{NativeBalance: "0"}, h.store.Snapshot())
	assert.Equal(t, 2, h.hints.cleared)
	assert.Empty(t, h.fake.Calls(), "disconnect never contacts the wallet")
}

func TestDisconnect_HintFailureLogged(t *testing.T) {
	t.Parallel()
	h := newHarness(happyWallet())
	h.hints.err = errDiskFull

	h.seq.Disconnect()
	assert.False(t, h.store.Snapshot().Connected)
	require.Len(t, h.log.errorLines(), 1)
}

func TestRestore(t *testing.T) {
	t.Parallel()

	t.Run("authorized account", func(t *testing.T) {
		t.Parallel()
		h := newHarness(happyWallet())
		assert.True(t, h.seq.Restore(context.Background()))
		assert.Zero(t, h.fake.CallCount(provider.MethodRequestAccounts), "restore never prompts")

		st := h.store.Snapshot()
		assert.True(t, st.Connected)
		assert.Equal(t, "1.5000", st.NativeBalance)
	})

	t.Run("nothing authorized", func(t *testing.T) {
		t.Parallel()
		h := newHarness(happyWallet().Respond(provider.MethodAccounts, []string{}))
		assert.False(t, h.seq.Restore(context.Background()))
		assert.False(t, h.store.Snapshot().Connected)
	})

	t.Run("accounts read fails", func(t *testing.T) {
		t.Parallel()
		h := newHarness(happyWallet().Fail(provider.MethodAccounts, provider.CodeDisconnected, "gone"))
		assert.False(t, h.seq.Restore(context.Background()))
		assert.Len(t, h.log.errorLines(), 1)
		assert.Empty(t, h.store.Snapshot().LastError)
	})

	t.Run("no provider", func(t *testing.T) {
		t.Parallel()
		h := newHarness(nil)
		assert.False(t, h.seq.Restore(context.Background()))
	})
}

func TestSwitchToTarget(t *testing.T) {
	t.Parallel()
	f := switchingWallet("0x1", true)
	f.Respond(provider.MethodAccounts, []string{testAddress})
	h := newHarness(f)

	require.True(t, h.seq.Restore(context.Background()))
	assert.False(t, h.store.Snapshot().OnTargetChain)

	require.NoError(t, h.seq.SwitchToTarget(context.Background()))
	st := h.store.Snapshot()
	assert.Equal(t, "0x38", st.ChainID)
	assert.True(t, st.OnTargetChain)
	assert.Len(t, h.balance.addresses(), 2)

	assert.ErrorIs(t, newHarness(nil).seq.SwitchToTarget(context.Background()), pocketerr.ErrProviderMissing)
}

func TestSwitchToTarget_RecordsErrors(t *testing.T) {
	t.Parallel()

	t.Run("chain id read fails after the switch", func(t *testing.T) {
		t.Parallel()
		f := switchingWallet("0x1", true)
		f.Respond(provider.MethodAccounts, []string{testAddress})
		h := newHarness(f)
		require.True(t, h.seq.Restore(context.Background()))

		var mu sync.Mutex
		switched := false
		f.Handle(provider.MethodSwitchChain, func(context.Context, []any) (any, error) {
			mu.Lock()
			defer mu.Unlock()
			switched = true
			return nil, nil
		})
		f.Handle(provider.MethodChainID, func(context.Context, []any) (any, error) {
			mu.Lock()
			defer mu.Unlock()
			if switched {
				return nil, provider.NewError(provider.CodeInternal, "node down")
			}
			return "0x1", nil
		})

		err := h.seq.SwitchToTarget(context.Background())
		require.Error(t, err)
		assert.Equal(t, "node down", h.store.Snapshot().LastError)
	})

	t.Run("success clears an old error", func(t *testing.T) {
		t.Parallel()
		f := switchingWallet("0x1", true)
		f.Respond(provider.MethodAccounts, []string{testAddress})
		h := newHarness(f)
		require.True(t, h.seq.Restore(context.Background()))
		h.store.SetError("User rejected the request.")

		require.NoError(t, h.seq.SwitchToTarget(context.Background()))
		assert.Empty(t, h.store.Snapshot().LastError)
	})

	t.Run("missing provider", func(t *testing.T) {
		t.Parallel()
		h := newHarness(nil)
		require.ErrorIs(t, h.seq.SwitchToTarget(context.Background()), pocketerr.ErrProviderMissing)
		assert.Equal(t, pocketerr.ErrProviderMissing.Message, h.store.Snapshot().LastError)
	})
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "User rejected the request.", ErrorMessage(provider.NewError(4001, "User rejected the request.")))
	assert.Equal(t, "no accounts found", ErrorMessage(pocketerr.ErrNoAccounts))
}
