package metrics

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/pocket/internal/provider"
	"github.com/mrz1836/pocket/internal/provider/providertest"
)

func TestRecordProviderRequest(t *testing.T) {
	t.Parallel()
	m := New()

	m.RecordProviderRequest("eth_chainId", 10*time.Millisecond, nil)
	m.RecordProviderRequest("eth_chainId", 30*time.Millisecond, provider.NewError(provider.CodeDisconnected, "gone"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues("eth_chainId", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues("eth_chainId", "error")), 0)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.ProviderRequests)
	assert.Equal(t, int64(1), snap.ProviderErrors)
	assert.InDelta(t, 20, snap.AvgLatencyMs, 0.001)
}

func TestSnapshotEmpty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Snapshot{}, New().Snapshot())
}

func TestTransitionsAndGauge(t *testing.T) {
	t.Parallel()
	m := New()

	m.RecordTransition("connect", true)
	assert.InDelta(t, 1, testutil.ToFloat64(m.connected), 0)
	m.RecordTransition("disconnect", false)
	assert.InDelta(t, 0, testutil.ToFloat64(m.connected), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.session.WithLabelValues("connect")), 0)

	m.RecordSend(true)
	m.RecordSend(false)
	m.RecordSend(false)
	assert.InDelta(t, 2, testutil.ToFloat64(m.sends.WithLabelValues("failed")), 0)

	m.RecordBlocks(100, 3)
	assert.InDelta(t, 100, testutil.ToFloat64(m.blocks.WithLabelValues("scanned")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.blocks.WithLabelValues("skipped")), 0)
}

func TestHandlerExposesSeries(t *testing.T) {
	t.Parallel()
	m := New()
	m.RecordEvent(provider.EventChainChanged)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL) //nolint:noctx // test server
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `pocket_provider_events_total{event="chainChanged"} 1`)
}

func TestInstrumentedProvider(t *testing.T) {
	t.Parallel()
	m := New()
	fake := providertest.New().Respond(provider.MethodChainID, "0x38")
	p := Instrument(fake, m)

	raw, err := p.Request(context.Background(), provider.MethodChainID)
	require.NoError(t, err)
	assert.JSONEq(t, `"0x38"`, string(raw))

	_, err = p.Request(context.Background(), provider.MethodBlockNumber)
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues(provider.MethodChainID, "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues(provider.MethodBlockNumber, "error")), 0)
	assert.True(t, provider.Probe(p, nil).TokenPocket)

	calls := 0
	unsub := p.Subscribe(provider.EventDisconnect, func(json.RawMessage) { calls++ })
	fake.Emit(provider.EventDisconnect, nil)
	unsub()
	fake.Emit(provider.EventDisconnect, nil)
	assert.Equal(t, 1, calls)
	assert.InDelta(t, 1, testutil.ToFloat64(m.events.WithLabelValues(provider.EventDisconnect)), 0)
}
