package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/imebridge/internal/event"
	"github.com/dshills/imebridge/internal/outbound"
	"github.com/dshills/imebridge/internal/updater"
)

func TestCountersAndSnapshot(t *testing.T) {
	m := New("imebridge")
	m.EventSent(outbound.KindSetText)
	m.EventSent(outbound.KindSetText)
	m.EventSent(outbound.KindSyncMarker)
	m.BarrierWait(20 * time.Millisecond)
	m.Coalesced()
	m.Applied(updater.FlagReset)
	m.Notification(event.KindTextChange)
	m.NotificationIgnored(event.KindTextChange)
	m.Synthesized("keys")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsSent.WithLabelValues("SetText")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RestartInputs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpdatesCoalesce))

	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2.0, snap["imebridge_outbound_events_total{kind=SetText}"])
	assert.Equal(t, 1.0, snap["imebridge_barrier_wait_seconds"])
	assert.Equal(t, 1.0, snap["imebridge_notifications_ignored_total{kind=TextChange}"])
}

func TestSeparateRegistries(t *testing.T) {
	a := New("x")
	b := New("x")
	a.Coalesced()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.UpdatesCoalesce))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.UpdatesCoalesce))
}

func TestHandler(t *testing.T) {
	m := New("imebridge")
	m.Synthesized("text")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `imebridge_key_synthesis_total{path="text"} 1`)
}
