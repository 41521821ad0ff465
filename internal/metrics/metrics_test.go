package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/chill/internal/domain/model"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestCollector_RecordTurn(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTurn(model.AuthorUser)
	c.RecordTurn(model.AuthorUser)
	c.RecordTurn(model.AuthorAssistant)

	mf := gather(t, reg, "chill_turns_appended_total")
	require.Len(t, mf.GetMetric(), 2)

	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"user": 2, "assistant": 1}, got)
}

func TestCollector_RecordAuth(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuth("verify", "invalid_secret")

	mf := gather(t, reg, "chill_auth_attempts_total")
	require.Len(t, mf.GetMetric(), 1)
	assert.InDelta(t, 1, mf.GetMetric()[0].GetCounter().GetValue(), 0)
}

func TestCollector_RecordReplyLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordReplyLatency(1500 * time.Millisecond)

	mf := gather(t, reg, "chill_reply_latency_seconds")
	h := mf.GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), h.GetSampleCount())
	assert.InDelta(t, 1.5, h.GetSampleSum(), 0.0001)
}

func TestCollector_CountersStartAtZero(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordVoiceNote()
	c.RecordRejectedSubmit()

	assert.InDelta(t, 1, gather(t, reg, "chill_voice_notes_total").GetMetric()[0].GetCounter().GetValue(), 0)
	assert.InDelta(t, 1, gather(t, reg, "chill_submits_rejected_busy_total").GetMetric()[0].GetCounter().GetValue(), 0)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordTurn(model.AuthorAssistant)

	path := filepath.Join(t.TempDir(), "chill.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `chill_turns_appended_total{author="assistant"} 1`)
}
