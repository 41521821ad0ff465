// Package metrics records conversation and authentication counters with
// Prometheus collectors. There is no scrape endpoint; the registry is dumped
// to a textfile on shutdown for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericfisherdev/chill/internal/domain/model"
)

// Recorder is the metrics surface the application services depend on.
type Recorder interface {
	RecordTurn(author model.Author)
	RecordVoiceNote()
	RecordReplyLatency(d time.Duration)
	RecordAuth(op, outcome string)
	RecordRejectedSubmit()
}

// Collector implements Recorder on top of Prometheus collectors.
type Collector struct {
	turns        *prometheus.CounterVec
	voiceNotes   prometheus.Counter
	replyLatency prometheus.Histogram
	auth         *prometheus.CounterVec
	busy         prometheus.Counter
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chill_turns_appended_total",
			Help: "Turns appended to transcripts, by author.",
		}, []string{"author"}),
		voiceNotes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chill_voice_notes_total",
			Help: "Voice notes submitted.",
		}),
		replyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chill_reply_latency_seconds",
			Help:    "Time from user turn commit to assistant turn commit.",
			Buckets: []float64{0.5, 1, 1.5, 2, 3, 5, 10},
		}),
		auth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chill_auth_attempts_total",
			Help: "Register and verify attempts, by operation and outcome.",
		}, []string{"op", "outcome"}),
		busy: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chill_submits_rejected_busy_total",
			Help: "Submits rejected because a reply was already pending.",
		}),
	}

	reg.MustRegister(c.turns, c.voiceNotes, c.replyLatency, c.auth, c.busy)
	return c
}

// RecordTurn counts one appended turn.
func (c *Collector) RecordTurn(author model.Author) {
	c.turns.WithLabelValues(string(author)).Inc()
}

// RecordVoiceNote counts one voice-note submission.
func (c *Collector) RecordVoiceNote() {
	c.voiceNotes.Inc()
}

// RecordReplyLatency observes the time taken to produce a reply.
func (c *Collector) RecordReplyLatency(d time.Duration) {
	c.replyLatency.Observe(d.Seconds())
}

// RecordAuth counts an authentication attempt.
func (c *Collector) RecordAuth(op, outcome string) {
	c.auth.WithLabelValues(op, outcome).Inc()
}

// RecordRejectedSubmit counts a submit refused with a busy error.
func (c *Collector) RecordRejectedSubmit() {
	c.busy.Inc()
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format. The write goes through a temp file and rename.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// Nop discards everything.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) RecordTurn(model.Author)          {}
func (Nop) RecordVoiceNote()                 {}
func (Nop) RecordReplyLatency(time.Duration) {}
func (Nop) RecordAuth(string, string)        {}
func (Nop) RecordRejectedSubmit()            {}
