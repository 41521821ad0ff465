// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ericfisherdev/chill/internal/domain/model"
	"github.com/ericfisherdev/chill/internal/domain/port/driven"
	"github.com/ericfisherdev/chill/internal/metrics"
)

// SubmitPolicy decides what happens to a submit issued while another reply
// for the same account is still pending.
type SubmitPolicy string

const (
	// PolicyQueue waits for the pending reply, then proceeds.
	PolicyQueue SubmitPolicy = "queue"
	// PolicyReject fails immediately with ErrBusy.
	PolicyReject SubmitPolicy = "reject"
)

// ParseSubmitPolicy validates a configured policy name.
func ParseSubmitPolicy(s string) (SubmitPolicy, error) {
	switch p := SubmitPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyQueue, nil
	case PolicyQueue, PolicyReject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown submit policy %q (want %q or %q)", s, PolicyQueue, PolicyReject)
	}
}

// Default delays.
const (
	DefaultThinkMin   = 1000 * time.Millisecond
	DefaultThinkMax   = 2000 * time.Millisecond
	DefaultVoiceDelay = 1500 * time.Millisecond
)

// ThinkTime returns how long to pause before replying.
type ThinkTime func() time.Duration

// RandomThinkTime returns durations uniformly drawn from [lo, hi). If hi is
// not above lo every call returns lo.
func RandomThinkTime(lo, hi time.Duration) ThinkTime {
	return func() time.Duration {
		if hi <= lo {
			return lo
		}
		return lo + rand.N(hi-lo)
	}
}

// FixedThinkTime always returns d.
func FixedThinkTime(d time.Duration) ThinkTime {
	return func() time.Duration { return d }
}

// Update is what a rendering surface needs after each state change: the
// current transcript and whether a reply is being prepared.
type Update struct {
	Transcript model.Transcript
	Typing     bool
}

// Observer receives updates synchronously from inside a submit. It must not
// call back into the ConversationService for the same account.
type Observer func(Update)

// ConversationOptions configures a ConversationService. Zero values select
// the defaults; a negative VoiceDelay disables the voice pause.
type ConversationOptions struct {
	Policy     SubmitPolicy
	ThinkTime  ThinkTime
	VoiceDelay time.Duration
	Observer   Observer
	Metrics    metrics.Recorder
	// NewBackOff builds the retry schedule for the reply append.
	NewBackOff func() backoff.BackOff
}

// ConversationService runs the user-turn, pause, reply-turn protocol for text
// messages and voice notes. At most one exchange per account is in flight.
type ConversationService struct {
	history    *HistoryService
	policy     SubmitPolicy
	thinkTime  ThinkTime
	voiceDelay time.Duration
	observer   Observer
	metrics    metrics.Recorder
	newBackOff func() backoff.BackOff

	mu    sync.Mutex
	gates map[string]chan struct{}
}

// NewConversationService creates a ConversationService.
func NewConversationService(history *HistoryService, opts ConversationOptions) *ConversationService {
	s := &ConversationService{
		history:    history,
		policy:     opts.Policy,
		thinkTime:  opts.ThinkTime,
		voiceDelay: opts.VoiceDelay,
		observer:   opts.Observer,
		metrics:    opts.Metrics,
		newBackOff: opts.NewBackOff,
		gates:      make(map[string]chan struct{}),
	}
	if s.policy == "" {
		s.policy = PolicyQueue
	}
	if s.thinkTime == nil {
		s.thinkTime = RandomThinkTime(DefaultThinkMin, DefaultThinkMax)
	}
	if s.voiceDelay == 0 {
		s.voiceDelay = DefaultVoiceDelay
	}
	if s.observer == nil {
		s.observer = func(Update) {}
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.newBackOff == nil {
		s.newBackOff = defaultBackOff
	}
	return s
}

// Policy returns the configured submit policy.
func (s *ConversationService) Policy() SubmitPolicy { return s.policy }

// Submit records utterance as a user turn, waits the think time, then records
// the classified reply and returns the transcript holding both.
//
// Blank utterances fail with ErrEmptyMessage before anything is written.
// Once the user turn is committed the reply is always attempted to
// completion, even if ctx is canceled.
func (s *ConversationService) Submit(ctx context.Context, sess *Session, utterance string) (model.Transcript, error) {
	if strings.TrimSpace(utterance) == "" {
		return model.Transcript{}, ErrEmptyMessage
	}
	if !sess.Active() {
		return model.Transcript{}, ErrNotLoggedIn
	}

	userTurn := model.Turn{Author: model.AuthorUser, Text: utterance}
	return s.exchange(ctx, sess.Identifier(), userTurn, s.thinkTime(), func() string {
		return Classify(utterance)
	})
}

// exchange appends userTurn, pauses for delay, then appends the reply.
func (s *ConversationService) exchange(
	ctx context.Context,
	identifier string,
	userTurn model.Turn,
	delay time.Duration,
	reply func() string,
) (model.Transcript, error) {
	release, err := s.acquire(ctx, identifier)
	if err != nil {
		return model.Transcript{}, err
	}
	defer release()

	transcript, err := s.history.Append(ctx, identifier, userTurn)
	if err != nil {
		return model.Transcript{}, err
	}
	committed := time.Now()
	s.metrics.RecordTurn(model.AuthorUser)
	s.observer(Update{Transcript: transcript, Typing: true})

	// The user turn is durable; the reply must follow regardless of the caller.
	detached := context.WithoutCancel(ctx)
	pause(delay)

	assistantTurn := model.Turn{Author: model.AuthorAssistant, Text: reply()}
	final, err := s.appendWithRetry(detached, identifier, assistantTurn)
	if err != nil {
		s.observer(Update{Transcript: transcript, Typing: false})
		return transcript, fmt.Errorf("reply abandoned after retries: %w", err)
	}

	s.metrics.RecordTurn(model.AuthorAssistant)
	s.metrics.RecordReplyLatency(time.Since(committed))
	s.observer(Update{Transcript: final, Typing: false})
	return final, nil
}

// acquire takes the per-account gate according to the submit policy.
func (s *ConversationService) acquire(ctx context.Context, identifier string) (func(), error) {
	gate := s.gate(identifier)

	if s.policy == PolicyReject {
		select {
		case gate <- struct{}{}:
		default:
			s.metrics.RecordRejectedSubmit()
			return nil, ErrBusy
		}
	} else {
		select {
		case gate <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return func() { <-gate }, nil
}

func (s *ConversationService) gate(identifier string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gates[identifier]
	if !ok {
		g = make(chan struct{}, 1)
		s.gates[identifier] = g
	}
	return g
}

// appendWithRetry retries transient store failures. Anything other than
// driven.ErrStoreUnavailable is returned without retrying.
func (s *ConversationService) appendWithRetry(ctx context.Context, identifier string, turn model.Turn) (model.Transcript, error) {
	var out model.Transcript
	op := func() error {
		t, err := s.history.Append(ctx, identifier, turn)
		if err != nil {
			if errors.Is(err, driven.ErrStoreUnavailable) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = t
		return nil
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("reply append failed; retrying", "account", identifier, "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(s.newBackOff(), ctx), notify); err != nil {
		return model.Transcript{}, err
	}
	return out, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 15 * time.Second
	return b
}

func pause(d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	<-t.C
}
