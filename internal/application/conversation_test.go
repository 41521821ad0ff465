package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/chill/internal/adapter/driven/memory"
	"github.com/ericfisherdev/chill/internal/application"
	"github.com/ericfisherdev/chill/internal/domain/model"
	"github.com/ericfisherdev/chill/internal/domain/port/driven"
)

func defaultOpts() application.ConversationOptions {
	return application.ConversationOptions{}
}

func TestConversationService_SubmitAppendsTwoTurns(t *testing.T) {
	f := newFixture(t, defaultOpts())
	ctx := context.Background()
	sess := f.login(t, "ana@example.com")

	for i, utterance := range []string{"I'm stressed", "work is hard", "xyz"} {
		before, err := f.history.Load(ctx, sess.Identifier())
		require.NoError(t, err)

		tr, err := f.conv.Submit(ctx, sess, utterance)
		require.NoError(t, err, "submit %d", i)
		require.Equal(t, before.Len()+2, tr.Len())

		user, reply := tr.Turns[tr.Len()-2], tr.Turns[tr.Len()-1]
		assert.Equal(t, model.AuthorUser, user.Author)
		assert.Equal(t, utterance, user.Text)
		assert.Equal(t, model.AuthorAssistant, reply.Author)
		assert.Equal(t, application.Classify(utterance), reply.Text)
		assert.Equal(t, before.Turns, tr.Turns[:before.Len()], "earlier turns unchanged")
	}
}

func TestConversationService_SubmitRejectsBlank(t *testing.T) {
	f := newFixture(t, defaultOpts())
	ctx := context.Background()
	sess := f.login(t, "ana@example.com")

	for _, utterance := range []string{"", "   ", "\t\n"} {
		_, err := f.conv.Submit(ctx, sess, utterance)
		require.ErrorIs(t, err, application.ErrEmptyMessage)
	}

	tr, err := f.history.Load(ctx, sess.Identifier())
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Len())
}

func TestConversationService_SubmitRequiresSession(t *testing.T) {
	f := newFixture(t, defaultOpts())

	_, err := f.conv.Submit(context.Background(), nil, "hello")
	require.ErrorIs(t, err, application.ErrNotLoggedIn)
}

func TestConversationService_ObserverSeesTypingIndicator(t *testing.T) {
	var updates []application.Update
	opts := defaultOpts()
	opts.Observer = func(u application.Update) { updates = append(updates, u) }

	f := newFixture(t, opts)
	sess := f.login(t, "ana@example.com")

	_, err := f.conv.Submit(context.Background(), sess, "can't sleep")
	require.NoError(t, err)

	require.Len(t, updates, 2)
	assert.True(t, updates[0].Typing)
	assert.Equal(t, 2, updates[0].Transcript.Len())
	assert.False(t, updates[1].Typing)
	assert.Equal(t, 3, updates[1].Transcript.Len())
	last, _ := updates[1].Transcript.Last()
	assert.Equal(t, application.ReplySleep, last.Text)
}

func TestConversationService_QueuePolicySerializes(t *testing.T) {
	opts := defaultOpts()
	opts.Policy = application.PolicyQueue
	opts.ThinkTime = application.FixedThinkTime(20 * time.Millisecond)

	f := newFixture(t, opts)
	ctx := context.Background()
	sess := f.login(t, "ana@example.com")

	const n = 5
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.conv.Submit(ctx, sess, "I feel sad")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	tr, err := f.history.Load(ctx, sess.Identifier())
	require.NoError(t, err)
	require.Equal(t, 1+2*n, tr.Len())

	// After the welcome turn, authors must strictly alternate user/assistant.
	for i, turn := range tr.Turns[1:] {
		want := model.AuthorUser
		if i%2 == 1 {
			want = model.AuthorAssistant
		}
		assert.Equal(t, want, turn.Author, "turn %d", i+1)
	}
}

func TestConversationService_RejectPolicyReturnsBusy(t *testing.T) {
	started := make(chan struct{})
	opts := defaultOpts()
	opts.Policy = application.PolicyReject
	opts.ThinkTime = application.FixedThinkTime(100 * time.Millisecond)
	opts.Observer = func(u application.Update) {
		if u.Typing {
			close(started)
		}
	}

	f := newFixture(t, opts)
	ctx := context.Background()
	sess := f.login(t, "ana@example.com")

	done := make(chan error, 1)
	go func() {
		_, err := f.conv.Submit(ctx, sess, "first")
		done <- err
	}()
	<-started

	_, err := f.conv.Submit(ctx, sess, "second")
	require.ErrorIs(t, err, application.ErrBusy)
	require.NoError(t, <-done)

	tr, err := f.history.Load(ctx, sess.Identifier())
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Len(), "the rejected submit wrote nothing")
}

func TestConversationService_GateIsPerAccount(t *testing.T) {
	opts := defaultOpts()
	opts.Policy = application.PolicyReject
	opts.ThinkTime = application.FixedThinkTime(50 * time.Millisecond)

	f := newFixture(t, opts)
	ctx := context.Background()
	ana := f.login(t, "ana@example.com")
	// Sessions are explicit values, so a second one can be held in parallel for testing.
	benAccount, err := f.accounts.Register(ctx, "ben@example.com", "secret1", "Ben")
	require.NoError(t, err)
	ben, _, err := application.NewSessionManager(f.store, f.store, f.history).Login(ctx, benAccount)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, sess := range []*application.Session{ana, ben} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.conv.Submit(ctx, sess, "hello")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestConversationService_ReplySurvivesCallerCancel(t *testing.T) {
	typing := make(chan struct{})
	opts := defaultOpts()
	opts.ThinkTime = application.FixedThinkTime(30 * time.Millisecond)
	opts.Observer = func(u application.Update) {
		if u.Typing {
			close(typing)
		}
	}

	f := newFixture(t, opts)
	sess := f.login(t, "ana@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var tr model.Transcript
	var err error
	go func() {
		defer close(done)
		tr, err = f.conv.Submit(ctx, sess, "anxious")
	}()
	<-typing
	cancel()
	<-done

	require.NoError(t, err)
	assert.Equal(t, 3, tr.Len())
	last, _ := tr.Last()
	assert.Equal(t, application.ReplyStress, last.Text)
}

func TestConversationService_RetriesReplyAppend(t *testing.T) {
	store := memory.New()
	flaky := &flakyTranscripts{TranscriptStore: store, failAssistant: 2}
	f := newFixtureWithTranscripts(t, store, flaky, defaultOpts())
	sess := f.login(t, "ana@example.com")

	tr, err := f.conv.Submit(context.Background(), sess, "thank you")
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, 3, flaky.attempts)
}

func TestConversationService_ReplyAppendGivesUp(t *testing.T) {
	store := memory.New()
	flaky := &flakyTranscripts{TranscriptStore: store, failAssistant: 100}
	opts := defaultOpts()
	opts.NewBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
	f := newFixtureWithTranscripts(t, store, flaky, opts)
	sess := f.login(t, "ana@example.com")

	_, err := f.conv.Submit(context.Background(), sess, "hello")
	require.ErrorIs(t, err, driven.ErrStoreUnavailable)
	assert.Equal(t, 3, flaky.attempts)
}

func TestConversationService_UserAppendFailureWritesNothing(t *testing.T) {
	store := memory.New()
	flaky := &flakyTranscripts{TranscriptStore: store, failUser: true}
	f := newFixtureWithTranscripts(t, store, flaky, defaultOpts())
	sess := f.login(t, "ana@example.com")

	_, err := f.conv.Submit(context.Background(), sess, "hello")
	require.ErrorIs(t, err, driven.ErrStoreUnavailable)
	assert.Zero(t, flaky.attempts)

	tr, err := f.history.Load(context.Background(), sess.Identifier())
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Len())
}

func TestRandomThinkTime(t *testing.T) {
	think := application.RandomThinkTime(application.DefaultThinkMin, application.DefaultThinkMax)
	for i := 0; i < 200; i++ {
		d := think()
		assert.GreaterOrEqual(t, d, application.DefaultThinkMin)
		assert.Less(t, d, application.DefaultThinkMax)
	}

	assert.Equal(t, time.Second, application.RandomThinkTime(time.Second, time.Second)())
}

func TestParseSubmitPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    application.SubmitPolicy
		wantErr bool
	}{
		{in: "", want: application.PolicyQueue},
		{in: "queue", want: application.PolicyQueue},
		{in: "REJECT", want: application.PolicyReject},
		{in: "drop", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := application.ParseSubmitPolicy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
