package advisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-coin/blocksage/internal/models"
	"github.com/core-coin/blocksage/pkg/logger"
)

// fakeKnowledge answers with fn and records every conversation it was sent.
type fakeKnowledge struct {
	mu    sync.Mutex
	calls [][]models.ChatMessage
	fn    func(ctx context.Context) (string, error)
}

func (f *fakeKnowledge) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	f.mu.Unlock()
	return f.fn(ctx)
}

func (f *fakeKnowledge) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func reply(text string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return text, nil }
}

func fail(err error) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return "", err }
}

func newTestEngine(k models.KnowledgeService, timeout time.Duration) *Engine {
	return NewEngine(k, timeout, logger.NewNop())
}

func TestSubmit_Success(t *testing.T) {
	k := &fakeKnowledge{fn: reply("EPUMP looks like a honeypot.")}
	s := newTestEngine(k, time.Second).NewSession("s1")

	msg, err := s.Submit(context.Background(), "  What about EPUMP?  ")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAssistant, msg.Role)
	assert.Equal(t, "EPUMP looks like a honeypot.", msg.Content)
	assert.Equal(t, models.StateIdle, s.State())
	assert.NoError(t, s.LastError())

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, Greeting, msgs[0].Content)
	assert.Equal(t, "What about EPUMP?", msgs[1].Content)
	for i := 1; i < len(msgs); i++ {
		assert.Greater(t, msgs[i].Seq, msgs[i-1].Seq)
	}

	require.Equal(t, 1, k.callCount())
	sent := k.calls[0]
	require.Len(t, sent, 3)
	assert.Equal(t, models.ChatMessage{Role: models.RoleSystem, Content: Preamble}, sent[0])
	assert.Equal(t, models.ChatMessage{Role: models.RoleAssistant, Content: Greeting}, sent[1])
	assert.Equal(t, models.ChatMessage{Role: models.RoleUser, Content: "What about EPUMP?"}, sent[2])
}

func TestSubmit_TimeoutFallsBack(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	// ignores its context on purpose: the engine must not wait for it
	k := &fakeKnowledge{fn: func(context.Context) (string, error) {
		<-release
		return "too late", nil
	}}
	s := newTestEngine(k, 30*time.Millisecond).NewSession("s1")

	start := time.Now()
	msg, err := s.Submit(context.Background(), "Explain the risks of token EPUMP")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	_, want := Fallback{}.Respond("Explain the risks of token EPUMP")
	assert.Equal(t, want, msg.Content)
	assert.Equal(t, models.StateIdle, s.State())

	var netErr *models.NetworkError
	require.True(t, errors.As(s.LastError(), &netErr))
	assert.True(t, netErr.Timeout)
	assert.Equal(t, "timeout", s.View().LastError.Kind)
	assert.Equal(t, 1, k.callCount(), "no retry after a failure")
}

func TestSubmit_BusyWhileAwaiting(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	k := &fakeKnowledge{fn: func(context.Context) (string, error) {
		close(started)
		<-release
		return "hello", nil
	}}
	s := newTestEngine(k, 5*time.Second).NewSession("s1")

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "hi")
		done <- err
	}()
	<-started

	assert.Equal(t, models.StateAwaitingResponse, s.State())
	before := s.Messages()
	require.Len(t, before, 2)

	_, err := s.Submit(context.Background(), "hi")
	var busy *models.SessionBusyError
	require.True(t, errors.As(err, &busy))
	assert.Equal(t, "s1", busy.SessionID)
	assert.Equal(t, before, s.Messages(), "a rejected submit must not alter the conversation")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, models.StateIdle, s.State())
	assert.Len(t, s.Messages(), 3)
	assert.Equal(t, 1, k.callCount())
}

func TestSubmit_FailuresRecoverLocally(t *testing.T) {
	failures := map[string]error{
		"network":   &models.NetworkError{Op: "test", StatusCode: 500, Body: "boom"},
		"malformed": &models.MalformedResponseError{Reason: "no choices in response"},
		"untyped":   errors.New("something odd"),
	}
	for name, callErr := range failures {
		t.Run(name, func(t *testing.T) {
			k := &fakeKnowledge{fn: fail(callErr)}
			s := newTestEngine(k, time.Second).NewSession("s1")

			msg, err := s.Submit(context.Background(), "How can I avoid crypto scams?")
			require.NoError(t, err)
			_, want := Fallback{}.Respond("How can I avoid crypto scams?")
			assert.Equal(t, want, msg.Content)
			assert.Equal(t, models.StateIdle, s.State())
			assert.Equal(t, callErr, s.LastError())

			// the next successful turn clears the error
			k.fn = reply("ok")
			_, err = s.Submit(context.Background(), "thanks")
			require.NoError(t, err)
			assert.NoError(t, s.LastError())
			assert.Nil(t, s.View().LastError)
		})
	}
}

func TestAsk_ReportsFailureOfItsOwnTurn(t *testing.T) {
	boom := &models.NetworkError{Op: "test", StatusCode: 429, Body: "slow down"}
	k := &fakeKnowledge{fn: fail(boom)}
	s := newTestEngine(k, time.Second).NewSession("s1")

	r, err := s.Ask(context.Background(), "first")
	require.NoError(t, err)
	assert.ErrorIs(t, r.Err, boom)
	assert.NotEmpty(t, r.Message.Content)

	k.fn = reply("fine")
	r, err = s.Ask(context.Background(), "second")
	require.NoError(t, err)
	assert.NoError(t, r.Err)
	assert.Equal(t, "fine", r.Message.Content)
}

func TestSubmit_CallerCancellation(t *testing.T) {
	k := &fakeKnowledge{fn: func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	s := newTestEngine(k, 5*time.Second).NewSession("s1")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := s.Submit(ctx, "hi")
	require.NoError(t, err)

	var netErr *models.NetworkError
	require.True(t, errors.As(s.LastError(), &netErr))
	assert.True(t, netErr.Canceled)
	assert.Equal(t, models.StateIdle, s.State())
}

func TestSubmit_EmptyTextRejected(t *testing.T) {
	k := &fakeKnowledge{fn: reply("unused")}
	s := newTestEngine(k, time.Second).NewSession("s1")

	_, err := s.Submit(context.Background(), "   ")
	var vErr *models.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Len(t, s.Messages(), 1)
	assert.Equal(t, models.StateIdle, s.State())
	assert.Zero(t, k.callCount())
}

func TestClose_DiscardsInFlightResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	k := &fakeKnowledge{fn: func(context.Context) (string, error) {
		close(started)
		<-release
		return "late reply", nil
	}}
	s := newTestEngine(k, 5*time.Second).NewSession("s1")

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "hi")
		done <- err
	}()
	<-started
	s.Close()

	assert.ErrorIs(t, <-done, models.ErrSessionClosed)
	close(release)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[1].Role)

	_, err := s.Submit(context.Background(), "again")
	assert.ErrorIs(t, err, models.ErrSessionClosed)

	// a fresh session is unaffected
	fresh := newTestEngine(&fakeKnowledge{fn: reply("fresh")}, time.Second).NewSession("s1")
	assert.Len(t, fresh.Messages(), 1)
	assert.Equal(t, models.StateIdle, fresh.State())
}

func TestComplete_StaleSequenceIsFenced(t *testing.T) {
	k := &fakeKnowledge{fn: reply("ok")}
	s := newTestEngine(k, time.Second).NewSession("s1")
	_, err := s.Submit(context.Background(), "first")
	require.NoError(t, err)
	count := len(s.Messages())

	// a response for a request the session is not waiting on
	_, err = s.complete(2, "first", "stale", nil)
	assert.ErrorIs(t, err, models.ErrSessionClosed)
	assert.Len(t, s.Messages(), count)
}

func TestView_SuggestionsOnlyOnFreshSession(t *testing.T) {
	s := newTestEngine(&fakeKnowledge{fn: reply("ok")}, time.Second).NewSession("s1")
	view := s.View()
	assert.Equal(t, Suggestions, view.Suggestions)
	assert.Equal(t, models.StateIdle, view.State)

	_, err := s.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Empty(t, s.View().Suggestions)
}
