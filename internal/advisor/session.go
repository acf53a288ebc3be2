package advisor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/core-coin/blocksage/internal/metrics"
	"github.com/core-coin/blocksage/internal/models"
)

// Session is one conversation. It is safe for concurrent use; concurrent
// submits are rejected rather than queued.
type Session struct {
	id     string
	engine *Engine

	// ctx is canceled when the session is closed, aborting any in-flight call.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    models.SessionState
	messages []models.Message
	lastSeq  uint64
	// pending is the sequence id of the user message awaiting a reply, 0 when idle.
	pending    uint64
	lastError  error
	closed     bool
	lastActive time.Time
}

// NewSession opens a session that starts with the assistant greeting.
func (e *Engine) NewSession(id string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:     id,
		engine: e,
		ctx:    ctx,
		cancel: cancel,
		state:  models.StateIdle,
	}
	s.appendLocked(models.RoleAssistant, Greeting)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Reply is the outcome of one submit.
type Reply struct {
	Message models.Message
	// Err is the knowledge service failure the fallback answered for, nil on success.
	Err error
}

// Submit appends the user's message, asks the knowledge service and appends
// the assistant reply, falling back to the keyword responder on any failure.
// It returns the assistant message. A session that already awaits a reply
// returns *models.SessionBusyError and is left untouched.
func (s *Session) Submit(ctx context.Context, text string) (models.Message, error) {
	reply, err := s.Ask(ctx, text)
	return reply.Message, err
}

// Ask is Submit that also reports the failure recorded for this turn.
func (s *Session) Ask(ctx context.Context, text string) (Reply, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Reply{}, models.ErrSessionClosed
	}
	if s.state != models.StateIdle {
		s.mu.Unlock()
		return Reply{}, &models.SessionBusyError{SessionID: s.id}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.mu.Unlock()
		return Reply{}, &models.ValidationError{Field: "content", Reason: "message must not be empty"}
	}

	userMsg := s.appendLocked(models.RoleUser, text)
	s.state = models.StateAwaitingResponse
	s.pending = userMsg.Seq
	history := s.historyLocked()
	s.mu.Unlock()

	reply, err := s.engine.ask(ctx, s.ctx, history)
	return s.complete(userMsg.Seq, text, reply, err)
}

// complete applies the outcome of the call issued for user message seq.
// Outcomes for a closed session or for a request the session is no longer
// waiting on are discarded.
func (s *Session) complete(seq uint64, prompt, reply string, callErr error) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.pending != seq {
		s.engine.logger.Debug("Discarding knowledge response for stale request", "session", s.id, "seq", seq)
		return Reply{}, models.ErrSessionClosed
	}
	s.pending = 0
	s.state = models.StateIdle
	recordOutcome(callErr)

	if callErr == nil {
		s.lastError = nil
		return Reply{Message: s.appendLocked(models.RoleAssistant, reply)}, nil
	}

	s.lastError = callErr
	rule, content := s.engine.fallback.Respond(prompt)
	metrics.FallbackRepliesTotal.WithLabelValues(rule).Inc()
	s.engine.logger.Warn("Knowledge service failed, using fallback reply", "session", s.id, "seq", seq, "rule", rule, "error", callErr)
	return Reply{Message: s.appendLocked(models.RoleAssistant, content), Err: callErr}, nil
}

// Close discards the session and cancels any in-flight call. Its result, if
// it ever arrives, has no effect.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// State returns the current state.
func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the failure recorded by the latest submit, if any.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Messages returns a copy of the conversation so far.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// View returns a snapshot for presentation.
func (s *Session) View() models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := models.SessionView{
		ID:        s.id,
		State:     s.state,
		Messages:  make([]models.Message, len(s.messages)),
		LastError: models.DescribeError(s.lastError),
	}
	copy(view.Messages, s.messages)
	if len(s.messages) == 1 {
		view.Suggestions = append([]string(nil), Suggestions...)
	}
	return view
}

// closeIfIdle closes the session only when it is idle and had no activity
// since cutoff. The check and the close happen under one lock so a submit
// cannot start in between.
func (s *Session) closeIfIdle(cutoff time.Time) bool {
	s.mu.Lock()
	if s.closed || s.state != models.StateIdle || !s.lastActive.Before(cutoff) {
		s.mu.Unlock()
		return false
	}
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	return true
}

// appendLocked adds a message with the next sequence id. Caller holds s.mu.
func (s *Session) appendLocked(role models.Role, content string) models.Message {
	s.lastSeq++
	now := s.engine.now()
	msg := models.Message{
		Seq:       s.lastSeq,
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
	s.messages = append(s.messages, msg)
	s.lastActive = now
	return msg
}

// historyLocked builds the outbound conversation. Caller holds s.mu.
func (s *Session) historyLocked() []models.ChatMessage {
	history := make([]models.ChatMessage, 0, len(s.messages)+1)
	history = append(history, models.ChatMessage{Role: models.RoleSystem, Content: Preamble})
	for _, m := range s.messages {
		history = append(history, models.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return history
}
