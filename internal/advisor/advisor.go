// Package advisor runs advisory conversations against an external knowledge
// service. Each session allows one outstanding request; every failure is
// answered locally by a deterministic keyword responder so a submit always
// ends with an assistant reply and the session back in the idle state.
package advisor

import (
	"context"
	"errors"
	"time"

	"github.com/core-coin/blocksage/internal/metrics"
	"github.com/core-coin/blocksage/internal/models"
	"github.com/core-coin/blocksage/pkg/logger"
)

const (
	// DefaultTimeout bounds a single knowledge service call.
	DefaultTimeout = 15 * time.Second

	// Preamble is the fixed system prompt sent ahead of every conversation.
	Preamble = "You are BlockSage AI, a crypto safety assistant. Help users understand token, contract and transaction risks in plain language. Be concise, flag honeypots, rug-pull patterns and phishing, and never ask for seed phrases or private keys. Remind users to do their own research."

	// Greeting opens every session.
	Greeting = "Hello! I'm your BlockSage AI assistant. How can I help you with your crypto safety today?"
)

// Suggestions are starter questions shown on an empty conversation.
var Suggestions = []string{
	"Is this wallet address safe?",
	"What are the risks in my portfolio?",
	"Explain the risks of token EPUMP",
	"How can I avoid crypto scams?",
}

// Engine holds what every session shares: the knowledge service, the
// fallback responder, and the call timeout.
type Engine struct {
	logger    *logger.Logger
	knowledge models.KnowledgeService
	fallback  Fallback
	timeout   time.Duration
	now       func() time.Time
}

// NewEngine creates an engine. A non-positive timeout uses DefaultTimeout.
func NewEngine(knowledge models.KnowledgeService, timeout time.Duration, logger *logger.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		logger:    logger,
		knowledge: knowledge,
		timeout:   timeout,
		now:       time.Now,
	}
}

type result struct {
	reply string
	err   error
}

// ask issues exactly one knowledge service call. It returns when the call
// finishes, the timeout elapses, the caller cancels, or the session closes,
// whichever comes first. A late result lands in the buffered channel and is
// dropped.
func (e *Engine) ask(parent, session context.Context, history []models.ChatMessage) (string, error) {
	ctx, cancel := context.WithTimeout(parent, e.timeout)
	defer cancel()
	stop := context.AfterFunc(session, cancel)
	defer stop()

	results := make(chan result, 1)
	go func() {
		reply, err := e.knowledge.Complete(ctx, history)
		results <- result{reply: reply, err: err}
	}()

	select {
	case r := <-results:
		return r.reply, r.err
	case <-ctx.Done():
		return "", contextError(ctx)
	}
}

func contextError(ctx context.Context) error {
	err := &models.NetworkError{Op: "knowledge service request", Err: ctx.Err()}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err.Timeout = true
	} else {
		err.Canceled = true
	}
	return err
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return models.DescribeError(err).Kind
}

func recordOutcome(err error) {
	metrics.KnowledgeRequestsTotal.WithLabelValues(outcome(err)).Inc()
}
