package notificator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-coin/blocksage/internal/advisor"
	"github.com/core-coin/blocksage/internal/models"
	"github.com/core-coin/blocksage/pkg/logger"
)

type fakeConnector struct {
	address string
	chatID  string
}

func (c *fakeConnector) Connect(_ context.Context, address, chatID string) (*models.ScanResult, error) {
	if address == "bad" {
		return nil, &models.ValidationError{Field: "address", Reason: "invalid"}
	}
	c.address, c.chatID = address, chatID
	return &models.ScanResult{
		Address: address,
		Summary: models.PortfolioSummary{OverallScore: 11.3, OverallLabel: models.RiskLow, SuspiciousTokenCount: 2},
		Transactions: []models.TransactionRecord{
			{ID: "tx", TokenRef: "EPUMP", Warning: "Suspicious token received, possible airdrop scam"},
		},
	}, nil
}

type knowledgeFunc func(ctx context.Context) (string, error)

func (f knowledgeFunc) Complete(ctx context.Context, _ []models.ChatMessage) (string, error) {
	return f(ctx)
}

func newTestTelegram(k models.KnowledgeService) (*TelegramNotificator, *fakeConnector) {
	wallets := &fakeConnector{}
	engine := advisor.NewEngine(k, time.Second, logger.NewNop())
	return &TelegramNotificator{
		logger:   logger.NewNop(),
		sessions: advisor.NewManager(engine),
		wallets:  wallets,
	}, wallets
}

func TestTelegram_Commands(t *testing.T) {
	tg, wallets := newTestTelegram(knowledgeFunc(func(context.Context) (string, error) { return "ok", nil }))
	ctx := context.Background()

	assert.Equal(t, helpText, tg.reply(ctx, "42", "/start"))
	assert.Equal(t, "Usage: /watch <wallet address>", tg.reply(ctx, "42", "/watch"))
	assert.Equal(t, "Invalid wallet address: bad", tg.reply(ctx, "42", "/watch bad"))

	out := tg.reply(ctx, "42", "/watch  0xabc ")
	assert.Equal(t, "0xabc", wallets.address)
	assert.Equal(t, "42", wallets.chatID)
	assert.Contains(t, out, "Portfolio risk: 11.3 (Low Risk)")
	assert.Contains(t, out, "possible airdrop scam (EPUMP)")
}

func TestTelegram_ChatGoesToPerChatSession(t *testing.T) {
	tg, _ := newTestTelegram(knowledgeFunc(func(context.Context) (string, error) { return "Stay safe.", nil }))
	ctx := context.Background()

	assert.Equal(t, "Stay safe.", tg.reply(ctx, "42", "how do I stay safe?"))
	s, err := tg.sessions.Get("tg-42")
	require.NoError(t, err)
	assert.Len(t, s.Messages(), 3)

	assert.Equal(t, resetText, tg.reply(ctx, "42", "/reset"))
	_, err = tg.sessions.Get("tg-42")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestTelegram_FallbackWhenKnowledgeFails(t *testing.T) {
	tg, _ := newTestTelegram(knowledgeFunc(func(context.Context) (string, error) {
		return "", &models.NetworkError{Op: "test", StatusCode: 500}
	}))
	_, want := advisor.Fallback{}.Respond("Explain the risks of token EPUMP")
	assert.Equal(t, want, tg.reply(context.Background(), "42", "Explain the risks of token EPUMP"))
}

func TestTelegram_BusySession(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	tg, _ := newTestTelegram(knowledgeFunc(func(context.Context) (string, error) {
		close(started)
		<-release
		return "done", nil
	}))
	ctx := context.Background()

	first := make(chan string, 1)
	go func() { first <- tg.reply(ctx, "42", "first question") }()
	<-started

	assert.Equal(t, busyText, tg.reply(ctx, "42", "second question"))
	close(release)
	assert.Equal(t, "done", <-first)
}
