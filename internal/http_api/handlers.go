package http_api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/core-coin/blocksage/internal/models"
	"github.com/core-coin/blocksage/internal/risk"
)

// ConnectRequest represents the JSON body for connecting a wallet
type ConnectRequest struct {
	Address        string `json:"address" binding:"required"`
	TelegramChatID string `json:"telegram_chat_id"`
}

// ScoreRequest represents the JSON body for scoring a single contract
type ScoreRequest struct {
	Flags models.ContractFlags `json:"flags"`
}

// ScoreResponse is the classifier verdict for a contract
type ScoreResponse struct {
	Score  int              `json:"score"`
	Level  models.RiskLevel `json:"level"`
	Label  string           `json:"label"`
	Issues []string         `json:"issues"`
}

// MessageRequest represents the JSON body of a chat message
type MessageRequest struct {
	Content string `json:"content"`
}

// MessageResponse carries the assistant reply and, when the knowledge
// service failed and the fallback answered, the recorded error.
type MessageResponse struct {
	Message   models.Message    `json:"message"`
	LastError *models.ErrorInfo `json:"last_error,omitempty"`
}

// writeError maps domain errors onto HTTP status codes
func (s *HTTPServer) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var (
		vErr    *models.ValidationError
		busy    *models.SessionBusyError
		netErr  *models.NetworkError
		badResp *models.MalformedResponseError
	)
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
	case errors.As(err, &busy):
		status = http.StatusConflict
	case errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrSessionClosed),
		errors.Is(err, models.ErrScanNotFound),
		errors.Is(err, models.ErrWalletNotFound):
		status = http.StatusNotFound
	case errors.As(err, &netErr), errors.As(err, &badResp):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"success": false, "error": "Internal server error"})
		return
	}
	s.logger.Debug("Request rejected", "path", c.FullPath(), "status", status, "error", err)
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// connect registers a wallet and runs its first scan
func (s *HTTPServer) connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	result, err := s.app.Connect(c.Request.Context(), req.Address, req.TelegramChatID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *HTTPServer) scan(c *gin.Context) {
	result, err := s.app.Scan(c.Request.Context(), c.Param("address"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *HTTPServer) summary(c *gin.Context) {
	result, err := s.app.LatestScan(c.Request.Context(), c.Param("address"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// score runs the classifier on a single set of contract flags
func (s *HTTPServer) score(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}
	if err := risk.ValidateFlags(req.Flags); err != nil {
		s.writeError(c, err)
		return
	}

	score, level := risk.Score(req.Flags)
	c.JSON(http.StatusOK, ScoreResponse{
		Score:  score,
		Level:  level,
		Label:  level.Label(),
		Issues: risk.Issues(req.Flags),
	})
}

func (s *HTTPServer) createSession(c *gin.Context) {
	session := s.app.Sessions().Create()
	c.JSON(http.StatusCreated, session.View())
}

func (s *HTTPServer) getSession(c *gin.Context) {
	session, err := s.app.Sessions().Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.View())
}

// postMessage submits a user message and waits for the assistant reply
func (s *HTTPServer) postMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	session, err := s.app.Sessions().Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	reply, err := session.Ask(c.Request.Context(), req.Content)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{
		Message:   reply.Message,
		LastError: models.DescribeError(reply.Err),
	})
}

func (s *HTTPServer) deleteSession(c *gin.Context) {
	if err := s.app.Sessions().Discard(c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
