package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"stelagent/agent"
	"stelagent/logger"

	"github.com/gin-gonic/gin"
)

// chatRequest is the inbound conversation turn.
type chatRequest struct {
	Message  string                 `json:"message"`
	PersonID string                 `json:"person_id"`
	History  []agent.Turn           `json:"history"`
	Context  map[string]interface{} `json:"context"`
}

// chatResponse is the buffered response envelope.
type chatResponse struct {
	Response  string          `json:"response"`
	ToolsUsed []agent.ToolUse `json:"tools_used"`
}

// handleChat runs one conversation turn. The raw body is retained before
// decoding so the degraded path can replay it to the backend unchanged.
func (s *Server) handleChat(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(rawBody))

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if req.PersonID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "person_id is required"})
		return
	}

	traceID := c.GetString(requestIDKey)
	log := s.log.With(
		logger.String("request_id", traceID),
		logger.String("person_id", req.PersonID))

	outcome, err := s.orchestrator.Run(c.Request.Context(), agent.Request{
		Message:  req.Message,
		PersonID: req.PersonID,
		History:  req.History,
		Context:  req.Context,
	})
	if err != nil {
		// Client gave up; nothing left to answer.
		if c.Request.Context().Err() != nil {
			c.Status(http.StatusRequestTimeout)
			return
		}
		resp := s.fallback.Answer(c.Request.Context(), rawBody, req.PersonID, err)
		log.Warn("answered via degraded path", logger.Int("tier", resp.Tier))
		c.JSON(resp.Status, resp.Body)
		return
	}

	if wantsStream(c) {
		s.streamAnswer(c, outcome.Answer, traceID)
		return
	}

	toolsUsed := outcome.ToolLog
	if toolsUsed == nil {
		toolsUsed = []agent.ToolUse{}
	}
	c.JSON(http.StatusOK, chatResponse{
		Response:  outcome.Answer,
		ToolsUsed: toolsUsed,
	})
}

func wantsStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}
