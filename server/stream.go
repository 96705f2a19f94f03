package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stelagent/agent"
	"stelagent/events"

	"github.com/gin-gonic/gin"
)

const (
	streamChunkWords    = 5
	streamChunkInterval = 15 * time.Millisecond
	streamDoneSentinel  = "data: [DONE]\n\n"
)

// streamAnswer replays a completed answer as SSE in small word chunks so
// the client renders it progressively. A disconnect mid-stream ends the
// response silently.
func (s *Server) streamAnswer(c *gin.Context, answer, traceID string) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusOK, chatResponse{Response: answer, ToolsUsed: []agent.ToolUse{}})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	emitter := s.emitter.WithTrace(traceID)
	emitter.Emit(&events.StreamingStartEvent{AnswerLength: len(answer)})

	words := strings.Split(answer, " ")
	ticker := time.NewTicker(streamChunkInterval)
	defer ticker.Stop()

	chunks := 0
	for i := 0; i < len(words); i += streamChunkWords {
		end := i + streamChunkWords
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ") + " "

		payload, err := json.Marshal(gin.H{"text": chunk})
		if err != nil {
			s.log.Error("failed to encode stream chunk", err)
			return
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			emitter.Emit(&events.StreamingEndEvent{ChunksSent: chunks, Disconnected: true})
			return
		}
		flusher.Flush()
		chunks++

		select {
		case <-c.Request.Context().Done():
			emitter.Emit(&events.StreamingEndEvent{ChunksSent: chunks, Disconnected: true})
			return
		case <-ticker.C:
		}
	}

	fmt.Fprint(c.Writer, streamDoneSentinel)
	flusher.Flush()
	emitter.Emit(&events.StreamingEndEvent{ChunksSent: chunks, Disconnected: false})
}
