// Package fallback produces an answer when the completion service is
// unreachable. Tier one relays the conversation to the backend's own chat
// endpoint; tier two synthesizes a degraded markdown answer locally so the
// client always has something to render.
package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stelagent/events"
	"stelagent/logger"
)

// Response is what the degraded path hands back to the HTTP layer.
type Response struct {
	// Status is the HTTP status the handler should write. 200 when tier
	// one succeeded, 401 on expired credentials, 500 otherwise.
	Status int
	// Body is the JSON-serializable response payload.
	Body map[string]interface{}
	// Tier records which level answered: 1 for the backend relay, 2 for
	// the synthesized answer.
	Tier int
}

// defaultPath is the backend's own LLM chat endpoint.
const defaultPath = "/api/llm/chat"

// Handler implements the two-tier degraded path.
type Handler struct {
	backendURL string
	path       string
	client     *http.Client
	emitter    *events.Emitter
	log        logger.Logger
}

// Config configures the fallback handler.
type Config struct {
	// BackendURL is the base URL of the data backend, e.g. http://localhost:8000.
	BackendURL string
	// Path is the relay endpoint on the backend; defaults to /api/llm/chat.
	Path    string
	Client  *http.Client
	Emitter *events.Emitter
	Logger  logger.Logger
}

// New creates a fallback handler.
func New(cfg Config) *Handler {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	emitter := cfg.Emitter
	if emitter == nil {
		emitter = events.NewEmitter()
	}
	path := cfg.Path
	if path == "" {
		path = defaultPath
	}
	return &Handler{
		backendURL: strings.TrimRight(cfg.BackendURL, "/"),
		path:       path,
		client:     client,
		emitter:    emitter,
		log:        log.With(logger.String("component", "fallback")),
	}
}

// Answer resolves a degraded response for a failed conversation. The
// original request body is forwarded unchanged so the backend sees exactly
// what the client sent.
func (h *Handler) Answer(ctx context.Context, originalBody []byte, personID string, cause error) Response {
	expired := isExpiredCredentials(cause)
	h.log.Error("engaging degraded path", cause,
		logger.String("person_id", personID),
		logger.Bool("credentials_expired", expired))

	if body, ok := h.relay(ctx, originalBody); ok {
		h.emitter.Emit(&events.FallbackEngagedEvent{Tier: 1, Cause: cause.Error()})
		return Response{Status: http.StatusOK, Body: body, Tier: 1}
	}

	h.emitter.Emit(&events.FallbackEngagedEvent{Tier: 2, Cause: cause.Error()})
	return h.synthesize(personID, cause, expired)
}

// relay forwards the original request to the backend chat endpoint. Any
// failure here is swallowed; tier two always has an answer.
func (h *Handler) relay(ctx context.Context, originalBody []byte) (map[string]interface{}, bool) {
	if len(originalBody) == 0 {
		return nil, false
	}
	url := h.backendURL + h.path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(originalBody))
	if err != nil {
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")

	h.log.Info("relaying to backend chat endpoint", logger.String("url", url))
	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Warn("backend relay failed", logger.Error(err))
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		h.log.Warn("backend relay rejected", logger.Int("status", resp.StatusCode))
		return nil, false
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		h.log.Warn("backend relay returned non-JSON body", logger.Error(err))
		return nil, false
	}
	h.log.Info("backend relay succeeded")
	return body, true
}

// synthesize builds the tier-two answer. The response field is always
// renderable markdown so the chat UI degrades gracefully.
func (h *Handler) synthesize(personID string, cause error, expired bool) Response {
	status := http.StatusInternalServerError
	errMsg := "Failed to connect to AI service. Please check your configuration."
	hint := "Check AWS credentials and backend server"
	if expired {
		status = http.StatusUnauthorized
		errMsg = "AWS credentials have expired. Please refresh your AWS session tokens in the .env file."
		hint = "Run `aws configure` or refresh your session tokens"
	}
	if personID == "" {
		personID = "Unknown"
	}

	answer := fmt.Sprintf("## ⚠️ Connection Issue\n\n%s\n\n"+
		"### What to do:\n"+
		"1. Check if AWS credentials in `.env` are valid\n"+
		"2. Ensure the backend API at `%s` is running\n"+
		"3. Try refreshing the page\n\n"+
		"### Your current session:\n"+
		"- Account ID: %s\n"+
		"- Backend: %s\n"+
		"- Mode: offline",
		errMsg, h.backendURL, personID, h.backendURL)

	return Response{
		Status: status,
		Tier:   2,
		Body: map[string]interface{}{
			"error":    errMsg,
			"response": answer,
			"details":  cause.Error(),
			"hint":     hint,
		},
	}
}

func isExpiredCredentials(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "ExpiredTokenException") || strings.Contains(msg, "expired")
}
