package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stelagent/agent"
	"stelagent/fallback"
	"stelagent/tools"

	"github.com/manishiitg/multi-llm-provider-go/llmtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedModel struct {
	responses []*llmtypes.ContentResponse
	err       error
	next      int
	calls     int
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llmtypes.MessageContent, options ...llmtypes.CallOption) (*llmtypes.ContentResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	resp := m.responses[m.next]
	if m.next < len(m.responses)-1 {
		m.next++
	}
	return resp, nil
}

func textResponse(text string) *llmtypes.ContentResponse {
	return &llmtypes.ContentResponse{
		Choices: []*llmtypes.ContentChoice{{Content: text, StopReason: "end_turn"}},
	}
}

func toolResponse(calls ...llmtypes.ToolCall) *llmtypes.ContentResponse {
	return &llmtypes.ContentResponse{
		Choices: []*llmtypes.ContentChoice{{StopReason: "tool_use", ToolCalls: calls}},
	}
}

func call(id, name, args string) llmtypes.ToolCall {
	return llmtypes.ToolCall{ID: id, FunctionCall: &llmtypes.FunctionCall{Name: name, Arguments: args}}
}

// newTestServer assembles a full server over a scripted model and a stub
// data backend.
func newTestServer(t *testing.T, model agent.CompletionModel, backendURL string) *Server {
	t.Helper()
	registry := tools.DefaultRegistry()
	executor := tools.NewExecutor(tools.ExecutorConfig{
		Registry: registry,
		BaseURL:  backendURL,
		Timeout:  2 * time.Second,
	})
	orchestrator, err := agent.NewOrchestrator(agent.OrchestratorConfig{
		Model:    model,
		Registry: registry,
		Executor: executor,
	})
	require.NoError(t, err)
	return New(Config{
		Addr:         ":0",
		Orchestrator: orchestrator,
		Fallback:     fallback.New(fallback.Config{BackendURL: backendURL}),
		Registry:     registry,
	})
}

func postChat(t *testing.T, s *Server, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestChatRejectsMissingFields(t *testing.T) {
	s := newTestServer(t, &scriptedModel{responses: []*llmtypes.ContentResponse{textResponse("x")}}, "http://unused")

	tests := []struct {
		name string
		body string
	}{
		{"missing message", `{"person_id":"247"}`},
		{"missing person_id", `{"message":"hi"}`},
		{"invalid JSON", `{"message":`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postChat(t, s, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestChatBufferedResponse(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ok":true}`)
	}))
	defer backend.Close()

	// Round 1 requests two tools, round 2 requests one more, round 3 answers.
	model := &scriptedModel{responses: []*llmtypes.ContentResponse{
		toolResponse(
			call("toolu_1", "get_qualification_status", `{"person_id":"247"}`),
			call("toolu_2", "get_next_best_actions", `{"person_id":"247"}`),
		),
		toolResponse(call("toolu_3", "get_account_overview", `{"person_id":"247"}`)),
		textResponse("### Your Qualification Status\nLooking strong."),
	}}
	s := newTestServer(t, model, backend.URL)

	w := postChat(t, s, `{"message":"hi","person_id":"247"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Response  string `json:"response"`
		ToolsUsed []struct {
			Tool    string `json:"tool"`
			Success bool   `json:"success"`
		} `json:"tools_used"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "### Your Qualification Status\nLooking strong.", body.Response)
	require.Len(t, body.ToolsUsed, 3)
	assert.Equal(t, "get_qualification_status", body.ToolsUsed[0].Tool)
	assert.Equal(t, "get_next_best_actions", body.ToolsUsed[1].Tool)
	assert.Equal(t, "get_account_overview", body.ToolsUsed[2].Tool)
	for _, tu := range body.ToolsUsed {
		assert.True(t, tu.Success)
	}
}

func TestChatSequentialToolRounds(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ok":true}`)
	}))
	defer backend.Close()

	// One tool per round: the answer only arrives on the third completion.
	model := &scriptedModel{responses: []*llmtypes.ContentResponse{
		toolResponse(call("toolu_1", "get_qualification_status", `{"person_id":"247"}`)),
		toolResponse(call("toolu_2", "get_next_best_actions", `{"person_id":"247"}`)),
		textResponse("Focus on X."),
	}}
	s := newTestServer(t, model, backend.URL)

	w := postChat(t, s, `{"message":"What should I do today?","person_id":"247"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, model.calls)
	assert.JSONEq(t, `{
		"response": "Focus on X.",
		"tools_used": [
			{"tool":"get_qualification_status","success":true},
			{"tool":"get_next_best_actions","success":true}
		]
	}`, w.Body.String())
}

func TestChatBufferedResponseNoTools(t *testing.T) {
	s := newTestServer(t, &scriptedModel{responses: []*llmtypes.ContentResponse{
		textResponse("Hello!"),
	}}, "http://unused")

	w := postChat(t, s, `{"message":"hi","person_id":"1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	// tools_used must be an empty array, not null.
	assert.JSONEq(t, `{"response":"Hello!","tools_used":[]}`, w.Body.String())
}

func TestChatStreamingResponse(t *testing.T) {
	answer := "one two three four five six seven eight nine ten eleven twelve"
	s := newTestServer(t, &scriptedModel{responses: []*llmtypes.ContentResponse{
		textResponse(answer),
	}}, "http://unused")

	w := postChat(t, s, `{"message":"hi","person_id":"1"}`, map[string]string{
		"Accept": "text/event-stream",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	raw := w.Body.String()
	events := strings.Split(strings.TrimSpace(raw), "\n\n")
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, "data: [DONE]", events[len(events)-1])

	// Concatenating data chunks reproduces the answer.
	var rebuilt strings.Builder
	for _, ev := range events[:len(events)-1] {
		require.True(t, strings.HasPrefix(ev, "data: "))
		var chunk struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(ev, "data: ")), &chunk))
		rebuilt.WriteString(chunk.Text)
	}
	assert.Equal(t, answer, strings.TrimSpace(rebuilt.String()))
	// 12 words at 5 per chunk means 3 data events.
	assert.Len(t, events, 4)
}

func TestChatFallsBackOnModelError(t *testing.T) {
	// Backend answers the relay, so tier one resolves the request.
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/llm/chat" {
			io.WriteString(w, `{"response":"backend says hi"}`)
			return
		}
		http.NotFound(w, r)
	}))
	defer backend.Close()

	s := newTestServer(t, &scriptedModel{err: errors.New("bedrock unreachable")}, backend.URL)

	w := postChat(t, s, `{"message":"hi","person_id":"247"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "backend says hi", body["response"])
}

func TestChatDegradedAnswerWhenEverythingDown(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close()

	s := newTestServer(t, &scriptedModel{err: errors.New("ExpiredTokenException: expired")}, backend.URL)

	w := postChat(t, s, `{"message":"hi","person_id":"247"}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "AWS credentials have expired")
	assert.Contains(t, body["response"], "Connection Issue")
	assert.NotEmpty(t, body["hint"])
	assert.NotEmpty(t, body["details"])
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &scriptedModel{responses: []*llmtypes.ContentResponse{textResponse("x")}}, "http://unused")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 11, body["tools"])
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, &scriptedModel{responses: []*llmtypes.ContentResponse{textResponse("x")}}, "http://unused")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Header().Get("X-Request-ID"))
}
