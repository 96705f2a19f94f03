package agent

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stelagent/tools"

	"github.com/manishiitg/multi-llm-provider-go/llmtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel replays a fixed sequence of responses and records the
// conversation it was shown at each round.
type scriptedModel struct {
	responses []*llmtypes.ContentResponse
	err       error
	seen      [][]llmtypes.MessageContent
	calls     int
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llmtypes.MessageContent, options ...llmtypes.CallOption) (*llmtypes.ContentResponse, error) {
	m.seen = append(m.seen, messages)
	if m.err != nil {
		return nil, m.err
	}
	if m.calls >= len(m.responses) {
		// Keep returning the last response; lets a tool-only script
		// exercise the round cap.
		return m.responses[len(m.responses)-1], nil
	}
	resp := m.responses[m.calls]
	m.calls++
	return resp, nil
}

func textResponse(text string) *llmtypes.ContentResponse {
	return &llmtypes.ContentResponse{
		Choices: []*llmtypes.ContentChoice{{Content: text, StopReason: "end_turn"}},
	}
}

func toolResponse(content string, calls ...llmtypes.ToolCall) *llmtypes.ContentResponse {
	return &llmtypes.ContentResponse{
		Choices: []*llmtypes.ContentChoice{{Content: content, StopReason: "tool_use", ToolCalls: calls}},
	}
}

func call(id, name, args string) llmtypes.ToolCall {
	return llmtypes.ToolCall{
		ID:           id,
		FunctionCall: &llmtypes.FunctionCall{Name: name, Arguments: args},
	}
}

func newTestOrchestrator(t *testing.T, model CompletionModel, backendURL string) *Orchestrator {
	t.Helper()
	registry := tools.DefaultRegistry()
	executor := tools.NewExecutor(tools.ExecutorConfig{
		Registry: registry,
		BaseURL:  backendURL,
		Timeout:  2 * time.Second,
	})
	o, err := NewOrchestrator(OrchestratorConfig{
		Model:    model,
		Registry: registry,
		Executor: executor,
	})
	require.NoError(t, err)
	return o
}

func jsonBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"path":"`+r.URL.Path+`"}`)
	}))
}

func TestRunTextOnlyResponse(t *testing.T) {
	model := &scriptedModel{responses: []*llmtypes.ContentResponse{
		textResponse("You're doing great!"),
	}}
	o := newTestOrchestrator(t, model, "http://unused")

	outcome, err := o.Run(context.Background(), Request{Message: "hi", PersonID: "247"})
	require.NoError(t, err)
	assert.Equal(t, "You're doing great!", outcome.Answer)
	assert.Equal(t, 1, outcome.Rounds)
	assert.Empty(t, outcome.ToolLog)

	// First round sees system prompt plus the annotated user message.
	require.Len(t, model.seen, 1)
	require.NotEmpty(t, model.seen[0])
	assert.Equal(t, llmtypes.ChatMessageTypeSystem, model.seen[0][0].Role)
}

func TestRunToolRoundThenAnswer(t *testing.T) {
	backend := jsonBackend(t)
	defer backend.Close()

	model := &scriptedModel{responses: []*llmtypes.ContentResponse{
		toolResponse("Let me check.",
			call("toolu_1", "get_qualification_status", `{"person_id":"247"}`),
			call("toolu_2", "get_account_overview", `{"person_id":"247"}`),
		),
		textResponse("Here is your status."),
	}}
	o := newTestOrchestrator(t, model, backend.URL)

	outcome, err := o.Run(context.Background(), Request{Message: "hi", PersonID: "247"})
	require.NoError(t, err)
	assert.Equal(t, "Here is your status.", outcome.Answer)
	assert.Equal(t, 2, outcome.Rounds)
	require.Len(t, outcome.ToolLog, 2)
	assert.Equal(t, ToolUse{Tool: "get_qualification_status", Success: true}, outcome.ToolLog[0])
	assert.Equal(t, ToolUse{Tool: "get_account_overview", Success: true}, outcome.ToolLog[1])

	// The second round must see the assistant tool-call message followed by
	// one tool response per call, ID-matched in request order.
	require.Len(t, model.seen, 2)
	second := model.seen[1]
	n := len(second)
	require.GreaterOrEqual(t, n, 3)

	assistant := second[n-3]
	assert.Equal(t, llmtypes.ChatMessageTypeAI, assistant.Role)

	wantIDs := []string{"toolu_1", "toolu_2"}
	for i, msg := range second[n-2:] {
		assert.Equal(t, llmtypes.ChatMessageTypeTool, msg.Role)
		require.Len(t, msg.Parts, 1)
		resp, ok := msg.Parts[0].(llmtypes.ToolCallResponse)
		require.True(t, ok, "expected tool response part, got %T", msg.Parts[0])
		assert.Equal(t, wantIDs[i], resp.ToolCallID)
	}
}

func TestRunToolFailureDoesNotAbort(t *testing.T) {
	backend := jsonBackend(t)
	defer backend.Close()

	model := &scriptedModel{responses: []*llmtypes.ContentResponse{
		toolResponse("",
			call("toolu_1", "get_weather", `{}`),
			call("toolu_2", "get_orders", `{"person_id":"247"}`),
		),
		textResponse("Partial answer."),
	}}
	o := newTestOrchestrator(t, model, backend.URL)

	outcome, err := o.Run(context.Background(), Request{Message: "hi", PersonID: "247"})
	require.NoError(t, err)
	require.Len(t, outcome.ToolLog, 2)
	assert.False(t, outcome.ToolLog[0].Success)
	assert.True(t, outcome.ToolLog[1].Success)
}

func TestRunExecutesToolsInParallel(t *testing.T) {
	delays := map[string]time.Duration{
		"/api/accounts/247/overview":       100 * time.Millisecond,
		"/api/accounts/247/qualifications": 200 * time.Millisecond,
	}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delays[r.URL.Path])
		io.WriteString(w, `{}`)
	}))
	defer backend.Close()

	model := &scriptedModel{responses: []*llmtypes.ContentResponse{
		toolResponse("",
			call("toolu_1", "get_account_overview", `{"person_id":"247"}`),
			call("toolu_2", "get_qualification_status", `{"person_id":"247"}`),
		),
		textResponse("done"),
	}}
	o := newTestOrchestrator(t, model, backend.URL)

	start := time.Now()
	_, err := o.Run(context.Background(), Request{Message: "hi", PersonID: "247"})
	elapsed := time.Since(start)

	require.NoError(t, err)
	// Sequential execution would take 300ms+.
	assert.Less(t, elapsed, 290*time.Millisecond, "tools did not run concurrently")
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
}

func TestRunMaxRoundsExceeded(t *testing.T) {
	backend := jsonBackend(t)
	defer backend.Close()

	model := &scriptedModel{responses: []*llmtypes.ContentResponse{
		toolResponse("", call("toolu_1", "get_orders", `{"person_id":"247"}`)),
	}}
	registry := tools.DefaultRegistry()
	executor := tools.NewExecutor(tools.ExecutorConfig{Registry: registry, BaseURL: backend.URL})
	o, err := NewOrchestrator(OrchestratorConfig{
		Model:     model,
		Registry:  registry,
		Executor:  executor,
		MaxRounds: 3,
	})
	require.NoError(t, err)

	_, err = o.Run(context.Background(), Request{Message: "hi", PersonID: "247"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRoundsExceeded)
	assert.Len(t, model.seen, 3)
}

func TestRunModelErrorPropagates(t *testing.T) {
	model := &scriptedModel{err: errors.New("ExpiredTokenException: token expired")}
	o := newTestOrchestrator(t, model, "http://unused")

	_, err := o.Run(context.Background(), Request{Message: "hi", PersonID: "247"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ExpiredTokenException")
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &scriptedModel{responses: []*llmtypes.ContentResponse{textResponse("x")}}
	o := newTestOrchestrator(t, model, "http://unused")

	_, err := o.Run(ctx, Request{Message: "hi", PersonID: "247"})
	assert.ErrorIs(t, err, context.Canceled)
}
