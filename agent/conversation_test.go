package agent

import (
	"strings"
	"testing"

	"github.com/manishiitg/multi-llm-provider-go/llmtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textOf(t *testing.T, msg llmtypes.MessageContent) string {
	t.Helper()
	require.Len(t, msg.Parts, 1)
	part, ok := msg.Parts[0].(llmtypes.TextContent)
	require.True(t, ok, "expected text part, got %T", msg.Parts[0])
	return part.Text
}

func TestBuildMessagesAnnotatesCurrentMessage(t *testing.T) {
	messages := BuildMessages(nil, "How am I doing?", "247", nil)

	require.Len(t, messages, 1)
	assert.Equal(t, llmtypes.ChatMessageTypeHuman, messages[0].Role)

	text := textOf(t, messages[0])
	lines := strings.SplitN(text, "\n", 2)
	assert.Equal(t, "[Context: Account ID is 247. ]", lines[0])
	assert.True(t, strings.HasSuffix(text, "How am I doing?"))
}

func TestBuildMessagesIncludesAdditionalContext(t *testing.T) {
	messages := BuildMessages(nil, "hi", "9", map[string]interface{}{"market": "US"})

	text := textOf(t, messages[0])
	assert.Contains(t, text, "Account ID is 9")
	assert.Contains(t, text, `Additional context: {"market":"US"}`)
}

func TestBuildMessagesPreservesHistory(t *testing.T) {
	history := []Turn{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "Hi! How can I help?"},
	}
	messages := BuildMessages(history, "show my team", "247", nil)

	require.Len(t, messages, 3)
	assert.Equal(t, llmtypes.ChatMessageTypeHuman, messages[0].Role)
	assert.Equal(t, "hello", textOf(t, messages[0]))
	assert.Equal(t, llmtypes.ChatMessageTypeAI, messages[1].Role)
	assert.Equal(t, "Hi! How can I help?", textOf(t, messages[1]))
	// Only the current message carries the annotation.
	assert.NotContains(t, textOf(t, messages[1]), "[Context:")
	assert.Contains(t, textOf(t, messages[2]), "[Context: Account ID is 247.")
}

func TestEnsureSystemPromptPrepends(t *testing.T) {
	messages := BuildMessages(nil, "hi", "1", nil)
	out := ensureSystemPrompt(messages, "persona")

	require.Len(t, out, 2)
	assert.Equal(t, llmtypes.ChatMessageTypeSystem, out[0].Role)
	assert.Equal(t, "persona", textOf(t, out[0]))
}

func TestEnsureSystemPromptIdempotent(t *testing.T) {
	messages := ensureSystemPrompt(BuildMessages(nil, "hi", "1", nil), "persona")
	out := ensureSystemPrompt(messages, "persona")
	assert.Len(t, out, 2)
}
