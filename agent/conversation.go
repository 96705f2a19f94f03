package agent

import (
	"encoding/json"
	"fmt"

	"github.com/manishiitg/multi-llm-provider-go/llmtypes"
)

// Turn is one prior exchange in the conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildMessages assembles the model-facing conversation: prior turns
// verbatim, then the current user message with the account context
// annotation as its first line. The annotation is how the model learns
// which person_id to pass to tools.
func BuildMessages(history []Turn, message, personID string, contextBlob map[string]interface{}) []llmtypes.MessageContent {
	messages := make([]llmtypes.MessageContent, 0, len(history)+1)
	for _, turn := range history {
		role := llmtypes.ChatMessageTypeHuman
		if turn.Role == "assistant" {
			role = llmtypes.ChatMessageTypeAI
		}
		messages = append(messages, llmtypes.MessageContent{
			Role:  role,
			Parts: []llmtypes.ContentPart{llmtypes.TextContent{Text: turn.Content}},
		})
	}
	messages = append(messages, llmtypes.MessageContent{
		Role:  llmtypes.ChatMessageTypeHuman,
		Parts: []llmtypes.ContentPart{llmtypes.TextContent{Text: annotate(message, personID, contextBlob)}},
	})
	return messages
}

func annotate(message, personID string, contextBlob map[string]interface{}) string {
	extra := ""
	if len(contextBlob) > 0 {
		if encoded, err := json.Marshal(contextBlob); err == nil {
			extra = fmt.Sprintf("Additional context: %s", encoded)
		}
	}
	return fmt.Sprintf("[Context: Account ID is %s. %s]\n\n%s", personID, extra, message)
}

// ensureSystemPrompt prepends the persona prompt unless the conversation
// already carries a system message.
func ensureSystemPrompt(messages []llmtypes.MessageContent, prompt string) []llmtypes.MessageContent {
	for _, msg := range messages {
		if msg.Role == llmtypes.ChatMessageTypeSystem {
			return messages
		}
	}
	system := llmtypes.MessageContent{
		Role:  llmtypes.ChatMessageTypeSystem,
		Parts: []llmtypes.ContentPart{llmtypes.TextContent{Text: prompt}},
	}
	return append([]llmtypes.MessageContent{system}, messages...)
}
