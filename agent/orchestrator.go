// Package agent runs the bounded conversation loop between the completion
// service and the tool executor. A round is one model call; a round whose
// response carries tool calls fans them out in parallel, folds the results
// back into the conversation, and loops.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"stelagent/events"
	"stelagent/logger"
	"stelagent/tools"

	"github.com/manishiitg/multi-llm-provider-go/llmtypes"
)

// ErrMaxRoundsExceeded is returned when the model keeps requesting tools
// past the configured round budget.
var ErrMaxRoundsExceeded = errors.New("conversation exceeded maximum tool rounds")

// CompletionModel is the slice of llmtypes.Model the loop depends on.
type CompletionModel interface {
	GenerateContent(ctx context.Context, messages []llmtypes.MessageContent, options ...llmtypes.CallOption) (*llmtypes.ContentResponse, error)
}

const defaultMaxRounds = 8

// Request is one inbound chat turn.
type Request struct {
	Message string
	// PersonID scopes every tool call to one affiliate account.
	PersonID string
	History  []Turn
	Context  map[string]interface{}
}

// ToolUse records one tool invocation for the response envelope.
type ToolUse struct {
	Tool    string `json:"tool"`
	Success bool   `json:"success"`
}

// Outcome is the terminal result of a conversation.
type Outcome struct {
	Answer  string
	ToolLog []ToolUse
	Rounds  int
}

// Orchestrator drives the model/tool loop to completion.
type Orchestrator struct {
	model     CompletionModel
	registry  *tools.Registry
	executor  *tools.Executor
	emitter   *events.Emitter
	log       logger.Logger
	maxRounds int
	maxTokens int
	temp      float64
}

// OrchestratorConfig wires the orchestrator's collaborators.
type OrchestratorConfig struct {
	Model    CompletionModel
	Registry *tools.Registry
	Executor *tools.Executor
	Emitter  *events.Emitter
	Logger   logger.Logger
	// MaxRounds bounds model calls per conversation. Zero means the default.
	MaxRounds   int
	MaxTokens   int
	Temperature float64
}

// NewOrchestrator builds an orchestrator from its config, applying defaults.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Model == nil {
		return nil, errors.New("orchestrator requires a model")
	}
	if cfg.Registry == nil || cfg.Registry.Len() == 0 {
		return nil, errors.New("orchestrator requires a non-empty tool registry")
	}
	if cfg.Executor == nil {
		return nil, errors.New("orchestrator requires a tool executor")
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaultMaxRounds
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoop()
	}
	if cfg.Emitter == nil {
		cfg.Emitter = events.NewEmitter()
	}
	return &Orchestrator{
		model:     cfg.Model,
		registry:  cfg.Registry,
		executor:  cfg.Executor,
		emitter:   cfg.Emitter,
		log:       cfg.Logger.With(logger.String("component", "orchestrator")),
		maxRounds: cfg.MaxRounds,
		maxTokens: cfg.MaxTokens,
		temp:      cfg.Temperature,
	}, nil
}

// Run executes the conversation until the model produces a text-only
// response or a budget is hit. Tool failures are folded into the
// conversation as structured payloads and never abort the loop; only
// completion-service errors and budget exhaustion do.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Outcome, error) {
	messages := ensureSystemPrompt(
		BuildMessages(req.History, req.Message, req.PersonID, req.Context),
		SystemPrompt(),
	)

	started := time.Now()
	o.emitter.Emit(&events.ConversationStartEvent{
		Question:   req.Message,
		PersonID:   req.PersonID,
		ToolsCount: o.registry.Len(),
		History:    len(req.History),
	})
	o.log.Info("starting conversation",
		logger.String("person_id", req.PersonID),
		logger.Int("messages", len(messages)),
		logger.Int("tools", o.registry.Len()))

	callOptions := []llmtypes.CallOption{
		llmtypes.WithTools(o.registry.LLMTools()),
		llmtypes.WithMaxTokens(o.maxTokens),
		llmtypes.WithTemperature(o.temp),
	}

	var toolLog []ToolUse
	for round := 0; round < o.maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		o.emitter.Emit(&events.ConversationTurnEvent{Round: round + 1, MessageCount: len(messages)})

		resp, err := o.model.GenerateContent(ctx, messages, callOptions...)
		if err != nil {
			o.emitter.Emit(&events.ConversationErrorEvent{Round: round + 1, Error: err.Error()})
			return nil, fmt.Errorf("completion round %d: %w", round+1, err)
		}
		if len(resp.Choices) == 0 {
			o.emitter.Emit(&events.ConversationErrorEvent{Round: round + 1, Error: "no choices in response"})
			return nil, fmt.Errorf("completion round %d: response had no choices", round+1)
		}
		choice := resp.Choices[0]

		if len(choice.ToolCalls) == 0 {
			answer := strings.TrimSpace(choice.Content)
			o.emitter.Emit(&events.ConversationEndEvent{
				Rounds:       round + 1,
				ToolsUsed:    len(toolLog),
				AnswerLength: len(answer),
				Duration:     time.Since(started),
			})
			o.log.Info("conversation complete",
				logger.Int("rounds", round+1),
				logger.String("tools_used", toolSummary(toolLog)),
				logger.Int("answer_length", len(answer)))
			return &Outcome{Answer: answer, ToolLog: toolLog, Rounds: round + 1}, nil
		}

		o.log.Debug("model requested tools",
			logger.Int("round", round+1),
			logger.String("tools", toolNames(choice.ToolCalls)))

		results := o.executeParallel(ctx, round+1, choice.ToolCalls)
		for _, result := range results {
			toolLog = append(toolLog, ToolUse{Tool: result.Tool, Success: result.OK})
		}
		messages = appendToolRound(messages, choice.Content, choice.ToolCalls, results)
	}

	o.emitter.Emit(&events.MaxRoundsReachedEvent{MaxRounds: o.maxRounds})
	o.log.Error("conversation exceeded round budget", ErrMaxRoundsExceeded,
		logger.Int("max_rounds", o.maxRounds))
	return nil, fmt.Errorf("after %d rounds: %w", o.maxRounds, ErrMaxRoundsExceeded)
}

// executeParallel runs every requested tool concurrently and returns the
// results in request order. Slot indexing keeps the ordering stable
// regardless of completion order.
func (o *Orchestrator) executeParallel(ctx context.Context, round int, calls []llmtypes.ToolCall) []tools.Result {
	invocations := make([]tools.Invocation, len(calls))
	for i, call := range calls {
		if call.FunctionCall == nil {
			invocations[i] = tools.Invocation{ID: call.ID, Arguments: map[string]string{}}
			continue
		}
		args, err := tools.ParseArguments(call.FunctionCall.Arguments)
		if err != nil {
			o.log.Warn("unparseable tool arguments",
				logger.String("tool", call.FunctionCall.Name),
				logger.Error(err))
			args = map[string]string{}
		}
		invocations[i] = tools.Invocation{
			ID:        call.ID,
			Name:      call.FunctionCall.Name,
			Arguments: args,
		}
	}

	results := make([]tools.Result, len(invocations))
	var wg sync.WaitGroup
	for i, inv := range invocations {
		wg.Add(1)
		go func(slot int, inv tools.Invocation) {
			defer wg.Done()
			o.emitter.Emit(&events.ToolCallStartEvent{
				Round:        round,
				ToolName:     inv.Name,
				InvocationID: inv.ID,
				IsParallel:   len(invocations) > 1,
			})
			result := o.executor.Execute(ctx, inv)
			if result.OK {
				o.emitter.Emit(&events.ToolCallEndEvent{
					Round:        round,
					ToolName:     result.Tool,
					InvocationID: result.InvocationID,
					ResultBytes:  len(result.Payload),
					Duration:     result.Duration,
				})
			} else {
				o.emitter.Emit(&events.ToolCallErrorEvent{
					Round:        round,
					ToolName:     result.Tool,
					InvocationID: result.InvocationID,
					Error:        result.Payload,
					Duration:     result.Duration,
				})
			}
			results[slot] = result
		}(i, inv)
	}
	wg.Wait()
	return results
}

// appendToolRound folds one tool round into the conversation: the
// assistant message carrying any text plus the tool-call parts, then one
// tool-response message per call, in request order.
func appendToolRound(messages []llmtypes.MessageContent, content string, calls []llmtypes.ToolCall, results []tools.Result) []llmtypes.MessageContent {
	var assistantParts []llmtypes.ContentPart
	if content != "" {
		assistantParts = append(assistantParts, llmtypes.TextContent{Text: content})
	}
	for _, call := range calls {
		assistantParts = append(assistantParts, call)
	}
	messages = append(messages, llmtypes.MessageContent{
		Role:  llmtypes.ChatMessageTypeAI,
		Parts: assistantParts,
	})

	for _, result := range results {
		messages = append(messages, llmtypes.MessageContent{
			Role: llmtypes.ChatMessageTypeTool,
			Parts: []llmtypes.ContentPart{llmtypes.ToolCallResponse{
				ToolCallID: result.InvocationID,
				Name:       result.Tool,
				Content:    result.Payload,
			}},
		})
	}
	return messages
}

// toolSummary renders the per-conversation tool usage line, e.g.
// "get_orders(✓), get_segments(✗)".
func toolSummary(log []ToolUse) string {
	if len(log) == 0 {
		return "none"
	}
	parts := make([]string, len(log))
	for i, use := range log {
		mark := "✓"
		if !use.Success {
			mark = "✗"
		}
		parts[i] = use.Tool + "(" + mark + ")"
	}
	return strings.Join(parts, ", ")
}

func toolNames(calls []llmtypes.ToolCall) string {
	names := make([]string, len(calls))
	for i, call := range calls {
		if call.FunctionCall != nil {
			names[i] = call.FunctionCall.Name
		}
	}
	return strings.Join(names, ", ")
}
