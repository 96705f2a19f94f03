// Package llm constructs the completion-service client. The orchestration
// loop depends only on llmtypes.Model, so tests can substitute a scripted
// model without touching provider code.
package llm

import (
	"context"
	"fmt"

	"stelagent/logger"

	llmproviders "github.com/manishiitg/multi-llm-provider-go"
	"github.com/manishiitg/multi-llm-provider-go/interfaces"
	"github.com/manishiitg/multi-llm-provider-go/llmtypes"
)

// Provider identifies a completion-service backend.
type Provider = llmproviders.Provider

const (
	ProviderBedrock   = llmproviders.ProviderBedrock
	ProviderOpenAI    = llmproviders.ProviderOpenAI
	ProviderAnthropic = llmproviders.ProviderAnthropic
)

// Config holds completion-service client configuration.
type Config struct {
	Provider    Provider
	ModelID     string
	Temperature float64
	// FallbackModels are tried by the provider layer on rate limiting.
	FallbackModels []string
	MaxRetries     int
	Logger         logger.Logger
	// Context bounds client initialization.
	Context context.Context
}

// New creates and initializes the completion-service client.
func New(cfg Config) (llmtypes.Model, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	model, err := llmproviders.InitializeLLM(llmproviders.Config{
		Provider:       cfg.Provider,
		ModelID:        cfg.ModelID,
		Temperature:    cfg.Temperature,
		FallbackModels: cfg.FallbackModels,
		MaxRetries:     cfg.MaxRetries,
		EventEmitter:   newEmitterAdapter(log),
		Logger:         newLoggerAdapter(log),
		Context:        cfg.Context,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize completion client (%s, %s): %w", cfg.Provider, cfg.ModelID, err)
	}
	return model, nil
}

// ValidateProvider checks that the configured provider name is supported.
func ValidateProvider(provider string) (Provider, error) {
	p, err := llmproviders.ValidateProvider(provider)
	return Provider(p), err
}

// loggerAdapter adapts logger.Logger to the provider layer's Logger.
type loggerAdapter struct {
	log logger.Logger
}

func newLoggerAdapter(log logger.Logger) *loggerAdapter {
	return &loggerAdapter{log: log}
}

func (l *loggerAdapter) Infof(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l *loggerAdapter) Errorf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...), nil)
}

func (l *loggerAdapter) Debugf(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

// emitterAdapter satisfies the provider layer's EventEmitter by routing
// lifecycle events into the structured log.
type emitterAdapter struct {
	log logger.Logger
}

func newEmitterAdapter(log logger.Logger) *emitterAdapter {
	return &emitterAdapter{log: log.With(logger.String("component", "llm"))}
}

func (e *emitterAdapter) EmitLLMInitializationStart(provider string, modelID string, temperature float64, traceID interfaces.TraceID, metadata llmproviders.LLMMetadata) {
	e.log.Debug("initializing completion client",
		logger.String("provider", provider),
		logger.String("model_id", modelID))
}

func (e *emitterAdapter) EmitLLMInitializationSuccess(provider string, modelID string, capabilities string, traceID interfaces.TraceID, metadata llmproviders.LLMMetadata) {
	e.log.Info("completion client ready",
		logger.String("provider", provider),
		logger.String("model_id", modelID))
}

func (e *emitterAdapter) EmitLLMInitializationError(provider string, modelID string, operation string, err error, traceID interfaces.TraceID, metadata llmproviders.LLMMetadata) {
	e.log.Error("completion client initialization failed", err,
		logger.String("provider", provider),
		logger.String("model_id", modelID))
}

func (e *emitterAdapter) EmitLLMGenerationSuccess(provider string, modelID string, operation string, messages int, temperature float64, messageContent string, responseLength int, choicesCount int, traceID interfaces.TraceID, metadata llmproviders.LLMMetadata) {
	e.log.Debug("completion round succeeded",
		logger.String("model_id", modelID),
		logger.Int("messages", messages),
		logger.Int("response_length", responseLength))
}

func (e *emitterAdapter) EmitLLMGenerationError(provider string, modelID string, operation string, messages int, temperature float64, messageContent string, err error, traceID interfaces.TraceID, metadata llmproviders.LLMMetadata) {
	e.log.Error("completion round failed", err,
		logger.String("model_id", modelID),
		logger.Int("messages", messages))
}

func (e *emitterAdapter) EmitToolCallDetected(provider string, modelID string, toolCallID string, toolName string, arguments string, traceID interfaces.TraceID, metadata llmproviders.LLMMetadata) {
	e.log.Debug("tool call detected",
		logger.String("tool", toolName),
		logger.String("tool_call_id", toolCallID))
}
