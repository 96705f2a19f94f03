package events

import (
	"stelagent/logger"
)

// LogListener writes every event to the structured log. It is the default
// sink when no external tracer is configured.
type LogListener struct {
	log logger.Logger
}

// NewLogListener creates a listener backed by log.
func NewLogListener(log logger.Logger) *LogListener {
	return &LogListener{log: log.With(logger.String("component", "events"))}
}

// OnEvent implements Listener.
func (l *LogListener) OnEvent(event *Event) {
	fields := []logger.Field{
		logger.String("event", string(event.Type)),
		logger.String("event_id", event.ID),
	}
	switch d := event.Data.(type) {
	case *ToolCallStartEvent:
		fields = append(fields,
			logger.String("tool", d.ToolName),
			logger.String("invocation_id", d.InvocationID))
	case *ToolCallEndEvent:
		fields = append(fields,
			logger.String("tool", d.ToolName),
			logger.Int("result_bytes", d.ResultBytes),
			logger.Duration("duration", d.Duration))
	case *ToolCallErrorEvent:
		fields = append(fields,
			logger.String("tool", d.ToolName),
			logger.String("tool_error", d.Error),
			logger.Duration("duration", d.Duration))
	case *ConversationTurnEvent:
		fields = append(fields,
			logger.Int("round", d.Round),
			logger.Int("tool_calls", d.ToolCalls))
	case *ConversationEndEvent:
		fields = append(fields,
			logger.Int("rounds", d.Rounds),
			logger.Int("tools_used", d.ToolsUsed),
			logger.Duration("duration", d.Duration))
	case *ConversationErrorEvent:
		fields = append(fields, logger.String("cause", d.Error))
	case *FallbackEngagedEvent:
		fields = append(fields,
			logger.Int("tier", d.Tier),
			logger.String("cause", d.Cause))
	}
	l.log.Debug("event", fields...)
}
