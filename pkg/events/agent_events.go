package events

import "time"

const (
	TypeAgentChatCompleted = "AGENT_CHAT_COMPLETED"
	TypeAgentAnalysisRun   = "AGENT_ANALYSIS_RUN"
)

// NewAgentChatCompleted is published after any agent request terminates,
// success or error, for usage analytics.
func NewAgentChatCompleted(userID, mode, terminal string) Event {
	return BaseEvent{
		Type: TypeAgentChatCompleted,
		Data: map[string]interface{}{
			"user_id":  userID,
			"mode":     mode,
			"terminal": terminal,
		},
		OccurredAt: time.Now(),
	}
}

// NewAgentAnalysisRun is published when a deep analysis pipeline ran a
// non-empty plan, carrying which products were consulted.
func NewAgentAnalysisRun(userID string, productIDs []string) Event {
	return BaseEvent{
		Type: TypeAgentAnalysisRun,
		Data: map[string]interface{}{
			"user_id":  userID,
			"products": productIDs,
		},
		OccurredAt: time.Now(),
	}
}
