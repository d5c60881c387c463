package stream

import (
	"crm-analytics-be/pkg/agent/answer"
	"crm-analytics-be/pkg/agent/navigation"
	"crm-analytics-be/pkg/agent/planner"
)

// EventType is the closed set of stream event tags. Events are only
// built through the constructors below, so an invalid tag is
// unrepresentable.
type EventType string

const (
	EventStart      EventType = "start"
	EventThought    EventType = "thought"
	EventPlan       EventType = "plan"
	EventNavigation EventType = "navigation"
	EventAnswer     EventType = "answer"
	EventChat       EventType = "chat"
	EventError      EventType = "error"
	EventComplete   EventType = "complete"
)

// Event is one atomic message of the per-request stream. Data is nil
// for tags that carry no payload; its shape is fixed per tag.
type Event struct {
	Type    EventType   `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// Terminal reports whether no further events may follow this one.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

type planData struct {
	Plan []planner.PlanItem `json:"plan"`
}

type navigationData struct {
	URL string `json:"url"`
}

type answerData struct {
	Rationale  []string `json:"rationale"`
	KeyMetrics []string `json:"key_metrics"`
}

func Start() Event {
	return Event{Type: EventStart, Content: "Request accepted"}
}

func Thought(content string) Event {
	return Event{Type: EventThought, Content: content}
}

func Plan(items []planner.PlanItem) Event {
	return Event{
		Type:    EventPlan,
		Content: "Analysis plan ready",
		Data:    planData{Plan: items},
	}
}

func Navigation(target navigation.Target) Event {
	return Event{
		Type:    EventNavigation,
		Content: target.Label,
		Data:    navigationData{URL: target.Route},
	}
}

func Answer(result *answer.Result) Event {
	return Event{
		Type:    EventAnswer,
		Content: result.Answer,
		Data:    answerData{Rationale: result.Rationale, KeyMetrics: result.KeyMetrics},
	}
}

func Chat(result *answer.Result) Event {
	return Event{
		Type:    EventChat,
		Content: result.Answer,
		Data:    answerData{Rationale: result.Rationale, KeyMetrics: result.KeyMetrics},
	}
}

func Error(message string) Event {
	return Event{Type: EventError, Content: message}
}

func Complete() Event {
	return Event{Type: EventComplete, Content: "done"}
}
