package stream

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-analytics-be/pkg/agent/answer"
	"crm-analytics-be/pkg/agent/catalog"
	"crm-analytics-be/pkg/agent/navigation"
	"crm-analytics-be/pkg/agent/planner"
	"crm-analytics-be/pkg/agent/retriever"
	"crm-analytics-be/pkg/agent/router"
	"crm-analytics-be/pkg/llm"
)

type scriptedProvider struct {
	response string
	err      error
}

func (s *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.response, s.err
}

type emitterFixture struct {
	plannerLLM   *scriptedProvider
	generatorLLM *scriptedProvider
	emitter      *Emitter
}

func newFixture(t *testing.T, products []catalog.Product) *emitterFixture {
	t.Helper()

	cat, err := catalog.New(products)
	require.NoError(t, err)

	logger := log.New(io.Discard, "", 0)
	plannerLLM := &scriptedProvider{}
	generatorLLM := &scriptedProvider{}

	emitter := NewEmitter(
		router.New(router.DefaultTriggers()),
		planner.New(plannerLLM, cat, logger),
		retriever.New(cat, logger),
		answer.New(generatorLLM, logger),
		navigation.New(cat),
		logger,
	)

	return &emitterFixture{
		plannerLLM:   plannerLLM,
		generatorLLM: generatorLLM,
		emitter:      emitter,
	}
}

func defaultProducts() []catalog.Product {
	fetch := func(ctx context.Context) (catalog.DataProduct, error) {
		return catalog.DataProduct{"rows": 3}, nil
	}
	return []catalog.Product{
		{ID: "top10", Label: "Top 10 services", Route: "/dashboard/analytics/top10", Tags: []string{"services"}, Fetch: fetch},
		{ID: "revenue_trend", Label: "Revenue trend", Route: "/dashboard/analytics/revenue", Tags: []string{"revenue"}, Fetch: fetch},
	}
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

// checkInvariants asserts the stream shape every sequence must honor,
// regardless of how the request went.
func checkInvariants(t *testing.T, events []Event) {
	t.Helper()
	require.NotEmpty(t, events)

	assert.Equal(t, EventStart, events[0].Type, "first event must be start")
	for _, ev := range events[1:] {
		assert.NotEqual(t, EventStart, ev.Type, "start must appear exactly once")
	}

	last := events[len(events)-1]
	assert.True(t, last.Terminal(), "stream must end with a terminal event")
	for _, ev := range events[:len(events)-1] {
		assert.False(t, ev.Terminal(), "only the last event may be terminal")
	}
}

func TestDeepAnalysisSequence(t *testing.T) {
	f := newFixture(t, defaultProducts())
	f.plannerLLM.response = `{"plan":[{"productId":"top10","reason":"ranking requested"}]}`
	f.generatorLLM.response = `{"answer":"Consulting is your most requested service.","rationale":["Ranked by request count"],"key_metrics":["Consulting: 42"]}`

	all, terminal := f.emitter.RunBuffered(context.Background(), Request{
		Message: "What are my top 10 services?",
		Mode:    router.ModeAuto,
	})

	checkInvariants(t, all)
	assert.Equal(t, EventComplete, terminal.Type)
	assert.Equal(t,
		[]EventType{EventStart, EventThought, EventPlan, EventAnswer, EventNavigation, EventComplete},
		eventTypes(all))

	planEv := all[2]
	payload, ok := planEv.Data.(planData)
	require.True(t, ok)
	require.Len(t, payload.Plan, 1)
	assert.Equal(t, "top10", payload.Plan[0].ProductID)

	answerEv := all[3]
	assert.Equal(t, "Consulting is your most requested service.", answerEv.Content)
	answerPayload, ok := answerEv.Data.(answerData)
	require.True(t, ok)
	assert.NotEmpty(t, answerPayload.KeyMetrics)

	navEv := all[4]
	navPayload, ok := navEv.Data.(navigationData)
	require.True(t, ok)
	assert.Equal(t, "/dashboard/analytics/top10", navPayload.URL)
}

func TestChatSequence(t *testing.T) {
	f := newFixture(t, defaultProducts())
	f.generatorLLM.response = "Hello! Ask me about your CRM data."

	all, terminal := f.emitter.RunBuffered(context.Background(), Request{
		Message: "hello",
		Mode:    router.ModeAuto,
	})

	checkInvariants(t, all)
	assert.Equal(t, EventComplete, terminal.Type)
	assert.Equal(t, []EventType{EventStart, EventChat, EventComplete}, eventTypes(all))
	assert.Equal(t, "Hello! Ask me about your CRM data.", all[1].Content)
}

func TestExplicitChatModeSkipsPlanning(t *testing.T) {
	f := newFixture(t, defaultProducts())
	f.plannerLLM.err = errors.New("must not be called")
	f.generatorLLM.response = "Sure."

	all, terminal := f.emitter.RunBuffered(context.Background(), Request{
		Message: "analyze my revenue trend", // trigger words, but chat is explicit
		Mode:    router.ModeChat,
	})

	checkInvariants(t, all)
	assert.Equal(t, EventComplete, terminal.Type)
	assert.Equal(t, []EventType{EventStart, EventChat, EventComplete}, eventTypes(all))
}

func TestEmptyPlanOmitsPlanEvent(t *testing.T) {
	f := newFixture(t, defaultProducts())
	f.plannerLLM.response = `{"plan":[]}`
	f.generatorLLM.response = `{"answer":"Nothing in the dashboard covers that.","rationale":[],"key_metrics":[]}`

	all, terminal := f.emitter.RunBuffered(context.Background(), Request{
		Message: "question",
		Mode:    router.ModeDeepAnalysis,
	})

	checkInvariants(t, all)
	assert.Equal(t, EventComplete, terminal.Type)
	// No plan event, no navigation, but still a grounded answer.
	assert.Equal(t, []EventType{EventStart, EventThought, EventAnswer, EventComplete}, eventTypes(all))
}

func TestPlannerFailureDegrades(t *testing.T) {
	f := newFixture(t, defaultProducts())
	f.plannerLLM.err = errors.New("planner offline")
	f.generatorLLM.response = `{"answer":"Answering without dashboard data.","rationale":[],"key_metrics":[]}`

	all, terminal := f.emitter.RunBuffered(context.Background(), Request{
		Message: "question",
		Mode:    router.ModeDeepAnalysis,
	})

	checkInvariants(t, all)
	assert.Equal(t, EventComplete, terminal.Type, "planning failure must not abort the request")
	assert.Equal(t, []EventType{EventStart, EventThought, EventThought, EventAnswer, EventComplete}, eventTypes(all))
}

func TestChatWithEmptyCatalogSucceeds(t *testing.T) {
	f := newFixture(t, nil) // no products registered at all
	f.generatorLLM.response = "Hello! Ask me about your CRM data."

	all, terminal := f.emitter.RunBuffered(context.Background(), Request{
		Message: "hello",
		Mode:    router.ModeChat,
	})

	checkInvariants(t, all)
	assert.Equal(t, EventComplete, terminal.Type, "chat needs no retrieval, catalog state is irrelevant")
	assert.Equal(t, []EventType{EventStart, EventChat, EventComplete}, eventTypes(all))
}

func TestUserFacingMessages(t *testing.T) {
	fatal := userFacingMessage(&retriever.FatalError{Err: errors.New("catalog empty")})
	assert.Contains(t, fatal, "analytics backend is unavailable")

	gen := userFacingMessage(&answer.GenerationError{Err: errors.New("model offline")})
	assert.Contains(t, gen, "could not compose an answer")

	other := userFacingMessage(errors.New("boom"))
	assert.Contains(t, other, "could not be completed")
}

func TestGenerationErrorAborts(t *testing.T) {
	f := newFixture(t, defaultProducts())
	f.generatorLLM.err = errors.New("model offline")

	all, terminal := f.emitter.RunBuffered(context.Background(), Request{
		Message: "hello",
		Mode:    router.ModeChat,
	})

	checkInvariants(t, all)
	assert.Equal(t, EventError, terminal.Type)
	assert.Equal(t, []EventType{EventStart, EventError}, eventTypes(all))
}

func TestRetrievalGapProducesDegradedAnswer(t *testing.T) {
	fetchOK := func(ctx context.Context) (catalog.DataProduct, error) {
		return catalog.DataProduct{"rows": 1}, nil
	}
	fetchBroken := func(ctx context.Context) (catalog.DataProduct, error) {
		return nil, errors.New("warehouse timeout")
	}
	f := newFixture(t, []catalog.Product{
		{ID: "top10", Label: "Top 10 services", Route: "/dashboard/analytics/top10", Fetch: fetchOK},
		{ID: "broken", Label: "Broken", Route: "/dashboard/broken", Fetch: fetchBroken},
	})
	f.plannerLLM.response = `{"plan":[{"productId":"broken","reason":"x"},{"productId":"top10","reason":"y"}]}`
	f.generatorLLM.response = `{"answer":"Partial answer.","rationale":["from top10 only"],"key_metrics":[]}`

	all, terminal := f.emitter.RunBuffered(context.Background(), Request{
		Message: "question",
		Mode:    router.ModeDeepAnalysis,
	})

	checkInvariants(t, all)
	assert.Equal(t, EventComplete, terminal.Type, "per-product failure must not abort")

	var answerEv *Event
	for i := range all {
		if all[i].Type == EventAnswer {
			answerEv = &all[i]
		}
	}
	require.NotNil(t, answerEv)
	payload, ok := answerEv.Data.(answerData)
	require.True(t, ok)

	found := false
	for _, line := range payload.Rationale {
		if strings.Contains(line, "broken") && strings.Contains(line, "warehouse timeout") {
			found = true
		}
	}
	assert.True(t, found, "rationale must record the failed product: %v", payload.Rationale)
}

func TestClientCancellationStopsStream(t *testing.T) {
	f := newFixture(t, defaultProducts())
	f.generatorLLM.response = "Hi."

	ctx, cancel := context.WithCancel(context.Background())
	events := f.emitter.Run(ctx, Request{Message: "hello", Mode: router.ModeChat})

	first, ok := <-events
	require.True(t, ok)
	assert.Equal(t, EventStart, first.Type)

	cancel()

	rest := make([]Event, 0)
	for ev := range events {
		rest = append(rest, ev)
	}
	// The producer may have been mid-send when cancel hit; whatever
	// arrived, nothing after a terminal and the channel must close.
	for i, ev := range rest {
		if ev.Terminal() {
			assert.Equal(t, len(rest)-1, i, "no events after the terminal")
		}
	}
}
