package stream

import (
	"context"
	"errors"
	"fmt"
	"log"

	"crm-analytics-be/pkg/agent/answer"
	"crm-analytics-be/pkg/agent/navigation"
	"crm-analytics-be/pkg/agent/planner"
	"crm-analytics-be/pkg/agent/retriever"
	"crm-analytics-be/pkg/agent/router"
)

// Request is the validated input of one pipeline run.
type Request struct {
	Message string
	Mode    router.Mode
}

// Emitter supervises the pipeline stages and sequences their output
// into a single ordered event stream per request.
type Emitter struct {
	router    *router.Router
	planner   *planner.Planner
	retriever *retriever.Retriever
	generator *answer.Generator
	navigator *navigation.Mapper
	logger    *log.Logger
}

func NewEmitter(
	modeRouter *router.Router,
	productPlanner *planner.Planner,
	productRetriever *retriever.Retriever,
	generator *answer.Generator,
	navigator *navigation.Mapper,
	logger *log.Logger,
) *Emitter {
	return &Emitter{
		router:    modeRouter,
		planner:   productPlanner,
		retriever: productRetriever,
		generator: generator,
		navigator: navigator,
		logger:    logger,
	}
}

// Run executes the pipeline and returns its event stream: a lazy,
// finite, non-restartable sequence with exactly one producer. The
// channel is closed after the terminal event. Cancelling ctx stops
// stage invocation; no events are written after cancellation.
func (e *Emitter) Run(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		e.run(ctx, req, events)
	}()
	return events
}

// RunBuffered executes the same pipeline but collects the whole
// sequence, returning it alongside the terminal event. Used by the
// non-streaming endpoint and by tests.
func (e *Emitter) RunBuffered(ctx context.Context, req Request) ([]Event, Event) {
	var all []Event
	for ev := range e.Run(ctx, req) {
		all = append(all, ev)
	}
	if len(all) == 0 {
		// Client cancelled before anything was written.
		return nil, Error("request cancelled")
	}
	return all, all[len(all)-1]
}

func (e *Emitter) run(ctx context.Context, req Request, events chan<- Event) {
	// Idle -> Started
	if !e.emit(ctx, events, Start()) {
		return
	}

	// Started -> Planning
	mode := e.router.Resolve(req.Message, req.Mode)
	if mode == router.ModeDeepAnalysis {
		if !e.emit(ctx, events, Thought("Running deep analysis, selecting relevant data products")) {
			return
		}
	}

	plan, err := e.planner.Plan(ctx, req.Message, mode)
	if err != nil {
		var planningErr *planner.PlanningError
		if !errors.As(err, &planningErr) {
			e.fail(ctx, events, err)
			return
		}
		// Degraded mode: continue with an empty plan rather than
		// aborting the whole request.
		e.logger.Printf("[EMITTER] Planner degraded: %v", planningErr)
		if !e.emit(ctx, events, Thought("Planning is unavailable right now, answering without dashboard data")) {
			return
		}
		plan = nil
	}

	if len(plan) > 0 {
		if !e.emit(ctx, events, Plan(plan)) {
			return
		}
	}

	// Planning -> Retrieving
	retrieved, err := e.retriever.Retrieve(ctx, plan)
	if err != nil {
		e.fail(ctx, events, err)
		return
	}

	// Retrieving -> Answering
	result, err := e.generator.Generate(ctx, req.Message, retrieved, mode)
	if err != nil {
		e.fail(ctx, events, err)
		return
	}

	if mode == router.ModeDeepAnalysis {
		if !e.emit(ctx, events, Answer(result)) {
			return
		}
	} else {
		if !e.emit(ctx, events, Chat(result)) {
			return
		}
	}

	// Answering -> Navigated (optional)
	if target := e.navigator.Map(plan); target != nil {
		if !e.emit(ctx, events, Navigation(*target)) {
			return
		}
	}

	// -> Terminated(success)
	e.emit(ctx, events, Complete())
}

// fail emits the single error event and terminates the stream.
func (e *Emitter) fail(ctx context.Context, events chan<- Event, err error) {
	e.logger.Printf("[EMITTER] Pipeline aborted: %v", err)
	e.emit(ctx, events, Error(userFacingMessage(err)))
}

// emit writes one event unless the request was cancelled. Returns false
// when the consumer is gone so the caller stops invoking stages.
func (e *Emitter) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		e.logger.Printf("[EMITTER] Client disconnected, dropping %s event", ev.Type)
		return false
	}
}

func userFacingMessage(err error) string {
	var fatalErr *retriever.FatalError
	if errors.As(err, &fatalErr) {
		return "The analytics backend is unavailable. Please try again later."
	}
	var genErr *answer.GenerationError
	if errors.As(err, &genErr) {
		return "The assistant could not compose an answer. Please try again later."
	}
	return fmt.Sprintf("The request could not be completed: %v", err)
}
