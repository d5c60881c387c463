package service

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"crm-analytics-be/internal/config"
	"crm-analytics-be/internal/dto"
	"crm-analytics-be/internal/pkg/logger"
	"crm-analytics-be/internal/repository/contract"
	"crm-analytics-be/internal/repository/memory"
	"crm-analytics-be/pkg/agent/answer"
	"crm-analytics-be/pkg/agent/catalog"
	"crm-analytics-be/pkg/agent/navigation"
	"crm-analytics-be/pkg/agent/planner"
	"crm-analytics-be/pkg/agent/retriever"
	"crm-analytics-be/pkg/agent/router"
	"crm-analytics-be/pkg/agent/stream"
	"crm-analytics-be/pkg/events"
	"crm-analytics-be/pkg/llm"
	pktNats "crm-analytics-be/pkg/nats"

	"github.com/google/uuid"
)

type IAgentService interface {
	// Chat runs the pipeline and returns its live event stream. The
	// returned channel is closed after the terminal event.
	Chat(ctx context.Context, userId uuid.UUID, request *dto.ChatRequest) (<-chan stream.Event, error)
	// ChatBuffered runs the same pipeline but buffers the sequence
	// and returns only the answer or chat event. An error-terminated
	// run comes back as an AgentRunError instead.
	ChatBuffered(ctx context.Context, userId uuid.UUID, request *dto.ChatRequest) (*stream.Event, error)
	History(ctx context.Context, userId uuid.UUID, limit, offset int) ([]dto.ChatHistoryResponse, error)
}

type agentService struct {
	emitter    *stream.Emitter
	modeRouter *router.Router

	dailyLimit int
	usage      *memory.UsageRepository

	messageRepo      contract.AgentMessageRepository
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher

	logger      logger.ILogger
	agentLogger *log.Logger
}

func NewAgentService(
	llmProvider llm.LLMProvider,
	cat *catalog.Catalog,
	cfg *config.AgentConfig,
	messageRepo contract.AgentMessageRepository,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IAgentService {
	agentLogger := initAgentLogger()

	modeRouter := router.New(cfg.AnalysisTriggers)
	emitter := stream.NewEmitter(
		modeRouter,
		planner.New(llmProvider, cat, agentLogger),
		retriever.New(cat, agentLogger),
		answer.New(llmProvider, agentLogger),
		navigation.New(cat),
		agentLogger,
	)

	return &agentService{
		emitter:          emitter,
		modeRouter:       modeRouter,
		dailyLimit:       cfg.DailyChatLimit,
		usage:            memory.NewUsageRepository(),
		messageRepo:      messageRepo,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
		agentLogger:      agentLogger,
	}
}

func initAgentLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_agent.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-AGENT] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

func (as *agentService) Chat(ctx context.Context, userId uuid.UUID, request *dto.ChatRequest) (<-chan stream.Event, error) {
	if err := as.checkDailyLimit(userId); err != nil {
		return nil, err
	}

	requested, _ := router.ParseMode(request.Mode)
	mode := as.modeRouter.Resolve(request.Message, requested)

	src := as.emitter.Run(ctx, stream.Request{Message: request.Message, Mode: requested})
	out := make(chan stream.Event)

	go func() {
		defer close(out)
		run := newRunRecorder(mode)
		for ev := range src {
			run.observe(ev)
			select {
			case out <- ev:
			case <-ctx.Done():
				// Client is gone; drain src so the emitter can finish.
				for range src {
				}
				return
			}
		}
		as.finishRun(userId, request.Message, run)
	}()

	return out, nil
}

func (as *agentService) ChatBuffered(ctx context.Context, userId uuid.UUID, request *dto.ChatRequest) (*stream.Event, error) {
	if err := as.checkDailyLimit(userId); err != nil {
		return nil, err
	}

	requested, _ := router.ParseMode(request.Mode)
	mode := as.modeRouter.Resolve(request.Message, requested)

	all, terminal := as.emitter.RunBuffered(ctx, stream.Request{Message: request.Message, Mode: requested})

	run := newRunRecorder(mode)
	for _, ev := range all {
		run.observe(ev)
	}
	as.finishRun(userId, request.Message, run)

	if terminal.Type == stream.EventError {
		return nil, &dto.AgentRunError{Message: terminal.Content}
	}
	for i := range all {
		if all[i].Type == stream.EventAnswer || all[i].Type == stream.EventChat {
			return &all[i], nil
		}
	}
	// Cancelled before a response was produced.
	return nil, &dto.AgentRunError{Message: "request cancelled"}
}

func (as *agentService) History(ctx context.Context, userId uuid.UUID, limit, offset int) ([]dto.ChatHistoryResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	messages, err := as.messageRepo.FindByUserId(ctx, userId, limit, offset)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ChatHistoryResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, dto.ChatHistoryResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			Mode:      m.Mode,
			CreatedAt: m.CreatedAt,
		})
	}
	return responses, nil
}

func (as *agentService) checkDailyLimit(userId uuid.UUID) error {
	used := as.usage.Count(userId)
	if used >= as.dailyLimit {
		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Add(24 * time.Hour)
		return &dto.LimitExceededError{
			Limit:      as.dailyLimit,
			Used:       used,
			ResetAfter: midnight,
		}
	}
	as.usage.Increment(userId)
	return nil
}

// runRecorder watches one event sequence for the pieces the side
// effects need: the final response text, the planned products and how
// the run terminated.
type runRecorder struct {
	mode       router.Mode
	answer     string
	productIDs []string
	terminal   stream.EventType
}

func newRunRecorder(mode router.Mode) *runRecorder {
	return &runRecorder{mode: mode}
}

func (r *runRecorder) observe(ev stream.Event) {
	switch ev.Type {
	case stream.EventAnswer, stream.EventChat:
		r.answer = ev.Content
	case stream.EventPlan:
		// The payload type belongs to the stream package; a JSON
		// round-trip keeps this decoupled from its internals.
		raw, err := json.Marshal(ev.Data)
		if err != nil {
			return
		}
		var payload struct {
			Plan []struct {
				ProductID string `json:"productId"`
			} `json:"plan"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return
		}
		for _, item := range payload.Plan {
			r.productIDs = append(r.productIDs, item.ProductID)
		}
	case stream.EventError, stream.EventComplete:
		r.terminal = ev.Type
	}
}

// finishRun runs the post-stream side effects: transcript persistence
// via the bus and the analytics events. The request context is
// typically gone by now, so these run on their own deadline.
func (as *agentService) finishRun(userId uuid.UUID, question string, run *runRecorder) {
	if run.terminal == "" {
		// Cancelled mid-flight, nothing worth recording.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	transcript := dto.TranscriptMessage{
		UserId:   userId,
		Question: question,
		Answer:   run.answer,
		Mode:     string(run.mode),
		AskedAt:  time.Now(),
	}
	if payload, err := json.Marshal(transcript); err == nil {
		if err := as.publisherService.Publish(ctx, payload); err != nil {
			as.logger.Error("AgentService", "Failed to publish transcript", map[string]interface{}{"error": err.Error()})
		}
	}

	if as.eventPublisher != nil {
		evt := events.NewAgentChatCompleted(userId.String(), string(run.mode), string(run.terminal))
		if err := as.eventPublisher.Publish(ctx, evt); err != nil {
			as.logger.Warn("AgentService", "Failed to publish chat completed event", map[string]interface{}{"error": err.Error()})
		}

		if run.mode == router.ModeDeepAnalysis && len(run.productIDs) > 0 {
			evt := events.NewAgentAnalysisRun(userId.String(), run.productIDs)
			if err := as.eventPublisher.Publish(ctx, evt); err != nil {
				as.logger.Warn("AgentService", "Failed to publish analysis run event", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}
