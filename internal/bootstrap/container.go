package bootstrap

import (
	"context"
	"log"

	"crm-analytics-be/internal/config"
	"crm-analytics-be/internal/controller"
	"crm-analytics-be/internal/handler"
	"crm-analytics-be/internal/pkg/logger"
	"crm-analytics-be/internal/repository/implementation"
	"crm-analytics-be/internal/service"
	"crm-analytics-be/internal/websocket"
	"crm-analytics-be/pkg/llm/factory"
	"crm-analytics-be/pkg/warehouse"

	pktNats "crm-analytics-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const transcriptTopic = "agent.transcripts"

type Container struct {
	// Controllers
	AgentController     controller.IAgentController
	DashboardController controller.IDashboardController
	AdminController     controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Data Products
	warehouseRepo := warehouse.NewRepository(db, rdb)
	cat, err := warehouse.BuildCatalog(warehouseRepo)
	if err != nil {
		log.Fatalf("[FATAL] Failed to build data product catalog: %v", err)
	}

	// 4. Services
	messageRepo := implementation.NewAgentMessageRepository(db)
	publisherService := service.NewPublisherService(pubSub, transcriptTopic)
	consumerService := service.NewConsumerService(pubSub, transcriptTopic, messageRepo)

	agentService := service.NewAgentService(
		llmProvider,
		cat,
		&cfg.Agent,
		messageRepo,
		publisherService,
		natsPub,
		sysLogger,
	)
	dashboardService := service.NewDashboardService(cat)
	adminService := service.NewAdminService(sysLogger)

	// Notification worker: event bus -> websocket hub
	if natsSub != nil {
		notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
		go notifService.Start()
	}

	// Handler
	notifHandler := handler.NewNotificationHandler(wsHub, wsLogger)

	// 5. Controllers
	return &Container{
		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
		AgentController:     controller.NewAgentController(agentService),
		DashboardController: controller.NewDashboardController(dashboardService),
		AdminController:     controller.NewAdminController(adminService),

		ConsumerService: consumerService,
	}
}
