package bootstrap

import (
	"context"
	"log"

	"ai-filesearch-be/internal/config"
	"ai-filesearch-be/internal/controller"
	"ai-filesearch-be/internal/handler"
	"ai-filesearch-be/internal/pkg/logger"
	"ai-filesearch-be/internal/repository/redisrepo"
	"ai-filesearch-be/internal/service"
	"ai-filesearch-be/internal/websocket"
	"ai-filesearch-be/pkg/analytics"
	"ai-filesearch-be/pkg/gemini"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	FileSearchController controller.IFileSearchController
	ChatController       controller.IChatController
	StorefrontController controller.IStorefrontController
	ExperimentController controller.IExperimentController
	AnalyticsController  controller.IAnalyticsController
	AdminController      controller.IAdminController

	// Background services (exposed for main.go to run)
	Forwarder analytics.IForwarder
	Poller    *service.OperationPoller

	// WebSockets
	ProgressHandler *handler.ProgressHandler
	WebSocketHub    *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
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

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/filesearch-ws.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// Gemini client
	geminiClient := gemini.NewClient(cfg.Keys.GoogleGemini, sysLogger,
		gemini.WithBaseURL(cfg.Gemini.BaseURL),
		gemini.WithUploadBaseURL(cfg.Gemini.UploadBaseURL),
		gemini.WithModel(cfg.Gemini.Model),
	)
	if !geminiClient.HasAPIKey() {
		log.Printf("[WARN] GEMINI_API_KEY not set, AI endpoints will reject requests")
	}

	// Analytics
	identity := analytics.NewIdentity()
	tracker := analytics.NewTracker(pubSub, identity, sysLogger)
	forwarder := analytics.NewForwarder(pubSub, cfg.Analytics.Endpoint, cfg.Keys.Amplitude, sysLogger)

	// Repositories
	chatHistoryRepo := redisrepo.NewChatHistoryRepository(rdb, sysLogger)
	cartRepo := redisrepo.NewCartRepository(rdb, sysLogger)

	// 3. Services
	poller := service.NewOperationPoller(geminiClient, cfg.FileSearch.PollInterval, cfg.FileSearch.MaxTransient, sysLogger)
	poller.SetOnUpdate(func(state service.TrackedOperation) {
		wsHub.BroadcastProgress(service.MapTrackedOperation(state))
	})
	poller.SetOnDone(func(state service.TrackedOperation) {
		if state.Error != "" {
			tracker.Track("File Upload Failed", map[string]interface{}{
				"operation": state.Name,
				"file_name": state.FileDisplayName,
				"error":     state.Error,
			})
			return
		}
		tracker.Track("File Upload Completed", map[string]interface{}{
			"operation": state.Name,
			"file_name": state.FileDisplayName,
		})
	})

	fileSearchService := service.NewFileSearchService(geminiClient, poller, chatHistoryRepo, tracker, sysLogger)
	chatService := service.NewChatService(geminiClient, chatHistoryRepo, tracker, sysLogger)
	storefrontService := service.NewStorefrontService(cartRepo, geminiClient, tracker)
	experimentService := service.NewExperimentService(tracker)

	// 4. Controllers
	return &Container{
		FileSearchController: controller.NewFileSearchController(fileSearchService),
		ChatController:       controller.NewChatController(chatService),
		StorefrontController: controller.NewStorefrontController(storefrontService),
		ExperimentController: controller.NewExperimentController(experimentService),
		AnalyticsController:  controller.NewAnalyticsController(tracker, identity),
		AdminController:      controller.NewAdminController(sysLogger),

		Forwarder: forwarder,
		Poller:    poller,

		ProgressHandler: handler.NewProgressHandler(wsHub, wsLogger),
		WebSocketHub:    wsHub,
	}
}
