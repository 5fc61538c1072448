package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"pgfinder_chat_session/internal/session/app"
	"pgfinder_chat_session/internal/session/domain"
	"pgfinder_chat_session/internal/session/repository"
	"pgfinder_chat_session/internal/session/router"
	"pgfinder_chat_session/pkg/config"
	"pgfinder_chat_session/pkg/database"
	"pgfinder_chat_session/pkg/logger"
	"pgfinder_chat_session/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatSession, config.EnvConfig.ChatSessionLogPath)
	cfg := config.LoadConfig[config.ChatSession](config.EnvConfig.ChatSession, config.EnvConfig.ChatSessionYAMLPath)

	ctx := context.Background()

	// 1. 建立 Redis 連線（session record）
	masterName, sentinel := config.GetRedisSetting()
	redisRepo, err := database.NewRedisRepository[domain.SessionRecord](masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}
	sessionRepo := repository.NewRedisSessionRepository(redisRepo, cfg.Session.Key, cfg.Session.TTL)

	// 2. 解析 session 身分，匿名 session 沒有聊天能力
	resolver := app.NewIdentityResolver(sessionRepo)
	identity, ok := resolver.Resolve(ctx)
	if !ok {
		logger.Log.Fatal("anonymous session, chat capability disabled",
			zap.String("sessionKey", cfg.Session.Key))
	}
	logger.Log.Info("session identity resolved",
		zap.String("userID", identity.UserID), zap.String("role", string(identity.Role)))

	record, err := sessionRepo.Load(ctx)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("load session record err : %v", err))
	}

	// 3. 初始化 Repository
	backend := repository.NewRestBackendAPI(cfg.Backend.BaseURL, record.AccessToken, cfg.Backend.Timeout)
	channel := repository.NewWebsocketChannel(cfg.Backend.SocketURL)

	// 4. 初始化 Store 並接上 realtime 事件
	store := app.NewConversationStore(identity, backend, channel, sessionRepo)
	channel.OnMessageReceived(store.Ingest)
	channel.OnPresenceUpdate(store.ReplacePresence)

	// 連線失敗不重試，降級為 REST-only
	if err := channel.Connect(ctx, identity); err != nil {
		logger.Log.Warn("realtime channel connect failed, running REST-only", zap.Error(err))
	}
	defer channel.Close()

	// 5. 初始抓取 + 還原上次的選取
	if err := store.LoadConversations(ctx); err != nil {
		logger.Log.Warn("initial conversation load failed", zap.Error(err))
	}
	picker := app.NewPickerUseCase(backend, store, sessionRepo)
	picker.RestoreSelection(ctx)

	// 6. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatSessionLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	guard := middlewares.SessionAuth(record.AccessToken, identity.UserID, string(identity.Role))
	router.RegisterRoutes(r, guard,
		app.NewSurfaceHandler(store, picker),
		app.NewSurfaceWebsocketHandler(store))

	port := ":" + cfg.Port
	log.Printf("Chat Session listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
