package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/aironrush/assistant/internal/ai"
	"github.com/aironrush/assistant/internal/chat"
	"github.com/aironrush/assistant/internal/config"
	"github.com/aironrush/assistant/internal/db"
	"github.com/aironrush/assistant/internal/httpapi"
	"github.com/aironrush/assistant/internal/store/rabbitmq"
	"github.com/aironrush/assistant/internal/store/redisstore"
	"github.com/aironrush/assistant/internal/tasks"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer logger.Sync()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}

	repo := chat.NewRepo(gdb)

	// Provider registry (routed by AI_PROVIDER, model comes per request)
	reg := ai.NewRegistry()
	reg.Register("openai", func(ctx context.Context, model string) (ai.Provider, error) {
		m := model
		if m == "" {
			m = cfg.OpenAIModel
		}
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, m), nil
	})
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		m := model
		if m == "" {
			m = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})

	// Background persistence queue: broker-backed when RABBIT_URL is set,
	// in-process otherwise.
	handler := chat.NewTaskHandler(repo, logger)
	var queue tasks.Queue
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			logger.Fatal("connect rabbitmq", zap.Error(err))
		}
		queue = pub
		logger.Info("background persistence via rabbitmq", zap.String("queue", cfg.RabbitQueue))
	} else {
		queue = tasks.NewRunner(handler, cfg.TaskWorkers, 256, logger)
		logger.Info("background persistence in-process", zap.Int("workers", cfg.TaskWorkers))
	}

	var rds *redisstore.Store
	if cfg.RedisAddr != "" {
		rds = redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rds.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, rate limiting degrades open", zap.Error(err))
		}
		cancel()
	}

	svc := chat.NewService(repo, reg, cfg.AIProvider, queue, cfg.HistoryWindow, logger)
	router := httpapi.NewRouter(svc, cfg, rds, logger)

	srv := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     router,
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}

	// drain queued persistence tasks before exiting
	if err := queue.Close(); err != nil {
		logger.Warn("close task queue", zap.Error(err))
	}
	if rds != nil {
		_ = rds.Close()
	}

	logger.Info("server exited")
}
