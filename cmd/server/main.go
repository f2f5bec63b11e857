package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/pinboard/config"
	_ "github.com/d60-Lab/pinboard/docs"
	"github.com/d60-Lab/pinboard/internal/api"
	"github.com/d60-Lab/pinboard/internal/api/handler"
	"github.com/d60-Lab/pinboard/internal/repository"
	"github.com/d60-Lab/pinboard/internal/service"
	"github.com/d60-Lab/pinboard/pkg/database"
	"github.com/d60-Lab/pinboard/pkg/logger"
	"github.com/d60-Lab/pinboard/pkg/token"
	"github.com/d60-Lab/pinboard/pkg/tracing"
)

// @title           Pinboard API
// @version         1.0
// @description     图片收藏、画板、好友与订阅流服务
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			EnableTracing:    cfg.Sentry.TracesSampleRate > 0,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			logger.Fatal("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	shutdownTracer, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	store := repository.NewStore(db)
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)
	users := service.NewUserService(store, tokens, repository.NewSessionStore(rdb))

	h := handler.NewHandler(handler.Deps{
		Users:     users,
		Boards:    service.NewBoardService(store),
		Pins:      service.NewPinService(store),
		Comments:  service.NewCommentService(store),
		Likes:     service.NewLikeService(store),
		Friends:   service.NewFriendshipService(store),
		Search:    service.NewSearchService(store),
		Streams:   service.NewStreamService(store),
		Fetcher:   service.NewImageFetcher(cfg.Fetch.Timeout, cfg.Fetch.MaxBytes),
		MaxUpload: cfg.Server.MaxUploadBytes,
	})

	gin.SetMode(cfg.Server.Mode)
	opts := api.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		RateRPS:     cfg.RateLimit.RPS,
		RateBurst:   cfg.RateLimit.Burst,
		Sentry:      cfg.Sentry.DSN != "",
		Swagger:     cfg.Server.Mode != gin.ReleaseMode,
	}
	if cfg.Tracing.Enabled {
		opts.ServiceName = cfg.Tracing.ServiceName
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(h, users, opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer shutdown", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		logger.Error("redis close", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		logger.Error("database close", zap.Error(err))
	}
}
