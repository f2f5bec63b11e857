package api

import (
	"net/http"
	"sync"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/d60-Lab/pinboard/internal/api/handler"
	"github.com/d60-Lab/pinboard/internal/api/middleware"
	"github.com/d60-Lab/pinboard/pkg/logger"
)

type Options struct {
	CORSOrigins []string
	RateRPS     float64
	RateBurst   int
	Sentry      bool
	// ServiceName 非空时挂载 otel 中间件
	ServiceName string
	Swagger     bool
}

var registerOnce sync.Once

func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
				logger.Fatal("register notblank validator failed", zap.Error(err))
			}
		}
	})
}

// NewRouter 组装中间件与全部路由
func NewRouter(h *handler.Handler, auth middleware.Authenticator, opts Options) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if opts.ServiceName != "" {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(middleware.RequestID(), middleware.AccessLog())
	if len(opts.CORSOrigins) > 0 {
		cc := cors.DefaultConfig()
		cc.AllowOrigins = opts.CORSOrigins
		cc.AddAllowHeaders("Authorization", middleware.RequestIDHeader)
		cc.AddExposeHeaders(middleware.RequestIDHeader)
		r.Use(cors.New(cc))
	}
	// 图片接口直接输出字节，不压缩
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`^/api/v1/images/`})))
	if opts.RateRPS > 0 {
		r.Use(middleware.RateLimit(opts.RateRPS, opts.RateBurst))
	}

	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", middleware.Auth(auth), h.Logout)

		v1.GET("/images/:id", h.Image)

		secured := v1.Group("", middleware.Auth(auth))

		users := secured.Group("/users")
		users.GET("/me", h.Me)
		users.PUT("/me/profile", h.UpdateProfile)
		users.GET("/me/boards", h.MyBoards)
		users.GET("/search", h.SearchUsers)
		users.GET("/:id", h.GetUser)

		boards := secured.Group("/boards")
		boards.POST("", h.CreateBoard)
		boards.GET("/:id", h.GetBoard)
		boards.PUT("/:id", h.UpdateBoard)
		boards.DELETE("/:id", h.DeleteBoard)

		pins := secured.Group("/pins")
		pins.POST("", h.UploadPin)
		pins.POST("/url", h.PinFromURL)
		pins.GET("/:id", h.GetPin)
		pins.DELETE("/:id", h.DeletePin)
		pins.POST("/:id/repin", h.Repin)
		pins.GET("/:id/comments", h.ListComments)
		pins.POST("/:id/comments", h.AddComment)
		pins.GET("/:id/can-comment", h.CanComment)

		secured.DELETE("/comments/:id", h.DeleteComment)
		secured.POST("/pictures/:id/like", h.Like)
		secured.DELETE("/pictures/:id/like", h.Unlike)

		friends := secured.Group("/friends")
		friends.GET("", h.ListFriends)
		friends.GET("/requests", h.ListFriendRequests)
		friends.GET("/:id/status", h.FriendStatus)
		friends.GET("/:id/boards", h.FriendBoards)
		friends.POST("/:id/request", h.SendFriendRequest)
		friends.POST("/:id/accept", h.AcceptFriendRequest)
		friends.POST("/:id/reject", h.RejectFriendRequest)
		friends.DELETE("/:id", h.RemoveFriend)

		secured.GET("/search", h.Search)

		streams := secured.Group("/streams")
		streams.POST("", h.CreateStream)
		streams.GET("", h.ListStreams)
		streams.GET("/:id", h.GetStream)
		streams.DELETE("/:id", h.DeleteStream)
		streams.POST("/:id/boards", h.AddStreamBoard)
		streams.DELETE("/:id/boards/:boardId", h.RemoveStreamBoard)
		streams.GET("/:id/eligible", h.EligibleBoards)
		streams.GET("/:id/feed", h.StreamFeed)
	}

	return r
}
