package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/pinboard/internal/api/middleware"
	"github.com/d60-Lab/pinboard/internal/service"
	"github.com/d60-Lab/pinboard/pkg/response"
)

// Handler 汇总各业务服务，路由方法分布在同包的各个文件中
type Handler struct {
	users     service.UserService
	boards    service.BoardService
	pins      service.PinService
	comments  service.CommentService
	likes     service.LikeService
	friends   service.FriendshipService
	search    service.SearchService
	streams   service.StreamService
	fetcher   service.ImageFetcher
	maxUpload int64
}

type Deps struct {
	Users     service.UserService
	Boards    service.BoardService
	Pins      service.PinService
	Comments  service.CommentService
	Likes     service.LikeService
	Friends   service.FriendshipService
	Search    service.SearchService
	Streams   service.StreamService
	Fetcher   service.ImageFetcher
	MaxUpload int64
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		users:     d.Users,
		boards:    d.Boards,
		pins:      d.Pins,
		comments:  d.Comments,
		likes:     d.Likes,
		friends:   d.Friends,
		search:    d.Search,
		streams:   d.Streams,
		fetcher:   d.Fetcher,
		maxUpload: d.MaxUpload,
	}
}

// pathID 解析路径中的数字 ID，失败时已写出 400
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// currentUser 由 Auth 中间件注入
func currentUser(c *gin.Context) (int64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
	}
	return id, ok
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}
