package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/pinboard/pkg/logger"
	"github.com/d60-Lab/pinboard/pkg/response"
	"github.com/d60-Lab/pinboard/pkg/token"
)

const (
	ctxUserID = "userID"
	ctxClaims = "claims"
)

// Authenticator 校验 token 并检查是否已注销
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*token.Claims, error)
}

// Auth 要求请求携带有效的 Bearer token
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, "authorization header is required")
			c.Abort()
			return
		}
		claims, err := auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			logger.Debug("authentication rejected", zap.Error(err))
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func bearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// UserID 取当前登录用户，未经过 Auth 时返回 false
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func Claims(c *gin.Context) (*token.Claims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	cl, ok := v.(*token.Claims)
	return cl, ok
}
