package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"

	RoleAdmin = "admin"

	ctxUserID   = "user_id"
	ctxUserRole = "user_role"
)

// RequestID gắn request id (lấy từ header hoặc sinh mới) vào response và context của logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// Authenticate tin header do auth gateway phía trước đặt vào. Thiếu user id thì 401.
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, c.GetHeader(HeaderUserRole))
		c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// RequireAdmin phải đứng sau Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func IsAdmin(c *gin.Context) bool {
	return c.GetString(ctxUserRole) == RoleAdmin
}

// AccessLog ghi một dòng log cho mỗi request.
func AccessLog(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		}
		l := log.WithContext(c.Request.Context())
		if c.Writer.Status() >= http.StatusInternalServerError {
			l.Error("http request", fields...)
			return
		}
		l.Info("http request", fields...)
	}
}
