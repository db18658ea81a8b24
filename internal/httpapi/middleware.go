package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/learnedge/learnedge/internal/apperr"
	"github.com/learnedge/learnedge/internal/auth"
	"github.com/learnedge/learnedge/internal/logger"
	"github.com/learnedge/learnedge/internal/store"
)

const (
	ctxUserID    = "userID"
	ctxRequestID = "requestID"

	headerRequestID = "X-Request-ID"
)

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequestID propagates an inbound X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(ctxRequestID),
		}
		if id, ok := c.Get(ctxUserID); ok {
			fields = append(fields, "user_id", id.(uuid.UUID).String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", headerRequestID},
		ExposeHeaders:    []string{headerRequestID},
		AllowCredentials: true,
	})
}

// RequireUser resolves the caller. A valid bearer token always wins; in
// guest mode a request without one is attributed to the guest identity.
func RequireUser(verifier TokenVerifier, guestMode bool, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if guestMode {
				c.Set(ctxUserID, store.GuestUserID)
				c.Next()
				return
			}
			respondError(c, log, apperr.Unauthorized("Missing bearer token"))
			return
		}

		if verifier == nil {
			respondError(c, log, apperr.Unauthorized("Invalid token"))
			return
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			respondError(c, log, err)
			return
		}
		id, err := claims.UserID()
		if err != nil {
			respondError(c, log, apperr.Unauthorized("Invalid token"))
			return
		}
		c.Set(ctxUserID, id)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// currentUser is only valid behind RequireUser.
func currentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(ctxUserID).(uuid.UUID)
}
