package middleware

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey         = contextKey("userID")
	idempotencyCtxKey = contextKey("idempotencyKey")
)

// IdempotencyHeader is the request header carrying the caller's idempotency token.
const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if userID := c.GetString(string(userIDKey)); userID != "" {
		return userID, true
	}
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// IdempotencyKeyMiddleware reads the Idempotency-Key header and makes it available to handlers.
// Keys must be printable and at most 255 characters.
func IdempotencyKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength || strings.IndexFunc(key, func(r rune) bool { return !unicode.IsPrint(r) }) >= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key must be printable and at most 255 characters"})
			return
		}
		c.Set(string(idempotencyCtxKey), key)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), idempotencyCtxKey, key))
		c.Next()
	}
}

// GetIdempotencyKey returns the caller's idempotency token, or "" when none was sent.
func GetIdempotencyKey(c *gin.Context) string {
	if key := c.GetString(string(idempotencyCtxKey)); key != "" {
		return key
	}
	key, _ := c.Request.Context().Value(idempotencyCtxKey).(string)
	return key
}
