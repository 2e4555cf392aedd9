package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/khadijabh/cafe-store/internal/models"
	"go.uber.org/zap"
)

const (
	userContextKey = "userID"
	roleContextKey = "role"
)

// Authenticate validates the bearer token and resolves the caller's user id
// and role into the request context. Token issuance lives in the external
// auth service; this only verifies the HMAC signature and claims.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			respondError(c, http.StatusUnauthorized, "missing or malformed authorization header", nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(strings.TrimSpace(header[len(prefix):]), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			respondError(c, http.StatusUnauthorized, "invalid or expired token", nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			respondError(c, http.StatusUnauthorized, "invalid token claims", nil)
			c.Abort()
			return
		}

		userID, err := subjectID(claims)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "invalid subject claim", nil)
			c.Abort()
			return
		}

		role, _ := claims["role"].(string)

		c.Set(userContextKey, userID)
		c.Set(roleContextKey, role)
		c.Next()
	}
}

// subjectID accepts the "sub" claim as either a JSON number or a numeric
// string, which is how different issuers encode it.
func subjectID(claims jwt.MapClaims) (int64, error) {
	switch sub := claims["sub"].(type) {
	case float64:
		return int64(sub), nil
	case string:
		return strconv.ParseInt(sub, 10, 64)
	default:
		return 0, fmt.Errorf("missing sub claim")
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(roleContextKey) != models.RoleAdmin {
			respondError(c, http.StatusForbidden, "admin access required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userContextKey)
}

// RequestLogger emits one structured log line per request, levelled by
// status class.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}

		switch {
		case status >= 500:
			logger.Error("http_request", fields...)
		case status >= 400:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	}
}
