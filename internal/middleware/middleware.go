package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"techfix-backend/internal/ratelimit"
	"techfix-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthCookie is the fallback token location for browser sessions that
// do not send an Authorization header.
const AuthCookie = "techfix_token"

// ClientKey identifies the caller for rate limiting: first non-empty
// of X-Forwarded-For (first hop), X-Real-IP, else "unknown". All
// anonymous traffic without either header shares one budget.
func ClientKey(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			fwd = fwd[:idx]
		}
		if fwd = strings.TrimSpace(fwd); fwd != "" {
			return fwd
		}
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	return "unknown"
}

// RateLimitMiddleware applies the general fixed-window limit and
// attaches X-RateLimit-* headers to every response.
func RateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := limiter.Check(ClientKey(c), time.Now())

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Max()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			c.Header("X-RateLimit-Reset", res.ResetAt.UTC().Format(time.RFC3339))
			c.String(http.StatusTooManyRequests, "Too Many Requests")
			c.Abort()
			return
		}

		c.Next()
	}
}

// TicketRateLimitMiddleware guards the public ticket form with its own
// short window so the general budget is not enough to spam tickets.
func TicketRateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := limiter.Check(ClientKey(c), time.Now())
		if !res.Allowed {
			c.Header("X-RateLimit-Reset", res.ResetAt.UTC().Format(time.RFC3339))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "demasiados tickets enviados, intente nuevamente en un minuto",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AuthMiddleware validates the JWT from the Authorization header or
// the session cookie and enforces the allowed roles.
func AuthMiddleware(authService *services.AuthService, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			if cookie, err := c.Cookie(AuthCookie); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		if len(roles) > 0 {
			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		c.Set("token", tokenString)

		c.Next()
	}
}

// ValidationMiddleware rejects write requests without a JSON body.
func ValidationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			contentType := c.GetHeader("Content-Type")
			if !strings.Contains(contentType, "application/json") {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Content-Type must be application/json"})
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
