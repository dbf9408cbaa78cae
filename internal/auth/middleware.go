package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CookieName is the cookie the web client stores its token in.
const CookieName = "auth-token"

const (
	ctxAccountID = "account_id"
	ctxRole      = "user_role"
)

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg, "kind": "unauthenticated"})
}

// tokenFromRequest prefers the Authorization header and falls back to the cookie.
func tokenFromRequest(c *gin.Context) (string, string) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			return "", "Invalid authorization header format"
		}
		token := strings.TrimSpace(parts[1])
		if token == "" {
			return "", "Token is empty"
		}
		return token, ""
	}
	if cookie, err := c.Cookie(CookieName); err == nil && cookie != "" {
		return cookie, ""
	}
	return "", "Authorization header required"
}

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := tokenFromRequest(c)
		if problem != "" {
			abort(c, http.StatusUnauthorized, problem)
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				abort(c, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, ErrInvalidTokenType):
				abort(c, http.StatusUnauthorized, "Access token required")
			default:
				abort(c, http.StatusUnauthorized, "Invalid or malformed token")
			}
			return
		}

		c.Set(ctxAccountID, claims.AccountID)
		c.Set(ctxRole, claims.Role)

		c.Next()
	}
}

func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			abort(c, http.StatusUnauthorized, "User role not found")
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			abort(c, http.StatusUnauthorized, "Invalid role type")
			return
		}

		if roleStr != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Insufficient permissions", "kind": "forbidden"})
			return
		}

		c.Next()
	}
}

// GetAccountID returns the authenticated ledger identity.
func GetAccountID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxAccountID)
	if !exists {
		return "", false
	}

	id, ok := v.(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}

// SetAccountID stores an identity on the context, for handler tests.
func SetAccountID(c *gin.Context, accountID string) {
	c.Set(ctxAccountID, accountID)
}
