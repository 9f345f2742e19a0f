package middleware

import (
	"context"
	"net/http"
	"strings"

	"coursehub/internal/domain"
	"coursehub/internal/infrastructure/security"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	KeyUserID = "userId"
	KeyRole   = "role"
	KeyClaims = "claims"
)

type TokenVerifier interface {
	Verify(token string) (*security.Claims, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abort(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := verifier.Verify(parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyRole, claims.Role)
		c.Set(KeyClaims, claims)
		c.Next()
	}
}

// EducatorOnly admits callers whose token or stored profile carries the
// educator role.
func EducatorOnly(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(KeyRole) == domain.RoleEducator {
			c.Next()
			return
		}

		u, err := users.GetByID(c.Request.Context(), c.GetString(KeyUserID))
		if err == nil && u.IsEducator() {
			c.Next()
			return
		}
		abort(c, http.StatusForbidden, "Unauthorized Access")
	}
}

// ClaimsFrom returns the verified claims of the current request.
func ClaimsFrom(c *gin.Context) *security.Claims {
	if v, ok := c.Get(KeyClaims); ok {
		if claims, ok := v.(*security.Claims); ok {
			return claims
		}
	}
	return &security.Claims{UserID: c.GetString(KeyUserID)}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}
