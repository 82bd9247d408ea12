package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	AccountIDKey            = "accountID"
	AccountRoleKey          = "accountRole"
	UsernameKey             = "username"
)

type AuthMiddleware struct {
	authService *service.AuthService
}

func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate validates the bearer JWT and stores the account identity in
// the gin context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		_, claims, err := m.authService.ValidateToken(fields[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token invalid or expired", "details": err.Error()})
			return
		}

		accountID, okID := claims["sub"].(string)
		role, okRole := claims["role"].(string)
		username, okName := claims["username"].(string)
		if !okID || !okRole || !okName {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid identity claims in token"})
			return
		}

		c.Set(AccountIDKey, accountID)
		c.Set(AccountRoleKey, role)
		c.Set(UsernameKey, username)
		c.Next()
	}
}

// AuthorizeRole allows only the listed roles past.
func (m *AuthMiddleware) AuthorizeRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get(AccountRoleKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied (missing role)"})
			return
		}
		role, ok := roleVal.(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied (invalid role)"})
			return
		}

		for _, required := range requiredRoles {
			if role == required {
				c.Next()
				return
			}
		}
		log.Printf("AuthorizeRole: role '%s' denied (required: %v)", role, requiredRoles)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied (insufficient role)"})
	}
}
