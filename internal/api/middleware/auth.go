package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsboard/opsboard/internal/core/auth"
)

const (
	ContextUserID   = "user_id"
	ContextTenantID = "tenant_id"
	ContextSession  = "session"
)

type AuthMiddleware struct {
	authService *auth.Service
}

func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := m.authService.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

// RequireTenant resolves the tenant from the path or the X-Tenant-ID header
// and initializes the actor's session for it. An actor with no membership in
// the tenant resolves to an anonymous session and is rejected.
func (m *AuthMiddleware) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantIDStr := c.Param("tenantId")
		if tenantIDStr == "" {
			tenantIDStr = c.GetHeader("X-Tenant-ID")
		}
		if tenantIDStr == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "tenant id required"})
			return
		}

		tenantID, err := uuid.Parse(tenantIDStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid tenant id"})
			return
		}

		userID, ok := GetUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		session := m.authService.NewSessionFor(userID, tenantID)
		if err := session.Initialize(c.Request.Context()); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		c.Set(ContextTenantID, tenantID)
		c.Set(ContextSession, session)
		c.Next()
	}
}

// RequirePermission gates a route on a single resource permission. Admins
// pass regardless of the permission list.
func (m *AuthMiddleware) RequirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no session"})
			return
		}
		if !session.HasPermission(resource, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}

// RequireAnyPermission passes if the actor holds the action on ANY of the
// given resources.
func (m *AuthMiddleware) RequireAnyPermission(resources []string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no session"})
			return
		}
		if !session.HasAnyPermission(resources, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok || !session.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	val, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	if id, ok := val.(uuid.UUID); ok {
		return id, true
	}
	return uuid.Nil, false
}

func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	val, exists := c.Get(ContextTenantID)
	if !exists {
		return uuid.Nil, false
	}
	if id, ok := val.(uuid.UUID); ok {
		return id, true
	}
	return uuid.Nil, false
}

func GetSession(c *gin.Context) (*auth.Session, bool) {
	val, exists := c.Get(ContextSession)
	if !exists {
		return nil, false
	}
	if s, ok := val.(*auth.Session); ok {
		return s, true
	}
	return nil, false
}
