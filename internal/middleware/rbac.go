package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gac-api/internal/models"
	appErrors "github.com/noah-isme/gac-api/pkg/errors"
	"github.com/noah-isme/gac-api/pkg/response"
)

// SelfGrant is the pseudo-role that grants access when the :id path
// parameter matches the authenticated user's ID. It lets staff-scoped
// routes stay open to the student they belong to.
const SelfGrant = "SELF"

type accessPolicy struct {
	roles     map[models.UserRole]struct{}
	allowSelf bool
}

func newAccessPolicy(allowed []string) accessPolicy {
	policy := accessPolicy{roles: make(map[models.UserRole]struct{}, len(allowed))}
	for _, entry := range allowed {
		if entry == SelfGrant {
			policy.allowSelf = true
			continue
		}
		policy.roles[models.UserRole(entry)] = struct{}{}
	}
	return policy
}

func (p accessPolicy) permits(claims *models.JWTClaims, targetID string) bool {
	if _, ok := p.roles[claims.Role]; ok {
		return true
	}
	return p.allowSelf && targetID != "" && targetID == claims.UserID
}

// RBAC gates a route behind a set of roles, optionally extended with
// SelfGrant. The allow-list is parsed once at registration time.
func RBAC(allowed ...string) gin.HandlerFunc {
	policy := newAccessPolicy(allowed)

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if !policy.permits(claims, c.Param("id")) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRoles gates a route behind typed roles without the self grant.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, role := range roles {
		allowed[i] = string(role)
	}
	return RBAC(allowed...)
}
