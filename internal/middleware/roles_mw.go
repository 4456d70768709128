package middleware

import (
	"propelize/internal/apperr"
	"propelize/internal/model"

	"github.com/gin-gonic/gin"
)

const (
	MsgAuthenticationRequired = "authentication required"
	// The denial message never names the accepted roles.
	MsgInsufficientPermissions = "access denied: insufficient permissions"
)

// RequireRoles creates a middleware that admits only principals holding one
// of the given roles. It must run after Authenticate.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abort(c, apperr.MissingCredential(MsgAuthenticationRequired))
			return
		}

		if _, isAllowed := allowed[user.Role]; !isAllowed {
			abort(c, apperr.Forbidden(MsgInsufficientPermissions))
			return
		}

		c.Next()
	}
}

// AdminOnly checks if the user is an admin
func AdminOnly() gin.HandlerFunc {
	return RequireRoles(model.RoleAdmin)
}

// AnyRole admits every authenticated user
func AnyRole() gin.HandlerFunc {
	return RequireRoles(model.RoleAdmin, model.RoleUser)
}
