package middleware

import (
	"context"
	"strings"

	"propelize/internal/apperr"
	"propelize/internal/model"
	"propelize/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthUserKey is the gin context key holding the authenticated *model.User.
const AuthUserKey = "authUser"

const (
	MsgAccessTokenRequired = "access token required"
	MsgInvalidToken        = "invalid or expired token"
	MsgUserNotFound        = "user not found"
)

// UserFinder resolves the principal named by a verified token.
type UserFinder interface {
	FindByID(ctx context.Context, id int) (*model.User, error)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate verifies the bearer access token and attaches the current user
// record to the request. The principal is re-read from the store on every
// request so deleted users and role changes take effect immediately.
func Authenticate(tokens *utils.TokenService, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, apperr.MissingCredential(MsgAccessTokenRequired))
			return
		}

		claims, err := tokens.VerifyAccessToken(tokenString)
		if err != nil {
			abort(c, apperr.InvalidToken(MsgInvalidToken))
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.ID)
		if err != nil {
			abort(c, apperr.Internal(err))
			return
		}
		if user == nil {
			abort(c, apperr.InvalidCredential(MsgUserNotFound))
			return
		}

		c.Set(AuthUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the principal attached by Authenticate.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(AuthUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
