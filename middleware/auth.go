package middleware

import (
	"context"
	"strings"

	"restaurant-crm-api/apperr"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	accountIDKey = "accountID"
)

// AccessVerifier resolves an access token to an account id
type AccessVerifier interface {
	VerifyAccess(token string) (uint, error)
}

// AccountResolver confirms the account behind a token still exists
type AccountResolver interface {
	Exists(ctx context.Context, accountID uint) (bool, error)
}

// AuthRequired admits a request only with a valid access token for a live
// account. The accessToken cookie wins over the Authorization header.
func AuthRequired(tokens AccessVerifier, accounts AccountResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, err := tokens.VerifyAccess(bearerToken(c))
		if err != nil {
			Abort(c, err)
			return
		}
		ok, err := accounts.Exists(c.Request.Context(), accountID)
		if err != nil {
			Abort(c, apperr.Internal("Something went wrong while verifying access", err))
			return
		}
		if !ok {
			Abort(c, apperr.Unauthorized("Invalid access token"))
			return
		}
		c.Set(accountIDKey, accountID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return ""
}

// GetAccountID extracts the caller's account id set by AuthRequired
func GetAccountID(c *gin.Context) uint {
	val, ok := c.Get(accountIDKey)
	if !ok {
		return 0
	}
	id, _ := val.(uint)
	return id
}
