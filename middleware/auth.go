package middleware

import (
	"strings"

	"foodgram/helper"
	"foodgram/models"

	"github.com/gin-gonic/gin"
)

// TokenParser resolves a bearer token to the caller it was issued for.
type TokenParser interface {
	ParseToken(token string) (models.Identity, error)
}

// Authenticate resolves the caller from the Authorization header. A request
// without the header continues as anonymous; a malformed or invalid token is
// rejected with 401.
func Authenticate(parser TokenParser, h *helper.HTTPHelper) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			helper.SetIdentity(c, models.Anonymous())
			c.Next()
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			h.SendAppError(c, models.ErrUnauthorized.WithField("", "Bearer token required."))
			return
		}

		identity, err := parser.ParseToken(tokenString)
		if err != nil {
			h.SendAppError(c, err)
			return
		}

		helper.SetIdentity(c, identity)
		c.Set("user_id", identity.UserID)
		c.Next()
	}
}

// RequireAuth rejects anonymous callers.
func RequireAuth(h *helper.HTTPHelper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if helper.Identity(c).IsAnonymous() {
			h.SendAppError(c, models.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func RequireRole(h *helper.HTTPHelper, roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := helper.Identity(c)
		if identity.IsAnonymous() {
			h.SendAppError(c, models.ErrUnauthorized)
			return
		}
		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		h.SendAppError(c, models.ErrForbidden)
	}
}

// bearerToken accepts "Bearer <t>" and the "Token <t>" form older clients send.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
		return token, true
	}
	return "", false
}
