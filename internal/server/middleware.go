package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/veilcrypt/licensed/internal/auth/domain"
	"github.com/veilcrypt/licensed/internal/auth/token"
)

const contextIdentityKey = "identity"

// AuthRequired resolves the bearer token into an Identity for downstream
// handlers. The core trusts the verified claims unconditionally.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity, err := s.tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextIdentityKey, identity)
		c.Next()
	}
}

// RequireAdmin is the single authorization predicate guarding the
// administration surface.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := identityFrom(c)
		if identity == nil || identity.Role != authdomain.RoleAdmin {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) *token.Identity {
	value, ok := c.Get(contextIdentityKey)
	if !ok {
		return nil
	}
	identity, ok := value.(*token.Identity)
	if !ok {
		return nil
	}
	return identity
}
