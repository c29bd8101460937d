package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/constants"
	apierrors "github.com/yukikurage/civic-proposals-api/internal/errors"
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"gorm.io/gorm"
)

// AccountFinder is the account lookup the auth middleware needs
type AccountFinder interface {
	FindByID(id string) (*models.Account, error)
}

// Authenticator turns bearer tokens into actors backed by an existing account
type Authenticator struct {
	tokens   *auth.TokenManager
	revoker  auth.Revoker
	accounts AccountFinder
}

// NewAuthenticator creates a new Authenticator. A nil revoker skips the revocation check.
func NewAuthenticator(tokens *auth.TokenManager, revoker auth.Revoker, accounts AccountFinder) *Authenticator {
	return &Authenticator{tokens: tokens, revoker: revoker, accounts: accounts}
}

// RequireAuth resolves the bearer token into an actor or rejects the request with 401
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := a.resolveActor(c)
		if err != nil {
			a.reject(c, err)
			return
		}

		c.Set(constants.ContextKeyActor, actor)
		c.Next()
	}
}

// OptionalAuth attaches the actor when a valid token is present and lets anonymous requests through.
// A present but invalid token is still rejected.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := a.resolveActor(c)
		switch {
		case err == nil:
			c.Set(constants.ContextKeyActor, actor)
		case !errors.Is(err, auth.ErrMissingToken):
			a.reject(c, err)
			return
		}
		c.Next()
	}
}

// GetActor retrieves the authenticated caller from context
func GetActor(c *gin.Context) (*auth.Actor, bool) {
	v, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return nil, false
	}
	actor, ok := v.(*auth.Actor)
	return actor, ok && actor != nil
}

func (a *Authenticator) resolveActor(c *gin.Context) (*auth.Actor, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, auth.ErrMissingToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, auth.ErrInvalidToken
	}

	actor, err := a.tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}

	if a.revoker != nil {
		revoked, err := a.revoker.IsRevoked(c.Request.Context(), actor.TokenID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, auth.ErrRevokedToken
		}
	}

	// a deleted account, or one re-created under another kind, invalidates its tokens
	acc, err := a.accounts.FindByID(actor.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUnknownActor
		}
		return nil, err
	}
	if acc.Kind != actor.Role {
		return nil, auth.ErrUnknownActor
	}
	actor.Email = acc.Email

	return actor, nil
}

func (a *Authenticator) reject(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		apierrors.Unauthorized(c, "Authentication required")
	case errors.Is(err, auth.ErrRevokedToken):
		apierrors.Unauthorized(c, "Token has been revoked")
	case errors.Is(err, auth.ErrUnknownActor):
		apierrors.Unauthorized(c, "Account no longer exists")
	case errors.Is(err, auth.ErrInvalidToken):
		apierrors.Unauthorized(c, "Invalid or expired token")
	default:
		apierrors.InternalError(c, "Failed to resolve session", err)
	}
}
