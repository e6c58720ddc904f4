package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/services"
	"github.com/yeremiapane/newrestaurant/utils"
)

const (
	actorKey       = "actor"
	credentialsKey = "credentials"
)

// AuthMiddleware rejects requests without a valid, unrevoked bearer token.
func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			utils.RespondServiceError(c, apperror.Unauthenticated())
			c.Abort()
			return
		}

		creds, err := auth.Verify(c.Request.Context(), token)
		if err != nil {
			utils.RespondServiceError(c, err)
			c.Abort()
			return
		}

		setCredentials(c, creds)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is sent and lets
// anonymous requests through.
func OptionalAuth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if creds, err := auth.Verify(c.Request.Context(), token); err == nil {
				setCredentials(c, creds)
			}
		}
		c.Next()
	}
}

func setCredentials(c *gin.Context, creds *services.Credentials) {
	c.Set(credentialsKey, creds)
	c.Set(actorKey, creds.Actor)
	c.Set("user_id", creds.Actor.UserID)
	c.Set("role", string(creds.Actor.Role))
}

// bearerToken reads "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// ActorFrom returns the authenticated caller, or nil for anonymous requests.
func ActorFrom(c *gin.Context) *services.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(*services.Actor); ok {
			return actor
		}
	}
	return nil
}

func CredentialsFrom(c *gin.Context) *services.Credentials {
	if v, ok := c.Get(credentialsKey); ok {
		if creds, ok := v.(*services.Credentials); ok {
			return creds
		}
	}
	return nil
}

// MustActor is ActorFrom for handlers mounted behind AuthMiddleware.
func MustActor(c *gin.Context) (*services.Actor, bool) {
	actor := ActorFrom(c)
	if actor == nil {
		utils.RespondError(c, http.StatusUnauthorized, apperror.Unauthenticated())
		c.Abort()
		return nil, false
	}
	return actor, true
}
