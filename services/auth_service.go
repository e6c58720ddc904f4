package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/events"
	"github.com/yeremiapane/newrestaurant/models"
	"github.com/yeremiapane/newrestaurant/tokenstore"
	"github.com/yeremiapane/newrestaurant/utils"
)

type LoginResult struct {
	Token     string       `json:"token"`
	TokenID   string       `json:"-"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Credentials identify a verified access token.
type Credentials struct {
	Actor     *Actor
	TokenID   string
	ExpiresAt time.Time
}

type AuthService struct {
	users  *UserService
	tokens *utils.TokenManager
	store  tokenstore.Store
	hub    *events.Hub
}

func NewAuthService(users *UserService, tokens *utils.TokenManager, store tokenstore.Store, hub *events.Hub) *AuthService {
	return &AuthService{users: users, tokens: tokens, store: store, hub: hub}
}

func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	user, err := s.users.Authenticate(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthenticated) {
			utils.InfoLogger.WithField("identifier", identifier).Warn("Failed login attempt")
		}
		return nil, err
	}

	token, claims, err := s.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperror.Storage("failed to issue token", err)
	}

	events.Emit(s.hub, events.EventUserLoggedIn, user.ID, user)
	utils.InfoLogger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User logged in")

	return &LoginResult{
		Token:     token,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}

// Verify parses the token, rejects revoked ones and reloads the user so role
// changes apply without waiting for the token to expire.
func (s *AuthService) Verify(ctx context.Context, token string) (*Credentials, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, &apperror.Error{Kind: apperror.ErrUnauthenticated, Message: "invalid or expired token"}
	}

	revoked, err := s.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperror.Storage("failed to check token revocation", err)
	}
	if revoked {
		return nil, &apperror.Error{Kind: apperror.ErrUnauthenticated, Message: "token has been revoked"}
	}

	user, err := s.users.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, &apperror.Error{Kind: apperror.ErrUnauthenticated, Message: "user no longer exists"}
	}
	if err != nil {
		return nil, err
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &Credentials{
		Actor:     &Actor{UserID: user.ID, Role: user.Role},
		TokenID:   claims.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout revokes the token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, creds *Credentials) error {
	if creds == nil || creds.Actor == nil {
		return apperror.Unauthenticated()
	}
	ttl := time.Until(creds.ExpiresAt)
	if ttl <= 0 {
		ttl = s.tokens.TTL()
	}
	if err := s.store.Revoke(ctx, creds.TokenID, ttl); err != nil {
		return apperror.Storage("failed to revoke token", err)
	}

	events.Emit(s.hub, events.EventUserLoggedOut, creds.Actor.UserID, nil)
	utils.InfoLogger.WithField("user_id", creds.Actor.UserID).Info("User logged out")
	return nil
}
