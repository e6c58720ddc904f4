package services

import (
	"context"
	"sync"

	"github.com/yeremiapane/newrestaurant/events"
	"github.com/yeremiapane/newrestaurant/models"
)

type SessionChange struct {
	Event       string
	User        *models.User
	Permissions Permissions
}

// Session is a client-side authentication context. Components that depend on the
// current user subscribe to it instead of polling.
type Session struct {
	auth *AuthService
	hub  *events.Hub

	mu    sync.RWMutex
	user  *models.User
	login *LoginResult
	creds *Credentials
}

func NewSession(auth *AuthService) *Session {
	return &Session{auth: auth, hub: events.NewHub()}
}

func (s *Session) Subscribe(fn func(SessionChange)) (unsubscribe func()) {
	return s.hub.Subscribe(func(m events.Message) {
		change, _ := m.Data.(SessionChange)
		fn(change)
	}, events.EventUserLoggedIn, events.EventUserLoggedOut)
}

func (s *Session) Login(ctx context.Context, identifier, password string) error {
	res, err := s.auth.Login(ctx, identifier, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.user = res.User
	s.login = res
	s.creds = &Credentials{
		Actor:     &Actor{UserID: res.User.ID, Role: res.User.Role},
		TokenID:   res.TokenID,
		ExpiresAt: res.ExpiresAt,
	}
	change := SessionChange{Event: events.EventUserLoggedIn, User: res.User, Permissions: PermissionsFor(s.creds.Actor)}
	s.mu.Unlock()

	s.hub.Publish(events.Message{Event: change.Event, UserID: res.User.ID, Data: change})
	return nil
}

// Logout clears the session. Logging out twice is a no-op.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	creds := s.creds
	s.user, s.login, s.creds = nil, nil, nil
	s.mu.Unlock()

	if creds == nil {
		return nil
	}
	if err := s.auth.Logout(ctx, creds); err != nil {
		return err
	}

	change := SessionChange{Event: events.EventUserLoggedOut, Permissions: PermissionsFor(nil)}
	s.hub.Publish(events.Message{Event: change.Event, UserID: creds.Actor.UserID, Data: change})
	return nil
}

func (s *Session) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Actor returns nil when nobody is logged in.
func (s *Session) Actor() *Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return nil
	}
	a := *s.creds.Actor
	return &a
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.login == nil {
		return ""
	}
	return s.login.Token
}

func (s *Session) Permissions() Permissions {
	return PermissionsFor(s.Actor())
}
