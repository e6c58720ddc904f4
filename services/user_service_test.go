package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/events"
	"github.com/yeremiapane/newrestaurant/models"
	"github.com/yeremiapane/newrestaurant/tokenstore"
	"github.com/yeremiapane/newrestaurant/utils"
)

func TestRegisterValidatesAndNormalizes(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user, err := svc.Register(ctx, nil, RegisterInput{Username: "  Alice ", Email: " Alice@Example.COM ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	cases := []struct {
		name string
		in   RegisterInput
		kind error
	}{
		{"short password", RegisterInput{Username: "bob", Email: "bob@example.com", Password: "12345"}, apperror.ErrValidation},
		{"bad email", RegisterInput{Username: "bob", Email: "not-an-email", Password: "secret1"}, apperror.ErrValidation},
		{"missing username", RegisterInput{Username: " ", Email: "bob@example.com", Password: "secret1"}, apperror.ErrValidation},
		{"duplicate username any case", RegisterInput{Username: "ALICE", Email: "other@example.com", Password: "secret1"}, apperror.ErrConflict},
		{"duplicate email any case", RegisterInput{Username: "bob", Email: "ALICE@example.com", Password: "secret1"}, apperror.ErrConflict},
		{"admin self-registration", RegisterInput{Username: "root", Email: "root@example.com", Password: "secret1", Role: models.RoleAdmin}, apperror.ErrAuthorization},
		{"staff self-registration", RegisterInput{Username: "cook", Email: "cook@example.com", Password: "secret1", Role: models.RoleStaff}, apperror.ErrAuthorization},
		{"unknown role", RegisterInput{Username: "x", Email: "x@example.com", Password: "secret1", Role: "chef"}, apperror.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, nil, tc.in)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestAdminCreatesStaffAndChangesRoles(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	admin, created, err := svc.EnsureAdmin(ctx, "admin", "admin@example.com", "adminpass")
	require.NoError(t, err)
	assert.True(t, created)
	_, created, err = svc.EnsureAdmin(ctx, "admin2", "admin2@example.com", "adminpass")
	require.NoError(t, err)
	assert.False(t, created)

	adminActor := &Actor{UserID: admin.ID, Role: models.RoleAdmin}
	staff, err := svc.Register(ctx, adminActor, RegisterInput{Username: "cook", Email: "cook@example.com", Password: "secret1", Role: models.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, staff.Role)

	staffActor := &Actor{UserID: staff.ID, Role: models.RoleStaff}
	_, err = svc.ChangeRole(ctx, staffActor, staff.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, apperror.ErrAuthorization)

	_, err = svc.ChangeRole(ctx, adminActor, admin.ID, models.RoleCustomer)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	demoted, err := svc.ChangeRole(ctx, adminActor, staff.ID, models.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, demoted.Role)

	users, err := svc.ListUsers(ctx, adminActor)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	alice, aliceActor := seedUser(t, db, "alice", models.RoleCustomer)
	_, bobActor := seedUser(t, db, "bob", models.RoleCustomer)

	_, err := svc.UpdateProfile(ctx, bobActor, alice.ID, ProfileInput{Username: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, apperror.ErrAuthorization)

	_, err = svc.UpdateProfile(ctx, aliceActor, alice.ID, ProfileInput{Username: "BOB", Email: "alice@example.com"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	// keeping one's own values is not a conflict
	same, err := svc.UpdateProfile(ctx, aliceActor, alice.ID, ProfileInput{Username: "alice", Email: "ALICE@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", same.Email)

	taken, err := svc.EmailTakenByAnother(ctx, "bob@example.com", alice.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	_, err = svc.GetUser(ctx, bobActor, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrAuthorization)
	got, err := svc.GetUser(ctx, aliceActor, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func newAuthFixture(t *testing.T) (*AuthService, *UserService, *events.Hub) {
	db := newTestDB(t)
	users := NewUserService(db)
	hub := events.NewHub()
	tokens := utils.NewTokenManager("test-secret", time.Hour, "test")
	return NewAuthService(users, tokens, tokenstore.NewMemoryStore(), hub), users, hub
}

func TestLoginVerifyLogout(t *testing.T) {
	auth, users, hub := newAuthFixture(t)
	var seen []string
	hub.Subscribe(func(m events.Message) { seen = append(seen, m.Event) })

	_, err := users.Register(ctx, nil, RegisterInput{Username: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = auth.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, err = auth.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	res, err := auth.Login(ctx, "ALICE", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	byEmail, err := auth.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, res.TokenID, byEmail.TokenID)

	creds, err := auth.Verify(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, creds.Actor.UserID)
	assert.Equal(t, models.RoleCustomer, creds.Actor.Role)

	require.NoError(t, auth.Logout(ctx, creds))
	_, err = auth.Verify(ctx, res.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	// the other token is still valid
	_, err = auth.Verify(ctx, byEmail.Token)
	assert.NoError(t, err)

	_, err = auth.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	assert.Equal(t, []string{events.EventUserLoggedIn, events.EventUserLoggedIn, events.EventUserLoggedOut}, seen)
}

func TestSessionNotifiesSubscribers(t *testing.T) {
	auth, users, _ := newAuthFixture(t)
	_, err := users.Register(ctx, nil, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	session := NewSession(auth)
	var changes []SessionChange
	unsubscribe := session.Subscribe(func(c SessionChange) { changes = append(changes, c) })

	assert.Nil(t, session.Actor())
	assert.False(t, session.Permissions().Authenticated)

	assert.Error(t, session.Login(ctx, "alice", "nope"))
	assert.Empty(t, changes)

	require.NoError(t, session.Login(ctx, "alice", "secret1"))
	require.Len(t, changes, 1)
	assert.Equal(t, events.EventUserLoggedIn, changes[0].Event)
	assert.Equal(t, "alice", changes[0].User.Username)
	assert.True(t, changes[0].Permissions.CanOrder)
	assert.NotEmpty(t, session.Token())
	assert.Equal(t, "alice", session.CurrentUser().Username)

	token := session.Token()
	require.NoError(t, session.Logout(ctx))
	require.Len(t, changes, 2)
	assert.Equal(t, events.EventUserLoggedOut, changes[1].Event)
	assert.False(t, changes[1].Permissions.Authenticated)
	assert.Nil(t, session.CurrentUser())

	_, err = auth.Verify(ctx, token)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	require.NoError(t, session.Logout(ctx))
	unsubscribe()
	require.NoError(t, session.Login(ctx, "alice", "secret1"))
	assert.Len(t, changes, 2)
}
