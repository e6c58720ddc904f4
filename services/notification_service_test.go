package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/events"
	"github.com/yeremiapane/newrestaurant/models"
)

func TestNotificationLedger(t *testing.T) {
	db := newTestDB(t)
	_, staff := seedUser(t, db, "staff", models.RoleStaff)
	_, alice := seedUser(t, db, "alice", models.RoleCustomer)
	_, bob := seedUser(t, db, "bob", models.RoleCustomer)
	svc := NewNotificationService(db, events.NewHub())

	_, err := svc.SendNotification(ctx, alice, NotificationInput{UserID: bob.UserID, Title: "Hi"})
	assert.ErrorIs(t, err, apperror.ErrAuthorization)
	_, err = svc.SendNotification(ctx, staff, NotificationInput{UserID: alice.UserID, Title: " "})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = svc.SendNotification(ctx, staff, NotificationInput{UserID: 999, Title: "Hi"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	first, err := svc.SendNotification(ctx, staff, NotificationInput{UserID: alice.UserID, Title: "Welcome", Message: "Table ready"})
	require.NoError(t, err)
	assert.False(t, first.IsRead)
	second, err := svc.AddNotification(ctx, NotificationInput{UserID: alice.UserID, Title: "Promo"})
	require.NoError(t, err)

	unread, err := svc.ListNotifications(ctx, alice, alice.UserID, false)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, second.ID, unread[0].ID)

	count, err := svc.UnreadCount(ctx, alice, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = svc.ListNotifications(ctx, bob, alice.UserID, true)
	assert.ErrorIs(t, err, apperror.ErrAuthorization)
	_, err = svc.MarkAsRead(ctx, bob, first.ID)
	assert.ErrorIs(t, err, apperror.ErrAuthorization)

	read, err := svc.MarkAsRead(ctx, alice, first.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	_, err = svc.MarkAsRead(ctx, alice, first.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
	_, err = svc.MarkAsRead(ctx, alice, 4242)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	unread, err = svc.ListNotifications(ctx, alice, alice.UserID, false)
	require.NoError(t, err)
	assert.Len(t, unread, 1)
	all, err := svc.ListNotifications(ctx, alice, alice.UserID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	flipped, err := svc.MarkAllAsRead(ctx, alice, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), flipped)
	flipped, err = svc.MarkAllAsRead(ctx, alice, alice.UserID)
	require.NoError(t, err)
	assert.Zero(t, flipped)
}

func TestNotificationsFollowDomainEvents(t *testing.T) {
	db := newTestDB(t)
	hub := events.NewHub()
	_, staff := seedUser(t, db, "staff", models.RoleStaff)
	_, alice := seedUser(t, db, "alice", models.RoleCustomer)
	table := seedTable(t, db, "T1")
	plat := seedPlat(t, db, "Soup", 4.5)

	notifications := NewNotificationService(db, hub)
	unsubscribe := notifications.SubscribeTo(hub, "$")
	defer unsubscribe()

	reservations := NewReservationService(db, hub)
	carts := NewCartService(db, hub)

	r, err := reservations.AddReservation(ctx, alice, ReservationInput{TableID: table.ID, Start: at(19, 0), End: at(21, 0)})
	require.NoError(t, err)

	// the owner's own edits do not notify
	_, err = reservations.UpdateReservation(ctx, alice, r.ID, ReservationInput{Start: at(19, 30), End: at(21, 0)})
	require.NoError(t, err)
	// neither does a staff edit that keeps the status
	_, err = reservations.UpdateReservation(ctx, staff, r.ID, ReservationInput{Start: at(19, 30), End: at(21, 30)})
	require.NoError(t, err)
	_, err = reservations.UpdateReservation(ctx, staff, r.ID, ReservationInput{Start: at(19, 30), End: at(21, 30), Status: models.ReservationConfirmed})
	require.NoError(t, err)

	cart, err := carts.AddToActiveCart(ctx, alice, alice.UserID, plat.ID, 2)
	require.NoError(t, err)
	_, err = carts.MarkAsOrdered(ctx, alice, cart.ID)
	require.NoError(t, err)

	require.NoError(t, reservations.DeleteReservation(ctx, staff, r.ID))

	list, err := notifications.ListNotifications(ctx, alice, alice.UserID, true)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Reservation removed", list[0].Title)
	assert.Equal(t, "Order placed", list[1].Title)
	assert.Contains(t, list[1].Message, "$9.00")
	assert.Equal(t, "Reservation confirmed", list[2].Title)
}
