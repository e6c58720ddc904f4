package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/events"
	"github.com/yeremiapane/newrestaurant/models"
)

func TestTableNumbersAreUniqueIgnoringCase(t *testing.T) {
	db := newTestDB(t)
	_, staff := seedUser(t, db, "staff", models.RoleStaff)
	svc := NewTableService(db, events.NewHub())

	a1, err := svc.AddTable(ctx, staff, TableInput{TableNumber: " A1 ", Capacity: 2})
	require.NoError(t, err)
	assert.Equal(t, "A1", a1.TableNumber)

	_, err = svc.AddTable(ctx, staff, TableInput{TableNumber: "a1", Capacity: 4})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	b1, err := svc.AddTable(ctx, staff, TableInput{TableNumber: "B1", Capacity: 4})
	require.NoError(t, err)

	_, err = svc.UpdateTable(ctx, staff, b1.ID, TableInput{TableNumber: "A1", Capacity: 4})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	renamed, err := svc.UpdateTable(ctx, staff, a1.ID, TableInput{TableNumber: "a1", Capacity: 6})
	require.NoError(t, err)
	assert.Equal(t, 6, renamed.Capacity)

	_, err = svc.AddTable(ctx, staff, TableInput{TableNumber: "C1", Capacity: 0})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = svc.AddTable(ctx, staff, TableInput{TableNumber: "  ", Capacity: 2})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	tables, err := svc.ListTables(ctx, staff)
	require.NoError(t, err)
	numbers := make([]string, 0, len(tables))
	for _, tb := range tables {
		numbers = append(numbers, tb.TableNumber)
	}
	assert.ElementsMatch(t, []string{"a1", "B1"}, numbers)
}

func TestOnlyStaffManageTables(t *testing.T) {
	db := newTestDB(t)
	_, staff := seedUser(t, db, "staff", models.RoleStaff)
	_, customer := seedUser(t, db, "alice", models.RoleCustomer)
	svc := NewTableService(db, events.NewHub())
	table := seedTable(t, db, "T1")

	_, err := svc.UpdateTable(ctx, customer, table.ID, TableInput{TableNumber: "T9", Capacity: 2})
	assert.ErrorIs(t, err, apperror.ErrAuthorization)

	updated, err := svc.UpdateTable(ctx, staff, table.ID, TableInput{TableNumber: "T9", Capacity: 2})
	require.NoError(t, err)
	assert.Equal(t, "T9", updated.TableNumber)

	_, err = svc.AddTable(ctx, customer, TableInput{TableNumber: "X", Capacity: 2})
	assert.ErrorIs(t, err, apperror.ErrAuthorization)
	assert.ErrorIs(t, svc.DeleteTable(ctx, customer, table.ID), apperror.ErrAuthorization)

	_, err = svc.ListTables(ctx, nil)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, err = svc.ListTables(ctx, customer)
	assert.NoError(t, err)
}

func TestDeleteTableBlockedByUpcomingReservation(t *testing.T) {
	db := newTestDB(t)
	user, staff := seedUser(t, db, "staff", models.RoleStaff)
	svc := NewTableService(db, events.NewHub())
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	busy := seedTable(t, db, "T1")
	require.NoError(t, db.Create(&models.Reservation{
		TableID: busy.ID, UserID: user.ID, TimeStart: at(13, 0), TimeEnd: at(14, 0), Status: models.ReservationConfirmed,
	}).Error)
	assert.ErrorIs(t, svc.DeleteTable(ctx, staff, busy.ID), apperror.ErrConflict)

	quiet := seedTable(t, db, "T2")
	require.NoError(t, db.Create(&models.Reservation{
		TableID: quiet.ID, UserID: user.ID, TimeStart: at(9, 0), TimeEnd: at(10, 0), Status: models.ReservationCompleted,
	}).Error)
	require.NoError(t, db.Create(&models.Reservation{
		TableID: quiet.ID, UserID: user.ID, TimeStart: at(15, 0), TimeEnd: at(16, 0), Status: models.ReservationCancelled,
	}).Error)
	require.NoError(t, svc.DeleteTable(ctx, staff, quiet.ID))

	var left int64
	require.NoError(t, db.Model(&models.Reservation{}).Where("table_id = ?", quiet.ID).Count(&left).Error)
	assert.Zero(t, left)

	assert.ErrorIs(t, svc.DeleteTable(ctx, staff, quiet.ID), apperror.ErrNotFound)
}
