package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/models"
)

func TestCanManage(t *testing.T) {
	cases := []struct {
		name    string
		role    models.Role
		owner   uint
		current uint
		want    bool
	}{
		{"staff any resource", models.RoleStaff, 9, 1, true},
		{"admin any resource", models.RoleAdmin, 0, 1, true},
		{"customer own resource", models.RoleCustomer, 5, 5, true},
		{"customer someone else's", models.RoleCustomer, 5, 6, false},
		{"customer unowned resource", models.RoleCustomer, 0, 6, false},
		{"customer without id", models.RoleCustomer, 0, 0, false},
		{"unknown role", models.Role("chef"), 1, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanManage(tc.role, tc.owner, tc.current))
		})
	}
}

func TestAuthorize(t *testing.T) {
	customer := &Actor{UserID: 5, Role: models.RoleCustomer}
	staff := &Actor{UserID: 2, Role: models.RoleStaff}
	admin := &Actor{UserID: 1, Role: models.RoleAdmin}

	// menu browsing is open to everyone
	assert.NoError(t, Authorize(nil, ResourceMenu, 0))

	err := Authorize(nil, ResourceTable, 0)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	for _, r := range []Resource{ResourceCategory, ResourcePlat, ResourceTable, ResourceStatistics, ResourceNotificationSend, ResourceReservationStatus} {
		assert.ErrorIs(t, Authorize(customer, r, 0), apperror.ErrAuthorization, r)
		assert.NoError(t, Authorize(staff, r, 0), r)
		assert.NoError(t, Authorize(admin, r, 0), r)
	}

	assert.NoError(t, Authorize(customer, ResourceReservation, 5))
	assert.Error(t, Authorize(customer, ResourceReservation, 6))
	assert.NoError(t, Authorize(staff, ResourceReservation, 6))

	// carts and notifications are personal, even for staff
	assert.NoError(t, Authorize(customer, ResourceCart, 5))
	assert.Error(t, Authorize(staff, ResourceCart, 5))
	assert.Error(t, Authorize(admin, ResourceNotification, 5))

	assert.NoError(t, Authorize(admin, ResourceProfile, 5))
	assert.Error(t, Authorize(staff, ResourceProfile, 5))

	assert.NoError(t, Authorize(admin, ResourceUserRole, 0))
	assert.Error(t, Authorize(staff, ResourceUserRole, 0))
}

func TestPermissionsFor(t *testing.T) {
	anon := PermissionsFor(nil)
	assert.True(t, anon.CanBrowseMenu)
	assert.False(t, anon.Authenticated)
	assert.False(t, anon.CanOrder)

	customer := PermissionsFor(&Actor{UserID: 5, Role: models.RoleCustomer})
	assert.True(t, customer.CanOrder)
	assert.False(t, customer.CanManageMenu)
	assert.False(t, customer.CanManageAllBookings)
	assert.False(t, customer.CanViewStatistics)

	staff := PermissionsFor(&Actor{UserID: 2, Role: models.RoleStaff})
	assert.True(t, staff.CanManageMenu)
	assert.True(t, staff.CanManageTables)
	assert.True(t, staff.CanChangeBookingState)
	assert.True(t, staff.CanViewStatistics)
	assert.False(t, staff.CanManageUserRoles)

	assert.True(t, PermissionsFor(&Actor{UserID: 1, Role: models.RoleAdmin}).CanManageUserRoles)
}
