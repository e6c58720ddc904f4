package services

import (
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/models"
)

// Actor is the authenticated caller of an operation. A nil *Actor is anonymous.
type Actor struct {
	UserID uint
	Role   models.Role
}

type Resource string

const (
	ResourceMenu              Resource = "menu" // read-only browsing
	ResourceCategory          Resource = "category"
	ResourcePlat              Resource = "plat"
	ResourceTable             Resource = "table"
	ResourceStatistics        Resource = "statistics"
	ResourceUsers             Resource = "users"
	ResourceReservation       Resource = "reservation"
	ResourceReservationStatus Resource = "reservation_status"
	ResourceCart              Resource = "cart"
	ResourceNotification      Resource = "notification"
	ResourceNotificationSend  Resource = "notification_send"
	ResourceUserRole          Resource = "user_role"
	ResourceProfile           Resource = "profile"
)

// CanManage is the single role predicate: staff and admin may manage anything,
// a customer only what they own.
func CanManage(role models.Role, resourceOwnerID, currentUserID uint) bool {
	switch role {
	case models.RoleStaff, models.RoleAdmin:
		return true
	case models.RoleCustomer:
		return currentUserID != 0 && resourceOwnerID == currentUserID
	}
	return false
}

// Authorize returns nil when actor may act on resource owned by ownerID
// (0 for resources without an owner).
func Authorize(actor *Actor, resource Resource, ownerID uint) error {
	if resource == ResourceMenu {
		return nil
	}
	if actor == nil || actor.UserID == 0 {
		return apperror.Unauthenticated()
	}

	var allowed bool
	switch resource {
	case ResourceCategory, ResourcePlat, ResourceTable, ResourceStatistics,
		ResourceUsers, ResourceReservationStatus, ResourceNotificationSend:
		allowed = CanManage(actor.Role, 0, actor.UserID)
	case ResourceReservation:
		allowed = CanManage(actor.Role, ownerID, actor.UserID)
	case ResourceCart, ResourceNotification:
		allowed = actor.Role.Valid() && ownerID == actor.UserID
	case ResourceProfile:
		allowed = actor.Role == models.RoleAdmin || (actor.Role.Valid() && ownerID == actor.UserID)
	case ResourceUserRole:
		allowed = actor.Role == models.RoleAdmin
	}

	if !allowed {
		return apperror.Forbidden("you do not have permission to manage this %s", resource)
	}
	return nil
}

func (a *Actor) can(resource Resource, ownerID uint) bool {
	return Authorize(a, resource, ownerID) == nil
}

// Permissions is the command enablement a client derives from the current actor.
type Permissions struct {
	Authenticated         bool        `json:"authenticated"`
	Role                  models.Role `json:"role,omitempty"`
	CanBrowseMenu         bool        `json:"can_browse_menu"`
	CanManageMenu         bool        `json:"can_manage_menu"`
	CanManageTables       bool        `json:"can_manage_tables"`
	CanManageAllBookings  bool        `json:"can_manage_all_reservations"`
	CanChangeBookingState bool        `json:"can_change_reservation_status"`
	CanViewStatistics     bool        `json:"can_view_statistics"`
	CanSendNotifications  bool        `json:"can_send_notifications"`
	CanManageUserRoles    bool        `json:"can_manage_user_roles"`
	CanOrder              bool        `json:"can_order"`
}

func PermissionsFor(actor *Actor) Permissions {
	p := Permissions{CanBrowseMenu: true}
	if actor == nil || actor.UserID == 0 {
		return p
	}
	p.Authenticated = true
	p.Role = actor.Role
	p.CanManageMenu = actor.can(ResourceCategory, 0) && actor.can(ResourcePlat, 0)
	p.CanManageTables = actor.can(ResourceTable, 0)
	// a reservation owned by nobody is only manageable by staff/admin
	p.CanManageAllBookings = actor.can(ResourceReservation, 0)
	p.CanChangeBookingState = actor.can(ResourceReservationStatus, 0)
	p.CanViewStatistics = actor.can(ResourceStatistics, 0)
	p.CanSendNotifications = actor.can(ResourceNotificationSend, 0)
	p.CanManageUserRoles = actor.can(ResourceUserRole, 0)
	p.CanOrder = actor.can(ResourceCart, actor.UserID)
	return p
}
