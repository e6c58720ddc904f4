package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/newrestaurant/middlewares"
	"github.com/yeremiapane/newrestaurant/services"
	"github.com/yeremiapane/newrestaurant/utils"
)

type NotificationController struct {
	Notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{Notifications: notifications}
}

// GetAllNotifications lists the caller's unread notifications, or all with ?all=true.
func (nc *NotificationController) GetAllNotifications(c *gin.Context) {
	actor, ok := middlewares.MustActor(c)
	if !ok {
		return
	}
	includeRead := c.Query("all") == "true"
	notifs, err := nc.Notifications.ListNotifications(c.Request.Context(), actor, actor.UserID, includeRead)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications", notifs)
}

func (nc *NotificationController) GetUnreadCount(c *gin.Context) {
	actor, ok := middlewares.MustActor(c)
	if !ok {
		return
	}
	count, err := nc.Notifications.UnreadCount(c.Request.Context(), actor, actor.UserID)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unread notifications", gin.H{"unread": count})
}

// CreateNotification lets staff notify a specific user.
func (nc *NotificationController) CreateNotification(c *gin.Context) {
	var body services.NotificationInput
	if !bindJSON(c, &body) {
		return
	}
	notif, err := nc.Notifications.SendNotification(c.Request.Context(), middlewares.ActorFrom(c), body)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Notification created", notif)
}

func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	id, ok := paramID(c, "notif_id")
	if !ok {
		return
	}
	notif, err := nc.Notifications.MarkAsRead(c.Request.Context(), middlewares.ActorFrom(c), id)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification marked as read", notif)
}

func (nc *NotificationController) MarkAllAsRead(c *gin.Context) {
	actor, ok := middlewares.MustActor(c)
	if !ok {
		return
	}
	n, err := nc.Notifications.MarkAllAsRead(c.Request.Context(), actor, actor.UserID)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notifications marked as read", gin.H{"updated": n})
}
