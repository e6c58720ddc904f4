package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/events"
	"github.com/yeremiapane/newrestaurant/models"
	"github.com/yeremiapane/newrestaurant/repository"
	"github.com/yeremiapane/newrestaurant/utils"
	"gorm.io/gorm"
)

type NotificationInput struct {
	UserID  uint   `json:"user_id" validate:"required"`
	Title   string `json:"title" validate:"required,max=100"`
	Message string `json:"message"`
}

// NotificationService is an append-only ledger; the read flag is the only mutation.
type NotificationService struct {
	notifications *repository.Repository[models.Notification]
	users         *repository.Repository[models.User]
	hub           *events.Hub
	now           func() time.Time
}

func NewNotificationService(db *gorm.DB, hub *events.Hub) *NotificationService {
	return &NotificationService{
		notifications: repository.New[models.Notification](db, "notification"),
		users:         repository.New[models.User](db, "user"),
		hub:           hub,
		now:           time.Now,
	}
}

// AddNotification appends an unread notification for the user.
func (s *NotificationService) AddNotification(ctx context.Context, in NotificationInput) (*models.Notification, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	n := models.Notification{
		UserID:  in.UserID,
		Title:   in.Title,
		Message: in.Message,
		SentAt:  s.now().UTC(),
		IsRead:  false,
	}
	if err := s.notifications.Create(ctx, &n); err != nil {
		return nil, err
	}

	events.Emit(s.hub, events.EventNotificationCreated, n.UserID, n)
	utils.InfoLogger.WithFields(logrus.Fields{"notification_id": n.ID, "user_id": n.UserID}).Info("Notification created")
	return &n, nil
}

// SendNotification lets staff notify a user directly.
func (s *NotificationService) SendNotification(ctx context.Context, actor *Actor, in NotificationInput) (*models.Notification, error) {
	if err := Authorize(actor, ResourceNotificationSend, 0); err != nil {
		return nil, err
	}
	return s.AddNotification(ctx, in)
}

// ListNotifications returns unread notifications, or all with includeRead, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, actor *Actor, userID uint, includeRead bool) ([]models.Notification, error) {
	if err := Authorize(actor, ResourceNotification, userID); err != nil {
		return nil, err
	}
	scopes := []repository.Scope{
		repository.Where("user_id = ?", userID),
		repository.Order("sent_at DESC, id DESC"),
	}
	if !includeRead {
		scopes = append(scopes, repository.Where("is_read = ?", false))
	}
	return s.notifications.Find(ctx, scopes...)
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor *Actor, userID uint) (int64, error) {
	if err := Authorize(actor, ResourceNotification, userID); err != nil {
		return 0, err
	}
	return s.notifications.Count(ctx, repository.Where("user_id = ? AND is_read = ?", userID, false))
}

// MarkAsRead fails with InvalidState when the notification was already read.
func (s *NotificationService) MarkAsRead(ctx context.Context, actor *Actor, id uint) (*models.Notification, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	n, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, ResourceNotification, n.UserID); err != nil {
		return nil, err
	}
	if n.IsRead {
		return nil, errAlreadyRead(id)
	}

	updated, err := s.notifications.UpdateColumns(ctx, map[string]interface{}{"is_read": true},
		repository.Where("id = ? AND is_read = ?", id, false))
	if err != nil {
		return nil, err
	}
	if updated == 0 {
		return nil, errAlreadyRead(id)
	}
	n.IsRead = true
	return n, nil
}

func errAlreadyRead(id uint) error {
	return apperror.InvalidState("notification %d is already read", id)
}

// MarkAllAsRead returns how many notifications were flipped; zero is not an error.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, actor *Actor, userID uint) (int64, error) {
	if err := Authorize(actor, ResourceNotification, userID); err != nil {
		return 0, err
	}
	return s.notifications.UpdateColumns(ctx, map[string]interface{}{"is_read": true},
		repository.Where("user_id = ? AND is_read = ?", userID, false))
}

// SubscribeTo turns order and reservation events into notifications for the
// affected user.
func (s *NotificationService) SubscribeTo(hub *events.Hub, currency string) (unsubscribe func()) {
	return hub.Subscribe(func(m events.Message) {
		in, ok := notificationFor(m, currency)
		if !ok {
			return
		}
		if _, err := s.AddNotification(context.Background(), in); err != nil {
			utils.ErrorLogger.WithError(err).WithField("event", m.Event).Warn("Failed to record notification")
		}
	}, events.EventCartOrdered, events.EventReservationUpdated, events.EventReservationDeleted)
}

func notificationFor(m events.Message, currency string) (NotificationInput, bool) {
	switch data := m.Data.(type) {
	case OrderPlaced:
		return NotificationInput{
			UserID:  data.UserID,
			Title:   "Order placed",
			Message: fmt.Sprintf("Your order #%d of %s has been placed.", data.CartID, utils.FormatCurrency(data.Total, currency)),
		}, true
	case ReservationChange:
		r := data.Reservation
		if r == nil || data.ActorID == r.UserID {
			return NotificationInput{}, false
		}
		when := r.TimeStart.Format("2006-01-02 15:04")
		if m.Event == events.EventReservationDeleted {
			return NotificationInput{
				UserID:  r.UserID,
				Title:   "Reservation removed",
				Message: fmt.Sprintf("Your reservation #%d for %s was removed by the restaurant.", r.ID, when),
			}, true
		}
		if data.PreviousStatus == r.Status {
			return NotificationInput{}, false
		}
		return NotificationInput{
			UserID:  r.UserID,
			Title:   "Reservation " + string(r.Status),
			Message: fmt.Sprintf("Your reservation #%d for %s is now %s.", r.ID, when, r.Status),
		}, true
	}
	return NotificationInput{}, false
}
