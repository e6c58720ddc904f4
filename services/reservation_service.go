package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/events"
	"github.com/yeremiapane/newrestaurant/metrics"
	"github.com/yeremiapane/newrestaurant/models"
	"github.com/yeremiapane/newrestaurant/repository"
	"github.com/yeremiapane/newrestaurant/utils"
	"gorm.io/gorm"
)

type ReservationInput struct {
	TableID uint                     `json:"table_id"`
	UserID  uint                     `json:"user_id"`
	Start   time.Time                `json:"time_start"`
	End     time.Time                `json:"time_end"`
	Status  models.ReservationStatus `json:"status"`
}

type ReservationFilter struct {
	UserID  uint
	TableID uint
}

// ReservationChange is the payload of reservation events.
type ReservationChange struct {
	Reservation    *models.Reservation      `json:"reservation"`
	PreviousStatus models.ReservationStatus `json:"previous_status,omitempty"`
	ActorID        uint                     `json:"actor_id"`
}

type ReservationService struct {
	db           *gorm.DB
	reservations *repository.Repository[models.Reservation]
	tables       *repository.Repository[models.Table]
	users        *repository.Repository[models.User]
	hub          *events.Hub
}

func NewReservationService(db *gorm.DB, hub *events.Hub) *ReservationService {
	return &ReservationService{
		db:           db,
		reservations: repository.New[models.Reservation](db, "reservation"),
		tables:       repository.New[models.Table](db, "table"),
		users:        repository.New[models.User](db, "user"),
		hub:          hub,
	}
}

func withParties() []repository.Scope {
	return []repository.Scope{repository.Preload("User"), repository.Preload("Table")}
}

// ListReservations returns every reservation for staff and admin, only their own
// for a customer, newest start first.
func (s *ReservationService) ListReservations(ctx context.Context, actor *Actor, filter ReservationFilter) ([]models.Reservation, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	if !actor.Role.IsManager() {
		filter.UserID = actor.UserID
	}

	scopes := append(withParties(), repository.Order("time_start DESC"))
	if filter.UserID != 0 {
		scopes = append(scopes, repository.Where("user_id = ?", filter.UserID))
	}
	if filter.TableID != 0 {
		scopes = append(scopes, repository.Where("table_id = ?", filter.TableID))
	}
	return s.reservations.Find(ctx, scopes...)
}

func (s *ReservationService) GetReservation(ctx context.Context, actor *Actor, id uint) (*models.Reservation, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	r, err := s.reservations.FindByID(ctx, id, withParties()...)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, ResourceReservation, r.UserID); err != nil {
		return nil, err
	}
	return r, nil
}

// AddReservation books a table. The overlap scan and the insert share one
// transaction that holds the table row lock.
func (s *ReservationService) AddReservation(ctx context.Context, actor *Actor, in ReservationInput) (*models.Reservation, error) {
	start, end, err := validateWindow(in.Start, in.End)
	if err != nil {
		return nil, err
	}
	if in.TableID == 0 {
		return nil, apperror.Validation("table_id is required")
	}
	if in.UserID == 0 && actor != nil {
		in.UserID = actor.UserID
	}
	if err := Authorize(actor, ResourceReservation, in.UserID); err != nil {
		return nil, err
	}

	status, err := s.resolveStatus(actor, in.Status, models.ReservationPending)
	if err != nil {
		return nil, err
	}

	reservation := models.Reservation{
		TableID:   in.TableID,
		UserID:    in.UserID,
		TimeStart: start,
		TimeEnd:   end,
		Status:    status,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.tables.WithTx(tx).LockByID(ctx, in.TableID); err != nil {
			return err
		}
		if _, err := s.users.WithTx(tx).FindByID(ctx, in.UserID); err != nil {
			return err
		}
		if !status.Terminal() {
			if err := s.checkOverlap(ctx, tx, in.TableID, start, end, 0); err != nil {
				return err
			}
		}
		return s.reservations.WithTx(tx).Create(ctx, &reservation)
	})
	if err != nil {
		s.logRejected(err, in.TableID, start, end)
		return nil, err
	}

	created, err := s.reservations.FindByID(ctx, reservation.ID, withParties()...)
	if err != nil {
		return nil, err
	}
	events.Emit(s.hub, events.EventReservationCreated, created.UserID, ReservationChange{Reservation: created, ActorID: actor.UserID})
	utils.InfoLogger.WithFields(logrus.Fields{
		"reservation_id": created.ID,
		"table_id":       created.TableID,
		"user_id":        created.UserID,
	}).Info("Reservation created")
	return created, nil
}

// UpdateReservation reschedules a reservation. The owner never changes, and a
// status sent by a customer is ignored.
func (s *ReservationService) UpdateReservation(ctx context.Context, actor *Actor, id uint, in ReservationInput) (*models.Reservation, error) {
	start, end, err := validateWindow(in.Start, in.End)
	if err != nil {
		return nil, err
	}
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	var previous models.ReservationStatus
	var tableID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservations := s.reservations.WithTx(tx)
		existing, err := reservations.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := Authorize(actor, ResourceReservation, existing.UserID); err != nil {
			return err
		}

		tableID = existing.TableID
		if in.TableID != 0 {
			tableID = in.TableID
		}
		if _, err := s.tables.WithTx(tx).LockByID(ctx, tableID); err != nil {
			return err
		}

		status := existing.Status
		if actor.Role.IsManager() && in.Status != "" {
			if status, err = s.resolveStatus(actor, in.Status, existing.Status); err != nil {
				return err
			}
		}
		if !status.Terminal() {
			if err := s.checkOverlap(ctx, tx, tableID, start, end, id); err != nil {
				return err
			}
		}

		previous = existing.Status
		existing.TableID = tableID
		existing.TimeStart = start
		existing.TimeEnd = end
		existing.Status = status
		existing.Table, existing.User = nil, nil
		return reservations.Save(ctx, existing)
	})
	if err != nil {
		s.logRejected(err, tableID, start, end)
		return nil, err
	}

	updated, err := s.reservations.FindByID(ctx, id, withParties()...)
	if err != nil {
		return nil, err
	}
	events.Emit(s.hub, events.EventReservationUpdated, updated.UserID, ReservationChange{
		Reservation:    updated,
		PreviousStatus: previous,
		ActorID:        actor.UserID,
	})
	utils.InfoLogger.WithFields(logrus.Fields{"reservation_id": id, "status": updated.Status}).Info("Reservation updated")
	return updated, nil
}

func (s *ReservationService) DeleteReservation(ctx context.Context, actor *Actor, id uint) error {
	if err := requireAuthenticated(actor); err != nil {
		return err
	}

	var deleted *models.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservations := s.reservations.WithTx(tx)
		existing, err := reservations.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := Authorize(actor, ResourceReservation, existing.UserID); err != nil {
			return err
		}
		deleted = existing
		return reservations.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	events.Emit(s.hub, events.EventReservationDeleted, deleted.UserID, ReservationChange{Reservation: deleted, ActorID: actor.UserID})
	utils.InfoLogger.WithField("reservation_id", id).Info("Reservation deleted")
	return nil
}

// resolveStatus validates a requested status. Anything other than the fallback
// needs staff or admin.
func (s *ReservationService) resolveStatus(actor *Actor, requested, fallback models.ReservationStatus) (models.ReservationStatus, error) {
	if requested == "" || requested == fallback {
		return fallback, nil
	}
	if !requested.Valid() {
		return "", apperror.Validation("unknown reservation status %q", requested)
	}
	if err := Authorize(actor, ResourceReservationStatus, 0); err != nil {
		return "", apperror.Forbidden("only staff can set a reservation status")
	}
	return requested, nil
}

// checkOverlap reports the earliest non-terminal reservation on the table that
// intersects [start, end), ignoring excludeID.
func (s *ReservationService) checkOverlap(ctx context.Context, tx *gorm.DB, tableID uint, start, end time.Time, excludeID uint) error {
	scopes := []repository.Scope{
		repository.Where("table_id = ?", tableID),
		repository.Where("status NOT IN ?", models.TerminalReservationStatuses),
		repository.Where("time_start < ? AND time_end > ?", end, start),
		repository.Order("time_start ASC, id ASC"),
	}
	if excludeID != 0 {
		scopes = append(scopes, repository.Where("id <> ?", excludeID))
	}

	conflict, err := s.reservations.WithTx(tx).First(ctx, scopes...)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return &apperror.OverlapError{
		TableID:    tableID,
		ConflictID: conflict.ID,
		Start:      conflict.TimeStart,
		End:        conflict.TimeEnd,
	}
}

func (s *ReservationService) logRejected(err error, tableID uint, start, end time.Time) {
	if !errors.Is(err, apperror.ErrOverlap) {
		return
	}
	metrics.ReservationConflicts.Inc()
	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id": tableID,
		"start":    start,
		"end":      end,
	}).Info("Reservation rejected: overlap")
}
