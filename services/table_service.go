package services

import (
	"context"
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

type TableInput struct {
	TableNumber string `json:"table_number" validate:"required,max=50"`
	Capacity    int    `json:"capacity" validate:"gte=1"`
}

type TableService struct {
	db           *gorm.DB
	tables       *repository.Repository[models.Table]
	reservations *repository.Repository[models.Reservation]
	hub          *events.Hub
	now          func() time.Time
}

func NewTableService(db *gorm.DB, hub *events.Hub) *TableService {
	return &TableService{
		db:           db,
		tables:       repository.New[models.Table](db, "table"),
		reservations: repository.New[models.Reservation](db, "reservation"),
		hub:          hub,
		now:          time.Now,
	}
}

func (s *TableService) ListTables(ctx context.Context, actor *Actor) ([]models.Table, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.tables.Find(ctx, repository.Order("table_number ASC"))
}

func (s *TableService) GetTable(ctx context.Context, actor *Actor, id uint) (*models.Table, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.tables.FindByID(ctx, id)
}

func (s *TableService) numberTaken(ctx context.Context, tables *repository.Repository[models.Table], number string, exceptID uint) error {
	taken, err := tables.Exists(ctx,
		repository.Where("number_key = ?", models.NormalizeKey(number)),
		repository.Where("id <> ?", exceptID))
	if err != nil {
		return err
	}
	if taken {
		return apperror.Conflict("table number %q already exists", number)
	}
	return nil
}

func (s *TableService) AddTable(ctx context.Context, actor *Actor, in TableInput) (*models.Table, error) {
	if err := Authorize(actor, ResourceTable, 0); err != nil {
		return nil, err
	}
	in.TableNumber = strings.TrimSpace(in.TableNumber)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := s.numberTaken(ctx, s.tables, in.TableNumber, 0); err != nil {
		return nil, err
	}

	table := models.Table{TableNumber: in.TableNumber, Capacity: in.Capacity}
	if err := s.tables.Create(ctx, &table); err != nil {
		return nil, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{"table_id": table.ID, "number": table.TableNumber}).Info("New table created")
	return &table, nil
}

func (s *TableService) UpdateTable(ctx context.Context, actor *Actor, id uint, in TableInput) (*models.Table, error) {
	if err := Authorize(actor, ResourceTable, 0); err != nil {
		return nil, err
	}
	in.TableNumber = strings.TrimSpace(in.TableNumber)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var table *models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tables := s.tables.WithTx(tx)
		var err error
		if table, err = tables.LockByID(ctx, id); err != nil {
			return err
		}
		if err := s.numberTaken(ctx, tables, in.TableNumber, id); err != nil {
			return err
		}
		table.TableNumber = in.TableNumber
		table.Capacity = in.Capacity
		return tables.Save(ctx, table)
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// DeleteTable refuses while a pending or confirmed reservation has not ended yet.
// Past and terminal reservations of the table are removed with it.
func (s *TableService) DeleteTable(ctx context.Context, actor *Actor, id uint) error {
	if err := Authorize(actor, ResourceTable, 0); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tables := s.tables.WithTx(tx)
		reservations := s.reservations.WithTx(tx)
		if _, err := tables.LockByID(ctx, id); err != nil {
			return err
		}

		upcoming, err := reservations.Count(ctx,
			repository.Where("table_id = ?", id),
			repository.Where("time_end > ?", s.now().UTC()),
			repository.Where("status NOT IN ?", models.TerminalReservationStatuses))
		if err != nil {
			return err
		}
		if upcoming > 0 {
			return apperror.Conflict("table %d has %d upcoming reservation(s)", id, upcoming)
		}

		if _, err := reservations.DeleteWhere(ctx, repository.Where("table_id = ?", id)); err != nil {
			return err
		}
		return tables.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	events.Emit(s.hub, events.EventTableDeleted, actor.UserID, id)
	utils.InfoLogger.WithField("table_id", id).Info("Table deleted")
	return nil
}
