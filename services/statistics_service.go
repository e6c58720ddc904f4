package services

import (
	"context"
	"math"

	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/models"
	"gorm.io/gorm"
)

const DefaultPopularDishes = 5

type PopularDish struct {
	PlatID   uint    `json:"plat_id"`
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type Summary struct {
	TotalRevenue         float64                            `json:"total_revenue"`
	OrderCount           int64                              `json:"order_count"`
	PopularDishes        []PopularDish                      `json:"popular_dishes"`
	ReservationsByStatus map[models.ReservationStatus]int64 `json:"reservations_by_status"`
}

// StatisticsService aggregates over ordered carts only.
type StatisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) *StatisticsService {
	return &StatisticsService{db: db}
}

func (s *StatisticsService) orderedLines(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("cart_items").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Joins("JOIN plats ON plats.id = cart_items.plat_id").
		Where("carts.status = ?", models.CartOrdered)
}

func (s *StatisticsService) TotalRevenue(ctx context.Context, actor *Actor) (float64, error) {
	if err := Authorize(actor, ResourceStatistics, 0); err != nil {
		return 0, err
	}
	return s.totalRevenue(ctx)
}

func (s *StatisticsService) totalRevenue(ctx context.Context) (float64, error) {
	var total float64
	row := s.orderedLines(ctx).Select("COALESCE(SUM(cart_items.quantity * plats.price), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return 0, apperror.Storage("failed to compute revenue", err)
	}
	return math.Round(total*100) / 100, nil
}

// PopularDishes ranks plats by ordered quantity. limit <= 0 uses DefaultPopularDishes.
func (s *StatisticsService) PopularDishes(ctx context.Context, actor *Actor, limit int) ([]PopularDish, error) {
	if err := Authorize(actor, ResourceStatistics, 0); err != nil {
		return nil, err
	}
	return s.popularDishes(ctx, limit)
}

func (s *StatisticsService) popularDishes(ctx context.Context, limit int) ([]PopularDish, error) {
	if limit <= 0 {
		limit = DefaultPopularDishes
	}
	dishes := []PopularDish{}
	err := s.orderedLines(ctx).
		Select("cart_items.plat_id AS plat_id, plats.name AS name, SUM(cart_items.quantity) AS quantity, SUM(cart_items.quantity * plats.price) AS revenue").
		Group("cart_items.plat_id, plats.name").
		Order("quantity DESC, plats.name ASC").
		Limit(limit).
		Scan(&dishes).Error
	if err != nil {
		return nil, apperror.Storage("failed to rank dishes", err)
	}
	for i := range dishes {
		dishes[i].Revenue = math.Round(dishes[i].Revenue*100) / 100
	}
	return dishes, nil
}

func (s *StatisticsService) Summary(ctx context.Context, actor *Actor, limit int) (*Summary, error) {
	if err := Authorize(actor, ResourceStatistics, 0); err != nil {
		return nil, err
	}

	revenue, err := s.totalRevenue(ctx)
	if err != nil {
		return nil, err
	}
	dishes, err := s.popularDishes(ctx, limit)
	if err != nil {
		return nil, err
	}

	var orders int64
	if err := s.db.WithContext(ctx).Model(&models.Cart{}).Where("status = ?", models.CartOrdered).Count(&orders).Error; err != nil {
		return nil, apperror.Storage("failed to count orders", err)
	}

	var rows []struct {
		Status models.ReservationStatus
		Total  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Reservation{}).
		Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, apperror.Storage("failed to count reservations", err)
	}
	byStatus := map[models.ReservationStatus]int64{
		models.ReservationPending:   0,
		models.ReservationConfirmed: 0,
		models.ReservationCancelled: 0,
		models.ReservationCompleted: 0,
	}
	for _, r := range rows {
		byStatus[r.Status] = r.Total
	}

	return &Summary{
		TotalRevenue:         revenue,
		OrderCount:           orders,
		PopularDishes:        dishes,
		ReservationsByStatus: byStatus,
	}, nil
}
