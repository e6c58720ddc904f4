package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/events"
	"github.com/yeremiapane/newrestaurant/models"
	"github.com/yeremiapane/newrestaurant/repository"
	"github.com/yeremiapane/newrestaurant/utils"
	"gorm.io/gorm"
)

// OrderPlaced is the payload of events.EventCartOrdered.
type OrderPlaced struct {
	CartID uint    `json:"cart_id"`
	UserID uint    `json:"user_id"`
	Total  float64 `json:"total"`
	Items  int     `json:"items"`
}

type CartService struct {
	db    *gorm.DB
	carts *repository.Repository[models.Cart]
	items *repository.Repository[models.CartItem]
	plats *repository.Repository[models.Plat]
	users *repository.Repository[models.User]
	hub   *events.Hub
	now   func() time.Time
}

func NewCartService(db *gorm.DB, hub *events.Hub) *CartService {
	return &CartService{
		db:    db,
		carts: repository.New[models.Cart](db, "cart"),
		items: repository.New[models.CartItem](db, "cart item"),
		plats: repository.New[models.Plat](db, "plat"),
		users: repository.New[models.User](db, "user"),
		hub:   hub,
		now:   time.Now,
	}
}

// load returns the cart with its lines and a freshly computed total.
func (s *CartService) load(ctx context.Context, db *gorm.DB, id uint) (*models.Cart, error) {
	cart, err := s.carts.WithTx(db).FindByID(ctx, id,
		repository.Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("cart_items.id ASC") }),
		repository.Preload("Items.Plat"))
	if err != nil {
		return nil, err
	}
	cart.RecalculateTotal()
	return cart, nil
}

// GetOrCreateActiveCart returns the user's single active cart, creating it if needed.
func (s *CartService) GetOrCreateActiveCart(ctx context.Context, actor *Actor, userID uint) (*models.Cart, error) {
	if err := Authorize(actor, ResourceCart, userID); err != nil {
		return nil, err
	}

	var cartID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the user row serializes concurrent creation of the active cart
		if _, err := s.users.WithTx(tx).LockByID(ctx, userID); err != nil {
			return err
		}
		id, err := s.ensureActive(ctx, tx, userID)
		cartID = id
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.db, cartID)
}

func (s *CartService) ensureActive(ctx context.Context, tx *gorm.DB, userID uint) (uint, error) {
	carts := s.carts.WithTx(tx)
	cart, err := carts.First(ctx,
		repository.Where("user_id = ? AND status = ?", userID, models.CartActive),
		repository.Order("id ASC"))
	if err == nil {
		return cart.ID, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return 0, err
	}

	created := models.Cart{UserID: userID, Status: models.CartActive}
	if err := carts.Create(ctx, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (s *CartService) GetCart(ctx context.Context, actor *Actor, cartID uint) (*models.Cart, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	cart, err := s.load(ctx, s.db, cartID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, ResourceCart, cart.UserID); err != nil {
		return nil, err
	}
	return cart, nil
}

// ListOrders returns the user's ordered carts, most recent first.
func (s *CartService) ListOrders(ctx context.Context, actor *Actor, userID uint) ([]models.Cart, error) {
	if err := Authorize(actor, ResourceCart, userID); err != nil {
		return nil, err
	}
	orders, err := s.carts.Find(ctx,
		repository.Where("user_id = ? AND status = ?", userID, models.CartOrdered),
		repository.Preload("Items.Plat"),
		repository.Order("ordered_at DESC, id DESC"))
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].RecalculateTotal()
	}
	return orders, nil
}

// mutable locks the cart and checks that actor owns it and it is still active.
func (s *CartService) mutable(ctx context.Context, tx *gorm.DB, actor *Actor, cartID uint) (*models.Cart, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	cart, err := s.carts.WithTx(tx).LockByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, ResourceCart, cart.UserID); err != nil {
		return nil, err
	}
	if cart.Status != models.CartActive {
		return nil, apperror.InvalidState("cart %d has already been ordered", cartID)
	}
	return cart, nil
}

func (s *CartService) findLine(ctx context.Context, tx *gorm.DB, cartID, platID uint) (*models.CartItem, error) {
	return s.items.WithTx(tx).First(ctx, repository.Where("cart_id = ? AND plat_id = ?", cartID, platID))
}

// AddItem adds qty of a plat, merging into the existing line for that plat.
func (s *CartService) AddItem(ctx context.Context, actor *Actor, cartID, platID uint, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.mutable(ctx, tx, actor, cartID); err != nil {
			return err
		}
		if _, err := s.plats.WithTx(tx).FindByID(ctx, platID); err != nil {
			return err
		}

		items := s.items.WithTx(tx)
		line, err := s.findLine(ctx, tx, cartID, platID)
		switch {
		case err == nil:
			line.Quantity += qty
			return items.Save(ctx, line)
		case errors.Is(err, apperror.ErrNotFound):
			return items.Create(ctx, &models.CartItem{CartID: cartID, PlatID: platID, Quantity: qty})
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"cart_id": cartID, "plat_id": platID, "qty": qty}).Debug("Item added to cart")
	return s.load(ctx, s.db, cartID)
}

// AddToActiveCart adds to the user's active cart, creating it if needed.
func (s *CartService) AddToActiveCart(ctx context.Context, actor *Actor, userID, platID uint, qty int) (*models.Cart, error) {
	cart, err := s.GetOrCreateActiveCart(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	return s.AddItem(ctx, actor, cart.ID, platID, qty)
}

// UpdateItemQuantity sets a line's quantity. Zero removes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, actor *Actor, cartID, platID uint, qty int) (*models.Cart, error) {
	if qty < 0 {
		return nil, apperror.Validation("quantity cannot be negative")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.mutable(ctx, tx, actor, cartID); err != nil {
			return err
		}
		line, err := s.findLine(ctx, tx, cartID, platID)
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound("plat %d is not in cart %d", platID, cartID)
		}
		if err != nil {
			return err
		}

		items := s.items.WithTx(tx)
		if qty == 0 {
			return items.Delete(ctx, line.ID)
		}
		line.Quantity = qty
		return items.Save(ctx, line)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.db, cartID)
}

func (s *CartService) RemoveItem(ctx context.Context, actor *Actor, cartID, platID uint) (*models.Cart, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.mutable(ctx, tx, actor, cartID); err != nil {
			return err
		}
		n, err := s.items.WithTx(tx).DeleteWhere(ctx, repository.Where("cart_id = ? AND plat_id = ?", cartID, platID))
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.NotFound("plat %d is not in cart %d", platID, cartID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.db, cartID)
}

// MarkAsOrdered is the only transition out of active. The user's next active cart
// is created in the same transaction.
func (s *CartService) MarkAsOrdered(ctx context.Context, actor *Actor, cartID uint) (*models.Cart, error) {
	var userID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := s.mutable(ctx, tx, actor, cartID)
		if err != nil {
			return err
		}
		userID = cart.UserID

		lines, err := s.items.WithTx(tx).Count(ctx, repository.Where("cart_id = ?", cartID))
		if err != nil {
			return err
		}
		if lines == 0 {
			return apperror.InvalidState("cannot order an empty cart")
		}

		n, err := s.carts.WithTx(tx).UpdateColumns(ctx,
			map[string]interface{}{"status": models.CartOrdered, "ordered_at": s.now().UTC()},
			repository.Where("id = ? AND status = ?", cartID, models.CartActive))
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.InvalidState("cart %d has already been ordered", cartID)
		}

		_, err = s.ensureActive(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	ordered, err := s.load(ctx, s.db, cartID)
	if err != nil {
		return nil, err
	}
	events.Emit(s.hub, events.EventCartOrdered, userID, OrderPlaced{
		CartID: ordered.ID,
		UserID: userID,
		Total:  ordered.Total,
		Items:  ordered.ItemCount(),
	})
	utils.InfoLogger.WithFields(logrus.Fields{"cart_id": cartID, "user_id": userID, "total": ordered.Total}).Info("Cart ordered")
	return ordered, nil
}
