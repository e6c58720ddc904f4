package services

import (
	"context"
	"strings"

	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/models"
	"github.com/yeremiapane/newrestaurant/repository"
	"github.com/yeremiapane/newrestaurant/utils"
	"gorm.io/gorm"
)

type PlatInput struct {
	CategoryID  uint    `json:"category_id" validate:"required"`
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gt=0"`
}

type PlatService struct {
	db         *gorm.DB
	plats      *repository.Repository[models.Plat]
	categories *repository.Repository[models.Category]
	items      *repository.Repository[models.CartItem]
}

func NewPlatService(db *gorm.DB) *PlatService {
	return &PlatService{
		db:         db,
		plats:      repository.New[models.Plat](db, "plat"),
		categories: repository.New[models.Category](db, "category"),
		items:      repository.New[models.CartItem](db, "cart item"),
	}
}

// ListPlats returns the menu, optionally restricted to one category.
func (s *PlatService) ListPlats(ctx context.Context, categoryID uint) ([]models.Plat, error) {
	scopes := []repository.Scope{repository.Preload("Category"), repository.Order("name ASC")}
	if categoryID != 0 {
		scopes = append(scopes, repository.Where("category_id = ?", categoryID))
	}
	return s.plats.Find(ctx, scopes...)
}

func (s *PlatService) GetPlat(ctx context.Context, id uint) (*models.Plat, error) {
	return s.plats.FindByID(ctx, id, repository.Preload("Category"))
}

func (s *PlatService) normalize(ctx context.Context, in *PlatInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(in); err != nil {
		return err
	}
	if _, err := s.categories.FindByID(ctx, in.CategoryID); err != nil {
		return err
	}
	return nil
}

func (s *PlatService) AddPlat(ctx context.Context, actor *Actor, in PlatInput) (*models.Plat, error) {
	if err := Authorize(actor, ResourcePlat, 0); err != nil {
		return nil, err
	}
	if err := s.normalize(ctx, &in); err != nil {
		return nil, err
	}

	plat := models.Plat{
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
	}
	if err := s.plats.Create(ctx, &plat); err != nil {
		return nil, err
	}
	utils.InfoLogger.WithField("plat_id", plat.ID).Info("Plat created")
	return s.GetPlat(ctx, plat.ID)
}

func (s *PlatService) UpdatePlat(ctx context.Context, actor *Actor, id uint, in PlatInput) (*models.Plat, error) {
	if err := Authorize(actor, ResourcePlat, 0); err != nil {
		return nil, err
	}
	if err := s.normalize(ctx, &in); err != nil {
		return nil, err
	}

	plat, err := s.plats.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	plat.CategoryID = in.CategoryID
	plat.Name = in.Name
	plat.Description = in.Description
	plat.Price = in.Price
	if err := s.plats.Save(ctx, plat); err != nil {
		return nil, err
	}
	return s.GetPlat(ctx, id)
}

// DeletePlat fails while any cart, ordered or not, references the plat.
func (s *PlatService) DeletePlat(ctx context.Context, actor *Actor, id uint) error {
	if err := Authorize(actor, ResourcePlat, 0); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plats := s.plats.WithTx(tx)
		if _, err := plats.LockByID(ctx, id); err != nil {
			return err
		}
		used, err := s.items.WithTx(tx).Exists(ctx, repository.Where("plat_id = ?", id))
		if err != nil {
			return err
		}
		if used {
			return apperror.Conflict("plat %d is referenced by a cart", id)
		}
		return plats.Delete(ctx, id)
	})
}
