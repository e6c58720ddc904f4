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

type CategoryInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CategoryService struct {
	db         *gorm.DB
	categories *repository.Repository[models.Category]
	plats      *repository.Repository[models.Plat]
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{
		db:         db,
		categories: repository.New[models.Category](db, "category"),
		plats:      repository.New[models.Plat](db, "plat"),
	}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.Find(ctx, repository.Order("name ASC"))
}

func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *CategoryService) AddCategory(ctx context.Context, actor *Actor, in CategoryInput) (*models.Category, error) {
	if err := Authorize(actor, ResourceCategory, 0); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	category := models.Category{Name: in.Name}
	if err := s.categories.Create(ctx, &category); err != nil {
		return nil, err
	}
	utils.InfoLogger.WithField("category_id", category.ID).Info("Category created")
	return &category, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, actor *Actor, id uint, in CategoryInput) (*models.Category, error) {
	if err := Authorize(actor, ResourceCategory, 0); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Name = in.Name
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory fails while any plat still belongs to the category.
func (s *CategoryService) DeleteCategory(ctx context.Context, actor *Actor, id uint) error {
	if err := Authorize(actor, ResourceCategory, 0); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := s.categories.WithTx(tx)
		if _, err := categories.LockByID(ctx, id); err != nil {
			return err
		}

		n, err := s.plats.WithTx(tx).Count(ctx, repository.Where("category_id = ?", id))
		if err != nil {
			return err
		}
		if n > 0 {
			return apperror.Conflict("category %d still has %d dish(es)", id, n)
		}

		if err := categories.Delete(ctx, id); err != nil {
			return err
		}
		utils.InfoLogger.WithField("category_id", id).Info("Category deleted")
		return nil
	})
}
