package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/events"
	"github.com/yeremiapane/newrestaurant/models"
)

func TestCategoryLifecycle(t *testing.T) {
	db := newTestDB(t)
	_, staff := seedUser(t, db, "staff", models.RoleStaff)
	_, customer := seedUser(t, db, "alice", models.RoleCustomer)
	categories := NewCategoryService(db)
	plats := NewPlatService(db)

	_, err := categories.AddCategory(ctx, customer, CategoryInput{Name: "Desserts"})
	assert.ErrorIs(t, err, apperror.ErrAuthorization)
	_, err = categories.AddCategory(ctx, staff, CategoryInput{Name: "   "})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	desserts, err := categories.AddCategory(ctx, staff, CategoryInput{Name: "Desserts"})
	require.NoError(t, err)

	renamed, err := categories.UpdateCategory(ctx, staff, desserts.ID, CategoryInput{Name: "Sweets"})
	require.NoError(t, err)
	assert.Equal(t, "Sweets", renamed.Name)

	cake, err := plats.AddPlat(ctx, staff, PlatInput{CategoryID: desserts.ID, Name: "Cake", Price: 6})
	require.NoError(t, err)

	err = categories.DeleteCategory(ctx, staff, desserts.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	require.NoError(t, plats.DeletePlat(ctx, staff, cake.ID))
	require.NoError(t, categories.DeleteCategory(ctx, staff, desserts.ID))

	_, err = categories.GetCategory(ctx, desserts.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPlatValidationAndBrowsing(t *testing.T) {
	db := newTestDB(t)
	_, staff := seedUser(t, db, "staff", models.RoleStaff)
	plats := NewPlatService(db)
	categories := NewCategoryService(db)

	starters, err := categories.AddCategory(ctx, staff, CategoryInput{Name: "Starters"})
	require.NoError(t, err)

	_, err = plats.AddPlat(ctx, staff, PlatInput{CategoryID: starters.ID, Name: "Soup", Price: 0})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = plats.AddPlat(ctx, staff, PlatInput{CategoryID: 999, Name: "Soup", Price: 3})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = plats.AddPlat(ctx, staff, PlatInput{CategoryID: starters.ID, Name: "", Price: 3})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	soup, err := plats.AddPlat(ctx, staff, PlatInput{CategoryID: starters.ID, Name: "Soup", Price: 3.5})
	require.NoError(t, err)
	require.NotNil(t, soup.Category)
	assert.Equal(t, "Starters", soup.Category.Name)

	seedPlat(t, db, "Burger", 12)

	all, err := plats.ListPlats(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyStarters, err := plats.ListPlats(ctx, starters.ID)
	require.NoError(t, err)
	require.Len(t, onlyStarters, 1)
	assert.Equal(t, "Soup", onlyStarters[0].Name)

	updated, err := plats.UpdatePlat(ctx, staff, soup.ID, PlatInput{CategoryID: starters.ID, Name: "Soup of the day", Price: 4})
	require.NoError(t, err)
	assert.Equal(t, 4.0, updated.Price)
}

func TestDeletePlatBlockedByCart(t *testing.T) {
	db := newTestDB(t)
	_, staff := seedUser(t, db, "staff", models.RoleStaff)
	_, customer := seedUser(t, db, "alice", models.RoleCustomer)
	plat := seedPlat(t, db, "Soup", 3)

	carts := NewCartService(db, events.NewHub())
	_, err := carts.AddToActiveCart(ctx, customer, customer.UserID, plat.ID, 1)
	require.NoError(t, err)

	err = NewPlatService(db).DeletePlat(ctx, staff, plat.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}
