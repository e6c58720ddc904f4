package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/newrestaurant/middlewares"
	"github.com/yeremiapane/newrestaurant/services"
	"github.com/yeremiapane/newrestaurant/utils"
)

type MenuCategoryController struct {
	Categories *services.CategoryService
}

func NewMenuCategoryController(categories *services.CategoryService) *MenuCategoryController {
	return &MenuCategoryController{Categories: categories}
}

func (mcc *MenuCategoryController) GetAllCategories(c *gin.Context) {
	categories, err := mcc.Categories.ListCategories(c.Request.Context())
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of categories", categories)
}

func (mcc *MenuCategoryController) GetCategoryByID(c *gin.Context) {
	id, ok := paramID(c, "cat_id")
	if !ok {
		return
	}
	category, err := mcc.Categories.GetCategory(c.Request.Context(), id)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category detail", category)
}

func (mcc *MenuCategoryController) CreateCategory(c *gin.Context) {
	var req services.CategoryInput
	if !bindJSON(c, &req) {
		return
	}
	category, err := mcc.Categories.AddCategory(c.Request.Context(), middlewares.ActorFrom(c), req)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Category created", category)
}

func (mcc *MenuCategoryController) UpdateCategory(c *gin.Context) {
	id, ok := paramID(c, "cat_id")
	if !ok {
		return
	}
	var req services.CategoryInput
	if !bindJSON(c, &req) {
		return
	}
	category, err := mcc.Categories.UpdateCategory(c.Request.Context(), middlewares.ActorFrom(c), id, req)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category updated", category)
}

func (mcc *MenuCategoryController) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c, "cat_id")
	if !ok {
		return
	}
	if err := mcc.Categories.DeleteCategory(c.Request.Context(), middlewares.ActorFrom(c), id); err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category deleted", gin.H{"id": id})
}
