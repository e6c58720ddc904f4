package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/newrestaurant/middlewares"
	"github.com/yeremiapane/newrestaurant/services"
	"github.com/yeremiapane/newrestaurant/utils"
)

// MenuController serves plats, the dishes on the menu.
type MenuController struct {
	Plats *services.PlatService
}

func NewMenuController(plats *services.PlatService) *MenuController {
	return &MenuController{Plats: plats}
}

// GetAllPlats accepts ?category_id= to filter.
func (mc *MenuController) GetAllPlats(c *gin.Context) {
	categoryID, ok := queryID(c, "category_id")
	if !ok {
		return
	}
	plats, err := mc.Plats.ListPlats(c.Request.Context(), categoryID)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of plats", plats)
}

func (mc *MenuController) GetPlatByID(c *gin.Context) {
	id, ok := paramID(c, "plat_id")
	if !ok {
		return
	}
	plat, err := mc.Plats.GetPlat(c.Request.Context(), id)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Plat detail", plat)
}

func (mc *MenuController) CreatePlat(c *gin.Context) {
	var req services.PlatInput
	if !bindJSON(c, &req) {
		return
	}
	plat, err := mc.Plats.AddPlat(c.Request.Context(), middlewares.ActorFrom(c), req)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Plat created", plat)
}

func (mc *MenuController) UpdatePlat(c *gin.Context) {
	id, ok := paramID(c, "plat_id")
	if !ok {
		return
	}
	var req services.PlatInput
	if !bindJSON(c, &req) {
		return
	}
	plat, err := mc.Plats.UpdatePlat(c.Request.Context(), middlewares.ActorFrom(c), id, req)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Plat updated", plat)
}

func (mc *MenuController) DeletePlat(c *gin.Context) {
	id, ok := paramID(c, "plat_id")
	if !ok {
		return
	}
	if err := mc.Plats.DeletePlat(c.Request.Context(), middlewares.ActorFrom(c), id); err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Plat deleted", gin.H{"id": id})
}
