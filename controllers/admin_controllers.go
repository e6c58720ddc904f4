package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/middlewares"
	"github.com/yeremiapane/newrestaurant/models"
	"github.com/yeremiapane/newrestaurant/services"
	"github.com/yeremiapane/newrestaurant/utils"
)

// AdminController serves the dashboard statistics and user administration.
type AdminController struct {
	Users      *services.UserService
	Statistics *services.StatisticsService
}

func NewAdminController(users *services.UserService, stats *services.StatisticsService) *AdminController {
	return &AdminController{Users: users, Statistics: stats}
}

// GetDashboardStats accepts ?top=N for the number of popular dishes.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	limit := services.DefaultPopularDishes
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.RespondServiceError(c, apperror.Validation("top must be a positive integer"))
			return
		}
		limit = n
	}

	summary, err := ac.Statistics.Summary(c.Request.Context(), middlewares.ActorFrom(c), limit)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard statistics", summary)
}

func (ac *AdminController) GetAllUsers(c *gin.Context) {
	users, err := ac.Users.ListUsers(c.Request.Context(), middlewares.ActorFrom(c))
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All users", users)
}

// CreateUser lets an admin create accounts of any role.
func (ac *AdminController) CreateUser(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := ac.Users.Register(c.Request.Context(), middlewares.ActorFrom(c), req)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "User created", user)
}

func (ac *AdminController) ChangeRole(c *gin.Context) {
	id, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	var body struct {
		Role models.Role `json:"role"`
	}
	if !bindJSON(c, &body) {
		return
	}

	user, err := ac.Users.ChangeRole(c.Request.Context(), middlewares.ActorFrom(c), id, body.Role)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "User role updated", user)
}
