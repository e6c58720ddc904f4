package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/newrestaurant/middlewares"
	"github.com/yeremiapane/newrestaurant/services"
	"github.com/yeremiapane/newrestaurant/utils"
)

type UserController struct {
	Users *services.UserService
	Auth  *services.AuthService
}

func NewUserController(users *services.UserService, auth *services.AuthService) *UserController {
	return &UserController{Users: users, Auth: auth}
}

// Register creates a customer account.
func (uc *UserController) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := uc.Users.Register(c.Request.Context(), middlewares.ActorFrom(c), req)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "User registered", user)
}

// Login returns a bearer token.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &input) {
		return
	}

	res, err := uc.Auth.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":       res.Token,
		"expires_at":  res.ExpiresAt,
		"user":        res.User,
		"permissions": services.PermissionsFor(&services.Actor{UserID: res.User.ID, Role: res.User.Role}),
	})
}

func (uc *UserController) Logout(c *gin.Context) {
	if err := uc.Auth.Logout(c.Request.Context(), middlewares.CredentialsFrom(c)); err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

func (uc *UserController) GetProfile(c *gin.Context) {
	actor, ok := middlewares.MustActor(c)
	if !ok {
		return
	}
	user, err := uc.Users.GetUser(c.Request.Context(), actor, actor.UserID)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", user)
}

func (uc *UserController) UpdateProfile(c *gin.Context) {
	actor, ok := middlewares.MustActor(c)
	if !ok {
		return
	}
	var req services.ProfileInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := uc.Users.UpdateProfile(c.Request.Context(), actor, actor.UserID, req)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile updated", user)
}

// GetPermissions tells a client which commands to enable for the caller.
func (uc *UserController) GetPermissions(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Permissions", services.PermissionsFor(middlewares.ActorFrom(c)))
}
