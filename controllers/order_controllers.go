package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/middlewares"
	"github.com/yeremiapane/newrestaurant/services"
	"github.com/yeremiapane/newrestaurant/utils"
)

// OrderController serves the caller's cart and past orders.
type OrderController struct {
	Carts     *services.CartService
	Checkouts *services.CheckoutService
}

func NewOrderController(carts *services.CartService, checkout *services.CheckoutService) *OrderController {
	return &OrderController{Carts: carts, Checkouts: checkout}
}

func (oc *OrderController) GetCart(c *gin.Context) {
	actor, ok := middlewares.MustActor(c)
	if !ok {
		return
	}
	cart, err := oc.Carts.GetOrCreateActiveCart(c.Request.Context(), actor, actor.UserID)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active cart", cart)
}

func (oc *OrderController) GetOrders(c *gin.Context) {
	actor, ok := middlewares.MustActor(c)
	if !ok {
		return
	}
	orders, err := oc.Carts.ListOrders(c.Request.Context(), actor, actor.UserID)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

func (oc *OrderController) AddItem(c *gin.Context) {
	actor, ok := middlewares.MustActor(c)
	if !ok {
		return
	}
	var body struct {
		PlatID   uint `json:"plat_id"`
		Quantity int  `json:"quantity"`
	}
	if !bindJSON(c, &body) {
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}

	cart, err := oc.Carts.AddToActiveCart(c.Request.Context(), actor, actor.UserID, body.PlatID, body.Quantity)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item added to cart", cart)
}

// UpdateItem sets the quantity of a line; zero removes it.
func (oc *OrderController) UpdateItem(c *gin.Context) {
	actor, ok := middlewares.MustActor(c)
	if !ok {
		return
	}
	platID, ok := paramID(c, "plat_id")
	if !ok {
		return
	}
	var body struct {
		Quantity *int `json:"quantity"`
	}
	if !bindJSON(c, &body) {
		return
	}
	if body.Quantity == nil {
		utils.RespondServiceError(c, apperror.Validation("quantity is required"))
		return
	}

	ctx := c.Request.Context()
	cart, err := oc.Carts.GetOrCreateActiveCart(ctx, actor, actor.UserID)
	if err == nil {
		cart, err = oc.Carts.UpdateItemQuantity(ctx, actor, cart.ID, platID, *body.Quantity)
	}
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart updated", cart)
}

func (oc *OrderController) RemoveItem(c *gin.Context) {
	actor, ok := middlewares.MustActor(c)
	if !ok {
		return
	}
	platID, ok := paramID(c, "plat_id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	cart, err := oc.Carts.GetOrCreateActiveCart(ctx, actor, actor.UserID)
	if err == nil {
		cart, err = oc.Carts.RemoveItem(ctx, actor, cart.ID, platID)
	}
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed from cart", cart)
}

// Checkout orders the active cart. Without "confirm": true it answers 428 with
// the prompt the client must show first.
func (oc *OrderController) Checkout(c *gin.Context) {
	actor, ok := middlewares.MustActor(c)
	if !ok {
		return
	}
	var body struct {
		Confirm bool `json:"confirm"`
	}
	if c.Request.ContentLength != 0 && !bindJSON(c, &body) {
		return
	}

	ctx := c.Request.Context()
	cart, err := oc.Carts.GetOrCreateActiveCart(ctx, actor, actor.UserID)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	confirmer := services.ConfirmerFunc(func(context.Context, services.Prompt) (bool, error) {
		return body.Confirm, nil
	})
	ordered, err := oc.Checkouts.Checkout(ctx, actor, cart.ID, confirmer)
	var declined *services.DeclinedError
	if errors.As(err, &declined) {
		utils.RespondJSON(c, http.StatusPreconditionRequired, declined.Prompt.Message, declined.Prompt)
		return
	}
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order placed", ordered)
}
