package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/newrestaurant/middlewares"
	"github.com/yeremiapane/newrestaurant/services"
	"github.com/yeremiapane/newrestaurant/utils"
)

type ReservationController struct {
	Reservations *services.ReservationService
}

func NewReservationController(reservations *services.ReservationService) *ReservationController {
	return &ReservationController{Reservations: reservations}
}

// GetAllReservations accepts ?user_id= and ?table_id=. Customers only ever see their own.
func (rc *ReservationController) GetAllReservations(c *gin.Context) {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}
	tableID, ok := queryID(c, "table_id")
	if !ok {
		return
	}

	list, err := rc.Reservations.ListReservations(c.Request.Context(), middlewares.ActorFrom(c),
		services.ReservationFilter{UserID: userID, TableID: tableID})
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", list)
}

func (rc *ReservationController) GetReservationByID(c *gin.Context) {
	id, ok := paramID(c, "reservation_id")
	if !ok {
		return
	}
	reservation, err := rc.Reservations.GetReservation(c.Request.Context(), middlewares.ActorFrom(c), id)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", reservation)
}

func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req services.ReservationInput
	if !bindJSON(c, &req) {
		return
	}
	reservation, err := rc.Reservations.AddReservation(c.Request.Context(), middlewares.ActorFrom(c), req)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", reservation)
}

func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	id, ok := paramID(c, "reservation_id")
	if !ok {
		return
	}
	var req services.ReservationInput
	if !bindJSON(c, &req) {
		return
	}
	reservation, err := rc.Reservations.UpdateReservation(c.Request.Context(), middlewares.ActorFrom(c), id, req)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation updated", reservation)
}

func (rc *ReservationController) DeleteReservation(c *gin.Context) {
	id, ok := paramID(c, "reservation_id")
	if !ok {
		return
	}
	if err := rc.Reservations.DeleteReservation(c.Request.Context(), middlewares.ActorFrom(c), id); err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation deleted", gin.H{"id": id})
}
