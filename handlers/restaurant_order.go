package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"swiftserve/apperr"
	"swiftserve/middleware"
	"swiftserve/models"
	"swiftserve/statemachine"
	"swiftserve/store"
)

// GetRestaurantOrders returns all orders for the restaurant owner
func (h *Handler) GetRestaurantOrders(c *gin.Context) {
	restaurant, _, ok := h.ownRestaurant(c)
	if !ok {
		return
	}

	filter := store.OrderFilter{RestaurantID: restaurant.ID}
	if status := models.OrderStatus(c.Query("status")); status != "" {
		if !statemachine.Known(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status " + string(status)})
			return
		}
		filter.Status = status
	}

	orders, err := h.store.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	summary := map[models.OrderStatus]int{}
	for _, o := range orders {
		summary[o.Status]++
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant":    restaurant.Name,
		"order_summary": summary,
		"count":         len(orders),
		"orders":        orders,
	})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// UpdateOrderStatus handles the restaurant's transitions: accept
// (Preparing), ready for pickup, or reject.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !statemachine.Known(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status " + string(req.Status)})
		return
	}

	h.transition(c, orderID, req.Status, req.Note, "Order status updated")
}

// transition runs a lifecycle transition for the caller and writes the
// response. Invalid transitions list the states reachable from the current one.
func (h *Handler) transition(c *gin.Context, orderID uint, target models.OrderStatus, note, message string) {
	user := middleware.CurrentUser(c)
	order, err := h.engine.TransitionWithNote(c.Request.Context(), orderID, user, target, note)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidTransition) && order.ID != 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":             err.Error(),
				"current_status":    order.Status,
				"requested":         target,
				"valid_next_states": statemachine.ValidTransitionsFrom(order.Status),
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        message,
		"order_id":       order.ID,
		"current_status": order.Status,
		"order":          order,
	})
}
