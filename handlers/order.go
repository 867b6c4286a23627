package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swiftserve/access"
	"swiftserve/middleware"
	"swiftserve/statemachine"
)

// GetOrderDetail returns a single order's full detail with history, to any
// party allowed to view it.
func (h *Handler) GetOrderDetail(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.store.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := access.CanViewOrder(middleware.CurrentUser(c), order); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":             order,
		"valid_next_states": statemachine.ValidTransitionsFrom(order.Status),
	})
}
