package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swiftserve/middleware"
	"swiftserve/models"
	"swiftserve/store"
)

// GetAgentOrders is the agent dashboard: orders waiting for pickup plus the
// caller's own deliveries.
func (h *Handler) GetAgentOrders(c *gin.Context) {
	agent := middleware.CurrentUser(c)
	orders, err := h.store.ListOrders(c.Request.Context(), store.OrderFilter{AvailableTo: agent.ID})
	if err != nil {
		respondError(c, err)
		return
	}

	available := []models.Order{}
	mine := []models.Order{}
	for _, o := range orders {
		if o.AgentID != nil && *o.AgentID == agent.ID {
			mine = append(mine, o)
		} else {
			available = append(available, o)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"available":     available,
		"my_deliveries": mine,
		"count":         len(orders),
	})
}

// AcceptOrder claims a Ready for Pickup order. When several agents race for
// the same order exactly one succeeds.
func (h *Handler) AcceptOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	h.transition(c, orderID, models.StatusPickedUp, "", "You have accepted the order")
}

// DeliverOrder marks the caller's order as delivered
func (h *Handler) DeliverOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	h.transition(c, orderID, models.StatusDelivered, "", "Order marked as delivered")
}

type LocationRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// ReportLocation relays the agent's position to the customer following the order
func (h *Handler) ReportLocation(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.engine.ReportLocation(c.Request.Context(), orderID, middleware.CurrentUser(c), *req.Lat, *req.Lng)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Location sent"})
}
