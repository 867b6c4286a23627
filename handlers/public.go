package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swiftserve/geo"
	"swiftserve/statemachine"
	"swiftserve/store"
)

// ListRestaurants returns all restaurants (public)
func (h *Handler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.store.ListRestaurants(c.Request.Context(), store.RestaurantFilter{
		Cuisine: c.Query("cuisine"),
		Search:  c.Query("search"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(restaurants),
		"restaurants": restaurants,
	})
}

// GetRestaurant returns a single restaurant with its menu
func (h *Handler) GetRestaurant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	restaurant, err := h.store.GetRestaurant(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if restaurant.MenuItems, err = h.store.ListMenuItems(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// GetMenu returns the menu for a specific restaurant (public)
func (h *Handler) GetMenu(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	restaurant, err := h.store.GetRestaurant(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.store.ListMenuItems(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant.Name,
		"count":      len(items),
		"menu":       items,
	})
}

// NearbyRestaurants ranks restaurants by distance from ?lat=&lon=.
// An optional ?radius= (km) overrides the configured default.
func (h *Handler) NearbyRestaurants(c *gin.Context) {
	point, ok := geo.ParsePoint(c.Query("lat"), c.Query("lon"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon query parameters must be valid coordinates"})
		return
	}
	radius := h.nearbyRadiusKm
	if r := geo.ParseCoordinate(c.Query("radius")); r != nil && *r > 0 {
		radius = *r
	}

	restaurants, err := h.store.ListRestaurants(c.Request.Context(), store.RestaurantFilter{})
	if err != nil {
		respondError(c, err)
		return
	}
	nearby := geo.FindNearby(point, restaurants, radius)
	c.JSON(http.StatusOK, gin.H{
		"location":    point,
		"radius_km":   radius,
		"count":       len(nearby),
		"restaurants": nearby,
	})
}

// GetStateMachineInfo describes the order lifecycle from the transition table
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"terminal_states": statemachine.TerminalStates(),
		"description":     "Food Delivery Order Lifecycle State Machine",
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "SwiftServe Food Delivery API",
		"version": "1.0.0",
	})
}
