package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"swiftserve/access"
	"swiftserve/middleware"
	"swiftserve/models"
)

// ── Restaurant Management ────────────────────────────────────────────────────

type CreateRestaurantRequest struct {
	Name      string   `json:"name" binding:"required"`
	Cuisine   string   `json:"cuisine" binding:"required"`
	Address   string   `json:"address" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

type UpdateRestaurantRequest struct {
	Name          *string  `json:"name" binding:"omitempty,min=1"`
	Cuisine       *string  `json:"cuisine" binding:"omitempty,min=1"`
	Address       *string  `json:"address" binding:"omitempty,min=1"`
	Latitude      *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude     *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	ClearLocation bool     `json:"clear_location"`
}

func (r UpdateRestaurantRequest) changes() map[string]any {
	update := map[string]any{}
	if r.Name != nil {
		update["name"] = strings.TrimSpace(*r.Name)
	}
	if r.Cuisine != nil {
		update["cuisine"] = strings.TrimSpace(*r.Cuisine)
	}
	if r.Address != nil {
		update["address"] = strings.TrimSpace(*r.Address)
	}
	if r.ClearLocation {
		update["latitude"] = nil
		update["longitude"] = nil
		return update
	}
	if r.Latitude != nil {
		update["latitude"] = *r.Latitude
	}
	if r.Longitude != nil {
		update["longitude"] = *r.Longitude
	}
	return update
}

// ownRestaurant loads the caller's restaurant and checks ownership.
func (h *Handler) ownRestaurant(c *gin.Context) (models.Restaurant, models.User, bool) {
	user := middleware.CurrentUser(c)
	restaurant, err := h.store.GetRestaurantByOwner(c.Request.Context(), user.ID)
	if err == nil {
		err = access.RequireRestaurantOwner(user, restaurant)
	}
	if err != nil {
		respondError(c, err)
		return models.Restaurant{}, user, false
	}
	return restaurant, user, true
}

// CreateRestaurant lets a restaurant-role user create their restaurant
func (h *Handler) CreateRestaurant(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req CreateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	restaurant := models.Restaurant{
		OwnerID:   user.ID,
		Name:      strings.TrimSpace(req.Name),
		Cuisine:   strings.TrimSpace(req.Cuisine),
		Address:   strings.TrimSpace(req.Address),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := h.store.CreateRestaurant(c.Request.Context(), &restaurant); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Restaurant created", "restaurant": restaurant})
}

// GetMyRestaurant fetches the restaurant owned by the logged-in user
func (h *Handler) GetMyRestaurant(c *gin.Context) {
	restaurant, _, ok := h.ownRestaurant(c)
	if !ok {
		return
	}
	items, err := h.store.ListMenuItems(c.Request.Context(), restaurant.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	restaurant.MenuItems = items
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// UpdateRestaurant updates restaurant details
func (h *Handler) UpdateRestaurant(c *gin.Context) {
	restaurant, _, ok := h.ownRestaurant(c)
	if !ok {
		return
	}
	var req UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.store.UpdateRestaurant(c.Request.Context(), restaurant.ID, req.changes())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": updated})
}

// DeleteRestaurant removes the caller's restaurant and its menu. Refused
// while orders are still in progress.
func (h *Handler) DeleteRestaurant(c *gin.Context) {
	restaurant, _, ok := h.ownRestaurant(c)
	if !ok {
		return
	}
	if err := h.store.DeleteRestaurant(c.Request.Context(), restaurant.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deleted"})
}

// ── Menu Management ─────────────────────────────────────────────────────────

type CreateMenuItemRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" binding:"required,min=0"`
}

type UpdateMenuItemRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
}

// AddMenuItem adds a new item to the restaurant's menu
func (h *Handler) AddMenuItem(c *gin.Context) {
	restaurant, _, ok := h.ownRestaurant(c)
	if !ok {
		return
	}
	var req CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := models.MenuItem{
		RestaurantID: restaurant.ID,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Price:        *req.Price,
	}
	if err := h.store.CreateMenuItem(c.Request.Context(), &item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// ownMenuItem loads :itemId and checks it belongs to the caller's restaurant.
func (h *Handler) ownMenuItem(c *gin.Context) (models.MenuItem, bool) {
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return models.MenuItem{}, false
	}
	restaurant, user, ok := h.ownRestaurant(c)
	if !ok {
		return models.MenuItem{}, false
	}
	item, err := h.store.GetMenuItem(c.Request.Context(), itemID)
	if err == nil {
		err = access.RequireMenuItemOwner(user, restaurant, item)
	}
	if err != nil {
		respondError(c, err)
		return models.MenuItem{}, false
	}
	return item, true
}

// UpdateMenuItem updates a menu item (only by the owner)
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	item, ok := h.ownMenuItem(c)
	if !ok {
		return
	}
	var req UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := map[string]any{}
	if req.Name != nil {
		update["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}
	if req.Price != nil {
		update["price"] = *req.Price
	}
	updated, err := h.store.UpdateMenuItem(c.Request.Context(), item.ID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": updated})
}

// DeleteMenuItem removes a menu item. Carts still holding it simply skip
// it; past orders keep their snapshot.
func (h *Handler) DeleteMenuItem(c *gin.Context) {
	item, ok := h.ownMenuItem(c)
	if !ok {
		return
	}
	if err := h.store.DeleteMenuItem(c.Request.Context(), item.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}
