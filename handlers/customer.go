package handlers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"swiftserve/cart"
	"swiftserve/lifecycle"
	"swiftserve/middleware"
	"swiftserve/store"
)

// ── Cart ─────────────────────────────────────────────────────────────────────

type AddToCartRequest struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"omitempty,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// renderCart prices the cart from the live menu and writes it.
func (h *Handler) renderCart(c *gin.Context, status int, message string, crt cart.Cart) {
	items, err := h.store.GetMenuItems(c.Request.Context(), crt.ItemIDs())
	if err != nil {
		respondError(c, err)
		return
	}
	lines, total := cart.Details(crt, items)
	if lines == nil {
		lines = []cart.Line{}
	}
	body := gin.H{
		"restaurant_id": crt.RestaurantID,
		"items":         lines,
		"count":         len(lines),
		"total":         math.Round(total*100) / 100,
	}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// GetCart shows the caller's cart priced from the live menu
func (h *Handler) GetCart(c *gin.Context) {
	h.renderCart(c, http.StatusOK, "", h.carts.Get(middleware.CurrentUser(c).ID))
}

// AddToCart adds a menu item, one unit unless quantity is given
func (h *Handler) AddToCart(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.store.GetMenuItem(c.Request.Context(), req.MenuItemID)
	if err != nil {
		respondError(c, err)
		return
	}
	updated, err := cart.AddItemQty(h.carts.Get(user.ID), item, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	h.carts.Put(user.ID, updated)
	h.renderCart(c, http.StatusOK, item.Name+" added to cart", updated)
}

// UpdateCartItem sets the quantity of a line; zero removes it
func (h *Handler) UpdateCartItem(c *gin.Context) {
	user := middleware.CurrentUser(c)
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := cart.SetQuantity(h.carts.Get(user.ID), itemID, *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	h.carts.Put(user.ID, updated)
	h.renderCart(c, http.StatusOK, "Cart updated", updated)
}

// RemoveCartItem drops a line from the cart
func (h *Handler) RemoveCartItem(c *gin.Context) {
	user := middleware.CurrentUser(c)
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	updated, err := cart.SetQuantity(h.carts.Get(user.ID), itemID, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	h.carts.Put(user.ID, updated)
	h.renderCart(c, http.StatusOK, "Item removed from cart", updated)
}

// ClearCart empties the cart
func (h *Handler) ClearCart(c *gin.Context) {
	h.carts.Delete(middleware.CurrentUser(c).ID)
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// ── Checkout & Orders ───────────────────────────────────────────────────────

// CheckoutRequest carries the delivery contact.
type CheckoutRequest struct {
	Name      string   `json:"name" binding:"required"`
	Address   string   `json:"address" binding:"required"`
	Phone     string   `json:"phone" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Checkout turns the cart into an order (customer only)
func (h *Handler) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.store.GetUser(ctx, middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	contact := lifecycle.Contact{
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}

	order, cleared, err := h.engine.CreateOrder(ctx, customer, h.carts.Get(customer.ID), contact)
	if err != nil {
		respondError(c, err)
		return
	}
	h.carts.Put(customer.ID, cleared)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// GetMyOrders returns all orders for the logged-in customer
func (h *Handler) GetMyOrders(c *gin.Context) {
	orders, err := h.store.ListOrders(c.Request.Context(), store.OrderFilter{CustomerID: middleware.CurrentUser(c).ID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}
