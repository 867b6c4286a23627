package routes

import (
	"github.com/gin-gonic/gin"

	"swiftserve/handlers"
	"swiftserve/middleware"
	"swiftserve/models"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler, auth *middleware.Auth) {
	r.GET("/health", h.Health)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		// Restaurants & menus (no auth needed)
		public.GET("/restaurants", h.ListRestaurants)
		public.GET("/restaurants/:id", h.GetRestaurant)
		public.GET("/restaurants/:id/menu", h.GetMenu)
		public.GET("/nearby-restaurants", h.NearbyRestaurants)

		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	authed := r.Group("/api")
	authed.Use(auth.Required())
	{
		authed.GET("/profile", h.GetProfile)
		authed.GET("/orders/:id", h.GetOrderDetail)

		// Live updates (server-sent events)
		authed.GET("/rooms/orders/:id", h.SubscribeOrder)
		authed.GET("/rooms/restaurants/:id", h.SubscribeRestaurant)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api/customer")
	customer.Use(auth.Required(), middleware.RoleRequired(models.RoleCustomer))
	{
		customer.GET("/cart", h.GetCart)
		customer.POST("/cart", h.AddToCart)
		customer.DELETE("/cart", h.ClearCart)
		customer.PUT("/cart/:itemId", h.UpdateCartItem)
		customer.DELETE("/cart/:itemId", h.RemoveCartItem)

		customer.POST("/checkout", h.Checkout)
		customer.GET("/orders", h.GetMyOrders)
	}

	// ── Restaurant owner routes ────────────────────────────────────
	restaurant := r.Group("/api/restaurant")
	restaurant.Use(auth.Required(), middleware.RoleRequired(models.RoleRestaurant))
	{
		// Restaurant management
		restaurant.POST("/", h.CreateRestaurant)
		restaurant.GET("/", h.GetMyRestaurant)
		restaurant.PUT("/", h.UpdateRestaurant)
		restaurant.DELETE("/", h.DeleteRestaurant)

		// Menu management
		restaurant.POST("/menu", h.AddMenuItem)
		restaurant.PUT("/menu/:itemId", h.UpdateMenuItem)
		restaurant.DELETE("/menu/:itemId", h.DeleteMenuItem)

		// Order management
		restaurant.GET("/orders", h.GetRestaurantOrders)
		restaurant.PUT("/orders/:id/status", h.UpdateOrderStatus)
	}

	// ── Delivery agent routes ──────────────────────────────────────
	agent := r.Group("/api/agent")
	agent.Use(auth.Required(), middleware.RoleRequired(models.RoleAgent))
	{
		agent.GET("/orders", h.GetAgentOrders)
		agent.PUT("/orders/:id/accept", h.AcceptOrder)
		agent.PUT("/orders/:id/deliver", h.DeliverOrder)
		agent.POST("/orders/:id/location", h.ReportLocation)
	}
}
