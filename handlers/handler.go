// Package handlers exposes the HTTP API. Handlers translate requests into
// store, cart and lifecycle calls and map errors with apperr.HTTPStatus.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"swiftserve/apperr"
	"swiftserve/bus"
	"swiftserve/cart"
	"swiftserve/lifecycle"
	"swiftserve/middleware"
	"swiftserve/store"
)

type Handler struct {
	store          *store.Store
	engine         *lifecycle.Engine
	hub            *bus.Hub
	carts          *cart.Store
	auth           *middleware.Auth
	nearbyRadiusKm float64
}

type Deps struct {
	Store          *store.Store
	Engine         *lifecycle.Engine
	Hub            *bus.Hub
	Carts          *cart.Store
	Auth           *middleware.Auth
	NearbyRadiusKm float64
}

func New(d Deps) *Handler {
	return &Handler{
		store:          d.Store,
		engine:         d.Engine,
		hub:            d.Hub,
		carts:          d.Carts,
		auth:           d.Auth,
		nearbyRadiusKm: d.NearbyRadiusKm,
	}
}

// respondError writes err as {"error": ...}. Unexpected errors are logged
// and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// paramID parses a positive numeric path parameter, answering 400 itself
// when it is not one.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
