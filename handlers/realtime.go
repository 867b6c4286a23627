package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"swiftserve/access"
	"swiftserve/bus"
	"swiftserve/middleware"
)

const keepAliveInterval = 25 * time.Second

// SubscribeOrder streams order_{id} events (status updates, agent location)
// as server-sent events.
func (h *Handler) SubscribeOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.store.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	user := middleware.CurrentUser(c)
	if err := access.RequireOrderRoom(user, order); err != nil {
		respondError(c, err)
		return
	}

	// a claim by another agent revokes the room for everyone else
	recheck := func(ctx context.Context) error {
		current, err := h.store.GetOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		return access.RequireOrderRoom(user, current)
	}
	h.stream(c, bus.OrderRoom(order.ID), recheck)
}

// SubscribeRestaurant streams restaurant_{id} events (new orders) to its owner.
func (h *Handler) SubscribeRestaurant(c *gin.Context) {
	restaurantID, ok := paramID(c, "id")
	if !ok {
		return
	}
	restaurant, err := h.store.GetRestaurant(c.Request.Context(), restaurantID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := access.RequireRestaurantRoom(middleware.CurrentUser(c), restaurant); err != nil {
		respondError(c, err)
		return
	}
	h.stream(c, bus.RestaurantRoom(restaurant.ID), nil)
}

// stream joins room and forwards its events until the client goes away or
// the hub shuts down. Clients rejoin by reconnecting; missed events are not
// replayed. A non-nil recheck runs after joining, on every status update
// and after any dropped event; once it fails the stream ends with an
// access_revoked event.
func (h *Handler) stream(c *gin.Context, room string, recheck func(context.Context) error) {
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)
	log := zerolog.Ctx(ctx).With().Str("room", room).Uint("user_id", user.ID).Logger()

	sub := h.hub.NewSubscriber(fmt.Sprintf("user-%d-%s", user.ID, uuid.NewString()[:8]))
	h.hub.Join(room, sub)
	defer h.hub.Disconnect(sub)

	// changes committed between the first check and Join are not replayed
	if recheck != nil {
		if err := recheck(ctx); err != nil {
			respondError(c, err)
			return
		}
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("joined", gin.H{"room": room})
	c.Writer.Flush()
	log.Debug().Msg("stream opened")

	// a dropped event may have been the status update that revoked access
	dropped := 0
	revoked := func(ev bus.Event) bool {
		if recheck == nil {
			return false
		}
		if ev.Type != bus.EventStatusUpdate && sub.Dropped() == dropped {
			return false
		}
		dropped = sub.Dropped()
		return recheck(ctx) != nil
	}

	for {
		waitCtx, cancel := context.WithTimeout(ctx, keepAliveInterval)
		ev, err := sub.Next(waitCtx)
		cancel()

		switch {
		case err == nil && revoked(ev):
			c.SSEvent("access_revoked", gin.H{"room": room})
			c.Writer.Flush()
			log.Info().Msg("room access revoked")
			return
		case err == nil:
			c.SSEvent(ev.Type, ev)
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
		default:
			log.Debug().Err(err).Int("dropped", sub.Dropped()).Msg("stream closed")
			return
		}
		c.Writer.Flush()
	}
}
