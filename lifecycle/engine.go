// Package lifecycle owns order creation and every status transition. It is
// the only writer of Order.Status and Order.AgentID, and publishes the
// matching bus event once a change has been committed.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"swiftserve/access"
	"swiftserve/apperr"
	"swiftserve/bus"
	"swiftserve/cart"
	"swiftserve/geo"
	"swiftserve/models"
	"swiftserve/statemachine"
	"swiftserve/store"
)

const deliveredMessage = "Your order has been successfully delivered!"

// Store is the persistence the engine needs. *store.Store satisfies it.
type Store interface {
	GetOrder(ctx context.Context, id uint) (models.Order, error)
	GetMenuItems(ctx context.Context, ids []uint) ([]models.MenuItem, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	UpdateOrderStatus(ctx context.Context, ch store.StatusChange) error
}

// Publisher delivers events to a room. *bus.Hub satisfies it.
type Publisher interface {
	Publish(room, eventType string, payload any) int
}

type Engine struct {
	store Store
	bus   Publisher
	log   zerolog.Logger
	locks orderLocks
}

func New(s Store, p Publisher, log zerolog.Logger) *Engine {
	return &Engine{store: s, bus: p, log: log.With().Str("component", "lifecycle").Logger()}
}

// Contact is the delivery information captured at checkout.
type Contact struct {
	Name      string
	Address   string
	Phone     string
	Latitude  *float64
	Longitude *float64
}

func (c Contact) normalize() (Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Name == "" || c.Address == "" || c.Phone == "" {
		return c, fmt.Errorf("%w: name, address and phone are required", apperr.ErrValidation)
	}
	if c.Latitude == nil || c.Longitude == nil || !(geo.Point{Lat: *c.Latitude, Lon: *c.Longitude}).Valid() {
		c.Latitude, c.Longitude = nil, nil
	}
	return c, nil
}

// CreateOrder turns the customer's cart into a Placed order priced from the
// live menu. Lines whose menu item no longer exists are dropped. On success
// it returns the cleared cart and notifies the restaurant.
func (e *Engine) CreateOrder(ctx context.Context, customer models.User, c cart.Cart, contact Contact) (models.Order, cart.Cart, error) {
	if err := access.RequireRole(customer, models.RoleCustomer); err != nil {
		return models.Order{}, c, err
	}
	if c.Empty() {
		return models.Order{}, c, fmt.Errorf("%w: your cart is empty", apperr.ErrValidation)
	}
	contact, err := contact.normalize()
	if err != nil {
		return models.Order{}, c, err
	}

	items, err := e.store.GetMenuItems(ctx, c.ItemIDs())
	if err != nil {
		return models.Order{}, c, err
	}
	lines, total := cart.Details(c, items)
	if len(lines) == 0 {
		return models.Order{}, c, fmt.Errorf("%w: none of the items in your cart are available", apperr.ErrValidation)
	}

	restaurantID := lines[0].Item.RestaurantID
	orderItems := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		if l.Item.RestaurantID != restaurantID {
			return models.Order{}, c, fmt.Errorf("%w: cart contains items from more than one restaurant", apperr.ErrMixedRestaurant)
		}
		orderItems = append(orderItems, models.OrderItem{
			MenuItemID:   l.Item.ID,
			Quantity:     l.Quantity,
			PricePerItem: l.Item.Price,
			Name:         l.Item.Name,
		})
	}
	if dropped := len(c.Items) - len(lines); dropped > 0 {
		e.log.Info().Uint("customer_id", customer.ID).Int("dropped", dropped).Msg("cart lines no longer on the menu")
	}

	order := models.Order{
		CustomerID:        customer.ID,
		RestaurantID:      restaurantID,
		CustomerName:      contact.Name,
		CustomerAddress:   contact.Address,
		CustomerPhone:     contact.Phone,
		CustomerLatitude:  contact.Latitude,
		CustomerLongitude: contact.Longitude,
		TotalPrice:        math.Round(total*100) / 100,
		Status:            models.StatusPlaced,
		Items:             orderItems,
	}
	if err := e.store.CreateOrder(ctx, &order); err != nil {
		return models.Order{}, c, fmt.Errorf("create order: %w", err)
	}

	e.log.Info().Uint("order_id", order.ID).Uint("restaurant_id", restaurantID).Float64("total", order.TotalPrice).Msg("order placed")
	e.bus.Publish(bus.RestaurantRoom(restaurantID), bus.EventNewOrder, bus.NewOrderPayload{
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		Total:        order.TotalPrice,
	})
	return order, cart.Clear(c), nil
}

// Transition moves an order to target on behalf of actor.
func (e *Engine) Transition(ctx context.Context, orderID uint, actor models.User, target models.OrderStatus) (models.Order, error) {
	return e.TransitionWithNote(ctx, orderID, actor, target, "")
}

// TransitionWithNote is Transition with a note recorded in the status
// history. Checks run in a fixed order: existence, role, restaurant
// ownership, state, agent ownership. The final write is a compare-and-set,
// so a concurrent change makes it fail with ErrInvalidTransition and the
// returned order is the one that won. Commit and publish happen under a
// per-order lock, so the room sees changes in commit order.
func (e *Engine) TransitionWithNote(ctx context.Context, orderID uint, actor models.User, target models.OrderStatus, note string) (models.Order, error) {
	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	if !statemachine.ActorMayReach(actor.Role, target) {
		return order, fmt.Errorf("%w: %s cannot move an order to %q", apperr.ErrPermission, actor.Role, target)
	}
	if actor.Role == models.RoleRestaurant {
		if err := access.RequireOrderRestaurant(actor, order); err != nil {
			return order, err
		}
	}
	if err := statemachine.CanTransition(order.Status, target, actor.Role); err != nil {
		return order, err
	}

	change := store.StatusChange{
		OrderID: order.ID,
		From:    order.Status,
		To:      target,
		ActorID: actor.ID,
		Note:    note,
	}
	switch target {
	case models.StatusPickedUp:
		if err := access.RequireClaimable(actor, order); err != nil {
			return order, err
		}
		change.Claim = true
	case models.StatusDelivered:
		if err := access.RequireAssignedAgent(actor, order); err != nil {
			return order, err
		}
		change.HeldBy = &actor.ID
	}
	if change.Note == "" {
		change.Note = defaultNote(target)
	}

	unlock := e.locks.lock(order.ID)
	if err := e.store.UpdateOrderStatus(ctx, change); err != nil {
		unlock()
		if errors.Is(err, apperr.ErrInvalidTransition) {
			e.log.Debug().Uint("order_id", order.ID).Uint("actor_id", actor.ID).Str("target", string(target)).Msg("lost transition race")
		}
		// report the state that won, not the one we read
		if current, lerr := e.store.GetOrder(ctx, order.ID); lerr == nil {
			order = current
		}
		return order, err
	}

	payload := bus.StatusUpdatePayload{OrderID: order.ID, Status: target, PreviousStatus: order.Status}
	switch target {
	case models.StatusPickedUp:
		payload.AgentName = actor.DisplayName()
	case models.StatusDelivered:
		payload.Message = deliveredMessage
	}

	e.log.Info().
		Uint("order_id", order.ID).
		Str("from", string(order.Status)).
		Str("to", string(target)).
		Uint("actor_id", actor.ID).
		Msg("order status changed")

	e.bus.Publish(bus.OrderRoom(order.ID), bus.EventStatusUpdate, payload)
	unlock()

	updated, err := e.store.GetOrder(ctx, order.ID)
	if err != nil {
		// committed already; hand back what we know
		order.Status = target
		if change.Claim {
			order.AgentID = &actor.ID
		}
		return order, nil
	}
	return updated, nil
}

// Accept claims a Ready for Pickup order for agent.
func (e *Engine) Accept(ctx context.Context, orderID uint, agent models.User) (models.Order, error) {
	return e.Transition(ctx, orderID, agent, models.StatusPickedUp)
}

// Complete marks the agent's order as delivered.
func (e *Engine) Complete(ctx context.Context, orderID uint, agent models.User) (models.Order, error) {
	return e.Transition(ctx, orderID, agent, models.StatusDelivered)
}

// ReportLocation relays the assigned agent's position to the order room.
// Positions are never stored.
func (e *Engine) ReportLocation(ctx context.Context, orderID uint, agent models.User, lat, lng float64) error {
	if !(geo.Point{Lat: lat, Lon: lng}).Valid() {
		return fmt.Errorf("%w: invalid coordinates", apperr.ErrValidation)
	}
	unlock := e.locks.lock(orderID)
	defer unlock()

	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := access.RequireAssignedAgent(agent, order); err != nil {
		return err
	}
	if order.Status != models.StatusPickedUp {
		return fmt.Errorf("%w: order %d is %s, location updates are only accepted while it is %s",
			apperr.ErrInvalidTransition, order.ID, order.Status, models.StatusPickedUp)
	}

	e.bus.Publish(bus.OrderRoom(order.ID), bus.EventLocationUpdate, bus.LocationPayload{Lat: lat, Lng: lng})
	return nil
}

func defaultNote(target models.OrderStatus) string {
	switch target {
	case models.StatusPreparing:
		return "Restaurant accepted the order"
	case models.StatusReadyForPickup:
		return "Order is ready for pickup"
	case models.StatusRejected:
		return "Restaurant rejected the order"
	case models.StatusPickedUp:
		return "Agent picked up the order"
	case models.StatusDelivered:
		return "Order delivered to customer"
	}
	return ""
}
