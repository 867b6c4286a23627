package bus

import (
	"fmt"
	"time"

	"swiftserve/models"
)

// Event types published on the bus.
const (
	EventNewOrder       = "new_order"
	EventStatusUpdate   = "status_update"
	EventLocationUpdate = "customer_location_update"
)

func OrderRoom(orderID uint) string { return fmt.Sprintf("order_%d", orderID) }

func RestaurantRoom(restaurantID uint) string { return fmt.Sprintf("restaurant_%d", restaurantID) }

type Event struct {
	Room    string    `json:"room"`
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// NewOrderPayload is sent to restaurant_{id} when a customer checks out.
type NewOrderPayload struct {
	OrderID      uint    `json:"order_id"`
	CustomerName string  `json:"customer_name"`
	Total        float64 `json:"total"`
}

// StatusUpdatePayload is sent to order_{id} on every lifecycle transition.
type StatusUpdatePayload struct {
	OrderID        uint               `json:"order_id"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status"`
	AgentName      string             `json:"agent_name,omitempty"`
	Message        string             `json:"message,omitempty"`
}

// LocationPayload is the agent position relayed to order_{id}.
type LocationPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
