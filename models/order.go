package models

import "time"

// OrderStatus represents all possible states of a food delivery order
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "Placed"
	StatusPreparing      OrderStatus = "Preparing"
	StatusReadyForPickup OrderStatus = "Ready for Pickup"
	StatusPickedUp       OrderStatus = "Picked Up"
	StatusDelivered      OrderStatus = "Delivered"
	StatusRejected       OrderStatus = "Rejected"
)

// Terminal reports whether no further transition can leave s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusRejected
}

// ActiveStatuses lists every non-terminal status.
func ActiveStatuses() []OrderStatus {
	return []OrderStatus{StatusPlaced, StatusPreparing, StatusReadyForPickup, StatusPickedUp}
}

type Order struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	CustomerID   uint        `json:"customer_id" gorm:"index;not null"`
	Customer     *User       `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	RestaurantID uint        `json:"restaurant_id" gorm:"index;not null"`
	Restaurant   *Restaurant `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	AgentID      *uint       `json:"agent_id" gorm:"index"`
	Agent        *User       `json:"agent,omitempty" gorm:"foreignKey:AgentID"`

	// Contact snapshot taken at checkout, independent of later profile edits.
	CustomerName      string   `json:"customer_name" gorm:"not null"`
	CustomerAddress   string   `json:"customer_address" gorm:"not null"`
	CustomerPhone     string   `json:"customer_phone" gorm:"not null"`
	CustomerLatitude  *float64 `json:"customer_latitude"`
	CustomerLongitude *float64 `json:"customer_longitude"`

	TotalPrice    float64              `json:"total_price" gorm:"not null"`
	Status        OrderStatus          `json:"status" gorm:"index;not null;default:'Placed'"`
	Items         []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type OrderItem struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	OrderID      uint      `json:"order_id" gorm:"index;not null"`
	MenuItemID   uint      `json:"menu_item_id" gorm:"not null"`
	MenuItem     *MenuItem `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity     int       `json:"quantity" gorm:"not null"`
	PricePerItem float64   `json:"price_per_item" gorm:"not null"` // snapshot price at time of order
	Name         string    `json:"name"`                           // snapshot name
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"index;not null"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"` // user ID who triggered the transition
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}

// All returns every model for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Restaurant{},
		&MenuItem{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
	}
}
