package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"swiftserve/apperr"
	"swiftserve/models"
)

// OrderFilter narrows ListOrders. Zero values match everything.
type OrderFilter struct {
	CustomerID   uint
	RestaurantID uint
	AgentID      uint
	Status       models.OrderStatus

	// AvailableTo lists unassigned Ready for Pickup orders together with
	// the orders already held by this agent.
	AvailableTo uint
}

// StatusChange is one compare-and-set status update. The row is only
// changed while it still has status From; Claim additionally requires that
// no agent holds it and assigns ActorID, HeldBy requires that agent.
type StatusChange struct {
	OrderID uint
	From    models.OrderStatus
	To      models.OrderStatus
	ActorID uint
	Claim   bool
	HeldBy  *uint
	Note    string
}

// CreateOrder writes the order, its items and the initial history row in a
// single transaction. order.Items are stored with order.ID filled in.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	items := order.Items
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		if err := createOrderItems(tx, order.ID, items); err != nil {
			return err
		}
		order.Items = items

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  order.Status,
			ChangedBy: order.CustomerID,
			Note:      "Order placed by customer",
		}
		return tx.Create(&history).Error
	})
}

// CreateOrderItems attaches items to an existing order.
func (s *Store) CreateOrderItems(ctx context.Context, orderID uint, items []models.OrderItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createOrderItems(tx, orderID, items)
	})
}

func createOrderItems(tx *gorm.DB, orderID uint, items []models.OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: order has no items", apperr.ErrValidation)
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	return tx.Omit(clause.Associations).Create(&items).Error
}

// GetOrder loads an order with everything the detail views show.
func (s *Store) GetOrder(ctx context.Context, id uint) (models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Preload("Restaurant").
		Preload("Items").
		Preload("Customer").
		Preload("Agent").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&o, id).Error
	if err != nil {
		return models.Order{}, notFound(err, "order not found")
	}
	return o, nil
}

func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	var orders []models.Order
	query := s.db.WithContext(ctx).Preload("Restaurant").Preload("Items").Preload("Customer").Preload("Agent")

	if f.CustomerID != 0 {
		query = query.Where("customer_id = ?", f.CustomerID)
	}
	if f.RestaurantID != 0 {
		query = query.Where("restaurant_id = ?", f.RestaurantID)
	}
	if f.AgentID != 0 {
		query = query.Where("agent_id = ?", f.AgentID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.AvailableTo != 0 {
		query = query.Where("((status = ? AND agent_id IS NULL) OR agent_id = ?)", models.StatusReadyForPickup, f.AvailableTo)
	}

	if err := query.Order("created_at desc").Order("id desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus applies ch atomically with its history row. If the
// order moved on, or another agent claimed it first, nothing is written and
// ErrInvalidTransition is returned.
func (s *Store) UpdateOrderStatus(ctx context.Context, ch StatusChange) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.Order{}).Where("id = ? AND status = ?", ch.OrderID, ch.From)
		updates := map[string]any{"status": ch.To}

		switch {
		case ch.Claim:
			query = query.Where("agent_id IS NULL")
			updates["agent_id"] = ch.ActorID
		case ch.HeldBy != nil:
			query = query.Where("agent_id = ?", *ch.HeldBy)
		}

		res := query.Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order no longer available", apperr.ErrInvalidTransition)
		}

		history := models.OrderStatusHistory{
			OrderID:    ch.OrderID,
			FromStatus: ch.From,
			ToStatus:   ch.To,
			ChangedBy:  ch.ActorID,
			Note:       ch.Note,
		}
		return tx.Create(&history).Error
	})
}

func (s *Store) OrderHistory(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}
