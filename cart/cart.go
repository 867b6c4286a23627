// Package cart aggregates a customer's menu selections before checkout.
//
// A Cart is a value: every operation takes a Cart and returns a new one, the
// input is never modified. Persisting carts between requests is the job of a
// session collaborator such as Store.
package cart

import (
	"fmt"
	"sort"

	"swiftserve/apperr"
	"swiftserve/models"
)

type Cart struct {
	RestaurantID uint         `json:"restaurant_id,omitempty"`
	Items        map[uint]int `json:"items"` // menu item ID → quantity
}

// Line is one resolved cart row priced from the live menu.
type Line struct {
	Item     models.MenuItem `json:"item"`
	Quantity int             `json:"quantity"`
	Subtotal float64         `json:"subtotal"`
}

func (c Cart) Empty() bool { return len(c.Items) == 0 }

// ItemIDs returns the menu item IDs in ascending order.
func (c Cart) ItemIDs() []uint {
	ids := make([]uint, 0, len(c.Items))
	for id := range c.Items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c Cart) clone() Cart {
	out := Cart{RestaurantID: c.RestaurantID, Items: make(map[uint]int, len(c.Items)+1)}
	for id, q := range c.Items {
		out.Items[id] = q
	}
	return out
}

// AddItem adds one unit of item.
func AddItem(c Cart, item models.MenuItem) (Cart, error) {
	return AddItemQty(c, item, 1)
}

// AddItemQty adds qty units of item. A non-empty cart only accepts items from
// the restaurant of its existing lines.
func AddItemQty(c Cart, item models.MenuItem, qty int) (Cart, error) {
	if qty <= 0 {
		return c, fmt.Errorf("%w: quantity must be positive", apperr.ErrValidation)
	}
	if !c.Empty() && c.RestaurantID != item.RestaurantID {
		return c, fmt.Errorf("%w: you can only order from one restaurant at a time, clear your cart to add %q",
			apperr.ErrMixedRestaurant, item.Name)
	}
	out := c.clone()
	out.RestaurantID = item.RestaurantID
	out.Items[item.ID] += qty
	return out, nil
}

// SetQuantity sets the quantity of a line already in the cart. Zero removes
// the line; negative quantities are rejected.
func SetQuantity(c Cart, itemID uint, qty int) (Cart, error) {
	if qty < 0 {
		return c, fmt.Errorf("%w: quantity cannot be negative", apperr.ErrValidation)
	}
	if _, ok := c.Items[itemID]; !ok {
		return c, fmt.Errorf("%w: item %d is not in the cart", apperr.ErrNotFound, itemID)
	}
	if qty == 0 {
		return Remove(c, itemID), nil
	}
	out := c.clone()
	out.Items[itemID] = qty
	return out, nil
}

// Remove drops a line. Removing the last line resets the restaurant.
func Remove(c Cart, itemID uint) Cart {
	out := c.clone()
	delete(out.Items, itemID)
	if out.Empty() {
		out.RestaurantID = 0
	}
	return out
}

// Clear returns an empty cart.
func Clear(Cart) Cart {
	return Cart{Items: map[uint]int{}}
}

// Details resolves the cart against live menu items. Lines whose item is not
// in items (deleted since it was added) are skipped.
func Details(c Cart, items []models.MenuItem) ([]Line, float64) {
	byID := make(map[uint]models.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	var (
		lines []Line
		total float64
	)
	for _, id := range c.ItemIDs() {
		it, ok := byID[id]
		if !ok {
			continue
		}
		q := c.Items[id]
		sub := it.Price * float64(q)
		lines = append(lines, Line{Item: it, Quantity: q, Subtotal: sub})
		total += sub
	}
	return lines, total
}

// Total is the sum of live unit price × quantity.
func Total(c Cart, items []models.MenuItem) float64 {
	_, total := Details(c, items)
	return total
}
