// Package access holds the role and ownership guards composed at the entry
// point of every operation. A nil error means allowed; every denial wraps
// apperr.ErrPermission.
package access

import (
	"fmt"
	"strings"

	"swiftserve/apperr"
	"swiftserve/models"
)

// HasRole reports whether u holds one of roles.
func HasRole(u models.User, roles ...models.UserRole) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func RequireRole(u models.User, roles ...models.UserRole) error {
	if HasRole(u, roles...) {
		return nil
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return fmt.Errorf("%w: requires role %s", apperr.ErrPermission, strings.Join(names, " or "))
}

// RequireRestaurantOwner allows only the restaurant-role user owning r.
func RequireRestaurantOwner(u models.User, r models.Restaurant) error {
	if err := RequireRole(u, models.RoleRestaurant); err != nil {
		return err
	}
	if r.OwnerID != u.ID {
		return fmt.Errorf("%w: restaurant %d does not belong to you", apperr.ErrPermission, r.ID)
	}
	return nil
}

// RequireMenuItemOwner allows edits to item only through the owner's own restaurant.
func RequireMenuItemOwner(u models.User, owned models.Restaurant, item models.MenuItem) error {
	if err := RequireRestaurantOwner(u, owned); err != nil {
		return err
	}
	if item.RestaurantID != owned.ID {
		return fmt.Errorf("%w: you do not own this menu item", apperr.ErrPermission)
	}
	return nil
}

// RequireOrderRestaurant allows the owner of the order's restaurant. The
// order must have its Restaurant loaded.
func RequireOrderRestaurant(u models.User, o models.Order) error {
	if err := RequireRole(u, models.RoleRestaurant); err != nil {
		return err
	}
	if o.Restaurant == nil || o.Restaurant.OwnerID != u.ID {
		return fmt.Errorf("%w: this order does not belong to your restaurant", apperr.ErrPermission)
	}
	return nil
}

// RequireClaimable allows an agent to accept an order nobody holds yet.
func RequireClaimable(u models.User, o models.Order) error {
	if err := RequireRole(u, models.RoleAgent); err != nil {
		return err
	}
	if o.AgentID != nil {
		return fmt.Errorf("%w: order %d is assigned to another agent", apperr.ErrPermission, o.ID)
	}
	return nil
}

// RequireAssignedAgent allows only the agent holding o.
func RequireAssignedAgent(u models.User, o models.Order) error {
	if err := RequireRole(u, models.RoleAgent); err != nil {
		return err
	}
	if o.AgentID == nil || *o.AgentID != u.ID {
		return fmt.Errorf("%w: you are not the assigned agent for this order", apperr.ErrPermission)
	}
	return nil
}

// CanViewOrder allows the customer who placed o, the owner of its
// restaurant, its assigned agent, and any agent while o waits for pickup.
func CanViewOrder(u models.User, o models.Order) error {
	switch u.Role {
	case models.RoleCustomer:
		if o.CustomerID == u.ID {
			return nil
		}
	case models.RoleRestaurant:
		if o.Restaurant != nil && o.Restaurant.OwnerID == u.ID {
			return nil
		}
	case models.RoleAgent:
		if o.AgentID != nil && *o.AgentID == u.ID {
			return nil
		}
		if o.AgentID == nil && o.Status == models.StatusReadyForPickup {
			return nil
		}
	}
	return fmt.Errorf("%w: you do not have permission to view this order", apperr.ErrPermission)
}

// RequireOrderRoom gates joining order_{id}: the same parties that may
// view the order.
func RequireOrderRoom(u models.User, o models.Order) error {
	return CanViewOrder(u, o)
}

// RequireRestaurantRoom gates joining restaurant_{id}: its owner only.
func RequireRestaurantRoom(u models.User, r models.Restaurant) error {
	return RequireRestaurantOwner(u, r)
}
