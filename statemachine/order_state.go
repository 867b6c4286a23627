package statemachine

import (
	"fmt"
	"strings"

	"swiftserve/apperr"
	"swiftserve/models"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor models.UserRole    `json:"actor"`
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Restaurant accepts or rejects a new order
	{From: models.StatusPlaced, To: models.StatusPreparing, Actor: models.RoleRestaurant},
	{From: models.StatusPlaced, To: models.StatusRejected, Actor: models.RoleRestaurant},
	// Restaurant marks order ready for pickup, or gives up on it
	{From: models.StatusPreparing, To: models.StatusReadyForPickup, Actor: models.RoleRestaurant},
	{From: models.StatusPreparing, To: models.StatusRejected, Actor: models.RoleRestaurant},
	// Agent claims the order
	{From: models.StatusReadyForPickup, To: models.StatusPickedUp, Actor: models.RoleAgent},
	// Assigned agent delivers the order
	{From: models.StatusPickedUp, To: models.StatusDelivered, Actor: models.RoleAgent},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.UserRole
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool, len(validTransitions))
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// ActorMayReach reports whether role appears anywhere in the table as the
// actor of a transition into target. It is the role gate, independent of the
// order's current state.
func ActorMayReach(role models.UserRole, target models.OrderStatus) bool {
	for _, t := range validTransitions {
		if t.Actor == role && t.To == target {
			return true
		}
	}
	return false
}

// CanTransition checks if a given actor can move from one state to another.
// The returned error wraps apperr.ErrInvalidTransition.
func CanTransition(from, to models.OrderStatus, actor models.UserRole) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("%w: %s → %s is not allowed for %s; valid transitions from %s are: %s",
		apperr.ErrInvalidTransition, from, to, actor, from, describeValidFrom(from))
}

// Known reports whether s is a status of the machine.
func Known(s models.OrderStatus) bool {
	switch s {
	case models.StatusPlaced, models.StatusPreparing, models.StatusReadyForPickup,
		models.StatusPickedUp, models.StatusDelivered, models.StatusRejected:
		return true
	}
	return false
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}

// TerminalStates lists the states with no outgoing transition.
func TerminalStates() []models.OrderStatus {
	return []models.OrderStatus{models.StatusDelivered, models.StatusRejected}
}
