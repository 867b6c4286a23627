package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftserve/apperr"
	"swiftserve/models"
)

var allStatuses = []models.OrderStatus{
	models.StatusPlaced,
	models.StatusPreparing,
	models.StatusReadyForPickup,
	models.StatusPickedUp,
	models.StatusDelivered,
	models.StatusRejected,
}

func TestCanTransition_ForwardPath(t *testing.T) {
	t.Parallel()

	steps := []struct {
		from, to models.OrderStatus
		actor    models.UserRole
	}{
		{models.StatusPlaced, models.StatusPreparing, models.RoleRestaurant},
		{models.StatusPreparing, models.StatusReadyForPickup, models.RoleRestaurant},
		{models.StatusReadyForPickup, models.StatusPickedUp, models.RoleAgent},
		{models.StatusPickedUp, models.StatusDelivered, models.RoleAgent},
		{models.StatusPlaced, models.StatusRejected, models.RoleRestaurant},
		{models.StatusPreparing, models.StatusRejected, models.RoleRestaurant},
	}
	for _, s := range steps {
		assert.NoError(t, CanTransition(s.from, s.to, s.actor), "%s → %s by %s", s.from, s.to, s.actor)
	}
}

func TestCanTransition_EverythingElseIsInvalid(t *testing.T) {
	t.Parallel()

	roles := []models.UserRole{models.RoleCustomer, models.RoleRestaurant, models.RoleAgent}
	allowed := 0
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			for _, role := range roles {
				err := CanTransition(from, to, role)
				if err == nil {
					allowed++
					continue
				}
				assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
			}
		}
	}
	assert.Equal(t, len(GetAllTransitions()), allowed)
}

func TestTerminalStatesHaveNoExit(t *testing.T) {
	t.Parallel()

	for _, s := range TerminalStates() {
		assert.True(t, s.Terminal())
		assert.Empty(t, ValidTransitionsFrom(s))
	}
	err := CanTransition(models.StatusDelivered, models.StatusPickedUp, models.RoleAgent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal")
}

func TestActorMayReach(t *testing.T) {
	t.Parallel()

	assert.True(t, ActorMayReach(models.RoleRestaurant, models.StatusRejected))
	assert.True(t, ActorMayReach(models.RoleAgent, models.StatusPickedUp))
	assert.False(t, ActorMayReach(models.RoleAgent, models.StatusPreparing))
	assert.False(t, ActorMayReach(models.RoleRestaurant, models.StatusDelivered))
	assert.False(t, ActorMayReach(models.RoleCustomer, models.StatusRejected))
}

func TestValidTransitionsFrom(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]models.OrderStatus{models.StatusPreparing, models.StatusRejected},
		ValidTransitionsFrom(models.StatusPlaced))
	assert.Equal(t,
		[]models.OrderStatus{models.StatusDelivered},
		ValidTransitionsFrom(models.StatusPickedUp))
}
