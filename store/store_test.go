package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftserve/apperr"
	"swiftserve/models"
	"swiftserve/store"
	"swiftserve/storetest"
)

type fixture struct {
	s          *store.Store
	customer   models.User
	owner      models.User
	agent      models.User
	restaurant models.Restaurant
	items      []models.MenuItem
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := store.New(storetest.NewDB(t))

	f := fixture{s: s}
	f.customer = models.User{Name: "Asha", Email: "asha@example.com", PasswordHash: "x", Role: models.RoleCustomer}
	f.owner = models.User{Name: "Ravi", Email: "ravi@example.com", PasswordHash: "x", Role: models.RoleRestaurant}
	f.agent = models.User{Name: "Kiran", Email: "kiran@example.com", PasswordHash: "x", Role: models.RoleAgent}
	for _, u := range []*models.User{&f.customer, &f.owner, &f.agent} {
		require.NoError(t, s.CreateUser(ctx, u))
	}

	f.restaurant = models.Restaurant{OwnerID: f.owner.ID, Name: "Dosa Corner", Address: "MG Road", Cuisine: "South Indian"}
	require.NoError(t, s.CreateRestaurant(ctx, &f.restaurant))

	for _, it := range []models.MenuItem{
		{RestaurantID: f.restaurant.ID, Name: "Masala Dosa", Price: 8.5},
		{RestaurantID: f.restaurant.ID, Name: "Filter Coffee", Price: 2.5},
	} {
		it := it
		require.NoError(t, s.CreateMenuItem(ctx, &it))
		f.items = append(f.items, it)
	}
	return f
}

func (f fixture) placeOrder(t *testing.T) models.Order {
	t.Helper()
	o := models.Order{
		CustomerID:      f.customer.ID,
		RestaurantID:    f.restaurant.ID,
		CustomerName:    "Asha",
		CustomerAddress: "12 Park Street",
		CustomerPhone:   "555-0100",
		TotalPrice:      11,
		Status:          models.StatusPlaced,
		Items: []models.OrderItem{
			{MenuItemID: f.items[0].ID, Quantity: 1, PricePerItem: 8.5, Name: "Masala Dosa"},
			{MenuItemID: f.items[1].ID, Quantity: 1, PricePerItem: 2.5, Name: "Filter Coffee"},
		},
	}
	require.NoError(t, f.s.CreateOrder(context.Background(), &o))
	return o
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	f := setup(t)

	dup := models.User{Email: "ASHA@example.com", PasswordHash: "x", Role: models.RoleCustomer}
	err := f.s.CreateUser(context.Background(), &dup)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := f.s.GetUserByEmail(context.Background(), "Asha@Example.com")
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, got.ID)
}

func TestGetUser_NotFound(t *testing.T) {
	f := setup(t)
	_, err := f.s.GetUser(context.Background(), 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateRestaurant_OnePerOwner(t *testing.T) {
	f := setup(t)

	second := models.Restaurant{OwnerID: f.owner.ID, Name: "Second", Address: "x", Cuisine: "y"}
	assert.ErrorIs(t, f.s.CreateRestaurant(context.Background(), &second), apperr.ErrConflict)
}

func TestListRestaurants_Filters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other := models.User{Email: "pizza@example.com", PasswordHash: "x", Role: models.RoleRestaurant}
	require.NoError(t, f.s.CreateUser(ctx, &other))
	require.NoError(t, f.s.CreateRestaurant(ctx, &models.Restaurant{OwnerID: other.ID, Name: "Pizza Hub", Address: "x", Cuisine: "Italian"}))

	all, err := f.s.ListRestaurants(ctx, store.RestaurantFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	italian, err := f.s.ListRestaurants(ctx, store.RestaurantFilter{Cuisine: "Ital"})
	require.NoError(t, err)
	require.Len(t, italian, 1)
	assert.Equal(t, "Pizza Hub", italian[0].Name)

	dosa, err := f.s.ListRestaurants(ctx, store.RestaurantFilter{Search: "Dosa"})
	require.NoError(t, err)
	require.Len(t, dosa, 1)
	assert.Equal(t, f.restaurant.ID, dosa[0].ID)
}

func TestUpdateRestaurant(t *testing.T) {
	f := setup(t)

	lat := 12.97
	r, err := f.s.UpdateRestaurant(context.Background(), f.restaurant.ID, map[string]any{"name": "Dosa Palace", "latitude": lat})
	require.NoError(t, err)
	assert.Equal(t, "Dosa Palace", r.Name)
	require.NotNil(t, r.Latitude)
	assert.Equal(t, lat, *r.Latitude)
	assert.Nil(t, r.Longitude)
}

func TestGetMenuItems_SkipsMissing(t *testing.T) {
	f := setup(t)

	items, err := f.s.GetMenuItems(context.Background(), []uint{f.items[0].ID, 999, f.items[1].ID})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestMenuItemUpdateAndDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	item, err := f.s.UpdateMenuItem(ctx, f.items[0].ID, map[string]any{"price": 9.0})
	require.NoError(t, err)
	assert.Equal(t, 9.0, item.Price)

	require.NoError(t, f.s.DeleteMenuItem(ctx, f.items[0].ID))
	assert.ErrorIs(t, f.s.DeleteMenuItem(ctx, f.items[0].ID), apperr.ErrNotFound)
	_, err = f.s.GetMenuItem(ctx, f.items[0].ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateOrder_WritesItemsAndHistory(t *testing.T) {
	f := setup(t)
	o := f.placeOrder(t)

	got, err := f.s.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlaced, got.Status)
	assert.Nil(t, got.AgentID)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 8.5, got.Items[0].PricePerItem)
	require.Len(t, got.StatusHistory, 1)
	assert.Equal(t, models.StatusPlaced, got.StatusHistory[0].ToStatus)
	require.NotNil(t, got.Restaurant)
	assert.Equal(t, f.owner.ID, got.Restaurant.OwnerID)
}

func TestCreateOrder_NoItemsRollsBack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o := models.Order{CustomerID: f.customer.ID, RestaurantID: f.restaurant.ID, Status: models.StatusPlaced}
	assert.ErrorIs(t, f.s.CreateOrder(ctx, &o), apperr.ErrValidation)

	orders, err := f.s.ListOrders(ctx, store.OrderFilter{CustomerID: f.customer.ID})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderItems(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o := f.placeOrder(t)

	extra := []models.OrderItem{{MenuItemID: f.items[1].ID, Quantity: 2, PricePerItem: 2.5, Name: "Filter Coffee"}}
	require.NoError(t, f.s.CreateOrderItems(ctx, o.ID, extra))

	got, err := f.s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 3)
}

func TestUpdateOrderStatus_CompareAndSet(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o := f.placeOrder(t)

	require.NoError(t, f.s.UpdateOrderStatus(ctx, store.StatusChange{
		OrderID: o.ID, From: models.StatusPlaced, To: models.StatusPreparing, ActorID: f.owner.ID,
	}))

	// stale From
	err := f.s.UpdateOrderStatus(ctx, store.StatusChange{
		OrderID: o.ID, From: models.StatusPlaced, To: models.StatusRejected, ActorID: f.owner.ID,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	history, err := f.s.OrderHistory(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StatusPlaced, history[1].FromStatus)
	assert.Equal(t, models.StatusPreparing, history[1].ToStatus)
}

func TestUpdateOrderStatus_ClaimOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o := f.placeOrder(t)

	for _, step := range [][2]models.OrderStatus{
		{models.StatusPlaced, models.StatusPreparing},
		{models.StatusPreparing, models.StatusReadyForPickup},
	} {
		require.NoError(t, f.s.UpdateOrderStatus(ctx, store.StatusChange{OrderID: o.ID, From: step[0], To: step[1], ActorID: f.owner.ID}))
	}

	claim := store.StatusChange{
		OrderID: o.ID, From: models.StatusReadyForPickup, To: models.StatusPickedUp, ActorID: f.agent.ID, Claim: true,
	}
	require.NoError(t, f.s.UpdateOrderStatus(ctx, claim))
	assert.ErrorIs(t, f.s.UpdateOrderStatus(ctx, claim), apperr.ErrInvalidTransition)

	got, err := f.s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AgentID)
	assert.Equal(t, f.agent.ID, *got.AgentID)
	require.NotNil(t, got.Agent)
	assert.Equal(t, "Kiran", got.Agent.Name)

	other := uint(12345)
	err = f.s.UpdateOrderStatus(ctx, store.StatusChange{
		OrderID: o.ID, From: models.StatusPickedUp, To: models.StatusDelivered, ActorID: other, HeldBy: &other,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	require.NoError(t, f.s.UpdateOrderStatus(ctx, store.StatusChange{
		OrderID: o.ID, From: models.StatusPickedUp, To: models.StatusDelivered, ActorID: f.agent.ID, HeldBy: &f.agent.ID,
	}))
}

func TestListOrders_AvailableToAgent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	waiting := f.placeOrder(t)
	ready := f.placeOrder(t)
	for _, step := range [][2]models.OrderStatus{
		{models.StatusPlaced, models.StatusPreparing},
		{models.StatusPreparing, models.StatusReadyForPickup},
	} {
		require.NoError(t, f.s.UpdateOrderStatus(ctx, store.StatusChange{OrderID: ready.ID, From: step[0], To: step[1], ActorID: f.owner.ID}))
	}

	orders, err := f.s.ListOrders(ctx, store.OrderFilter{AvailableTo: f.agent.ID})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, ready.ID, orders[0].ID)

	byStatus, err := f.s.ListOrders(ctx, store.OrderFilter{RestaurantID: f.restaurant.ID, Status: models.StatusPlaced})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, waiting.ID, byStatus[0].ID)
}

func TestDeleteRestaurant_RefusedWithActiveOrders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o := f.placeOrder(t)

	assert.ErrorIs(t, f.s.DeleteRestaurant(ctx, f.restaurant.ID), apperr.ErrConflict)

	require.NoError(t, f.s.UpdateOrderStatus(ctx, store.StatusChange{
		OrderID: o.ID, From: models.StatusPlaced, To: models.StatusRejected, ActorID: f.owner.ID,
	}))
	require.NoError(t, f.s.DeleteRestaurant(ctx, f.restaurant.ID))

	menu, err := f.s.ListMenuItems(ctx, f.restaurant.ID)
	require.NoError(t, err)
	assert.Empty(t, menu)

	// the finished order keeps its snapshot
	got, err := f.s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Restaurant)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Masala Dosa", got.Items[0].Name)

	assert.ErrorIs(t, f.s.DeleteRestaurant(ctx, f.restaurant.ID), apperr.ErrNotFound)
}
