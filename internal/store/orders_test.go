package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/safar/barrio-store/internal/database"
	"github.com/safar/barrio-store/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupShop registers a shopkeeper with store Tienda1 and a customer ana.
func setupShop(t *testing.T) *database.DocStore {
	t.Helper()
	docs, _ := newTestDocs(t)
	registerUser(t, docs, "ana", models.RoleCustomer)
	registerUser(t, docs, "tienda1-owner", models.RoleShopkeeper)
	_, err := RegisterStore(context.Background(), docs, RegisterStoreRequest{
		Owner:    "tienda1-owner",
		Name:     "Tienda1",
		Products: []string{"pan", "leche"},
	})
	require.NoError(t, err)
	return docs
}

func placeOrder(t *testing.T, docs *database.DocStore, product string) *models.Order {
	t.Helper()
	order, err := CreateOrder(context.Background(), docs, CreateOrderRequest{
		Customer: "ana",
		Store:    "Tienda1",
		Product:  product,
		Quantity: 2,
		Address:  "Calle 1",
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrderNotifiesAdminAndOwner(t *testing.T) {
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	fixClock(t, start, time.Second)
	docs := setupShop(t)
	ctx := context.Background()

	adminBefore := UnreadCount(ctx, docs, models.AdminChannel)
	ownerBefore := UnreadCount(ctx, docs, "tienda1-owner")

	order := placeOrder(t, docs, "pan")

	assert.Equal(t, int64(1), order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	// two registrations stamped their admin notifications first
	assert.Equal(t, start.Add(2*time.Second), order.CreatedAt)

	assert.Equal(t, adminBefore+1, UnreadCount(ctx, docs, models.AdminChannel))
	assert.Equal(t, ownerBefore+1, UnreadCount(ctx, docs, "tienda1-owner"))

	owner := ListFor(ctx, docs, "tienda1-owner")
	require.Len(t, owner, 1)
	assert.Equal(t, models.KindNewOrder, owner[0].Kind)
	assert.Equal(t, "You have a new order from ana: pan x2", owner[0].Message)
	assert.Equal(t, "1", owner[0].Metadata["order_id"])

	admin := ListFor(ctx, docs, models.AdminChannel)
	assert.Equal(t, models.KindNewOrder, admin[0].Kind)
	assert.Equal(t, "Order from ana: pan x2", admin[0].Message)
}

func TestCreateOrderUnknownStoreSkipsOwner(t *testing.T) {
	docs := setupShop(t)
	ctx := context.Background()
	adminBefore := UnreadCount(ctx, docs, models.AdminChannel)

	order, err := CreateOrder(ctx, docs, CreateOrderRequest{
		Customer: "ana",
		Store:    "Tienda temporal",
		Product:  "pan",
		Quantity: 1,
		Address:  "Calle 1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tienda temporal", order.Store)

	assert.Equal(t, adminBefore+1, UnreadCount(ctx, docs, models.AdminChannel))
	assert.Zero(t, UnreadCount(ctx, docs, "tienda1-owner"))
}

func TestCreateOrderValidation(t *testing.T) {
	docs := setupShop(t)
	ctx := context.Background()
	valid := CreateOrderRequest{Customer: "ana", Store: "Tienda1", Product: "pan", Quantity: 1, Address: "Calle 1"}

	tests := []struct {
		name   string
		mutate func(r *CreateOrderRequest)
	}{
		{"empty product", func(r *CreateOrderRequest) { r.Product = " " }},
		{"empty address", func(r *CreateOrderRequest) { r.Address = "" }},
		{"zero quantity", func(r *CreateOrderRequest) { r.Quantity = 0 }},
		{"negative quantity", func(r *CreateOrderRequest) { r.Quantity = -3 }},
		{"empty customer", func(r *CreateOrderRequest) { r.Customer = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			_, err := CreateOrder(ctx, docs, req)
			assert.ErrorIs(t, err, database.ErrInvalidInput)
		})
	}

	assert.Empty(t, ListOrders(ctx, docs))
}

func TestOrderIDsAreSequential(t *testing.T) {
	docs := setupShop(t)

	first := placeOrder(t, docs, "pan")
	second := placeOrder(t, docs, "leche")

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestAdvanceStatusForwardOnly(t *testing.T) {
	docs := setupShop(t)
	ctx := context.Background()
	order := placeOrder(t, docs, "pan")

	shipped, err := AdvanceStatus(ctx, docs, order.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, shipped.Status)

	_, err = AdvanceStatus(ctx, docs, order.ID, models.OrderStatusPending)
	assert.ErrorIs(t, err, database.ErrInvalidTransition)
	_, err = AdvanceStatus(ctx, docs, order.ID, models.OrderStatusShipped)
	assert.ErrorIs(t, err, database.ErrInvalidTransition)

	delivered, err := AdvanceStatus(ctx, docs, order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, delivered.Status)

	got, err := GetOrder(ctx, docs, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, got.Status)

	msgs := ListFor(ctx, docs, "ana")
	require.Len(t, msgs, 2)
	for _, n := range msgs {
		assert.Equal(t, models.KindOrderShipped, n.Kind)
	}
}

func TestAdvanceStatusRejectsSkippingShipped(t *testing.T) {
	docs := setupShop(t)
	ctx := context.Background()
	order := placeOrder(t, docs, "pan")

	_, err := AdvanceStatus(ctx, docs, order.ID, models.OrderStatusDelivered)
	assert.ErrorIs(t, err, database.ErrInvalidTransition)

	got, err := GetOrder(ctx, docs, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
}

func TestAdvanceStatusFromDeliveredChangesNothing(t *testing.T) {
	docs, backend := newTestDocs(t)
	ctx := context.Background()
	registerUser(t, docs, "ana", models.RoleCustomer)
	registerUser(t, docs, "tienda1-owner", models.RoleShopkeeper)
	_, err := RegisterStore(ctx, docs, RegisterStoreRequest{Owner: "tienda1-owner", Name: "Tienda1"})
	require.NoError(t, err)
	order := placeOrder(t, docs, "pan")
	_, err = AdvanceStatus(ctx, docs, order.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	_, err = AdvanceStatus(ctx, docs, order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)

	orderWrites := backend.Writes(database.Orders)
	notifWrites := backend.Writes(database.Notifications)
	unread := UnreadCount(ctx, docs, "ana")

	for _, target := range []models.OrderStatus{models.OrderStatusPending, models.OrderStatusShipped, models.OrderStatusDelivered} {
		_, err := AdvanceStatus(ctx, docs, order.ID, target)
		assert.ErrorIs(t, err, database.ErrInvalidTransition)
	}

	assert.Equal(t, orderWrites, backend.Writes(database.Orders))
	assert.Equal(t, notifWrites, backend.Writes(database.Notifications))
	assert.Equal(t, unread, UnreadCount(ctx, docs, "ana"))
}

func TestAdvanceStatusUnknownOrder(t *testing.T) {
	docs := setupShop(t)

	_, err := AdvanceStatus(context.Background(), docs, 99, models.OrderStatusShipped)
	assert.ErrorIs(t, err, database.ErrOrderNotFound)
}

func TestCanManageOrder(t *testing.T) {
	docs := setupShop(t)
	ctx := context.Background()
	registerUser(t, docs, "otro-owner", models.RoleShopkeeper)
	_, err := RegisterStore(ctx, docs, RegisterStoreRequest{Owner: "otro-owner", Name: "Tienda2"})
	require.NoError(t, err)
	registerUser(t, docs, "sin-tienda", models.RoleShopkeeper)
	order := placeOrder(t, docs, "pan")

	assert.NoError(t, CanManageOrder(ctx, docs, Session{Username: "tienda1-owner", Role: models.RoleShopkeeper}, *order))
	assert.ErrorIs(t, CanManageOrder(ctx, docs, Session{Username: "otro-owner", Role: models.RoleShopkeeper}, *order), database.ErrForbidden)
	assert.ErrorIs(t, CanManageOrder(ctx, docs, Session{Username: "sin-tienda", Role: models.RoleShopkeeper}, *order), database.ErrForbidden)
	assert.ErrorIs(t, CanManageOrder(ctx, docs, Session{Username: "ana", Role: models.RoleCustomer}, *order), database.ErrForbidden)
	assert.ErrorIs(t, CanManageOrder(ctx, docs, Session{Username: AdminUsername, Role: models.RoleAdmin}, *order), database.ErrForbidden)
}

func TestListFiltersKeepInsertionOrder(t *testing.T) {
	docs := setupShop(t)
	ctx := context.Background()
	registerUser(t, docs, "luis", models.RoleCustomer)

	placeOrder(t, docs, "pan")
	_, err := CreateOrder(ctx, docs, CreateOrderRequest{Customer: "luis", Store: "Tienda2", Product: "sal", Quantity: 1, Address: "Calle 9"})
	require.NoError(t, err)
	placeOrder(t, docs, "leche")

	mine := ListForCustomer(ctx, docs, "ana")
	require.Len(t, mine, 2)
	assert.Equal(t, "pan", mine[0].Product)
	assert.Equal(t, "leche", mine[1].Product)

	shop := ListForStore(ctx, docs, "Tienda1")
	require.Len(t, shop, 2)
	assert.Equal(t, int64(1), shop[0].ID)
	assert.Equal(t, int64(3), shop[1].ID)

	assert.Empty(t, ListForCustomer(ctx, docs, "nobody"))
	assert.Len(t, ListOrders(ctx, docs), 3)
}

func TestLegacyOrdersGetStableIDs(t *testing.T) {
	backend := database.NewMemoryBackend()
	backend.Put(database.Orders, []byte(`[
		{"customer": "ana", "store": "Tienda1", "product": "pan", "quantity": 1, "address": "Calle 1", "status": "pendiente"},
		{"customer": "ana", "store": "Tienda1", "product": "pan", "quantity": 1, "address": "Calle 1", "status": "pendiente"}
	]`))
	docs := database.NewDocStore(backend, nil)
	ctx := context.Background()
	require.NoError(t, Bootstrap(ctx, docs))

	orders := ListOrders(ctx, docs)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(1), orders[0].ID)
	assert.Equal(t, int64(2), orders[1].ID)

	_, err := AdvanceStatus(ctx, docs, 2, models.OrderStatusShipped)
	require.NoError(t, err)

	orders = ListOrders(ctx, docs)
	assert.Equal(t, models.OrderStatusPending, orders[0].Status)
	assert.Equal(t, models.OrderStatusShipped, orders[1].Status)
}

func TestDuplicateStoreNamesResolveToFirstOwner(t *testing.T) {
	backend := database.NewMemoryBackend()
	backend.Put(database.Stores, []byte(`[
		{"name": "Tienda1", "owner": "a-owner", "products": ["pan"]},
		{"name": "Tienda1", "owner": "b-owner", "products": ["sal"]}
	]`))
	docs := database.NewDocStore(backend, nil)
	ctx := context.Background()
	require.NoError(t, Bootstrap(ctx, docs))
	registerUser(t, docs, "ana", models.RoleCustomer)
	registerUser(t, docs, "a-owner", models.RoleShopkeeper)
	registerUser(t, docs, "b-owner", models.RoleShopkeeper)

	order := placeOrder(t, docs, "pan")

	assert.Equal(t, 1, UnreadCount(ctx, docs, "a-owner"))
	assert.Zero(t, UnreadCount(ctx, docs, "b-owner"))

	assert.NoError(t, CanManageOrder(ctx, docs, Session{Username: "a-owner", Role: models.RoleShopkeeper}, *order))
	assert.ErrorIs(t, CanManageOrder(ctx, docs, Session{Username: "b-owner", Role: models.RoleShopkeeper}, *order), database.ErrForbidden)

	assert.Len(t, ListForOwner(ctx, docs, "a-owner"), 1)
	assert.Empty(t, ListForOwner(ctx, docs, "b-owner"))
	assert.Empty(t, ListForOwner(ctx, docs, "ana"))
}

func TestCreateOrderQuantityBounds(t *testing.T) {
	docs := setupShop(t)
	ctx := context.Background()

	req := CreateOrderRequest{Customer: "ana", Store: "Tienda1", Product: "pan", Quantity: 51, Address: "Calle 1"}
	_, err := CreateOrder(ctx, docs, req)
	assert.ErrorIs(t, err, database.ErrInvalidInput)

	req.Quantity = 50
	order, err := CreateOrder(ctx, docs, req)
	require.NoError(t, err)
	assert.Equal(t, 50, order.Quantity)
}

func TestCreateOrderKeepsMalformedOrdersAside(t *testing.T) {
	docs := setupShop(t)
	ctx := context.Background()
	raw := []byte(`[
		{"id": 1, "customer": "ana", "store": "Tienda1", "product": "pan", "quantity": 1, "address": "Calle 1", "status": "pending"},
		{"id": 2, "customer": "ana", "store": "Tienda1", "product": "sal", "quantity": 1, "address": "Calle 1", "status": "cancelled"}
	]`)
	require.NoError(t, database.Save(ctx, docs, database.Orders, json.RawMessage(raw)))

	_, err := CreateOrder(ctx, docs, CreateOrderRequest{Customer: "ana", Store: "Tienda1", Product: "leche", Quantity: 1, Address: "Calle 1"})
	require.NoError(t, err)

	assert.Len(t, ListOrders(ctx, docs), 1)
	kept := database.Load(ctx, docs, database.CorruptCollection(database.Orders), json.RawMessage(nil))
	assert.Contains(t, string(kept), `"cancelled"`)
}

func TestNotificationFailureKeepsOrder(t *testing.T) {
	backend := &notifyOutage{MemoryBackend: database.NewMemoryBackend()}
	docs := database.NewDocStore(backend, nil)
	ctx := context.Background()
	require.NoError(t, Bootstrap(ctx, docs))
	registerUser(t, docs, "ana", models.RoleCustomer)
	backend.down = true

	order, err := CreateOrder(ctx, docs, CreateOrderRequest{Customer: "ana", Store: "Tienda1", Product: "pan", Quantity: 1, Address: "Calle 1"})
	assert.ErrorIs(t, err, database.ErrNotifyFailed)
	require.NotNil(t, order)
	assert.Len(t, ListOrders(ctx, docs), 1)

	user, err := Register(ctx, docs, RegisterRequest{Username: "luis", Password: "pw", Role: models.RoleCustomer})
	assert.ErrorIs(t, err, database.ErrNotifyFailed)
	require.NotNil(t, user)
	_, err = GetUser(ctx, docs, "luis")
	assert.NoError(t, err)
}
