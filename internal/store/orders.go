package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/safar/barrio-store/internal/database"
	"github.com/safar/barrio-store/internal/models"
)

type CreateOrderRequest struct {
	Customer string `validate:"required"`
	Store    string `validate:"required"`
	Product  string `validate:"required"`
	Quantity int    `validate:"min=1,max=50"`
	Address  string `validate:"required"`
}

// loadOrders returns the order collection. Orders written before ids existed
// get the next free ids in collection order; they are persisted with the next
// save.
func loadOrders(ctx context.Context, docs *database.DocStore) []models.Order {
	return assignOrderIDs(database.Load(ctx, docs, database.Orders, []models.Order{}))
}

func assignOrderIDs(orders []models.Order) []models.Order {
	next := nextOrderID(orders)
	for i := range orders {
		if orders[i].ID == 0 {
			orders[i].ID = next
			next++
		}
	}
	return orders
}

func nextOrderID(orders []models.Order) int64 {
	var maxID int64
	for _, o := range orders {
		if o.ID > maxID {
			maxID = o.ID
		}
	}
	return maxID + 1
}

func orderMetadata(o models.Order) map[string]string {
	return map[string]string{
		"order_id": strconv.FormatInt(o.ID, 10),
		"customer": o.Customer,
		"store":    o.Store,
		"product":  o.Product,
		"quantity": strconv.Itoa(o.Quantity),
		"status":   string(o.Status),
	}
}

// CreateOrder appends a pending order and notifies the admin channel and,
// when the store resolves to an owner, the shopkeeper. A failed notification
// returns the stored order with an error wrapping database.ErrNotifyFailed.
func CreateOrder(ctx context.Context, docs *database.DocStore, req CreateOrderRequest) (*models.Order, error) {
	req.Customer = NormalizeUsername(req.Customer)
	req.Store = strings.TrimSpace(req.Store)
	req.Product = strings.TrimSpace(req.Product)
	req.Address = strings.TrimSpace(req.Address)
	if err := check(req); err != nil {
		return nil, err
	}

	var order models.Order
	err := database.Update(ctx, docs, database.Orders, []models.Order{}, func(orders *[]models.Order) (bool, error) {
		*orders = assignOrderIDs(*orders)
		order = models.Order{
			ID:        nextOrderID(*orders),
			Customer:  req.Customer,
			Store:     req.Store,
			Product:   req.Product,
			Quantity:  req.Quantity,
			Address:   req.Address,
			Status:    models.OrderStatusPending,
			CreatedAt: nowFunc().UTC(),
		}
		*orders = append(*orders, order)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	meta := orderMetadata(order)
	_, err = Notify(ctx, docs, models.AdminChannel, models.KindNewOrder,
		fmt.Sprintf("Order from %s: %s x%d", order.Customer, order.Product, order.Quantity), meta)
	if err != nil {
		return &order, fmt.Errorf("%w: admin: %w", database.ErrNotifyFailed, err)
	}

	shop, err := GetStoreByName(ctx, docs, order.Store)
	if err != nil {
		return &order, nil
	}
	_, err = Notify(ctx, docs, shop.Owner, models.KindNewOrder,
		fmt.Sprintf("You have a new order from %s: %s x%d", order.Customer, order.Product, order.Quantity), meta)
	if err != nil {
		return &order, fmt.Errorf("%w: store owner: %w", database.ErrNotifyFailed, err)
	}

	return &order, nil
}

func statusMessage(o models.Order) string {
	switch o.Status {
	case models.OrderStatusDelivered:
		return fmt.Sprintf("Your order of %s has been delivered", o.Product)
	default:
		return fmt.Sprintf("Your order of %s has been shipped", o.Product)
	}
}

// AdvanceStatus moves an order one step forward: pending to shipped, or
// shipped to delivered. Any other target is rejected without touching the
// order. Callers are responsible for checking that the acting user owns the
// order's store (see CanManageOrder).
func AdvanceStatus(ctx context.Context, docs *database.DocStore, id int64, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := database.Update(ctx, docs, database.Orders, []models.Order{}, func(orders *[]models.Order) (bool, error) {
		*orders = assignOrderIDs(*orders)
		for i := range *orders {
			o := &(*orders)[i]
			if o.ID != id {
				continue
			}
			next, ok := o.Status.Next()
			if !ok || next != status {
				return false, fmt.Errorf("%w: %s to %s", database.ErrInvalidTransition, o.Status, status)
			}
			o.Status = status
			order = *o
			return true, nil
		}
		return false, database.ErrOrderNotFound
	})
	if err != nil {
		return nil, err
	}

	_, err = Notify(ctx, docs, order.Customer, models.KindOrderShipped, statusMessage(order), orderMetadata(order))
	if err != nil {
		return &order, fmt.Errorf("%w: customer: %w", database.ErrNotifyFailed, err)
	}

	return &order, nil
}

// ownsStore reports whether owner is the shopkeeper an order placed against
// storeName belongs to. The name resolves the same way CreateOrder resolves
// the owner it notifies.
func ownsStore(ctx context.Context, docs *database.DocStore, owner, storeName string) bool {
	shop, err := GetStoreByName(ctx, docs, storeName)
	return err == nil && shop.Owner == NormalizeUsername(owner)
}

// CanManageOrder reports whether s may change the status of o: only the
// shopkeeper owning the order's store may.
func CanManageOrder(ctx context.Context, docs *database.DocStore, s Session, o models.Order) error {
	if s.Role != models.RoleShopkeeper || !ownsStore(ctx, docs, s.Username, o.Store) {
		return database.ErrForbidden
	}
	return nil
}

func GetOrder(ctx context.Context, docs *database.DocStore, id int64) (*models.Order, error) {
	for _, o := range loadOrders(ctx, docs) {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, database.ErrOrderNotFound
}

func ListOrders(ctx context.Context, docs *database.DocStore) []models.Order {
	return loadOrders(ctx, docs)
}

func ListForCustomer(ctx context.Context, docs *database.DocStore, customer string) []models.Order {
	customer = NormalizeUsername(customer)
	return filterOrders(loadOrders(ctx, docs), func(o models.Order) bool {
		return o.Customer == customer
	})
}

func ListForStore(ctx context.Context, docs *database.DocStore, storeName string) []models.Order {
	storeName = strings.TrimSpace(storeName)
	return filterOrders(loadOrders(ctx, docs), func(o models.Order) bool {
		return o.Store == storeName
	})
}

// ListForOwner returns the orders placed against owner's store, in insertion
// order. It is empty when owner has no store or does not own its name.
func ListForOwner(ctx context.Context, docs *database.DocStore, owner string) []models.Order {
	shop, err := GetStoreFor(ctx, docs, owner)
	if err != nil || !ownsStore(ctx, docs, owner, shop.Name) {
		return []models.Order{}
	}
	return ListForStore(ctx, docs, shop.Name)
}

func filterOrders(orders []models.Order, keep func(models.Order) bool) []models.Order {
	filtered := []models.Order{}
	for _, o := range orders {
		if keep(o) {
			filtered = append(filtered, o)
		}
	}
	return filtered
}
