package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleShopkeeper Role = "shopkeeper"
	RoleAdmin      Role = "admin"
)

// Documents written by the first prototype use Spanish role names.
var roleAliases = map[string]Role{
	"customer":   RoleCustomer,
	"cliente":    RoleCustomer,
	"shopkeeper": RoleShopkeeper,
	"tendero":    RoleShopkeeper,
	"admin":      RoleAdmin,
}

func ParseRole(s string) (Role, error) {
	if r, ok := roleAliases[s]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

var statusAliases = map[string]OrderStatus{
	"pending":   OrderStatusPending,
	"pendiente": OrderStatusPending,
	"shipped":   OrderStatusShipped,
	"enviado":   OrderStatusShipped,
	"delivered": OrderStatusDelivered,
	"entregado": OrderStatusDelivered,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	if st, ok := statusAliases[s]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseOrderStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Next returns the only status an order may move to from s.
// Delivered orders have no successor.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderStatusPending:
		return OrderStatusShipped, true
	case OrderStatusShipped:
		return OrderStatusDelivered, true
	default:
		return "", false
	}
}

type NotificationKind string

const (
	KindNewUser      NotificationKind = "new_user"
	KindNewOrder     NotificationKind = "new_order"
	KindOrderShipped NotificationKind = "order_shipped"
)

var kindAliases = map[string]NotificationKind{
	"nuevo_usuario":  KindNewUser,
	"nuevo_pedido":   KindNewOrder,
	"pedido_enviado": KindOrderShipped,
}

// UnmarshalJSON maps the prototype's kind names; other values are kept as is.
func (k *NotificationKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if alias, ok := kindAliases[raw]; ok {
		*k = alias
		return nil
	}
	*k = NotificationKind(raw)
	return nil
}

// AdminChannel is the recipient of every notification addressed to the
// administrator. It is not a username.
const AdminChannel = "admin"

type User struct {
	Username string `json:"-"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type Store struct {
	Name     string   `json:"name"`
	Owner    string   `json:"owner"`
	Products []string `json:"products"`
}

type Order struct {
	ID        int64       `json:"id"`
	Customer  string      `json:"customer"`
	Store     string      `json:"store"`
	Product   string      `json:"product"`
	Quantity  int         `json:"quantity"`
	Address   string      `json:"address"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

type Notification struct {
	ID        string            `json:"id"`
	Recipient string            `json:"recipient"`
	Kind      NotificationKind  `json:"kind"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
	Read      bool              `json:"read"`
}

// LegacyTimeLayout is how the prototype stamped "fecha" fields, in local time.
const LegacyTimeLayout = "2006-01-02 15:04:05"

func parseLegacyTime(s string) time.Time {
	t, err := time.ParseInLocation(LegacyTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// The decoders below also accept the prototype's Spanish field names. The
// current names win when both are present.

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	if err := json.Unmarshal(data, (*plain)(u)); err != nil {
		return err
	}

	var legacy struct {
		Rol *Role `json:"rol"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	if u.Role == "" && legacy.Rol != nil {
		u.Role = *legacy.Rol
	}
	return nil
}

func (s *Store) UnmarshalJSON(data []byte) error {
	type plain Store
	if err := json.Unmarshal(data, (*plain)(s)); err != nil {
		return err
	}

	var legacy struct {
		Nombre string `json:"nombre"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	if s.Name == "" {
		s.Name = legacy.Nombre
	}
	return nil
}

func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	if err := json.Unmarshal(data, (*plain)(o)); err != nil {
		return err
	}

	var legacy struct {
		Usuario   string       `json:"usuario"`
		Tienda    string       `json:"tienda"`
		Producto  string       `json:"producto"`
		Cantidad  int          `json:"cantidad"`
		Direccion string       `json:"direccion"`
		Estado    *OrderStatus `json:"estado"`
		Fecha     string       `json:"fecha"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	if o.Customer == "" {
		o.Customer = legacy.Usuario
	}
	if o.Store == "" {
		o.Store = legacy.Tienda
	}
	if o.Product == "" {
		o.Product = legacy.Producto
	}
	if o.Quantity == 0 {
		o.Quantity = legacy.Cantidad
	}
	if o.Address == "" {
		o.Address = legacy.Direccion
	}
	if o.Status == "" && legacy.Estado != nil {
		o.Status = *legacy.Estado
	}
	if o.CreatedAt.IsZero() && legacy.Fecha != "" {
		o.CreatedAt = parseLegacyTime(legacy.Fecha)
	}
	return nil
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	type plain Notification
	if err := json.Unmarshal(data, (*plain)(n)); err != nil {
		return err
	}

	var legacy struct {
		Para    string           `json:"para"`
		Tipo    NotificationKind `json:"tipo"`
		Mensaje string           `json:"mensaje"`
		Meta    map[string]any   `json:"meta"`
		Fecha   string           `json:"fecha"`
		Leido   bool             `json:"leido"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	if n.Recipient == "" {
		n.Recipient = legacy.Para
	}
	if n.Kind == "" {
		n.Kind = legacy.Tipo
	}
	if n.Message == "" {
		n.Message = legacy.Mensaje
	}
	if n.Metadata == nil && legacy.Meta != nil {
		n.Metadata = make(map[string]string, len(legacy.Meta))
		for k, v := range legacy.Meta {
			n.Metadata[k] = fmt.Sprint(v)
		}
	}
	if n.CreatedAt.IsZero() && legacy.Fecha != "" {
		n.CreatedAt = parseLegacyTime(legacy.Fecha)
	}
	n.Read = n.Read || legacy.Leido
	return nil
}
