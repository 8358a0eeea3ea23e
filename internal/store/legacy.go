package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/google/uuid"
	"github.com/safar/barrio-store/internal/database"
	"github.com/safar/barrio-store/internal/models"
)

// Files written by the prototype into its working directory.
const (
	LegacyUsersFile         = "usuarios.json"
	LegacyStoresFile        = "tiendas.json"
	LegacyOrdersFile        = "pedidos.json"
	LegacyNotificationsFile = "notificaciones.json"
)

type ImportResult struct {
	Users         int
	Stores        int
	Orders        int
	Notifications int
	Skipped       int
}

// readLegacy decodes name from fsys into v. A missing file leaves v alone.
func readLegacy(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// ImportLegacy merges the prototype's JSON files found in fsys into docs.
// Existing usernames and taken store names are skipped. Orders get fresh ids
// and notifications fresh uuids; both are appended on every run. Prototype
// stores carry no owner. A shopkeeper's orders were those placed against
// their username, so a store without owner goes to the user named like it.
func ImportLegacy(ctx context.Context, docs *database.DocStore, fsys fs.FS) (ImportResult, error) {
	var res ImportResult

	var users map[string]models.User
	var stores []models.Store
	var orders []models.Order
	var notes []models.Notification

	for _, f := range []struct {
		name string
		v    any
	}{
		{LegacyUsersFile, &users},
		{LegacyStoresFile, &stores},
		{LegacyOrdersFile, &orders},
		{LegacyNotificationsFile, &notes},
	} {
		if err := readLegacy(fsys, f.name, f.v); err != nil {
			return res, err
		}
	}

	if len(users) > 0 {
		err := database.Update(ctx, docs, database.Users, map[string]models.User{}, func(current *map[string]models.User) (bool, error) {
			if *current == nil {
				*current = map[string]models.User{}
			}
			changed := false
			for name, u := range users {
				name = NormalizeUsername(name)
				if _, ok := (*current)[name]; ok || name == "" || u.Role == "" {
					res.Skipped++
					continue
				}
				u.Username = name
				(*current)[name] = u
				res.Users++
				changed = true
			}
			return changed, nil
		})
		if err != nil {
			return res, fmt.Errorf("import users: %w", err)
		}
	}

	if len(stores) > 0 {
		err := database.Update(ctx, docs, database.Stores, []models.Store{}, func(current *[]models.Store) (bool, error) {
			changed := false
			for _, s := range stores {
				s.Name = strings.TrimSpace(s.Name)
				if s.Owner == "" {
					s.Owner = NormalizeUsername(s.Name)
				}
				if s.Name == "" || storeTaken(*current, s) {
					res.Skipped++
					continue
				}
				s.Products = cleanProducts(s.Products)
				*current = append(*current, s)
				res.Stores++
				changed = true
			}
			return changed, nil
		})
		if err != nil {
			return res, fmt.Errorf("import stores: %w", err)
		}
	}

	if len(orders) > 0 {
		err := database.Update(ctx, docs, database.Orders, []models.Order{}, func(current *[]models.Order) (bool, error) {
			*current = assignOrderIDs(*current)
			for _, o := range orders {
				o.ID = 0
				if o.Status == "" {
					o.Status = models.OrderStatusPending
				}
				*current = append(*current, o)
				res.Orders++
			}
			*current = assignOrderIDs(*current)
			return true, nil
		})
		if err != nil {
			return res, fmt.Errorf("import orders: %w", err)
		}
	}

	if len(notes) > 0 {
		err := database.Update(ctx, docs, database.Notifications, []models.Notification{}, func(current *[]models.Notification) (bool, error) {
			for _, n := range notes {
				if n.Recipient == "" {
					res.Skipped++
					continue
				}
				n.ID = uuid.NewString()
				if n.Metadata == nil {
					n.Metadata = map[string]string{}
				}
				*current = append(*current, n)
				res.Notifications++
			}
			return res.Notifications > 0, nil
		})
		if err != nil {
			return res, fmt.Errorf("import notifications: %w", err)
		}
	}

	return res, nil
}

func storeTaken(stores []models.Store, s models.Store) bool {
	for _, existing := range stores {
		if existing.Owner == s.Owner || strings.EqualFold(existing.Name, s.Name) {
			return true
		}
	}
	return false
}
