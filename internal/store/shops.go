package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/safar/barrio-store/internal/database"
	"github.com/safar/barrio-store/internal/models"
)

type RegisterStoreRequest struct {
	Owner    string `validate:"required"`
	Name     string `validate:"required"`
	Products []string
}

func loadStores(ctx context.Context, docs *database.DocStore) []models.Store {
	return database.Load(ctx, docs, database.Stores, []models.Store{})
}

// cleanProducts trims every name and drops blank entries, keeping order.
func cleanProducts(products []string) []string {
	cleaned := make([]string, 0, len(products))
	for _, p := range products {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return cleaned
}

func GetStoreFor(ctx context.Context, docs *database.DocStore, owner string) (*models.Store, error) {
	owner = NormalizeUsername(owner)
	for _, s := range loadStores(ctx, docs) {
		if s.Owner == owner {
			return &s, nil
		}
	}
	return nil, database.ErrStoreNotFound
}

// GetStoreByName returns the first store registered under name. Names are
// unique for new registrations; documents written before that may still hold
// duplicates, in which case the earliest store owns the name.
func GetStoreByName(ctx context.Context, docs *database.DocStore, name string) (*models.Store, error) {
	name = strings.TrimSpace(name)
	for _, s := range loadStores(ctx, docs) {
		if s.Name == name {
			return &s, nil
		}
	}
	return nil, database.ErrStoreNotFound
}

func ListStores(ctx context.Context, docs *database.DocStore) []models.Store {
	return loadStores(ctx, docs)
}

// RegisterStore creates the owner's store. An owner keeps their first store;
// later registrations are declined and should go through UpdateProducts.
// Store names are unique, ignoring case.
func RegisterStore(ctx context.Context, docs *database.DocStore, req RegisterStoreRequest) (*models.Store, error) {
	req.Owner = NormalizeUsername(req.Owner)
	req.Name = strings.TrimSpace(req.Name)
	if err := check(req); err != nil {
		return nil, err
	}

	owner, err := GetUser(ctx, docs, req.Owner)
	if err != nil {
		return nil, err
	}
	if owner.Role != models.RoleShopkeeper {
		return nil, database.ErrNotShopkeeper
	}

	store := models.Store{
		Name:     req.Name,
		Owner:    req.Owner,
		Products: cleanProducts(req.Products),
	}

	err = database.Update(ctx, docs, database.Stores, []models.Store{}, func(stores *[]models.Store) (bool, error) {
		for _, s := range *stores {
			if s.Owner == store.Owner {
				return false, database.ErrStoreExists
			}
			if strings.EqualFold(s.Name, store.Name) {
				return false, fmt.Errorf("%w: %s", database.ErrStoreNameTaken, s.Name)
			}
		}
		*stores = append(*stores, store)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return &store, nil
}

// UpdateProducts replaces the product list of owner's store. When the owner
// has no store nothing is written and (nil, nil) is returned.
func UpdateProducts(ctx context.Context, docs *database.DocStore, owner string, products []string) (*models.Store, error) {
	owner = NormalizeUsername(owner)

	var updated *models.Store
	err := database.Update(ctx, docs, database.Stores, []models.Store{}, func(stores *[]models.Store) (bool, error) {
		for i := range *stores {
			if (*stores)[i].Owner == owner {
				(*stores)[i].Products = cleanProducts(products)
				s := (*stores)[i]
				updated = &s
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
