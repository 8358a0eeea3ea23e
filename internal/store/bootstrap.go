package store

import (
	"context"

	"github.com/safar/barrio-store/internal/database"
	"github.com/safar/barrio-store/internal/models"
)

// Bootstrap writes an empty document for every missing collection and makes
// sure the administrator exists. Run it once before serving requests.
func Bootstrap(ctx context.Context, docs *database.DocStore) error {
	for _, c := range database.AllCollections {
		exists, err := docs.Exists(ctx, c)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		switch c {
		case database.Users:
			err = database.Save(ctx, docs, c, map[string]models.User{})
		case database.Stores:
			err = database.Save(ctx, docs, c, []models.Store{})
		case database.Orders:
			err = database.Save(ctx, docs, c, []models.Order{})
		case database.Notifications:
			err = database.Save(ctx, docs, c, []models.Notification{})
		}
		if err != nil {
			return err
		}
	}

	_, err := EnsureAdmin(ctx, docs)
	return err
}
