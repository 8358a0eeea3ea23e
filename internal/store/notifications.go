package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/safar/barrio-store/internal/database"
	"github.com/safar/barrio-store/internal/models"
)

func loadNotifications(ctx context.Context, docs *database.DocStore) []models.Notification {
	return database.Load(ctx, docs, database.Notifications, []models.Notification{})
}

// Notify appends an unread notification for recipient.
func Notify(ctx context.Context, docs *database.DocStore, recipient string, kind models.NotificationKind, message string, metadata map[string]string) (*models.Notification, error) {
	if recipient == "" {
		return nil, fmt.Errorf("%w: empty recipient", database.ErrInvalidInput)
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	n := models.Notification{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Kind:      kind,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: nowFunc().UTC(),
		Read:      false,
	}

	err := database.Update(ctx, docs, database.Notifications, []models.Notification{}, func(list *[]models.Notification) (bool, error) {
		*list = append(*list, n)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func UnreadCount(ctx context.Context, docs *database.DocStore, recipient string) int {
	count := 0
	for _, n := range loadNotifications(ctx, docs) {
		if n.Recipient == recipient && !n.Read {
			count++
		}
	}
	return count
}

// ListFor returns recipient's notifications newest first. Entries with equal
// timestamps come out in reverse insertion order.
func ListFor(ctx context.Context, docs *database.DocStore, recipient string) []models.Notification {
	all := loadNotifications(ctx, docs)

	list := []models.Notification{}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Recipient == recipient {
			list = append(list, all[i])
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// MarkAllRead flips every unread notification of recipient and returns how
// many changed. Nothing is written when none did.
func MarkAllRead(ctx context.Context, docs *database.DocStore, recipient string) (int, error) {
	changed := 0
	err := database.Update(ctx, docs, database.Notifications, []models.Notification{}, func(list *[]models.Notification) (bool, error) {
		for i := range *list {
			if (*list)[i].Recipient == recipient && !(*list)[i].Read {
				(*list)[i].Read = true
				changed++
			}
		}
		return changed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
