package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/safar/barrio-store/internal/database"
	"github.com/safar/barrio-store/internal/models"
	"golang.org/x/text/unicode/norm"
)

const (
	AdminUsername = "briamCeo"
	AdminPassword = "12345"
)

type RegisterRequest struct {
	Username string      `validate:"required"`
	Password string      `validate:"required"`
	Role     models.Role `validate:"required,oneof=customer shopkeeper admin"`
}

// NormalizeUsername trims surrounding space and composes the name to NFC so
// visually identical names map to the same key.
func NormalizeUsername(username string) string {
	return norm.NFC.String(strings.TrimSpace(username))
}

func isReservedUsername(username string) bool {
	return strings.EqualFold(username, models.AdminChannel) || username == AdminUsername
}

func loadUsers(ctx context.Context, docs *database.DocStore) map[string]models.User {
	users := database.Load(ctx, docs, database.Users, map[string]models.User{})
	return withUsernames(users)
}

func withUsernames(users map[string]models.User) map[string]models.User {
	if users == nil {
		return map[string]models.User{}
	}
	for name, u := range users {
		u.Username = name
		users[name] = u
	}
	return users
}

// Register creates a customer or shopkeeper account and tells the admin
// channel about it. Administrator accounts cannot be registered. If the user
// is stored but the admin notification fails, the user is returned with an
// error wrapping database.ErrNotifyFailed.
func Register(ctx context.Context, docs *database.DocStore, req RegisterRequest) (*models.User, error) {
	req.Username = NormalizeUsername(req.Username)
	if err := check(req); err != nil {
		return nil, err
	}
	if req.Role == models.RoleAdmin {
		return nil, fmt.Errorf("%w: administrator accounts cannot be registered", database.ErrInvalidInput)
	}
	if isReservedUsername(req.Username) {
		return nil, database.ErrReservedName
	}

	user := models.User{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	}

	err := database.Update(ctx, docs, database.Users, map[string]models.User{}, func(users *map[string]models.User) (bool, error) {
		if *users == nil {
			*users = map[string]models.User{}
		}
		if _, ok := (*users)[user.Username]; ok {
			return false, database.ErrUserExists
		}
		(*users)[user.Username] = user
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	_, err = Notify(ctx, docs, models.AdminChannel, models.KindNewUser,
		fmt.Sprintf("New user registered: %s (%s)", user.Username, user.Role),
		map[string]string{"username": user.Username, "role": string(user.Role)})
	if err != nil {
		return &user, fmt.Errorf("%w: admin: %w", database.ErrNotifyFailed, err)
	}

	return &user, nil
}

// Authenticate compares the plaintext password stored for username.
func Authenticate(ctx context.Context, docs *database.DocStore, username, password string) (*Session, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, database.ErrInvalidCredential
	}

	user, ok := loadUsers(ctx, docs)[username]
	if !ok || user.Password != password {
		return nil, database.ErrInvalidCredential
	}

	return &Session{Username: username, Role: user.Role}, nil
}

// EnsureAdmin inserts the reserved administrator when it is missing. It
// reports whether a write happened.
func EnsureAdmin(ctx context.Context, docs *database.DocStore) (bool, error) {
	created := false
	err := database.Update(ctx, docs, database.Users, map[string]models.User{}, func(users *map[string]models.User) (bool, error) {
		if *users == nil {
			*users = map[string]models.User{}
		}
		if _, ok := (*users)[AdminUsername]; ok {
			return false, nil
		}
		(*users)[AdminUsername] = models.User{
			Username: AdminUsername,
			Password: AdminPassword,
			Role:     models.RoleAdmin,
		}
		created = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func GetUser(ctx context.Context, docs *database.DocStore, username string) (*models.User, error) {
	user, ok := loadUsers(ctx, docs)[NormalizeUsername(username)]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	return &user, nil
}

// ListUsers returns every account sorted by username.
func ListUsers(ctx context.Context, docs *database.DocStore) []models.User {
	users := loadUsers(ctx, docs)

	list := make([]models.User, 0, len(users))
	for _, u := range users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Username < list[j].Username
	})
	return list
}
