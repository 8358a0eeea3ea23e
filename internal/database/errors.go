package database

import (
	"errors"
)

// ErrCollectionNotFound is returned by a Backend when nothing has been saved
// under the requested collection yet.
var ErrCollectionNotFound = errors.New("collection not found")

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrReservedName      = errors.New("reserved username")
	ErrUserExists        = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrNotShopkeeper     = errors.New("user is not a shopkeeper")
	ErrStoreExists       = errors.New("owner already has a store")
	ErrStoreNameTaken    = errors.New("store name already taken")
	ErrStoreNotFound     = errors.New("store not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrForbidden         = errors.New("operation not allowed for this user")
	ErrNotifyFailed      = errors.New("notification not delivered")
)

// IsValidation reports whether err is a declined operation rather than a
// storage failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidInput,
		ErrReservedName,
		ErrUserExists,
		ErrNotShopkeeper,
		ErrStoreExists,
		ErrStoreNameTaken,
		ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
