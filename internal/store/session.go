package store

import (
	"time"

	"github.com/safar/barrio-store/internal/models"
)

var nowFunc = time.Now

// Session is the authenticated identity a caller acts as. Presentation
// layers build one per request from Authenticate and pass it along.
type Session struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

func (s Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// RecipientFor returns the notification recipient a session reads from.
// Administrators read the shared admin channel, everyone else their username.
func RecipientFor(s Session) string {
	if s.IsAdmin() {
		return models.AdminChannel
	}
	return s.Username
}
