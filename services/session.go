package services

import (
	"github.com/google/uuid"

	"github.com/Dosada05/matchkid/models"
)

// Session identifies the authenticated coach on whose behalf an operation runs.
// It is passed explicitly into every service call that needs a user.
type Session struct {
	UserID uuid.UUID
	Role   models.Role
}

func (s Session) IsZero() bool { return s.UserID == uuid.Nil }

func (s Session) IsAdmin() bool { return s.Role == models.RoleAdmin }

func (s Session) require() error {
	if s.IsZero() {
		return ErrUnauthenticated
	}
	return nil
}
