package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCoach Role = "coach"
	RoleAdmin Role = "admin"
)

// User is a coach profile.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	City         string    `json:"city,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
