package models

import (
	"time"

	"github.com/google/uuid"
)

// TeamStats counts decisive results. Draws are not recorded.
type TeamStats struct {
	Wins   int `json:"wins"`
	Losses int `json:"loss"`
}

type Team struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	Sport     Sport     `json:"sport" db:"sport"`
	Category  Category  `json:"category" db:"category"`
	Level     Level     `json:"level" db:"level"`
	City      string    `json:"city,omitempty" db:"city"`
	Stats     TeamStats `json:"stats" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	Players []Player `json:"players,omitempty" db:"-"`
}

type Player struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TeamID    uuid.UUID `json:"team_id" db:"team_id"`
	Name      string    `json:"name" db:"name"`
	Number    *int      `json:"number,omitempty" db:"number"`
	Position  Position  `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TeamFilter narrows a team search. Zero fields do not filter.
type TeamFilter struct {
	Query    string
	Sport    Sport
	Category Category
	OwnerID  *uuid.UUID
}
