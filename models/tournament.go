package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/matchkid/datewheel"
)

type TournamentStatus string

const (
	TournamentOpen   TournamentStatus = "OPEN"
	TournamentClosed TournamentStatus = "CLOSED"
)

// DefaultMaxTeams applies when a tournament is created without a capacity.
const DefaultMaxTeams = 8

type Tournament struct {
	ID        uuid.UUID           `json:"id" db:"id"`
	OwnerID   uuid.UUID           `json:"owner_id" db:"owner_id"`
	Name      string              `json:"name" db:"name"`
	Sport     Sport               `json:"sport" db:"sport"`
	Category  Category            `json:"category" db:"category"`
	Date      datewheel.LocalTime `json:"date" db:"date"`
	Location  string              `json:"location" db:"location"`
	MaxTeams  int                 `json:"max_teams" db:"max_teams"`
	Status    TournamentStatus    `json:"status" db:"status"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`

	TeamsRegistered []uuid.UUID `json:"teams_registered" db:"-"`
}

// IsFull reports whether no further team may register.
func (t Tournament) IsFull() bool {
	return len(t.TeamsRegistered) >= t.MaxTeams
}

type Registration struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TournamentID uuid.UUID `json:"tournament_id" db:"tournament_id"`
	TeamID       uuid.UUID `json:"team_id" db:"team_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type TournamentFilter struct {
	Query    string
	Sport    Sport
	Category Category
}
