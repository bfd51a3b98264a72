package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/matchkid/datewheel"
)

type ChallengeStatus string

const (
	ChallengePending  ChallengeStatus = "PENDING"
	ChallengeAccepted ChallengeStatus = "ACCEPTED"
	ChallengeDeclined ChallengeStatus = "DECLINED"
)

// CounterProposalPrefix marks the message of a challenge that was sent back
// with a new date or location.
const CounterProposalPrefix = "[Contre-proposition] "

// Challenge is a match proposal from one team to another.
type Challenge struct {
	ID         uuid.UUID           `json:"id" db:"id"`
	FromTeamID uuid.UUID           `json:"from_team_id" db:"from_team_id"`
	ToTeamID   uuid.UUID           `json:"to_team_id" db:"to_team_id"`
	Date       datewheel.LocalTime `json:"date" db:"date"`
	Location   string              `json:"location" db:"location"`
	Message    string              `json:"message" db:"message"`
	Status     ChallengeStatus     `json:"status" db:"status"`
	CreatedAt  time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at" db:"updated_at"`

	FromTeamName string `json:"from_team_name,omitempty" db:"-"`
	ToTeamName   string `json:"to_team_name,omitempty" db:"-"`
}

// Inbox splits the challenges involving a coach's teams by direction.
type Inbox struct {
	Received []Challenge `json:"received"`
	Sent     []Challenge `json:"sent"`
}
