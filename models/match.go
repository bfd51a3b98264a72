package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/matchkid/datewheel"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "SCHEDULED"
	MatchFinished  MatchStatus = "FINISHED"
)

type Match struct {
	ID          uuid.UUID           `json:"id" db:"id"`
	ChallengeID *uuid.UUID          `json:"challenge_id,omitempty" db:"challenge_id"`
	TeamAID     uuid.UUID           `json:"team_a_id" db:"team_a_id"`
	TeamBID     uuid.UUID           `json:"team_b_id" db:"team_b_id"`
	Date        datewheel.LocalTime `json:"date" db:"date"`
	Location    string              `json:"location" db:"location"`
	Status      MatchStatus         `json:"status" db:"status"`
	Score       *string             `json:"score,omitempty" db:"score"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`

	TeamAName string `json:"team_a_name,omitempty" db:"-"`
	TeamBName string `json:"team_b_name,omitempty" db:"-"`
}
