package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownValue is returned when a value is not part of a closed enum.
var ErrUnknownValue = errors.New("unknown value")

type Sport string

const (
	SportFootball   Sport = "Football"
	SportFutsal     Sport = "Futsal"
	SportBasketball Sport = "Basketball"
	SportHandball   Sport = "Handball"
	SportVolleyball Sport = "Volleyball"
)

var Sports = []Sport{SportFootball, SportFutsal, SportBasketball, SportHandball, SportVolleyball}

// Category is an age group. Values are the labels shown to coaches.
type Category string

const (
	CategoryU7U9   Category = "U7/U8/U9"
	CategoryU9U11  Category = "U9/U10/U11"
	CategoryU11U13 Category = "U11/U12/U13"
	CategoryU13U15 Category = "U13/U14/U15"
	CategoryU15U17 Category = "U15/U16/U17"
	CategoryU17U19 Category = "U17/U18/U19"
	CategoryAdults Category = "Adultes"
)

var Categories = []Category{
	CategoryU7U9, CategoryU9U11, CategoryU11U13, CategoryU13U15,
	CategoryU15U17, CategoryU17U19, CategoryAdults,
}

type Level string

const (
	LevelBeginner     Level = "Débutant"
	LevelIntermediate Level = "Intermédiaire"
	LevelAdvanced     Level = "Avancé"
	LevelElite        Level = "Elite"
)

var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced, LevelElite}

// Position of a player. The empty value means "not specified".
type Position string

const (
	PositionNone       Position = ""
	PositionGoalkeeper Position = "Gardien"
	PositionDefender   Position = "Défenseur"
	PositionMidfielder Position = "Milieu"
	PositionForward    Position = "Attaquant"
)

var Positions = []Position{PositionNone, PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionForward}

// legacyGoalkeeper is how older clients spell the goalkeeper position.
const legacyGoalkeeper = "Gardon"

func normalizePosition(s string) string {
	if s == legacyGoalkeeper {
		return string(PositionGoalkeeper)
	}
	return s
}

func parseEnum[T ~string](kind, s string, allowed []T) (T, error) {
	for _, v := range allowed {
		if string(v) == s {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w for %s: %q", ErrUnknownValue, kind, s)
}

func unmarshalEnum[T ~string](data []byte, kind string, allowed []T, dst *T) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w for %s: %s", ErrUnknownValue, kind, data)
	}
	v, err := parseEnum(kind, raw, allowed)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func ParseSport(s string) (Sport, error)       { return parseEnum("sport", s, Sports) }
func ParseCategory(s string) (Category, error) { return parseEnum("category", s, Categories) }
func ParseLevel(s string) (Level, error)       { return parseEnum("level", s, Levels) }
func ParsePosition(s string) (Position, error) {
	return parseEnum("position", normalizePosition(s), Positions)
}

func (s *Sport) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, "sport", Sports, s)
}

func (c *Category) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, "category", Categories, c)
}

func (l *Level) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, "level", Levels, l)
}

func (p *Position) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = PositionNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w for position: %s", ErrUnknownValue, data)
	}
	v, err := ParsePosition(raw)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
