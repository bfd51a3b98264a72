package datewheel

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the naive local timestamp exchanged with the client (no zone offset).
const Layout = "2006-01-02T15:04"

var ErrInvalidLocalTime = errors.New("datetime must use the YYYY-MM-DDTHH:mm format")

// acceptedLayouts are tried in order by Parse. Anything finer than a minute and any
// zone offset are dropped; only the wall clock is kept.
var acceptedLayouts = []string{
	Layout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// LocalTime is a wall-clock date and time at minute precision, without a zone.
// The zero value means "not set".
type LocalTime struct {
	t time.Time
}

// New builds a LocalTime from calendar fields. Out-of-range fields are normalized
// the way time.Date does.
func New(year int, month time.Month, day, hour, minute int) LocalTime {
	return LocalTime{t: time.Date(year, month, day, hour, minute, 0, 0, time.UTC)}
}

// FromTime keeps the wall clock of t as read in t's own location.
func FromTime(t time.Time) LocalTime {
	if t.IsZero() {
		return LocalTime{}
	}
	return New(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute())
}

func Parse(s string) (LocalTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LocalTime{}, ErrInvalidLocalTime
	}
	for _, layout := range acceptedLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return FromTime(t), nil
		}
	}
	return LocalTime{}, fmt.Errorf("%w: %q", ErrInvalidLocalTime, s)
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) LocalTime {
	lt, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return lt
}

func (lt LocalTime) IsZero() bool { return lt.t.IsZero() }

// Time returns the wall clock as a time.Time located in UTC.
func (lt LocalTime) Time() time.Time { return lt.t }

func (lt LocalTime) Year() int         { return lt.t.Year() }
func (lt LocalTime) Month() time.Month { return lt.t.Month() }
func (lt LocalTime) Day() int          { return lt.t.Day() }
func (lt LocalTime) Hour() int         { return lt.t.Hour() }
func (lt LocalTime) Minute() int       { return lt.t.Minute() }

func (lt LocalTime) Equal(other LocalTime) bool  { return lt.t.Equal(other.t) }
func (lt LocalTime) Before(other LocalTime) bool { return lt.t.Before(other.t) }

func (lt LocalTime) String() string {
	if lt.IsZero() {
		return ""
	}
	return lt.t.Format(Layout)
}

func (lt LocalTime) MarshalJSON() ([]byte, error) {
	if lt.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(lt.String())
}

func (lt *LocalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*lt = LocalTime{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrInvalidLocalTime
	}
	if strings.TrimSpace(raw) == "" {
		*lt = LocalTime{}
		return nil
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*lt = parsed
	return nil
}

// Scan reads a `timestamp without time zone` column.
func (lt *LocalTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*lt = LocalTime{}
		return nil
	case time.Time:
		*lt = FromTime(v)
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*lt = parsed
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*lt = parsed
		return nil
	default:
		return fmt.Errorf("datewheel: cannot scan %T into LocalTime", src)
	}
}

func (lt LocalTime) Value() (driver.Value, error) {
	if lt.IsZero() {
		return nil, nil
	}
	return lt.t, nil
}
