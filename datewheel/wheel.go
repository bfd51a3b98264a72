// Package datewheel holds the value contract of the mobile date/time wheel picker:
// the naive local timestamp codec, the wheel columns, scroll-snap index detection,
// and the calendar clamping rules applied when one column changes.
package datewheel

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// ItemHeight is the height in CSS pixels of one wheel row on the client.
	ItemHeight = 40
	MinuteStep = 5
	// YearSpan is how many years after the current one the year column offers.
	YearSpan = 5
)

var (
	ErrUnknownField      = errors.New("unknown wheel field")
	ErrValueNotInColumn  = errors.New("value is not offered by the wheel column")
	ErrInvalidItemHeight = errors.New("item height must be positive")
)

type Field string

const (
	FieldDay    Field = "day"
	FieldMonth  Field = "month"
	FieldYear   Field = "year"
	FieldHour   Field = "hour"
	FieldMinute Field = "minute"
)

// Fields lists the columns in display order.
var Fields = []Field{FieldDay, FieldMonth, FieldYear, FieldHour, FieldMinute}

func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

var monthLabels = [12]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Juin", "Juil", "Août", "Sep", "Oct", "Nov", "Déc"}

type Item struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

type Column struct {
	Field    Field  `json:"field"`
	Items    []Item `json:"items"`
	Selected int    `json:"selected"`
}

// DaysIn returns the number of days of month in year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func rangeItems(start, end, step int, label func(int) string) []Item {
	items := make([]Item, 0, (end-start)/step+1)
	for v := start; v <= end; v += step {
		items = append(items, Item{Value: v, Label: label(v)})
	}
	return items
}

func plainLabel(v int) string  { return strconv.Itoa(v) }
func paddedLabel(v int) string { return fmt.Sprintf("%02d", v) }

func DayItems(year int, month time.Month) []Item {
	return rangeItems(1, DaysIn(year, month), 1, plainLabel)
}

// MonthItems uses calendar month numbers (1-12) as values.
func MonthItems() []Item {
	return rangeItems(1, 12, 1, func(v int) string { return monthLabels[v-1] })
}

func YearItems(currentYear int) []Item {
	return rangeItems(currentYear, currentYear+YearSpan, 1, plainLabel)
}

func HourItems() []Item {
	return rangeItems(0, 23, 1, paddedLabel)
}

func MinuteItems() []Item {
	return rangeItems(0, 60-MinuteStep, MinuteStep, paddedLabel)
}

// SnapMinute rounds m to the nearest wheel step, wrapping 60 back to 0.
func SnapMinute(m int) int {
	return int(math.Round(float64(m)/MinuteStep)) * MinuteStep % 60
}

func IndexOf(items []Item, value int) int {
	for i, it := range items {
		if it.Value == value {
			return i
		}
	}
	return -1
}

// IndexAt maps a settled scroll offset to the row centered in the wheel.
func IndexAt(scrollTop, itemHeight float64) (int, error) {
	if itemHeight <= 0 {
		return 0, ErrInvalidItemHeight
	}
	return int(math.Round(scrollTop / itemHeight)), nil
}

// ValueAt returns the value under a settled scroll offset. ok is false when the
// offset lands outside the column, in which case the selection must not change.
func ValueAt(items []Item, scrollTop, itemHeight float64) (value int, ok bool, err error) {
	idx, err := IndexAt(scrollTop, itemHeight)
	if err != nil {
		return 0, false, err
	}
	if idx < 0 || idx >= len(items) {
		return 0, false, nil
	}
	return items[idx].Value, true, nil
}

// ScrollTopFor is the offset that centers value in the wheel.
func ScrollTopFor(items []Item, value int, itemHeight float64) (float64, bool) {
	idx := IndexOf(items, value)
	if idx < 0 {
		return 0, false
	}
	return float64(idx) * itemHeight, true
}

// Picker applies wheel selections to a LocalTime.
type Picker struct {
	clock clockwork.Clock
	value LocalTime
}

// NewPicker starts from value, or from the clock's current wall time when value is zero.
func NewPicker(clock clockwork.Clock, value LocalTime) *Picker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if value.IsZero() {
		value = FromTime(clock.Now())
	}
	return &Picker{clock: clock, value: value}
}

func (p *Picker) Value() LocalTime { return p.value }

// Columns returns every wheel column with the current selection. The minute column
// selects the snapped minute.
func (p *Picker) Columns() []Column {
	cols := make([]Column, 0, len(Fields))
	for _, f := range Fields {
		cols = append(cols, p.column(f))
	}
	return cols
}

func (p *Picker) column(f Field) Column {
	v := p.value
	switch f {
	case FieldDay:
		return Column{Field: f, Items: DayItems(v.Year(), v.Month()), Selected: v.Day()}
	case FieldMonth:
		return Column{Field: f, Items: MonthItems(), Selected: int(v.Month())}
	case FieldYear:
		return Column{Field: f, Items: YearItems(p.clock.Now().Year()), Selected: v.Year()}
	case FieldHour:
		return Column{Field: f, Items: HourItems(), Selected: v.Hour()}
	default:
		return Column{Field: FieldMinute, Items: MinuteItems(), Selected: SnapMinute(v.Minute())}
	}
}

// Set changes one field. Changing the month or the year keeps the day inside the
// new month (Jan 31 -> Feb 28/29) instead of rolling over into the next month.
func (p *Picker) Set(f Field, v int) (LocalTime, error) {
	if _, err := ParseField(string(f)); err != nil {
		return p.value, err
	}
	col := p.column(f)
	if IndexOf(col.Items, v) < 0 {
		return p.value, fmt.Errorf("%w: %s=%d", ErrValueNotInColumn, f, v)
	}

	cur := p.value
	year, month, day, hour, minute := cur.Year(), cur.Month(), cur.Day(), cur.Hour(), cur.Minute()
	switch f {
	case FieldDay:
		day = v
	case FieldMonth:
		month = time.Month(v)
	case FieldYear:
		year = v
	case FieldHour:
		hour = v
	case FieldMinute:
		minute = v
	}
	if dim := DaysIn(year, month); day > dim {
		day = dim
	}

	p.value = New(year, month, day, hour, minute)
	return p.value, nil
}

// ScrollTo applies the value found under a settled scroll offset of one column.
// changed is false when the offset is outside the column.
func (p *Picker) ScrollTo(f Field, scrollTop, itemHeight float64) (value LocalTime, changed bool, err error) {
	if _, err := ParseField(string(f)); err != nil {
		return p.value, false, err
	}
	v, ok, err := ValueAt(p.column(f).Items, scrollTop, itemHeight)
	if err != nil || !ok {
		return p.value, false, err
	}
	next, err := p.Set(f, v)
	if err != nil {
		return p.value, false, err
	}
	return next, true, nil
}
