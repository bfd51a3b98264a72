package datewheel

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestParseFormatRoundTrip(t *testing.T) {
	inputs := []string{
		"2025-03-09T07:05",
		"2024-02-29T23:55",
		"2026-12-31T00:00",
	}
	for _, in := range inputs {
		lt, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got := lt.String(); got != in {
			t.Fatalf("round trip of %q produced %q", in, got)
		}

		again, err := Parse(lt.String())
		if err != nil {
			t.Fatalf("re-parse %q: %v", lt.String(), err)
		}
		if again.Year() != lt.Year() || again.Month() != lt.Month() || again.Day() != lt.Day() ||
			again.Hour() != lt.Hour() || again.Minute() != lt.Minute() {
			t.Fatalf("fields drifted: %v vs %v", again, lt)
		}
	}
}

func TestParseDropsZoneAndSeconds(t *testing.T) {
	cases := map[string]string{
		"2025-05-01T18:30:45":       "2025-05-01T18:30",
		"2025-05-01T18:30:00Z":      "2025-05-01T18:30",
		"2025-05-01T18:30:00+02:00": "2025-05-01T18:30",
		"2025-05-01 18:30:00":       "2025-05-01T18:30",
	}
	for in, want := range cases {
		lt, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if lt.String() != want {
			t.Fatalf("Parse(%q) = %q, want %q", in, lt.String(), want)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "2025-13-01T10:00", "01/05/2025 10:00"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidLocalTime) {
			t.Fatalf("Parse(%q) error = %v, want ErrInvalidLocalTime", in, err)
		}
	}
}

func TestLocalTimeJSON(t *testing.T) {
	var payload struct {
		Date LocalTime `json:"date"`
	}
	if err := json.Unmarshal([]byte(`{"date":"2025-06-14T15:30"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"date":"2025-06-14T15:30"}` {
		t.Fatalf("marshal = %s", out)
	}

	if err := json.Unmarshal([]byte(`{"date":null}`), &payload); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !payload.Date.IsZero() {
		t.Fatalf("expected zero value after null")
	}
}

func TestScanTimestampKeepsWallClock(t *testing.T) {
	var lt LocalTime
	loc := time.FixedZone("UTC+2", 2*60*60)
	if err := lt.Scan(time.Date(2025, 4, 1, 9, 15, 0, 0, loc)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if lt.String() != "2025-04-01T09:15" {
		t.Fatalf("scanned %q", lt.String())
	}
}

func TestSnapMinute(t *testing.T) {
	cases := map[int]int{0: 0, 2: 0, 3: 5, 7: 5, 8: 10, 57: 55, 58: 0, 59: 0}
	for in, want := range cases {
		if got := SnapMinute(in); got != want {
			t.Fatalf("SnapMinute(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestValueAtRoundsToNearestRow(t *testing.T) {
	items := HourItems()

	v, ok, err := ValueAt(items, 3*ItemHeight+19, ItemHeight)
	if err != nil || !ok || v != 3 {
		t.Fatalf("ValueAt = (%d, %v, %v), want (3, true, nil)", v, ok, err)
	}
	v, ok, _ = ValueAt(items, 3*ItemHeight+21, ItemHeight)
	if !ok || v != 4 {
		t.Fatalf("ValueAt past half row = (%d, %v), want (4, true)", v, ok)
	}
	if _, ok, _ = ValueAt(items, 40*ItemHeight, ItemHeight); ok {
		t.Fatalf("expected offset beyond the column to be ignored")
	}
	if _, _, err = ValueAt(items, 10, 0); !errors.Is(err, ErrInvalidItemHeight) {
		t.Fatalf("expected ErrInvalidItemHeight, got %v", err)
	}
}

func TestScrollTopForMatchesIndexAt(t *testing.T) {
	items := MinuteItems()
	top, ok := ScrollTopFor(items, 35, ItemHeight)
	if !ok {
		t.Fatalf("minute 35 should be offered")
	}
	v, ok, err := ValueAt(items, top, ItemHeight)
	if err != nil || !ok || v != 35 {
		t.Fatalf("ValueAt(ScrollTopFor(35)) = %d", v)
	}
	if _, ok := ScrollTopFor(items, 37, ItemHeight); ok {
		t.Fatalf("minute 37 is not a wheel step")
	}
}

func TestDayItemsFollowCalendar(t *testing.T) {
	if n := len(DayItems(2024, time.February)); n != 29 {
		t.Fatalf("Feb 2024 has %d days", n)
	}
	if n := len(DayItems(2025, time.February)); n != 28 {
		t.Fatalf("Feb 2025 has %d days", n)
	}
	if n := len(DayItems(2025, time.April)); n != 30 {
		t.Fatalf("Apr 2025 has %d days", n)
	}
}

func TestPickerClampsDayOnMonthChange(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC))
	p := NewPicker(clock, MustParse("2025-01-31T18:00"))

	got, err := p.Set(FieldMonth, 2)
	if err != nil {
		t.Fatalf("set month: %v", err)
	}
	if got.String() != "2025-02-28T18:00" {
		t.Fatalf("month change = %s, want 2025-02-28T18:00", got)
	}
}

func TestPickerClampsDayOnYearChange(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	p := NewPicker(clock, MustParse("2024-02-29T10:30"))

	got, err := p.Set(FieldYear, 2025)
	if err != nil {
		t.Fatalf("set year: %v", err)
	}
	if got.String() != "2025-02-28T10:30" {
		t.Fatalf("year change = %s", got)
	}
}

func TestPickerRejectsValuesOutsideColumns(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	p := NewPicker(clock, MustParse("2025-04-10T10:00"))

	if _, err := p.Set(FieldDay, 31); !errors.Is(err, ErrValueNotInColumn) {
		t.Fatalf("April 31 should be rejected, got %v", err)
	}
	if _, err := p.Set(FieldYear, 2024); !errors.Is(err, ErrValueNotInColumn) {
		t.Fatalf("past year should be rejected, got %v", err)
	}
	if _, err := p.Set(FieldMinute, 7); !errors.Is(err, ErrValueNotInColumn) {
		t.Fatalf("minute 7 should be rejected, got %v", err)
	}
	if _, err := p.Set(Field("second"), 1); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("unknown field should be rejected, got %v", err)
	}
	if p.Value().String() != "2025-04-10T10:00" {
		t.Fatalf("rejected sets must not change the value, got %s", p.Value())
	}
}

func TestPickerDefaultsToClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 9, 2, 14, 7, 30, 0, time.UTC))
	p := NewPicker(clock, LocalTime{})
	if p.Value().String() != "2025-09-02T14:07" {
		t.Fatalf("default value = %s", p.Value())
	}

	cols := p.Columns()
	if len(cols) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(cols))
	}
	years := cols[2]
	if years.Items[0].Value != 2025 || years.Items[len(years.Items)-1].Value != 2030 {
		t.Fatalf("year column = %v", years.Items)
	}
	if cols[4].Selected != 5 {
		t.Fatalf("minute column should select the snapped minute, got %d", cols[4].Selected)
	}
}

func TestPickerScrollTo(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	p := NewPicker(clock, MustParse("2025-03-15T10:00"))

	got, changed, err := p.ScrollTo(FieldHour, 17*ItemHeight, ItemHeight)
	if err != nil || !changed {
		t.Fatalf("ScrollTo hour: changed=%v err=%v", changed, err)
	}
	if got.Hour() != 17 {
		t.Fatalf("hour = %d, want 17", got.Hour())
	}

	_, changed, err = p.ScrollTo(FieldMonth, 99*ItemHeight, ItemHeight)
	if err != nil || changed {
		t.Fatalf("out of range scroll: changed=%v err=%v", changed, err)
	}
}
