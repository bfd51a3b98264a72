package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/jonboulle/clockwork"

	"github.com/Dosada05/matchkid/datewheel"
)

type CalendarHandler struct {
	clock clockwork.Clock
}

func NewCalendarHandler(clock clockwork.Clock) *CalendarHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CalendarHandler{clock: clock}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type wheelColumn struct {
	datewheel.Column
	ScrollTop float64 `json:"scroll_top"`
}

// Wheel godoc
// @Summary Date/time wheel columns
// @Tags calendar
// @Description Returns the wheel columns for value (default: now). With field and
// @Description either set or scroll_top the selection is applied first, clamping
// @Description the day when the month or year changes.
// @Produce json
// @Param value query string false "YYYY-MM-DDTHH:mm"
// @Param field query string false "day, month, year, hour or minute"
// @Param set query int false "New value for field"
// @Param scroll_top query number false "Settled scroll offset of field's column"
// @Param item_height query number false "Row height in pixels (default 40)"
// @Success 200 {object} map[string]interface{}
// @Router /calendar/wheel [get]
func (h *CalendarHandler) Wheel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var value datewheel.LocalTime
	if raw := q.Get("value"); raw != "" {
		parsed, err := datewheel.Parse(raw)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		value = parsed
	}
	picker := datewheel.NewPicker(h.clock, value)

	itemHeight := float64(datewheel.ItemHeight)
	if raw := q.Get("item_height"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || !isFinite(v) || v <= 0 {
			badRequestResponse(w, r, fmt.Errorf("invalid item_height %q", raw))
			return
		}
		itemHeight = v
	}

	if raw := q.Get("field"); raw != "" {
		field, err := datewheel.ParseField(raw)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		switch {
		case q.Get("set") != "":
			v, err := strconv.Atoi(q.Get("set"))
			if err != nil {
				badRequestResponse(w, r, fmt.Errorf("invalid set %q", q.Get("set")))
				return
			}
			if _, err := picker.Set(field, v); err != nil {
				failedValidationResponse(w, r, err)
				return
			}
		case q.Get("scroll_top") != "":
			top, err := strconv.ParseFloat(q.Get("scroll_top"), 64)
			if err != nil || !isFinite(top) {
				badRequestResponse(w, r, fmt.Errorf("invalid scroll_top %q", q.Get("scroll_top")))
				return
			}
			if _, _, err := picker.ScrollTo(field, top, itemHeight); err != nil {
				failedValidationResponse(w, r, err)
				return
			}
		}
	}

	columns := make([]wheelColumn, 0, len(datewheel.Fields))
	for _, col := range picker.Columns() {
		top, _ := datewheel.ScrollTopFor(col.Items, col.Selected, itemHeight)
		columns = append(columns, wheelColumn{Column: col, ScrollTop: top})
	}
	respond(w, r, http.StatusOK, jsonResponse{
		"value":       picker.Value(),
		"item_height": itemHeight,
		"columns":     columns,
	})
}
