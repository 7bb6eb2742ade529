package pipeline

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"icalyse/internal/model"
)

// leadingNumber matches the numeric prefix a lenient float parser accepts.
var leadingNumber = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// Rate is a parsed hourly rate. Valid is false when the parameter was absent
// or not a number, in which case no amount is computed.
type Rate struct {
	Value float64
	Valid bool
}

// ParseRate reads the numeric prefix of p ("50", "12.5€", " 1e2").
func ParseRate(p *string) Rate {
	if p == nil {
		return Rate{}
	}
	m := leadingNumber.FindString(*p)
	if m == "" {
		return Rate{}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Rate{}
	}
	return Rate{Value: v, Valid: true}
}

// Annotate sets Amount = TotalHours × rate on every event. It reports whether
// annotation ran; an invalid rate, or one whose products overflow, returns
// events unchanged.
func Annotate(events []model.AugmentedEvent, rate Rate) ([]model.AugmentedEvent, bool) {
	if !rate.Valid {
		return events, false
	}

	out := make([]model.AugmentedEvent, len(events))
	var total float64
	for i, ev := range events {
		amount := ev.TotalHours * rate.Value
		total += amount
		if math.IsNaN(amount) || math.IsInf(amount, 0) || math.IsInf(total, 0) {
			return events, false
		}
		ev.Amount = &amount
		out[i] = ev
	}
	return out, true
}
