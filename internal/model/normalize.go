package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scratch keys for numeric fields edited as raw text. They match the wire
// names of the fields they feed.
const (
	FieldTargetPrice        = "target_price"
	FieldMaxConnections     = "connection"
	FieldMaxConnectionHours = "max_connection_hours"
	FieldFlexibleDaysBefore = "flexible_days_before"
	FieldFlexibleDaysAfter  = "flexible_days_after"
)

// Normalize returns the canonical form of a draft: pending numeric text is
// coerced, scratch fields are dropped, codes are trimmed and uppercased and
// fields that are meaningless for the chosen criteria are cleared.
// Normalize(Normalize(w)) == Normalize(w).
func Normalize(w WatchRequest) WatchRequest {
	c, _ := coerce(w)
	return canonical(c)
}

func canonical(w WatchRequest) WatchRequest {
	w.Scratch = nil
	w.DepartureAirport = strings.ToUpper(strings.TrimSpace(w.DepartureAirport))
	w.ArrivalAirport = strings.ToUpper(strings.TrimSpace(w.ArrivalAirport))
	w.RequestedDate = strings.TrimSpace(w.RequestedDate)
	w.CustomName = strings.TrimSpace(w.CustomName)
	w.Criteria.Department = Department(strings.ToUpper(strings.TrimSpace(string(w.Criteria.Department))))

	if !w.Criteria.IsRoundTrip {
		w.Criteria.ReturnDate = nil
	} else if w.Criteria.ReturnDate != nil {
		rd := strings.TrimSpace(*w.Criteria.ReturnDate)
		if rd == "" {
			w.Criteria.ReturnDate = nil
		} else {
			w.Criteria.ReturnDate = &rd
		}
	}
	if w.Criteria.MaxConnections == 0 {
		w.Criteria.MaxConnectionHours = nil
	}
	return w
}

type fieldProblem struct {
	Field  string
	Reason string
}

// coerce copies w and applies its scratch text to the typed fields. Text
// that does not parse is reported and leaves the typed field at zero.
func coerce(w WatchRequest) (WatchRequest, []fieldProblem) {
	c := w.Clone()
	if len(w.Scratch) == 0 {
		return c, nil
	}
	var problems []fieldProblem
	for _, key := range []string{FieldTargetPrice, FieldMaxConnections, FieldMaxConnectionHours, FieldFlexibleDaysBefore, FieldFlexibleDaysAfter} {
		raw, ok := w.Scratch[key]
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		switch key {
		case FieldTargetPrice:
			f, err := parseFloat(raw)
			if err != nil {
				problems = append(problems, fieldProblem{Field: key, Reason: fmt.Sprintf("%s must be a number", key)})
			}
			c.TargetPrice = f
		case FieldMaxConnectionHours:
			if raw == "" {
				c.Criteria.MaxConnectionHours = nil
				continue
			}
			f, err := parseFloat(raw)
			if err != nil {
				problems = append(problems, fieldProblem{Field: key, Reason: fmt.Sprintf("%s must be a number", key)})
				c.Criteria.MaxConnectionHours = nil
				continue
			}
			c.Criteria.MaxConnectionHours = &f
		default:
			n, err := parseInt(raw)
			if err != nil {
				problems = append(problems, fieldProblem{Field: key, Reason: fmt.Sprintf("%s must be a whole number", key)})
			}
			switch key {
			case FieldMaxConnections:
				c.Criteria.MaxConnections = n
			case FieldFlexibleDaysBefore:
				c.Criteria.FlexibleDaysBefore = n
			case FieldFlexibleDaysAfter:
				c.Criteria.FlexibleDaysAfter = n
			}
		}
	}
	return c, problems
}

func parseFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", raw)
	}
	return f, nil
}

func parseInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
