package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

const (
	ReasonSameAirport           = "departure and arrival airports cannot be the same"
	ReasonDateInPast            = "requested date cannot be in the past"
	ReasonReturnDateRequired    = "return date is required for round trip flights"
	ReasonReturnBeforeDeparture = "return date cannot be before the departure date"
)

var ErrInvalid = errors.New("invalid watch request")

// ValidationError lists every rule a draft violates, in check order.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Reasons, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func (e *ValidationError) Has(reason string) bool {
	for _, r := range e.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "iata", func(fl validator.FieldLevel) bool {
		return IsAirportCode(fl.Field().String())
	})
	mustRegister(v, "isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
	mustRegister(v, "department", func(fl validator.FieldLevel) bool {
		return Department(fl.Field().String()).Valid()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// IsAirportCode reports whether code is three uppercase ASCII letters.
func IsAirportCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

// Validate checks a draft as it would be submitted (after Normalize) against
// the client-side rules. It has no side effects. Reasons are grouped in
// order: required fields, field formats, airport distinctness, date not in
// the past, round-trip return date, remaining criteria rules.
func Validate(w WatchRequest, now time.Time) error {
	c, problems := coerce(w)
	n := canonical(c)

	var presence, format, rules, rest []string
	reported := map[string]bool{}
	for _, p := range problems {
		presence = append(presence, p.Reason)
		reported[p.Field] = true
	}

	if err := validate.Struct(n); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			field := fe.Field()
			if reported[field] {
				continue
			}
			reported[field] = true
			switch fe.Tag() {
			case "required":
				presence = append(presence, field+" is required")
			case "gt":
				format = append(format, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
			case "iata":
				format = append(format, field+" must be a three-letter airport code")
			case "isodate":
				format = append(format, field+" must be a date in YYYY-MM-DD format")
			case "gte":
				rest = append(rest, field+" must not be negative")
			case "department":
				rest = append(rest, fmt.Sprintf("%s must be one of %s", field, departmentList()))
			default:
				rest = append(rest, fmt.Sprintf("%s failed %s check", field, fe.Tag()))
			}
		}
	}

	if n.DepartureAirport != "" && n.DepartureAirport == n.ArrivalAirport {
		rules = append(rules, ReasonSameAirport)
	}

	requested, requestedOK := parseDate(n.RequestedDate, now.Location())
	if requestedOK && requested.Before(startOfDay(now)) {
		rules = append(rules, ReasonDateInPast)
	}

	if n.Criteria.IsRoundTrip {
		switch {
		case n.Criteria.ReturnDate == nil:
			rules = append(rules, ReasonReturnDateRequired)
		default:
			ret, ok := parseDate(*n.Criteria.ReturnDate, now.Location())
			if !ok {
				rules = append(rules, "return_date must be a date in YYYY-MM-DD format")
			} else if requestedOK && ret.Before(requested) {
				rules = append(rules, ReasonReturnBeforeDeparture)
			}
		}
	}

	reasons := make([]string, 0, len(presence)+len(format)+len(rules)+len(rest))
	reasons = append(reasons, presence...)
	reasons = append(reasons, format...)
	reasons = append(reasons, rules...)
	reasons = append(reasons, rest...)
	if len(reasons) == 0 {
		return nil
	}
	return &ValidationError{Reasons: reasons}
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func departmentList() string {
	names := make([]string, len(Departments))
	for i, d := range Departments {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}
