package model

import "strings"

// Department is the cabin class, in the remote service's spelling.
type Department string

const (
	DepartmentEconomy        Department = "ECONOMY"
	DepartmentPremiumEconomy Department = "PREMIUM_ECONOMY"
	DepartmentBusiness       Department = "BUSINESS"
	DepartmentFirst          Department = "FIRST"
)

// Departments lists the cabin classes accepted by the remote service.
var Departments = []Department{
	DepartmentEconomy,
	DepartmentPremiumEconomy,
	DepartmentBusiness,
	DepartmentFirst,
}

// Valid reports whether d is one of Departments.
func (d Department) Valid() bool {
	for _, known := range Departments {
		if d == known {
			return true
		}
	}
	return false
}

// Criteria carries the optional search constraints, sent as more_criteria.
// ReturnDate is only meaningful for round trips.
type Criteria struct {
	Department         Department `json:"department" validate:"required,department"`
	IsRoundTrip        bool       `json:"is_round_trip"`
	ReturnDate         *string    `json:"return_date,omitempty"`
	MaxConnections     int        `json:"connection" validate:"gte=0"`
	MaxConnectionHours *float64   `json:"max_connection_hours,omitempty" validate:"omitempty,gte=0"`
	FlexibleDaysBefore int        `json:"flexible_days_before" validate:"gte=0"`
	FlexibleDaysAfter  int        `json:"flexible_days_after" validate:"gte=0"`
}

// BestFound is the cheapest fare the service has seen for a request.
type BestFound struct {
	Price   *float64 `json:"price,omitempty"`
	Time    string   `json:"time,omitempty"`
	Airline string   `json:"airline,omitempty"`
}

// WatchRequest is a tracked flight query as stored by the remote service.
// OwnerIdentity, LastPriceFound, LastCheckedAt and BestFound are populated
// server-side and never sent back.
type WatchRequest struct {
	ID               ID       `json:"flight_id,omitempty"`
	OwnerIdentity    ID       `json:"user_id,omitempty"`
	DepartureAirport string   `json:"departure_airport" validate:"required,iata"`
	ArrivalAirport   string   `json:"arrival_airport" validate:"required,iata"`
	RequestedDate    string   `json:"requested_date" validate:"required,isodate"`
	TargetPrice      float64  `json:"target_price" validate:"required,gt=0"`
	NotifyOnAnyDrop  bool     `json:"notify_on_any_drop"`
	CustomName       string   `json:"custom_name,omitempty"`
	Criteria         Criteria `json:"more_criteria"`

	LastPriceFound *float64   `json:"last_price_found,omitempty"`
	LastCheckedAt  string     `json:"last_checked,omitempty"`
	BestFound      *BestFound `json:"best_found,omitempty"`

	// Scratch holds raw, client-only field text that has not been coerced
	// yet (numeric input typed by the user). Normalize drops it.
	Scratch map[string]string `json:"-"`
}

// NewDraft returns an empty watch request seeded with client defaults.
func NewDraft() WatchRequest {
	return WatchRequest{
		Criteria: Criteria{
			Department: DepartmentEconomy,
		},
	}
}

// Clone returns a deep copy; no pointer or map is shared with w.
func (w WatchRequest) Clone() WatchRequest {
	c := w
	c.Criteria.ReturnDate = cloneString(w.Criteria.ReturnDate)
	c.Criteria.MaxConnectionHours = cloneFloat(w.Criteria.MaxConnectionHours)
	c.LastPriceFound = cloneFloat(w.LastPriceFound)
	if w.BestFound != nil {
		bf := *w.BestFound
		bf.Price = cloneFloat(w.BestFound.Price)
		c.BestFound = &bf
	}
	if w.Scratch != nil {
		c.Scratch = make(map[string]string, len(w.Scratch))
		for k, v := range w.Scratch {
			c.Scratch[k] = v
		}
	}
	return c
}

// IsDraft reports whether w has not been stored remotely yet.
func (w WatchRequest) IsDraft() bool {
	return w.ID == ""
}

func (w WatchRequest) Label() string {
	if name := strings.TrimSpace(w.CustomName); name != "" {
		return name
	}
	return w.DepartureAirport + " → " + w.ArrivalAirport
}

type PriceStatus string

const (
	PriceNotChecked    PriceStatus = "not checked yet"
	PriceTracking      PriceStatus = "tracking"
	PriceTargetReached PriceStatus = "target reached"
)

// PriceStatus summarises the server-populated price fields for display.
func (w WatchRequest) PriceStatus() PriceStatus {
	if w.LastPriceFound == nil {
		if w.LastCheckedAt == "" {
			return PriceNotChecked
		}
		return PriceTracking
	}
	if w.TargetPrice > 0 && *w.LastPriceFound <= w.TargetPrice {
		return PriceTargetReached
	}
	return PriceTracking
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
