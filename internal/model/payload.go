package model

import "errors"

var ErrMissingID = errors.New("watch request has no id")

// CreatePayload is the body sent to create a watch request. It has no
// identifier, owner or server-owned fields.
type CreatePayload struct {
	DepartureAirport string   `json:"departure_airport"`
	ArrivalAirport   string   `json:"arrival_airport"`
	RequestedDate    string   `json:"requested_date"`
	TargetPrice      float64  `json:"target_price"`
	NotifyOnAnyDrop  bool     `json:"notify_on_any_drop"`
	CustomName       string   `json:"custom_name,omitempty"`
	Criteria         Criteria `json:"more_criteria"`
}

// UpdatePayload is the full replacement body for an existing watch request.
type UpdatePayload struct {
	ID ID `json:"flight_id"`
	CreatePayload
}

func ForCreate(draft WatchRequest) CreatePayload {
	n := Normalize(draft)
	return CreatePayload{
		DepartureAirport: n.DepartureAirport,
		ArrivalAirport:   n.ArrivalAirport,
		RequestedDate:    n.RequestedDate,
		TargetPrice:      n.TargetPrice,
		NotifyOnAnyDrop:  n.NotifyOnAnyDrop,
		CustomName:       n.CustomName,
		Criteria:         n.Criteria,
	}
}

// ForUpdate builds the update body for existing from the edited draft. The
// identifier always comes from existing so an edit cannot retarget another
// record.
func ForUpdate(existing, draft WatchRequest) (UpdatePayload, error) {
	if existing.ID == "" {
		return UpdatePayload{}, ErrMissingID
	}
	return UpdatePayload{
		ID:            existing.ID,
		CreatePayload: ForCreate(draft),
	}, nil
}
