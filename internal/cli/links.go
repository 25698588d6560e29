package cli

import (
	"net/url"
	"strings"

	"github.com/agisilaos/flightwatch/internal/model"
)

// flightsLink builds a Google Flights search for the watched route so the
// fare can be checked by hand.
func flightsLink(w model.WatchRequest) string {
	values := url.Values{}
	values.Set("f", w.DepartureAirport)
	values.Set("t", w.ArrivalAirport)
	values.Set("d", w.RequestedDate)
	if w.Criteria.IsRoundTrip && w.Criteria.ReturnDate != nil {
		values.Set("r", *w.Criteria.ReturnDate)
	}
	if w.Criteria.MaxConnections == 0 {
		values.Set("sc", "1")
	}
	if w.Criteria.Department != "" {
		values.Set("c", strings.ToLower(string(w.Criteria.Department)))
	}
	values.Set("ad", "1")
	return "https://www.google.com/travel/flights?" + values.Encode()
}
