package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestNormalizeIsIdempotent(t *testing.T) {
	drafts := []WatchRequest{
		NewDraft(),
		validDraft(),
		{
			DepartureAirport: " tlv ",
			ArrivalAirport:   "jfk",
			RequestedDate:    " 2030-01-10",
			CustomName:       "  winter  ",
			Criteria: Criteria{
				Department:         "business",
				IsRoundTrip:        true,
				ReturnDate:         strPtr(" 2030-01-20 "),
				MaxConnections:     0,
				MaxConnectionHours: floatPtr(4),
			},
			Scratch: map[string]string{
				FieldTargetPrice:        "450.5",
				FieldFlexibleDaysBefore: "2",
				"editing":               "true",
			},
		},
		{
			DepartureAirport: "ATH",
			ArrivalAirport:   "SFO",
			Criteria:         Criteria{IsRoundTrip: true, ReturnDate: strPtr("   ")},
			Scratch:          map[string]string{FieldMaxConnectionHours: "oops"},
		},
	}
	for _, d := range drafts {
		once := Normalize(d)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestNormalizeForcesReturnDateNullWhenOneWay(t *testing.T) {
	for _, rd := range []*string{nil, strPtr(""), strPtr("2030-01-20"), strPtr("garbage")} {
		w := validDraft()
		w.Criteria.IsRoundTrip = false
		w.Criteria.ReturnDate = rd

		got := Normalize(w)
		assert.Nil(t, got.Criteria.ReturnDate)
	}
}

func TestNormalizeCoercesAndStripsScratch(t *testing.T) {
	w := validDraft()
	w.TargetPrice = 0
	w.Scratch = map[string]string{
		FieldTargetPrice:        "299.99",
		FieldMaxConnections:     "1",
		FieldMaxConnectionHours: "3.5",
		FieldFlexibleDaysBefore: "2",
		FieldFlexibleDaysAfter:  "3",
		"row_editing":           "1",
	}

	got := Normalize(w)
	assert.Nil(t, got.Scratch)
	assert.Equal(t, 299.99, got.TargetPrice)
	assert.Equal(t, 1, got.Criteria.MaxConnections)
	require.NotNil(t, got.Criteria.MaxConnectionHours)
	assert.Equal(t, 3.5, *got.Criteria.MaxConnectionHours)
	assert.Equal(t, 2, got.Criteria.FlexibleDaysBefore)
	assert.Equal(t, 3, got.Criteria.FlexibleDaysAfter)
}

func TestNormalizeDropsConnectionHoursForDirectFlights(t *testing.T) {
	w := validDraft()
	w.Criteria.MaxConnectionHours = floatPtr(6)

	assert.Nil(t, Normalize(w).Criteria.MaxConnectionHours)
}

func TestNormalizeDoesNotAliasInput(t *testing.T) {
	w := validDraft()
	w.Criteria.IsRoundTrip = true
	w.Criteria.ReturnDate = strPtr("2030-01-20")

	got := Normalize(w)
	*got.Criteria.ReturnDate = "2031-01-01"
	assert.Equal(t, "2030-01-20", *w.Criteria.ReturnDate)
}

func TestCloneIsDeep(t *testing.T) {
	w := validDraft()
	w.Criteria.ReturnDate = strPtr("2030-01-20")
	w.LastPriceFound = floatPtr(310)
	w.BestFound = &BestFound{Price: floatPtr(280), Airline: "LY"}
	w.Scratch = map[string]string{FieldTargetPrice: "300"}

	c := w.Clone()
	*c.Criteria.ReturnDate = "2031-01-01"
	*c.LastPriceFound = 1
	*c.BestFound.Price = 1
	c.BestFound.Airline = "UA"
	c.Scratch[FieldTargetPrice] = "1"

	assert.Equal(t, "2030-01-20", *w.Criteria.ReturnDate)
	assert.Equal(t, 310.0, *w.LastPriceFound)
	assert.Equal(t, 280.0, *w.BestFound.Price)
	assert.Equal(t, "LY", w.BestFound.Airline)
	assert.Equal(t, "300", w.Scratch[FieldTargetPrice])
}

func TestPriceStatus(t *testing.T) {
	w := validDraft()
	assert.Equal(t, PriceNotChecked, w.PriceStatus())

	w.LastCheckedAt = "2026-10-14T10:00:00"
	assert.Equal(t, PriceTracking, w.PriceStatus())

	w.LastPriceFound = floatPtr(350)
	assert.Equal(t, PriceTracking, w.PriceStatus())

	w.LastPriceFound = floatPtr(300)
	assert.Equal(t, PriceTargetReached, w.PriceStatus())
}

func TestLabel(t *testing.T) {
	w := validDraft()
	assert.Equal(t, "TLV → JFK", w.Label())
	w.CustomName = "New York"
	assert.Equal(t, "New York", w.Label())
}

func TestDepartmentValidAndIsDraft(t *testing.T) {
	for _, d := range Departments {
		assert.True(t, d.Valid())
	}
	assert.False(t, Department("economy").Valid())
	assert.False(t, Department("").Valid())

	w := validDraft()
	assert.True(t, w.IsDraft())
	w.ID = "3"
	assert.False(t, w.IsDraft())
}
