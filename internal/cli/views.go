package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/agisilaos/flightwatch/internal/gateway"
	"github.com/agisilaos/flightwatch/internal/guard"
	"github.com/agisilaos/flightwatch/internal/model"
)

type recordView struct {
	model.WatchRequest
	Label       string            `json:"label"`
	PriceStatus model.PriceStatus `json:"price_status"`
	Link        string            `json:"link"`
}

func newRecordView(w model.WatchRequest) recordView {
	return recordView{WatchRequest: w, Label: w.Label(), PriceStatus: w.PriceStatus(), Link: flightsLink(w)}
}

// protectedFailure reports a failed call made from a protected view. When
// the remote ended the session the guard now sends the view to login, and
// the user is told so.
func protectedFailure(g globalFlags, rt *runtime, path string, err error) error {
	if errors.Is(err, gateway.ErrAuthorization) {
		if d := guard.Decide(guard.Resolve(path), rt.session.Status()); d.Action == guard.Redirect {
			notef(g, "session ended; redirected to %s", d.Target)
		}
	}
	return wrapDomainError(err)
}

func refreshList(ctx context.Context, g globalFlags, rt *runtime, path string) error {
	if err := rt.list.Refresh(ctx); err != nil {
		return protectedFailure(g, rt, path, err)
	}
	return nil
}

func renderListView(ctx context.Context, g globalFlags, rt *runtime) error {
	if err := refreshList(ctx, g, rt, guard.PathFlights); err != nil {
		return err
	}
	items := rt.list.Items()
	if g.JSON {
		return writeJSON(items)
	}
	if g.Plain {
		for _, w := range items {
			writePlainTableRow(w.ID.String(), w.Label(), w.DepartureAirport, w.ArrivalAirport, w.RequestedDate,
				formatPrice(w.TargetPrice), formatOptionalPrice(w.LastPriceFound), string(w.PriceStatus()))
		}
		return nil
	}
	if len(items) == 0 {
		fmt.Println("No watch requests yet.")
		notef(g, "next: fwatch watch create --from TLV --to JFK --date YYYY-MM-DD --price 300")
		return nil
	}
	fmt.Printf("%-6s %-24s %-10s %-10s %-10s %s\n", "ID", "ROUTE", "DATE", "TARGET", "LAST", "STATUS")
	for _, w := range items {
		fmt.Printf("%-6s %-24s %-10s %-10s %-10s %s\n", w.ID, w.Label(), w.RequestedDate,
			formatPrice(w.TargetPrice), formatOptionalPrice(w.LastPriceFound), w.PriceStatus())
	}
	return nil
}

// lookup refreshes the list and returns the record with id.
func lookup(ctx context.Context, g globalFlags, rt *runtime, id model.ID, path string) (model.WatchRequest, error) {
	if err := refreshList(ctx, g, rt, path); err != nil {
		return model.WatchRequest{}, err
	}
	w, ok := rt.list.Find(id)
	if !ok {
		return model.WatchRequest{}, newExitError(ExitNotFound, "watch request %s not found", id)
	}
	return w, nil
}

func renderEditView(ctx context.Context, g globalFlags, rt *runtime, id string) error {
	path := guard.EditPath(id)
	w, err := lookup(ctx, g, rt, model.ID(id), path)
	if err != nil {
		return err
	}
	if err := writeRecord(g, w); err != nil {
		return err
	}
	notef(g, "next: fwatch watch edit --id %s --price <new target>", id)
	return nil
}

func writeRecord(g globalFlags, w model.WatchRequest) error {
	v := newRecordView(w)
	if g.JSON {
		return writeJSON(v)
	}
	c := w.Criteria
	returnDate := "-"
	if c.ReturnDate != nil {
		returnDate = *c.ReturnDate
	}
	pairs := []string{
		"id", w.ID.String(),
		"name", v.Label,
		"route", w.DepartureAirport + "-" + w.ArrivalAirport,
		"date", w.RequestedDate,
		"return", returnDate,
		"cabin", string(c.Department),
		"target_price", formatPrice(w.TargetPrice),
		"last_price", formatOptionalPrice(w.LastPriceFound),
		"last_checked", firstOr(w.LastCheckedAt, "-"),
		"status", string(v.PriceStatus),
		"connections", strconv.Itoa(c.MaxConnections),
		"flex", fmt.Sprintf("-%d/+%d", c.FlexibleDaysBefore, c.FlexibleDaysAfter),
		"notify_any_drop", strconv.FormatBool(w.NotifyOnAnyDrop),
		"link", v.Link,
	}
	if w.BestFound != nil && w.BestFound.Price != nil {
		pairs = append(pairs, "best_found", formatPrice(*w.BestFound.Price)+" "+w.BestFound.Airline)
	}
	if g.Plain {
		writePlainKV(pairs...)
		return nil
	}
	for i := 0; i < len(pairs); i += 2 {
		fmt.Printf("%-16s %s\n", pairs[i]+":", pairs[i+1])
	}
	return nil
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func formatOptionalPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return formatPrice(*p)
}
