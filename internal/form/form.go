// Package form turns raw field edits into a valid watch request and submits
// it. A Controller holds at most one draft at a time.
package form

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agisilaos/flightwatch/internal/gateway"
	"github.com/agisilaos/flightwatch/internal/model"
)

var (
	ErrNoDraft      = errors.New("no draft in progress")
	ErrBusy         = errors.New("submit already in flight")
	ErrUnknownField = errors.New("unknown field")
)

// Field names accepted by SetField. They match the wire names.
const (
	FieldDepartureAirport   = "departure_airport"
	FieldArrivalAirport     = "arrival_airport"
	FieldRequestedDate      = "requested_date"
	FieldTargetPrice        = model.FieldTargetPrice
	FieldNotifyOnAnyDrop    = "notify_on_any_drop"
	FieldCustomName         = "custom_name"
	FieldDepartment         = "department"
	FieldIsRoundTrip        = "is_round_trip"
	FieldReturnDate         = "return_date"
	FieldMaxConnections     = model.FieldMaxConnections
	FieldMaxConnectionHours = model.FieldMaxConnectionHours
	FieldFlexibleDaysBefore = model.FieldFlexibleDaysBefore
	FieldFlexibleDaysAfter  = model.FieldFlexibleDaysAfter
)

var fields = map[string]func(*model.WatchRequest, string) error{
	FieldDepartureAirport: func(w *model.WatchRequest, raw string) error { w.DepartureAirport = raw; return nil },
	FieldArrivalAirport:   func(w *model.WatchRequest, raw string) error { w.ArrivalAirport = raw; return nil },
	FieldRequestedDate:    func(w *model.WatchRequest, raw string) error { w.RequestedDate = raw; return nil },
	FieldCustomName:       func(w *model.WatchRequest, raw string) error { w.CustomName = raw; return nil },
	FieldDepartment: func(w *model.WatchRequest, raw string) error {
		w.Criteria.Department = model.Department(raw)
		return nil
	},
	FieldReturnDate: func(w *model.WatchRequest, raw string) error {
		if strings.TrimSpace(raw) == "" {
			w.Criteria.ReturnDate = nil
			return nil
		}
		w.Criteria.ReturnDate = &raw
		return nil
	},
	FieldNotifyOnAnyDrop: func(w *model.WatchRequest, raw string) error {
		b, err := parseBool(FieldNotifyOnAnyDrop, raw)
		w.NotifyOnAnyDrop = b
		return err
	},
	FieldIsRoundTrip: func(w *model.WatchRequest, raw string) error {
		b, err := parseBool(FieldIsRoundTrip, raw)
		w.Criteria.IsRoundTrip = b
		return err
	},
	FieldTargetPrice:        scratch(FieldTargetPrice),
	FieldMaxConnections:     scratch(FieldMaxConnections),
	FieldMaxConnectionHours: scratch(FieldMaxConnectionHours),
	FieldFlexibleDaysBefore: scratch(FieldFlexibleDaysBefore),
	FieldFlexibleDaysAfter:  scratch(FieldFlexibleDaysAfter),
}

// Fields lists the names SetField accepts, sorted.
func Fields() []string {
	out := make([]string, 0, len(fields))
	for name := range fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Numeric input stays as text until validation so a half-typed value is
// never silently turned into zero.
func scratch(key string) func(*model.WatchRequest, string) error {
	return func(w *model.WatchRequest, raw string) error {
		if w.Scratch == nil {
			w.Scratch = map[string]string{}
		}
		w.Scratch[key] = raw
		return nil
	}
}

func parseBool(field, raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "false", "0", "no", "off":
		return false, nil
	case "true", "1", "yes", "on":
		return true, nil
	}
	return false, fmt.Errorf("%s: %q is not a boolean", field, raw)
}

// Gateway is the subset of the remote client the form submits through.
type Gateway interface {
	CreateWatchRequest(ctx context.Context, p model.CreatePayload) (model.WatchRequest, error)
	UpdateWatchRequest(ctx context.Context, p model.UpdatePayload) (model.WatchRequest, error)
}

type Mode int

const (
	ModeIdle Mode = iota
	ModeCreate
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	default:
		return "idle"
	}
}

// Result tells the caller to close the form and re-fetch the list.
type Result struct {
	Record  model.WatchRequest
	Created bool
	Refresh bool
}

type Controller struct {
	gw  Gateway
	now func() time.Time

	mu     sync.Mutex
	mode   Mode
	draft  model.WatchRequest
	source model.WatchRequest
	gen    uint64
	busy   bool
}

func NewController(gw Gateway, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{gw: gw, now: now}
}

// StartCreate replaces any draft with a fresh defaulted one.
func (c *Controller) StartCreate() model.WatchRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(ModeCreate, model.NewDraft(), model.WatchRequest{})
	return c.draft.Clone()
}

// StartEdit seeds the draft with a deep copy of existing; edits never reach
// the caller's record.
func (c *Controller) StartEdit(existing model.WatchRequest) (model.WatchRequest, error) {
	if existing.ID == "" {
		return model.WatchRequest{}, model.ErrMissingID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(ModeEdit, existing.Clone(), existing.Clone())
	return c.draft.Clone(), nil
}

func (c *Controller) reset(mode Mode, draft, source model.WatchRequest) {
	c.mode = mode
	c.draft = draft
	c.source = source
	c.gen++
}

func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(ModeIdle, model.WatchRequest{}, model.WatchRequest{})
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() (model.WatchRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeIdle {
		return model.WatchRequest{}, false
	}
	return c.draft.Clone(), true
}

// SetField applies one raw edit to the draft.
func (c *Controller) SetField(name, raw string) error {
	apply, ok := fields[strings.TrimSpace(name)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeIdle {
		return ErrNoDraft
	}
	if c.busy {
		return ErrBusy
	}
	next := c.draft.Clone()
	if err := apply(&next, raw); err != nil {
		return err
	}
	c.draft = next
	return nil
}

// Check validates the draft without submitting it.
func (c *Controller) Check() error {
	c.mu.Lock()
	if c.mode == ModeIdle {
		c.mu.Unlock()
		return ErrNoDraft
	}
	draft := c.draft.Clone()
	c.mu.Unlock()
	return model.Validate(draft, c.now())
}

// Submit validates the draft and, only if it is valid, sends it through the
// gateway. The draft survives validation and remote failures so the user
// can fix and retry; it is dropped on success and when the session was
// rejected.
func (c *Controller) Submit(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.mode == ModeIdle {
		c.mu.Unlock()
		return Result{}, ErrNoDraft
	}
	if c.busy {
		c.mu.Unlock()
		return Result{}, ErrBusy
	}
	c.busy = true
	mode, draft, source, gen := c.mode, c.draft.Clone(), c.source.Clone(), c.gen
	c.mu.Unlock()

	res, err := c.send(ctx, mode, draft, source)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if c.gen != gen {
		return res, err
	}
	if err == nil || errors.Is(err, gateway.ErrAuthorization) {
		c.reset(ModeIdle, model.WatchRequest{}, model.WatchRequest{})
	}
	return res, err
}

func (c *Controller) send(ctx context.Context, mode Mode, draft, source model.WatchRequest) (Result, error) {
	if err := model.Validate(draft, c.now()); err != nil {
		return Result{}, err
	}
	switch mode {
	case ModeCreate:
		rec, err := c.gw.CreateWatchRequest(ctx, model.ForCreate(draft))
		if err != nil {
			return Result{}, err
		}
		return Result{Record: rec, Created: true, Refresh: true}, nil
	case ModeEdit:
		p, err := model.ForUpdate(source, draft)
		if err != nil {
			return Result{}, err
		}
		rec, err := c.gw.UpdateWatchRequest(ctx, p)
		if err != nil {
			return Result{}, err
		}
		return Result{Record: rec, Refresh: true}, nil
	}
	return Result{}, ErrNoDraft
}
