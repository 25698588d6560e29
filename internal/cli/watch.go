package cli

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/agisilaos/flightwatch/internal/form"
	"github.com/agisilaos/flightwatch/internal/guard"
	"github.com/agisilaos/flightwatch/internal/model"
)

var watchCommands = []string{"list", "show", "create", "edit", "delete"}

func (a App) cmdWatch(g globalFlags, args []string) error {
	if len(args) == 0 {
		return newExitError(ExitInvalidUsage, "watch requires subcommand: %s", strings.Join(watchCommands, "|"))
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return a.cmdWatchList(g, rest)
	case "show":
		return a.cmdWatchShow(g, rest)
	case "create":
		return a.cmdWatchCreate(g, rest)
	case "edit":
		return a.cmdWatchEdit(g, rest)
	case "delete":
		return a.cmdWatchDelete(g, rest)
	default:
		return newUnknownCommand("watch", sub, watchCommands)
	}
}

func newWatchFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func parseWatchFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return newExitError(ExitInvalidUsage, "%v", err)
	}
	if len(fs.Args()) != 0 {
		return newExitError(ExitInvalidUsage, "unexpected argument %q", fs.Arg(0))
	}
	return nil
}

func requireID(id string) (model.ID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", newExitError(ExitInvalidUsage, "--id is required")
	}
	return model.ID(id), nil
}

func (a App) cmdWatchList(g globalFlags, args []string) error {
	if err := parseWatchFlags(newWatchFlagSet("watch list"), args); err != nil {
		return err
	}
	return a.withRuntime(g, func(ctx context.Context, rt *runtime) error {
		if _, err := enterProtected(g, rt, guard.PathFlights); err != nil {
			return err
		}
		return renderListView(ctx, g, rt)
	})
}

func (a App) cmdWatchShow(g globalFlags, args []string) error {
	fs := newWatchFlagSet("watch show")
	rawID := fs.String("id", "", "Watch request ID")
	if err := parseWatchFlags(fs, args); err != nil {
		return err
	}
	id, err := requireID(*rawID)
	if err != nil {
		return err
	}
	return a.withRuntime(g, func(ctx context.Context, rt *runtime) error {
		if _, err := enterProtected(g, rt, guard.PathFlights); err != nil {
			return err
		}
		w, err := lookup(ctx, g, rt, id, guard.PathFlights)
		if err != nil {
			return err
		}
		return writeRecord(g, w)
	})
}

func (a App) cmdWatchCreate(g globalFlags, args []string) error {
	fs := newWatchFlagSet("watch create")
	edits := addFieldFlags(fs)
	dryRun := fs.Bool("dry-run", false, "Validate and print the payload without sending it")
	if err := parseWatchFlags(fs, args); err != nil {
		return err
	}
	return a.withRuntime(g, func(ctx context.Context, rt *runtime) error {
		if !*dryRun {
			if _, err := enterProtected(g, rt, guard.PathFlights); err != nil {
				return err
			}
		}
		rt.form.StartCreate()
		if err := applyEdits(rt.form, *edits); err != nil {
			return err
		}
		if *dryRun {
			if err := rt.form.Check(); err != nil {
				return wrapDomainError(err)
			}
			draft, _ := rt.form.Draft()
			return writeMaybeJSON(g, model.ForCreate(draft))
		}
		return submit(ctx, g, rt, guard.PathFlights, "created")
	})
}

func (a App) cmdWatchEdit(g globalFlags, args []string) error {
	fs := newWatchFlagSet("watch edit")
	rawID := fs.String("id", "", "Watch request ID")
	edits := addFieldFlags(fs)
	if err := parseWatchFlags(fs, args); err != nil {
		return err
	}
	id, err := requireID(*rawID)
	if err != nil {
		return err
	}
	if len(*edits) == 0 {
		return newExitError(ExitInvalidUsage, "watch edit needs at least one field flag (see fwatch help watch)")
	}
	return a.withRuntime(g, func(ctx context.Context, rt *runtime) error {
		path := guard.EditPath(id.String())
		if _, err := enterProtected(g, rt, path); err != nil {
			return err
		}
		existing, err := lookup(ctx, g, rt, id, path)
		if err != nil {
			return err
		}
		if _, err := rt.form.StartEdit(existing); err != nil {
			return wrapDomainError(err)
		}
		if err := applyEdits(rt.form, *edits); err != nil {
			return err
		}
		return submit(ctx, g, rt, path, "updated")
	})
}

func submit(ctx context.Context, g globalFlags, rt *runtime, path, verb string) error {
	res, err := rt.form.Submit(ctx)
	if err != nil {
		return protectedFailure(g, rt, path, err)
	}
	rec := res.Record
	if res.Refresh {
		if err := rt.list.Refresh(ctx); err != nil {
			rt.log.Warn("list refresh after submit failed", "error", err)
		} else if fresh, ok := rt.list.Find(rec.ID); ok {
			rec = fresh
		}
	}
	notef(g, "%s watch request %s", verb, rec.ID)
	if g.Plain && !g.JSON {
		writePlainKV("flight_id", rec.ID.String(), "result", verb)
		return nil
	}
	return writeRecord(g, rec)
}

func (a App) cmdWatchDelete(g globalFlags, args []string) error {
	fs := newWatchFlagSet("watch delete")
	rawID := fs.String("id", "", "Watch request ID")
	force := fs.Bool("force", false, "Delete without confirmation")
	confirm := fs.String("confirm", "", "Confirmation token (watch request ID)")
	if err := parseWatchFlags(fs, args); err != nil {
		return err
	}
	id, err := requireID(*rawID)
	if err != nil {
		return err
	}
	if !*force && model.ID(strings.TrimSpace(*confirm)) != id {
		return newExitError(ExitInvalidUsage, "destructive action: pass --force or --confirm with the watch request ID")
	}
	if g.NoInput && !*force {
		return newExitError(ExitInvalidUsage, "--no-input requires --force for watch delete")
	}
	return a.withRuntime(g, func(ctx context.Context, rt *runtime) error {
		if _, err := enterProtected(g, rt, guard.PathFlights); err != nil {
			return err
		}
		if err := rt.list.Delete(ctx, id); err != nil {
			return protectedFailure(g, rt, guard.PathFlights, err)
		}
		notef(g, "deleted watch request %s", id)
		if g.Plain && !g.JSON {
			writePlainKV("flight_id", id.String(), "result", "deleted")
			return nil
		}
		return writeMaybeJSON(g, map[string]any{"ok": true, "flight_id": id})
	})
}

type fieldEdit struct {
	field string
	raw   string
}

// fieldFlag records each occurrence of a field flag, in command-line order,
// as a raw edit for the form.
type fieldFlag struct {
	field  string
	isBool bool
	edits  *[]fieldEdit
}

func (f fieldFlag) String() string { return "" }

func (f fieldFlag) Set(v string) error {
	*f.edits = append(*f.edits, fieldEdit{field: f.field, raw: v})
	return nil
}

func (f fieldFlag) IsBoolFlag() bool { return f.isBool }

var fieldFlags = []struct {
	name   string
	field  string
	usage  string
	isBool bool
}{
	{"from", form.FieldDepartureAirport, "Departure airport IATA code", false},
	{"to", form.FieldArrivalAirport, "Arrival airport IATA code", false},
	{"date", form.FieldRequestedDate, "Departure date YYYY-MM-DD", false},
	{"price", form.FieldTargetPrice, "Target price", false},
	{"name", form.FieldCustomName, "Display name", false},
	{"notify-any-drop", form.FieldNotifyOnAnyDrop, "Notify on any price drop", true},
	{"cabin", form.FieldDepartment, "Cabin: ECONOMY, PREMIUM_ECONOMY, BUSINESS, FIRST", false},
	{"round-trip", form.FieldIsRoundTrip, "Round trip", true},
	{"return", form.FieldReturnDate, "Return date YYYY-MM-DD", false},
	{"connections", form.FieldMaxConnections, "Maximum connections (0 = direct)", false},
	{"max-connection-hours", form.FieldMaxConnectionHours, "Longest layover in hours", false},
	{"flex-before", form.FieldFlexibleDaysBefore, "Flexible days before departure", false},
	{"flex-after", form.FieldFlexibleDaysAfter, "Flexible days after departure", false},
}

func addFieldFlags(fs *flag.FlagSet) *[]fieldEdit {
	edits := &[]fieldEdit{}
	for _, f := range fieldFlags {
		fs.Var(fieldFlag{field: f.field, isBool: f.isBool, edits: edits}, f.name, f.usage)
	}
	return edits
}

func applyEdits(c *form.Controller, edits []fieldEdit) error {
	for _, e := range edits {
		if err := c.SetField(e.field, e.raw); err != nil {
			return wrapExitError(ExitInvalidUsage, err)
		}
	}
	return nil
}
