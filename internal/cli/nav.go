package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/agisilaos/flightwatch/internal/guard"
)

const maxRedirects = 4

// enter walks path through the access guard, following redirects, and
// returns the destination that was finally allowed.
func enter(g globalFlags, rt *runtime, path string) (guard.Destination, error) {
	dst := guard.Resolve(path)
	for hop := 0; hop < maxRedirects; hop++ {
		d := guard.Decide(dst, rt.session.Status())
		switch d.Action {
		case guard.Allow:
			return dst, nil
		case guard.Redirect:
			rt.log.Debug("guard redirect", "from", dst.Path, "to", d.Target)
			notef(g, "redirected to %s", d.Target)
			dst = guard.Resolve(d.Target)
		case guard.NotFound:
			return dst, newExitError(ExitNotFound, "no such view %q", path)
		default:
			return dst, newExitError(ExitGenericFailure, "session state is still unknown")
		}
	}
	return dst, newExitError(ExitGenericFailure, "too many redirects from %q", path)
}

// enterProtected is enter for commands that only make sense logged in. A
// redirect to the login view becomes an auth-required failure.
func enterProtected(g globalFlags, rt *runtime, path string) (guard.Destination, error) {
	dst, err := enter(g, rt, path)
	if err != nil {
		return dst, err
	}
	if dst.Kind != guard.KindProtected {
		return dst, newExitError(ExitAuthRequired, "login required")
	}
	return dst, nil
}

func (a App) cmdOpen(g globalFlags, args []string) error {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return newExitError(ExitInvalidUsage, "%v", err)
	}
	if fs.NArg() != 1 {
		return newExitError(ExitInvalidUsage, "usage: fwatch open <path>")
	}
	return a.withRuntime(g, func(ctx context.Context, rt *runtime) error {
		dst, err := enter(g, rt, fs.Arg(0))
		if err != nil {
			return err
		}
		return renderDestination(ctx, g, rt, dst)
	})
}

func renderDestination(ctx context.Context, g globalFlags, rt *runtime, dst guard.Destination) error {
	switch {
	case dst.Path == guard.PathLogin:
		return renderAuthView(g, dst.Path, "fwatch login --email <email>")
	case dst.Path == guard.PathRegister:
		return renderAuthView(g, dst.Path, "fwatch register --email <email>")
	case dst.Path == guard.PathFlights:
		return renderListView(ctx, g, rt)
	case dst.ID != "":
		return renderEditView(ctx, g, rt, dst.ID)
	}
	return newExitError(ExitNotFound, "no such view %q", dst.Path)
}

func renderAuthView(g globalFlags, path, next string) error {
	if g.JSON {
		return writeJSON(map[string]any{"view": path, "status": "unauthenticated", "next": next})
	}
	if g.Plain {
		writePlainKV("view", path, "status", "unauthenticated", "next", next)
		return nil
	}
	fmt.Printf("Not logged in.\nnext: %s\n", next)
	return nil
}
