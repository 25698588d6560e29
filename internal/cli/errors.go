package cli

import (
	"errors"
	"fmt"

	"github.com/agisilaos/flightwatch/internal/form"
	"github.com/agisilaos/flightwatch/internal/gateway"
	"github.com/agisilaos/flightwatch/internal/model"
	"github.com/agisilaos/flightwatch/internal/watchlist"
)

const (
	ExitSuccess        = 0
	ExitGenericFailure = 1
	ExitInvalidUsage   = 2
	ExitAuthRequired   = 3
	ExitRemoteFailure  = 4
	ExitNotFound       = 5
)

type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e ExitError) Unwrap() error {
	return e.Err
}

func newExitError(code int, format string, args ...any) error {
	return ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

func wrapExitError(code int, err error) error {
	if err == nil {
		return nil
	}
	var ex ExitError
	if errors.As(err, &ex) {
		return err
	}
	return ExitError{Code: code, Err: err}
}

func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ex ExitError
	if errors.As(err, &ex) {
		if ex.Code <= 0 {
			return ExitGenericFailure
		}
		return ex.Code
	}
	return ExitGenericFailure
}

type unknownCommandError struct {
	Scope   string
	Noun    string
	Name    string
	Choices []string
}

func (e unknownCommandError) Error() string {
	if e.Noun != "" {
		return fmt.Sprintf("unknown %s %q", e.Noun, e.Name)
	}
	if e.Scope == "" {
		return fmt.Sprintf("unknown command %q", e.Name)
	}
	return fmt.Sprintf("unknown %s subcommand %q", e.Scope, e.Name)
}

func newUnknownCommand(scope, name string, choices []string) error {
	return ExitError{Code: ExitInvalidUsage, Err: unknownCommandError{Scope: scope, Name: name, Choices: choices}}
}

// wrapDomainError maps watch request, session and remote failures onto exit
// codes.
func wrapDomainError(err error) error {
	if err == nil {
		return nil
	}
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return wrapExitError(ExitInvalidUsage, err)
	case errors.Is(err, gateway.ErrAuthorization),
		errors.Is(err, watchlist.ErrUnauthenticated),
		errors.Is(err, watchlist.ErrStale):
		return wrapExitError(ExitAuthRequired, err)
	case errors.Is(err, gateway.ErrNotFound):
		return wrapExitError(ExitNotFound, err)
	case errors.Is(err, gateway.ErrRemote), errors.Is(err, gateway.ErrTransport):
		return wrapExitError(ExitRemoteFailure, err)
	case errors.Is(err, form.ErrUnknownField), errors.Is(err, form.ErrBusy), errors.Is(err, model.ErrMissingID):
		return wrapExitError(ExitInvalidUsage, err)
	}
	return wrapExitError(ExitGenericFailure, err)
}

// ErrorHints suggests follow-up commands for a failed run.
func ErrorHints(err error) []string {
	if err == nil {
		return nil
	}
	var unknown unknownCommandError
	if errors.As(err, &unknown) {
		hints := []string{}
		if s := suggestClosest(unknown.Name, unknown.Choices); s != "" {
			if unknown.Scope == "" {
				hints = append(hints, "fwatch "+s)
			} else {
				hints = append(hints, "fwatch "+unknown.Scope+" "+s)
			}
		}
		return append(hints, "fwatch --help")
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return []string{"fwatch help watch"}
	}
	switch ExitCode(err) {
	case ExitAuthRequired:
		return []string{"fwatch login --email <email>"}
	case ExitNotFound:
		return []string{"fwatch watch list"}
	case ExitRemoteFailure:
		return []string{"fwatch doctor"}
	}
	return nil
}
