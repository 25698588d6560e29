package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/agisilaos/flightwatch/internal/guard"
	"github.com/agisilaos/flightwatch/internal/session"
)

type credentials struct {
	email    string
	password string
}

func parseCredentials(name string, args []string) (credentials, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password (read from stdin when omitted)")
	if err := fs.Parse(args); err != nil {
		return credentials{}, newExitError(ExitInvalidUsage, "%v", err)
	}
	if len(fs.Args()) != 0 {
		return credentials{}, newExitError(ExitInvalidUsage, "usage: fwatch %s --email <email> [--password <password>]", name)
	}
	return credentials{email: strings.TrimSpace(*email), password: *password}, nil
}

// complete fills in the password from stdin when the flag was omitted.
func (c *credentials) complete(g globalFlags, name string) error {
	if c.email == "" {
		return newExitError(ExitInvalidUsage, "%s requires --email", name)
	}
	if c.password != "" {
		return nil
	}
	if g.NoInput {
		return newExitError(ExitInvalidUsage, "--password is required with --no-input")
	}
	if stdinIsTerminal() {
		fmt.Fprint(os.Stderr, "Password: ")
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return wrapExitError(ExitGenericFailure, err)
	}
	c.password = strings.TrimRight(line, "\r\n")
	if c.password == "" {
		return newExitError(ExitInvalidUsage, "%s requires a password", name)
	}
	return nil
}

func (a App) cmdLogin(g globalFlags, args []string) error {
	creds, err := parseCredentials("login", args)
	if err != nil {
		return err
	}
	return a.withRuntime(g, func(ctx context.Context, rt *runtime) error {
		dst, err := enter(g, rt, guard.PathLogin)
		if err != nil {
			return err
		}
		if dst.Path != guard.PathLogin {
			return renderDestination(ctx, g, rt, dst)
		}
		if err := creds.complete(g, "login"); err != nil {
			return err
		}
		return login(ctx, g, rt, creds)
	})
}

func (a App) cmdRegister(g globalFlags, args []string) error {
	creds, err := parseCredentials("register", args)
	if err != nil {
		return err
	}
	return a.withRuntime(g, func(ctx context.Context, rt *runtime) error {
		dst, err := enter(g, rt, guard.PathRegister)
		if err != nil {
			return err
		}
		if dst.Path != guard.PathRegister {
			return renderDestination(ctx, g, rt, dst)
		}
		if err := creds.complete(g, "register"); err != nil {
			return err
		}
		if err := rt.gateway.Register(ctx, creds.email, creds.password); err != nil {
			return wrapDomainError(err)
		}
		notef(g, "registered %s", creds.email)
		return login(ctx, g, rt, creds)
	})
}

func login(ctx context.Context, g globalFlags, rt *runtime, creds credentials) error {
	res, err := rt.gateway.Login(ctx, creds.email, creds.password)
	if err != nil {
		return wrapDomainError(err)
	}
	if err := rt.session.Login(ctx, res.AccessToken, session.Identity{Email: creds.email, ID: res.UserID.String()}); err != nil {
		return wrapExitError(ExitGenericFailure, err)
	}
	notef(g, "next: fwatch watch list")
	return writeSession(g, rt)
}

func (a App) cmdLogout(g globalFlags, args []string) error {
	if len(args) != 0 {
		return newExitError(ExitInvalidUsage, "usage: fwatch logout")
	}
	return a.withRuntime(g, func(ctx context.Context, rt *runtime) error {
		if err := rt.session.Logout(ctx); err != nil {
			return wrapExitError(ExitGenericFailure, err)
		}
		return writeSession(g, rt)
	})
}

func (a App) cmdStatus(g globalFlags, args []string) error {
	if len(args) != 0 {
		return newExitError(ExitInvalidUsage, "usage: fwatch status")
	}
	return a.withRuntime(g, func(_ context.Context, rt *runtime) error {
		return writeSession(g, rt)
	})
}

type sessionView struct {
	Status     session.Status `json:"status"`
	Email      string         `json:"email,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	TokenStore string         `json:"token_store"`
	APIBaseURL string         `json:"api_base_url"`
}

func writeSession(g globalFlags, rt *runtime) error {
	v := sessionView{
		Status:     rt.session.Status(),
		TokenStore: rt.tokens.Describe(),
		APIBaseURL: rt.gateway.BaseURL(),
	}
	if v.Status == session.StatusAuthenticated {
		id := rt.session.Identity()
		v.Email = id.Email
		v.UserID = id.ID
	}
	if g.JSON {
		return writeJSON(v)
	}
	if g.Plain {
		writePlainKV("status", string(v.Status), "email", v.Email, "user_id", v.UserID, "token_store", v.TokenStore)
		return nil
	}
	if v.Status != session.StatusAuthenticated {
		fmt.Printf("Not logged in (%s)\n", v.APIBaseURL)
		return nil
	}
	fmt.Printf("Logged in as %s (%s)\n", firstOr(v.Email, session.PlaceholderEmail), v.APIBaseURL)
	return nil
}
