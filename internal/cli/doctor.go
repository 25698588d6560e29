package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agisilaos/flightwatch/internal/config"
	"github.com/agisilaos/flightwatch/internal/session"
	"github.com/agisilaos/flightwatch/internal/tokenstore"
)

type doctorCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type doctorReport struct {
	OK       bool          `json:"ok"`
	Failures int           `json:"failures"`
	Warnings int           `json:"warnings"`
	Checks   []doctorCheck `json:"checks"`
}

func (a App) cmdDoctor(g globalFlags, args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	strict := fs.Bool("strict", false, "Treat warnings as failures")
	if err := fs.Parse(args); err != nil {
		return newExitError(ExitInvalidUsage, "%v", err)
	}
	if len(fs.Args()) != 0 {
		return newExitError(ExitInvalidUsage, "usage: fwatch doctor [--strict]")
	}
	report := a.runDoctorChecks(context.Background(), g)
	effectiveFailures := report.Failures
	if *strict {
		effectiveFailures += report.Warnings
	}
	if g.JSON {
		if err := writeJSON(report); err != nil {
			return wrapExitError(ExitGenericFailure, err)
		}
	} else {
		for _, c := range report.Checks {
			fmt.Printf("%s\t%s\t%s\n", strings.ToUpper(c.Status), c.Name, c.Message)
		}
		fmt.Printf("summary\tfailures=%d\twarnings=%d\n", report.Failures, report.Warnings)
	}
	if effectiveFailures > 0 {
		if *strict && report.Warnings > 0 && report.Failures == 0 {
			return newExitError(ExitGenericFailure, "doctor strict mode found %d warning(s)", report.Warnings)
		}
		return newExitError(ExitGenericFailure, "doctor found %d failing check(s)", report.Failures)
	}
	return nil
}

func (a App) runDoctorChecks(ctx context.Context, g globalFlags) doctorReport {
	checks := []doctorCheck{}
	add := func(name, status, message string) {
		checks = append(checks, doctorCheck{Name: name, Status: status, Message: message})
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	configOK := err == nil
	if configOK {
		add("config.valid", "ok", "api_base_url="+cfg.APIBaseURL)
	} else {
		add("config.valid", "fail", err.Error())
	}

	if dir, err := config.ConfigDir(); err != nil {
		add("paths.config", "fail", err.Error())
	} else if err := ensureWritableDir(dir); err != nil {
		add("paths.config", "fail", err.Error())
	} else {
		add("paths.config", "ok", dir)
	}

	if dir, err := config.StateDir(g.StateDir); err != nil {
		add("paths.state", "fail", err.Error())
	} else if err := ensureWritableDir(dir); err != nil {
		add("paths.state", "fail", err.Error())
	} else {
		add("paths.state", "ok", dir)
	}

	if !configOK {
		add("token_store", "warn", "skipped: config is invalid")
		add("remote.reachable", "warn", "skipped: config is invalid")
		return summarize(checks)
	}

	rt, err := a.openRuntime(ctx, g)
	if err != nil {
		add("token_store", "fail", err.Error())
		return summarize(checks)
	}
	defer rt.close()

	if rs, ok := rt.tokens.(*tokenstore.RedisStore); ok {
		if err := rs.Ping(ctx); err != nil {
			add("token_store", "fail", rt.tokens.Describe()+": "+err.Error())
		} else {
			add("token_store", "ok", rt.tokens.Describe())
		}
	} else {
		add("token_store", "ok", rt.tokens.Describe())
	}

	if status, err := rt.gateway.Ping(ctx); err != nil {
		add("remote.reachable", "fail", err.Error())
	} else {
		add("remote.reachable", "ok", fmt.Sprintf("%s answered HTTP %d", rt.gateway.BaseURL(), status))
	}

	if rt.session.Status() == session.StatusAuthenticated {
		add("session", "ok", "logged in as "+rt.session.Identity().Email)
	} else {
		add("session", "warn", "not logged in")
	}
	return summarize(checks)
}

func summarize(checks []doctorCheck) doctorReport {
	report := doctorReport{Checks: checks}
	for _, c := range checks {
		switch c.Status {
		case "fail":
			report.Failures++
		case "warn":
			report.Warnings++
		}
	}
	report.OK = report.Failures == 0
	return report
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".fwatch-write-test")
	if err := os.WriteFile(probe, []byte("ok\n"), 0o600); err != nil {
		return err
	}
	return os.Remove(probe)
}
