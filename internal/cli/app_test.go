package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agisilaos/flightwatch/internal/form"
	"github.com/agisilaos/flightwatch/internal/gateway"
	"github.com/agisilaos/flightwatch/internal/model"
	"github.com/agisilaos/flightwatch/internal/watchlist"
)

func TestParseGlobal(t *testing.T) {
	g, rest, err := parseGlobal([]string{"--json", "-q", "--timeout", "5s", "--state-dir", "/tmp/x", "watch", "list", "--json"})
	require.NoError(t, err)
	assert.True(t, g.JSON)
	assert.True(t, g.Quiet)
	assert.Equal(t, 5*time.Second, g.Timeout)
	assert.Equal(t, "/tmp/x", g.StateDir)
	assert.Equal(t, []string{"watch", "list", "--json"}, rest)

	for _, args := range [][]string{{"--timeout"}, {"--timeout", "soon"}, {"--timeout", "-1s"}, {"--state-dir"}, {"--colour"}} {
		_, _, err := parseGlobal(args)
		assert.Errorf(t, err, "args=%v", args)
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGenericFailure},
		{&model.ValidationError{Reasons: []string{"x"}}, ExitInvalidUsage},
		{&gateway.Error{Kind: gateway.KindAuthorization, Op: "list"}, ExitAuthRequired},
		{watchlist.ErrUnauthenticated, ExitAuthRequired},
		{watchlist.ErrStale, ExitAuthRequired},
		{&gateway.Error{Kind: gateway.KindNotFound, Op: "update"}, ExitNotFound},
		{&gateway.Error{Kind: gateway.KindRemote, Op: "create"}, ExitRemoteFailure},
		{&gateway.Error{Kind: gateway.KindTransport, Op: "create"}, ExitRemoteFailure},
		{form.ErrBusy, ExitInvalidUsage},
		{model.ErrMissingID, ExitInvalidUsage},
		{newExitError(ExitNotFound, "gone"), ExitNotFound},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, ExitCode(wrapDomainError(tc.err)), "err=%v", tc.err)
	}
}

func TestErrorHints(t *testing.T) {
	assert.Equal(t, []string{"fwatch help watch"}, ErrorHints(wrapDomainError(&model.ValidationError{Reasons: []string{"x"}})))
	assert.Equal(t, []string{"fwatch login --email <email>"}, ErrorHints(newExitError(ExitAuthRequired, "login required")))
	assert.Equal(t, []string{"fwatch watch list"}, ErrorHints(newExitError(ExitNotFound, "gone")))
	assert.Equal(t, []string{"fwatch doctor"}, ErrorHints(wrapDomainError(&gateway.Error{Kind: gateway.KindTransport})))
	assert.Equal(t, []string{"fwatch status", "fwatch --help"}, ErrorHints(newUnknownCommand("", "stauts", topCommands)))
	assert.Nil(t, ErrorHints(nil))
}

func TestFieldFlagsKeepCommandLineOrder(t *testing.T) {
	fs := flag.NewFlagSet("t", flag.ContinueOnError)
	edits := addFieldFlags(fs)
	require.NoError(t, fs.Parse([]string{"--price", "300", "--round-trip", "--return", "2030-01-20", "--notify-any-drop=false", "--price", "280"}))

	assert.Equal(t, []fieldEdit{
		{form.FieldTargetPrice, "300"},
		{form.FieldIsRoundTrip, "true"},
		{form.FieldReturnDate, "2030-01-20"},
		{form.FieldNotifyOnAnyDrop, "false"},
		{form.FieldTargetPrice, "280"},
	}, *edits)
}

func TestFieldFlagsCoverEveryFormField(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range fieldFlags {
		seen[f.field] = true
	}
	for _, name := range form.Fields() {
		assert.Truef(t, seen[name], "no flag for %s", name)
	}
}

func TestFlightsLink(t *testing.T) {
	w := model.NewDraft()
	w.DepartureAirport = "TLV"
	w.ArrivalAirport = "JFK"
	w.RequestedDate = "2030-01-10"
	rd := "2030-01-20"
	w.Criteria.IsRoundTrip = true
	w.Criteria.ReturnDate = &rd

	link := flightsLink(w)
	assert.True(t, strings.HasPrefix(link, "https://www.google.com/travel/flights?"))
	for _, part := range []string{"f=TLV", "t=JFK", "d=2030-01-10", "r=2030-01-20", "sc=1", "c=economy"} {
		assert.Contains(t, link, part)
	}

	w.Criteria.MaxConnections = 1
	assert.NotContains(t, flightsLink(w), "sc=1")
}

func TestConfigGetSet(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, nil, "config", "set", "log_format", "JSON")
	var got map[string]string
	h.mustRun(t, &got, "config", "get", "log_format")
	assert.Equal(t, "json", got["value"])

	h.mustRun(t, nil, "config", "set", "redis_password", "hunter2")
	h.mustRun(t, &got, "config", "get", "redis_password")
	assert.Equal(t, "***", got["value"])

	_, _, code, _ := h.run(t, "config", "set", "api_base_url", "ftp://nope")
	assert.Equal(t, ExitInvalidUsage, code)
	_, _, code, _ = h.run(t, "config", "set", "token_store", "redis")
	assert.Equal(t, ExitInvalidUsage, code)
	_, _, code, _ = h.run(t, "config", "set", "request_timeout_seconds", "0")
	assert.Equal(t, ExitInvalidUsage, code)

	_, _, code, errText := h.run(t, "config", "get", "log_levl")
	assert.Equal(t, ExitInvalidUsage, code)
	assert.Equal(t, `unknown config key "log_levl"`, errText)
	err := h.app.Run([]string{"config", "get", "log_levl"})
	assert.Equal(t, []string{"fwatch config get log_level", "fwatch --help"}, ErrorHints(err))
}

func TestDoctor(t *testing.T) {
	h := newHarness(t)

	stdout, _, code, _ := h.run(t, "--json", "doctor")
	require.Equal(t, ExitSuccess, code)
	var report doctorReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.True(t, report.OK)
	assert.Equal(t, 1, report.Warnings)
	names := []string{}
	for _, c := range report.Checks {
		names = append(names, c.Name+"="+c.Status)
	}
	assert.Contains(t, names, "remote.reachable=ok")
	assert.Contains(t, names, "session=warn")

	_, _, code, errText := h.run(t, "--json", "doctor", "--strict")
	assert.Equal(t, ExitGenericFailure, code)
	assert.Contains(t, errText, "strict")

	h.login(t)
	_, _, code, _ = h.run(t, "--json", "doctor", "--strict")
	assert.Equal(t, ExitSuccess, code)
}

func TestDoctorReportsBadConfig(t *testing.T) {
	h := newHarness(t)
	t.Setenv("FWATCH_TOKEN_STORE", "memcached")

	stdout, _, code, _ := h.run(t, "--json", "doctor")
	assert.Equal(t, ExitGenericFailure, code)
	var report doctorReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.False(t, report.OK)
	assert.Equal(t, "config.valid", report.Checks[0].Name)
	assert.Equal(t, "fail", report.Checks[0].Status)
}

func TestCompletion(t *testing.T) {
	h := newHarness(t)

	stdout, _, code, _ := h.run(t, "completion", "bash")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "complete -F _fwatch_completions fwatch")
	assert.Contains(t, stdout, "list show create edit delete")

	stdout, _, code, _ = h.run(t, "completion", "path", "zsh")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "_fwatch", filepath.Base(strings.TrimSpace(stdout)))

	_, _, code, _ = h.run(t, "completion", "tcsh")
	assert.Equal(t, ExitInvalidUsage, code)
}

func TestHelpAndVersion(t *testing.T) {
	h := newHarness(t)

	stdout, _, code, _ := h.run(t, "help", "watch")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "--max-connection-hours")

	stdout, _, _, _ = h.run(t, "--version")
	assert.Equal(t, "test", strings.TrimSpace(stdout))
}
