package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agisilaos/flightwatch/internal/fakeremote"
)

var fixedNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

type harness struct {
	app      App
	remote   *fakeremote.Server
	stateDir string
}

// newHarness isolates config and state under temp dirs and points the CLI
// at an in-memory remote.
func newHarness(t *testing.T) harness {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	remote := fakeremote.New()
	srv := remote.Start()
	t.Cleanup(srv.Close)
	t.Setenv("FWATCH_API_BASE_URL", srv.URL)
	t.Setenv("FWATCH_TOKEN_STORE", "file")
	t.Setenv("FWATCH_LOG_LEVEL", "warn")

	app := NewApp("test")
	app.Now = func() time.Time { return fixedNow }
	return harness{app: app, remote: remote, stateDir: t.TempDir()}
}

func (h harness) run(t *testing.T, args ...string) (stdout, stderr string, code int, errText string) {
	t.Helper()
	return runCLIWithCapture(t, h.app, append([]string{"--state-dir", h.stateDir}, args...))
}

// mustRun runs args with --json and decodes stdout into out.
func (h harness) mustRun(t *testing.T, out any, args ...string) {
	t.Helper()
	stdout, stderr, code, errText := h.run(t, append([]string{"--json"}, args...)...)
	require.Equalf(t, ExitSuccess, code, "args=%v err=%s stderr=%s", args, errText, stderr)
	if out != nil {
		require.NoErrorf(t, json.Unmarshal([]byte(stdout), out), "stdout=%s", stdout)
	}
}

func (h harness) login(t *testing.T) {
	t.Helper()
	h.remote.AddUser("dana@example.com", "secret")
	h.mustRun(t, nil, "login", "--email", "dana@example.com", "--password", "secret")
}

func runCLIWithCapture(t *testing.T, app App, args []string) (stdout string, stderr string, code int, errText string) {
	t.Helper()
	stdout, stderr, err := captureStdoutStderr(t, func() error {
		return app.Run(args)
	})
	if err != nil {
		errText = err.Error()
	}
	return stdout, stderr, ExitCode(err), errText
}

func captureStdoutStderr(t *testing.T, fn func() error) (string, string, error) {
	t.Helper()

	oldOut := os.Stdout
	oldErr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("create stdout pipe: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("create stderr pipe: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	outC := drain(rOut)
	errC := drain(rErr)

	runErr := fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = oldOut
	os.Stderr = oldErr
	return <-outC, <-errC, runErr
}

func drain(r *os.File) <-chan string {
	c := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		_ = r.Close()
		c <- buf.String()
	}()
	return c
}
