package cli

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordJSON struct {
	ID               json.Number `json:"flight_id"`
	DepartureAirport string      `json:"departure_airport"`
	ArrivalAirport   string      `json:"arrival_airport"`
	TargetPrice      float64     `json:"target_price"`
	Label            string      `json:"label"`
	PriceStatus      string      `json:"price_status"`
	Link             string      `json:"link"`
}

type sessionJSON struct {
	Status     string `json:"status"`
	Email      string `json:"email"`
	UserID     string `json:"user_id"`
	TokenStore string `json:"token_store"`
}

func TestWatchRequestLifecycle(t *testing.T) {
	h := newHarness(t)

	var sess sessionJSON
	h.mustRun(t, &sess, "register", "--email", "dana@example.com", "--password", "secret")
	assert.Equal(t, "authenticated", sess.Status)
	assert.Equal(t, "dana@example.com", sess.Email)
	assert.Equal(t, "1", sess.UserID)

	var created recordJSON
	h.mustRun(t, &created, "watch", "create", "--from", "tlv", "--to", "jfk", "--date", "2030-01-10", "--price", "300")
	require.NotEmpty(t, created.ID.String())
	assert.Equal(t, "TLV", created.DepartureAirport)
	assert.Equal(t, "JFK", created.ArrivalAirport)
	assert.Equal(t, "TLV → JFK", created.Label)
	assert.Equal(t, "not checked yet", created.PriceStatus)
	assert.Contains(t, created.Link, "google.com/travel/flights")

	var list []recordJSON
	h.mustRun(t, &list, "watch", "list")
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	var edited recordJSON
	h.mustRun(t, &edited, "watch", "edit", "--id", created.ID.String(), "--price", "250", "--name", "New York")
	assert.Equal(t, 250.0, edited.TargetPrice)
	assert.Equal(t, "New York", edited.Label)

	put, ok := h.remote.LastRequest(http.MethodPut, "/flights/")
	require.True(t, ok)
	assert.Contains(t, string(put.Body), `"flight_id":`+created.ID.String())

	var shown recordJSON
	h.mustRun(t, &shown, "watch", "show", "--id", created.ID.String())
	assert.Equal(t, 250.0, shown.TargetPrice)

	_, _, code, errText := h.run(t, "watch", "delete", "--id", created.ID.String())
	assert.Equal(t, ExitInvalidUsage, code)
	assert.Contains(t, errText, "--force")

	h.mustRun(t, nil, "watch", "delete", "--id", created.ID.String(), "--confirm", created.ID.String())
	h.mustRun(t, &list, "watch", "list")
	assert.Empty(t, list)

	h.mustRun(t, &sess, "logout")
	assert.Equal(t, "unauthenticated", sess.Status)

	_, _, code, _ = h.run(t, "watch", "list")
	assert.Equal(t, ExitAuthRequired, code)
}

func TestInvalidDraftNeverReachesRemote(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	_, _, code, errText := h.run(t, "watch", "create", "--from", "TL", "--to", "JFK", "--date", "2020-01-01", "--price", "0")
	assert.Equal(t, ExitInvalidUsage, code)
	assert.NotEmpty(t, errText)
	_, posted := h.remote.LastRequest(http.MethodPost, "/flights")
	assert.False(t, posted)

	_, _, code, _ = h.run(t, "watch", "create", "--from", "TLV", "--to", "JFK", "--date", "2030-01-10", "--price", "300", "--round-trip=maybe")
	assert.Equal(t, ExitInvalidUsage, code)
}

func TestCreateDryRunDoesNotNeedSession(t *testing.T) {
	h := newHarness(t)

	var payload map[string]any
	h.mustRun(t, &payload, "watch", "create", "--dry-run", "--from", "ath", "--to", "sfo", "--date", "2030-03-01", "--price", "450.5", "--cabin", "BUSINESS")
	assert.Equal(t, "ATH", payload["departure_airport"])
	assert.Equal(t, 450.5, payload["target_price"])
	assert.NotContains(t, payload, "flight_id")
	assert.Empty(t, h.remote.Requests())
}

func TestRevokedTokenEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.remote.RevokeTokens()

	_, stderr, code, _ := h.run(t, "watch", "list")
	assert.Equal(t, ExitAuthRequired, code)
	assert.Contains(t, stderr, "redirected to /login")

	var sess sessionJSON
	h.mustRun(t, &sess, "status")
	assert.Equal(t, "unauthenticated", sess.Status)
	_, err := os.Stat(filepath.Join(h.stateDir, "session.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoteFailureKeepsExitCodeAndReason(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.remote.FailNext(http.StatusInternalServerError, `{"detail":"price engine offline"}`)

	_, _, code, errText := h.run(t, "watch", "list")
	assert.Equal(t, ExitRemoteFailure, code)
	assert.Contains(t, errText, "price engine offline")
}

func TestOpenFollowsGuard(t *testing.T) {
	h := newHarness(t)

	var view map[string]string
	h.mustRun(t, &view, "open", "/flights")
	assert.Equal(t, "/login", view["view"])

	_, _, code, _ := h.run(t, "open", "/nowhere")
	assert.Equal(t, ExitNotFound, code)

	h.login(t)

	var list []recordJSON
	h.mustRun(t, &list, "open", "/register")
	assert.Empty(t, list)

	_, _, code, errText := h.run(t, "open", "/flights/999/edit")
	assert.Equal(t, ExitNotFound, code)
	assert.Contains(t, errText, "999")
}

func TestLoginWhenAuthenticatedShowsList(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	stdout, stderr, code, _ := h.run(t, "login", "--email", "dana@example.com", "--password", "secret")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "redirected to /flights")
	assert.Contains(t, stdout, "No watch requests yet.")
	assert.Len(t, h.remote.Requests(), 2)
}

func TestLoginFailures(t *testing.T) {
	h := newHarness(t)
	h.remote.AddUser("dana@example.com", "secret")

	_, _, code, errText := h.run(t, "login", "--email", "dana@example.com", "--password", "wrong")
	assert.Equal(t, ExitAuthRequired, code)
	assert.Contains(t, errText, "Incorrect username or password")

	_, _, code, _ = h.run(t, "--no-input", "login", "--email", "dana@example.com")
	assert.Equal(t, ExitInvalidUsage, code)

	_, _, code, _ = h.run(t, "login", "--password", "secret")
	assert.Equal(t, ExitInvalidUsage, code)
}

func TestRedisTokenStore(t *testing.T) {
	h := newHarness(t)
	mr := miniredis.RunT(t)
	t.Setenv("FWATCH_TOKEN_STORE", "redis")
	t.Setenv("FWATCH_REDIS_ADDR", mr.Addr())

	h.login(t)
	tok, err := mr.Get("fwatch:token")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	var sess sessionJSON
	h.mustRun(t, &sess, "status")
	assert.Equal(t, "authenticated", sess.Status)
	assert.Equal(t, "redis:"+mr.Addr()+"/fwatch:token", sess.TokenStore)

	h.mustRun(t, nil, "logout")
	assert.False(t, mr.Exists("fwatch:token"))
}

func TestMetricsTextfileIsWritten(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "fwatch.prom")
	t.Setenv("FWATCH_METRICS_TEXTFILE", path)
	h.login(t)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `fwatch_gateway_requests_total{operation="login",status_code="200"} 1`)
	assert.Contains(t, string(b), `fwatch_session_transitions_total{to="authenticated"} 1`)
}

func TestUnknownSubcommandHints(t *testing.T) {
	h := newHarness(t)

	_, _, code, errText := h.run(t, "watch", "lsit")
	assert.Equal(t, ExitInvalidUsage, code)
	assert.Contains(t, errText, `unknown watch subcommand "lsit"`)

	err := h.app.Run([]string{"watch", "lsit"})
	assert.Equal(t, []string{"fwatch watch list", "fwatch --help"}, ErrorHints(err))
}

func TestPlainListOutput(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.mustRun(t, nil, "watch", "create", "--from", "TLV", "--to", "JFK", "--date", "2030-01-10", "--price", "300")

	stdout, _, code, _ := h.run(t, "--plain", "watch", "list")
	require.Equal(t, ExitSuccess, code)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, []string{"1", "TLV → JFK", "TLV", "JFK", "2030-01-10", "300", "-", "not checked yet"}, strings.Split(lines[0], "\t"))
}
