package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agisilaos/flightwatch/internal/logger"
	"github.com/agisilaos/flightwatch/internal/metrics"
	"github.com/agisilaos/flightwatch/internal/model"
)

const DefaultBaseURL = "http://127.0.0.1:8000"

const (
	routeToken    = "/token"
	routeRegister = "/register_user"
	routeMine     = "/get_flights/me"
	routeFlights  = "/flights/"
)

// Session is the part of the session store the gateway needs.
type Session interface {
	Token() string
	Invalidate(ctx context.Context, reason string) error
}

type Options struct {
	BaseURL string
	HTTP    *http.Client
	Timeout time.Duration
	Session Session
	Logger  *logger.Logger
	Metrics *metrics.Collector
}

// Client is the only path to the remote service. Calls are never retried.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	session Session
	log     *logger.Logger
	metrics *metrics.Collector
}

func New(opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTP,
		timeout: opts.Timeout,
		session: opts.Session,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = 20 * time.Second
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.log == nil {
		c.log = logger.Discard()
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

type LoginResult struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	UserID      model.ID `json:"user_id,omitempty"`
}

// Login exchanges credentials for a bearer token. The remote expects an
// OAuth2 password form with the email in "username".
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	var out LoginResult
	err := c.do(ctx, call{
		op:          "login",
		method:      http.MethodPost,
		path:        routeToken,
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		out:         &out,
	})
	if err != nil {
		return LoginResult{}, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return LoginResult{}, &Error{Kind: KindTransport, Op: "login", Reason: "response carried no access_token"}
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	return c.do(ctx, call{op: "register", method: http.MethodPost, path: routeRegister, body: body})
}

func (c *Client) ListWatchRequests(ctx context.Context) ([]model.WatchRequest, error) {
	var out []model.WatchRequest
	if err := c.do(ctx, call{op: "list", method: http.MethodGet, path: routeMine, authed: true, out: &out}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.WatchRequest{}
	}
	return out, nil
}

// CreateWatchRequest returns the stored record, which must carry the
// identifier the remote assigned.
func (c *Client) CreateWatchRequest(ctx context.Context, p model.CreatePayload) (model.WatchRequest, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return model.WatchRequest{}, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, call{op: "create", method: http.MethodPost, path: routeFlights, body: body, authed: true, out: &raw}); err != nil {
		return model.WatchRequest{}, err
	}
	rec, ok := decodeRecord(raw)
	if !ok || rec.ID == "" {
		return model.WatchRequest{}, &Error{Kind: KindTransport, Op: "create", Reason: "response carried no flight_id"}
	}
	return rec, nil
}

// UpdateWatchRequest sends the full payload. Remotes that answer with a
// bare acknowledgement get the payload echoed back as the record.
func (c *Client) UpdateWatchRequest(ctx context.Context, p model.UpdatePayload) (model.WatchRequest, error) {
	if p.ID == "" {
		return model.WatchRequest{}, model.ErrMissingID
	}
	body, err := json.Marshal(p)
	if err != nil {
		return model.WatchRequest{}, err
	}
	var raw json.RawMessage
	path := routeFlights + url.PathEscape(string(p.ID))
	if err := c.do(ctx, call{op: "update", method: http.MethodPut, path: path, body: body, authed: true, out: &raw}); err != nil {
		return model.WatchRequest{}, err
	}
	if rec, ok := decodeRecord(raw); ok {
		if rec.ID == "" {
			rec.ID = p.ID
		}
		return rec, nil
	}
	return echoRecord(p), nil
}

func (c *Client) DeleteWatchRequest(ctx context.Context, id model.ID) error {
	if id == "" {
		return model.ErrMissingID
	}
	path := routeFlights + url.PathEscape(string(id))
	return c.do(ctx, call{op: "delete", method: http.MethodDelete, path: path, authed: true})
}

type call struct {
	op          string
	method      string
	path        string
	body        []byte
	contentType string
	authed      bool
	out         any
}

func (c *Client) do(ctx context.Context, k call) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if k.body != nil {
		body = bytes.NewReader(k.body)
	}
	req, err := http.NewRequestWithContext(ctx, k.method, c.baseURL+k.path, body)
	if err != nil {
		return &Error{Kind: KindTransport, Op: k.op, Reason: "could not build request", Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if k.body != nil {
		ct := k.contentType
		if ct == "" {
			ct = "application/json"
		}
		req.Header.Set("Content-Type", ct)
	}
	bearer := ""
	if k.authed && c.session != nil {
		bearer = c.session.Token()
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	log := c.log.WithFields(map[string]any{
		"op":         k.op,
		"method":     k.method,
		"route":      k.path,
		"request_id": requestID,
	})
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(k.op, 0, time.Since(started))
		c.metrics.ObserveFailure(k.op, string(KindTransport))
		log.Debug("gateway call failed", "error", err)
		reason := "remote service unreachable"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "remote service timed out"
		}
		return &Error{Kind: KindTransport, Op: k.op, Reason: reason, Err: err}
	}
	defer resp.Body.Close()
	payload, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	elapsed := time.Since(started)
	c.metrics.ObserveRequest(k.op, resp.StatusCode, elapsed)
	log.Debug("gateway call", "status", resp.StatusCode, "duration", elapsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := classify(resp.StatusCode)
		reason := reasonFromBody(payload)
		if reason == "" {
			reason = GenericReason
		}
		c.metrics.ObserveFailure(k.op, string(kind))
		gerr := &Error{Kind: kind, Op: k.op, Status: resp.StatusCode, Reason: reason}
		if kind == KindAuthorization && bearer != "" {
			log.Warn("remote rejected bearer token; invalidating session", "status", resp.StatusCode)
			if err := c.session.Invalidate(context.WithoutCancel(ctx), fmt.Sprintf("%s rejected with HTTP %d", k.op, resp.StatusCode)); err != nil {
				log.Warn("could not clear persisted token", "error", err)
			}
		}
		return gerr
	}
	if readErr != nil {
		c.metrics.ObserveFailure(k.op, string(KindTransport))
		return &Error{Kind: KindTransport, Op: k.op, Status: resp.StatusCode, Reason: "response body unreadable", Err: readErr}
	}
	if k.out == nil || len(bytes.TrimSpace(payload)) == 0 {
		if raw, ok := k.out.(*json.RawMessage); ok {
			*raw = nil
		}
		return nil
	}
	if err := json.Unmarshal(payload, k.out); err != nil {
		c.metrics.ObserveFailure(k.op, string(KindTransport))
		return &Error{Kind: KindTransport, Op: k.op, Status: resp.StatusCode, Reason: "malformed response", Err: err}
	}
	return nil
}

func decodeRecord(raw json.RawMessage) (model.WatchRequest, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.WatchRequest{}, false
	}
	var rec model.WatchRequest
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return model.WatchRequest{}, false
	}
	return rec, true
}

func echoRecord(p model.UpdatePayload) model.WatchRequest {
	return model.WatchRequest{
		ID:               p.ID,
		DepartureAirport: p.DepartureAirport,
		ArrivalAirport:   p.ArrivalAirport,
		RequestedDate:    p.RequestedDate,
		TargetPrice:      p.TargetPrice,
		NotifyOnAnyDrop:  p.NotifyOnAnyDrop,
		CustomName:       p.CustomName,
		Criteria:         p.Criteria,
	}
}

// Ping reports whether anything answers HTTP at the base URL. Any status
// code counts as reachable.
func (c *Client) Ping(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return 0, &Error{Kind: KindTransport, Op: "ping", Reason: "could not build request", Err: err}
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest("ping", 0, time.Since(started))
		return 0, &Error{Kind: KindTransport, Op: "ping", Reason: "remote service unreachable", Err: err}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	c.metrics.ObserveRequest("ping", resp.StatusCode, time.Since(started))
	return resp.StatusCode, nil
}
