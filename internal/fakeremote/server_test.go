package fakeremote

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenEndpoint(t *testing.T) {
	s := New()
	s.AddUser("dana@example.com", "pw")

	form := url.Values{"username": {"dana@example.com"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token"`)
	assert.Contains(t, rec.Body.String(), `"user_id":1`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := New()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/get_flights/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, rec.Body.String())
}

func TestCreateRejectsIdentifier(t *testing.T) {
	s := New()
	s.AddUser("a@b.c", "pw")
	tok := s.IssueToken("a@b.c")

	req := httptest.NewRequest(http.MethodPost, "/flights/", strings.NewReader(`{"flight_id":3,"departure_airport":"TLV"}`))
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, s.Flights("a@b.c"))
}

func TestFailNextIsConsumedOnce(t *testing.T) {
	s := New()
	s.FailNext(http.StatusBadGateway, `oops`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/get_flights/me", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/get_flights/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Len(t, s.Requests(), 2)
}
