// Package fakeremote is an in-memory stand-in for the flight tracking
// service. It speaks the same routes and error bodies so gateway, form and
// CLI code can be exercised without the real backend.
package fakeremote

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/agisilaos/flightwatch/internal/model"
)

var signingKey = []byte("fakeremote")

// Recorded is one request as the server saw it.
type Recorded struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          []byte
}

type account struct {
	id       int
	password string
}

type fault struct {
	status int
	body   string
}

type Server struct {
	mu       sync.Mutex
	accounts map[string]account
	tokens   map[string]string
	flights  map[int]model.WatchRequest
	owners   map[int]string
	nextUser int
	nextID   int
	faults   []fault
	log      []Recorded

	engine *gin.Engine
}

func New() *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		accounts: map[string]account{},
		tokens:   map[string]string{},
		flights:  map[int]model.WatchRequest{},
		owners:   map[int]string{},
		nextUser: 1,
		nextID:   1,
	}
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(s.record, s.injectFault)

	r.POST("/token", s.handleToken)
	r.POST("/register_user", s.handleRegister)
	authed := r.Group("/", s.requireToken)
	authed.GET("/get_flights/me", s.handleList)
	authed.POST("/flights/", s.handleCreate)
	authed.PUT("/flights/:id", s.handleUpdate)
	authed.DELETE("/flights/:id", s.handleDelete)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Start serves on a loopback port until the returned server is closed.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s.engine)
}

// AddUser creates an account and returns its numeric id.
func (s *Server) AddUser(email, password string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password)
}

func (s *Server) addUserLocked(email, password string) int {
	id := s.nextUser
	s.nextUser++
	s.accounts[strings.ToLower(email)] = account{id: id, password: password}
	return id
}

// IssueToken mints a valid bearer token for an existing account.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(strings.ToLower(email))
}

func (s *Server) issueLocked(email string) string {
	acct := s.accounts[email]
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     email,
		"user_id": acct.id,
		"n":       len(s.tokens),
	}).SignedString(signingKey)
	s.tokens[tok] = email
	return tok
}

// RevokeTokens makes every issued token stale.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	s.tokens = map[string]string{}
	s.mu.Unlock()
}

// FailNext makes the next request answer with status and raw body.
func (s *Server) FailNext(status int, body string) {
	s.mu.Lock()
	s.faults = append(s.faults, fault{status: status, body: body})
	s.mu.Unlock()
}

// SetPriceCheck fills the server-owned price fields of a record.
func (s *Server) SetPriceCheck(id int, price float64, checkedAt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.flights[id]
	if !ok {
		return
	}
	p := price
	rec.LastPriceFound = &p
	rec.LastCheckedAt = checkedAt
	s.flights[id] = rec
}

// Flights returns the records owned by email, ordered by id.
func (s *Server) Flights(email string) []model.WatchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(strings.ToLower(email))
}

func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.log...)
}

// LastRequest returns the most recent request matching method and path
// prefix.
func (s *Server) LastRequest(method, pathPrefix string) (Recorded, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.log) - 1; i >= 0; i-- {
		r := s.log[i]
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			return r, true
		}
	}
	return Recorded{}, false
}

func (s *Server) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(strings.NewReader(string(body)))
	s.mu.Lock()
	s.log = append(s.log, Recorded{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		Authorization: c.GetHeader("Authorization"),
		RequestID:     c.GetHeader("X-Request-ID"),
		Body:          body,
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) injectFault(c *gin.Context) {
	s.mu.Lock()
	if len(s.faults) == 0 {
		s.mu.Unlock()
		c.Next()
		return
	}
	f := s.faults[0]
	s.faults = s.faults[1:]
	s.mu.Unlock()
	c.Data(f.status, "application/json", []byte(f.body))
	c.Abort()
}

func (s *Server) requireToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	tok := strings.TrimPrefix(header, "Bearer ")
	s.mu.Lock()
	email, ok := s.tokens[tok]
	s.mu.Unlock()
	if header == "" || !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}
	c.Set("email", email)
	c.Next()
}

func (s *Server) handleToken(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.PostForm("username")))
	password := c.PostForm("password")
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok || acct.password != password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": s.issueLocked(email),
		"token_type":   "bearer",
		"user_id":      acct.id,
	})
}

func (s *Server) handleRegister(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.Email == "" || in.Password == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"msg": "email and password are required", "type": "value_error"}}})
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[email]; exists {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Email already registered"})
		return
	}
	id := s.addUserLocked(email, in.Password)
	c.JSON(http.StatusOK, gin.H{"user_id": id, "email": email})
}

func (s *Server) handleList(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.listLocked(c.GetString("email")))
}

var serverOwned = []string{"user_id", "last_price_found", "last_checked", "best_found"}

func (s *Server) handleCreate(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	if key, bad := forbiddenKey(body, append([]string{"flight_id"}, serverOwned...)); bad {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": key + " must not be sent on create"})
		return
	}
	var p model.CreatePayload
	if err := json.Unmarshal(body, &p); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "malformed body"})
		return
	}
	email := c.GetString("email")
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	rec := fromPayload(p)
	rec.ID = model.ID(strconv.Itoa(id))
	rec.OwnerIdentity = model.ID(strconv.Itoa(s.accounts[email].id))
	s.flights[id] = rec
	s.owners[id] = email
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleUpdate(c *gin.Context) {
	id, ok := s.ownedID(c)
	if !ok {
		return
	}
	body, _ := io.ReadAll(c.Request.Body)
	if key, bad := forbiddenKey(body, serverOwned); bad {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": key + " is read-only"})
		return
	}
	var p model.UpdatePayload
	if err := json.Unmarshal(body, &p); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "malformed body"})
		return
	}
	if string(p.ID) != strconv.Itoa(id) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "flight_id does not match path"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.flights[id]
	rec := fromPayload(p.CreatePayload)
	rec.ID = prev.ID
	rec.OwnerIdentity = prev.OwnerIdentity
	rec.LastPriceFound = prev.LastPriceFound
	rec.LastCheckedAt = prev.LastCheckedAt
	rec.BestFound = prev.BestFound
	s.flights[id] = rec
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDelete(c *gin.Context) {
	id, ok := s.ownedID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.flights, id)
	delete(s.owners, id)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Flight deleted successfully"})
}

func (s *Server) ownedID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	s.mu.Lock()
	owner, exists := s.owners[id]
	s.mu.Unlock()
	if err != nil || !exists || owner != c.GetString("email") {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Flight not found"})
		return 0, false
	}
	return id, true
}

func (s *Server) listLocked(email string) []model.WatchRequest {
	ids := make([]int, 0)
	for id, owner := range s.owners {
		if owner == email {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]model.WatchRequest, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.flights[id].Clone())
	}
	return out
}

func forbiddenKey(body []byte, keys []string) (string, bool) {
	var doc map[string]json.RawMessage
	if json.Unmarshal(body, &doc) != nil {
		return "", false
	}
	for _, k := range keys {
		if _, ok := doc[k]; ok {
			return k, true
		}
	}
	return "", false
}

func fromPayload(p model.CreatePayload) model.WatchRequest {
	return model.WatchRequest{
		DepartureAirport: p.DepartureAirport,
		ArrivalAirport:   p.ArrivalAirport,
		RequestedDate:    p.RequestedDate,
		TargetPrice:      p.TargetPrice,
		NotifyOnAnyDrop:  p.NotifyOnAnyDrop,
		CustomName:       p.CustomName,
		Criteria:         p.Criteria,
	}
}
