package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

type Status string

const (
	StatusUnknown         Status = "unknown"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// PlaceholderEmail stands in for the identity when the token carries no
// readable claims.
const PlaceholderEmail = "user@session"

var ErrEmptyToken = errors.New("empty bearer token")

type Identity struct {
	Email string `json:"email"`
	ID    string `json:"id,omitempty"`
}

func (i Identity) IsPlaceholder() bool {
	return i.Email == PlaceholderEmail
}

// TokenStore is the durable single-key home of the bearer token.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type Transition struct {
	From   Status
	To     Status
	Epoch  uint64
	Reason string
}

// Store owns the bearer token and the derived authentication status.
// Status is authenticated exactly when the token is non-empty.
type Store struct {
	tokens TokenStore

	mu        sync.RWMutex
	status    Status
	token     string
	identity  Identity
	epoch     uint64
	observers []func(Transition)
}

func NewStore(tokens TokenStore) *Store {
	return &Store{tokens: tokens, status: StatusUnknown}
}

// Bootstrap reads the persisted token and trusts it without verification.
// It never calls the network; a stale token surfaces on the first gateway
// call as an authorization failure.
func (s *Store) Bootstrap(ctx context.Context) error {
	token, err := s.tokens.Load(ctx)
	if err != nil {
		s.transition(StatusUnauthenticated, "", Identity{}, "token store unreadable")
		return fmt.Errorf("load token: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		s.transition(StatusUnauthenticated, "", Identity{}, "no stored token")
		return nil
	}
	s.transition(StatusAuthenticated, token, IdentityFromToken(token), "stored token")
	return nil
}

// Login persists token and marks the session authenticated. A zero identity
// is derived from the token.
func (s *Store) Login(ctx context.Context, token string, identity Identity) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	derived := IdentityFromToken(token)
	if identity.Email == "" {
		identity.Email = derived.Email
	}
	if identity.ID == "" {
		identity.ID = derived.ID
	}
	s.transition(StatusAuthenticated, token, identity, "login")
	return nil
}

func (s *Store) Logout(ctx context.Context) error {
	err := s.tokens.Clear(ctx)
	s.transition(StatusUnauthenticated, "", Identity{}, "logout")
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Invalidate drops a token the remote service rejected. The in-memory
// transition happens even if the persisted copy cannot be cleared.
func (s *Store) Invalidate(ctx context.Context, reason string) error {
	s.mu.RLock()
	had := s.token != ""
	s.mu.RUnlock()
	if !had {
		return nil
	}
	err := s.tokens.Clear(ctx)
	s.transition(StatusUnauthenticated, "", Identity{}, reason)
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Epoch increments on every status transition. Callers record it before a
// network call and drop the result if it moved.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *Store) Subscribe(fn func(Transition)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Store) transition(to Status, token string, identity Identity, reason string) {
	s.mu.Lock()
	from := s.status
	s.status = to
	s.token = token
	s.identity = identity
	s.epoch++
	t := Transition{From: from, To: to, Epoch: s.epoch, Reason: reason}
	observers := append([]func(Transition){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(t)
	}
}

// IdentityFromToken reads email and user id claims from a JWT without
// verifying its signature. Opaque tokens yield the placeholder identity.
func IdentityFromToken(token string) Identity {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{Email: PlaceholderEmail}
	}
	id := Identity{Email: claimString(claims, "email", "sub")}
	id.ID = claimString(claims, "user_id", "uid", "id")
	if id.Email == "" {
		id.Email = PlaceholderEmail
	}
	return id
}

func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
