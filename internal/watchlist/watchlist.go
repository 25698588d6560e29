// Package watchlist owns the in-memory list of the user's watch requests.
// Only this package writes to it; everything else asks for a refresh.
package watchlist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/agisilaos/flightwatch/internal/model"
	"github.com/agisilaos/flightwatch/internal/session"
)

var (
	ErrStale           = errors.New("session changed while the list was loading")
	ErrUnauthenticated = errors.New("not logged in")
)

type Source interface {
	ListWatchRequests(ctx context.Context) ([]model.WatchRequest, error)
	DeleteWatchRequest(ctx context.Context, id model.ID) error
}

type Session interface {
	Status() session.Status
	Epoch() uint64
}

type List struct {
	src  Source
	sess Session
	now  func() time.Time

	mu        sync.RWMutex
	items     []model.WatchRequest
	loaded    bool
	fetchedAt time.Time
}

func New(src Source, sess Session) *List {
	return &List{src: src, sess: sess, now: time.Now}
}

// Refresh replaces the list with the server's view. A response that lands
// after the session moved on is dropped and ErrStale is returned; a failed
// fetch leaves the previous list in place.
func (l *List) Refresh(ctx context.Context) error {
	if l.sess.Status() != session.StatusAuthenticated {
		return ErrUnauthenticated
	}
	epoch := l.sess.Epoch()
	items, err := l.src.ListWatchRequests(ctx)
	if err != nil {
		return err
	}
	if l.sess.Epoch() != epoch || l.sess.Status() != session.StatusAuthenticated {
		return ErrStale
	}
	l.mu.Lock()
	l.items = items
	l.loaded = true
	l.fetchedAt = l.now()
	l.mu.Unlock()
	return nil
}

// Delete removes id remotely and then drops exactly that record locally.
func (l *List) Delete(ctx context.Context, id model.ID) error {
	if id == "" {
		return model.ErrMissingID
	}
	if l.sess.Status() != session.StatusAuthenticated {
		return ErrUnauthenticated
	}
	if err := l.src.DeleteWatchRequest(ctx, id); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := make([]model.WatchRequest, 0, len(l.items))
	for _, it := range l.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	l.items = kept
	return nil
}

// OnTransition drops the list when the session stops being authenticated.
// Register it with session.Store.Subscribe.
func (l *List) OnTransition(t session.Transition) {
	if t.To == session.StatusAuthenticated {
		return
	}
	l.mu.Lock()
	l.items = nil
	l.loaded = false
	l.fetchedAt = time.Time{}
	l.mu.Unlock()
}

func (l *List) Items() []model.WatchRequest {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.WatchRequest, len(l.items))
	for i, it := range l.items {
		out[i] = it.Clone()
	}
	return out
}

func (l *List) Find(id model.ID) (model.WatchRequest, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if it.ID == id {
			return it.Clone(), true
		}
	}
	return model.WatchRequest{}, false
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *List) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

func (l *List) FetchedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fetchedAt
}
