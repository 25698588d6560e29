package watchlist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agisilaos/flightwatch/internal/model"
	"github.com/agisilaos/flightwatch/internal/session"
)

type fakeSession struct {
	status session.Status
	epoch  uint64
}

func (f *fakeSession) Status() session.Status { return f.status }
func (f *fakeSession) Epoch() uint64          { return f.epoch }

type fakeSource struct {
	items     []model.WatchRequest
	listErr   error
	deleteErr error
	deleted   []model.ID
	onList    func()
}

func (f *fakeSource) ListWatchRequests(context.Context) ([]model.WatchRequest, error) {
	if f.onList != nil {
		f.onList()
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.WatchRequest, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeSource) DeleteWatchRequest(_ context.Context, id model.ID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func records(ids ...string) []model.WatchRequest {
	out := make([]model.WatchRequest, len(ids))
	for i, id := range ids {
		out[i] = model.WatchRequest{ID: model.ID(id), DepartureAirport: "TLV", ArrivalAirport: "JFK"}
	}
	return out
}

func ids(items []model.WatchRequest) []model.ID {
	out := make([]model.ID, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func authed() *fakeSession { return &fakeSession{status: session.StatusAuthenticated, epoch: 1} }

func TestRefreshReplacesList(t *testing.T) {
	src := &fakeSource{items: records("1", "2")}
	l := New(src, authed())
	require.NoError(t, l.Refresh(context.Background()))
	assert.Equal(t, []model.ID{"1", "2"}, ids(l.Items()))
	assert.True(t, l.Loaded())
	assert.False(t, l.FetchedAt().IsZero())

	src.items = records("3")
	require.NoError(t, l.Refresh(context.Background()))
	assert.Equal(t, []model.ID{"3"}, ids(l.Items()))
}

func TestRefreshFailureKeepsPreviousList(t *testing.T) {
	src := &fakeSource{items: records("1")}
	l := New(src, authed())
	require.NoError(t, l.Refresh(context.Background()))

	src.listErr = errors.New("boom")
	assert.Error(t, l.Refresh(context.Background()))
	assert.Equal(t, []model.ID{"1"}, ids(l.Items()))
}

func TestRefreshDiscardsResultAfterSessionChange(t *testing.T) {
	sess := authed()
	src := &fakeSource{items: records("1")}
	src.onList = func() {
		sess.status = session.StatusUnauthenticated
		sess.epoch++
	}
	l := New(src, sess)
	assert.ErrorIs(t, l.Refresh(context.Background()), ErrStale)
	assert.Empty(t, l.Items())
	assert.False(t, l.Loaded())
}

func TestRefreshRequiresAuthentication(t *testing.T) {
	l := New(&fakeSource{}, &fakeSession{status: session.StatusUnknown})
	assert.ErrorIs(t, l.Refresh(context.Background()), ErrUnauthenticated)
}

func TestDeleteRemovesExactlyThatID(t *testing.T) {
	src := &fakeSource{items: records("1", "2", "3")}
	l := New(src, authed())
	require.NoError(t, l.Refresh(context.Background()))

	require.NoError(t, l.Delete(context.Background(), "2"))
	assert.Equal(t, []model.ID{"1", "3"}, ids(l.Items()))
	assert.Equal(t, []model.ID{"2"}, src.deleted)
}

func TestDeleteFailureLeavesListUntouched(t *testing.T) {
	src := &fakeSource{items: records("1", "2")}
	l := New(src, authed())
	require.NoError(t, l.Refresh(context.Background()))

	src.deleteErr = errors.New("nope")
	assert.Error(t, l.Delete(context.Background(), "1"))
	assert.Equal(t, []model.ID{"1", "2"}, ids(l.Items()))
	assert.ErrorIs(t, l.Delete(context.Background(), ""), model.ErrMissingID)
}

func TestFindReturnsCopy(t *testing.T) {
	src := &fakeSource{items: records("1")}
	l := New(src, authed())
	require.NoError(t, l.Refresh(context.Background()))

	got, ok := l.Find("1")
	require.True(t, ok)
	got.DepartureAirport = "ATH"
	again, _ := l.Find("1")
	assert.Equal(t, "TLV", again.DepartureAirport)

	_, ok = l.Find("9")
	assert.False(t, ok)
}

func TestOnTransitionClearsOnLogout(t *testing.T) {
	src := &fakeSource{items: records("1")}
	l := New(src, authed())
	require.NoError(t, l.Refresh(context.Background()))

	l.OnTransition(session.Transition{From: session.StatusAuthenticated, To: session.StatusAuthenticated})
	assert.Equal(t, 1, l.Len())

	l.OnTransition(session.Transition{From: session.StatusAuthenticated, To: session.StatusUnauthenticated})
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Loaded())
}
