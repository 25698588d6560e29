package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agisilaos/flightwatch/internal/session"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		in   string
		want Destination
	}{
		{"", Destination{Path: "/", Kind: KindHome}},
		{"/", Destination{Path: "/", Kind: KindHome}},
		{"/login", Destination{Path: "/login", Kind: KindAuthOnly}},
		{"/register/", Destination{Path: "/register", Kind: KindAuthOnly}},
		{"/flights?sort=price", Destination{Path: "/flights", Kind: KindProtected}},
		{"/flights/edit/12", Destination{Path: "/flights/edit/12", Kind: KindProtected, ID: "12"}},
		{"/flights/edit/", Destination{Path: "/flights/edit", Kind: KindUnknown}},
		{"/flights/edit/1/2", Destination{Path: "/flights/edit/1/2", Kind: KindUnknown}},
		{"/admin", Destination{Path: "/admin", Kind: KindUnknown}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Resolve(tc.in), tc.in)
	}
}

func TestDecideTable(t *testing.T) {
	protected := []string{"/flights", "/flights/edit/3"}
	authOnly := []string{"/login", "/register"}

	for _, p := range protected {
		dst := Resolve(p)
		assert.Equal(t, Decision{Action: Wait}, Decide(dst, session.StatusUnknown), p)
		assert.Equal(t, Decision{Action: Allow}, Decide(dst, session.StatusAuthenticated), p)
		assert.Equal(t, Decision{Action: Redirect, Target: PathLogin}, Decide(dst, session.StatusUnauthenticated), p)
	}
	for _, p := range authOnly {
		dst := Resolve(p)
		assert.Equal(t, Decision{Action: Wait}, Decide(dst, session.StatusUnknown), p)
		assert.Equal(t, Decision{Action: Redirect, Target: DefaultProtected}, Decide(dst, session.StatusAuthenticated), p)
		assert.Equal(t, Decision{Action: Allow}, Decide(dst, session.StatusUnauthenticated), p)
	}

	home := Resolve("/")
	assert.Equal(t, Decision{Action: Wait}, Decide(home, session.StatusUnknown))
	assert.Equal(t, Decision{Action: Redirect, Target: PathFlights}, Decide(home, session.StatusAuthenticated))
	assert.Equal(t, Decision{Action: Redirect, Target: PathLogin}, Decide(home, session.StatusUnauthenticated))
}

func TestUnknownDestinationIsNotFoundForEveryStatus(t *testing.T) {
	dst := Resolve("/nowhere")
	for _, st := range []session.Status{session.StatusUnknown, session.StatusAuthenticated, session.StatusUnauthenticated} {
		assert.Equal(t, Decision{Action: NotFound}, Decide(dst, st), string(st))
	}
}

func TestEditPath(t *testing.T) {
	assert.Equal(t, "/flights/edit/7", EditPath("7"))
	assert.Equal(t, "7", Resolve(EditPath("7")).ID)
}
