// Package guard decides whether a destination may be rendered for the
// current session status.
package guard

import (
	"strings"

	"github.com/agisilaos/flightwatch/internal/session"
)

type Kind int

const (
	KindHome Kind = iota
	KindAuthOnly
	KindProtected
	KindUnknown
)

const (
	PathHome     = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
	PathFlights  = "/flights"
	editPrefix   = "/flights/edit/"
)

// DefaultProtected is where authenticated users land.
const DefaultProtected = PathFlights

type Destination struct {
	Path string
	Kind Kind
	// ID is set for the edit view.
	ID string
}

func EditPath(id string) string {
	return editPrefix + id
}

// Resolve maps a path onto a known destination. Anything else resolves to
// KindUnknown.
func Resolve(path string) Destination {
	p := strings.TrimSpace(path)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	switch p {
	case "", PathHome:
		return Destination{Path: PathHome, Kind: KindHome}
	case PathLogin, PathRegister:
		return Destination{Path: p, Kind: KindAuthOnly}
	case PathFlights:
		return Destination{Path: p, Kind: KindProtected}
	}
	if strings.HasPrefix(p, editPrefix) {
		id := strings.TrimPrefix(p, editPrefix)
		if id != "" && !strings.Contains(id, "/") {
			return Destination{Path: p, Kind: KindProtected, ID: id}
		}
	}
	return Destination{Path: p, Kind: KindUnknown}
}

type Action int

const (
	Allow Action = iota
	Wait
	Redirect
	NotFound
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

type Decision struct {
	Action Action
	Target string
}

// Decide is a pure function of destination and status.
func Decide(dst Destination, status session.Status) Decision {
	if dst.Kind == KindUnknown {
		return Decision{Action: NotFound}
	}
	switch status {
	case session.StatusAuthenticated:
		switch dst.Kind {
		case KindProtected:
			return Decision{Action: Allow}
		default:
			return Decision{Action: Redirect, Target: DefaultProtected}
		}
	case session.StatusUnauthenticated:
		switch dst.Kind {
		case KindAuthOnly:
			return Decision{Action: Allow}
		default:
			return Decision{Action: Redirect, Target: PathLogin}
		}
	default:
		return Decision{Action: Wait}
	}
}
