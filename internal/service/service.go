// Package service loads records, applies the ledger rules to them, persists
// the result and announces it to the family. It is the only layer that talks
// to both the stores and the realtime hub.
package service

import (
	"errors"
	"time"

	"github.com/anirpro14/tidykitty/internal/ledger"
	"github.com/anirpro14/tidykitty/internal/model"
	"github.com/anirpro14/tidykitty/internal/websocket"
)

// Publisher delivers realtime events to one family and drops the feeds of
// members who leave it. *websocket.Hub satisfies it.
type Publisher interface {
	BroadcastToFamily(familyID string, msg websocket.Message)
	DisconnectUser(userID string) int
}

// Clock supplies the current time in the family's configured location.
// Calendar days for streaks and due dates are taken in that location.
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock returns a Clock in loc. A nil now uses time.Now; a nil loc uses
// time.Local.
func NewClock(loc *time.Location, now func() time.Time) Clock {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return Clock{now: now, loc: loc}
}

func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	if c.loc == nil {
		return c.now()
	}
	return c.now().In(c.loc)
}

func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

func publish(pub Publisher, familyID string, msg websocket.Message) {
	if pub != nil && familyID != "" {
		pub.BroadcastToFamily(familyID, msg)
	}
}

func disconnect(pub Publisher, userID string) {
	if pub != nil {
		pub.DisconnectUser(userID)
	}
}

// ErrIncorrectPIN is returned by Login when the PIN does not match.
var ErrIncorrectPIN = errors.New("incorrect PIN")

func notFound(what string) error {
	return &notFoundError{what: what}
}

type notFoundError struct{ what string }

func (e *notFoundError) Error() string { return e.what + " not found" }

func (e *notFoundError) Is(target error) bool { return target == ledger.ErrNotFound }

func invalid(field, message string) error {
	return &ledger.ValidationError{Field: field, Message: message}
}

// loadUser returns the user or a not-found error.
func loadUser(get func(string) (*model.User, error), id string) (*model.User, error) {
	if id == "" {
		return nil, notFound("user")
	}
	u, err := get(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("user")
	}
	return u, nil
}
