// Package session carries the caller's identity and point-in-time view
// through a request.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrMissingUser is returned when a session has no user.
var ErrMissingUser = errors.New("session has no user")

// Session scopes every query and command to one user. AsOf fixes "now" for
// the whole request so every figure in a response agrees.
type Session struct {
	UserID       string
	AsOf         time.Time
	BaseCurrency string
}

// New returns a session for userID as of now.
func New(userID, baseCurrency string) Session {
	return Session{UserID: userID, AsOf: time.Now().UTC(), BaseCurrency: baseCurrency}
}

// Validate checks that the session can be used.
func (s Session) Validate() error {
	if s.UserID == "" {
		return ErrMissingUser
	}
	return nil
}

// Today is AsOf truncated to its calendar day in UTC.
func (s Session) Today() time.Time {
	y, m, d := s.AsOf.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthStart is the first day of the calendar month containing AsOf.
func (s Session) MonthStart() time.Time {
	y, m, _ := s.AsOf.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

type ctxKey struct{}

// WithContext stores s in ctx.
func WithContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
