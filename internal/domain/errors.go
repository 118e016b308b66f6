package domain

import "errors"

var (
	ErrConfiguration  = errors.New("configuration error")
	ErrAuthentication = errors.New("authentication failed")
	ErrFetch          = errors.New("review fetch failed")
	ErrMapping        = errors.New("review mapping failed")
)

// UserError is a failure the operator can fix (bad input, bad config).
type UserError struct{ Msg string }

func (e *UserError) Error() string { return e.Msg }
