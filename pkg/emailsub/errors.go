package emailsub

import "errors"

var (
	// ErrMissingEmailFlag is returned when a subscription flag has no email counterpart.
	ErrMissingEmailFlag = errors.New("emailsub: no email flag for subscription flag")
	ErrInvalidConfig    = errors.New("emailsub: invalid configuration")
)
