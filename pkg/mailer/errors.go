package mailer

import "errors"

var (
	ErrInvalidConfig     = errors.New("mailer: invalid configuration")
	ErrInvalidMessage    = errors.New("mailer: invalid message")
	ErrFailedToSendEmail = errors.New("mailer: failed to send email")
)
