package state

import "errors"

var (
	ErrEnvelopeInvalid = errors.New("state: envelope missing, malformed, or expired")
	ErrStateMismatch   = errors.New("state: returned state does not match")
)
