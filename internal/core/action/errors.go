package action

import "errors"

var (
	ErrInvalidAction = errors.New("action: invalid action")
	ErrAlreadyFired  = errors.New("action: employee already fired")
)
