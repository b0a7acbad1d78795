package errors

import "errors"

var (
	ErrInvalidUserID = errors.New("invalid notification user ID")
)
