package portal

import "errors"

var (
	ErrNotFound     = errors.New("portal: not found")
	ErrInvalidInput = errors.New("portal: invalid input")
	ErrIntegrity    = errors.New("portal: integrity violation")
)
