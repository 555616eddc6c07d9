package models

import "errors"

// Custom errors
var (
	ErrInvalidOdds = errors.New("invalid american odds")
)
