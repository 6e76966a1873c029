package domain

import "errors"

var (
	ErrInvalidRecord = errors.New("invalid price record")
	ErrNotFound      = errors.New("not found")
	ErrUnknownPair   = errors.New("unknown pair")
)
