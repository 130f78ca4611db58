package repository

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input parameters")
	ErrNotFound     = errors.New("record not found")
)
