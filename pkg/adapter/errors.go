package adapter

import "errors"

var (
	ErrNotFound      = errors.New("adapter: record not found")
	ErrAlreadyExists = errors.New("adapter: record already exists")
)
