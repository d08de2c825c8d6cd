package db

import (
	"errors"
	"fmt"
)

// Operation names for error reporting.
const (
	OpPing        = "PING"
	OpGet         = "GET"
	OpSet         = "SET"
	OpDel         = "DEL"
	OpExists      = "EXISTS"
	OpIncrBy      = "INCRBY"
	OpExpire      = "EXPIRE"
	OpJSONGet     = "JSON.GET"
	OpJSONSet     = "JSON.SET"
	OpFTCreate    = "FT.CREATE"
	OpFTDrop      = "FT.DROPINDEX"
	OpFTInfo      = "FT.INFO"
	OpFTSearch    = "FT.SEARCH"
	OpFTSearchKNN = "FT.SEARCH.KNN"
)

// Sentinel errors for common store conditions.
var (
	// ErrKeyNotFound is returned when a key does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrIndexNotFound is returned when operating on a missing index.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexExists is returned when creating an index that already exists.
	ErrIndexExists = errors.New("index already exists")
)

// Error wraps a store error with the operation that produced it.
type Error struct {
	// Op is the logical operation, e.g. "JSON.GET".
	Op string
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("db: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error for the given operation.
func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}
