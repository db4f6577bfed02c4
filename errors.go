package diskbloom

import (
	"github.com/pkg/errors"
)

var (
	// ErrIndexOutOfRange is returned when a bit index is not below the table size
	ErrIndexOutOfRange = errors.New("bit index out of range")
	// ErrInvalidParams is returned for filter parameters that can't size a table
	ErrInvalidParams = errors.New("invalid filter parameters")
)

func IsOutOfRange(err error) bool {
	return errors.Cause(err) == ErrIndexOutOfRange
}

func IsInvalidParams(err error) bool {
	return errors.Cause(err) == ErrInvalidParams
}
