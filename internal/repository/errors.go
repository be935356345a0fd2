package repository

import "errors"

// Common repository errors
var (
	// ErrEmptyKey is returned when a read or write names no key
	ErrEmptyKey = errors.New("storage key is empty")

	// ErrUnknownDriver is returned for an unsupported STORE_DRIVER
	ErrUnknownDriver = errors.New("unknown store driver")
)

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
