package queries

import (
	"errors"
	"gorm.io/gorm"
)

// ErrNotFound is returned by lookup functions when no row matches the
// given key. Handlers map it to HTTP 404.
var ErrNotFound = errors.New("record not found")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
