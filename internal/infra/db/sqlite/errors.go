package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	domainbooking "vehiclerental/internal/domain/booking"
)

const overlapMessage = "booking_overlap"

func translate(err error) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return err
	}
	switch {
	case se.Code == sqlite3.ErrConstraint && strings.Contains(se.Error(), overlapMessage):
		return fmt.Errorf("%w: %v", domainbooking.ErrOverlap, err)
	case se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked:
		return fmt.Errorf("%w: %v", domainbooking.ErrSerialization, err)
	}
	return err
}
