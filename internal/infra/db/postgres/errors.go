package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	domainbooking "vehiclerental/internal/domain/booking"
)

const (
	codeExclusionViolation   = "23P01"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func translate(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeExclusionViolation:
		return fmt.Errorf("%w: %s", domainbooking.ErrOverlap, pqErr.Message)
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %s", domainbooking.ErrSerialization, pqErr.Message)
	}
	return err
}
