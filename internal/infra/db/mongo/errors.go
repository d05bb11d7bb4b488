package mongo

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	domainbooking "vehiclerental/internal/domain/booking"
)

const codeWriteConflict = 112

// translate maps transaction conflicts to domainbooking.ErrSerialization.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorLabel("TransientTransactionError") || se.HasErrorCode(codeWriteConflict)) {
		return fmt.Errorf("%w: %v", domainbooking.ErrSerialization, err)
	}
	return err
}
