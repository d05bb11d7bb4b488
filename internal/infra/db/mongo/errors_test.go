package mongo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	domainbooking "vehiclerental/internal/domain/booking"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))

	conflict := mongo.CommandError{Code: codeWriteConflict, Name: "WriteConflict"}
	assert.ErrorIs(t, translate(conflict), domainbooking.ErrSerialization)

	labelled := mongo.CommandError{Code: 251, Labels: []string{"TransientTransactionError"}}
	assert.ErrorIs(t, translate(labelled), domainbooking.ErrSerialization)

	other := errors.New("boom")
	assert.Same(t, other, translate(other))
	assert.NotErrorIs(t, translate(mongo.CommandError{Code: 13}), domainbooking.ErrSerialization)
}

func TestBookingDocumentRoundTrip(t *testing.T) {
	doc := bookingDocument{ID: 3, FirstName: "Asha", LastName: "Rao", VehicleID: 7, StartDate: "2025-01-10", EndDate: "2025-01-12"}
	b, err := doc.toAggregate()
	assert.NoError(t, err)
	assert.Equal(t, domainbooking.BookingID(3), b.ID)
	assert.Equal(t, 3, b.Range.DurationDays())
	assert.Equal(t, doc, newBookingDocument(b))

	_, err = bookingDocument{StartDate: "bad", EndDate: "2025-01-12"}.toAggregate()
	assert.Error(t, err)
}
