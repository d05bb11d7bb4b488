package fixtures

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/infra/storage/memory"
)

func TestLoadShippedCatalog(t *testing.T) {
	repo := memory.NewCatalogRepository()
	ctx := context.Background()
	c, err := LoadFile(ctx, filepath.Join("..", "..", "..", "data", "catalog.json"), "USD", repo)
	require.NoError(t, err)
	assert.NotEmpty(t, c.Types)

	v, err := repo.VehicleByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(200000), v.PricePerDay.Amount)
	assert.Equal(t, "INR", v.PricePerDay.Currency)

	types, err := repo.VehicleTypes(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, domaincatalog.TypesWithWheels(types, domaincatalog.TwoWheeler))
	assert.NotEmpty(t, domaincatalog.TypesWithWheels(types, domaincatalog.FourWheeler))
}

func TestDecode(t *testing.T) {
	c, err := Decode(strings.NewReader(`{
		"vehicleTypes": [{"id": 1, "name": "Sedan", "wheels": 4}],
		"vehicles": [{"id": 3, "name": "City", "typeId": 1, "pricePerDay": 1499.5, "isAvailable": true}]
	}`), "inr")
	require.NoError(t, err)
	require.Len(t, c.Vehicles, 1)
	assert.Equal(t, int64(149950), c.Vehicles[0].PricePerDay.Amount)
	assert.Equal(t, "INR", c.Vehicles[0].PricePerDay.Currency)
}

func TestDecodeRejectsBadFixtures(t *testing.T) {
	tests := map[string]string{
		"not json":     `{`,
		"three wheels": `{"vehicleTypes": [{"id": 1, "name": "Auto", "wheels": 3}]}`,
		"unknown type": `{"vehicleTypes": [], "vehicles": [{"id": 1, "typeId": 9, "pricePerDay": 10}]}`,
		"bad currency": `{"currency": "RUPEE", "vehicleTypes": [{"id": 1, "name": "Sedan", "wheels": 4}], "vehicles": [{"id": 1, "typeId": 1, "pricePerDay": 10}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(body), "INR")
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "nope.json"), "INR", memory.NewCatalogRepository())
	assert.ErrorContains(t, err, "fixtures:")
}
