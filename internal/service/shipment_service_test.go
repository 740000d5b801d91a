package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/chainsense/backend/internal/geo"
	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/internal/repository"
	"github.com/chainsense/backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedGeocoder resolves every known address to one coordinate pair and
// returns no match for anything else.
type fixedGeocoder struct {
	known map[string]geo.Coordinates
}

func (g *fixedGeocoder) Geocode(_ context.Context, address string) (*geo.Coordinates, error) {
	if coords, ok := g.known[address]; ok {
		return &coords, nil
	}
	return nil, nil
}

func newShipmentEnv(t *testing.T) (*testEnv, ShipmentService) {
	t.Helper()
	env := newTestEnv(t)
	geocoder := &fixedGeocoder{known: map[string]geo.Coordinates{
		"42 Dock Road":    {Lat: 12.97, Lng: 77.59},
		"Berlin Depot":    {Lat: 52.52, Lng: 13.40},
		"Hamburg Harbour": {Lat: 53.55, Lng: 9.99},
	}}
	shipments := NewShipmentService(
		repository.NewShipmentRepository(env.db),
		env.vendorRepo,
		env.orderRepo,
		geocoder,
		nil,
		zerolog.Nop(),
	)
	return env, shipments
}

func TestCreateShipmentMintsTrackingNumber(t *testing.T) {
	env, shipments := newShipmentEnv(t)
	vendor := env.seedVendor(t, "Net 30")

	shipment, err := shipments.Create(context.Background(), CreateShipmentRequest{
		VendorID:           vendor.ID.String(),
		OriginAddress:      "42 Dock Road",
		DestinationAddress: "Hamburg Harbour",
		Carrier:            "DHL",
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^SHP-\d+-\d{8}$`), shipment.TrackingNumber)
	assert.Equal(t, model.ShipmentStatusPending, shipment.Status)

	// Origin was geocoded into the starting location
	require.NotNil(t, shipment.CurrentLat)
	assert.InDelta(t, 12.97, *shipment.CurrentLat, 0.001)
}

func TestCreateShipmentValidatesReferences(t *testing.T) {
	env, shipments := newShipmentEnv(t)
	ctx := context.Background()

	_, err := shipments.Create(ctx, CreateShipmentRequest{VendorID: uuid.NewString()})
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	vendor := env.seedVendor(t, "Net 30")
	_, err = shipments.Create(ctx, CreateShipmentRequest{
		VendorID: vendor.ID.String(),
		POID:     uuid.NewString(),
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestUpdateShipmentAppendsHistory(t *testing.T) {
	env, shipments := newShipmentEnv(t)
	ctx := context.Background()
	vendor := env.seedVendor(t, "Net 30")

	shipment, err := shipments.Create(ctx, CreateShipmentRequest{
		VendorID:      vendor.ID.String(),
		OriginAddress: "42 Dock Road",
	})
	require.NoError(t, err)

	updated, err := shipments.Update(ctx, shipment.ID, UpdateShipmentRequest{
		Status:          model.ShipmentStatusInTransit,
		CurrentLocation: "Berlin Depot",
		Notes:           "Left the origin warehouse",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ShipmentStatusInTransit, updated.Status)
	require.NotNil(t, updated.CurrentLat)
	assert.InDelta(t, 52.52, *updated.CurrentLat, 0.001)

	delivered, err := shipments.Update(ctx, shipment.ID, UpdateShipmentRequest{
		Status: model.ShipmentStatusDelivered,
	})
	require.NoError(t, err)
	require.NotNil(t, delivered.ActualDelivery)

	loaded, err := shipments.Get(ctx, uuid.New(), model.RoleAdmin, shipment.ID)
	require.NoError(t, err)
	// History is returned newest first
	require.Len(t, loaded.History, 3)
	assert.Equal(t, model.ShipmentStatusDelivered, loaded.History[0].Status)
	assert.Equal(t, model.ShipmentStatusInTransit, loaded.History[1].Status)
	assert.Equal(t, model.ShipmentStatusPending, loaded.History[2].Status)
}

func TestShipmentVendorScoping(t *testing.T) {
	env, shipments := newShipmentEnv(t)
	ctx := context.Background()

	portalUser := env.seedPortalUser(t, model.RoleVendor)
	ownVendor, err := env.vendors.Create(ctx, CreateVendorRequest{Name: "Own Vendor", UserID: portalUser.ID.String()})
	require.NoError(t, err)
	otherVendor := env.seedVendor(t, "Net 30")

	own, err := shipments.Create(ctx, CreateShipmentRequest{VendorID: ownVendor.ID.String()})
	require.NoError(t, err)
	foreign, err := shipments.Create(ctx, CreateShipmentRequest{VendorID: otherVendor.ID.String()})
	require.NoError(t, err)

	_, err = shipments.Get(ctx, portalUser.ID, model.RoleVendor, foreign.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindAccessDenied, apperror.KindOf(err))

	visible, _, err := shipments.List(ctx, portalUser.ID, model.RoleVendor, repository.ShipmentListFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, own.ID, visible[0].ID)
}
