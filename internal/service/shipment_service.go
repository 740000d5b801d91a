package service

import (
	"context"
	"errors"
	"time"

	"github.com/chainsense/backend/internal/geo"
	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/internal/repository"
	ws "github.com/chainsense/backend/internal/websocket"
	"github.com/chainsense/backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// DTOs
type CreateShipmentRequest struct {
	TrackingNumber     string     `json:"tracking_number"`
	POID               string     `json:"po_id"`
	VendorID           string     `json:"vendor_id" binding:"required"`
	OriginAddress      string     `json:"origin_address"`
	DestinationAddress string     `json:"destination_address"`
	Carrier            string     `json:"carrier"`
	EstimatedDelivery  *time.Time `json:"estimated_delivery"`
}

type UpdateShipmentRequest struct {
	Status            string     `json:"status" binding:"omitempty,oneof=pending in_transit delivered delayed"`
	CurrentLocation   string     `json:"current_location"`
	Notes             string     `json:"notes"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

type ShipmentService interface {
	List(ctx context.Context, actorID uuid.UUID, role string, filter repository.ShipmentListFilter) ([]model.Shipment, int64, error)
	Get(ctx context.Context, actorID uuid.UUID, role string, id uuid.UUID) (*model.Shipment, error)
	Create(ctx context.Context, req CreateShipmentRequest) (*model.Shipment, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateShipmentRequest) (*model.Shipment, error)
}

type shipmentService struct {
	shipmentRepo repository.ShipmentRepository
	vendorRepo   repository.VendorRepository
	orderRepo    repository.PurchaseOrderRepository
	geocoder     geo.Geocoder
	hub          *ws.Hub
	log          zerolog.Logger
}

func NewShipmentService(
	shipmentRepo repository.ShipmentRepository,
	vendorRepo repository.VendorRepository,
	orderRepo repository.PurchaseOrderRepository,
	geocoder geo.Geocoder,
	hub *ws.Hub,
	log zerolog.Logger,
) ShipmentService {
	return &shipmentService{
		shipmentRepo: shipmentRepo,
		vendorRepo:   vendorRepo,
		orderRepo:    orderRepo,
		geocoder:     geocoder,
		hub:          hub,
		log:          log.With().Str("component", "shipments").Logger(),
	}
}

func (s *shipmentService) scopedVendorID(ctx context.Context, actorID uuid.UUID, role string) (*uuid.UUID, error) {
	if role != model.RoleVendor {
		return nil, nil
	}
	vendor, err := s.vendorRepo.FindByUserID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindAccessDenied, "no vendor account is linked to this user")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to resolve vendor account")
	}
	return &vendor.ID, nil
}

func (s *shipmentService) List(ctx context.Context, actorID uuid.UUID, role string, filter repository.ShipmentListFilter) ([]model.Shipment, int64, error) {
	scope, err := s.scopedVendorID(ctx, actorID, role)
	if err != nil {
		return nil, 0, err
	}
	if scope != nil {
		filter.VendorID = scope
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.shipmentRepo.List(ctx, filter)
}

func (s *shipmentService) Get(ctx context.Context, actorID uuid.UUID, role string, id uuid.UUID) (*model.Shipment, error) {
	shipment, err := s.shipmentRepo.FindByIDWithHistory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "shipment not found")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load shipment")
	}

	scope, err := s.scopedVendorID(ctx, actorID, role)
	if err != nil {
		return nil, err
	}
	if scope != nil && shipment.VendorID != *scope {
		return nil, apperror.New(apperror.KindAccessDenied, "shipment belongs to another vendor")
	}
	return shipment, nil
}

func (s *shipmentService) Create(ctx context.Context, req CreateShipmentRequest) (*model.Shipment, error) {
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "invalid vendor_id")
	}
	if _, err := s.vendorRepo.FindByID(ctx, vendorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "vendor not found")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load vendor")
	}

	shipment := model.Shipment{
		TrackingNumber:     req.TrackingNumber,
		VendorID:           vendorID,
		Status:             model.ShipmentStatusPending,
		OriginAddress:      req.OriginAddress,
		DestinationAddress: req.DestinationAddress,
		Carrier:            req.Carrier,
		EstimatedDelivery:  req.EstimatedDelivery,
	}
	if shipment.TrackingNumber == "" {
		shipment.TrackingNumber = mintTrackingNumber()
	}
	if req.POID != "" {
		poID, err := uuid.Parse(req.POID)
		if err != nil {
			return nil, apperror.New(apperror.KindValidation, "invalid po_id")
		}
		if _, err := s.orderRepo.FindByID(ctx, poID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.New(apperror.KindNotFound, "purchase order not found")
			}
			return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load purchase order")
		}
		shipment.POID = &poID
	}

	if coords := s.locate(ctx, req.OriginAddress); coords != nil {
		shipment.CurrentLocation = req.OriginAddress
		shipment.CurrentLat = &coords.Lat
		shipment.CurrentLng = &coords.Lng
	}

	if err := s.shipmentRepo.Create(ctx, &shipment); err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to create shipment")
	}

	history := model.ShipmentHistory{
		ShipmentID: shipment.ID,
		Status:     shipment.Status,
		Location:   shipment.CurrentLocation,
		Lat:        shipment.CurrentLat,
		Lng:        shipment.CurrentLng,
		Notes:      "Shipment registered",
	}
	if err := s.shipmentRepo.AppendHistory(ctx, &history); err != nil {
		s.log.Warn().Err(err).Str("tracking_number", shipment.TrackingNumber).Msg("failed to append shipment history")
	}

	return &shipment, nil
}

func (s *shipmentService) Update(ctx context.Context, id uuid.UUID, req UpdateShipmentRequest) (*model.Shipment, error) {
	shipment, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "shipment not found")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load shipment")
	}

	if req.Status != "" {
		shipment.Status = req.Status
		if req.Status == model.ShipmentStatusDelivered && shipment.ActualDelivery == nil {
			now := time.Now()
			shipment.ActualDelivery = &now
		}
	}
	if req.EstimatedDelivery != nil {
		shipment.EstimatedDelivery = req.EstimatedDelivery
	}
	if req.CurrentLocation != "" {
		shipment.CurrentLocation = req.CurrentLocation
		if coords := s.locate(ctx, req.CurrentLocation); coords != nil {
			shipment.CurrentLat = &coords.Lat
			shipment.CurrentLng = &coords.Lng
		}
	}

	if err := s.shipmentRepo.Update(ctx, shipment); err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to update shipment")
	}

	history := model.ShipmentHistory{
		ShipmentID: shipment.ID,
		Status:     shipment.Status,
		Location:   shipment.CurrentLocation,
		Lat:        shipment.CurrentLat,
		Lng:        shipment.CurrentLng,
		Notes:      req.Notes,
	}
	if err := s.shipmentRepo.AppendHistory(ctx, &history); err != nil {
		s.log.Warn().Err(err).Str("tracking_number", shipment.TrackingNumber).Msg("failed to append shipment history")
	}

	if s.hub != nil {
		s.hub.Publish("shipment_updated", shipment)
	}
	return shipment, nil
}

// locate runs a best-effort geocode. Lookup failures never block a
// shipment update.
func (s *shipmentService) locate(ctx context.Context, address string) *geo.Coordinates {
	if s.geocoder == nil || address == "" {
		return nil
	}
	coords, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		s.log.Warn().Err(err).Str("address", address).Msg("geocode failed")
		return nil
	}
	return coords
}
