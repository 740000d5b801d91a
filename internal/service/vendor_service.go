package service

import (
	"context"
	"errors"

	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/internal/repository"
	"github.com/chainsense/backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateVendorRequest struct {
	Name          string  `json:"name" binding:"required"`
	Email         string  `json:"email" binding:"omitempty,email"`
	Phone         string  `json:"phone"`
	Address       string  `json:"address"`
	ContactPerson string  `json:"contact_person"`
	PaymentTerms  string  `json:"payment_terms"`
	Rating        float64 `json:"rating" binding:"min=0,max=5"`
	UserID        string  `json:"user_id"`
}

type UpdateVendorRequest struct {
	Name          string   `json:"name" binding:"required"`
	Email         string   `json:"email" binding:"omitempty,email"`
	Phone         string   `json:"phone"`
	Address       string   `json:"address"`
	ContactPerson string   `json:"contact_person"`
	PaymentTerms  string   `json:"payment_terms"`
	Rating        *float64 `json:"rating" binding:"omitempty,min=0,max=5"`
	Status        string   `json:"status" binding:"omitempty,oneof=active inactive"`
	UserID        string   `json:"user_id"`
}

type VendorService interface {
	List(ctx context.Context, filter repository.VendorListFilter) ([]model.Vendor, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	Create(ctx context.Context, req CreateVendorRequest) (*model.Vendor, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateVendorRequest) (*model.Vendor, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// VendorForUser resolves the vendor record linked to a portal account
	VendorForUser(ctx context.Context, userID uuid.UUID) (*model.Vendor, error)
}

type vendorService struct {
	vendorRepo repository.VendorRepository
	userRepo   repository.UserRepository
}

func NewVendorService(vendorRepo repository.VendorRepository, userRepo repository.UserRepository) VendorService {
	return &vendorService{vendorRepo: vendorRepo, userRepo: userRepo}
}

func (s *vendorService) List(ctx context.Context, filter repository.VendorListFilter) ([]model.Vendor, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.vendorRepo.List(ctx, filter)
}

func (s *vendorService) Get(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "vendor not found")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load vendor")
	}
	return vendor, nil
}

// resolveUserLink parses and validates an optional portal account id
func (s *vendorService) resolveUserLink(ctx context.Context, rawUserID string) (*uuid.UUID, error) {
	if rawUserID == "" {
		return nil, nil
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "invalid user_id")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "linked user not found")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load linked user")
	}
	if user.Role != model.RoleVendor {
		return nil, apperror.New(apperror.KindValidation, "linked user must have the vendor role")
	}
	if existing, err := s.vendorRepo.FindByUserID(ctx, userID); err == nil && existing != nil {
		return nil, apperror.New(apperror.KindConflict, "user is already linked to vendor %s", existing.Name)
	}
	return &userID, nil
}

func (s *vendorService) Create(ctx context.Context, req CreateVendorRequest) (*model.Vendor, error) {
	userLink, err := s.resolveUserLink(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	vendor := model.Vendor{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		ContactPerson: req.ContactPerson,
		PaymentTerms:  req.PaymentTerms,
		Rating:        req.Rating,
		Status:        model.VendorStatusActive,
		UserID:        userLink,
	}
	if err := s.vendorRepo.Create(ctx, &vendor); err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to create vendor")
	}
	return &vendor, nil
}

func (s *vendorService) Update(ctx context.Context, id uuid.UUID, req UpdateVendorRequest) (*model.Vendor, error) {
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	vendor.Name = req.Name
	vendor.Email = req.Email
	vendor.Phone = req.Phone
	vendor.Address = req.Address
	vendor.ContactPerson = req.ContactPerson
	vendor.PaymentTerms = req.PaymentTerms
	if req.Rating != nil {
		vendor.Rating = *req.Rating
	}
	if req.Status != "" {
		vendor.Status = req.Status
	}
	if req.UserID != "" && (vendor.UserID == nil || vendor.UserID.String() != req.UserID) {
		userLink, err := s.resolveUserLink(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		vendor.UserID = userLink
	}

	if err := s.vendorRepo.Update(ctx, vendor); err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to update vendor")
	}
	return vendor, nil
}

func (s *vendorService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.vendorRepo.Delete(ctx, id); err != nil {
		return apperror.Wrap(apperror.KindStorage, err, "failed to delete vendor")
	}
	return nil
}

func (s *vendorService) VendorForUser(ctx context.Context, userID uuid.UUID) (*model.Vendor, error) {
	vendor, err := s.vendorRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "no vendor account is linked to this user")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to resolve vendor account")
	}
	return vendor, nil
}
