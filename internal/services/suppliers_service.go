package services

import (
	"context"
	"strings"

	"github.com/Arielpetit/UDM/internal/caching"
	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"
	"github.com/Arielpetit/UDM/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type SupplierService interface {
	Create(ctx context.Context, in models.SupplierInput) (*models.Supplier, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	Update(ctx context.Context, id uuid.UUID, in models.SupplierInput) (*models.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]models.Supplier, error)
}

type supplierService struct {
	supplierRepo repositories.SupplierRepository
	cache        *caching.ListCache
	log          zerolog.Logger
}

func NewSupplierService(supplierRepo repositories.SupplierRepository, cache *caching.ListCache, log zerolog.Logger) SupplierService {
	return &supplierService{
		supplierRepo: supplierRepo,
		cache:        cache,
		log:          log.With().Str("component", "supplier_service").Logger(),
	}
}

func (s *supplierService) Create(ctx context.Context, in models.SupplierInput) (*models.Supplier, error) {
	supplier := &models.Supplier{ID: uuid.New()}
	if err := applySupplierInput(supplier, in); err != nil {
		return nil, err
	}
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, err
	}
	s.log.Info().Str("supplier_id", supplier.ID.String()).Msg("supplier created")
	return supplier, nil
}

func (s *supplierService) GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	return s.supplierRepo.GetByID(ctx, id)
}

// Update also invalidates item lists, which carry the supplier name.
func (s *supplierService) Update(ctx context.Context, id uuid.UUID, in models.SupplierInput) (*models.Supplier, error) {
	supplier := &models.Supplier{ID: id}
	if err := applySupplierInput(supplier, in); err != nil {
		return nil, err
	}
	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	s.cache.InvalidateItemLists(ctx)
	return s.supplierRepo.GetByID(ctx, id)
}

func (s *supplierService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.supplierRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateItemLists(ctx)
	s.log.Info().Str("supplier_id", id.String()).Msg("supplier deleted")
	return nil
}

func (s *supplierService) List(ctx context.Context, limit, offset int) ([]models.Supplier, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset, 50, 500, "offset")
	if err != nil {
		return nil, err
	}
	return s.supplierRepo.List(ctx, limit, offset)
}

func applySupplierInput(supplier *models.Supplier, in models.SupplierInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return common.NewValidationError("name", "supplier name is required")
	}
	if in.LeadTimeDays < 0 {
		return common.NewValidationError("lead_time_days", "cannot be negative")
	}
	supplier.Name = name
	supplier.ContactName = in.ContactName
	supplier.Email = in.Email
	supplier.Phone = in.Phone
	supplier.Address = in.Address
	supplier.LeadTimeDays = in.LeadTimeDays
	return nil
}
