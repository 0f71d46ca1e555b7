package services

import (
	"context"
	"strings"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"
	"github.com/Arielpetit/UDM/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LocationService manages storage locations and per-location placement
// records. Placement quantities never change item stock.
type LocationService interface {
	Create(ctx context.Context, in models.LocationInput) (*models.Location, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	List(ctx context.Context) ([]models.Location, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetItemLocation(ctx context.Context, itemID, locationID uuid.UUID, quantity int) (*models.ItemLocation, error)
	ListItemLocations(ctx context.Context, itemID uuid.UUID) ([]models.ItemLocation, error)
}

type locationService struct {
	db  repositories.DBTX
	log zerolog.Logger
}

func NewLocationService(db repositories.DBTX, log zerolog.Logger) LocationService {
	return &locationService{db: db, log: log.With().Str("component", "location_service").Logger()}
}

func (s *locationService) Create(ctx context.Context, in models.LocationInput) (*models.Location, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, common.NewValidationError("name", "location name is required")
	}
	loc := &models.Location{ID: uuid.New(), Name: name, Description: in.Description}
	if err := repositories.NewLocationRepository(s.db).Create(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

func (s *locationService) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	return repositories.NewLocationRepository(s.db).GetByID(ctx, id)
}

func (s *locationService) List(ctx context.Context) ([]models.Location, error) {
	return repositories.NewLocationRepository(s.db).List(ctx)
}

func (s *locationService) Delete(ctx context.Context, id uuid.UUID) error {
	return repositories.NewLocationRepository(s.db).Delete(ctx, id)
}

func (s *locationService) SetItemLocation(ctx context.Context, itemID, locationID uuid.UUID, quantity int) (*models.ItemLocation, error) {
	if quantity < 0 {
		return nil, common.NewValidationError("quantity", "cannot be negative")
	}
	if _, err := repositories.NewItemRepository(s.db).GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	loc, err := repositories.NewLocationRepository(s.db).GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}

	il := &models.ItemLocation{ItemID: itemID, LocationID: locationID, LocationName: loc.Name, Quantity: quantity}
	if err := repositories.NewLocationRepository(s.db).UpsertItemLocation(ctx, il); err != nil {
		return nil, err
	}
	s.log.Debug().
		Str("item_id", itemID.String()).
		Str("location_id", locationID.String()).
		Int("quantity", quantity).
		Msg("item placement recorded")
	return il, nil
}

func (s *locationService) ListItemLocations(ctx context.Context, itemID uuid.UUID) ([]models.ItemLocation, error) {
	if _, err := repositories.NewItemRepository(s.db).GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return repositories.NewLocationRepository(s.db).ListItemLocations(ctx, itemID)
}
