package repositories

import (
	"context"
	"fmt"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"

	"github.com/google/uuid"
)

type LocationRepository interface {
	Create(ctx context.Context, loc *models.Location) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	List(ctx context.Context) ([]models.Location, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpsertItemLocation(ctx context.Context, il *models.ItemLocation) error
	ListItemLocations(ctx context.Context, itemID uuid.UUID) ([]models.ItemLocation, error)
}

type locationRepo struct {
	db DBTX
}

func NewLocationRepository(db DBTX) LocationRepository {
	return &locationRepo{db: db}
}

func (r *locationRepo) Create(ctx context.Context, loc *models.Location) error {
	query := `
		INSERT INTO locations (id, name, description, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, loc.ID, loc.Name, loc.Description).Scan(&loc.CreatedAt)
	return translate(err, "create location", "location", loc.ID)
}

func (r *locationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	loc := &models.Location{}
	query := `SELECT id, name, description, created_at FROM locations WHERE id = $1`
	if err := r.db.QueryRow(ctx, query, id).Scan(&loc.ID, &loc.Name, &loc.Description, &loc.CreatedAt); err != nil {
		return nil, translate(err, "get location", "location", id)
	}
	return loc, nil
}

func (r *locationRepo) List(ctx context.Context) ([]models.Location, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, created_at FROM locations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	locations := make([]models.Location, 0)
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (r *locationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete location", "location", id)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("location", id)
	}
	return nil
}

func (r *locationRepo) UpsertItemLocation(ctx context.Context, il *models.ItemLocation) error {
	query := `
		INSERT INTO item_locations (item_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (item_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
		RETURNING updated_at
	`
	if err := r.db.QueryRow(ctx, query, il.ItemID, il.LocationID, il.Quantity).Scan(&il.UpdatedAt); err != nil {
		return translate(err, "set item location", "item location", il.ItemID)
	}
	return nil
}

func (r *locationRepo) ListItemLocations(ctx context.Context, itemID uuid.UUID) ([]models.ItemLocation, error) {
	query := `
		SELECT il.item_id, il.location_id, l.name, il.quantity, il.updated_at
		FROM item_locations il JOIN locations l ON l.id = il.location_id
		WHERE il.item_id = $1
		ORDER BY l.name
	`
	rows, err := r.db.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list item locations: %w", err)
	}
	defer rows.Close()

	out := make([]models.ItemLocation, 0)
	for rows.Next() {
		var il models.ItemLocation
		if err := rows.Scan(&il.ItemID, &il.LocationID, &il.LocationName, &il.Quantity, &il.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item location: %w", err)
		}
		out = append(out, il)
	}
	return out, rows.Err()
}
