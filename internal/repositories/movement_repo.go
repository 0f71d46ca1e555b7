package repositories

import (
	"context"
	"fmt"

	"github.com/Arielpetit/UDM/internal/models"

	"github.com/google/uuid"
)

// MovementRepository is append-only: there is no update or delete.
type MovementRepository interface {
	Create(ctx context.Context, m *models.StockMovement) error
	ListByItem(ctx context.Context, itemID uuid.UUID, limit, offset int) ([]models.StockMovement, error)
}

type movementRepo struct {
	db DBTX
}

func NewMovementRepository(db DBTX) MovementRepository {
	return &movementRepo{db: db}
}

func (r *movementRepo) Create(ctx context.Context, m *models.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, item_id, movement_type, quantity_change, quantity_before, quantity_after, reason, reference_number, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, m.ID, m.ItemID, string(m.MovementType), m.QuantityChange, m.QuantityBefore,
		m.QuantityAfter, m.Reason, m.ReferenceNumber, m.CreatedBy).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}

func (r *movementRepo) ListByItem(ctx context.Context, itemID uuid.UUID, limit, offset int) ([]models.StockMovement, error) {
	query := `
		SELECT id, item_id, movement_type, quantity_change, quantity_before, quantity_after, reason, reference_number, created_by, created_at
		FROM stock_movements
		WHERE item_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, itemID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]models.StockMovement, 0)
	for rows.Next() {
		var m models.StockMovement
		var kind string
		if err := rows.Scan(&m.ID, &m.ItemID, &kind, &m.QuantityChange, &m.QuantityBefore, &m.QuantityAfter,
			&m.Reason, &m.ReferenceNumber, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		m.MovementType = models.MovementType(kind)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
