package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ItemRepository reads and writes inventory_items. Reads through GetByID and
// List also load the supplier name; GetForUpdate loads the bare row and locks it.
type ItemRepository interface {
	Create(ctx context.Context, item *models.InventoryItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	GetBySKU(ctx context.Context, sku string) (*models.InventoryItem, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	List(ctx context.Context, limit, offset int) ([]models.InventoryItem, error)
	ListAll(ctx context.Context) ([]models.InventoryItem, error)
	UpdateFields(ctx context.Context, item *models.InventoryItem) error
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type itemRepo struct {
	db DBTX
}

func NewItemRepository(db DBTX) ItemRepository {
	return &itemRepo{db: db}
}

const itemColumns = `i.id, i.sku, i.name, i.description, i.quantity, i.price, i.cost_price, i.category,
		i.reorder_level, i.supplier_id, s.name, i.created_at, i.updated_at`

const itemFrom = `FROM inventory_items i LEFT JOIN suppliers s ON s.id = i.supplier_id`

func scanItem(row pgx.Row) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	err := row.Scan(&item.ID, &item.SKU, &item.Name, &item.Description, &item.Quantity, &item.Price,
		&item.CostPrice, &item.Category, &item.ReorderLevel, &item.SupplierID, &item.SupplierName,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *itemRepo) Create(ctx context.Context, item *models.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (id, sku, name, description, quantity, price, cost_price, category, reorder_level, supplier_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, item.ID, item.SKU, item.Name, item.Description, item.Quantity, item.Price,
		item.CostPrice, item.Category, item.ReorderLevel, item.SupplierID).Scan(&item.CreatedAt, &item.UpdatedAt)
	return translate(err, "create item", "item", item.ID)
}

func (r *itemRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` ` + itemFrom + ` WHERE i.id = $1`
	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "get item", "item", id)
	}
	return item, nil
}

func (r *itemRepo) GetBySKU(ctx context.Context, sku string) (*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` ` + itemFrom + ` WHERE i.sku = $1`
	item, err := scanItem(r.db.QueryRow(ctx, query, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &common.NotFoundError{Resource: "item with sku", ID: sku}
		}
		return nil, fmt.Errorf("failed to get item by sku: %w", err)
	}
	return item, nil
}

// GetForUpdate locks the item row until the surrounding transaction ends.
// Concurrent movements on the same item serialize here.
func (r *itemRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` ` + itemFrom + ` WHERE i.id = $1 FOR UPDATE OF i`
	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "lock item", "item", id)
	}
	return item, nil
}

func (r *itemRepo) List(ctx context.Context, limit, offset int) ([]models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` ` + itemFrom + ` ORDER BY i.name, i.id LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limit, offset)
}

func (r *itemRepo) ListAll(ctx context.Context) ([]models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` ` + itemFrom + ` ORDER BY i.name, i.id`
	return r.list(ctx, query)
}

func (r *itemRepo) list(ctx context.Context, query string, args ...any) ([]models.InventoryItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]models.InventoryItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// UpdateFields writes every column except quantity.
func (r *itemRepo) UpdateFields(ctx context.Context, item *models.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET sku = $1, name = $2, description = $3, price = $4, cost_price = $5, category = $6,
			reorder_level = $7, supplier_id = $8, updated_at = NOW()
		WHERE id = $9
	`
	tag, err := r.db.Exec(ctx, query, item.SKU, item.Name, item.Description, item.Price, item.CostPrice,
		item.Category, item.ReorderLevel, item.SupplierID, item.ID)
	if err != nil {
		return translate(err, "update item", "item", item.ID)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("item", item.ID)
	}
	return nil
}

// SetQuantity is reserved for the movement engine.
func (r *itemRepo) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `UPDATE inventory_items SET quantity = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("failed to set item quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("item", id)
	}
	return nil
}

func (r *itemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete item", "item", id)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("item", id)
	}
	return nil
}
