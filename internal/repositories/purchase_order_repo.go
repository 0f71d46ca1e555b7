package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *models.PurchaseOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	ListItems(ctx context.Context, poID uuid.UUID) ([]models.PurchaseOrderItem, error)
	List(ctx context.Context, filter models.PurchaseOrderFilter) ([]models.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.PurchaseOrderStatus, receivedAt *time.Time) error
	SetLineReceived(ctx context.Context, lineID uuid.UUID, quantityReceived int) error
}

type purchaseOrderRepo struct {
	db DBTX
}

func NewPurchaseOrderRepository(db DBTX) PurchaseOrderRepository {
	return &purchaseOrderRepo{db: db}
}

// Create inserts the order and its lines. Callers run it inside a transaction.
func (r *purchaseOrderRepo) Create(ctx context.Context, po *models.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (id, order_number, supplier_id, status, total_amount, notes, expected_delivery, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, po.ID, po.OrderNumber, po.SupplierID, string(po.Status), po.TotalAmount,
		po.Notes, po.ExpectedDelivery).Scan(&po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return translate(err, "create purchase order", "purchase order", po.ID)
	}

	lineQuery := `
		INSERT INTO purchase_order_items (id, purchase_order_id, item_id, quantity_ordered, quantity_received, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, line := range po.Items {
		if _, err := r.db.Exec(ctx, lineQuery, line.ID, po.ID, line.ItemID, line.QuantityOrdered,
			line.QuantityReceived, line.UnitPrice); err != nil {
			return fmt.Errorf("failed to create purchase order line: %w", err)
		}
	}
	return nil
}

const purchaseOrderColumns = `p.id, p.order_number, p.supplier_id, s.name, p.status, p.total_amount, p.notes,
		p.expected_delivery, p.received_at, p.created_at, p.updated_at`

func scanPurchaseOrder(row pgx.Row) (*models.PurchaseOrder, error) {
	po := &models.PurchaseOrder{}
	var status string
	err := row.Scan(&po.ID, &po.OrderNumber, &po.SupplierID, &po.SupplierName, &status, &po.TotalAmount, &po.Notes,
		&po.ExpectedDelivery, &po.ReceivedAt, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return nil, err
	}
	po.Status = models.PurchaseOrderStatus(status)
	return po, nil
}

func (r *purchaseOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + `
		FROM purchase_orders p LEFT JOIN suppliers s ON s.id = p.supplier_id
		WHERE p.id = $1`
	po, err := scanPurchaseOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "get purchase order", "purchase order", id)
	}
	return po, nil
}

// GetForUpdate locks the order row so concurrent receipts of one order serialize.
func (r *purchaseOrderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + `
		FROM purchase_orders p LEFT JOIN suppliers s ON s.id = p.supplier_id
		WHERE p.id = $1
		FOR UPDATE OF p`
	po, err := scanPurchaseOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "lock purchase order", "purchase order", id)
	}
	return po, nil
}

func (r *purchaseOrderRepo) ListItems(ctx context.Context, poID uuid.UUID) ([]models.PurchaseOrderItem, error) {
	query := `
		SELECT id, purchase_order_id, item_id, quantity_ordered, quantity_received, unit_price
		FROM purchase_order_items
		WHERE purchase_order_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, poID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]models.PurchaseOrderItem, 0)
	for rows.Next() {
		var l models.PurchaseOrderItem
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.ItemID, &l.QuantityOrdered, &l.QuantityReceived, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan purchase order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *purchaseOrderRepo) List(ctx context.Context, filter models.PurchaseOrderFilter) ([]models.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + `
		FROM purchase_orders p LEFT JOIN suppliers s ON s.id = p.supplier_id`
	args := []any{}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" WHERE p.status = $%d", len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY p.created_at DESC, p.id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.PurchaseOrder, 0)
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase order: %w", err)
		}
		orders = append(orders, *po)
	}
	return orders, rows.Err()
}

// UpdateStatus sets the status. A non-nil receivedAt is stamped only if none is set yet.
func (r *purchaseOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PurchaseOrderStatus, receivedAt *time.Time) error {
	query := `
		UPDATE purchase_orders
		SET status = $1, received_at = COALESCE(received_at, $2), updated_at = NOW()
		WHERE id = $3
	`
	tag, err := r.db.Exec(ctx, query, string(status), receivedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update purchase order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("purchase order", id)
	}
	return nil
}

func (r *purchaseOrderRepo) SetLineReceived(ctx context.Context, lineID uuid.UUID, quantityReceived int) error {
	query := `UPDATE purchase_order_items SET quantity_received = $1 WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, quantityReceived, lineID)
	if err != nil {
		return fmt.Errorf("failed to update purchase order line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("purchase order line", lineID)
	}
	return nil
}
