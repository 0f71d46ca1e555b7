package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Arielpetit/UDM/internal/caching"
	"github.com/Arielpetit/UDM/internal/models"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

var (
	itemColumnNames = []string{"id", "sku", "name", "description", "quantity", "price", "cost_price", "category",
		"reorder_level", "supplier_id", "supplier_name", "created_at", "updated_at"}
	purchaseOrderColumnNames = []string{"id", "order_number", "supplier_id", "supplier_name", "status", "total_amount",
		"notes", "expected_delivery", "received_at", "created_at", "updated_at"}
	purchaseOrderLineColumnNames = []string{"id", "purchase_order_id", "item_id", "quantity_ordered", "quantity_received", "unit_price"}
)

const (
	lockItemSQL     = `FROM inventory_items i LEFT JOIN suppliers s ON s.id = i.supplier_id WHERE i.id = \$1 FOR UPDATE OF i`
	getItemSQL      = `FROM inventory_items i LEFT JOIN suppliers s ON s.id = i.supplier_id WHERE i.id = \$1$`
	setQuantitySQL  = `UPDATE inventory_items SET quantity = \$1`
	insertMoveSQL   = `INSERT INTO stock_movements`
	lockOrderSQL    = `WHERE p.id = \$1 FOR UPDATE OF p`
	getOrderSQL     = `FROM purchase_orders p LEFT JOIN suppliers s ON s.id = p.supplier_id WHERE p.id = \$1$`
	orderLinesSQL   = `FROM purchase_order_items WHERE purchase_order_id = \$1`
	lineReceivedSQL = `UPDATE purchase_order_items SET quantity_received`
	orderStatusSQL  = `UPDATE purchase_orders SET status`
)

func stringPtr(s string) *string { return &s }

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func itemRows(items ...models.InventoryItem) *pgxmock.Rows {
	rows := pgxmock.NewRows(itemColumnNames)
	for _, item := range items {
		rows.AddRow(item.ID, item.SKU, item.Name, item.Description, item.Quantity, item.Price, item.CostPrice,
			item.Category, item.ReorderLevel, item.SupplierID, item.SupplierName, item.CreatedAt, item.UpdatedAt)
	}
	return rows
}

func purchaseOrderRows(po models.PurchaseOrder) *pgxmock.Rows {
	return pgxmock.NewRows(purchaseOrderColumnNames).AddRow(po.ID, po.OrderNumber, po.SupplierID, po.SupplierName,
		string(po.Status), po.TotalAmount, po.Notes, po.ExpectedDelivery, po.ReceivedAt, po.CreatedAt, po.UpdatedAt)
}

func purchaseOrderLineRows(lines ...models.PurchaseOrderItem) *pgxmock.Rows {
	rows := pgxmock.NewRows(purchaseOrderLineColumnNames)
	for _, l := range lines {
		rows.AddRow(l.ID, l.PurchaseOrderID, l.ItemID, l.QuantityOrdered, l.QuantityReceived, l.UnitPrice)
	}
	return rows
}

func createdAtRow() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now())
}

// expectMovement scripts the lock, quantity write and audit insert of one
// successful movement on item.
func expectMovement(m pgxmock.PgxPoolIface, item models.InventoryItem, kind models.MovementType, change int, reason string, reference *string) {
	m.ExpectQuery(lockItemSQL).WithArgs(item.ID).WillReturnRows(itemRows(item))
	m.ExpectExec(setQuantitySQL).WithArgs(item.Quantity+change, item.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	m.ExpectQuery(insertMoveSQL).
		WithArgs(pgxmock.AnyArg(), item.ID, string(kind), change, item.Quantity, item.Quantity+change, reason, reference, (*string)(nil)).
		WillReturnRows(createdAtRow())
}

// memoryCache is an in-process caching.CacheService. A non-nil err makes
// every call fail, as an unreachable backend would.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	err     error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) GetBytes(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.entries[key], nil
}

func (m *memoryCache) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries[key] = value
	return nil
}

func (m *memoryCache) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	n := 0
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *memoryCache) Ping(context.Context) error { return m.err }
func (m *memoryCache) Close() error               { return nil }

func (m *memoryCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

var errCacheDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

func newTestListCache(backend caching.CacheService) *caching.ListCache {
	return caching.NewListCache(backend, time.Minute, zerolog.Nop())
}

// MockObjectStore is a testify mock of ObjectStore.
type MockObjectStore struct {
	mock.Mock
	uploaded []byte
}

func (m *MockObjectStore) Upload(ctx context.Context, objectName, contentType string, reader io.Reader, objectSize int64) error {
	data, _ := io.ReadAll(reader)
	m.uploaded = data
	args := m.Called(ctx, objectName, contentType, objectSize)
	return args.Error(0)
}

func (m *MockObjectStore) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, objectName string) error {
	return m.Called(ctx, objectName).Error(0)
}

func (m *MockObjectStore) EnsureBucketExists(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
