package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Arielpetit/UDM/internal/models"
	"github.com/Arielpetit/UDM/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB connects to TEST_DATABASE_URL and applies migrations. Tests are
// skipped when the variable is unset.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, connString, database.Options{MaxConns: 10}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	db := &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
	t.Cleanup(func() { _ = db.Cleanup() })
	return db
}

// SetupTestSupplier inserts a supplier and removes it when the test ends.
func SetupTestSupplier(t *testing.T, db *TestDB) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO suppliers (id, name, lead_time_days) VALUES ($1, $2, 0)`, id, "Test Supplier "+id.String()[:8])
	if err != nil {
		t.Fatalf("Failed to create test supplier: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM suppliers WHERE id = $1`, id)
	})
	return id
}

// SetupTestItem inserts an item holding quantity without a movement record.
// Use it for fixtures only; application code goes through the movement engine.
func SetupTestItem(t *testing.T, db *TestDB, quantity int) *models.InventoryItem {
	t.Helper()

	item := &models.InventoryItem{
		ID:           uuid.New(),
		Name:         "Test Item",
		Quantity:     quantity,
		Price:        decimal.RequireFromString("10.00"),
		CostPrice:    decimal.RequireFromString("6.00"),
		Category:     "test",
		ReorderLevel: 2,
	}
	query := `
		INSERT INTO inventory_items (id, name, quantity, price, cost_price, category, reorder_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.Pool.Exec(context.Background(), query, item.ID, item.Name, item.Quantity, item.Price,
		item.CostPrice, item.Category, item.ReorderLevel)
	if err != nil {
		t.Fatalf("Failed to create test item: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM inventory_items WHERE id = $1`, item.ID)
	})
	return item
}
