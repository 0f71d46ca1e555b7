package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

var itemColumnNames = []string{"id", "sku", "name", "description", "quantity", "price", "cost_price", "category",
	"reorder_level", "supplier_id", "supplier_name", "created_at", "updated_at"}

func stringPtr(s string) *string { return &s }

func itemRow(rows *pgxmock.Rows, item models.InventoryItem) *pgxmock.Rows {
	return rows.AddRow(item.ID, item.SKU, item.Name, item.Description, item.Quantity, item.Price, item.CostPrice,
		item.Category, item.ReorderLevel, item.SupplierID, item.SupplierName, item.CreatedAt, item.UpdatedAt)
}

type ItemRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    ItemRepository
	context context.Context
	item    models.InventoryItem
}

func (suite *ItemRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewItemRepository(mock)
	suite.context = context.Background()

	supplierID := uuid.New()
	suite.item = models.InventoryItem{
		ID:           uuid.New(),
		SKU:          stringPtr("WID-001"),
		Name:         "Widget",
		Quantity:     12,
		Price:        decimal.RequireFromString("10.00"),
		CostPrice:    decimal.RequireFromString("6.50"),
		Category:     "hardware",
		ReorderLevel: 5,
		SupplierID:   &supplierID,
		SupplierName: stringPtr("Acme"),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func (suite *ItemRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestItemRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ItemRepoTestSuite))
}

func (suite *ItemRepoTestSuite) TestCreate_Success() {
	item := suite.item
	now := time.Now()
	suite.mock.ExpectQuery(`INSERT INTO inventory_items`).
		WithArgs(item.ID, item.SKU, item.Name, item.Description, item.Quantity, item.Price, item.CostPrice,
			item.Category, item.ReorderLevel, item.SupplierID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	err := suite.repo.Create(suite.context, &item)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), now, item.CreatedAt)
}

func (suite *ItemRepoTestSuite) TestCreate_DuplicateSKU() {
	item := suite.item
	suite.mock.ExpectQuery(`INSERT INTO inventory_items`).
		WithArgs(item.ID, item.SKU, item.Name, item.Description, item.Quantity, item.Price, item.CostPrice,
			item.Category, item.ReorderLevel, item.SupplierID).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := suite.repo.Create(suite.context, &item)

	assert.ErrorIs(suite.T(), err, common.ErrConflict)
}

func (suite *ItemRepoTestSuite) TestGetByID_JoinsSupplierName() {
	rows := itemRow(pgxmock.NewRows(itemColumnNames), suite.item)
	suite.mock.ExpectQuery(`SELECT .+ FROM inventory_items i LEFT JOIN suppliers s ON s.id = i.supplier_id WHERE i.id = \$1`).
		WithArgs(suite.item.ID).
		WillReturnRows(rows)

	item, err := suite.repo.GetByID(suite.context, suite.item.ID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Acme", *item.SupplierName)
	assert.Equal(suite.T(), 12, item.Quantity)
	assert.True(suite.T(), suite.item.Price.Equal(item.Price))
}

func (suite *ItemRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`SELECT .+ FROM inventory_items`).
		WithArgs(suite.item.ID).
		WillReturnError(pgx.ErrNoRows)

	item, err := suite.repo.GetByID(suite.context, suite.item.ID)

	assert.Nil(suite.T(), item)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *ItemRepoTestSuite) TestGetBySKU_NotFound() {
	suite.mock.ExpectQuery(`SELECT .+ WHERE i.sku = \$1`).
		WithArgs("MISSING").
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetBySKU(suite.context, "MISSING")

	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *ItemRepoTestSuite) TestGetForUpdate_LocksRow() {
	rows := itemRow(pgxmock.NewRows(itemColumnNames), suite.item)
	suite.mock.ExpectQuery(`SELECT .+ WHERE i.id = \$1 FOR UPDATE OF i`).
		WithArgs(suite.item.ID).
		WillReturnRows(rows)

	item, err := suite.repo.GetForUpdate(suite.context, suite.item.ID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.item.ID, item.ID)
}

func (suite *ItemRepoTestSuite) TestList_Paginates() {
	second := suite.item
	second.ID = uuid.New()
	second.Name = "Zipper"
	second.SupplierID = nil
	second.SupplierName = nil
	rows := itemRow(itemRow(pgxmock.NewRows(itemColumnNames), suite.item), second)

	suite.mock.ExpectQuery(`SELECT .+ ORDER BY i.name, i.id LIMIT \$1 OFFSET \$2`).
		WithArgs(100, 0).
		WillReturnRows(rows)

	items, err := suite.repo.List(suite.context, 100, 0)

	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), items, 2)
	assert.Nil(suite.T(), items[1].SupplierName)
}

func (suite *ItemRepoTestSuite) TestList_QueryError() {
	suite.mock.ExpectQuery(`SELECT .+ FROM inventory_items`).
		WithArgs(10, 20).
		WillReturnError(errors.New("connection reset"))

	items, err := suite.repo.List(suite.context, 10, 20)

	assert.Nil(suite.T(), items)
	assert.Error(suite.T(), err)
	assert.NotErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *ItemRepoTestSuite) TestUpdateFields_DoesNotTouchQuantity() {
	item := suite.item
	suite.mock.ExpectExec(`UPDATE inventory_items\s+SET sku = \$1, name = \$2, description = \$3, price = \$4, cost_price = \$5, category = \$6,\s+reorder_level = \$7, supplier_id = \$8, updated_at = NOW\(\)\s+WHERE id = \$9`).
		WithArgs(item.SKU, item.Name, item.Description, item.Price, item.CostPrice, item.Category, item.ReorderLevel,
			item.SupplierID, item.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(suite.T(), suite.repo.UpdateFields(suite.context, &item))
}

func (suite *ItemRepoTestSuite) TestSetQuantity_NotFound() {
	suite.mock.ExpectExec(`UPDATE inventory_items SET quantity = \$1`).
		WithArgs(3, suite.item.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.SetQuantity(suite.context, suite.item.ID, 3)

	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *ItemRepoTestSuite) TestDelete_Success() {
	suite.mock.ExpectExec(`DELETE FROM inventory_items WHERE id = \$1`).
		WithArgs(suite.item.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(suite.T(), suite.repo.Delete(suite.context, suite.item.ID))
}

func (suite *ItemRepoTestSuite) TestDelete_ReferencedByPurchaseOrderIsConflict() {
	suite.mock.ExpectExec(`DELETE FROM inventory_items WHERE id = \$1`).
		WithArgs(suite.item.ID).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})

	err := suite.repo.Delete(suite.context, suite.item.ID)

	assert.ErrorIs(suite.T(), err, common.ErrConflict)
	assert.ErrorContains(suite.T(), err, "item is still referenced")
}

func (suite *ItemRepoTestSuite) TestDelete_NotFound() {
	suite.mock.ExpectExec(`DELETE FROM inventory_items WHERE id = \$1`).
		WithArgs(suite.item.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(suite.T(), suite.repo.Delete(suite.context, suite.item.ID), common.ErrNotFound)
}
