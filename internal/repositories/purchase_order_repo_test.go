package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type PurchaseOrderRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    PurchaseOrderRepository
	context context.Context
}

func (suite *PurchaseOrderRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewPurchaseOrderRepository(mock)
	suite.context = context.Background()
}

func (suite *PurchaseOrderRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestPurchaseOrderRepoTestSuite(t *testing.T) {
	suite.Run(t, new(PurchaseOrderRepoTestSuite))
}

func (suite *PurchaseOrderRepoTestSuite) TestCreate_InsertsOrderAndLines() {
	po := &models.PurchaseOrder{
		ID:          uuid.New(),
		OrderNumber: "PO-20260101-ABC123",
		SupplierID:  uuid.New(),
		Status:      models.POStatusDraft,
		TotalAmount: decimal.RequireFromString("110"),
		Items: []models.PurchaseOrderItem{
			{ID: uuid.New(), ItemID: uuid.New(), QuantityOrdered: 5, UnitPrice: decimal.RequireFromString("10")},
			{ID: uuid.New(), ItemID: uuid.New(), QuantityOrdered: 3, UnitPrice: decimal.RequireFromString("20")},
		},
	}
	now := time.Now()

	suite.mock.ExpectQuery(`INSERT INTO purchase_orders`).
		WithArgs(po.ID, po.OrderNumber, po.SupplierID, "draft", po.TotalAmount, po.Notes, po.ExpectedDelivery).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	for _, line := range po.Items {
		suite.mock.ExpectExec(`INSERT INTO purchase_order_items`).
			WithArgs(line.ID, po.ID, line.ItemID, line.QuantityOrdered, 0, line.UnitPrice).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	assert.NoError(suite.T(), suite.repo.Create(suite.context, po))
}

func (suite *PurchaseOrderRepoTestSuite) TestGetForUpdate_NotFound() {
	id := uuid.New()
	suite.mock.ExpectQuery(`FOR UPDATE OF p`).WithArgs(id).WillReturnError(pgx.ErrNoRows)

	po, err := suite.repo.GetForUpdate(suite.context, id)

	assert.Nil(suite.T(), po)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *PurchaseOrderRepoTestSuite) TestList_FiltersByStatus() {
	status := models.POStatusOrdered
	id := uuid.New()
	rows := pgxmock.NewRows([]string{"id", "order_number", "supplier_id", "supplier_name", "status", "total_amount",
		"notes", "expected_delivery", "received_at", "created_at", "updated_at"}).
		AddRow(id, "PO-20260101-ABC123", uuid.New(), stringPtr("Acme"), "ordered", decimal.RequireFromString("50"),
			nil, nil, nil, time.Now(), time.Now())

	suite.mock.ExpectQuery(`WHERE p.status = \$1 ORDER BY p.created_at DESC, p.id LIMIT \$2 OFFSET \$3`).
		WithArgs("ordered", 10, 0).
		WillReturnRows(rows)

	orders, err := suite.repo.List(suite.context, models.PurchaseOrderFilter{Status: &status, Limit: 10})

	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), orders, 1)
	assert.Equal(suite.T(), models.POStatusOrdered, orders[0].Status)
}

func (suite *PurchaseOrderRepoTestSuite) TestUpdateStatus_StampsReceivedAt() {
	id := uuid.New()
	now := time.Now()
	suite.mock.ExpectExec(`SET status = \$1, received_at = COALESCE\(received_at, \$2\)`).
		WithArgs("received", &now, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(suite.T(), suite.repo.UpdateStatus(suite.context, id, models.POStatusReceived, &now))
}
