package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"
	"github.com/Arielpetit/UDM/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MockInventoryService struct{ mock.Mock }

func (m *MockInventoryService) CreateItem(ctx context.Context, in models.CreateItemInput) (*models.InventoryItem, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryService) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryService) ListItems(ctx context.Context, skip, limit int) ([]models.InventoryItem, error) {
	args := m.Called(ctx, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.InventoryItem), args.Error(1)
}

func (m *MockInventoryService) UpdateItem(ctx context.Context, id uuid.UUID, in models.UpdateItemInput) (*models.InventoryItem, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockMovementService struct{ mock.Mock }

func (m *MockMovementService) ApplyMovement(ctx context.Context, req models.MovementRequest) (*models.StockMovement, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockMovement), args.Error(1)
}

func (m *MockMovementService) RecordInitialStock(ctx context.Context, itemID uuid.UUID, quantity int) (*models.StockMovement, error) {
	args := m.Called(ctx, itemID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockMovement), args.Error(1)
}

func (m *MockMovementService) AdjustViaUpdate(ctx context.Context, itemID uuid.UUID, newQuantity int, reason string) (*models.StockMovement, error) {
	args := m.Called(ctx, itemID, newQuantity, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockMovement), args.Error(1)
}

func (m *MockMovementService) ListMovements(ctx context.Context, itemID uuid.UUID, limit, offset int) ([]models.StockMovement, error) {
	args := m.Called(ctx, itemID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StockMovement), args.Error(1)
}

type MockPurchaseOrderService struct{ mock.Mock }

func (m *MockPurchaseOrderService) Create(ctx context.Context, in models.CreatePurchaseOrderInput) (*models.PurchaseOrder, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderService) List(ctx context.Context, filter models.PurchaseOrderFilter) ([]models.PurchaseOrder, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, to models.PurchaseOrderStatus) (*models.PurchaseOrder, error) {
	args := m.Called(ctx, id, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderService) Receive(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderService) ReceivePartial(ctx context.Context, id uuid.UUID, receipts []models.LineReceipt) (*models.PurchaseOrder, error) {
	args := m.Called(ctx, id, receipts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseOrder), args.Error(1)
}

type MockImportExportService struct{ mock.Mock }

func (m *MockImportExportService) ImportCSV(ctx context.Context, r io.Reader) (*models.BulkOperationResult, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BulkOperationResult), args.Error(1)
}

func (m *MockImportExportService) ImportXLSX(ctx context.Context, r io.Reader) (*models.BulkOperationResult, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BulkOperationResult), args.Error(1)
}

func (m *MockImportExportService) ExportCSV(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	_, _ = io.WriteString(w, "sku,name\n")
	return args.Error(0)
}

func (m *MockImportExportService) ExportXLSX(ctx context.Context, w io.Writer) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockImportExportService) PublishExport(ctx context.Context, format string) (*models.ExportLink, error) {
	args := m.Called(ctx, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExportLink), args.Error(1)
}

type pingStub struct{ err error }

func (p pingStub) Ping(ctx context.Context) error { return p.err }

type HandlersTestSuite struct {
	suite.Suite
	e         *echo.Echo
	items     *MockInventoryService
	movements *MockMovementService
	orders    *MockPurchaseOrderService
	bulk      *MockImportExportService
}

func (suite *HandlersTestSuite) SetupTest() {
	suite.items = &MockInventoryService{}
	suite.movements = &MockMovementService{}
	suite.orders = &MockPurchaseOrderService{}
	suite.bulk = &MockImportExportService{}

	suite.e = echo.New()
	r := &Router{
		Inventory:      NewInventoryHandlers(suite.items, suite.movements, nil),
		PurchaseOrders: NewPurchaseOrderHandlers(suite.orders),
		ImportExport:   NewImportExportHandlers(suite.bulk),
		Suppliers:      NewSupplierHandlers(nil),
		Locations:      NewLocationHandlers(nil),
		Analytics:      NewAnalyticsHandlers(nil),
	}
	r.Register(suite.e.Group("/v1"), func(next echo.HandlerFunc) echo.HandlerFunc { return next })
}

func (suite *HandlersTestSuite) TearDownTest() {
	suite.items.AssertExpectations(suite.T())
	suite.movements.AssertExpectations(suite.T())
	suite.orders.AssertExpectations(suite.T())
	suite.bulk.AssertExpectations(suite.T())
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (suite *HandlersTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	suite.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (suite *HandlersTestSuite) TestListItems_Defaults() {
	suite.items.On("ListItems", mock.Anything, 0, 100).Return([]models.InventoryItem{{Name: "Bolt"}}, nil).Once()

	rec := suite.do(http.MethodGet, "/v1/items", "")
	suite.Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Body.String(), "Bolt")
}

func (suite *HandlersTestSuite) TestListItems_BadSkip() {
	rec := suite.do(http.MethodGet, "/v1/items?skip=abc", "")
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("VALIDATION_ERROR", decodeError(suite.T(), rec).Error.Code)
}

func (suite *HandlersTestSuite) TestListItems_NegativeSkip() {
	suite.items.On("ListItems", mock.Anything, -1, 100).
		Return(nil, common.NewValidationError("skip", "cannot be negative")).Once()

	rec := suite.do(http.MethodGet, "/v1/items?skip=-1", "")
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("cannot be negative", decodeError(suite.T(), rec).Error.Details["skip"])
}

func (suite *HandlersTestSuite) TestCreateItem_Validation() {
	rec := suite.do(http.MethodPost, "/v1/items", `{"category":"tools"}`)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("is required", decodeError(suite.T(), rec).Error.Details["name"])
}

func (suite *HandlersTestSuite) TestCreateItem_Created() {
	id := uuid.New()
	suite.items.On("CreateItem", mock.Anything, mock.MatchedBy(func(in models.CreateItemInput) bool {
		return in.Name == "Hammer" && in.Quantity == 5 && in.Price.String() == "12.5"
	})).Return(&models.InventoryItem{ID: id, Name: "Hammer", Quantity: 5}, nil).Once()

	rec := suite.do(http.MethodPost, "/v1/items", `{"name":"Hammer","category":"tools","quantity":5,"price":"12.50"}`)
	suite.Equal(http.StatusCreated, rec.Code)
	suite.Contains(rec.Body.String(), id.String())
}

func (suite *HandlersTestSuite) TestCreateItem_DuplicateSKU() {
	suite.items.On("CreateItem", mock.Anything, mock.Anything).
		Return(nil, errors.Join(errors.New("failed to create item"), common.ErrConflict)).Once()

	rec := suite.do(http.MethodPost, "/v1/items", `{"name":"Hammer","category":"tools","sku":"H-1"}`)
	suite.Equal(http.StatusConflict, rec.Code)
}

func (suite *HandlersTestSuite) TestGetItem_InvalidID() {
	rec := suite.do(http.MethodGet, "/v1/items/not-a-uuid", "")
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *HandlersTestSuite) TestGetItem_NotFound() {
	id := uuid.New()
	suite.items.On("GetItem", mock.Anything, id).Return(nil, common.NewNotFound("item", id)).Once()

	rec := suite.do(http.MethodGet, "/v1/items/"+id.String(), "")
	suite.Equal(http.StatusNotFound, rec.Code)
	suite.Equal("NOT_FOUND", decodeError(suite.T(), rec).Error.Code)
}

func (suite *HandlersTestSuite) TestUpdateItem_QuantityPassesThrough() {
	id := uuid.New()
	suite.items.On("UpdateItem", mock.Anything, id, mock.MatchedBy(func(in models.UpdateItemInput) bool {
		return in.Quantity != nil && *in.Quantity == 7 && in.Name == nil
	})).Return(&models.InventoryItem{ID: id, Quantity: 7}, nil).Once()

	rec := suite.do(http.MethodPatch, "/v1/items/"+id.String(), `{"quantity":7}`)
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *HandlersTestSuite) TestDeleteItem() {
	id := uuid.New()
	suite.items.On("DeleteItem", mock.Anything, id).Return(nil).Once()

	rec := suite.do(http.MethodDelete, "/v1/items/"+id.String(), "")
	suite.Equal(http.StatusNoContent, rec.Code)
}

func (suite *HandlersTestSuite) TestCreateMovement_InsufficientStock() {
	id := uuid.New()
	suite.movements.On("ApplyMovement", mock.Anything, models.MovementRequest{
		ItemID:         id,
		QuantityChange: -10,
		MovementType:   models.MovementSold,
		Reason:         "sale",
	}).Return(nil, &common.InsufficientStockError{ItemID: id, Available: 3, Requested: -10}).Once()

	rec := suite.do(http.MethodPost, "/v1/items/"+id.String()+"/movements",
		`{"quantity_change":-10,"movement_type":"sold","reason":"sale"}`)
	suite.Equal(http.StatusConflict, rec.Code)
	resp := decodeError(suite.T(), rec)
	suite.Equal("INSUFFICIENT_STOCK", resp.Error.Code)
	suite.Equal("3", resp.Error.Details["available"])
}

func (suite *HandlersTestSuite) TestCreateMovement_MissingType() {
	id := uuid.New()
	rec := suite.do(http.MethodPost, "/v1/items/"+id.String()+"/movements", `{"quantity_change":2}`)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("is required", decodeError(suite.T(), rec).Error.Details["movement_type"])
}

func (suite *HandlersTestSuite) TestListMovements() {
	id := uuid.New()
	suite.movements.On("ListMovements", mock.Anything, id, 10, 5).Return([]models.StockMovement{}, nil).Once()

	rec := suite.do(http.MethodGet, "/v1/items/"+id.String()+"/movements?limit=10&offset=5", "")
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *HandlersTestSuite) TestUpdateStatus_InvalidTransition() {
	id := uuid.New()
	suite.orders.On("UpdateStatus", mock.Anything, id, models.POStatusApproved).
		Return(nil, &common.TransitionError{From: "draft", To: "approved"}).Once()

	rec := suite.do(http.MethodPut, "/v1/purchase-orders/"+id.String()+"/status", `{"status":"approved"}`)
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *HandlersTestSuite) TestUpdateStatus_UnknownStatus() {
	id := uuid.New()
	rec := suite.do(http.MethodPut, "/v1/purchase-orders/"+id.String()+"/status", `{"status":"lost"}`)
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *HandlersTestSuite) TestReceive() {
	id := uuid.New()
	suite.orders.On("Receive", mock.Anything, id).
		Return(&models.PurchaseOrder{ID: id, Status: models.POStatusReceived}, nil).Once()

	rec := suite.do(http.MethodPost, "/v1/purchase-orders/"+id.String()+"/receive", "")
	suite.Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Body.String(), `"status":"received"`)
}

func (suite *HandlersTestSuite) TestReceive_NotFound() {
	id := uuid.New()
	suite.orders.On("Receive", mock.Anything, id).Return(nil, common.NewNotFound("purchase order", id)).Once()

	rec := suite.do(http.MethodPost, "/v1/purchase-orders/"+id.String()+"/receive", "")
	suite.Equal(http.StatusNotFound, rec.Code)
}

func (suite *HandlersTestSuite) TestReceivePartial_RequiresLines() {
	id := uuid.New()
	rec := suite.do(http.MethodPost, "/v1/purchase-orders/"+id.String()+"/receive-partial", `{"items":[]}`)
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *HandlersTestSuite) TestListPurchaseOrders_StatusFilter() {
	status := models.POStatusOrdered
	suite.orders.On("List", mock.Anything, models.PurchaseOrderFilter{Status: &status, Limit: 20}).
		Return([]models.PurchaseOrder{}, nil).Once()

	rec := suite.do(http.MethodGet, "/v1/purchase-orders?status=ordered&limit=20", "")
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *HandlersTestSuite) TestImportItems_CSV() {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "items.csv")
	suite.Require().NoError(err)
	_, _ = part.Write([]byte("sku,name,category,quantity\nA-1,Bolt,hardware,4\n"))
	suite.Require().NoError(w.Close())

	suite.bulk.On("ImportCSV", mock.Anything, mock.Anything).
		Return(&models.BulkOperationResult{Status: models.BulkStatusCompleted, TotalItems: 1, ProcessedItems: 1}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/v1/items/import", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	suite.e.ServeHTTP(rec, req)

	suite.Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Body.String(), `"status":"completed"`)
}

func (suite *HandlersTestSuite) TestImportItems_MissingFile() {
	rec := suite.do(http.MethodPost, "/v1/items/import", "")
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *HandlersTestSuite) TestExportItems_CSV() {
	suite.bulk.On("ExportCSV", mock.Anything, mock.Anything).Return(nil).Once()

	rec := suite.do(http.MethodGet, "/v1/items/export", "")
	suite.Equal(http.StatusOK, rec.Code)
	suite.Equal("text/csv", rec.Header().Get(echo.HeaderContentType))
	suite.Contains(rec.Header().Get(echo.HeaderContentDisposition), "attachment")
	suite.Equal("sku,name\n", rec.Body.String())
}

func (suite *HandlersTestSuite) TestPublishExport_StorageDisabled() {
	suite.bulk.On("PublishExport", mock.Anything, "xlsx").Return(nil, services.ErrExportStorageDisabled).Once()

	rec := suite.do(http.MethodPost, "/v1/items/export/publish?format=xlsx", "")
	suite.Equal(http.StatusServiceUnavailable, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		db, cache  error
		wantCode   int
		wantStatus string
	}{
		{"all up", nil, nil, http.StatusOK, "healthy"},
		{"cache down", nil, errors.New("dial tcp: refused"), http.StatusOK, "degraded"},
		{"db down", errors.New("refused"), nil, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			RegisterHealth(e, NewHealthHandlers(pingStub{tt.db}, pingStub{tt.cache}, "test"))

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var status HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			assert.Equal(t, tt.wantStatus, status.Status)
		})
	}
}

func TestReadinessCheck_IgnoresCache(t *testing.T) {
	e := echo.New()
	RegisterHealth(e, NewHealthHandlers(pingStub{}, pingStub{errors.New("down")}, "test"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister_ProtectsOnlyMutations(t *testing.T) {
	items := &MockInventoryService{}
	items.On("ListItems", mock.Anything, 0, 100).Return([]models.InventoryItem{}, nil).Once()

	e := echo.New()
	r := &Router{
		Inventory:      NewInventoryHandlers(items, &MockMovementService{}, nil),
		PurchaseOrders: NewPurchaseOrderHandlers(&MockPurchaseOrderService{}),
		ImportExport:   NewImportExportHandlers(&MockImportExportService{}),
		Suppliers:      NewSupplierHandlers(nil),
		Locations:      NewLocationHandlers(nil),
		Analytics:      NewAnalyticsHandlers(nil),
	}
	deny := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "Invalid token", nil))
		}
	}
	r.Register(e.Group("/v1"), deny)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/v1/items", http.StatusOK},
		{http.MethodPost, "/v1/items", http.StatusUnauthorized},
		{http.MethodDelete, "/v1/items/" + uuid.NewString(), http.StatusUnauthorized},
		{http.MethodPost, "/v1/purchase-orders/" + uuid.NewString() + "/receive", http.StatusUnauthorized},
		{http.MethodGet, "/v1/no-such-route", http.StatusNotFound},
		{http.MethodPost, "/v1/no-such-route", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	items.AssertExpectations(t)
}
