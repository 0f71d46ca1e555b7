package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"
	"github.com/Arielpetit/UDM/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type PurchaseOrderService interface {
	Create(ctx context.Context, in models.CreatePurchaseOrderInput) (*models.PurchaseOrder, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, filter models.PurchaseOrderFilter) ([]models.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to models.PurchaseOrderStatus) (*models.PurchaseOrder, error)
	Receive(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	ReceivePartial(ctx context.Context, id uuid.UUID, receipts []models.LineReceipt) (*models.PurchaseOrder, error)
}

// manualTransitions lists the status changes a caller may request directly.
// received and partially_received are only set by receiving.
var manualTransitions = map[models.PurchaseOrderStatus][]models.PurchaseOrderStatus{
	models.POStatusDraft:             {models.POStatusPending, models.POStatusCancelled},
	models.POStatusPending:           {models.POStatusApproved, models.POStatusCancelled},
	models.POStatusApproved:          {models.POStatusOrdered, models.POStatusCancelled},
	models.POStatusOrdered:           {models.POStatusCancelled},
	models.POStatusPartiallyReceived: {models.POStatusCancelled},
}

var receivableStatuses = map[models.PurchaseOrderStatus]bool{
	models.POStatusApproved:          true,
	models.POStatusOrdered:           true,
	models.POStatusPartiallyReceived: true,
}

const orderNumberAttempts = 3

type purchaseOrderService struct {
	db     repositories.DBTX
	tx     repositories.TxRunner
	engine *MovementEngine
	log    zerolog.Logger
	now    func() time.Time
}

func NewPurchaseOrderService(pool repositories.Pool, engine *MovementEngine, log zerolog.Logger) PurchaseOrderService {
	return &purchaseOrderService{
		db:     pool,
		tx:     repositories.NewTxRunner(pool),
		engine: engine,
		log:    log.With().Str("component", "purchase_order_service").Logger(),
		now:    time.Now,
	}
}

// GenerateOrderNumber returns PO-<YYYYMMDD>-<6 uppercase hex chars>.
func GenerateOrderNumber(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("PO-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(id[:3])))
}

func (s *purchaseOrderService) Create(ctx context.Context, in models.CreatePurchaseOrderInput) (*models.PurchaseOrder, error) {
	if in.SupplierID == uuid.Nil {
		return nil, common.NewValidationError("supplier_id", "is required")
	}
	if len(in.Items) == 0 {
		return nil, common.NewValidationError("items", "at least one line is required")
	}

	po := &models.PurchaseOrder{
		ID:               uuid.New(),
		SupplierID:       in.SupplierID,
		Status:           models.POStatusDraft,
		Notes:            in.Notes,
		ExpectedDelivery: in.ExpectedDelivery,
		TotalAmount:      decimal.Zero,
	}
	for i, line := range in.Items {
		if line.ItemID == uuid.Nil {
			return nil, &common.ValidationError{Row: i + 1, Field: "item_id", Message: "is required"}
		}
		if line.Quantity <= 0 {
			return nil, &common.ValidationError{Row: i + 1, Field: "quantity", Message: "must be positive"}
		}
		if line.UnitPrice.IsNegative() {
			return nil, &common.ValidationError{Row: i + 1, Field: "unit_price", Message: "cannot be negative"}
		}
		po.Items = append(po.Items, models.PurchaseOrderItem{
			ID:              uuid.New(),
			PurchaseOrderID: po.ID,
			ItemID:          line.ItemID,
			QuantityOrdered: line.Quantity,
			UnitPrice:       line.UnitPrice,
		})
		po.TotalAmount = po.TotalAmount.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		po.OrderNumber = GenerateOrderNumber(s.now())
		err = s.tx.WithinTx(ctx, func(q repositories.DBTX) error {
			if _, err := repositories.NewSupplierRepository(q).GetByID(ctx, po.SupplierID); err != nil {
				return err
			}
			items := repositories.NewItemRepository(q)
			for _, line := range po.Items {
				if _, err := items.GetByID(ctx, line.ItemID); err != nil {
					return err
				}
			}
			return repositories.NewPurchaseOrderRepository(q).Create(ctx, po)
		})
		if !errors.Is(err, common.ErrConflict) {
			break
		}
		s.log.Warn().Str("order_number", po.OrderNumber).Msg("order number collision, regenerating")
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("po_id", po.ID.String()).Str("order_number", po.OrderNumber).Msg("purchase order created")
	return po, nil
}

func (s *purchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	return loadPurchaseOrder(ctx, repositories.NewPurchaseOrderRepository(s.db), id)
}

func loadPurchaseOrder(ctx context.Context, repo repositories.PurchaseOrderRepository, id uuid.UUID) (*models.PurchaseOrder, error) {
	po, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	po.Items, err = repo.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return po, nil
}

func (s *purchaseOrderService) List(ctx context.Context, filter models.PurchaseOrderFilter) ([]models.PurchaseOrder, error) {
	limit, offset, err := common.ValidatePaginationParams(filter.Limit, filter.Offset, 50, 500, "offset")
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = limit, offset
	return repositories.NewPurchaseOrderRepository(s.db).List(ctx, filter)
}

func canTransition(from, to models.PurchaseOrderStatus) bool {
	for _, allowed := range manualTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *purchaseOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, to models.PurchaseOrderStatus) (*models.PurchaseOrder, error) {
	err := s.tx.WithinTx(ctx, func(q repositories.DBTX) error {
		repo := repositories.NewPurchaseOrderRepository(q)
		po, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !canTransition(po.Status, to) {
			return &common.TransitionError{From: string(po.Status), To: string(to)}
		}
		return repo.UpdateStatus(ctx, id, to, nil)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("po_id", id.String()).Str("status", string(to)).Msg("purchase order status changed")
	return s.GetByID(ctx, id)
}

// Receive books every line's outstanding quantity and marks the order received.
func (s *purchaseOrderService) Receive(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	return s.receive(ctx, id, func(lines []models.PurchaseOrderItem) (map[uuid.UUID]int, error) {
		quantities := make(map[uuid.UUID]int, len(lines))
		for _, line := range lines {
			if line.Outstanding() > 0 {
				quantities[line.ID] = line.Outstanding()
			}
		}
		return quantities, nil
	})
}

// ReceivePartial books the given quantities against individual lines.
func (s *purchaseOrderService) ReceivePartial(ctx context.Context, id uuid.UUID, receipts []models.LineReceipt) (*models.PurchaseOrder, error) {
	if len(receipts) == 0 {
		return nil, common.NewValidationError("items", "at least one receipt is required")
	}
	for i, r := range receipts {
		if r.Quantity <= 0 {
			return nil, &common.ValidationError{Row: i + 1, Field: "quantity", Message: "must be positive"}
		}
	}

	return s.receive(ctx, id, func(lines []models.PurchaseOrderItem) (map[uuid.UUID]int, error) {
		byID := make(map[uuid.UUID]models.PurchaseOrderItem, len(lines))
		for _, line := range lines {
			byID[line.ID] = line
		}
		quantities := make(map[uuid.UUID]int, len(receipts))
		for i, r := range receipts {
			line, ok := byID[r.LineID]
			if !ok {
				return nil, &common.ValidationError{Row: i + 1, Field: "line_id", Message: "line does not belong to this order"}
			}
			quantities[r.LineID] += r.Quantity
			if quantities[r.LineID] > line.Outstanding() {
				return nil, &common.ValidationError{
					Row:     i + 1,
					Field:   "quantity",
					Message: fmt.Sprintf("exceeds outstanding quantity %d", line.Outstanding()),
				}
			}
		}
		return quantities, nil
	})
}

// receive runs one receipt as a single transaction: order row lock, one
// movement per touched line in item order, line updates and the status
// change. Caches are invalidated once, after commit.
func (s *purchaseOrderService) receive(ctx context.Context, id uuid.UUID, plan func([]models.PurchaseOrderItem) (map[uuid.UUID]int, error)) (*models.PurchaseOrder, error) {
	var (
		movements []*models.StockMovement
		status    models.PurchaseOrderStatus
	)
	err := s.tx.WithinTx(ctx, func(q repositories.DBTX) error {
		movements = nil
		repo := repositories.NewPurchaseOrderRepository(q)
		po, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !receivableStatuses[po.Status] {
			return &common.TransitionError{From: string(po.Status), To: string(models.POStatusReceived)}
		}

		lines, err := repo.ListItems(ctx, id)
		if err != nil {
			return err
		}
		quantities, err := plan(lines)
		if err != nil {
			return err
		}

		// A fixed lock order keeps concurrent receipts sharing items from deadlocking.
		sort.Slice(lines, func(i, j int) bool {
			if lines[i].ItemID == lines[j].ItemID {
				return lines[i].ID.String() < lines[j].ID.String()
			}
			return lines[i].ItemID.String() < lines[j].ItemID.String()
		})

		complete := true
		reference := po.OrderNumber
		for _, line := range lines {
			qty := quantities[line.ID]
			if qty > 0 {
				movement, err := s.engine.apply(ctx, q, models.MovementRequest{
					ItemID:          line.ItemID,
					QuantityChange:  qty,
					MovementType:    models.MovementReceived,
					Reason:          "Received from purchase order " + po.OrderNumber,
					ReferenceNumber: &reference,
				})
				if err != nil {
					return err
				}
				movements = append(movements, movement)
				if err := repo.SetLineReceived(ctx, line.ID, line.QuantityReceived+qty); err != nil {
					return err
				}
			}
			if line.QuantityReceived+qty < line.QuantityOrdered {
				complete = false
			}
		}

		status = models.POStatusPartiallyReceived
		var receivedAt *time.Time
		if complete {
			status = models.POStatusReceived
			now := s.now().UTC()
			receivedAt = &now
		}
		return repo.UpdateStatus(ctx, id, status, receivedAt)
	})
	if err != nil {
		return nil, err
	}

	s.engine.committed(ctx, movements...)
	purchaseOrdersReceived.WithLabelValues(string(status)).Inc()
	s.log.Info().
		Str("po_id", id.String()).
		Str("status", string(status)).
		Int("lines", len(movements)).
		Msg("purchase order received")
	return s.GetByID(ctx, id)
}
