package services

import (
	"context"
	"fmt"

	"github.com/Arielpetit/UDM/internal/caching"
	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"
	"github.com/Arielpetit/UDM/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	InitialStockReason     = "Initial stock"
	ManualAdjustmentReason = "Manual adjustment"
)

// MovementService is the only way an item's quantity changes.
type MovementService interface {
	ApplyMovement(ctx context.Context, req models.MovementRequest) (*models.StockMovement, error)
	RecordInitialStock(ctx context.Context, itemID uuid.UUID, quantity int) (*models.StockMovement, error)
	AdjustViaUpdate(ctx context.Context, itemID uuid.UUID, newQuantity int, reason string) (*models.StockMovement, error)
	ListMovements(ctx context.Context, itemID uuid.UUID, limit, offset int) ([]models.StockMovement, error)
}

// MovementEngine applies each quantity change and its audit record in one
// store transaction, holding the item row lock from read to write. Cache
// invalidation runs only after commit.
type MovementEngine struct {
	db    repositories.DBTX
	tx    repositories.TxRunner
	cache *caching.ListCache
	log   zerolog.Logger
}

func NewMovementEngine(pool repositories.Pool, cache *caching.ListCache, log zerolog.Logger) *MovementEngine {
	return &MovementEngine{
		db:    pool,
		tx:    repositories.NewTxRunner(pool),
		cache: cache,
		log:   log.With().Str("component", "movement_engine").Logger(),
	}
}

func (e *MovementEngine) ApplyMovement(ctx context.Context, req models.MovementRequest) (*models.StockMovement, error) {
	if err := validateMovementRequest(req); err != nil {
		return nil, err
	}

	var movement *models.StockMovement
	err := e.tx.WithinTx(ctx, func(q repositories.DBTX) error {
		var err error
		movement, err = e.apply(ctx, q, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, movement)
	return movement, nil
}

// RecordInitialStock books the starting quantity of a freshly created item.
func (e *MovementEngine) RecordInitialStock(ctx context.Context, itemID uuid.UUID, quantity int) (*models.StockMovement, error) {
	var movement *models.StockMovement
	err := e.tx.WithinTx(ctx, func(q repositories.DBTX) error {
		var err error
		movement, err = e.recordInitialStock(ctx, q, itemID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, movement)
	return movement, nil
}

// AdjustViaUpdate sets the item to newQuantity by recording the difference as
// an adjustment. It returns nil, nil when the quantity is already newQuantity.
func (e *MovementEngine) AdjustViaUpdate(ctx context.Context, itemID uuid.UUID, newQuantity int, reason string) (*models.StockMovement, error) {
	var movement *models.StockMovement
	err := e.tx.WithinTx(ctx, func(q repositories.DBTX) error {
		var err error
		movement, err = e.adjust(ctx, q, itemID, newQuantity, reason, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	if movement != nil {
		e.committed(ctx, movement)
	}
	return movement, nil
}

func (e *MovementEngine) ListMovements(ctx context.Context, itemID uuid.UUID, limit, offset int) ([]models.StockMovement, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset, 50, 500, "offset")
	if err != nil {
		return nil, err
	}
	if _, err := repositories.NewItemRepository(e.db).GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return repositories.NewMovementRepository(e.db).ListByItem(ctx, itemID, limit, offset)
}

func validateMovementRequest(req models.MovementRequest) error {
	if req.ItemID == uuid.Nil {
		return common.NewValidationError("item_id", "is required")
	}
	if !req.MovementType.Valid() {
		return common.NewValidationError("movement_type", fmt.Sprintf("unknown movement type '%s'", req.MovementType))
	}
	if req.QuantityChange == 0 {
		return common.NewValidationError("quantity_change", "must not be zero")
	}
	return nil
}

// apply runs inside the caller's transaction. It locks the item row, checks
// the stock floor, writes the new quantity and appends the movement.
func (e *MovementEngine) apply(ctx context.Context, q repositories.DBTX, req models.MovementRequest) (*models.StockMovement, error) {
	item, err := repositories.NewItemRepository(q).GetForUpdate(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	return e.applyLocked(ctx, q, item, req)
}

// applyLocked expects item to be the row locked by the current transaction.
func (e *MovementEngine) applyLocked(ctx context.Context, q repositories.DBTX, item *models.InventoryItem, req models.MovementRequest) (*models.StockMovement, error) {
	before := item.Quantity
	after := before + req.QuantityChange
	if after < 0 {
		movementsRejected.WithLabelValues("insufficient_stock").Inc()
		return nil, &common.InsufficientStockError{ItemID: item.ID, Available: before, Requested: req.QuantityChange}
	}

	if err := repositories.NewItemRepository(q).SetQuantity(ctx, item.ID, after); err != nil {
		return nil, err
	}

	movement := &models.StockMovement{
		ID:              uuid.New(),
		ItemID:          item.ID,
		MovementType:    req.MovementType,
		QuantityChange:  req.QuantityChange,
		QuantityBefore:  before,
		QuantityAfter:   after,
		Reason:          req.Reason,
		ReferenceNumber: req.ReferenceNumber,
	}
	if subject, ok := common.SubjectFromContext(ctx); ok {
		movement.CreatedBy = &subject
	}
	if err := repositories.NewMovementRepository(q).Create(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

func (e *MovementEngine) recordInitialStock(ctx context.Context, q repositories.DBTX, itemID uuid.UUID, quantity int) (*models.StockMovement, error) {
	if quantity <= 0 {
		return nil, common.NewValidationError("quantity", "initial stock must be positive")
	}

	item, err := repositories.NewItemRepository(q).GetForUpdate(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Quantity != 0 {
		return nil, common.NewValidationError("quantity", "initial stock already recorded")
	}

	return e.applyLocked(ctx, q, item, models.MovementRequest{
		ItemID:         itemID,
		QuantityChange: quantity,
		MovementType:   models.MovementReceived,
		Reason:         InitialStockReason,
	})
}

// adjust derives the delta from the locked row, never from caller data.
func (e *MovementEngine) adjust(ctx context.Context, q repositories.DBTX, itemID uuid.UUID, newQuantity int, reason string, reference *string) (*models.StockMovement, error) {
	if newQuantity < 0 {
		return nil, common.NewValidationError("quantity", "cannot be negative")
	}
	if reason == "" {
		reason = ManualAdjustmentReason
	}

	item, err := repositories.NewItemRepository(q).GetForUpdate(ctx, itemID)
	if err != nil {
		return nil, err
	}
	delta := newQuantity - item.Quantity
	if delta == 0 {
		return nil, nil
	}

	return e.applyLocked(ctx, q, item, models.MovementRequest{
		ItemID:          itemID,
		QuantityChange:  delta,
		MovementType:    models.MovementAdjusted,
		Reason:          reason,
		ReferenceNumber: reference,
	})
}

// committed runs the post-commit side effects of one or more movements.
func (e *MovementEngine) committed(ctx context.Context, movements ...*models.StockMovement) {
	e.observe(movements...)
	e.cache.InvalidateItemLists(ctx)
}

// observe records metrics and logs for committed movements without touching
// the cache, for callers that invalidate once after a batch.
func (e *MovementEngine) observe(movements ...*models.StockMovement) {
	for _, m := range movements {
		if m == nil {
			continue
		}
		movementsApplied.WithLabelValues(string(m.MovementType)).Inc()
		e.log.Debug().
			Str("item_id", m.ItemID.String()).
			Str("type", string(m.MovementType)).
			Int("change", m.QuantityChange).
			Int("before", m.QuantityBefore).
			Int("after", m.QuantityAfter).
			Msg("stock movement applied")
	}
}
