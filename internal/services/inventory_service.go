package services

import (
	"context"
	"strings"

	"github.com/Arielpetit/UDM/internal/caching"
	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"
	"github.com/Arielpetit/UDM/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	DefaultItemListLimit = 100
	MaxItemListLimit     = 1000
)

type InventoryService interface {
	CreateItem(ctx context.Context, in models.CreateItemInput) (*models.InventoryItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ListItems(ctx context.Context, skip, limit int) ([]models.InventoryItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, in models.UpdateItemInput) (*models.InventoryItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

type inventoryService struct {
	db     repositories.DBTX
	tx     repositories.TxRunner
	engine *MovementEngine
	cache  *caching.ListCache
	log    zerolog.Logger
}

func NewInventoryService(pool repositories.Pool, engine *MovementEngine, cache *caching.ListCache, log zerolog.Logger) *inventoryService {
	return &inventoryService{
		db:     pool,
		tx:     repositories.NewTxRunner(pool),
		engine: engine,
		cache:  cache,
		log:    log.With().Str("component", "inventory_service").Logger(),
	}
}

func (s *inventoryService) CreateItem(ctx context.Context, in models.CreateItemInput) (*models.InventoryItem, error) {
	item, initial, err := s.createItem(ctx, in)
	if err != nil {
		return nil, err
	}
	s.engine.committed(ctx, initial)
	return s.GetItem(ctx, item.ID)
}

// createItem inserts the item at zero and books any starting quantity as the
// initial stock movement, in one transaction. Post-commit effects are left
// to the caller.
func (s *inventoryService) createItem(ctx context.Context, in models.CreateItemInput) (*models.InventoryItem, *models.StockMovement, error) {
	item := &models.InventoryItem{
		ID:           uuid.New(),
		SKU:          normalizeSKU(in.SKU),
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Price:        in.Price,
		CostPrice:    in.CostPrice,
		Category:     strings.TrimSpace(in.Category),
		ReorderLevel: in.ReorderLevel,
		SupplierID:   in.SupplierID,
	}
	if err := validateItem(item); err != nil {
		return nil, nil, err
	}
	if in.Quantity < 0 {
		return nil, nil, common.NewValidationError("quantity", "cannot be negative")
	}

	var initial *models.StockMovement
	err := s.tx.WithinTx(ctx, func(q repositories.DBTX) error {
		if item.SupplierID != nil {
			if _, err := repositories.NewSupplierRepository(q).GetByID(ctx, *item.SupplierID); err != nil {
				return err
			}
		}
		if err := repositories.NewItemRepository(q).Create(ctx, item); err != nil {
			return err
		}
		if in.Quantity > 0 {
			var err error
			initial, err = s.engine.recordInitialStock(ctx, q, item.ID, in.Quantity)
			if err != nil {
				return err
			}
			item.Quantity = initial.QuantityAfter
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Str("item_id", item.ID.String()).Int("quantity", item.Quantity).Msg("item created")
	return item, initial, nil
}

func (s *inventoryService) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	return repositories.NewItemRepository(s.db).GetByID(ctx, id)
}

// ListItems serves item pages through the list cache.
func (s *inventoryService) ListItems(ctx context.Context, skip, limit int) ([]models.InventoryItem, error) {
	limit, skip, err := common.ValidatePaginationParams(limit, skip, DefaultItemListLimit, MaxItemListLimit, "skip")
	if err != nil {
		return nil, err
	}

	page, err := caching.GetOrLoad(ctx, s.cache, caching.ItemListKey(skip, limit), func(ctx context.Context) (models.ItemPage, error) {
		items, err := repositories.NewItemRepository(s.db).List(ctx, limit, skip)
		if err != nil {
			return models.ItemPage{}, err
		}
		return models.ItemPage{Items: items, Skip: skip, Limit: limit}, nil
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, id uuid.UUID, in models.UpdateItemInput) (*models.InventoryItem, error) {
	movement, err := s.updateItem(ctx, id, in, nil)
	if err != nil {
		return nil, err
	}
	s.engine.committed(ctx, movement)
	return s.GetItem(ctx, id)
}

// updateItem edits fields and, when the patch carries a quantity, records
// the difference through the movement engine in the same transaction.
// The returned movement is nil when quantity did not change.
func (s *inventoryService) updateItem(ctx context.Context, id uuid.UUID, in models.UpdateItemInput, reference *string) (*models.StockMovement, error) {
	if in.Quantity != nil && *in.Quantity < 0 {
		return nil, common.NewValidationError("quantity", "cannot be negative")
	}

	var movement *models.StockMovement
	err := s.tx.WithinTx(ctx, func(q repositories.DBTX) error {
		items := repositories.NewItemRepository(q)
		item, err := items.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if applyItemPatch(item, in) {
			if err := validateItem(item); err != nil {
				return err
			}
			if in.SupplierID != nil {
				if _, err := repositories.NewSupplierRepository(q).GetByID(ctx, *in.SupplierID); err != nil {
					return err
				}
			}
			if err := items.UpdateFields(ctx, item); err != nil {
				return err
			}
		}

		if in.Quantity != nil {
			movement, err = s.engine.adjust(ctx, q, id, *in.Quantity, common.SafeString(in.AdjustmentNote), reference)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return movement, nil
}

func (s *inventoryService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := repositories.NewItemRepository(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateItemLists(ctx)
	s.log.Info().Str("item_id", id.String()).Msg("item deleted")
	return nil
}

// applyItemPatch copies non-nil, non-quantity fields and reports whether any changed.
func applyItemPatch(item *models.InventoryItem, in models.UpdateItemInput) bool {
	changed := false
	if in.SKU != nil {
		item.SKU = normalizeSKU(in.SKU)
		changed = true
	}
	if in.Name != nil {
		item.Name = strings.TrimSpace(*in.Name)
		changed = true
	}
	if in.Description != nil {
		item.Description = in.Description
		changed = true
	}
	if in.Price != nil {
		item.Price = *in.Price
		changed = true
	}
	if in.CostPrice != nil {
		item.CostPrice = *in.CostPrice
		changed = true
	}
	if in.Category != nil {
		item.Category = strings.TrimSpace(*in.Category)
		changed = true
	}
	if in.ReorderLevel != nil {
		item.ReorderLevel = *in.ReorderLevel
		changed = true
	}
	if in.SupplierID != nil {
		item.SupplierID = in.SupplierID
		changed = true
	}
	return changed
}

func validateItem(item *models.InventoryItem) error {
	switch {
	case item.Name == "":
		return common.NewValidationError("name", "is required")
	case item.Category == "":
		return common.NewValidationError("category", "is required")
	case item.Price.LessThan(decimal.Zero):
		return common.NewValidationError("price", "cannot be negative")
	case item.CostPrice.LessThan(decimal.Zero):
		return common.NewValidationError("cost_price", "cannot be negative")
	case item.ReorderLevel < 0:
		return common.NewValidationError("reorder_level", "cannot be negative")
	}
	return nil
}

// normalizeSKU trims the SKU; blank becomes absent.
func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sku)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
