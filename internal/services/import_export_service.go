package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"
	"github.com/Arielpetit/UDM/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ImportAdjustmentReason = "CSV import"
	exportLinkExpiry       = 24 * time.Hour

	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ItemColumns is the header shared by imports and exports.
var ItemColumns = []string{"sku", "name", "description", "quantity", "price", "cost_price", "category", "reorder_level"}

var ErrExportStorageDisabled = errors.New("export storage is not configured")

type ImportExportService interface {
	ImportCSV(ctx context.Context, r io.Reader) (*models.BulkOperationResult, error)
	ImportXLSX(ctx context.Context, r io.Reader) (*models.BulkOperationResult, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	ExportXLSX(ctx context.Context, w io.Writer) error
	PublishExport(ctx context.Context, format string) (*models.ExportLink, error)
}

type importExportService struct {
	db        repositories.DBTX
	items     *inventoryService
	store     ObjectStore
	maxErrors int
	log       zerolog.Logger
	now       func() time.Time
}

// NewImportExportService wires bulk item transfer. store may be nil, which
// disables PublishExport.
func NewImportExportService(items *inventoryService, store ObjectStore, maxErrors int, log zerolog.Logger) ImportExportService {
	if maxErrors <= 0 {
		maxErrors = 50
	}
	return &importExportService{
		db:        items.db,
		items:     items,
		store:     store,
		maxErrors: maxErrors,
		log:       log.With().Str("component", "import_export").Logger(),
		now:       time.Now,
	}
}

func (s *importExportService) ImportCSV(ctx context.Context, r io.Reader) (*models.BulkOperationResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, &common.ValidationError{Field: "file", Message: fmt.Sprintf("unreadable CSV: %v", err)}
	}
	return s.importRecords(ctx, records)
}

func (s *importExportService) ImportXLSX(ctx context.Context, r io.Reader) (*models.BulkOperationResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &common.ValidationError{Field: "file", Message: fmt.Sprintf("unreadable XLSX: %v", err)}
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &common.ValidationError{Field: "file", Message: fmt.Sprintf("unreadable sheet %q: %v", sheet, err)}
	}
	return s.importRecords(ctx, rows)
}

// importRow is one parsed data row. Nil pointers are cells left blank.
type importRow struct {
	sku          *string
	name         *string
	description  *string
	quantity     *int
	price        *decimal.Decimal
	costPrice    *decimal.Decimal
	category     *string
	reorderLevel *int
}

// importRecords applies each data row as its own transaction. Row failures
// are collected; only header problems fail the whole import.
func (s *importExportService) importRecords(ctx context.Context, records [][]string) (*models.BulkOperationResult, error) {
	if len(records) == 0 {
		return nil, common.NewValidationError("file", "file is empty")
	}
	columns, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}

	opID := uuid.New().String()
	reference := "IMPORT-" + strings.ToUpper(opID[:8])
	result := &models.BulkOperationResult{OperationID: opID, StartTime: s.now().UTC()}

	var movements []*models.StockMovement
	for i, record := range records[1:] {
		if blankRecord(record) {
			continue
		}
		rowNum := i + 1
		result.TotalItems++

		row, err := parseImportRow(record, columns, rowNum)
		if err != nil {
			result.RecordFailure(rowNum, "", err, s.maxErrors)
			result.Items = append(result.Items, failedItem(rowNum, "", err))
			continue
		}

		itemID, status, movement, err := s.importRow(ctx, row, reference)
		if err != nil {
			err = withRow(err, rowNum)
			result.RecordFailure(rowNum, itemID, err, s.maxErrors)
			result.Items = append(result.Items, failedItem(rowNum, itemID, err))
			continue
		}
		if movement != nil {
			movements = append(movements, movement)
		}
		result.ProcessedItems++
		result.Items = append(result.Items, models.BulkOperationItem{ItemIndex: rowNum, ItemID: itemID, Status: status})
	}

	if result.ProcessedItems > 0 {
		s.items.engine.observe(movements...)
		s.items.cache.InvalidateItemLists(ctx)
	}
	result.Finish(s.now().UTC())

	s.log.Info().
		Str("operation_id", opID).
		Int("total", result.TotalItems).
		Int("processed", result.ProcessedItems).
		Int("failed", result.FailedItems).
		Msg("item import finished")
	return result, nil
}

func (s *importExportService) importRow(ctx context.Context, row importRow, reference string) (string, string, *models.StockMovement, error) {
	if row.sku != nil {
		existing, err := repositories.NewItemRepository(s.db).GetBySKU(ctx, *row.sku)
		switch {
		case err == nil:
			note := ImportAdjustmentReason
			movement, err := s.items.updateItem(ctx, existing.ID, models.UpdateItemInput{
				Name:           row.name,
				Description:    row.description,
				Quantity:       row.quantity,
				Price:          row.price,
				CostPrice:      row.costPrice,
				Category:       row.category,
				ReorderLevel:   row.reorderLevel,
				AdjustmentNote: &note,
			}, &reference)
			return existing.ID.String(), "updated", movement, err
		case !errors.Is(err, common.ErrNotFound):
			return "", "", nil, err
		}
	}

	in := models.CreateItemInput{SKU: row.sku, Description: row.description}
	if row.name != nil {
		in.Name = *row.name
	}
	if row.category != nil {
		in.Category = *row.category
	}
	if row.quantity != nil {
		in.Quantity = *row.quantity
	}
	if row.price != nil {
		in.Price = *row.price
	}
	if row.costPrice != nil {
		in.CostPrice = *row.costPrice
	}
	if row.reorderLevel != nil {
		in.ReorderLevel = *row.reorderLevel
	}
	item, movement, err := s.items.createItem(ctx, in)
	if err != nil {
		return "", "", nil, err
	}
	return item.ID.String(), "created", movement, nil
}

func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if name != "" {
			columns[name] = i
		}
	}
	if _, ok := columns["name"]; !ok {
		return nil, common.NewValidationError("header", "missing required column 'name'")
	}
	return columns, nil
}

func parseImportRow(record []string, columns map[string]int, rowNum int) (importRow, error) {
	cell := func(name string) *string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return nil
		}
		v := strings.TrimSpace(record[idx])
		if v == "" {
			return nil
		}
		return &v
	}
	intCell := func(name string) (*int, error) {
		v := cell(name)
		if v == nil {
			return nil, nil
		}
		n, err := strconv.Atoi(*v)
		if err != nil {
			return nil, &common.ValidationError{Row: rowNum, Field: name, Message: fmt.Sprintf("'%s' is not a whole number", *v)}
		}
		return &n, nil
	}
	decimalCell := func(name string) (*decimal.Decimal, error) {
		v := cell(name)
		if v == nil {
			return nil, nil
		}
		d, err := decimal.NewFromString(*v)
		if err != nil {
			return nil, &common.ValidationError{Row: rowNum, Field: name, Message: fmt.Sprintf("'%s' is not a number", *v)}
		}
		return &d, nil
	}

	row := importRow{
		sku:         cell("sku"),
		name:        cell("name"),
		description: cell("description"),
		category:    cell("category"),
	}
	var err error
	if row.quantity, err = intCell("quantity"); err != nil {
		return row, err
	}
	if row.reorderLevel, err = intCell("reorder_level"); err != nil {
		return row, err
	}
	if row.price, err = decimalCell("price"); err != nil {
		return row, err
	}
	if row.costPrice, err = decimalCell("cost_price"); err != nil {
		return row, err
	}
	return row, nil
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func withRow(err error, row int) error {
	var ve *common.ValidationError
	if errors.As(err, &ve) && ve.Row == 0 {
		return &common.ValidationError{Row: row, Field: ve.Field, Message: ve.Message}
	}
	return err
}

func failedItem(row int, itemID string, err error) models.BulkOperationItem {
	msg := err.Error()
	return models.BulkOperationItem{ItemIndex: row, ItemID: itemID, Status: "failed", Error: &msg}
}

func itemRecord(item models.InventoryItem) []string {
	return []string{
		common.SafeString(item.SKU),
		item.Name,
		common.SafeString(item.Description),
		strconv.Itoa(item.Quantity),
		item.Price.StringFixed(2),
		item.CostPrice.StringFixed(2),
		item.Category,
		strconv.Itoa(item.ReorderLevel),
	}
}

func (s *importExportService) ExportCSV(ctx context.Context, w io.Writer) error {
	items, err := repositories.NewItemRepository(s.db).ListAll(ctx)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(ItemColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, item := range items {
		if err := writer.Write(itemRecord(item)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (s *importExportService) ExportXLSX(ctx context.Context, w io.Writer) error {
	items, err := repositories.NewItemRepository(s.db).ListAll(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	header := make([]interface{}, len(ItemColumns))
	for i, c := range ItemColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write XLSX header: %w", err)
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		price, _ := item.Price.Float64()
		costPrice, _ := item.CostPrice.Float64()
		row := []interface{}{
			common.SafeString(item.SKU),
			item.Name,
			common.SafeString(item.Description),
			item.Quantity,
			price,
			costPrice,
			item.Category,
			item.ReorderLevel,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write XLSX row: %w", err)
		}
	}
	return f.Write(w)
}

// PublishExport renders the item list, uploads it and returns a time-limited download link.
func (s *importExportService) PublishExport(ctx context.Context, format string) (*models.ExportLink, error) {
	if s.store == nil {
		return nil, ErrExportStorageDisabled
	}

	var (
		buf         bytes.Buffer
		contentType string
		err         error
	)
	switch strings.ToLower(format) {
	case FormatCSV:
		contentType = contentTypeCSV
		err = s.ExportCSV(ctx, &buf)
	case FormatXLSX:
		contentType = contentTypeXLSX
		err = s.ExportXLSX(ctx, &buf)
	default:
		return nil, common.NewValidationError("format", fmt.Sprintf("unsupported export format '%s'", format))
	}
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	objectName := fmt.Sprintf("exports/items-%s.%s", now.Format("20060102T150405Z"), strings.ToLower(format))
	if err := s.store.Upload(ctx, objectName, contentType, &buf, int64(buf.Len())); err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}
	url, err := s.store.GetPresignedURL(ctx, objectName, exportLinkExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign export link: %w", err)
	}

	s.log.Info().Str("object", objectName).Msg("export published")
	return &models.ExportLink{
		ObjectName: objectName,
		Format:     strings.ToLower(format),
		URL:        url,
		ExpiresAt:  now.Add(exportLinkExpiry),
	}, nil
}
