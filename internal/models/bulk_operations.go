package models

import (
	"time"
)

const (
	BulkStatusCompleted = "completed"
	BulkStatusPartial   = "partial"
	BulkStatusFailed    = "failed"
)

// BulkOperationResult represents the result of a bulk operation
type BulkOperationResult struct {
	OperationID     string               `json:"operation_id"`
	Status          string               `json:"status"`
	TotalItems      int                  `json:"total_items"`
	ProcessedItems  int                  `json:"processed_items"`
	FailedItems     int                  `json:"failed_items"`
	Progress        float64              `json:"progress"`
	StartTime       time.Time            `json:"start_time"`
	CompletionTime  *time.Time           `json:"completion_time,omitempty"`
	Errors          []BulkOperationError `json:"errors,omitempty"`
	ErrorsTruncated bool                 `json:"errors_truncated,omitempty"` // more failures than reported
	Items           []BulkOperationItem  `json:"items,omitempty"`
}

// BulkOperationError represents an error for a specific row in a bulk operation
type BulkOperationError struct {
	ItemIndex int    `json:"item_index"` // 1-based data row
	ItemID    string `json:"item_id"`
	Error     string `json:"error"`
}

// BulkOperationItem represents the result for a specific row
type BulkOperationItem struct {
	ItemIndex int     `json:"item_index"`
	ItemID    string  `json:"item_id"`
	Status    string  `json:"status"` // "created", "updated", "unchanged", "failed"
	Error     *string `json:"error,omitempty"`
}

// RecordFailure counts a failed row and keeps its error while under maxErrors.
func (r *BulkOperationResult) RecordFailure(index int, itemID string, err error, maxErrors int) {
	r.FailedItems++
	if len(r.Errors) >= maxErrors {
		r.ErrorsTruncated = true
		return
	}
	r.Errors = append(r.Errors, BulkOperationError{ItemIndex: index, ItemID: itemID, Error: err.Error()})
}

// Finish stamps completion and derives status and progress.
func (r *BulkOperationResult) Finish(now time.Time) {
	r.CompletionTime = &now
	if r.TotalItems > 0 {
		r.Progress = float64(r.ProcessedItems+r.FailedItems) / float64(r.TotalItems) * 100
	} else {
		r.Progress = 100
	}
	switch {
	case r.FailedItems == 0:
		r.Status = BulkStatusCompleted
	case r.ProcessedItems == 0:
		r.Status = BulkStatusFailed
	default:
		r.Status = BulkStatusPartial
	}
}

// ExportLink points at an uploaded export file.
type ExportLink struct {
	ObjectName string    `json:"object_name"`
	Format     string    `json:"format"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}
