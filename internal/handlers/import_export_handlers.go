package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/services"

	"github.com/labstack/echo/v4"
)

const maxImportBytes = 10 << 20

type ImportExportHandlers struct {
	bulk services.ImportExportService
}

func NewImportExportHandlers(bulk services.ImportExportService) *ImportExportHandlers {
	return &ImportExportHandlers{bulk: bulk}
}

// ImportItems accepts a multipart "file" field holding CSV or XLSX.
// The format comes from ?format= or the file extension.
func (h *ImportExportHandlers) ImportItems(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return common.SendError(c, common.NewValidationError("file", "a file upload is required"))
	}
	if fh.Size > maxImportBytes {
		return common.SendError(c, common.NewValidationError("file", "file exceeds 10MB"))
	}

	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(fh.Filename)), ".")
	}

	f, err := fh.Open()
	if err != nil {
		return common.SendError(c, common.NewValidationError("file", "upload could not be read"))
	}
	defer f.Close()

	ctx := c.Request().Context()
	switch format {
	case services.FormatCSV:
		result, err := h.bulk.ImportCSV(ctx, f)
		if err != nil {
			return common.SendError(c, err)
		}
		return c.JSON(http.StatusOK, result)
	case services.FormatXLSX:
		result, err := h.bulk.ImportXLSX(ctx, f)
		if err != nil {
			return common.SendError(c, err)
		}
		return c.JSON(http.StatusOK, result)
	default:
		return common.SendError(c, common.NewValidationError("format", fmt.Sprintf("unsupported import format '%s'", format)))
	}
}

// ExportItems streams every item as CSV (default) or XLSX.
func (h *ImportExportHandlers) ExportItems(c echo.Context) error {
	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = services.FormatCSV
	}

	filename := fmt.Sprintf("items-%s.%s", time.Now().UTC().Format("20060102"), format)
	res := c.Response()
	ctx := c.Request().Context()
	switch format {
	case services.FormatCSV:
		res.Header().Set(echo.HeaderContentType, "text/csv")
		res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
		res.WriteHeader(http.StatusOK)
		return h.bulk.ExportCSV(ctx, res)
	case services.FormatXLSX:
		res.Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
		res.WriteHeader(http.StatusOK)
		return h.bulk.ExportXLSX(ctx, res)
	default:
		return common.SendError(c, common.NewValidationError("format", fmt.Sprintf("unsupported export format '%s'", format)))
	}
}

// PublishExport uploads an export to object storage and returns a download link.
func (h *ImportExportHandlers) PublishExport(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = services.FormatCSV
	}

	link, err := h.bulk.PublishExport(c.Request().Context(), format)
	if errors.Is(err, services.ErrExportStorageDisabled) {
		return c.JSON(http.StatusServiceUnavailable, common.CreateErrorResponse("STORAGE_DISABLED", err.Error(), nil))
	}
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, link)
}
