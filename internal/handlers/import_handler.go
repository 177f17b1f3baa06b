package handlers

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/directoryhq/userdir/internal/config"
	"github.com/directoryhq/userdir/internal/media"
	"github.com/directoryhq/userdir/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ImportHandler struct {
	imports *services.ImportService
	store   *media.Store
	cfg     *config.Config
}

func NewImportHandler(imports *services.ImportService, store *media.Store, cfg *config.Config) *ImportHandler {
	return &ImportHandler{imports: imports, store: store, cfg: cfg}
}

var spreadsheetTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel":                                          true,
}

// Upload receives one spreadsheet file, parks it under the excel
// staging dir and runs the import pipeline. The parked file is deleted
// after processing regardless of outcome.
func (h *ImportHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("spreadsheet")
	if err != nil {
		return badRequest(c, "No spreadsheet uploaded. Please upload a .xlsx or .xls file")
	}
	if fh.Size > h.cfg.MaxSpreadsheetSize {
		return badRequest(c, fmt.Sprintf("File too large. Maximum size is %d bytes for spreadsheets", h.cfg.MaxSpreadsheetSize))
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if (ext != ".xlsx" && ext != ".xls") || !spreadsheetTypes[fh.Header.Get("Content-Type")] {
		return badRequest(c, "Only spreadsheet files (.xlsx, .xls) are allowed")
	}

	suffix := fmt.Sprintf("%d-%d", time.Now().UnixMilli(), rand.Int63n(1_000_000_000))
	path := filepath.Join(h.store.ExcelDir(), "users_bulk_"+suffix+ext)
	if err := c.SaveFile(fh, path); err != nil {
		return serviceError(c, err)
	}

	result, err := h.imports.ImportFile(path, fh.Filename)
	if err != nil {
		return serviceError(c, err)
	}

	status := fiber.StatusCreated
	switch {
	case result.Summary.Successful == 0:
		status = fiber.StatusBadRequest
	case result.Summary.Failed > 0:
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(result)
}
