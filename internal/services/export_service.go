package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportService renders a user's entries in a date range to a downloadable
// file and records an audit row for each generated export. Free-plan
// accounts get a lifetime export ceiling counted from those audit rows.
type ExportService struct {
	store  *storage.Repository
	logger *log.Logger
}

func NewExportService(store *storage.Repository, logger *log.Logger) *ExportService {
	return &ExportService{
		store:  store,
		logger: logger.WithComponent(log.ComponentExport),
	}
}

// ExportFile is a rendered export ready to be served.
type ExportFile struct {
	Data        []byte
	Filename    string
	ContentType string
	Reference   string
}

func (s *ExportService) Export(ctx context.Context, user *core.User, from, to core.Date, format string) (*ExportFile, error) {
	if onFreePlan(user) {
		count, err := s.store.CountExports(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if count >= FreeExportLimit {
			return nil, ErrFreeLimitReached
		}
	}

	entries, err := s.store.EntriesInRange(ctx, user.ID, from, to)
	if err != nil {
		return nil, err
	}

	reference := uuid.NewString()

	var file *ExportFile
	switch format {
	case FormatCSV:
		file, err = renderCSV(entries, reference)
	case FormatXLSX:
		file, err = renderXLSX(entries, reference)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.RecordExport(ctx, core.ExportLog{
		UserID:    user.ID,
		Format:    format,
		Reference: reference,
		Rows:      len(entries),
	}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "export generated",
		log.FieldUserID, user.ID,
		log.FieldFormat, format,
		log.FieldReference, reference,
		"rows", len(entries))
	return file, nil
}

var exportHeader = []string{"Date", "Kind", "Category", "Description", "Amount", "Currency"}

func exportRow(e core.LedgerEntry) []string {
	category := e.Category
	if category == "" {
		category = "Uncategorized"
	}
	return []string{
		e.OccurredOn.String(),
		string(e.Kind),
		category,
		e.Description,
		e.Amount.Decimal(),
		e.Currency,
	}
}

func renderCSV(entries []core.LedgerEntry, reference string) (*ExportFile, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		if err := w.Write(exportRow(e)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return &ExportFile{
		Data:        buf.Bytes(),
		Filename:    fmt.Sprintf("entries-%s.csv", reference),
		ContentType: "text/csv",
		Reference:   reference,
	}, nil
}

func renderXLSX(entries []core.LedgerEntry, reference string) (*ExportFile, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Entries"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, fmt.Errorf("write header cell: %w", err)
		}
	}

	for row, e := range entries {
		for col, value := range exportRow(e) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("write cell: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}

	return &ExportFile{
		Data:        buf.Bytes(),
		Filename:    fmt.Sprintf("entries-%s.xlsx", reference),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Reference:   reference,
	}, nil
}
