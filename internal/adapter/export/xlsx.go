package export

import (
	"fmt"
	"io"
	"log/slog"
	"unicode/utf16"

	"github.com/xuri/excelize/v2"

	"tagchain/internal/domain"
)

const (
	sheetDocuments = "Documents"
	sheetTokens    = "Tokens"
	sheetTagged    = "Tagged"
)

// XLSXExporter writes a run as a workbook: one row per document, one row
// per cleaned token and one row per tagged token. Every value gets its own
// cell so nothing approaches the per-cell character limit.
type XLSXExporter struct {
	logger *slog.Logger
}

func NewXLSXExporter(logger *slog.Logger) *XLSXExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXExporter{logger: logger}
}

func (e *XLSXExporter) Extension() string {
	return "xlsx"
}

func (e *XLSXExporter) Export(w io.Writer, run *domain.Run) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it rather than leave it empty.
	if err := f.SetSheetName("Sheet1", sheetDocuments); err != nil {
		return err
	}
	for _, sheet := range []string{sheetTokens, sheetTagged} {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	idx, _ := f.GetSheetIndex(sheetDocuments)
	f.SetActiveSheet(idx)

	uids := run.Source.UIDs()

	if err := writeRow(f, sheetDocuments, 1, "UID", "Token Count", "Tagged Count"); err != nil {
		return err
	}
	if err := writeRow(f, sheetTokens, 1, "UID", "Position", "Token"); err != nil {
		return err
	}
	tokenRow := 2
	for i, d := range run.Source.Docs {
		tagged := 0
		if i < len(run.Tagged) {
			tagged = len(run.Tagged[i])
		}
		if err := writeRow(f, sheetDocuments, i+2, d.UID, len(d.Tokens), tagged); err != nil {
			return err
		}
		for pos, tok := range d.Tokens {
			if err := writeRow(f, sheetTokens, tokenRow, d.UID, pos+1, tok); err != nil {
				return err
			}
			tokenRow++
		}
	}

	if err := writeRow(f, sheetTagged, 1, "UID", "Position", "Surface", "Tag", "Lemma"); err != nil {
		return err
	}
	row := 2
	for i, doc := range run.Tagged {
		uid := ""
		if i < len(uids) {
			uid = uids[i]
		}
		for pos, tok := range doc {
			if err := writeRow(f, sheetTagged, row, uid, pos+1, tok.Surface, tok.Tag, tok.Lemma); err != nil {
				return err
			}
			row++
		}
	}

	_ = f.SetColWidth(sheetDocuments, "A", "A", 32) // uid
	_ = f.SetColWidth(sheetDocuments, "B", "C", 14)
	_ = f.SetColWidth(sheetTokens, "A", "A", 32)
	_ = f.SetColWidth(sheetTokens, "C", "C", 24)
	_ = f.SetColWidth(sheetTagged, "A", "A", 32)
	_ = f.SetColWidth(sheetTagged, "C", "E", 18)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	e.logger.Debug("xlsx export done", "run_id", run.ID, "docs", len(uids), "token_rows", tokenRow-2, "tagged_rows", row-2)
	return nil
}

// writeRow fails on strings excelize would otherwise truncate.
func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if str, ok := v.(string); ok && len(utf16.Encode([]rune(str))) > excelize.TotalCellChars {
			return fmt.Errorf("%s!%s: value exceeds %d characters", sheet, cell, excelize.TotalCellChars)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
