// Package report writes and reads the spreadsheet files wardens work with:
// the audit trail export and the resident roster import.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

const (
	auditSheet   = "Audit"
	summarySheet = "Summary"
)

var auditColumns = []struct {
	title string
	width float64
}{
	{"Time (UTC)", 20},
	{"Correlation ID", 38},
	{"Actor", 14},
	{"Role", 10},
	{"Request type", 20},
	{"Decision", 14},
	{"Code", 22},
	{"Rules", 30},
	{"Record", 8},
	{"Confidence", 11},
	{"Reasoning", 60},
}

// AuditWorkbook renders audit entries as an xlsx workbook
type AuditWorkbook struct {
	logger *zap.Logger
}

// NewAuditWorkbook creates a new audit workbook writer
func NewAuditWorkbook(logger *zap.Logger) *AuditWorkbook {
	return &AuditWorkbook{logger: logger}
}

// Write renders entries to w: one row per entry on the Audit sheet and the
// count per decision and code on the Summary sheet.
func (a *AuditWorkbook) Write(w io.Writer, entries []*entity.AuditEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", auditSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range auditColumns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		a.setCell(f, auditSheet, name+"1", col.title)
		if err := f.SetColWidth(auditSheet, name, name, col.width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(auditColumns))
	if err := f.SetCellStyle(auditSheet, "A1", last+"1", header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, e := range entries {
		row := i + 2
		values := []interface{}{
			e.CreatedAt.UTC().Format(time.DateTime),
			e.CorrelationID,
			e.ActorID,
			string(e.ActorRole),
			string(e.RequestType),
			string(e.Decision),
			string(e.Code),
			strings.Join(e.RuleIDs, ", "),
			recordCell(e.RecordID),
			e.Confidence,
			e.Reasoning,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(auditSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	if err := a.writeSummary(f, entries, header); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	a.logger.Info("Audit workbook written", zap.Int("entries", len(entries)))
	return nil
}

func (a *AuditWorkbook) writeSummary(f *excelize.File, entries []*entity.AuditEntry, header int) error {
	type key struct {
		decision string
		code     string
	}
	counts := make(map[key]int)
	for _, e := range entries {
		counts[key{string(e.Decision), string(e.Code)}]++
	}
	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].decision != keys[j].decision {
			return keys[i].decision < keys[j].decision
		}
		return keys[i].code < keys[j].code
	})

	a.setCell(f, summarySheet, "A1", "Decision")
	a.setCell(f, summarySheet, "B1", "Code")
	a.setCell(f, summarySheet, "C1", "Count")
	if err := f.SetCellStyle(summarySheet, "A1", "C1", header); err != nil {
		return fmt.Errorf("failed to style summary header: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "B", 22); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	for i, k := range keys {
		row := i + 2
		a.setCell(f, summarySheet, fmt.Sprintf("A%d", row), k.decision)
		a.setCell(f, summarySheet, fmt.Sprintf("B%d", row), k.code)
		a.setCell(f, summarySheet, fmt.Sprintf("C%d", row), counts[k])
	}

	total := len(keys) + 2
	a.setCell(f, summarySheet, fmt.Sprintf("A%d", total), "Total")
	a.setCell(f, summarySheet, fmt.Sprintf("C%d", total), len(entries))
	return nil
}

// setCell sets a cell value, logging rather than failing on bad coordinates
func (a *AuditWorkbook) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		a.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func recordCell(id int64) interface{} {
	if id == 0 {
		return ""
	}
	return id
}
