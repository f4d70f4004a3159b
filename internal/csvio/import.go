// Package csvio implements the CSV import and export paths. Imports run
// as a two-phase pipeline: Validate parses and checks every row without
// touching the database, Commit applies a clean preview row by row.
package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/packrat-dev/packrat/internal/audit"
	"github.com/packrat-dev/packrat/internal/inventory"
)

// importHeader names the columns an import file must carry. Extra columns
// are ignored, and the order is taken from the header, not assumed.
var importHeader = []string{"Item Name", "Box", "Quantity"}

// FormatError reports a file that is not a valid import CSV at all, as
// opposed to row-level problems collected into the preview.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string { return e.Message }

var (
	// ErrPreviewHasErrors is returned by Commit when the preview still
	// carries row errors.
	ErrPreviewHasErrors = errors.New("preview has row errors")

	// ErrBatchCommitted is returned by Commit when the preview's batch
	// was already applied.
	ErrBatchCommitted = errors.New("batch already committed")
)

// Row is one data row of an import file. Line is the 1-based file line;
// the header occupies line 1, so data rows start at 2. Errs collects every
// problem found on the row, not just the first; a clean row has none.
type Row struct {
	Line     int
	Name     string
	BoxName  string
	BoxID    int64
	Quantity int
	Errs     []string
}

func (r *Row) fail(format string, args ...interface{}) {
	r.Errs = append(r.Errs, fmt.Sprintf(format, args...))
}

// Preview is the outcome of Validate: every row with its resolution, the
// collected row errors, and a batch id that makes the commit idempotent.
type Preview struct {
	BatchID string
	Rows    []Row
	Errors  []string
}

// Result reports what a Commit applied.
type Result struct {
	BatchID  string
	Imported int
	Failed   int
}

// Importer validates and commits CSV import files.
type Importer struct {
	repo *inventory.Repository
	log  *audit.Logger
}

func NewImporter(repo *inventory.Repository, log *audit.Logger) *Importer {
	return &Importer{repo: repo, log: log}
}

// Validate parses an import file and checks every row against the current
// inventory. It never writes: a preview with errors is still returned in
// full so the caller can show all problems at once.
func (im *Importer) Validate(ctx context.Context, r io.Reader) (*Preview, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &FormatError{Message: "CSV file is empty"}
	}
	if err != nil {
		return nil, &FormatError{Message: fmt.Sprintf("Cannot read CSV file: %v", err)}
	}
	cols, err := resolveHeader(header)
	if err != nil {
		return nil, err
	}

	boxes, err := im.repo.BoxNameIndex(ctx)
	if err != nil {
		return nil, err
	}

	preview := &Preview{BatchID: uuid.NewString()}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &FormatError{Message: fmt.Sprintf("Cannot read CSV file: %v", err)}
		}
		preview.addRow(validateRow(line, record, cols, boxes))
	}

	return preview, nil
}

func (p *Preview) addRow(row Row) {
	p.Rows = append(p.Rows, row)
	p.Errors = append(p.Errors, row.Errs...)
}

// validateRow runs the name, box, and quantity checks independently so a
// row reports every problem it carries at once.
func validateRow(line int, record []string, cols columnIndex, boxes map[string]int64) Row {
	row := Row{Line: line}

	row.Name = field(record, cols.name)
	row.BoxName = field(record, cols.box)
	rawQuantity := field(record, cols.quantity)

	if row.Name == "" {
		row.fail("Row %d: Item name is empty", line)
	}

	if row.BoxName == "" {
		row.fail("Row %d: Box name is empty", line)
	} else if boxID, ok := boxes[strings.ToLower(row.BoxName)]; ok {
		row.BoxID = boxID
	} else {
		row.fail("Row %d: Box '%s' does not exist. Create it first.", line, row.BoxName)
	}

	quantity, err := strconv.Atoi(rawQuantity)
	switch {
	case err != nil:
		row.fail("Row %d: Invalid quantity '%s' (must be a number)", line, rawQuantity)
	case quantity < 1:
		row.fail("Row %d: Quantity must be at least 1", line)
	default:
		row.Quantity = quantity
	}

	return row
}

// field returns the i-th column normalized to NFC and trimmed, or "" when
// the record is short.
func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(norm.NFC.String(record[i]))
}

// columnIndex holds the positions of the required columns in the file's
// header.
type columnIndex struct {
	name     int
	box      int
	quantity int
}

// resolveHeader locates the required columns in the header. Columns may
// appear in any order, and unknown columns are ignored; a missing required
// column is a FormatError.
func resolveHeader(header []string) (columnIndex, error) {
	cols := columnIndex{name: -1, box: -1, quantity: -1}
	for i, cell := range header {
		switch strings.TrimSpace(norm.NFC.String(cell)) {
		case "Item Name":
			if cols.name == -1 {
				cols.name = i
			}
		case "Box":
			if cols.box == -1 {
				cols.box = i
			}
		case "Quantity":
			if cols.quantity == -1 {
				cols.quantity = i
			}
		}
	}

	if cols.name == -1 || cols.box == -1 || cols.quantity == -1 {
		return columnIndex{}, &FormatError{
			Message: fmt.Sprintf("CSV header must contain '%s'", strings.Join(importHeader, ",")),
		}
	}
	return cols, nil
}

// Commit applies a clean preview. A preview that still carries errors is
// refused, as is a batch that was already committed. Each row is created
// independently; a row that fails at apply time is skipped and tallied
// rather than aborting the rows already written.
func (im *Importer) Commit(ctx context.Context, preview *Preview) (*Result, error) {
	if len(preview.Errors) > 0 {
		return nil, ErrPreviewHasErrors
	}

	committed, err := im.batchCommitted(ctx, preview.BatchID)
	if err != nil {
		return nil, err
	}
	if committed {
		return nil, ErrBatchCommitted
	}

	result := &Result{BatchID: preview.BatchID}
	for _, row := range preview.Rows {
		if _, err := im.repo.CreateItem(ctx, row.Name, row.BoxID, row.Quantity); err != nil {
			result.Failed++
			continue
		}
		result.Imported++
	}

	details := fmt.Sprintf("Imported %d items from CSV (%d failed)", result.Imported, result.Failed)
	err = im.log.Record(ctx, &audit.Entry{
		Action:     audit.ActionImport,
		EntityType: audit.EntityInventory,
		Details:    details,
		NewValue:   batchMarker(preview.BatchID),
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func batchMarker(batchID string) string {
	return "batch: " + batchID
}

// batchCommitted reports whether an IMPORT entry for this batch already
// exists. The marker lives in the audit log so the guard survives process
// restarts.
func (im *Importer) batchCommitted(ctx context.Context, batchID string) (bool, error) {
	entries, err := im.log.Query(ctx, audit.Filter{Action: audit.ActionImport})
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.NewValue == batchMarker(batchID) {
			return true, nil
		}
	}
	return false, nil
}
