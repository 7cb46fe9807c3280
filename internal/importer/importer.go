package importer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/fieldmeta"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/ports"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/services"
)

const defaultBatchSize = 300

// Importer bulk-loads a tab-separated spreadsheet export into the
// install-base table. Header cells are matched to physical columns by
// normalized key, so the export's header spelling does not have to match
// the schema.
type Importer struct {
	schema    ports.SchemaProvider
	rows      ports.RowStore
	table     string
	batchSize int
	logf      func(format string, args ...any)
}

func New(schema ports.SchemaProvider, rows ports.RowStore, table string) *Importer {
	return &Importer{
		schema:    schema,
		rows:      rows,
		table:     table,
		batchSize: defaultBatchSize,
		logf:      log.Printf,
	}
}

type Summary struct {
	RunID    string
	Rows     int64
	Skipped  int
	Unmapped []string
}

// ParseTSV reads a tab-separated export. Spreadsheet exports carry embedded
// newlines inside cells, so short lines are folded into the previous record
// until the field count matches the header again.
func ParseTSV(r io.Reader) (header []string, records [][]string, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("importer: empty input")
	}
	header = strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
	want := len(header)

	var pending []string
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		fields := strings.Split(line, "\t")

		if pending != nil {
			// Continuation of a cell with an embedded newline: glue the
			// first field onto the last pending cell.
			pending[len(pending)-1] += "\n" + fields[0]
			pending = append(pending, fields[1:]...)
		} else {
			pending = fields
		}

		if len(pending) < want {
			continue
		}
		if len(pending) > want {
			return nil, nil, fmt.Errorf("importer: row has %d fields, header has %d", len(pending), want)
		}
		records = append(records, pending)
		pending = nil
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	if pending != nil {
		return nil, nil, fmt.Errorf("importer: truncated final row (%d of %d fields)", len(pending), want)
	}
	return header, records, nil
}

// Run maps the export onto the live schema and inserts it in batches. Rows
// without a serial number are skipped, not failed: exports routinely carry
// trailing junk rows.
func (im *Importer) Run(ctx context.Context, r io.Reader) (Summary, error) {
	runID := uuid.Must(uuid.NewV7()).String()
	sum := Summary{RunID: runID}

	header, records, err := ParseTSV(r)
	if err != nil {
		return sum, err
	}

	cols, err := im.schema.TableColumns(ctx, im.table)
	if err != nil {
		return sum, err
	}
	if len(cols) == 0 {
		return sum, fmt.Errorf("importer: table %s not found", im.table)
	}
	colIdx := fieldmeta.ColumnIndex(cols)

	// Column mapping: header position -> physical column, -1 when the
	// schema has no match.
	mapped := make([]string, len(header))
	serialPos := -1
	for i, hd := range header {
		col, ok := colIdx[fieldmeta.NormKey(hd)]
		if !ok {
			mapped[i] = ""
			sum.Unmapped = append(sum.Unmapped, hd)
			continue
		}
		mapped[i] = col
		if serialField, ok := fieldmeta.InstallBaseField("serial_no"); ok {
			if serialCol, ok := fieldmeta.Resolve(cols, serialField); ok && col == serialCol {
				serialPos = i
			}
		}
	}
	if serialPos < 0 {
		return sum, fmt.Errorf("importer: export has no serial column")
	}

	var insertCols []string
	var colPos []int
	isDate := make([]bool, 0, len(header))
	for i, col := range mapped {
		if col == "" {
			continue
		}
		insertCols = append(insertCols, col)
		colPos = append(colPos, i)
		isDate = append(isDate, fieldmeta.InstallBaseDateKey(header[i]))
	}

	var batch [][]any
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := im.rows.InsertBatch(ctx, im.table, insertCols, batch)
		sum.Rows += n
		batch = batch[:0]
		return err
	}

	for _, rec := range records {
		if fieldmeta.NormValue(rec[serialPos]) == "" {
			sum.Skipped++
			continue
		}
		row := make([]any, len(insertCols))
		for j, pos := range colPos {
			v := fieldmeta.NormValue(rec[pos])
			if isDate[j] {
				if t, ok := services.ParseDate(v); ok {
					row[j] = t
				} else {
					row[j] = nil
				}
				continue
			}
			row[j] = v
		}
		batch = append(batch, row)
		if len(batch) >= im.batchSize {
			if err := flush(); err != nil {
				return sum, err
			}
			im.logf("import %s: %d rows loaded", runID, sum.Rows)
		}
	}
	if err := flush(); err != nil {
		return sum, err
	}

	im.logf("import %s: done, %d rows loaded, %d skipped, %d unmapped columns",
		runID, sum.Rows, sum.Skipped, len(sum.Unmapped))
	return sum, nil
}
