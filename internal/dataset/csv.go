package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/kailas-cloud/vecingest/internal/domain"
)

// readCSV loads one CSV file or a directory of CSV files. The first line of
// each file is the header. Values are inferred per cell: empty → null,
// numeric → number, true/false → bool, anything else → string.
func readCSV(path string) (*Table, error) {
	files, err := listFiles(path, ".csv", ".csv.gz")
	if err != nil {
		return nil, err
	}

	table := &Table{}
	for _, file := range files {
		if err := readCSVFile(file, table); err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(file), err)
		}
	}
	return table, nil
}

func readCSVFile(path string, table *Table) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("gzip: %w", err)
		}
		defer func() { _ = gz.Close() }()
		src = gz
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1 // short rows pad with nulls

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(table.Columns) == 0 {
		table.Columns = header
	}

	for {
		fields, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}

		row := make(domain.Record, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = inferValue(fields[i])
			} else {
				row[col] = domain.Null()
			}
		}
		table.Rows = append(table.Rows, row)
	}
}

// inferValue guesses the scalar type of a CSV cell.
func inferValue(cell string) domain.Value {
	if cell == "" {
		return domain.Null()
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return domain.Number(f)
	}
	switch cell {
	case "true", "false":
		return domain.Boolean(cell == "true")
	}
	return domain.String(cell)
}
