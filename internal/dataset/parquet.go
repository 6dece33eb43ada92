package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/vecingest/internal/domain"
)

// readParquet loads one parquet file or a directory of parquet files using
// the generic row reader: no static schema, leaf values are mapped to tagged
// scalars by their physical kind.
func readParquet(path string) (*Table, error) {
	files, err := listFiles(path, ".parquet")
	if err != nil {
		return nil, err
	}

	table := &Table{}
	for _, file := range files {
		if err := readParquetFile(file, table); err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(file), err)
		}
	}
	return table, nil
}

func readParquetFile(path string, table *Table) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return fmt.Errorf("open parquet: %w", err)
	}

	// Leaf column index → top-level field name.
	names := make([]string, 0, len(pf.Schema().Columns()))
	for _, p := range pf.Schema().Columns() {
		if len(p) == 0 {
			names = append(names, "")
			continue
		}
		names = append(names, p[0])
	}
	if len(table.Columns) == 0 {
		seen := make(map[string]bool, len(names))
		for _, n := range names {
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			table.Columns = append(table.Columns, n)
		}
	}

	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		buf := make([]parquet.Row, 256)

		for {
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				table.Rows = append(table.Rows, rowToRecord(buf[i], names))
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return nil
}

// rowToRecord converts a generic parquet row into a Record. Repeated leaf
// values collapse to the last one: list-shaped columns are carried as a
// single scalar, not reconstructed.
func rowToRecord(row parquet.Row, names []string) domain.Record {
	rec := make(domain.Record, len(names))
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= len(names) || names[col] == "" {
			continue
		}
		rec[names[col]] = parquetValue(v)
	}
	return rec
}

func parquetValue(v parquet.Value) domain.Value {
	if v.IsNull() {
		return domain.Null()
	}
	switch v.Kind() {
	case parquet.Boolean:
		return domain.Boolean(v.Boolean())
	case parquet.Int32:
		return domain.Number(float64(v.Int32()))
	case parquet.Int64:
		return domain.Number(float64(v.Int64()))
	case parquet.Float:
		return domain.Number(float64(v.Float()))
	case parquet.Double:
		return domain.Number(v.Double())
	default:
		return domain.String(v.String())
	}
}
