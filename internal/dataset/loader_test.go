package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecingest/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func loadCfg(path, format string) Config {
	return Config{Path: path, Format: format, IDColumn: "id", TextColumn: "text"}
}

func TestLoad_CSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	writeFile(t, path, "id,text,score,active\na-1,hello,0.5,true\na-2,,,\n")

	table, err := Load(context.Background(), loadCfg(path, "csv"), zap.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}

	first := table.Rows[0]
	if first["text"] != domain.String("hello") {
		t.Errorf("text = %+v", first["text"])
	}
	if first["score"] != domain.Number(0.5) {
		t.Errorf("score = %+v", first["score"])
	}
	if first["active"] != domain.Boolean(true) {
		t.Errorf("active = %+v", first["active"])
	}

	second := table.Rows[1]
	if !second["text"].IsNull() {
		t.Errorf("empty cell not null: %+v", second["text"])
	}
}

func TestLoad_CSVDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.csv"), "id,text\nb-1,second file\n")
	writeFile(t, filepath.Join(dir, "a.csv"), "id,text\na-1,first file\n")

	table, err := Load(context.Background(), loadCfg(dir, "csv"), zap.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}
	// Files load in lexical order.
	if table.Rows[0]["id"] != domain.String("a-1") {
		t.Errorf("first row id = %+v", table.Rows[0]["id"])
	}
}

func TestLoad_GzippedCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte("id,text\ng-1,compressed row\n")); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	table, err := Load(context.Background(), loadCfg(path, "csv"), zap.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(table.Rows) != 1 || table.Rows[0]["text"] != domain.String("compressed row") {
		t.Errorf("unexpected rows: %+v", table.Rows)
	}
}

func TestLoad_Parquet(t *testing.T) {
	type row struct {
		ID    string   `parquet:"id"`
		Text  string   `parquet:"text"`
		Score *float64 `parquet:"score,optional"`
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "data.parquet")
	score := 0.75
	rows := []row{
		{ID: "p-1", Text: "alpha", Score: &score},
		{ID: "p-2", Text: "beta"},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("write parquet: %v", err)
	}

	table, err := Load(context.Background(), loadCfg(path, "parquet"), zap.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}
	if table.Rows[0]["score"] != domain.Number(0.75) {
		t.Errorf("score = %+v", table.Rows[0]["score"])
	}
	if !table.Rows[1]["score"].IsNull() {
		t.Errorf("missing optional not null: %+v", table.Rows[1]["score"])
	}
}

func TestLoad_MissingPath(t *testing.T) {
	_, err := Load(context.Background(), loadCfg("", "csv"), zap.NewNop())
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	writeFile(t, path, "id,text\n")

	_, err := Load(context.Background(), loadCfg(path, "avro"), zap.NewNop())
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestLoad_MissingRequiredColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	writeFile(t, path, "uuid,body\nx,y\n")

	_, err := Load(context.Background(), loadCfg(path, "csv"), zap.NewNop())
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}
