package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecingest/internal/domain"
)

// fakeQdrant is a minimal in-memory stand-in for the Qdrant REST API.
type fakeQdrant struct {
	collections map[string]vectorParams
	listFails   bool
	upsertFails bool

	listCalls   int
	createCalls int
	upsertCalls int
	lastUpsert  upsertRequest
	lastWait    string
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{collections: map[string]vectorParams{}}
}

func (f *fakeQdrant) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections":
			f.listCalls++
			if f.listFails {
				http.Error(w, "listing unavailable", http.StatusInternalServerError)
				return
			}
			type col struct {
				Name string `json:"name"`
			}
			var cols []col
			for name := range f.collections {
				cols = append(cols, col{Name: name})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{"collections": cols},
				"status": "ok",
			})

		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/collections/") && !isPointsPath(r.URL.Path):
			f.createCalls++
			name := strings.TrimPrefix(r.URL.Path, "/collections/")
			if _, ok := f.collections[name]; ok {
				http.Error(w, "already exists", http.StatusConflict)
				return
			}
			var req createCollectionRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode create: %v", err)
			}
			f.collections[name] = req.Vectors
			_ = json.NewEncoder(w).Encode(map[string]any{"result": true, "status": "ok"})

		case r.Method == http.MethodPut && isPointsPath(r.URL.Path):
			f.upsertCalls++
			f.lastWait = r.URL.Query().Get("wait")
			if f.upsertFails {
				http.Error(w, "write refused", http.StatusInternalServerError)
				return
			}
			if err := json.NewDecoder(r.Body).Decode(&f.lastUpsert); err != nil {
				t.Errorf("decode upsert: %v", err)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{"operation_id": 0, "status": "completed"},
				"status": "ok",
			})

		default:
			http.NotFound(w, r)
		}
	}
}

func isPointsPath(path string) bool {
	return strings.HasSuffix(path, "/points")
}

func newTestClient(t *testing.T, fake *fakeQdrant) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, Logger: zap.NewNop()})
}

func TestEnsureCollection_CreatesWhenAbsent(t *testing.T) {
	fake := newFakeQdrant()
	c := newTestClient(t, fake)

	err := c.EnsureCollection(context.Background(), "embeddings", 768, domain.DistanceCosine)
	if err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}

	params, ok := fake.collections["embeddings"]
	if !ok {
		t.Fatal("collection not created")
	}
	if params.Size != 768 || params.Distance != "Cosine" {
		t.Errorf("created with %+v", params)
	}
}

func TestEnsureCollection_Idempotent(t *testing.T) {
	fake := newFakeQdrant()
	c := newTestClient(t, fake)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := c.EnsureCollection(ctx, "embeddings", 768, domain.DistanceCosine); err != nil {
			t.Fatalf("EnsureCollection call %d: %v", i+1, err)
		}
	}

	if fake.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1 (second ensure must be a no-op)", fake.createCalls)
	}
}

func TestEnsureCollection_ListingFailureStillCreates(t *testing.T) {
	fake := newFakeQdrant()
	fake.listFails = true
	c := newTestClient(t, fake)

	err := c.EnsureCollection(context.Background(), "embeddings", 64, domain.DistanceEuclid)
	if err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if fake.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", fake.createCalls)
	}
}

func TestEnsureCollection_ConflictTreatedAsSuccess(t *testing.T) {
	fake := newFakeQdrant()
	fake.collections["embeddings"] = vectorParams{Size: 768, Distance: "Cosine"}
	fake.listFails = true // forces the optimistic create path
	c := newTestClient(t, fake)

	err := c.EnsureCollection(context.Background(), "embeddings", 768, domain.DistanceCosine)
	if err != nil {
		t.Fatalf("EnsureCollection after conflict: %v", err)
	}
}

func TestUpsertBatch(t *testing.T) {
	fake := newFakeQdrant()
	c := newTestClient(t, fake)

	points := []domain.Point{
		{ID: "a", Vector: []float32{1, 2}, Payload: map[string]domain.Value{"text": domain.String("x")}},
		{ID: "b", Vector: []float32{3, 4}},
	}
	if err := c.UpsertBatch(context.Background(), "embeddings", points); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	if fake.lastWait != "true" {
		t.Errorf("wait param = %q, want true", fake.lastWait)
	}
	if len(fake.lastUpsert.Points) != 2 {
		t.Fatalf("upserted %d points, want 2", len(fake.lastUpsert.Points))
	}
	if fake.lastUpsert.Points[0].ID != "a" {
		t.Errorf("first point id = %q", fake.lastUpsert.Points[0].ID)
	}
}

func TestUpsertBatch_EmptyIsNoop(t *testing.T) {
	fake := newFakeQdrant()
	c := newTestClient(t, fake)

	if err := c.UpsertBatch(context.Background(), "embeddings", nil); err != nil {
		t.Fatalf("UpsertBatch(nil): %v", err)
	}
	if fake.upsertCalls != 0 {
		t.Errorf("upsertCalls = %d, want 0", fake.upsertCalls)
	}
}

func TestUpsertBatch_WriteFailure(t *testing.T) {
	fake := newFakeQdrant()
	fake.upsertFails = true
	c := newTestClient(t, fake)

	err := c.UpsertBatch(context.Background(), "embeddings", []domain.Point{{ID: "a", Vector: []float32{1}}})
	if err == nil {
		t.Fatal("expected error from failed write")
	}
}
