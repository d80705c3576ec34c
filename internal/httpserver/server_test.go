package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qdblens/qdblens/internal/ingest"
	"github.com/qdblens/qdblens/internal/model"
	"github.com/qdblens/qdblens/internal/state"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*state.Store, *gin.Engine) {
	t.Helper()
	store := state.NewStore()
	srv := NewServer("", store)
	srv.startTime = time.Now()
	return store, srv.Engine()
}

func seedStore(store *state.Store) {
	base := time.Date(2025, 9, 3, 13, 24, 0, 0, time.UTC)
	result := &ingest.Result{}
	result.Records.Add(model.LogRecord{
		Kind: model.KindQuery, Timestamp: base,
		ExecutionTimeMs: 10, SQLPreview: "SELECT a", FullSQL: "SELECT a", SourceFile: "a.log",
	})
	result.Records.Add(model.LogRecord{
		Kind: model.KindQuery, Timestamp: base.Add(2 * time.Second),
		ExecutionTimeMs: 40, SQLPreview: "SELECT b", FullSQL: "SELECT b", SourceFile: "a.log",
	})
	result.Records.Add(model.LogRecord{
		Kind: model.KindWalApply, Timestamp: base.Add(time.Second),
		Table: "trades", Rows: 100, Amplification: 1.5, TimeMs: 1000, SourceFile: "a.log",
	})
	result.FileMetadata = append(result.FileMetadata, model.FileMetadata{
		FileName: "a.log", StartTime: base, EndTime: base.Add(2 * time.Second), RecordCount: 3,
	})
	result.Errors = append(result.Errors, model.FileError{
		File: "bad.log", Message: "Failed to process bad.log: invalid UTF-8 encoding",
	})
	store.Set(result)
}

func getJSON(t *testing.T, r *gin.Engine, path string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal %s: %v", path, err)
		}
	}
	return w.Code, body
}

func TestHealthEndpoint(t *testing.T) {
	store, r := newTestServer(t)
	seedStore(store)

	code, body := getJSON(t, r, "/api/health")
	if code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", code, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["record_count"] != float64(3) {
		t.Errorf("record_count = %v, want 3", body["record_count"])
	}
}

func TestOverviewEndpoint(t *testing.T) {
	store, r := newTestServer(t)
	seedStore(store)

	code, body := getJSON(t, r, "/api/overview")
	if code != http.StatusOK {
		t.Fatalf("overview status = %d", code)
	}

	errs, ok := body["errors"].([]interface{})
	if !ok || len(errs) != 1 {
		t.Fatalf("errors = %v, want one entry", body["errors"])
	}
	if errs[0] != "Failed to process bad.log: invalid UTF-8 encoding" {
		t.Errorf("error message = %v", errs[0])
	}

	categories := body["categories"].(map[string]interface{})
	if categories["queries"] != float64(2) || categories["walApplies"] != float64(1) {
		t.Errorf("categories = %v", categories)
	}
}

func TestTimelineEndpoint(t *testing.T) {
	store, r := newTestServer(t)
	seedStore(store)

	code, body := getJSON(t, r, "/api/timeline?interval=1s")
	if code != http.StatusOK {
		t.Fatalf("timeline status = %d", code)
	}
	buckets := body["buckets"].([]interface{})
	if len(buckets) != 2 {
		t.Errorf("buckets = %d, want 2 (queries only)", len(buckets))
	}

	code, _ = getJSON(t, r, "/api/timeline?interval=bogus")
	if code != http.StatusBadRequest {
		t.Errorf("bad interval status = %d, want 400", code)
	}
}

func TestTopQueriesEndpoint(t *testing.T) {
	store, r := newTestServer(t)
	seedStore(store)

	code, body := getJSON(t, r, "/api/queries/top?limit=1")
	if code != http.StatusOK {
		t.Fatalf("top queries status = %d", code)
	}
	queries := body["queries"].([]interface{})
	if len(queries) != 1 {
		t.Fatalf("queries = %d, want 1 (truncated)", len(queries))
	}
	first := queries[0].(map[string]interface{})
	if first["Signature"] != "SELECT b" {
		t.Errorf("top signature = %v, want SELECT b", first["Signature"])
	}
}

func TestTablesEndpoint(t *testing.T) {
	store, r := newTestServer(t)
	seedStore(store)

	code, body := getJSON(t, r, "/api/tables")
	if code != http.StatusOK {
		t.Fatalf("tables status = %d", code)
	}
	tables := body["tables"].([]interface{})
	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(tables))
	}
	trades := tables[0].(map[string]interface{})
	if trades["Table"] != "trades" || trades["JobCount"] != float64(1) {
		t.Errorf("table metric = %v", trades)
	}
}

func TestHistogramEndpoint_EmptyStoreIsWellDefined(t *testing.T) {
	_, r := newTestServer(t)

	code, body := getJSON(t, r, "/api/histogram")
	if code != http.StatusOK {
		t.Fatalf("histogram status = %d, want 200 on empty input", code)
	}
	st := body["stats"].(map[string]interface{})
	if st["Count"] != float64(0) {
		t.Errorf("stats count = %v, want 0", st["Count"])
	}
}
