package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dotmjsc/pwl-editor/internal/generate"
	"github.com/dotmjsc/pwl-editor/internal/index"
	"github.com/dotmjsc/pwl-editor/internal/storage"
	"github.com/dotmjsc/pwl-editor/internal/waveformservice"
)

// testEnv sets up a temp workspace, SQLite DB, service, and router for testing.
// authEnabled=false means disabled mode; authEnabled=true with non-empty token means token mode.
func testEnv(t *testing.T, authToken string) (*waveformservice.Service, http.Handler) {
	t.Helper()
	enabled := authToken != ""
	return testEnvFull(t, enabled, authToken, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) (*waveformservice.Service, http.Handler) {
	t.Helper()

	workspaceDir := t.TempDir()
	store, err := storage.NewFS(workspaceDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	dbFile, err := os.CreateTemp("", "pwled-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := waveformservice.NewService(store, db)
	router := NewRouter(svc, NewOps(0), authEnabled, authToken, sseHandler)
	return svc, router
}

func createWaveform(t *testing.T, router http.Handler, path, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"path": path, "content": content})
	req := httptest.NewRequest(http.MethodPost, "/waveforms", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postJSON(t *testing.T, router http.Handler, url string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetWaveform(t *testing.T) {
	_, router := testEnv(t, "")

	w := createWaveform(t, router, "pulse.pwl", "0 0\n+1u 5\n+1u 0")
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/waveforms/pulse.pwl", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var wf WaveformDetail
	_ = json.Unmarshal(w.Body.Bytes(), &wf)
	if wf.Path != "pulse.pwl" {
		t.Errorf("path = %q", wf.Path)
	}
	if wf.Stats.Points != 3 || wf.Stats.Format != "relative" {
		t.Errorf("stats = %+v", wf.Stats)
	}
	if wf.Stats.Duration != 2e-6 {
		t.Errorf("duration = %g, want 2e-6", wf.Stats.Duration)
	}
}

func TestCreateWaveform_InvalidContent(t *testing.T) {
	_, router := testEnv(t, "")

	w := createWaveform(t, router, "bad.pwl", "this is not a waveform")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid content = %d, want 400", w.Code)
	}
}

func TestCreateDuplicate(t *testing.T) {
	_, router := testEnv(t, "")

	if w := createWaveform(t, router, "dup.pwl", "0 0\n1u 1"); w.Code != http.StatusCreated {
		t.Fatalf("first create = %d", w.Code)
	}
	if w := createWaveform(t, router, "dup.pwl", "0 0\n1u 1"); w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "")

	w := createWaveform(t, router, "lock.pwl", "0 0\n1u 1")
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	var created WaveformDetail
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	// Update with correct checksum.
	updateBody, _ := json.Marshal(map[string]string{"content": "0 0\n1u 2"})
	req := httptest.NewRequest(http.MethodPut, "/waveforms/lock.pwl", bytes.NewReader(updateBody))
	req.Header.Set("If-Match", created.Checksum)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}

	// Update with stale checksum → 409.
	req = httptest.NewRequest(http.MethodPut, "/waveforms/lock.pwl", bytes.NewReader(updateBody))
	req.Header.Set("If-Match", created.Checksum) // stale now
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale checksum = %d, want 409", w.Code)
	}
}

func TestUpdateWithoutIfMatch(t *testing.T) {
	_, router := testEnv(t, "")

	createWaveform(t, router, "nolock.pwl", "0 0\n1u 1")

	// Update without If-Match should succeed (no locking enforced).
	updateBody, _ := json.Marshal(map[string]string{"content": "0 0\n1u 2"})
	req := httptest.NewRequest(http.MethodPut, "/waveforms/nolock.pwl", bytes.NewReader(updateBody))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("update without If-Match = %d, want 200", w.Code)
	}
}

func TestUpdateWaveform_InvalidContent(t *testing.T) {
	_, router := testEnv(t, "")

	createWaveform(t, router, "valid.pwl", "0 0\n1u 1")

	updateBody, _ := json.Marshal(map[string]string{"content": "garbage line"})
	req := httptest.NewRequest(http.MethodPut, "/waveforms/valid.pwl", bytes.NewReader(updateBody))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid update = %d, want 400", w.Code)
	}
}

func TestDeleteWaveform(t *testing.T) {
	_, router := testEnv(t, "")

	createWaveform(t, router, "bye.pwl", "0 0\n1u 1")

	req := httptest.NewRequest(http.MethodDelete, "/waveforms/bye.pwl", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}

	// GET should now 404.
	req = httptest.NewRequest(http.MethodGet, "/waveforms/bye.pwl", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestListWaveforms(t *testing.T) {
	_, router := testEnv(t, "")

	createWaveform(t, router, "a.pwl", "0 0\n+1u 5")
	createWaveform(t, router, "b.pwl", "0 0\n1u 5")

	req := httptest.NewRequest(http.MethodGet, "/waveforms?limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	waveforms := resp["waveforms"].([]any)
	if len(waveforms) != 2 {
		t.Errorf("len(waveforms) = %d, want 2", len(waveforms))
	}

	// Format filter: only b.pwl is fully absolute.
	req = httptest.NewRequest(http.MethodGet, "/waveforms?format=absolute", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	waveforms = resp["waveforms"].([]any)
	if len(waveforms) != 1 {
		t.Errorf("absolute filter = %d items, want 1", len(waveforms))
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	createWaveform(t, router, "uniquetoken.pwl", "0 0\n+1u 5")

	req := httptest.NewRequest(http.MethodGet, "/search?q=uniquetoken", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	results := resp["results"].([]any)
	if len(results) != 1 {
		t.Errorf("search results = %d, want 1", len(results))
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	body, _ := json.Marshal(map[string]string{"path": "auth.pwl", "content": "0 0\n1u 1"})
	req := httptest.NewRequest(http.MethodPost, "/waveforms", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/waveforms", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/waveforms", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/waveforms", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

func TestGetWaveform_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/waveforms/nope.pwl", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing waveform = %d, want 404", w.Code)
	}
}

func TestUpdateWaveform_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	body, _ := json.Marshal(map[string]string{"content": "0 0\n1u 1"})
	req := httptest.NewRequest(http.MethodPut, "/waveforms/ghost.pwl", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

// Stateless operation endpoints.

func TestOpsAnalyze(t *testing.T) {
	_, router := testEnv(t, "")

	// Clean document.
	w := postJSON(t, router, "/ops/analyze", AnalyzeRequest{Text: "0 0\n+1u 5\n+1u 0"})
	if w.Code != http.StatusOK {
		t.Fatalf("analyze = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AnalyzeResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Clean {
		t.Errorf("clean document reported issues: %+v", resp.Issues)
	}

	// Duplicate timestamps.
	w = postJSON(t, router, "/ops/analyze", AnalyzeRequest{Text: "0 0\n5u 1\n5u 2\n10u 0"})
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Clean || len(resp.Issues.Duplicates) != 1 {
		t.Errorf("expected 1 duplicate group, got %+v", resp.Issues)
	}
}

func TestOpsAnalyze_BadText(t *testing.T) {
	_, router := testEnv(t, "")

	w := postJSON(t, router, "/ops/analyze", AnalyzeRequest{Text: "not a waveform"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("analyze bad text = %d, want 400", w.Code)
	}
}

func TestOpsRepair(t *testing.T) {
	_, router := testEnv(t, "")

	w := postJSON(t, router, "/ops/repair", RepairRequest{Text: "0 0\n5u 1\n5u 2\n5u 3\n10u 0"})
	if w.Code != http.StatusOK {
		t.Fatalf("repair = %d, body = %s", w.Code, w.Body.String())
	}
	var repaired RepairResponse
	_ = json.Unmarshal(w.Body.Bytes(), &repaired)
	if repaired.Text == "" {
		t.Fatal("repair returned empty text")
	}

	// The repaired document must analyze clean.
	w = postJSON(t, router, "/ops/analyze", AnalyzeRequest{Text: repaired.Text})
	var analysis AnalyzeResponse
	_ = json.Unmarshal(w.Body.Bytes(), &analysis)
	if !analysis.Clean {
		t.Errorf("repaired document still has issues: %+v", analysis.Issues)
	}
}

func TestOpsGenerateSquare(t *testing.T) {
	_, router := testEnv(t, "")

	w := postJSON(t, router, "/ops/generate/square", GenerateRequest{
		Square: &generate.SquareConfig{HighLevel: 5, Period: 1e-6, DutyCycle: 50, Cycles: 1},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("generate = %d, body = %s", w.Code, w.Body.String())
	}
	var resp GenerateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Text != "0 0\n500n 0\n500n 5\n1u 5\n1u 0" {
		t.Errorf("generated text = %q", resp.Text)
	}
}

func TestOpsGenerate_Errors(t *testing.T) {
	_, router := testEnv(t, "")

	// Unknown shape.
	if w := postJSON(t, router, "/ops/generate/sine", GenerateRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown shape = %d, want 400", w.Code)
	}
	// Missing config for shape.
	if w := postJSON(t, router, "/ops/generate/square", GenerateRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing config = %d, want 400", w.Code)
	}
	// Invalid config.
	w := postJSON(t, router, "/ops/generate/square", GenerateRequest{Square: &generate.SquareConfig{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid config = %d, want 400", w.Code)
	}
}

func TestOpsInsert(t *testing.T) {
	_, router := testEnv(t, "")

	w := postJSON(t, router, "/ops/insert", InsertRequest{Text: "0 0\n+1u 5", Index: 1, Position: "below"})
	if w.Code != http.StatusOK {
		t.Fatalf("insert = %d, body = %s", w.Code, w.Body.String())
	}
	var resp InsertResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Text != "0 0\n+1u 5\n+2u 5" {
		t.Errorf("insert text = %q", resp.Text)
	}
	if resp.Index != 2 {
		t.Errorf("insert index = %d, want 2", resp.Index)
	}
}

func TestOpsInsert_BadPosition(t *testing.T) {
	_, router := testEnv(t, "")

	w := postJSON(t, router, "/ops/insert", InsertRequest{Text: "0 0", Index: 0, Position: "sideways"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad position = %d, want 400", w.Code)
	}
}

func TestOpsConvert(t *testing.T) {
	_, router := testEnv(t, "")

	// SI time notation.
	w := postJSON(t, router, "/ops/convert", ConvertRequest{Text: "0 0\n0.000001 5", Times: "si"})
	if w.Code != http.StatusOK {
		t.Fatalf("convert = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ConvertResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Text != "0 0\n1u 5" {
		t.Errorf("si conversion = %q", resp.Text)
	}

	// Absolute to relative, re-rendered in SI notation.
	w = postJSON(t, router, "/ops/convert", ConvertRequest{Text: "0 0\n1u 5\n2u 0", Target: "relative", Times: "si"})
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Text != "0 0\n+1u 5\n+1u 0" {
		t.Errorf("relative conversion = %q", resp.Text)
	}
}

func TestOpsConvert_BadTarget(t *testing.T) {
	_, router := testEnv(t, "")

	w := postJSON(t, router, "/ops/convert", ConvertRequest{Text: "0 0", Target: "upside-down"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad target = %d, want 400", w.Code)
	}
}

func TestOpsSelect(t *testing.T) {
	_, router := testEnv(t, "")

	// Triangle over x 0..2, y 0..1, mapped onto a 200x100 pixel canvas.
	doc := "0 0\n1 1\n2 0"
	vp := ViewportSpec{XMin: 0, XMax: 2, YMin: 0, YMax: 1, PxWidth: 200, PxHeight: 100}

	// The peak (1,1) renders at pixel (100,0); a click 2px below hits it.
	w := postJSON(t, router, "/ops/select", SelectRequest{
		Text: doc, Viewport: vp,
		Nearest: &NearestSpec{PX: 100, PY: 2},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("select = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SelectResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Indices) != 1 || resp.Indices[0] != 1 {
		t.Errorf("nearest indices = %v, want [1]", resp.Indices)
	}

	// A click far from every point selects nothing.
	w = postJSON(t, router, "/ops/select", SelectRequest{
		Text: doc, Viewport: vp,
		Nearest: &NearestSpec{PX: 50, PY: 90},
	})
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Indices) != 0 {
		t.Errorf("miss indices = %v, want []", resp.Indices)
	}

	// Box selection happens in data space and ignores the viewport.
	w = postJSON(t, router, "/ops/select", SelectRequest{
		Text: doc,
		Box:  &BoxSpec{X1: -0.5, Y1: -0.5, X2: 2.5, Y2: 0.5},
	})
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Indices) != 2 || resp.Indices[0] != 0 || resp.Indices[1] != 2 {
		t.Errorf("box indices = %v, want [0 2]", resp.Indices)
	}
}

func TestOpsSelect_Errors(t *testing.T) {
	_, router := testEnv(t, "")

	// Neither selection shape.
	w := postJSON(t, router, "/ops/select", SelectRequest{Text: "0 0"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("no shape = %d, want 400", w.Code)
	}

	// Both selection shapes.
	w = postJSON(t, router, "/ops/select", SelectRequest{
		Text:    "0 0",
		Nearest: &NearestSpec{},
		Box:     &BoxSpec{},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("both shapes = %d, want 400", w.Code)
	}

	// Unparseable document.
	w = postJSON(t, router, "/ops/select", SelectRequest{Text: "nope", Box: &BoxSpec{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad text = %d, want 400", w.Code)
	}

	// A degenerate viewport cannot hit anything, but it is not an error.
	w = postJSON(t, router, "/ops/select", SelectRequest{
		Text:    "0 0",
		Nearest: &NearestSpec{PX: 0, PY: 0},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("degenerate viewport = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SelectResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Indices) != 0 {
		t.Errorf("degenerate viewport indices = %v, want []", resp.Indices)
	}
}

// Samples export.

func TestSamplesExport(t *testing.T) {
	_, router := testEnv(t, "")

	createWaveform(t, router, "ramp.pwl", "0 0\n2 1")

	req := httptest.NewRequest(http.MethodGet, "/samples?path=ramp.pwl&timestep=0.5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("samples = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d, want 6 (header + 5 samples): %q", len(lines), lines)
	}
	if lines[0] != "time,value" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "0.5,0.25" {
		t.Errorf("sample row = %q, want 0.5,0.25", lines[2])
	}
	if lines[5] != "2,1" {
		t.Errorf("last row = %q, want 2,1", lines[5])
	}
}

func TestSamplesExport_Errors(t *testing.T) {
	_, router := testEnv(t, "")

	// Missing path.
	req := httptest.NewRequest(http.MethodGet, "/samples", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing path = %d, want 400", w.Code)
	}

	// Unknown file.
	req = httptest.NewRequest(http.MethodGet, "/samples?path=nope.pwl", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown file = %d, want 404", w.Code)
	}

	// Bad timestep.
	createWaveform(t, router, "ok.pwl", "0 0\n1u 1")
	req = httptest.NewRequest(http.MethodGet, "/samples?path=ok.pwl&timestep=-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad timestep = %d, want 400", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvFull(t, true, "secret", stubSSEHandler())

	// No token → 401.
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	_, router := testEnvFull(t, false, "", stubSSEHandler())

	// Disabled mode → should not 401. SSE handler will write 200 and block,
	// so we cancel the context after a short time.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvFull(t, true, "tok", stubSSEHandler())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// stubSSEHandler writes headers and blocks until the request context is done.
func stubSSEHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}
