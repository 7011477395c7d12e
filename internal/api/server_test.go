package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/planora/internal/audit"
	"github.com/fentz26/planora/internal/llm"
	"github.com/fentz26/planora/internal/models"
	"github.com/fentz26/planora/internal/probe"
	"github.com/fentz26/planora/internal/selector"
	"github.com/fentz26/planora/internal/store"
)

type stubProvider struct {
	name  string
	out   string
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.out, nil
}

func (s *stubProvider) Probe(ctx context.Context) error { return s.err }

func TestCreatePlanEndpoint(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	resp := postPlan(t, s, `{"goal": "Launch a mobile app in 3 weeks"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var created createPlanResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if created.ID == "" {
		t.Error("Expected plan id to be set")
	}
	if created.Method != models.MethodFallback {
		t.Errorf("Expected fallback method with no providers, got %s", created.Method)
	}
	if created.Category != "software-launch" || created.DurationDays != 21 {
		t.Errorf("Expected software-launch over 21 days, got %s/%d", created.Category, created.DurationDays)
	}
	if !created.Saved {
		t.Error("Expected plan to be saved")
	}
	if len(created.Tasks) == 0 || len(created.Milestones) == 0 {
		t.Fatalf("Expected tasks and milestones, got %d/%d", len(created.Tasks), len(created.Milestones))
	}

	// Attempt trail covers all three tiers
	if len(created.Metadata.Attempts) != 3 {
		t.Fatalf("Expected 3 attempts, got %+v", created.Metadata.Attempts)
	}
	last := created.Metadata.Attempts[2]
	if last.Tier != "fallback" || !last.OK {
		t.Errorf("Expected fallback success, got %+v", last)
	}
}

func TestCreatePlanEmptyGoal(t *testing.T) {
	local := &stubProvider{name: "ollama"}
	hosted := &stubProvider{name: "hosted"}
	s, cleanup := newTestServerWith(t, local, hosted)
	defer cleanup()

	for _, body := range []string{`{"goal": ""}`, `{"goal": "   "}`, `{}`} {
		resp := postPlan(t, s, body)
		if resp.Code != http.StatusBadRequest {
			t.Errorf("Body %s: expected status 400, got %d", body, resp.Code)
		}
		var e map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
			t.Fatalf("Failed to decode error: %v", err)
		}
		if e["error"] != "goal is required" {
			t.Errorf("Unexpected error message: %q", e["error"])
		}
	}

	// Input validation happens before any tier is consulted
	if local.calls != 0 || hosted.calls != 0 {
		t.Errorf("Providers were invoked for empty goals: local %d, hosted %d", local.calls, hosted.calls)
	}
}

func TestCreatePlanInvalidJSON(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	resp := postPlan(t, s, `{"goal": `)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}

func TestCreatePlanStoreFailure(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	sel := &selector.Selector{Sink: audit.NewRecorder(st)}
	prober := probe.New(nil, llm.ProbeConfig{IntervalSeconds: 1, TimeoutSeconds: 1})
	server := NewServer(NewService(st, sel), st, prober, "127.0.0.1:0")

	// Close the store so the save fails after generation succeeds
	st.Close()

	resp := postPlan(t, server, `{"goal": "launch an app in 2 weeks"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 despite store failure, got %d", resp.Code)
	}

	var created createPlanResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if created.Saved {
		t.Error("Expected saved=false when the store is down")
	}
	if created.StoreError == "" {
		t.Error("Expected store_error to carry the failure detail")
	}
	if len(created.Tasks) == 0 {
		t.Error("Generated plan should still be returned")
	}
}

func TestPlanEndpointMethodNotAllowed(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/plan", nil)
	w := httptest.NewRecorder()
	s.handlePlan(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestGetPlanRoundTrip(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	resp := postPlan(t, s, `{"goal": "plan a conference in 2 months"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("Create failed: %d", resp.Code)
	}
	var createdRaw map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body.Bytes(), &createdRaw); err != nil {
		t.Fatalf("Failed to decode create response: %v", err)
	}
	var planID string
	json.Unmarshal(createdRaw["id"], &planID)
	if planID == "" {
		t.Fatal("No plan id in create response")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/plan/"+planID, nil)
	w := httptest.NewRecorder()
	s.handlePlanByID(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var fetchedRaw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &fetchedRaw); err != nil {
		t.Fatalf("Failed to decode get response: %v", err)
	}

	// Task and milestone structure must round-trip byte-identical
	for _, key := range []string{"tasks", "milestones"} {
		if !bytes.Equal(createdRaw[key], fetchedRaw[key]) {
			t.Errorf("%s not byte-identical:\ncreated: %s\nfetched: %s", key, createdRaw[key], fetchedRaw[key])
		}
	}
}

func TestGetPlanNotFound(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/plan/no-such-id", nil)
	w := httptest.NewRecorder()
	s.handlePlanByID(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	var e map[string]string
	json.NewDecoder(w.Body).Decode(&e)
	if e["error"] != "plan not found" {
		t.Errorf("Unexpected error message: %q", e["error"])
	}
}

func TestDeletePlan(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	resp := postPlan(t, s, `{"goal": "learn go in 4 weeks"}`)
	var created createPlanResponse
	json.NewDecoder(resp.Body).Decode(&created)

	req := httptest.NewRequest(http.MethodDelete, "/api/plan/"+created.ID, nil)
	w := httptest.NewRecorder()
	s.handlePlanByID(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"deleted":true`) {
		t.Errorf("Unexpected delete response: %s", w.Body.String())
	}

	// Gone now
	req = httptest.NewRequest(http.MethodGet, "/api/plan/"+created.ID, nil)
	w = httptest.NewRecorder()
	s.handlePlanByID(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}

	// Second delete reports missing
	req = httptest.NewRequest(http.MethodDelete, "/api/plan/"+created.ID, nil)
	w = httptest.NewRecorder()
	s.handlePlanByID(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w.Code)
	}
}

func TestListPlans(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	postPlan(t, s, `{"goal": "first goal"}`)
	postPlan(t, s, `{"goal": "second goal"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/plans", nil)
	w := httptest.NewRecorder()
	s.handlePlans(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var list listPlansResponse
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if list.Count != 2 || len(list.Plans) != 2 {
		t.Fatalf("Expected 2 plans, got count %d / %d entries", list.Count, len(list.Plans))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/plans?limit=1", nil)
	w = httptest.NewRecorder()
	s.handlePlans(w, req)
	json.NewDecoder(w.Body).Decode(&list)
	if list.Count != 1 {
		t.Errorf("Expected limit to cap results, got %d", list.Count)
	}
}

func TestPlanAttemptsEndpoint(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	resp := postPlan(t, s, `{"goal": "write a thesis in 6 weeks"}`)
	var created createPlanResponse
	json.NewDecoder(resp.Body).Decode(&created)

	req := httptest.NewRequest(http.MethodGet, "/api/plan/"+created.ID+"/attempts", nil)
	w := httptest.NewRecorder()
	s.handlePlanByID(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var recs []models.AttemptRecord
	if err := json.NewDecoder(w.Body).Decode(&recs); err != nil {
		t.Fatalf("Failed to decode attempts: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("Expected 3 attempt records, got %d", len(recs))
	}
	if recs[2].Tier != "fallback" || recs[2].Outcome != "ok" {
		t.Errorf("Unexpected final attempt: %+v", recs[2])
	}
}

func TestHealthEndpoint_OK(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if !health.OK {
		t.Error("Expected health.OK to be true")
	}
	if health.DB != "ok" {
		t.Errorf("Expected DB status 'ok', got '%s'", health.DB)
	}
	if health.Version == "" {
		t.Error("Expected version to be set")
	}
	if health.Time == "" {
		t.Error("Expected time to be set")
	}
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestHealthEndpoint_DBError(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	sel := &selector.Selector{}
	prober := probe.New(nil, llm.ProbeConfig{IntervalSeconds: 1, TimeoutSeconds: 1})
	server := NewServer(NewService(st, sel), st, prober, "127.0.0.1:0")

	// Close the store to simulate DB error
	st.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	server.handleHealth(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if health.OK {
		t.Error("Expected health.OK to be false when DB is down")
	}
	if health.DB == "ok" {
		t.Error("Expected DB status to indicate error")
	}
}

func TestLLMStatusEndpoint(t *testing.T) {
	local := &stubProvider{name: "ollama", err: llm.ErrNoJSON}
	hosted := &stubProvider{name: "hosted", err: llm.ErrNoAPIKey}
	s, cleanup := newTestServerWith(t, local, hosted)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/llm-status", nil)
	w := httptest.NewRecorder()
	s.handleLLMStatus(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var status LLMStatusResponse
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status.CurrentMethod != "fallback" {
		t.Errorf("Expected fallback with both model tiers down, got %s", status.CurrentMethod)
	}
	if len(status.Tiers) != 3 {
		t.Fatalf("Expected 3 tiers, got %d", len(status.Tiers))
	}
	if status.Tiers[2].Name != "fallback" || !status.Tiers[2].Available {
		t.Errorf("Fallback tier must be available: %+v", status.Tiers[2])
	}

	// Local tier recovers; a forced refresh must pick it up
	local.err = nil
	req = httptest.NewRequest(http.MethodGet, "/api/llm-status?refresh=true", nil)
	w = httptest.NewRecorder()
	s.handleLLMStatus(w, req)
	json.NewDecoder(w.Body).Decode(&status)
	if status.CurrentMethod != "ollama" {
		t.Errorf("Expected ollama after refresh, got %s", status.CurrentMethod)
	}
}

func postPlan(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/plan", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handlePlan(w, req)
	return w
}

func newTestServer(t *testing.T) (*Server, func()) {
	return newTestServerWith(t, nil, nil)
}

func newTestServerWith(t *testing.T, local, hosted llm.Provider) (*Server, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	sel := &selector.Selector{
		Local:         local,
		Hosted:        hosted,
		LocalTimeout:  time.Second,
		HostedTimeout: time.Second,
		Sink:          audit.NewRecorder(st),
	}

	var providers []llm.Provider
	if local != nil {
		providers = append(providers, local)
	}
	if hosted != nil {
		providers = append(providers, hosted)
	}
	prober := probe.New(providers, llm.ProbeConfig{IntervalSeconds: 1, TimeoutSeconds: 1})

	service := NewService(st, sel)
	server := NewServer(service, st, prober, "127.0.0.1:0")

	cleanup := func() {
		st.Close()
	}
	return server, cleanup
}
