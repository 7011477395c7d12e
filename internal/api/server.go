package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/planora/internal/models"
	"github.com/fentz26/planora/internal/probe"
	"github.com/fentz26/planora/internal/store"
)

// Server provides the HTTP API for Planora.
type Server struct {
	service *Service
	store   *store.Store
	prober  *probe.Prober
	addr    string
	server  *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(service *Service, st *store.Store, prober *probe.Prober, addr string) *Server {
	return &Server{
		service: service,
		store:   st,
		prober:  prober,
		addr:    addr,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Plan endpoints
	mux.HandleFunc("/api/plan", s.handlePlan)
	mux.HandleFunc("/api/plan/", s.handlePlanByID)
	mux.HandleFunc("/api/plans", s.handlePlans)

	// Introspection endpoints
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/llm-status", s.handleLLMStatus)

	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:        s.addr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		// Generation may ride out both model tiers before falling back
		WriteTimeout: 120 * time.Second,
	}

	log.Printf("Starting Planora daemon on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handlePlan handles POST /api/plan
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createPlan(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handlePlanByID handles /api/plan/{id}/*
func (s *Server) handlePlanByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/plan/")
	parts := strings.Split(path, "/")

	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "plan id required")
		return
	}

	planID := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getPlan(w, r, planID)
	case action == "" && r.Method == http.MethodDelete:
		s.deletePlan(w, r, planID)
	case action == "attempts" && r.Method == http.MethodGet:
		s.getPlanAttempts(w, r, planID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// --- Plan Handlers ---

type createPlanRequest struct {
	Goal string `json:"goal"`
}

// createPlanResponse is the canonical plan plus the persistence outcome.
// A failed save never masks a generated plan.
type createPlanResponse struct {
	*models.Plan
	Saved      bool   `json:"saved"`
	StoreError string `json:"store_error,omitempty"`
}

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := s.service.CreatePlan(r.Context(), req.Goal)
	if err != nil {
		status := http.StatusInternalServerError
		if err == ErrEmptyGoal {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	resp := createPlanResponse{Plan: res.Plan, Saved: res.Saved}
	if res.SaveErr != nil {
		resp.StoreError = res.SaveErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request, planID string) {
	plan, err := s.service.GetPlan(planID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if plan == nil {
		writeError(w, http.StatusNotFound, ErrPlanNotFound.Error())
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) deletePlan(w http.ResponseWriter, r *http.Request, planID string) {
	deleted, err := s.service.DeletePlan(planID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, ErrPlanNotFound.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"deleted":true}`))
}

func (s *Server) getPlanAttempts(w http.ResponseWriter, r *http.Request, planID string) {
	recs, err := s.service.PlanAttempts(planID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if recs == nil {
		recs = []models.AttemptRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

type listPlansResponse struct {
	Plans []models.PlanSummary `json:"plans"`
	Count int                  `json:"count"`
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	summaries, err := s.service.ListPlans(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if summaries == nil {
		summaries = []models.PlanSummary{}
	}
	writeJSON(w, http.StatusOK, listPlansResponse{Plans: summaries, Count: len(summaries)})
}

// --- Introspection Handlers ---

// HealthResponse reports daemon liveness and database reachability.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		resp.OK = false
		resp.DB = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// LLMStatusResponse is the tier availability snapshot.
type LLMStatusResponse struct {
	CurrentMethod   string              `json:"current_method"`
	Tiers           []models.TierStatus `json:"tiers"`
	OllamaInstalled bool                `json:"ollama_installed"`
}

func (s *Server) handleLLMStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if r.URL.Query().Get("refresh") == "true" {
		s.prober.Refresh(r.Context())
	}

	resp := LLMStatusResponse{
		CurrentMethod:   s.prober.CurrentMethod(),
		Tiers:           s.prober.Statuses(),
		OllamaInstalled: probe.OllamaInstalled(),
	}
	if resp.Tiers == nil {
		resp.Tiers = []models.TierStatus{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
