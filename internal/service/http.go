package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"lina/internal/engine"
	"lina/internal/logging"
)

// QueryRequest is the POST /query body.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse is the POST /query reply.
type QueryResponse struct {
	SessionID  string `json:"session_id"`
	Decision   string `json:"decision"`
	Output     string `json:"output"`
	Terminated bool   `json:"terminated"`
}

// HealthResponse is the GET /health reply.
type HealthResponse struct {
	Status         string `json:"status"`
	StoreAvailable bool   `json:"store_available"`
	StoredRecords  int64  `json:"stored_records"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Serve runs the HTTP surface until ctx is cancelled.
func (s *Service) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/query", s.handleQuery)

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logging.Server("HTTP surface listening on %s", addr)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	count, err := s.StoreCount()
	if err != nil {
		count = 0
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		StoreAvailable: s.StoreAvailable(),
		StoredRecords:  count,
	})
}

func (s *Service) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	result, err := s.Invoke(r.Context(), req.SessionID, req.Query)
	if err != nil {
		logging.ServerError("Query failed: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrRoutingFailure) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		SessionID:  result.State.ID,
		Decision:   string(result.Decision),
		Output:     result.Output,
		Terminated: result.Terminated,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
