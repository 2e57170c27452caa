package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/risk"
	"github.com/carmandale/spy-fly/internal/selector"
	"github.com/carmandale/spy-fly/internal/ws"
)

// Scanner is the part of the selector the HTTP layer needs.
type Scanner interface {
	Scan(ctx context.Context, req selector.ScanRequest) (*selector.ScanResult, error)
	State() selector.State
	LastMarketContext() (selector.MarketContext, bool)
}

type Server struct {
	scanner            Scanner
	defaultAccountSize float64
	reload             *ReloadManager
	hub                *ws.Hub
	logger             *zap.Logger
}

// NewServer builds the handlers. defaultAccountSize is used when a request
// omits account_size. reload and hub may be nil.
func NewServer(scanner Scanner, defaultAccountSize float64, reload *ReloadManager, hub *ws.Hub, logger *zap.Logger) *Server {
	return &Server{
		scanner:            scanner,
		defaultAccountSize: defaultAccountSize,
		reload:             reload,
		hub:                hub,
		logger:             logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status   string `json:"status"`
	State    string `json:"state"`
	Snapshot string `json:"snapshot,omitempty"`
}

// Health reports liveness and the selector's current state.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", State: string(s.scanner.State())}
	if s.reload != nil {
		resp.Snapshot = s.reload.CurrentPath()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetRecommendations runs a scan.
//
//	GET /api/v1/recommendations?account_size=10000&max=5&force_refresh=true
func (s *Server) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseScanRequest(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := s.scanner.Scan(r.Context(), req)
	if err != nil {
		if errors.Is(err, selector.ErrInvalidAccountSize) {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.logger.Error("scan failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "scan failed"})
		return
	}

	if s.hub != nil {
		ws.PublishScan(s.hub, result, s.logger)
	}
	s.writeJSON(w, http.StatusOK, result)
}

// GetMarketContext returns the context captured by the most recent scan.
func (s *Server) GetMarketContext(w http.ResponseWriter, r *http.Request) {
	mc, ok := s.scanner.LastMarketContext()
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no scan has run yet"})
		return
	}
	s.writeJSON(w, http.StatusOK, mc)
}

type reloadRequest struct {
	Path string `json:"path"`
}

type reloadResponse struct {
	PreviousPath  string    `json:"previous_path"`
	Path          string    `json:"path"`
	LoadedAt      time.Time `json:"loaded_at"`
	EntriesPurged int       `json:"entries_purged"`
}

// Reload swaps the market data snapshot. An empty body re-reads the
// current file.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	var req reloadRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
	}

	result, err := s.reload.Reload(r.Context(), req.Path)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrReloadInProgress) {
			status = http.StatusConflict
		}
		s.writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, reloadResponse{
		PreviousPath:  result.PreviousPath,
		Path:          result.Path,
		LoadedAt:      result.LoadedAt,
		EntriesPurged: result.EntriesPurged,
	})
}

func (s *Server) parseScanRequest(r *http.Request) (selector.ScanRequest, error) {
	q := r.URL.Query()
	req := selector.ScanRequest{AccountSize: s.defaultAccountSize}

	if v := q.Get("account_size"); v != "" {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, errors.New("account_size must be a number")
		}
		req.AccountSize = size
	}
	if !risk.ValidAccountSize(req.AccountSize) {
		return req, selector.ErrInvalidAccountSize
	}

	if v := q.Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, errors.New("max must be a positive integer")
		}
		req.MaxRecommendations = n
	}

	if v := q.Get("force_refresh"); v != "" {
		force, err := strconv.ParseBool(v)
		if err != nil {
			return req, errors.New("force_refresh must be a boolean")
		}
		req.ForceRefresh = force
	}

	return req, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

// Compile-time interface verification
var _ Scanner = (*selector.Selector)(nil)
