// Package chi is the thin HTTP shell over the engine's library boundary.
// It defines no retrieval semantics of its own.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	spyglass "github.com/crowsnest-io/spyglass"
	"github.com/crowsnest-io/spyglass/internal/domain"
	"github.com/crowsnest-io/spyglass/internal/usecase/gaps"
	"github.com/crowsnest-io/spyglass/internal/usecase/health"
)

// Server exposes the engine operations over HTTP.
type Server struct {
	engine   *spyglass.Engine
	health   *health.Service
	maxLimit int
	logger   *zap.Logger
}

// NewServer creates the HTTP server.
func NewServer(engine *spyglass.Engine, healthSvc *health.Service, logger *zap.Logger) *Server {
	return &Server{engine: engine, health: healthSvc, logger: logger}
}

// WithMaxLimit caps caller-supplied result limits. Zero means no cap.
func (s *Server) WithMaxLimit(n int) *Server {
	s.maxLimit = n
	return s
}

// Routes mounts the handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.handleSearch)
	r.Post("/v1/duplicates", s.handleDuplicates)
	r.Post("/v1/gaps", s.handleGaps)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
}

type searchRequest struct {
	Query     string   `json:"query"`
	Ref       *itemRef `json:"ref,omitempty"`
	Threshold float64  `json:"threshold,omitempty"`
	Limit     *int     `json:"limit,omitempty"`
	Sources   []string `json:"sources,omitempty"`
	TimeoutMS int      `json:"timeout_ms,omitempty"`
}

type itemRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type searchResultDTO struct {
	Type        string         `json:"type"`
	ItemID      string         `json:"item_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Score       float64        `json:"score"`
	Origin      string         `json:"origin"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	opts := spyglass.DefaultSearchOptions()
	opts.Threshold = req.Threshold
	if req.Limit != nil {
		opts.Limit = *req.Limit
	}
	if s.maxLimit > 0 && opts.Limit > s.maxLimit {
		opts.Limit = s.maxLimit
	}
	for _, src := range req.Sources {
		opts.Sources = append(opts.Sources, spyglass.SourceType(src))
	}
	if req.TimeoutMS > 0 {
		opts.Timeout = time.Duration(req.TimeoutMS) * time.Millisecond
	}

	q := spyglass.Query{Text: req.Query}
	if req.Ref != nil {
		q.Ref = &spyglass.ItemRef{Type: spyglass.SourceType(req.Ref.Type), ID: req.Ref.ID}
	}

	results, err := s.engine.Search(r.Context(), q, &opts)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidLimit):
			writeError(w, http.StatusBadRequest, "invalid_limit", err.Error())
		case errors.Is(err, domain.ErrAllSourcesUnavailable):
			writeError(w, http.StatusServiceUnavailable, "all_sources_unavailable", err.Error())
		default:
			s.logger.Error("search failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	dtos := make([]searchResultDTO, 0, len(results))
	for _, res := range results {
		dtos = append(dtos, searchResultDTO{
			Type:        string(res.Type),
			ItemID:      res.ItemID,
			Title:       res.Title,
			Description: res.Description,
			Score:       res.Score,
			Origin:      string(res.Origin),
			Metadata:    metadataToMap(res.Metadata),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": dtos})
}

type duplicatesRequest struct {
	Variant string     `json:"variant"`
	Items   []itemDTO  `json:"items,omitempty"`
	Scan    *scanInput `json:"scan,omitempty"`
}

type itemDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type scanInput struct {
	Limit int `json:"limit"`
}

type duplicatePairDTO struct {
	ItemA      string  `json:"item_a_id"`
	ItemB      string  `json:"item_b_id"`
	Similarity float64 `json:"similarity"`
	Variant    string  `json:"variant"`
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	var req duplicatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	variant := spyglass.SourceType(req.Variant)
	if !variant.Valid() {
		writeError(w, http.StatusBadRequest, "bad_request", "unknown variant")
		return
	}

	var (
		pairs []spyglass.DuplicatePair
		err   error
	)
	if req.Scan != nil {
		pairs, err = s.engine.ScanSourceForDuplicates(r.Context(), variant, req.Scan.Limit)
	} else {
		batch := make([]spyglass.ContentItem, 0, len(req.Items))
		for _, it := range req.Items {
			batch = append(batch, spyglass.ContentItem{
				Type:        variant,
				ID:          it.ID,
				Title:       it.Title,
				Description: it.Description,
			})
		}
		pairs, err = s.engine.FindDuplicates(r.Context(), variant, batch)
	}
	if err != nil {
		if errors.Is(err, domain.ErrBatchTooLarge) {
			writeError(w, http.StatusBadRequest, "batch_too_large", err.Error())
			return
		}
		s.logger.Error("duplicate scan failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	dtos := make([]duplicatePairDTO, 0, len(pairs))
	for _, p := range pairs {
		dtos = append(dtos, duplicatePairDTO{
			ItemA:      p.ItemA,
			ItemB:      p.ItemB,
			Similarity: p.Similarity,
			Variant:    string(p.Type),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"pairs": dtos})
}

type gapsRequest struct {
	Keywords []keywordCoverageDTO `json:"keywords"`
}

type keywordCoverageDTO struct {
	KeywordID  string  `json:"keyword_id"`
	Demand     float64 `json:"demand"`
	Difficulty float64 `json:"difficulty"`
	Coverage   uint32  `json:"coverage"`
}

type gapEntryDTO struct {
	KeywordID   string  `json:"keyword_id"`
	Demand      float64 `json:"demand_score"`
	Difficulty  float64 `json:"difficulty_score"`
	Coverage    uint32  `json:"coverage_count"`
	Opportunity float64 `json:"opportunity_score"`
}

func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	var req gapsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	keywords := make([]gaps.KeywordCoverage, 0, len(req.Keywords))
	for _, kw := range req.Keywords {
		keywords = append(keywords, gaps.KeywordCoverage{
			KeywordID:  kw.KeywordID,
			Demand:     kw.Demand,
			Difficulty: kw.Difficulty,
			Coverage:   kw.Coverage,
		})
	}

	entries := s.engine.AnalyzeGaps(keywords)

	dtos := make([]gapEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, gapEntryDTO{
			KeywordID:   e.KeywordID,
			Demand:      e.Demand,
			Difficulty:  e.Difficulty,
			Coverage:    e.Coverage,
			Opportunity: e.Opportunity,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": dtos})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == health.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func metadataToMap(m spyglass.Metadata) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for _, f := range m {
		out[f.Key] = f.Value
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}
