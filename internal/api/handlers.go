package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bizmatch-workers/internal/catalog"
	"bizmatch-workers/internal/common/errors"
	"bizmatch-workers/internal/common/metrics"
	"bizmatch-workers/internal/common/observability"
	"bizmatch-workers/internal/recommendation"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
)

const metricsSource = "api"

type RecommendationsResponse struct {
	Recommendations []recommendation.Recommendation `json:"recommendations"`
	Total           int                             `json:"total"`
}

type BusinessResponse struct {
	catalog.BusinessOpportunity
	Slug string `json:"slug"`
}

type BusinessesResponse struct {
	Businesses []BusinessResponse `json:"businesses"`
	Total      int                `json:"total"`
}

type CategoryResponse struct {
	Name       catalog.Category `json:"name"`
	Businesses []string         `json:"businesses"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// recommend scores a questionnaire form posted as the request body. The
// optional limit query parameter caps the returned list; total counts every
// match.
func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.obs.StartSpan(r.Context(), "api.recommend")
	var spanErr error
	defer func() { observability.EndSpan(span, spanErr) }()

	limit := s.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			spanErr = errors.NewInvalidFilterFormatError("limit must be a non-negative integer")
			s.writeStandardError(w, r, spanErr)
			return
		}
		limit = n
	}

	var form map[string]interface{}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&form); err != nil {
		spanErr = err
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", "Request body must be a JSON object", err.Error())
		return
	}

	profile, filters, err := recommendation.ParseForm(form)
	if err != nil {
		spanErr = err
		s.writeStandardError(w, r, err)
		return
	}

	recs, hit, cacheErr := s.cache.Recommend(ctx, s.engine, profile, filters)
	if cacheErr != nil {
		s.logger.Warn("recommendation cache unavailable", map[string]interface{}{
			"error":     cacheErr,
			"requestId": chimiddleware.GetReqID(r.Context()),
		})
	}

	total := len(recs)
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	top := 0
	if len(recs) > 0 {
		top = recs[0].MatchPercentage
	}
	metrics.ObserveRecommendations(metricsSource, top, len(recs))
	s.obs.RecordRecommendations(ctx, metricsSource, len(recs))
	span.SetAttributes(
		attribute.Int("recommendations.total", total),
		attribute.Bool("cache.hit", hit),
	)

	writeJSON(w, http.StatusOK, RecommendationsResponse{Recommendations: recs, Total: total})
}

func (s *Server) listBusinesses(w http.ResponseWriter, r *http.Request) {
	c := s.engine.Catalog()
	entries := c.Entries()

	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		category, err := catalog.ParseCategory(raw)
		if err != nil {
			s.writeStandardError(w, r, errors.NewInvalidFilterFormatError(err.Error()))
			return
		}
		allowed := c.TitlesFor(category)
		filtered := entries[:0]
		for _, b := range entries {
			if allowed.Has(b.Title) {
				filtered = append(filtered, b)
			}
		}
		entries = filtered
	}

	out := make([]BusinessResponse, len(entries))
	for i, b := range entries {
		out[i] = BusinessResponse{BusinessOpportunity: b, Slug: b.Slug()}
	}
	writeJSON(w, http.StatusOK, BusinessesResponse{Businesses: out, Total: len(out)})
}

func (s *Server) getBusiness(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(chi.URLParam(r, "slug"))
	b, ok := s.engine.Catalog().Lookup(slug)
	if !ok {
		s.writeStandardError(w, r, errors.NewBusinessNotFoundError(slug))
		return
	}
	writeJSON(w, http.StatusOK, BusinessResponse{BusinessOpportunity: b, Slug: b.Slug()})
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	c := s.engine.Catalog()
	out := make([]CategoryResponse, 0, len(catalog.Categories))
	for _, category := range catalog.Categories {
		titles := c.CategoryTitles(category)
		if titles == nil {
			titles = []string{}
		}
		out = append(out, CategoryResponse{Name: category, Businesses: titles})
	}
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: out})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// readinessTimeout bounds each dependency probe on /ready.
const readinessTimeout = 3 * time.Second

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status":       state,
		"time":         time.Now().UTC().Format(time.RFC3339),
		"catalog":      s.engine.Catalog().Version(),
		"dependencies": results,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // nothing useful to do once the header is written
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message, details string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: w.Header().Get(requestIDHeader),
	}})
}

func (s *Server) writeStandardError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := errors.Normalize(err)
	status := statusFor(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"path":      r.URL.Path,
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
	}
	writeError(w, status, string(stdErr.Code), stdErr.Message, stdErr.Details)
}

func statusFor(code errors.ErrorCode) int {
	switch errors.GetErrorCategory(code) {
	case "VALIDATION":
		return http.StatusBadRequest
	case "LOOKUP":
		return http.StatusNotFound
	case "CACHE", "DATABASE":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
