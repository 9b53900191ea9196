// Package chi exposes the computed artifacts over HTTP: cluster sets, the
// per-user feed, nearby search, and fire-and-forget batch job triggers.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spontime/geocore/internal/domain"
	"github.com/spontime/geocore/internal/domain/geo"
	clusteringuc "github.com/spontime/geocore/internal/usecase/clustering"
	healthuc "github.com/spontime/geocore/internal/usecase/health"
	recouc "github.com/spontime/geocore/internal/usecase/reco"
	searchuc "github.com/spontime/geocore/internal/usecase/search"
)

// ClusterSource reads a scope's current cluster set.
type ClusterSource interface {
	ListByScope(ctx context.Context, scope domain.Scope) ([]domain.Cluster, error)
}

// FeedSource reads a user's latest recommendation snapshot.
type FeedSource interface {
	Latest(ctx context.Context, userID string) (domain.RecoSnapshot, error)
}

// NearbySearcher answers proximity queries.
type NearbySearcher interface {
	Search(ctx context.Context, q searchuc.Query) ([]searchuc.Hit, error)
}

// ClusteringRunner runs the full clustering batch.
type ClusteringRunner interface {
	RunAll(ctx context.Context) clusteringuc.Summary
}

// RecoRunner runs the full recommendation batch.
type RecoRunner interface {
	GenerateAll(ctx context.Context, now time.Time) (recouc.Summary, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the HTTP API.
type Server struct {
	clusters   ClusterSource
	feed       FeedSource
	search     NearbySearcher
	clustering ClusteringRunner
	reco       RecoRunner
	health     HealthChecker
	logger     *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	clusters ClusterSource,
	feed FeedSource,
	search NearbySearcher,
	clustering ClusteringRunner,
	reco RecoRunner,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		clusters:   clusters,
		feed:       feed,
		search:     search,
		clustering: clustering,
		reco:       reco,
		health:     health,
		logger:     logger,
	}
}

// Routes mounts every endpoint on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/v1/clusters", s.GetClusters)
	r.Get("/v1/feed/{userID}", s.GetFeed)
	r.Get("/v1/plans/nearby", s.GetNearby)
	r.Post("/v1/jobs/clustering", s.TriggerClustering)
	r.Post("/v1/jobs/recommendations", s.TriggerRecommendations)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// GetClusters handles GET /v1/clusters?scope=.
func (s *Server) GetClusters(w http.ResponseWriter, r *http.Request) {
	scope := domain.Scope(r.URL.Query().Get("scope"))
	if !scope.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown_scope", "scope must be one of places, venues, plans")
		return
	}

	clusters, err := s.clusters.ListByScope(r.Context(), scope)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if clusters == nil {
		clusters = []domain.Cluster{}
	}

	writeJSON(w, http.StatusOK, clustersResponse{
		Scope:    scope,
		Clusters: clusters,
	})
}

// GetFeed handles GET /v1/feed/{userID}. Items are returned sorted by score
// descending; the stored snapshot keeps scoring order.
func (s *Server) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	snap, err := s.feed.Latest(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]domain.RecoItem, len(snap.Items))
	copy(items, snap.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	snap.Items = items

	writeJSON(w, http.StatusOK, snap)
}

// GetNearby handles GET /v1/plans/nearby.
func (s *Server) GetNearby(w http.ResponseWriter, r *http.Request) {
	q, err := parseNearbyQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	hits, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if hits == nil {
		hits = []searchuc.Hit{}
	}

	writeJSON(w, http.StatusOK, nearbyResponse{
		Hits:  hits,
		Total: len(hits),
	})
}

// TriggerClustering handles POST /v1/jobs/clustering. The batch runs in the
// background; the caller never blocks on it.
func (s *Server) TriggerClustering(w http.ResponseWriter, r *http.Request) {
	go func() {
		sum := s.clustering.RunAll(context.Background())
		s.logger.Info("triggered clustering batch finished",
			zap.Int("scopes", sum.Scopes),
			zap.Int("clusters", sum.Clusters),
			zap.Int("failures", sum.Failures),
		)
	}()

	writeJSON(w, http.StatusAccepted, jobResponse{Status: "accepted", Job: "clustering"})
}

// TriggerRecommendations handles POST /v1/jobs/recommendations.
func (s *Server) TriggerRecommendations(w http.ResponseWriter, r *http.Request) {
	go func() {
		sum, err := s.reco.GenerateAll(context.Background(), time.Now())
		if err != nil {
			s.logger.Error("triggered recommendation batch failed", zap.Error(err))
			return
		}
		s.logger.Info("triggered recommendation batch finished",
			zap.Int("users", sum.Users),
			zap.Int("generated", sum.Generated),
			zap.Int("failures", sum.Failures),
		)
	}()

	writeJSON(w, http.StatusAccepted, jobResponse{Status: "accepted", Job: "recommendations"})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func parseNearbyQuery(r *http.Request) (searchuc.Query, error) {
	values := r.URL.Query()

	lat, err := strconv.ParseFloat(values.Get("lat"), 64)
	if err != nil {
		return searchuc.Query{}, errors.New("lat is required and must be a number")
	}
	lon, err := strconv.ParseFloat(values.Get("lon"), 64)
	if err != nil {
		return searchuc.Query{}, errors.New("lon is required and must be a number")
	}

	q := searchuc.Query{Center: geo.Point{Lat: lat, Lon: lon}, Now: time.Now()}

	if raw := values.Get("radius_km"); raw != "" {
		if q.RadiusKm, err = strconv.ParseFloat(raw, 64); err != nil {
			return searchuc.Query{}, errors.New("radius_km must be a number")
		}
	}
	if raw := values.Get("window_hours"); raw != "" {
		if q.WindowHours, err = strconv.ParseFloat(raw, 64); err != nil {
			return searchuc.Query{}, errors.New("window_hours must be a number")
		}
	}
	if raw := values.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				q.Tags = append(q.Tags, tag)
			}
		}
	}

	return q, nil
}

type clustersResponse struct {
	Scope    domain.Scope     `json:"scope"`
	Clusters []domain.Cluster `json:"clusters"`
}

type nearbyResponse struct {
	Hits  []searchuc.Hit `json:"hits"`
	Total int            `json:"total"`
}

type jobResponse struct {
	Status string `json:"status"`
	Job    string `json:"job"`
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidCoordinate,
		domain.ErrUnknownScope,
		domain.ErrInsufficientData,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", msg)
	case errors.Is(err, domain.ErrInvalidCoordinate):
		writeError(w, http.StatusBadRequest, "invalid_coordinate", msg)
	case errors.Is(err, domain.ErrUnknownScope):
		writeError(w, http.StatusBadRequest, "unknown_scope", msg)
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
