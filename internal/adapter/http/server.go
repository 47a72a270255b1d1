package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/ride-check/internal/adapter/openweather"
	"github.com/couchcryptid/ride-check/internal/domain"
	"github.com/couchcryptid/ride-check/internal/pipeline"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// RideChecker produces a report for a city name.
type RideChecker interface {
	Check(ctx context.Context, city string) (domain.Report, error)
}

type selectionRequest struct {
	City string `json:"city" validate:"required,max=64"`
}

// Server exposes the ride API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	checker    RideChecker
	selection  domain.SelectionStore
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the ride API mounted under /api/v1.
func NewServer(addr string, checker RideChecker, selection domain.SelectionStore, ready ReadinessChecker, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		checker:   checker,
		selection: selection,
		validate:  validator.New(),
		logger:    logger,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.logRequests)
		r.Get("/cities", s.handleCities)
		r.Get("/cities/{city}/verdict", s.handleCityVerdict)
		r.Get("/selection", s.handleGetSelection)
		r.Put("/selection", s.handlePutSelection)
		r.Get("/verdict", s.handleSelectedVerdict)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleCities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cities": domain.Cities()})
}

func (s *Server) handleCityVerdict(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "city"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid city")
		return
	}
	s.writeReport(w, r, name)
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	city, err := s.selection.Load(r.Context())
	if err != nil {
		s.logger.Error("load selection failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load selection")
		return
	}
	if city == "" {
		writeError(w, http.StatusNotFound, "no city selected")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"city": city})
}

// handlePutSelection saves the city before checking it, so the selection
// survives a provider failure.
func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	city, ok := domain.LookupCity(req.City)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrUnknownCity.Error()+": "+req.City)
		return
	}
	if err := s.selection.Save(r.Context(), city.Name); err != nil {
		s.logger.Error("save selection failed", "city", city.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save selection")
		return
	}
	s.logger.Info("city selected", "city", city.Name)

	s.writeReport(w, r, city.Name)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
		return "city name too long"
	}
	return "city is required"
}

func (s *Server) handleSelectedVerdict(w http.ResponseWriter, r *http.Request) {
	city, err := s.selection.Load(r.Context())
	if err != nil {
		s.logger.Error("load selection failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load selection")
		return
	}
	if city == "" {
		writeError(w, http.StatusNotFound, "no city selected")
		return
	}
	s.writeReport(w, r, city)
}

func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, city string) {
	report, err := s.checker.Check(r.Context(), city)
	if err != nil {
		status, msg := errorResponse(err)
		if status >= http.StatusInternalServerError {
			s.logger.Warn("ride check failed", "city", city, "status", status, "error", err)
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// errorResponse maps a check error to an HTTP status and a rider-facing message.
func errorResponse(err error) (int, string) {
	switch pipeline.Classify(err) {
	case pipeline.KindUnknownCity:
		return http.StatusNotFound, err.Error()
	case pipeline.KindPrecondition, pipeline.KindInvalidSample:
		return http.StatusUnprocessableEntity, err.Error()
	case pipeline.KindConfig:
		return http.StatusServiceUnavailable, openweather.MissingAPIKeyMessage
	case pipeline.KindProvider:
		var perr *openweather.ProviderError
		if errors.As(err, &perr) && perr.Message != "" {
			return http.StatusBadGateway, perr.Message
		}
		return http.StatusBadGateway, err.Error()
	case pipeline.KindParse, pipeline.KindUnavailable:
		return http.StatusBadGateway, err.Error()
	case pipeline.KindCanceled:
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
