package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/estensen/chain-dashboard/internal/dashboard"
	"github.com/estensen/chain-dashboard/internal/models"
	"github.com/estensen/chain-dashboard/internal/render"
)

// SummaryBuilder produces one dashboard summary per call.
type SummaryBuilder interface {
	Build(ctx context.Context) (*models.Summary, error)
}

// Server represents the web UI with necessary dependencies.
type Server struct {
	Builder  SummaryBuilder
	Renderer *render.Renderer
	Logger   *zap.Logger
}

// NewServer initializes a new web UI server instance.
func NewServer(builder SummaryBuilder, renderer *render.Renderer, logger *zap.Logger) *Server {
	return &Server{
		Builder:  builder,
		Renderer: renderer,
		Logger:   logger,
	}
}

// Router registers the dashboard routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.DashboardHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/summary", s.SummaryHandler).Methods(http.MethodGet)
	r.HandleFunc("/healthz", LivenessHandler).Methods(http.MethodGet)
	return r
}

// DashboardHandler fetches fresh data and renders the chart page.
func (s *Server) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Builder.Build(r.Context())
	if err != nil {
		s.writeDiagnostic(w, err)
		return
	}

	var buf bytes.Buffer
	if err := s.Renderer.Page(&buf, summary); err != nil {
		s.Logger.Error("rendering dashboard failed", zap.String("run_id", summary.RunID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// SummaryHandler returns the dataset and both rankings as JSON.
func (s *Server) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Builder.Build(r.Context())
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{
			"error": err.Error(),
			"class": string(dashboard.ClassOf(err)),
		})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// LivenessHandler reports that the process is serving.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) writeDiagnostic(w http.ResponseWriter, err error) {
	d := render.Diagnostic{
		Class:   string(dashboard.ClassOf(err)),
		Message: err.Error(),
	}
	var stageErr *dashboard.StageError
	if errors.As(err, &stageErr) {
		d.RunID = stageErr.RunID
		d.Message = stageErr.Err.Error()
	}

	var buf bytes.Buffer
	if rerr := s.Renderer.ErrorPage(&buf, d); rerr != nil {
		s.Logger.Error("rendering diagnostic failed", zap.Error(rerr))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusFor(err))
	_, _ = w.Write(buf.Bytes())
}

// statusFor maps upstream failures to 502 and everything else to 500.
func statusFor(err error) int {
	switch dashboard.ClassOf(err) {
	case dashboard.ClassAPI, dashboard.ClassWarehouse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StartServer serves the router until ctx is cancelled.
func StartServer(ctx context.Context, addr string, writeTimeout time.Duration, server *Server) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		server.Logger.Info("dashboard server is running", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
