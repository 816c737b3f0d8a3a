// Package board serves the live results board: ranking and clock over HTTP,
// timing writes from tablets on the race network, and a websocket feed.
package board

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/clock"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/export"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timecalc"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timing"
)

// Reconciler is the timing API the board drives.
type Reconciler interface {
	RecordFinish(ctx context.Context, bib int, monitor, elapsed string) timing.Outcome
	RecordDelayedStart(ctx context.Context, bib int, monitor, elapsed string) timing.Outcome
	CheckIn(ctx context.Context, bib int, monitor string) timing.Outcome
	ComputeRanking(ctx context.Context) ([]model.RankingEntry, error)
	RankingFor(ctx context.Context, bib int) (model.RankingEntry, bool, error)
}

// Clock stamps writes received over HTTP.
type Clock interface {
	Stamp() string
	Reference() (clock.Reference, bool)
}

// DefaultMonitor names writes that arrive without a monitor.
const DefaultMonitor = "painel"

// Server is the results board.
type Server struct {
	rc       Reconciler
	clock    Clock
	hub      *Hub
	gatherer prometheus.Gatherer
	monitor  string
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer exposes the given registry at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithMonitor sets the monitor name used when a request carries none.
func WithMonitor(name string) Option {
	return func(s *Server) { s.monitor = name }
}

// New creates a board server.
func New(rc Reconciler, clk Clock, hub *Hub, opts ...Option) *Server {
	s := &Server{rc: rc, clock: clk, hub: hub, gatherer: prometheus.DefaultGatherer, monitor: DefaultMonitor}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the board's routes wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /api/ranking", s.handleRanking)
	mux.HandleFunc("GET /api/ranking.csv", s.handleRankingCSV)
	mux.HandleFunc("GET /api/clock", s.handleClock)
	mux.HandleFunc("POST /api/finish", s.handleWrite(model.EventFinish))
	mux.HandleFunc("POST /api/delayed-start", s.handleWrite(model.EventDelayedStart))
	mux.HandleFunc("POST /api/checkin", s.handleWrite(model.EventCheckIn))
	mux.HandleFunc("GET /ws", s.hub.ServeWS)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet, http.MethodPost},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return logRequests(c.Handler(mux))
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	hubCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("results board listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("results board stopped")
	return nil
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("bib"); q != "" {
		bib, err := timing.ParseBib(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		entry, ok, err := s.rc.RankingFor(r.Context(), bib)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to compute ranking")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "runner not found")
			return
		}
		writeJSON(w, http.StatusOK, entry)
		return
	}

	ranking, err := s.rc.ComputeRanking(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute ranking")
		return
	}
	if ranking == nil {
		ranking = []model.RankingEntry{}
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (s *Server) handleRankingCSV(w http.ResponseWriter, r *http.Request) {
	ranking, err := s.rc.ComputeRanking(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute ranking")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="classificacao.csv"`)
	if err := export.WriteCSV(w, ranking); err != nil {
		log.Error().Err(err).Msg("failed to write CSV export")
	}
}

type clockResponse struct {
	Source    string `json:"source"`
	Reference string `json:"reference"`
	Stamp     string `json:"stamp"`
	SyncError string `json:"sync_error,omitempty"`
}

func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.clock.Reference()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "clock not resolved")
		return
	}
	resp := clockResponse{
		Source:    ref.Source,
		Reference: timecalc.FormatElapsed(ref.Offset),
		Stamp:     s.clock.Stamp(),
	}
	if ref.SyncErr != nil {
		resp.SyncError = ref.SyncErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

type writeRequest struct {
	Bib     int    `json:"numero_corredor"`
	Monitor string `json:"monitor"`
}

type writeResponse struct {
	timing.Outcome
	Message string `json:"message"`
}

func (s *Server) handleWrite(kind model.EventType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req writeRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Monitor == "" {
			req.Monitor = s.monitor
		}

		var o timing.Outcome
		switch kind {
		case model.EventFinish:
			o = s.rc.RecordFinish(r.Context(), req.Bib, req.Monitor, s.clock.Stamp())
		case model.EventDelayedStart:
			o = s.rc.RecordDelayedStart(r.Context(), req.Bib, req.Monitor, s.clock.Stamp())
		default:
			o = s.rc.CheckIn(r.Context(), req.Bib, req.Monitor)
		}
		writeJSON(w, statusFor(o.Kind), writeResponse{Outcome: o, Message: o.Message()})
	}
}

func statusFor(k timing.OutcomeKind) int {
	switch k {
	case timing.Created, timing.CheckedIn:
		return http.StatusCreated
	case timing.Updated, timing.Deleted:
		return http.StatusOK
	case timing.AlreadyRecorded, timing.FinishDominates, timing.DuplicateBib:
		return http.StatusConflict
	case timing.InvalidInput:
		return http.StatusBadRequest
	case timing.NotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is required by the websocket upgrade on /ws.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("status", strconv.Itoa(rec.status)).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
