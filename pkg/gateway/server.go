package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sameehj/talentrelay/pkg/relay"
	"github.com/sameehj/talentrelay/pkg/version"
)

const (
	maxBodyBytes           = 100 << 10
	defaultShutdownTimeout = 10 * time.Second

	msgMessageRequired = "Message is required."
	msgServerError     = "Server error."
)

// Asker answers one relay request.
type Asker interface {
	Handle(ctx context.Context, req relay.Request) (relay.Response, error)
}

type Server struct {
	addr            string
	asker           Asker
	static          fs.FS
	origins         OriginPolicy
	shutdownTimeout time.Duration
	logger          *slog.Logger
	started         time.Time

	mu        sync.Mutex
	exchanges map[string]*Exchange
}

func NewServer(addr string, asker Asker, static fs.FS, origins OriginPolicy) *Server {
	if static == nil {
		static = noFiles{}
	}
	if origins == nil {
		origins = AnyOrigin{}
	}
	return &Server{
		addr:            addr,
		asker:           asker,
		static:          static,
		origins:         origins,
		shutdownTimeout: defaultShutdownTimeout,
		started:         time.Now(),
		exchanges:       make(map[string]*Exchange),
	}
}

func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Server) SetShutdownTimeout(d time.Duration) {
	if d > 0 {
		s.shutdownTimeout = d
	}
}

// Handler returns the full HTTP surface: the API routes, the health check and
// the static single-page app as catch-all.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask-talent", s.handleAsk)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /", spaHandler(s.static, func(err error) {
		s.logWarn("static_index_missing", "error", err)
	}))
	return s.withRequestLog(withCORS(s.origins, mux))
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then drains in-flight requests
// for up to the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		shutdownErr <- httpServer.Shutdown(shutdownCtx)
	}()

	s.logInfo("server_listening", "addr", ln.Addr().String())
	if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logError("serve_failed", "error", err)
		return err
	}
	if err := <-shutdownErr; err != nil {
		s.logWarn("shutdown_incomplete", "error", err, "in_flight", s.exchangeCount())
		return err
	}
	s.logInfo("server_stopped")
	return nil
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id := requestID(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req relay.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logDebug("ask_body_invalid", "request_id", id, "error", err)
		writeError(w, http.StatusBadRequest, msgMessageRequired)
		return
	}

	ex := &Exchange{ID: id, RemoteAddr: r.RemoteAddr, StartedAt: time.Now()}
	s.register(ex)
	defer s.unregister(ex)

	resp, err := s.asker.Handle(r.Context(), req)
	if err != nil {
		if errors.Is(err, relay.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, msgMessageRequired)
			return
		}
		args := []any{"request_id", id, "remote", ex.RemoteAddr, "error", err, "elapsed", time.Since(ex.StartedAt)}
		var upErr *relay.UpstreamError
		if errors.As(err, &upErr) {
			args = append(args, "stage", upErr.Stage, "session", upErr.SessionID)
		}
		s.logError("assistant_call_failed", args...)
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	exchanges := s.ListExchanges()
	payload := map[string]any{
		"status":   "ok",
		"version":  version.Get(),
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"inFlight": len(exchanges),
	}
	if oldest := oldestExchange(exchanges); oldest != nil {
		payload["oldestInFlight"] = time.Since(oldest.StartedAt).Round(time.Millisecond).String()
	}
	writeJSON(w, http.StatusOK, payload)
}

func oldestExchange(exchanges []*Exchange) *Exchange {
	var oldest *Exchange
	for _, ex := range exchanges {
		if oldest == nil || ex.StartedAt.Before(oldest.StartedAt) {
			oldest = ex
		}
	}
	return oldest
}

func (s *Server) register(ex *Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges[ex.ID] = ex
}

// unregister removes ex unless a later exchange reused its request id.
func (s *Server) unregister(ex *Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exchanges[ex.ID] == ex {
		delete(s.exchanges, ex.ID)
	}
}

func (s *Server) exchangeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exchanges)
}

// ListExchanges returns a snapshot of the /ask-talent requests in flight.
func (s *Server) ListExchanges() []*Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Exchange, 0, len(s.exchanges))
	for _, ex := range s.exchanges {
		out = append(out, ex)
	}
	return out
}

func (s *Server) Addr() string {
	return s.addr
}

type ctxKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
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

// withRequestLog assigns a request id, echoes it in X-Request-ID and logs the
// completed request.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		s.logDebug("http_request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type noFiles struct{}

func (noFiles) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func (s *Server) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Server) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Server) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}

func (s *Server) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
