package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sgu-cli/internal/logging"
	"sgu-cli/internal/model"
	"sgu-cli/internal/remote"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultAddr     = "127.0.0.1:8080"
	DefaultBasePath = "/api/users"

	maxBodyBytes = 1 << 20
	tracerName   = "sgu-cli/internal/server"
)

type Config struct {
	Addr string
	// BasePath is the collection path; items live at BasePath/{id}.
	BasePath string
}

type Server struct {
	cfg     Config
	repo    Repository
	log     logrus.FieldLogger
	metrics *Metrics
	tracer  trace.Tracer
}

func New(cfg Config, repo Repository, log logrus.FieldLogger) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	cfg.BasePath = "/" + strings.Trim(strings.TrimSpace(cfg.BasePath), "/")
	if cfg.BasePath == "/" {
		cfg.BasePath = DefaultBasePath
	}
	if strings.ContainsAny(cfg.BasePath, "{} ") {
		return nil, errors.New("server: invalid base path " + cfg.BasePath)
	}
	if repo == nil {
		return nil, errors.New("server: repository is nil")
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Server{
		cfg:     cfg,
		repo:    repo,
		log:     log,
		metrics: NewMetrics(),
		tracer:  otel.Tracer(tracerName),
	}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }
func (s *Server) Metrics() *Metrics { return s.metrics }

func (s *Server) Handler() http.Handler {
	base := s.cfg.BasePath
	item := base + "/{id}"

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	s.route(mux, "GET "+base, s.handleList)
	s.route(mux, "POST "+base, s.handleCreate)
	s.route(mux, "GET "+item, s.handleGet)
	s.route(mux, "PUT "+item, s.handleUpdate)
	s.route(mux, "DELETE "+item, s.handleDelete)
	mux.HandleFunc("OPTIONS "+base, s.handlePreflight)
	mux.HandleFunc("OPTIONS "+item, s.handlePreflight)
	return withCORS(mux)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- hs.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger)

// route registers h under pattern with request ids, tracing, logging and metrics.
func (s *Server) route(mux *http.ServeMux, pattern string, h handlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := strings.TrimSpace(r.Header.Get(remote.RequestIDHeader))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(remote.RequestIDHeader, reqID)

		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := s.tracer.Start(ctx, pattern, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w}
		log := s.log.WithFields(logrus.Fields{"route": pattern, "request_id": reqID})
		h(rec, r.WithContext(ctx), log)

		code := rec.code
		if code == 0 {
			code = http.StatusOK
		}
		elapsed := time.Since(start)
		span.SetAttributes(attribute.Int("http.response.status_code", code))
		s.metrics.observe(pattern, code, elapsed)
		log.WithFields(logrus.Fields{"status": code, "elapsed": elapsed.Round(time.Microsecond)}).Debug("served")
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Expose-Headers", remote.RequestIDHeader)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, "+remote.RequestIDHeader+", traceparent")
	h.Set("Access-Control-Max-Age", "3600")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger) {
	users, err := s.repo.List(r.Context())
	if err != nil {
		s.fail(w, log, err)
		return
	}
	s.metrics.users.Set(float64(len(users)))
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, err := s.repo.Get(r.Context(), id)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger) {
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	u, err := s.repo.Create(r.Context(), f)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	log.WithField("id", u.ID).Info("user created")
	w.Header().Set("Location", s.cfg.BasePath+"/"+u.ID.String())
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	u, err := s.repo.Update(r.Context(), id, f)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	log.WithField("id", u.ID).Info("user updated")
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.repo.Delete(r.Context(), id); err != nil {
		s.fail(w, log, err)
		return
	}
	log.WithField("id", id).Info("user deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error(), nil)
		return
	}
	log.WithError(err).Error("repository failure")
	writeError(w, http.StatusInternalServerError, "internal error", nil)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid id: "+raw, nil)
		return 0, false
	}
	return id, true
}

// decodeFields reads a user body; any id in it is ignored in favor of the path.
func decodeFields(w http.ResponseWriter, r *http.Request) (model.Fields, bool) {
	var u model.User
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return model.Fields{}, false
	}
	f := u.Fields().Normalize()
	if err := f.Validate(); err != nil {
		var ve *model.ValidationError
		var problems []string
		if errors.As(err, &ve) {
			for _, fe := range ve.Problems() {
				problems = append(problems, fe.Error())
			}
		}
		writeError(w, http.StatusBadRequest, err.Error(), problems)
		return model.Fields{}, false
	}
	return f, true
}

type errorBody struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func writeError(w http.ResponseWriter, code int, msg string, problems []string) {
	writeJSON(w, code, errorBody{Error: msg, Problems: problems})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
