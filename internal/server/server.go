// Package server exposes the conversions over HTTP: a health probe, the
// model cache status, and one endpoint per conversion. Audio responses are
// WAV bytes; every other output is JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/crossmodal/internal/audio"
	"github.com/example/crossmodal/internal/config"
	"github.com/example/crossmodal/internal/convert"
	"github.com/example/crossmodal/internal/hub"
	"github.com/example/crossmodal/internal/registry"
	"github.com/example/crossmodal/internal/tensor"
	"github.com/example/crossmodal/internal/text"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// ConversionService is the conversion surface the HTTP layer serves.
type ConversionService interface {
	TextToText(ctx context.Context, text string, detailed bool) (string, error)
	TextToImage(ctx context.Context, text string) (*tensor.Tensor, error)
	TextToVideo(ctx context.Context, text string) (*tensor.Tensor, error)
	TextToAudio(ctx context.Context, text string) (convert.Audio, error)
	ImageToText(ctx context.Context, image *tensor.Tensor) (string, error)
	ImageToImage(ctx context.Context, image *tensor.Tensor) (*tensor.Tensor, error)
	ImageToVideo(ctx context.Context, image *tensor.Tensor) (*tensor.Tensor, error)
	ImageToAudio(ctx context.Context, image *tensor.Tensor) (convert.Audio, error)
}

// ModelLister reports which models are resident in the cache.
type ModelLister interface {
	Loaded() []string
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxBodyBytes   int
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxBodyBytes:   1 << 22,
		workers:        2,
		requestTimeout: 120 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxBodyBytes sets the maximum allowed request body size in bytes.
func WithMaxBodyBytes(n int) Option {
	return func(o *options) { o.maxBodyBytes = n }
}

// WithWorkers sets the maximum number of concurrent conversion calls.
// Zero disables throttling.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request conversion deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	conv   ConversionService
	models ModelLister
	opts   options
	sem    chan struct{} // semaphore for worker pool
	log    *slog.Logger
}

// NewHandler returns an http.Handler serving /health, /models, and the
// POST /convert/{from}-to-{to} endpoints.
func NewHandler(conv ConversionService, models ModelLister, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		conv:   conv,
		models: models,
		opts:   opts,
		log:    opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/models", h.handleModels)
	mux.HandleFunc("/convert/", h.handleConvert)
	return requestMiddleware(h.log, mux)
}

// requestMiddleware assigns every request an ID, logs completion, and turns
// handler panics into a 500 instead of tearing down the connection.
func requestMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic serving request",
					slog.String("request_id", id),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			log.Debug("request served",
				slog.String("request_id", id),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		}()

		next.ServeHTTP(w, r)
	})
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type modelStatus struct {
	ID     string `json:"id"`
	Loaded bool   `json:"loaded"`
}

func (h *handler) handleModels(w http.ResponseWriter, _ *http.Request) {
	loaded := make(map[string]bool)
	for _, id := range h.models.Loaded() {
		loaded[id] = true
	}

	statuses := make([]modelStatus, 0, len(hub.ModelIDs()))
	for _, id := range hub.ModelIDs() {
		statuses = append(statuses, modelStatus{ID: id, Loaded: loaded[id]})
	}
	writeJSON(w, http.StatusOK, statuses)
}

// tensorPayload is the JSON wire form of a float32 tensor.
type tensorPayload struct {
	Shape []int64   `json:"shape"`
	Data  []float32 `json:"data"`
}

type convertRequest struct {
	Text     string         `json:"text,omitempty"`
	Detailed bool           `json:"detailed,omitempty"`
	Image    *tensorPayload `json:"image,omitempty"`
}

func (h *handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	op := strings.TrimPrefix(r.URL.Path, "/convert/")

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.opts.maxBodyBytes))

	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds maximum size of %d bytes", h.opts.maxBodyBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	// Acquire a worker slot — honour context cancellation while waiting.
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
			// slot acquired
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return
		}
		defer func() { <-h.sem }()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	err := h.dispatch(ctx, w, op, req)
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		h.log.ErrorContext(r.Context(), "conversion failed",
			slog.String("op", op),
			slog.Int64("duration_ms", durationMS),
			slog.String("error", err.Error()),
		)
		writeConvertError(w, err)
		return
	}

	h.log.InfoContext(r.Context(), "conversion complete",
		slog.String("op", op),
		slog.Int64("duration_ms", durationMS),
	)
}

// dispatch routes the operation name to the conversion service and writes the
// success response. Errors are mapped to status codes by the caller.
func (h *handler) dispatch(ctx context.Context, w http.ResponseWriter, op string, req convertRequest) error {
	switch op {
	case "text-to-text":
		out, err := h.conv.TextToText(ctx, req.Text, req.Detailed)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, map[string]string{"text": out})
	case "text-to-image":
		out, err := h.conv.TextToImage(ctx, req.Text)
		if err != nil {
			return err
		}
		return writeTensor(w, out)
	case "text-to-video":
		out, err := h.conv.TextToVideo(ctx, req.Text)
		if err != nil {
			return err
		}
		return writeTensor(w, out)
	case "text-to-audio":
		out, err := h.conv.TextToAudio(ctx, req.Text)
		if err != nil {
			return err
		}
		return writeAudio(w, out)
	case "image-to-text":
		img, err := imageTensor(req)
		if err != nil {
			return err
		}
		out, err := h.conv.ImageToText(ctx, img)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, map[string]string{"text": out})
	case "image-to-image":
		img, err := imageTensor(req)
		if err != nil {
			return err
		}
		out, err := h.conv.ImageToImage(ctx, img)
		if err != nil {
			return err
		}
		return writeTensor(w, out)
	case "image-to-video":
		img, err := imageTensor(req)
		if err != nil {
			return err
		}
		out, err := h.conv.ImageToVideo(ctx, img)
		if err != nil {
			return err
		}
		return writeTensor(w, out)
	case "image-to-audio":
		img, err := imageTensor(req)
		if err != nil {
			return err
		}
		out, err := h.conv.ImageToAudio(ctx, img)
		if err != nil {
			return err
		}
		return writeAudio(w, out)
	default:
		return errUnknownOp(op)
	}
	return nil
}

func imageTensor(req convertRequest) (*tensor.Tensor, error) {
	if req.Image == nil {
		return nil, fmt.Errorf("%w: image field is required", convert.ErrBadInput)
	}
	t, err := tensor.New(req.Image.Data, req.Image.Shape)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", convert.ErrBadInput, err)
	}
	return t, nil
}

func writeTensor(w http.ResponseWriter, t *tensor.Tensor) error {
	data, err := t.Float32s()
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, tensorPayload{Shape: t.Shape(), Data: data})
	return nil
}

func writeAudio(w http.ResponseWriter, out convert.Audio) error {
	samples, err := out.Samples.Float32s()
	if err != nil {
		return err
	}
	wav, err := audio.EncodeWAV(samples, out.SampleRate)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
	return nil
}

type unknownOpError struct{ op string }

func (e *unknownOpError) Error() string {
	return fmt.Sprintf("unknown conversion %q", e.op)
}

func errUnknownOp(op string) error {
	return &unknownOpError{op: op}
}

// writeConvertError maps conversion errors onto HTTP status codes.
func writeConvertError(w http.ResponseWriter, err error) {
	var unknown *unknownOpError
	switch {
	case errors.As(err, &unknown):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, text.ErrEmptyText), errors.Is(err, convert.ErrBadInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrModelUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, "conversion timed out")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server — wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	conv            ConversionService
	models          ModelLister
	shutdownTimeout time.Duration
}

func New(cfg config.Config, conv ConversionService, models ModelLister) *Server {
	timeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{
		cfg:             cfg,
		conv:            conv,
		models:          models,
		shutdownTimeout: timeout,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Start(ctx context.Context) error {
	h := NewHandler(s.conv, s.models,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxBodyBytes(s.cfg.Server.MaxBodyBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// ProbeHTTP checks a running server's health endpoint.
func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
