// Package httpapi exposes one inference session over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"edgellm/internal/rag"
	"edgellm/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() ([]types.Model, error)
	Status() types.StatusResponse
	Chat(ctx context.Context, message string, w io.Writer, flush func()) error
	SetSystemPrompt(content string) error
	Switch(ctx context.Context, modelID string) error
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints; NDJSON is not in the default type list.
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(corsMiddleware())
	}

	r.Get("/models", handleModels(svc))
	r.Post("/models/{id}/load", handleSwitch(svc))
	r.Get("/status", handleStatus(svc))
	r.Post("/chat", handleChat(svc))
	r.Post("/system", handleSystem(svc))
	r.Post("/chunk", handleChunk)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

// handleModels lists the models available to load.
//
// @Summary  List models
// @Tags     models
// @Produce  json
// @Success  200  {object}  types.ModelsResponse
// @Failure  500  {object}  types.ErrorResponse
// @Router   /models [get]
func handleModels(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		models, err := svc.ListModels()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: models})
	}
}

// handleSwitch starts loading another model from the models directory.
//
// @Summary  Switch model
// @Tags     models
// @Produce  json
// @Param    id   path      string  true  "model file name"
// @Success  202  {object}  types.SwitchResponse
// @Failure  404  {object}  types.ErrorResponse
// @Failure  429  {object}  types.ErrorResponse
// @Failure  503  {object}  types.ErrorResponse
// @Router   /models/{id}/load [post]
func handleSwitch(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.Switch(serverBaseCtx, id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, types.SwitchResponse{Model: id, State: "loading"})
	}
}

// handleStatus reports the session state and throughput.
//
// @Summary  Session status
// @Tags     session
// @Produce  json
// @Success  200  {object}  types.StatusResponse
// @Router   /status [get]
func handleStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	}
}

// handleChat streams the response to one user message as NDJSON.
//
// @Summary      Chat
// @Description  Streams {"token": ...} lines followed by a final types.ChatDone line.
// @Description  An error after streaming started is reported as a final types.ErrorResponse line.
// @Tags         session
// @Accept       json
// @Produce      application/x-ndjson
// @Param        request  body      types.ChatRequest  true  "user message"
// @Success      200      {object}  types.ChatDone
// @Failure      400      {object}  types.ErrorResponse
// @Failure      409      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /chat [post]
func handleChat(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeJSONError(w, http.StatusBadRequest, "message is required")
			return
		}

		var flush func()
		if f, ok := w.(http.Flusher); ok {
			flush = f.Flush
		}
		sw := &streamWriter{w: w}
		writer := io.Writer(sw)
		lvl := requestLogLevel(r)
		if lvl >= LevelDebug {
			writer = io.MultiWriter(sw, &loggingLineWriter{log: requestLogger(r)})
		}
		start := time.Now()
		if lvl >= LevelInfo {
			requestLogger(r).Info().Int("message_bytes", len(req.Message)).Msg("chat start")
		}

		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if chatTimeout > 0 {
			var tcancel context.CancelFunc
			ctx, tcancel = context.WithTimeout(ctx, time.Duration(chatTimeout)*time.Second)
			defer tcancel()
		}

		err := svc.Chat(ctx, req.Message, writer, flush)
		status := http.StatusOK
		switch {
		case err == nil:
		case r.Context().Err() != nil:
			// Client went away; nothing left to tell it.
			status = 499
		case sw.started:
			status = statusForError(err)
			line, _ := json.Marshal(types.ErrorResponse{Error: err.Error(), Code: status})
			_, _ = sw.Write(append(line, '\n'))
			if flush != nil {
				flush()
			}
		default:
			status = writeServiceError(w, err)
		}
		logChatEnd(r, lvl, status, time.Since(start), err)
	}
}

func logChatEnd(r *http.Request, lvl LogLevel, status int, dur time.Duration, err error) {
	if lvl < LevelInfo && (lvl < LevelError || err == nil) {
		return
	}
	log := requestLogger(r)
	ev := log.Info()
	if err != nil && status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Int("status", status).Dur("dur", dur).Err(err).Msg("chat end")
}

func requestLogger(r *http.Request) zerolog.Logger {
	l := zlog.With().Str("path", r.URL.Path)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		l = l.Str("request_id", rid)
	}
	return l.Logger()
}

// handleSystem replaces the conversation's system prompt.
//
// @Summary  Set system prompt
// @Tags     session
// @Accept   json
// @Param    request  body  types.SystemPromptRequest  true  "system prompt"
// @Success  204
// @Failure  400  {object}  types.ErrorResponse
// @Failure  409  {object}  types.ErrorResponse
// @Failure  429  {object}  types.ErrorResponse
// @Router   /system [post]
func handleSystem(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SystemPromptRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			writeJSONError(w, http.StatusBadRequest, "content is required")
			return
		}
		if err := svc.SetSystemPrompt(req.Content); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleChunk splits text into overlapping word windows.
//
// @Summary  Chunk text
// @Tags     rag
// @Accept   json
// @Produce  json
// @Param    request  body      types.ChunkRequest  true  "text and window"
// @Success  200      {object}  types.ChunkResponse
// @Failure  400      {object}  types.ErrorResponse
// @Router   /chunk [post]
func handleChunk(w http.ResponseWriter, r *http.Request) {
	var req types.ChunkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	size, overlap := req.ChunkSize, req.ChunkOverlap
	if size == 0 {
		size, overlap = chunkSize, chunkOverlap
	}
	sp, err := rag.NewTextSplitter(size, overlap)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	chunks := sp.Split(req.Text)
	if chunks == nil {
		chunks = []string{}
	}
	writeJSON(w, http.StatusOK, types.ChunkResponse{Chunks: chunks})
}

// decodeJSON enforces the JSON content type and body limit. It writes the
// error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Err(err).Msg("encode response")
	}
}

// streamWriter sets the NDJSON content type on first write and remembers
// that the status line has gone out.
type streamWriter struct {
	w       http.ResponseWriter
	started bool
}

func (s *streamWriter) Write(p []byte) (int, error) {
	if !s.started {
		s.w.Header().Set("Content-Type", "application/x-ndjson")
		s.started = true
	}
	return s.w.Write(p)
}
