package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"edgellm/internal/chattemplate"
	"edgellm/internal/common/fsutil"
	"edgellm/internal/engine"
	"edgellm/internal/gguf"
	"edgellm/pkg/types"
)

// Config wires a session to its collaborators. Only Engine is required.
type Config struct {
	Engine    engine.Engine
	Logger    *zerolog.Logger
	Publisher EventPublisher
	// Now overrides the wall clock used for generation timing.
	Now func() time.Time
}

// Session coordinates one model handle, the conversation history and the
// generation metrics. All methods are safe for concurrent use.
type Session struct {
	mu  sync.Mutex
	id  string
	eng engine.Engine
	log zerolog.Logger
	pub EventPublisher
	now func() time.Time

	state     State
	created   time.Time
	handle    engine.Handle
	modelPath string
	params    InferenceParams
	ctxSize   int
	tmpl      *chattemplate.Template
	bos, eos  string

	history   []types.Message
	last      GenerationMetrics // most recent completed pass
	completed bool              // at least one pass completed since load
	active    *TokenStream

	genCh chan struct{} // size 1: single in-flight generation
}

// New returns an unloaded session.
func New(cfg Config) *Session {
	s := &Session{
		id:    uuid.NewString(),
		eng:   cfg.Engine,
		log:   zerolog.Nop(),
		pub:   cfg.Publisher,
		now:   cfg.Now,
		state: StateUnloaded,
		genCh: make(chan struct{}, 1),
	}
	if cfg.Logger != nil {
		s.log = *cfg.Logger
	}
	if s.pub == nil {
		s.pub = noopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.eng == nil {
		s.eng = engine.NewLlama()
	}
	s.log = s.log.With().Str("session", s.id).Logger()
	s.created = s.now()
	return s
}

// Open creates a session and loads modelPath into it.
func Open(ctx context.Context, cfg Config, modelPath string, params InferenceParams) (*Session, error) {
	s := New(cfg)
	if err := s.Load(ctx, modelPath, params); err != nil {
		return nil, err
	}
	return s, nil
}

// Load validates params, reads the model metadata and loads the model through
// the engine. It is only valid on an unloaded session; a failed load leaves
// the session unloaded so the caller may retry.
func (s *Session) Load(ctx context.Context, modelPath string, params InferenceParams) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return sessionClosedError{op: "load"}
	case StateLoading, StateGenerating:
		st := s.state
		s.mu.Unlock()
		return sessionBusyError{op: "load", state: st}
	case StateReady:
		p := s.modelPath
		s.mu.Unlock()
		return alreadyLoadedError{path: p}
	}
	s.state = StateLoading
	s.mu.Unlock()

	s.pub.Publish(Event{Name: "load_start", SessionID: s.id, Fields: map[string]any{"path": modelPath}})
	start := time.Now()
	res, err := s.load(ctx, modelPath, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateUnloaded
		kind := "error"
		var le *LoadError
		if errors.As(err, &le) {
			kind = string(le.Kind)
		}
		loadsTotal.WithLabelValues(kind).Inc()
		s.log.Error().Err(err).Str("path", modelPath).Msg("model load failed")
		s.pub.Publish(Event{Name: "load_failed", SessionID: s.id, Fields: map[string]any{"path": modelPath, "error": err.Error()}})
		return err
	}
	s.handle = res.handle
	s.modelPath = res.path
	s.params = params
	s.ctxSize = res.ctxSize
	s.tmpl = res.tmpl
	s.bos, s.eos = res.bos, res.eos
	s.history = nil
	s.last = GenerationMetrics{}
	s.completed = false
	s.state = StateReady
	loadsTotal.WithLabelValues("ok").Inc()
	s.log.Info().
		Str("path", res.path).
		Int("context_size", res.ctxSize).
		Str("template", res.templateSource).
		Dur("dur", time.Since(start)).
		Msg("model loaded")
	s.pub.Publish(Event{Name: "load_done", SessionID: s.id, Fields: map[string]any{"path": res.path, "context_size": res.ctxSize}})
	return nil
}

type loadResult struct {
	handle         engine.Handle
	path           string
	ctxSize        int
	tmpl           *chattemplate.Template
	templateSource string
	bos, eos       string
}

func (s *Session) load(ctx context.Context, modelPath string, params InferenceParams) (loadResult, error) {
	var res loadResult
	if err := params.Validate(); err != nil {
		return res, &LoadError{Kind: LoadInvalidParams, Path: modelPath, Err: err}
	}
	path, err := fsutil.ResolvePath(modelPath)
	if err != nil {
		return res, &LoadError{Kind: LoadFileNotFound, Path: modelPath, Err: err}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return res, &LoadError{Kind: LoadFileNotFound, Path: path, Err: err}
	}
	if !fi.Mode().IsRegular() {
		return res, &LoadError{Kind: LoadUnsupportedFormat, Path: path, Err: fmt.Errorf("not a regular file")}
	}
	md, err := gguf.Open(path)
	if err != nil {
		return res, &LoadError{Kind: LoadUnsupportedFormat, Path: path, Err: err}
	}

	res.path = path
	res.ctxSize = params.ContextSize
	if res.ctxSize == 0 {
		if n, ok := md.ContextSize(); ok {
			res.ctxSize = n
		}
	}

	def := chattemplate.DefaultSpec()
	res.bos, res.eos = def.BOSToken, def.EOSToken
	if params.BOSToken != "" {
		res.bos = params.BOSToken
	}
	if params.EOSToken != "" {
		res.eos = params.EOSToken
	}
	switch embedded, ok := md.ChatTemplate(); {
	case params.ChatTemplate != "":
		t, err := chattemplate.Compile(params.ChatTemplate)
		if err != nil {
			return res, &LoadError{Kind: LoadInvalidParams, Path: path, Err: err}
		}
		res.tmpl, res.templateSource = t, "params"
	case ok && embedded != "":
		t, err := chattemplate.Compile(embedded)
		if err == nil {
			res.tmpl, res.templateSource = t, "model"
			break
		}
		s.log.Warn().Err(err).Str("path", path).Msg("embedded chat template not supported, using default")
		fallthrough
	default:
		t, err := chattemplate.Compile(def.Template)
		if err != nil {
			return res, err
		}
		res.tmpl, res.templateSource = t, "default"
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	h, err := s.eng.Load(path, engine.Options{
		ContextSize: res.ctxSize,
		Threads:     params.NumThreads,
		UseMmap:     params.UseMmap,
		UseMlock:    params.UseMlock,
		Temperature: params.Temperature,
		MinP:        params.MinP,
		MaxTokens:   params.MaxTokens,
		StopWords:   stopWords(res.eos),
	})
	switch {
	case err == nil:
	case engine.IsDependencyUnavailable(err):
		return res, err
	case engine.IsOutOfMemory(err):
		return res, &LoadError{Kind: LoadOutOfMemory, Path: path, Err: err}
	default:
		return res, &LoadError{Kind: LoadUnsupportedFormat, Path: path, Err: err}
	}
	res.handle = h
	return res, nil
}

func stopWords(eos string) []string {
	if eos == "" {
		return nil
	}
	return []string{eos}
}

// Close releases the model handle. It fails with a busy error while a load
// or generation is in progress, and is a no-op on a closed session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateClosed:
		return nil
	case StateLoading, StateGenerating:
		return sessionBusyError{op: "close", state: s.state}
	}
	var err error
	if s.handle != nil {
		err = s.handle.Close()
		s.handle = nil
	}
	s.history = nil
	s.tmpl = nil
	s.state = StateClosed
	s.log.Info().Msg("session closed")
	s.pub.Publish(Event{Name: "close", SessionID: s.id, Fields: map[string]any{}})
	if err != nil {
		return fmt.Errorf("close model: %w", err)
	}
	return nil
}

// checkReady returns the error for op given the current state. Caller holds s.mu.
func (s *Session) checkReady(op string) error {
	switch s.state {
	case StateReady:
		return nil
	case StateClosed:
		return sessionClosedError{op: op}
	case StateUnloaded:
		return notLoadedError{op: op}
	default:
		return sessionBusyError{op: op, state: s.state}
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready reports whether the session can accept a generation right now.
func (s *Session) Ready() bool { return s.State() == StateReady }

// ModelPath returns the loaded model path, or "" before a load.
func (s *Session) ModelPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modelPath
}

// ContextSize returns the runtime context size; 0 means the engine default.
func (s *Session) ContextSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctxSize
}

// Params returns the parameters of the current load.
func (s *Session) Params() InferenceParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// History returns a copy of the conversation history.
func (s *Session) History() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Metrics returns the metrics of the most recent completed generation.
func (s *Session) Metrics() GenerationMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// ResponseGenerationSpeed returns tokens per second. It is 0 until a
// generation completes; afterwards it tracks the generation in progress once
// that has produced a token, else the most recent completed one.
func (s *Session) ResponseGenerationSpeed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.completed {
		return 0
	}
	if s.active != nil {
		if m := s.active.Metrics(); m.TokensGenerated > 0 {
			return m.TokensPerSecond()
		}
	}
	return s.last.TokensPerSecond()
}

var _ io.Closer = (*Session)(nil)
