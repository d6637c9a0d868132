//go:build llama

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// Llama is the in-process llama.cpp engine.
type Llama struct{}

// NewLlama returns the llama.cpp engine.
func NewLlama() Engine { return Llama{} }

// Available reports whether this binary was built with llama support.
func Available() bool { return true }

func (Llama) Load(modelPath string, opts Options) (Handle, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	mo := []llama.ModelOption{llama.SetMMap(opts.UseMmap)}
	if opts.ContextSize > 0 {
		mo = append(mo, llama.SetContext(opts.ContextSize))
	}
	if opts.UseMlock {
		mo = append(mo, llama.EnableMLock)
	}
	m, err := llama.New(modelPath, mo...)
	if err != nil {
		if looksLikeAllocFailure(err.Error()) {
			return nil, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
		}
		return nil, err
	}
	return &llamaHandle{model: m, opts: opts}, nil
}

// llamaHandle turns go-llama.cpp's push-style token callback into pulls.
// Predict runs on its own goroutine; the callback blocks on an unbuffered
// channel until Next takes the token, so the model never runs ahead of the
// consumer by more than one token.
type llamaHandle struct {
	model *llama.LLama
	opts  Options

	mu   sync.Mutex
	pass *predictPass
}

type predictPass struct {
	tokens chan string
	stop   chan struct{}
	done   chan struct{}
	err    error // set before done is closed
	once   sync.Once
}

func (p *predictPass) abort() { p.once.Do(func() { close(p.stop) }) }

func (h *llamaHandle) Prime(ctx context.Context, prompt string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model == nil {
		return errors.New("llama model not initialized")
	}
	if h.pass != nil {
		h.pass.abort()
		<-h.pass.done
	}
	p := &predictPass{
		tokens: make(chan string),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	h.pass = p
	h.model.SetTokenCallback(func(tok string) bool {
		select {
		case p.tokens <- tok:
			return true
		case <-p.stop:
			return false
		}
	})
	po := predictOptions(h.opts)
	go func() {
		_, err := h.model.Predict(prompt, po...)
		p.err = err
		close(p.done)
	}()
	return nil
}

func (h *llamaHandle) Next(ctx context.Context) (string, error) {
	h.mu.Lock()
	p := h.pass
	h.mu.Unlock()
	if p == nil {
		return "", errors.New("llama: Next called before Prime")
	}
	select {
	case tok := <-p.tokens:
		return tok, nil
	case <-p.done:
		if p.err != nil {
			return "", p.err
		}
		return "", io.EOF
	case <-ctx.Done():
		p.abort()
		return "", ctx.Err()
	}
}

func (h *llamaHandle) Abort() error {
	h.mu.Lock()
	p := h.pass
	h.pass = nil
	h.mu.Unlock()
	if p != nil {
		p.abort()
		<-p.done
	}
	return nil
}

func (h *llamaHandle) Close() error {
	_ = h.Abort()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model != nil {
		h.model.Free()
		h.model = nil
	}
	return nil
}

// predictOptions converts Options into go-llama.cpp predict options. The
// pinned binding exposes no min-p sampler, so MinP is not forwarded.
func predictOptions(o Options) []llama.PredictOption {
	tokens := o.MaxTokens
	if tokens <= 0 {
		tokens = o.ContextSize
	}
	po := []llama.PredictOption{
		llama.SetThreads(max(1, o.Threads)),
		llama.SetTemperature(o.Temperature),
	}
	if tokens > 0 {
		po = append(po, llama.SetTokens(tokens))
	}
	if len(o.StopWords) > 0 {
		po = append(po, llama.SetStopWords(o.StopWords...))
	}
	return po
}
