// Package chattemplate renders chat histories into model prompts.
//
// Templates are the Jinja documents GGUF models ship in their
// tokenizer.chat_template metadata. They are compiled and executed with
// gonja; the environment adds raise_exception and caps string repetition.
// Rendering is pure; the same history and Spec always produce the same prompt.
package chattemplate

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/nikolalohinski/gonja/v2/builtins"
	"github.com/nikolalohinski/gonja/v2/config"
	"github.com/nikolalohinski/gonja/v2/exec"
	"github.com/nikolalohinski/gonja/v2/loaders"

	"edgellm/pkg/types"
)

// Spec carries the template source and the marker strings exposed to it as
// bos_token and eos_token.
type Spec struct {
	Template string `json:"template" yaml:"template" toml:"template"`
	BOSToken string `json:"bos_token" yaml:"bos_token" toml:"bos_token"`
	EOSToken string `json:"eos_token" yaml:"eos_token" toml:"eos_token"`
}

// DefaultTemplate is a Llama-3 style template: one BOS marker before the
// first message, role headers around each trimmed message, and an open
// assistant header at the end.
const DefaultTemplate = "{% set loop_messages = messages %}" +
	"{% for message in loop_messages %}" +
	"{% set content = '<|start_header_id|>' + message['role'] + '<|end_header_id|>\n\n'+ message['content'] | trim + '<|eot_id|>' %}" +
	"{% if loop.index0 == 0 %}{% set content = bos_token + content %}{% endif %}" +
	"{{ content }}" +
	"{% endfor %}" +
	"{{ '<|start_header_id|>assistant<|end_header_id|>\n\n' }}"

// DefaultSpec returns the Llama-3 template with its markers.
func DefaultSpec() Spec {
	return Spec{Template: DefaultTemplate, BOSToken: "<|begin_of_text|>", EOSToken: "<|eot_id|>"}
}

// TemplateError reports a malformed template or a failure while rendering.
// Pos is the byte offset into the template source, Line is 1-based. Both are
// zero when the failure has no source position.
type TemplateError struct {
	Pos  int
	Line int
	Msg  string
}

func (e *TemplateError) Error() string {
	if e.Line == 0 {
		return "chat template: " + e.Msg
	}
	return fmt.Sprintf("chat template: line %d (offset %d): %s", e.Line, e.Pos, e.Msg)
}

// Template is a compiled chat template. It is safe for concurrent use.
type Template struct {
	tpl *exec.Template
}

var environment = newEnvironment()

func newEnvironment() *exec.Environment {
	filters := exec.NewFilterSet(map[string]exec.FilterFunction{}).Update(builtins.Filters)
	if err := filters.Register(repeatGuardFilter, guardRepeat); err != nil {
		panic(err)
	}
	return &exec.Environment{
		Context: exec.EmptyContext().
			Update(builtins.GlobalFunctions).
			Update(builtins.GlobalVariables).
			Update(exec.NewContext(map[string]any{"raise_exception": raiseException})),
		Filters:           filters,
		Tests:             builtins.Tests,
		ControlStructures: builtins.ControlStructures,
		Methods:           builtins.Methods,
	}
}

func raiseException(msg string) (string, error) {
	return "", errors.New(msg)
}

// Compile parses src.
func Compile(src string) (*Template, error) {
	id := fmt.Sprintf("chat-template-%x", sha256.Sum256([]byte(src)))
	tpl, err := exec.NewTemplate(id, config.New(), sourceLoader{id: id, src: src}, environment)
	if err != nil {
		return nil, compileError(src, err)
	}
	guardRepeats(tpl.Root())
	return &Template{tpl: tpl}, nil
}

// Render renders history with t. bos and eos are bound to bos_token and
// eos_token; add_generation_prompt is always true.
func (t *Template) Render(history []types.Message, bos, eos string) (string, error) {
	msgs := make([]any, len(history))
	for i, m := range history {
		msgs[i] = map[string]any{"role": string(m.Role), "content": m.Content}
	}
	out, err := t.tpl.ExecuteToString(exec.NewContext(map[string]any{
		"messages":              msgs,
		"bos_token":             bos,
		"eos_token":             eos,
		"add_generation_prompt": true,
	}))
	if err != nil {
		return "", &TemplateError{Msg: err.Error()}
	}
	return out, nil
}

// Render compiles spec.Template and renders history with it.
func Render(history []types.Message, spec Spec) (string, error) {
	t, err := Compile(spec.Template)
	if err != nil {
		return "", err
	}
	return t.Render(history, spec.BOSToken, spec.EOSToken)
}

var positionRe = regexp.MustCompile(`\(Line: (\d+) Col: (\d+)`)

func compileError(src string, err error) *TemplateError {
	msg := strings.TrimPrefix(err.Error(), fmt.Sprintf("failed to parse template '%s': ", src))
	m := positionRe.FindStringSubmatch(msg)
	if m == nil {
		return &TemplateError{Msg: msg}
	}
	line, _ := strconv.Atoi(m[1])
	col, _ := strconv.Atoi(m[2])
	return &TemplateError{Pos: offset(src, line, col), Line: line, Msg: msg}
}

// offset converts a 1-based line and column into a byte offset into src.
func offset(src string, line, col int) int {
	pos := 0
	for l := 1; l < line; l++ {
		i := strings.IndexByte(src[pos:], '\n')
		if i < 0 {
			return len(src)
		}
		pos += i + 1
	}
	pos += col - 1
	if pos < 0 {
		return 0
	}
	if pos > len(src) {
		return len(src)
	}
	return pos
}

// sourceLoader serves the template's own source and nothing else. Templates
// never read from disk.
type sourceLoader struct {
	id  string
	src string
}

func (l sourceLoader) Read(path string) (io.Reader, error) {
	if path != l.id {
		return nil, fmt.Errorf("template %q is not available", path)
	}
	return bytes.NewReader([]byte(l.src)), nil
}

func (l sourceLoader) Resolve(path string) (string, error) {
	if path != l.id {
		return "", fmt.Errorf("template %q is not available", path)
	}
	return path, nil
}

func (l sourceLoader) Inherit(string) (loaders.Loader, error) { return l, nil }
