package chattemplate

import (
	"errors"
	"strings"
	"testing"

	"edgellm/pkg/types"
)

func msgs(pairs ...string) []types.Message {
	var out []types.Message
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.Message{Role: types.Role(pairs[i]), Content: pairs[i+1]})
	}
	return out
}

func TestDefaultSpec_Render(t *testing.T) {
	got, err := Render(msgs("system", "You are helpful", "user", "  Hi  "), DefaultSpec())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "<|begin_of_text|>" +
		"<|start_header_id|>system<|end_header_id|>\n\nYou are helpful<|eot_id|>" +
		"<|start_header_id|>user<|end_header_id|>\n\nHi<|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|>\n\n"
	if got != want {
		t.Fatalf("unexpected prompt:\n got: %q\nwant: %q", got, want)
	}
}

func TestDefaultSpec_SingleBOSAndOrder(t *testing.T) {
	h := msgs("system", "s", "user", "u1", "assistant", "a1", "user", "u2")
	got, err := Render(h, DefaultSpec())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if n := strings.Count(got, "<|begin_of_text|>"); n != 1 {
		t.Fatalf("expected exactly one BOS marker, got %d", n)
	}
	if !strings.HasPrefix(got, "<|begin_of_text|>") {
		t.Fatalf("BOS must come first: %q", got)
	}
	last := -1
	for _, m := range h {
		idx := strings.Index(got, string(m.Role)+"<|end_header_id|>\n\n"+m.Content+"<|eot_id|>")
		if idx <= last {
			t.Fatalf("message %q out of order in %q", m.Content, got)
		}
		last = idx
	}
	if !strings.HasSuffix(got, "<|start_header_id|>assistant<|end_header_id|>\n\n") {
		t.Fatalf("missing open assistant header: %q", got)
	}
}

func TestRender_EmptyHistory(t *testing.T) {
	got, err := Render(nil, DefaultSpec())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<|start_header_id|>assistant<|end_header_id|>\n\n" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestRender_Deterministic(t *testing.T) {
	h := msgs("user", "hello", "assistant", "world", "user", "again")
	tpl, err := Compile(DefaultTemplate)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	first, err := tpl.Render(h, "<s>", "</s>")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := tpl.Render(h, "<s>", "</s>")
		if err != nil || again != first {
			t.Fatalf("render %d differs: %q vs %q (%v)", i, again, first, err)
		}
	}
}

func TestRender_CustomMarkers(t *testing.T) {
	spec := Spec{
		Template: "{{ bos_token }}{% for m in messages %}[{{ m.role | upper }}] {{ m.content }}{{ eos_token }}{% endfor %}",
		BOSToken: "<s>",
		EOSToken: "</s>",
	}
	got, err := Render(msgs("user", "a", "assistant", "b"), spec)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<s>[USER] a</s>[ASSISTANT] b</s>" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestRender_ChatMLWithWhitespaceControl(t *testing.T) {
	src := `{%- for message in messages %}
    {{- '<|im_start|>' + message.role + '\n' + message.content + '<|im_end|>' + '\n' }}
{%- endfor %}
{%- if add_generation_prompt %}
    {{- '<|im_start|>assistant\n' }}
{%- endif %}
`
	got, err := Render(msgs("system", "be brief", "user", "hi"), Spec{Template: src})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "<|im_start|>system\nbe brief<|im_end|>\n<|im_start|>user\nhi<|im_end|>\n<|im_start|>assistant\n"
	if got != want {
		t.Fatalf("unexpected:\n got: %q\nwant: %q", got, want)
	}
}

func TestRender_ConditionalsAndLoopVars(t *testing.T) {
	src := "{% for m in messages %}" +
		"{% if m['role'] == 'system' %}S{% elif m.role == 'user' and not loop.last %}U{% else %}X{% endif %}" +
		"{{ loop.index }}/{{ loop.length }}{% if not loop.last %},{% endif %}" +
		"{% endfor %}"
	got, err := Render(msgs("system", "", "user", "", "user", ""), Spec{Template: src})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "S1/3,U2/3,X3/3" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestRender_NamespaceSliceAndTests(t *testing.T) {
	src := "{% set ns = namespace(sys='') %}" +
		"{% if messages[0].role == 'system' %}{% set ns.sys = messages[0].content %}{% set rest = messages[1:] %}{% else %}{% set rest = messages %}{% endif %}" +
		"{% for m in rest %}{{ m.content ~ '|' }}{% endfor %}" +
		"{{ ns.sys }}{{ missing is defined }}{{ ns.sys is string }}{{ None is none }}"
	got, err := Render(msgs("system", "SYS", "user", "a", "assistant", "b"), Spec{Template: src})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "a|b|SYSFalseTrueTrue" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestRender_SetIsScopedToLoopIteration(t *testing.T) {
	src := "{% set x = 'outer' %}{% for m in messages %}{% set x = m.content %}{{ x }}{% endfor %}{{ x }}"
	got, err := Render(msgs("user", "a", "user", "b"), Spec{Template: src})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "abouter" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestRender_CommentsAndTrim(t *testing.T) {
	src := "A  {#- a comment -#}  B {{- ' C ' -}} D"
	got, err := Render(nil, Spec{Template: src})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "AB C D" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestRender_RaiseException(t *testing.T) {
	src := "{% if messages[0].role != 'user' %}{{ raise_exception('first message must be user') }}{% endif %}"
	_, err := Render(msgs("assistant", "x"), Spec{Template: src})
	var te *TemplateError
	if !errors.As(err, &te) {
		t.Fatalf("expected TemplateError, got %v", err)
	}
	if !strings.Contains(te.Msg, "first message must be user") {
		t.Fatalf("unexpected message: %q", te.Msg)
	}
}

func TestCompile_Errors(t *testing.T) {
	cases := map[string]string{
		"unclosed output":    "hello {{ name",
		"unclosed for":       "{% for m in messages %}{{ m.content }}",
		"stray endif":        "{% endif %}",
		"unknown statement":  "{% frobnicate %}",
		"bad expression":     "{{ 1 + }}",
		"unterminated quote": "{{ 'abc }}",
		"missing in":         "{% for m messages %}{% endfor %}",
	}
	for name, src := range cases {
		_, err := Compile(src)
		var te *TemplateError
		if !errors.As(err, &te) {
			t.Errorf("%s: expected TemplateError, got %v", name, err)
		}
	}
}

func TestTemplateError_Position(t *testing.T) {
	_, err := Compile("line one\n{{ 1 + }}")
	var te *TemplateError
	if !errors.As(err, &te) {
		t.Fatalf("expected TemplateError, got %v", err)
	}
	if te.Line != 2 {
		t.Fatalf("expected error on line 2, got %d (%v)", te.Line, te)
	}
}

func TestRender_UndefinedRendersEmpty(t *testing.T) {
	got, err := Render(nil, Spec{Template: "[{{ nope }}]{% if nope %}x{% endif %}"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "[]" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestRender_MacroAndRange(t *testing.T) {
	src := "{% macro tag(r) %}<{{ r }}>{% endmacro %}" +
		"{% for m in messages %}{{ tag(m.role) }}{% endfor %}" +
		"{% for i in range(3) %}{{ i }}{% endfor %}"
	got, err := Render(msgs("user", "a", "assistant", "b"), Spec{Template: src})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<user><assistant>012" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestRender_StringRepeatIsCapped(t *testing.T) {
	got, err := Render(nil, Spec{Template: "{{ '-' * 3 }}{{ 2 * 4 }}"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "---8" {
		t.Fatalf("unexpected: %q", got)
	}

	for _, src := range []string{
		"{{ 'x' * 100000000000 }}",
		"{% set s = 'abc' %}{% for m in messages %}{{ s * 1000000 }}{% endfor %}",
	} {
		_, err := Render(msgs("user", "hi"), Spec{Template: src})
		var te *TemplateError
		if !errors.As(err, &te) {
			t.Fatalf("%s: expected TemplateError, got %v", src, err)
		}
		if !strings.Contains(te.Msg, "exceeds") {
			t.Fatalf("%s: unexpected message: %q", src, te.Msg)
		}
	}
}

func TestCompile_IncludeCannotReadFiles(t *testing.T) {
	tpl, err := Compile("{% include '/etc/hostname' %}")
	if err != nil {
		return
	}
	if _, err := tpl.Render(nil, "", ""); err == nil {
		t.Fatal("expected include of a file to fail")
	}
}
