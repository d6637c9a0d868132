package chattemplate

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/nikolalohinski/gonja/v2/exec"
	"github.com/nikolalohinski/gonja/v2/nodes"
	"github.com/nikolalohinski/gonja/v2/tokens"
)

// MaxRepeat caps the length of a string built with the * operator.
const MaxRepeat = 1 << 20

const repeatGuardFilter = "__repeat_guard"

var binaryExprType = reflect.TypeOf(&nodes.BinaryExpression{})

// guardRepeats rewrites every `a * n` in root so that n passes through the
// repeat guard filter, with a as its argument, before the product is taken.
func guardRepeats(root *nodes.Template) {
	seen := map[unsafe.Pointer]bool{}
	var walk func(v reflect.Value)
	walk = func(v reflect.Value) {
		switch v.Kind() {
		case reflect.Interface:
			if !v.IsNil() {
				walk(v.Elem())
			}
		case reflect.Pointer:
			if v.IsNil() {
				return
			}
			p := v.UnsafePointer()
			if seen[p] {
				return
			}
			seen[p] = true
			walk(v.Elem())
			if v.Type() == binaryExprType {
				guardBinary((*nodes.BinaryExpression)(p))
			}
		case reflect.Struct:
			for i := 0; i < v.NumField(); i++ {
				walk(v.Field(i))
			}
		case reflect.Slice, reflect.Array:
			for i := 0; i < v.Len(); i++ {
				walk(v.Index(i))
			}
		case reflect.Map:
			it := v.MapRange()
			for it.Next() {
				walk(it.Value())
			}
		}
	}
	walk(reflect.ValueOf(root))
}

func guardBinary(b *nodes.BinaryExpression) {
	if b.Operator == nil || b.Operator.Token == nil || b.Operator.Token.Type != tokens.Multiply {
		return
	}
	b.Right = &nodes.FilteredExpression{
		Expression: b.Right,
		Filters: []*nodes.FilterCall{{
			Token: b.Operator.Token,
			Name:  repeatGuardFilter,
			Args:  []nodes.Expression{b.Left},
		}},
	}
}

// guardRepeat receives the repeat count as in and the left operand as its
// only argument. It passes the count through unless the product would be a
// string longer than MaxRepeat.
func guardRepeat(_ *exec.Evaluator, in *exec.Value, params *exec.VarArgs) *exec.Value {
	if len(params.Args) != 1 {
		return in
	}
	left := params.Args[0]
	if !left.IsString() || in.IsFloat() || left.IsFloat() {
		return in
	}
	n, size := in.Integer(), len(left.String())
	if n <= 0 || size == 0 {
		return in
	}
	if n > MaxRepeat/size {
		return exec.AsValue(fmt.Errorf("string repetition of %d bytes by %d exceeds %d bytes", size, n, MaxRepeat))
	}
	return in
}
