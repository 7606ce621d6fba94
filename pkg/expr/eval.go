package expr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// EvalError reports any failure while compiling or evaluating an expression:
// syntax errors, unknown identifiers, missing keys, type mismatches,
// division by zero and bad calls. Callers decide the fallback; the engine
// maps these to defaults or skips per the rule file.
type EvalError struct {
	Source string // original expression text
	Msg    string // what went wrong
	Offset int    // byte offset into Source, -1 when unknown
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("eval %q: %s (at offset %d)", e.Source, e.Msg, e.Offset)
	}
	return fmt.Sprintf("eval %q: %s", e.Source, e.Msg)
}

func newSyntaxError(src string, offset int, msg string) *EvalError {
	return &EvalError{Source: src, Msg: "syntax error: " + msg, Offset: offset}
}

// Scope resolves bare identifiers during evaluation.
type Scope interface {
	// Resolve returns the value bound to name and whether it exists.
	Resolve(name string) (any, bool)
}

// MapScope is a Scope backed by a plain map, for library and test use.
type MapScope map[string]any

// Resolve implements Scope.
func (m MapScope) Resolve(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Eval evaluates the compiled program against scope. Any failure is returned
// as *EvalError; evaluation has no side effects and never panics.
func (p *Program) Eval(scope Scope) (any, error) {
	ev := &evaluator{src: p.Source, scope: scope}
	return ev.eval(p.root)
}

// Eval compiles and evaluates source in one step. Prefer Compile + Program
// for expressions evaluated repeatedly.
func Eval(source string, scope Scope) (any, error) {
	prog, err := Compile(source)
	if err != nil {
		return nil, err
	}
	return prog.Eval(scope)
}

type evaluator struct {
	src   string
	scope Scope
}

func (ev *evaluator) errf(at int, format string, args ...any) *EvalError {
	return &EvalError{Source: ev.src, Msg: fmt.Sprintf(format, args...), Offset: at}
}

func (ev *evaluator) eval(n Node) (any, error) {
	switch node := n.(type) {
	case *LiteralNode:
		return node.Value, nil

	case *IdentNode:
		v, ok := ev.scope.Resolve(node.Name)
		if !ok {
			return nil, ev.errf(node.At, "undefined name %q", node.Name)
		}
		return v, nil

	case *UnaryNode:
		return ev.evalUnary(node)

	case *BinaryNode:
		return ev.evalBinary(node)

	case *CondNode:
		cond, err := ev.eval(node.Cond)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return ev.eval(node.Then)
		}
		return ev.eval(node.Else)

	case *MemberNode:
		return ev.evalMember(node)

	case *IndexNode:
		return ev.evalIndex(node)

	case *SliceNode:
		return ev.evalSlice(node)

	case *CallNode:
		return ev.evalCall(node)

	case *FStringNode:
		var sb strings.Builder
		for _, part := range node.Parts {
			v, err := ev.eval(part)
			if err != nil {
				return nil, err
			}
			sb.WriteString(Stringify(v))
		}
		return sb.String(), nil
	}
	return nil, ev.errf(n.Pos(), "unsupported expression node %T", n)
}

func (ev *evaluator) evalUnary(node *UnaryNode) (any, error) {
	v, err := ev.eval(node.Operand)
	if err != nil {
		return nil, err
	}
	switch node.Op {
	case OpNot:
		return !Truthy(v), nil
	case OpNeg:
		if i, ok := asInt(v); ok {
			return -i, nil
		}
		if f, ok := asFloat(v); ok {
			return -f, nil
		}
		return nil, ev.errf(node.At, "cannot negate %s", typeName(v))
	case OpPos:
		if _, ok := asFloat(v); ok {
			return v, nil
		}
		return nil, ev.errf(node.At, "cannot apply unary '+' to %s", typeName(v))
	}
	return nil, ev.errf(node.At, "unknown unary operator %q", node.Op)
}

func (ev *evaluator) evalBinary(node *BinaryNode) (any, error) {
	// and/or short-circuit and return operands, Python style.
	if node.Op == OpAnd || node.Op == OpOr {
		left, err := ev.eval(node.Left)
		if err != nil {
			return nil, err
		}
		if node.Op == OpAnd && !Truthy(left) {
			return left, nil
		}
		if node.Op == OpOr && Truthy(left) {
			return left, nil
		}
		return ev.eval(node.Right)
	}

	left, err := ev.eval(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return ev.arith(node.At, node.Op, left, right)
	case OpEq:
		return Equal(left, right), nil
	case OpNe:
		return !Equal(left, right), nil
	case OpLt, OpLe, OpGt, OpGe:
		return ev.order(node.At, node.Op, left, right)
	}
	return nil, ev.errf(node.At, "unknown operator %q", node.Op)
}

func (ev *evaluator) arith(at int, op Op, left, right any) (any, error) {
	// String and list forms first.
	if op == OpAdd {
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return ls + rs, nil
			}
			return nil, ev.errf(at, "cannot add string and %s", typeName(right))
		}
		if ll, ok := left.([]any); ok {
			if rl, ok := right.([]any); ok {
				out := make([]any, 0, len(ll)+len(rl))
				out = append(out, ll...)
				out = append(out, rl...)
				return out, nil
			}
			return nil, ev.errf(at, "cannot add list and %s", typeName(right))
		}
	}
	if op == OpMul {
		if s, ok := left.(string); ok {
			if n, ok := asInt(right); ok {
				return repeatString(s, n), nil
			}
		}
		if s, ok := right.(string); ok {
			if n, ok := asInt(left); ok {
				return repeatString(s, n), nil
			}
		}
	}

	li, lIsInt := asInt(left)
	ri, rIsInt := asInt(right)
	if lIsInt && rIsInt && op != OpDiv {
		switch op {
		case OpAdd:
			return li + ri, nil
		case OpSub:
			return li - ri, nil
		case OpMul:
			return li * ri, nil
		}
	}

	lf, lOK := asFloat(left)
	rf, rOK := asFloat(right)
	if !lOK || !rOK {
		return nil, ev.errf(at, "cannot apply %q to %s and %s", op, typeName(left), typeName(right))
	}
	switch op {
	case OpAdd:
		return lf + rf, nil
	case OpSub:
		return lf - rf, nil
	case OpMul:
		return lf * rf, nil
	case OpDiv:
		if rf == 0 {
			return nil, ev.errf(at, "division by zero")
		}
		return lf / rf, nil
	}
	return nil, ev.errf(at, "unknown arithmetic operator %q", op)
}

func (ev *evaluator) order(at int, op Op, left, right any) (any, error) {
	lf, lNum := asFloat(left)
	rf, rNum := asFloat(right)
	if lNum && rNum {
		switch op {
		case OpLt:
			return lf < rf, nil
		case OpLe:
			return lf <= rf, nil
		case OpGt:
			return lf > rf, nil
		case OpGe:
			return lf >= rf, nil
		}
	}

	ls, lStr := left.(string)
	rs, rStr := right.(string)
	if lStr && rStr {
		switch op {
		case OpLt:
			return ls < rs, nil
		case OpLe:
			return ls <= rs, nil
		case OpGt:
			return ls > rs, nil
		case OpGe:
			return ls >= rs, nil
		}
	}

	return nil, ev.errf(at, "cannot order %s and %s", typeName(left), typeName(right))
}

func (ev *evaluator) evalMember(node *MemberNode) (any, error) {
	recv, err := ev.eval(node.Recv)
	if err != nil {
		return nil, err
	}
	m, ok := recv.(map[string]any)
	if !ok {
		return nil, ev.errf(node.At, "cannot access field %q on %s", node.Name, typeName(recv))
	}
	v, ok := m[node.Name]
	if !ok {
		return nil, ev.errf(node.At, "key %q not found", node.Name)
	}
	return v, nil
}

func (ev *evaluator) evalIndex(node *IndexNode) (any, error) {
	recv, err := ev.eval(node.Recv)
	if err != nil {
		return nil, err
	}
	idx, err := ev.eval(node.Index)
	if err != nil {
		return nil, err
	}

	switch r := recv.(type) {
	case []any:
		i, ok := asInt(idx)
		if !ok {
			return nil, ev.errf(node.At, "list index must be an integer, got %s", typeName(idx))
		}
		if i < 0 {
			i += int64(len(r))
		}
		if i < 0 || i >= int64(len(r)) {
			return nil, ev.errf(node.At, "list index %d out of range (len %d)", i, len(r))
		}
		return r[i], nil

	case string:
		i, ok := asInt(idx)
		if !ok {
			return nil, ev.errf(node.At, "string index must be an integer, got %s", typeName(idx))
		}
		runes := []rune(r)
		if i < 0 {
			i += int64(len(runes))
		}
		if i < 0 || i >= int64(len(runes)) {
			return nil, ev.errf(node.At, "string index %d out of range (len %d)", i, len(runes))
		}
		return string(runes[i]), nil

	case map[string]any:
		key, ok := idx.(string)
		if !ok {
			return nil, ev.errf(node.At, "map key must be a string, got %s", typeName(idx))
		}
		v, ok := r[key]
		if !ok {
			return nil, ev.errf(node.At, "key %q not found", key)
		}
		return v, nil
	}
	return nil, ev.errf(node.At, "cannot index %s", typeName(recv))
}

func (ev *evaluator) evalSlice(node *SliceNode) (any, error) {
	recv, err := ev.eval(node.Recv)
	if err != nil {
		return nil, err
	}

	bound := func(n Node, def int64, length int64) (int64, error) {
		if n == nil {
			return def, nil
		}
		v, err := ev.eval(n)
		if err != nil {
			return 0, err
		}
		i, ok := asInt(v)
		if !ok {
			return 0, ev.errf(node.At, "slice bound must be an integer, got %s", typeName(v))
		}
		if i < 0 {
			i += length
		}
		if i < 0 {
			i = 0
		}
		if i > length {
			i = length
		}
		return i, nil
	}

	switch r := recv.(type) {
	case []any:
		length := int64(len(r))
		low, err := bound(node.Low, 0, length)
		if err != nil {
			return nil, err
		}
		high, err := bound(node.High, length, length)
		if err != nil {
			return nil, err
		}
		if low > high {
			low = high
		}
		out := make([]any, high-low)
		copy(out, r[low:high])
		return out, nil

	case string:
		runes := []rune(r)
		length := int64(len(runes))
		low, err := bound(node.Low, 0, length)
		if err != nil {
			return nil, err
		}
		high, err := bound(node.High, length, length)
		if err != nil {
			return nil, err
		}
		if low > high {
			low = high
		}
		return string(runes[low:high]), nil
	}
	return nil, ev.errf(node.At, "cannot slice %s", typeName(recv))
}

func (ev *evaluator) evalCall(node *CallNode) (any, error) {
	fn, ok := registry[node.Func]
	if !ok {
		return nil, ev.errf(node.At, "unknown function %q", node.Func)
	}

	args := make([]any, 0, len(node.Args)+1)
	if node.Recv != nil {
		recv, err := ev.eval(node.Recv)
		if err != nil {
			return nil, err
		}
		args = append(args, recv)
	}
	for _, argNode := range node.Args {
		arg, err := ev.eval(argNode)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	if len(args) < fn.minArgs || len(args) > fn.maxArgs {
		if fn.minArgs == fn.maxArgs {
			return nil, ev.errf(node.At, "%s() takes %d argument(s), got %d", node.Func, fn.minArgs, len(args))
		}
		return nil, ev.errf(node.At, "%s() takes %d to %d arguments, got %d", node.Func, fn.minArgs, fn.maxArgs, len(args))
	}

	result, msg := fn.call(args)
	if msg != "" {
		return nil, ev.errf(node.At, "%s() %s", node.Func, msg)
	}
	return result, nil
}

// Truthy reports the truth value of v: nil is false, booleans are
// themselves, numeric zero is false, empty strings, lists and maps are
// false, everything else is true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	if i, ok := asInt(v); ok {
		return i != 0
	}
	if f, ok := asFloat(v); ok {
		return f != 0
	}
	return true
}

// Equal compares two values with numeric tolerance: 5 == 5.0. Non-scalar
// values fall back to deep equality.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum || bNum {
		return aNum && bNum && af == bf
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}
	return reflect.DeepEqual(a, b)
}

// Stringify renders a value the way string interpolation and str() do:
// strings unchanged, integers in decimal, floats in their shortest form,
// booleans as true/false, nil as null, collections in YAML flow style.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = Stringify(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		return fmt.Sprintf("%v", t)
	}
	if i, ok := asInt(v); ok {
		return strconv.FormatInt(i, 10)
	}
	if f, ok := asFloat(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

// asInt normalizes any Go integer type to int64. Floats are not integers
// here; see asFloat for the widening direction. Bools are not numbers.
func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	}
	return 0, false
}

// asFloat normalizes any numeric value to float64.
func asFloat(v any) (float64, bool) {
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	switch t := v.(type) {
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	}
	if _, ok := asInt(v); ok {
		return "int"
	}
	if _, ok := asFloat(v); ok {
		return "float"
	}
	return reflect.TypeOf(v).String()
}

func repeatString(s string, n int64) string {
	if n <= 0 {
		return ""
	}
	// Cap repetition so a bad rule cannot allocate unbounded memory.
	const maxRepeatLen = 1 << 20
	if int64(len(s))*n > maxRepeatLen {
		n = maxRepeatLen / int64(len(s))
	}
	return strings.Repeat(s, int(n))
}

// runeLen is the length used by len() on strings.
func runeLen(s string) int64 {
	return int64(utf8.RuneCountInString(s))
}
