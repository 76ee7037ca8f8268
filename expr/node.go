package expr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

type node interface {
	eval(vars Vars) (any, error)
}

// evalError carries the offset of the node that failed.
type evalError struct {
	pos int
	err error
}

func (e *evalError) Error() string { return e.err.Error() }

func (e *evalError) Unwrap() error { return e.err }

func failAt(pos int, err error) error { return &evalError{pos: pos, err: err} }

type litNode struct {
	val any
}

func (n *litNode) eval(Vars) (any, error) { return n.val, nil }

type varNode struct {
	pos  int
	name string
}

func (n *varNode) eval(vars Vars) (any, error) {
	if vars == nil {
		return nil, failAt(n.pos, fmt.Errorf("%w: #%s", ErrUnboundVariable, n.name))
	}
	v, ok := vars.Lookup(n.name)
	if !ok {
		return nil, failAt(n.pos, fmt.Errorf("%w: #%s", ErrUnboundVariable, n.name))
	}
	return v, nil
}

type addNode struct {
	pos         int
	left, right node
}

func (n *addNode) eval(vars Vars) (any, error) {
	l, err := n.left.eval(vars)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(vars)
	if err != nil {
		return nil, err
	}

	_, lStr := l.(string)
	_, rStr := r.(string)
	if lStr || rStr {
		return toText(l) + toText(r), nil
	}

	li, lInt := toInt(l)
	ri, rInt := toInt(r)
	if lInt && rInt {
		return li + ri, nil
	}
	return nil, failAt(n.pos, fmt.Errorf("%w: %s and %s", ErrInvalidOperands, describe(l), describe(r)))
}

type indexNode struct {
	pos    int
	target node
	index  node
}

func (n *indexNode) eval(vars Vars) (any, error) {
	target, err := n.target.eval(vars)
	if err != nil {
		return nil, err
	}
	idx, err := n.index.eval(vars)
	if err != nil {
		return nil, err
	}

	rv, ok := deref(reflect.ValueOf(target))
	if !ok {
		return nil, failAt(n.pos, fmt.Errorf("%w: cannot index null", ErrNullReference))
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		i, ok := toInt(idx)
		if !ok {
			return nil, failAt(n.pos, fmt.Errorf("%w: %s is not an integer", ErrInvalidIndex, describe(idx)))
		}
		if i < 0 || i >= int64(rv.Len()) {
			return nil, failAt(n.pos, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, rv.Len()))
		}
		return rv.Index(int(i)).Interface(), nil
	case reflect.String:
		i, ok := toInt(idx)
		if !ok {
			return nil, failAt(n.pos, fmt.Errorf("%w: %s is not an integer", ErrInvalidIndex, describe(idx)))
		}
		runes := []rune(rv.String())
		if i < 0 || i >= int64(len(runes)) {
			return nil, failAt(n.pos, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, len(runes)))
		}
		return string(runes[i]), nil
	case reflect.Map:
		key, ok := mapKey(idx, rv.Type().Key())
		if !ok {
			return nil, failAt(n.pos, fmt.Errorf("%w: %s for map key %s", ErrInvalidIndex, describe(idx), rv.Type().Key()))
		}
		v := rv.MapIndex(key)
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	default:
		return nil, failAt(n.pos, fmt.Errorf("%w: %s", ErrNotIndexable, describe(target)))
	}
}

type propNode struct {
	pos    int
	target node
	name   string
}

func (n *propNode) eval(vars Vars) (any, error) {
	target, err := n.target.eval(vars)
	if err != nil {
		return nil, err
	}
	v, err := property(target, n.name)
	if err != nil {
		return nil, failAt(n.pos, err)
	}
	return v, nil
}

// property reads name from target: a niladic method, an exported struct
// field, or a string-keyed map entry, in that order.
func property(target any, name string) (result any, err error) {
	orig := reflect.ValueOf(target)
	rv, ok := deref(orig)
	if !ok {
		return nil, fmt.Errorf("%w: cannot read .%s of null", ErrNullReference, name)
	}

	if m := orig.MethodByName(name); m.IsValid() && isAccessor(m.Type()) {
		defer func() {
			if r := recover(); r != nil {
				result = nil
				err = fmt.Errorf("%w: %s panicked: %v", ErrPropertyCallFail, name, r)
			}
		}()
		out := m.Call(nil)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, fmt.Errorf("%w: %s: %w", ErrPropertyCallFail, name, out[1].Interface().(error))
		}
		return out[0].Interface(), nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		if sf, ok := rv.Type().FieldByName(name); ok && sf.IsExported() {
			fv, err := rv.FieldByIndexErr(sf.Index)
			if err != nil {
				return nil, fmt.Errorf("%w: cannot read .%s through a nil embedded pointer", ErrNullReference, name)
			}
			return fv.Interface(), nil
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if !v.IsValid() {
				return nil, nil
			}
			return v.Interface(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrUnknownProperty, name, describe(target))
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func isAccessor(t reflect.Type) bool {
	if t.NumIn() != 0 {
		return false
	}
	switch t.NumOut() {
	case 1:
		return true
	case 2:
		return t.Out(1) == errorType
	default:
		return false
	}
}

// deref follows pointers and interfaces. It reports false for nil.
func deref(rv reflect.Value) (reflect.Value, bool) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return rv, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

func mapKey(idx any, keyType reflect.Type) (reflect.Value, bool) {
	if idx == nil {
		return reflect.Value{}, false
	}
	iv := reflect.ValueOf(idx)
	switch {
	case iv.Type().AssignableTo(keyType):
		return iv, true
	case iv.Kind() == reflect.String && keyType.Kind() == reflect.String:
		return iv.Convert(keyType), true
	case isIntKind(iv.Kind()) && isIntKind(keyType.Kind()):
		return iv.Convert(keyType), true
	default:
		return reflect.Value{}, false
	}
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

func toInt(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	default:
		return 0, false
	}
}

// toText is the string form a value contributes to a concatenation.
func toText(v any) string {
	if isNil(v) {
		return NullText
	}
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(v)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func describe(v any) string {
	if v == nil {
		return NullText
	}
	return reflect.TypeOf(v).String()
}

func walk(n node, fn func(node)) {
	fn(n)
	switch t := n.(type) {
	case *addNode:
		walk(t.left, fn)
		walk(t.right, fn)
	case *indexNode:
		walk(t.target, fn)
		walk(t.index, fn)
	case *propNode:
		walk(t.target, fn)
	}
}

// IsTemplateError reports whether err is, or wraps, a *TemplateError.
func IsTemplateError(err error) bool {
	var te *TemplateError
	return errors.As(err, &te)
}
