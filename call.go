package aspectlog

import (
	"fmt"
	"reflect"
	"strings"
)

// TypeInfo identifies a declaring type by package path and simple name.
type TypeInfo struct {
	Package string
	Name    string
}

// String returns "package.Name", or Name when the package is empty.
func (t TypeInfo) String() string {
	if t.Package == "" {
		return t.Name
	}
	return t.Package + "." + t.Name
}

// TypeOf returns the TypeInfo of v's dynamic type with pointers removed.
// A nil v yields the zero TypeInfo.
func TypeOf(v any) TypeInfo {
	if v == nil {
		return TypeInfo{}
	}
	return typeInfoOf(reflect.TypeOf(v))
}

// TypeFor returns the TypeInfo of T with pointers removed.
func TypeFor[T any]() TypeInfo {
	return typeInfoOf(reflect.TypeFor[T]())
}

func typeInfoOf(t reflect.Type) TypeInfo {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	return TypeInfo{Package: t.PkgPath(), Name: name}
}

// ParseTypeInfo parses "package/path.Name". The package is everything up to
// the last dot after the last slash.
func ParseTypeInfo(s string) (TypeInfo, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "*")
	slash := strings.LastIndex(s, "/")
	dot := strings.LastIndex(s, ".")
	if dot <= slash || dot == len(s)-1 {
		return TypeInfo{}, fmt.Errorf("%w: %q", ErrInvalidTypeName, s)
	}
	return TypeInfo{Package: s[:dot], Name: s[dot+1:]}, nil
}

// MethodID identifies an interceptable method by declaring type and name.
type MethodID struct {
	Type TypeInfo
	Name string
}

// String returns "package.Type.Method".
func (m MethodID) String() string {
	return m.Type.String() + "." + m.Name
}

// MethodOf builds the MethodID of method name on receiver's type.
func MethodOf(receiver any, name string) MethodID {
	return MethodID{Type: TypeOf(receiver), Name: name}
}

// Call is the metadata an interceptor receives for one invocation.
type Call struct {
	Method   MethodID
	Args     []any
	Receiver any
}

// ErrorKind is the exact dynamic type of a thrown value, written as
// "*package/path.Name" (one '*' per pointer level). Two values have the same
// kind only if their dynamic types are identical.
type ErrorKind string

// ErrorKindOf returns the kind of v. A nil v has the empty kind.
func ErrorKindOf(v any) ErrorKind {
	if v == nil {
		return ""
	}
	return kindOfType(reflect.TypeOf(v))
}

// KindFor returns the kind of type T. Use the pointer type for errors with
// pointer receivers: KindFor[*MyError]().
func KindFor[T any]() ErrorKind {
	return kindOfType(reflect.TypeFor[T]())
}

func kindOfType(t reflect.Type) ErrorKind {
	var stars strings.Builder
	for t.Kind() == reflect.Pointer {
		stars.WriteByte('*')
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return ErrorKind(stars.String() + t.String())
	}
	return ErrorKind(stars.String() + t.PkgPath() + "." + t.Name())
}

// ParseErrorKind validates s as an ErrorKind.
func ParseErrorKind(s string) (ErrorKind, error) {
	s = strings.TrimSpace(s)
	if strings.Trim(s, "*") == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidErrorKind, s)
	}
	return ErrorKind(s), nil
}
