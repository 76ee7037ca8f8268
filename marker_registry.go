package aspectlog

import (
	"fmt"
	"slices"
	"sync"

	"github.com/GoCodeAlone/aspectlog/expr"
)

// boundMarker is a registered marker with its template compiled and its
// level defaulted.
type boundMarker struct {
	marker   Marker
	level    Level
	template *expr.Template
}

type markerTable struct {
	methods map[MethodID]map[MarkerKind]*boundMarker
	types   map[TypeInfo]map[MarkerKind]*boundMarker
}

func newMarkerTable() *markerTable {
	return &markerTable{
		methods: make(map[MethodID]map[MarkerKind]*boundMarker),
		types:   make(map[TypeInfo]map[MarkerKind]*boundMarker),
	}
}

// MarkerRegistry maps methods and types to their markers.
//
// A method-level marker takes precedence over a marker of the same kind on
// the declaring type. Markers are immutable once registered; a registry's
// whole content can be swapped with ReplaceWith, which is how marker files
// are hot-reloaded.
type MarkerRegistry struct {
	mu     sync.RWMutex
	table  *markerTable
	logger Logger
}

// NewMarkerRegistry creates an empty registry. A nil logger discards output.
func NewMarkerRegistry(logger Logger) *MarkerRegistry {
	if logger == nil {
		logger = NopLogger{}
	}
	return &MarkerRegistry{table: newMarkerTable(), logger: logger}
}

// RegisterMethod attaches m to a single method.
func (r *MarkerRegistry) RegisterMethod(id MethodID, m Marker) error {
	bound, err := bindMarker(m)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := r.table.methods[id]
	if kinds == nil {
		kinds = make(map[MarkerKind]*boundMarker)
		r.table.methods[id] = kinds
	}
	if _, exists := kinds[m.Kind()]; exists {
		return fmt.Errorf("%w: %s marker on %s", ErrMarkerConflict, m.Kind(), id)
	}
	kinds[m.Kind()] = bound

	r.logger.Debug("Marker registered", "target", id.String(), "kind", m.Kind().String())
	return nil
}

// RegisterType attaches m to every method declared on t.
func (r *MarkerRegistry) RegisterType(t TypeInfo, m Marker) error {
	bound, err := bindMarker(m)
	if err != nil {
		return fmt.Errorf("%s: %w", t, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := r.table.types[t]
	if kinds == nil {
		kinds = make(map[MarkerKind]*boundMarker)
		r.table.types[t] = kinds
	}
	if _, exists := kinds[m.Kind()]; exists {
		return fmt.Errorf("%w: %s marker on %s", ErrMarkerConflict, m.Kind(), t)
	}
	kinds[m.Kind()] = bound

	r.logger.Debug("Marker registered", "target", t.String(), "kind", m.Kind().String())
	return nil
}

// MustRegisterMethod is like RegisterMethod but panics on error.
// Useful when wiring markers in main or in tests.
func (r *MarkerRegistry) MustRegisterMethod(id MethodID, m Marker) *MarkerRegistry {
	if err := r.RegisterMethod(id, m); err != nil {
		panic(err)
	}
	return r
}

// MustRegisterType is like RegisterType but panics on error.
func (r *MarkerRegistry) MustRegisterType(t TypeInfo, m Marker) *MarkerRegistry {
	if err := r.RegisterType(t, m); err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the marker of the given kind applicable to id.
func (r *MarkerRegistry) Resolve(id MethodID, kind MarkerKind) (Marker, bool) {
	b, ok := r.resolve(id, kind)
	if !ok {
		return nil, false
	}
	return b.marker, true
}

// ParamMarkerFor resolves the ParamMarker applicable to id.
func (r *MarkerRegistry) ParamMarkerFor(id MethodID) (ParamMarker, bool) {
	m, ok := r.Resolve(id, MarkerParam)
	if !ok {
		return ParamMarker{}, false
	}
	return m.(ParamMarker), true
}

// Has reports whether a marker of kind applies to id.
func (r *MarkerRegistry) Has(id MethodID, kind MarkerKind) bool {
	_, ok := r.resolve(id, kind)
	return ok
}

func (r *MarkerRegistry) resolve(id MethodID, kind MarkerKind) (*boundMarker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if b, ok := r.table.methods[id][kind]; ok {
		return b, true
	}
	if b, ok := r.table.types[id.Type][kind]; ok {
		return b, true
	}
	return nil, false
}

// MarkerEntry describes one registration, for listing.
type MarkerEntry struct {
	Target string
	Kind   MarkerKind
	Marker Marker
}

// Entries lists every registration ordered by target then kind.
func (r *MarkerRegistry) Entries() []MarkerEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []MarkerEntry
	for id, kinds := range r.table.methods {
		for kind, b := range kinds {
			entries = append(entries, MarkerEntry{Target: id.String(), Kind: kind, Marker: b.marker})
		}
	}
	for t, kinds := range r.table.types {
		for kind, b := range kinds {
			entries = append(entries, MarkerEntry{Target: t.String(), Kind: kind, Marker: b.marker})
		}
	}
	slices.SortFunc(entries, func(a, b MarkerEntry) int {
		if a.Target != b.Target {
			if a.Target < b.Target {
				return -1
			}
			return 1
		}
		return int(a.Kind) - int(b.Kind)
	})
	return entries
}

// Len returns the number of registrations.
func (r *MarkerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, kinds := range r.table.methods {
		n += len(kinds)
	}
	for _, kinds := range r.table.types {
		n += len(kinds)
	}
	return n
}

// ReplaceWith atomically swaps r's registrations for other's. other must not
// be used afterwards.
func (r *MarkerRegistry) ReplaceWith(other *MarkerRegistry) error {
	if other == nil {
		return ErrRegistryNil
	}
	other.mu.Lock()
	table := other.table
	other.table = newMarkerTable()
	other.mu.Unlock()

	r.mu.Lock()
	r.table = table
	r.mu.Unlock()
	return nil
}

func bindMarker(m Marker) (*boundMarker, error) {
	switch mk := m.(type) {
	case ParamMarker:
		return &boundMarker{marker: mk}, nil
	case ReturnMarker:
		tmpl, err := expr.Parse(mk.Template)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMarker, err)
		}
		if err := checkLevel(mk.Level); err != nil {
			return nil, err
		}
		return &boundMarker{marker: mk, level: mk.Level.Or(DefaultReturnLevel), template: tmpl}, nil
	case ThrowMarker:
		tmpl, err := expr.Parse(mk.Template)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMarker, err)
		}
		if err := checkLevel(mk.Level); err != nil {
			return nil, err
		}
		for _, kind := range mk.Except {
			if _, err := ParseErrorKind(string(kind)); err != nil {
				return nil, err
			}
		}
		mk.Except = slices.Clone(mk.Except)
		return &boundMarker{marker: mk, level: mk.Level.Or(DefaultThrowLevel), template: tmpl}, nil
	case nil:
		return nil, fmt.Errorf("%w: nil marker", ErrInvalidMarker)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMarkerKind, m)
	}
}

func checkLevel(l Level) error {
	if l < LevelUnset || l > LevelError {
		return fmt.Errorf("%w: %d", ErrInvalidLogLevel, int(l))
	}
	return nil
}
