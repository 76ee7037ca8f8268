package aspectlog

import (
	"errors"
	"fmt"

	"github.com/GoCodeAlone/aspectlog/feeders"
)

// EnvPrefix is the prefix of environment variables that override marker
// file defaults, e.g. ASPECTLOG_RETURN_LEVEL.
const EnvPrefix = "ASPECTLOG"

// MarkerFile is the on-disk declaration of markers. It can be written as
// YAML, TOML or JSON:
//
//	defaults:
//	  returnLevel: info
//	  throwLevel: error
//	markers:
//	  - type: github.com/acme/demo.Testa
//	    method: Log
//	    kind: return
//	    template: "'[method:' + #method + '][returned:' + #return + ']'"
//	  - type: github.com/acme/demo.Foo
//	    kind: param
//	    value: 1
//
// An entry without a method applies to every method of the type.
type MarkerFile struct {
	Defaults MarkerDefaults `yaml:"defaults" toml:"defaults" json:"defaults"`
	Markers  []MarkerSpec   `yaml:"markers" toml:"markers" json:"markers"`
}

// MarkerDefaults holds levels applied to entries that do not set one.
type MarkerDefaults struct {
	ReturnLevel string `yaml:"returnLevel" toml:"returnLevel" json:"returnLevel" env:"RETURN_LEVEL"`
	ThrowLevel  string `yaml:"throwLevel" toml:"throwLevel" json:"throwLevel" env:"THROW_LEVEL"`
}

// MarkerSpec is one marker entry.
type MarkerSpec struct {
	Type     string   `yaml:"type" toml:"type" json:"type"`
	Method   string   `yaml:"method,omitempty" toml:"method,omitempty" json:"method,omitempty"`
	Kind     string   `yaml:"kind" toml:"kind" json:"kind"`
	Value    int      `yaml:"value,omitempty" toml:"value,omitempty" json:"value,omitempty"`
	Template string   `yaml:"template,omitempty" toml:"template,omitempty" json:"template,omitempty"`
	Level    string   `yaml:"level,omitempty" toml:"level,omitempty" json:"level,omitempty"`
	Except   []string `yaml:"except,omitempty" toml:"except,omitempty" json:"except,omitempty"`
}

// LoadMarkerFile reads a marker file, picking the format from the file
// extension, then applies ASPECTLOG_* environment overrides.
func LoadMarkerFile(path string) (*MarkerFile, error) {
	feeder, err := feeders.ForFile(path)
	if err != nil {
		return nil, err
	}
	mf := &MarkerFile{}
	if err := feeder.Feed(mf); err != nil {
		return nil, fmt.Errorf("load markers: %w", err)
	}
	if err := feeders.NewEnvFeeder(EnvPrefix).Feed(mf); err != nil {
		return nil, fmt.Errorf("load markers: env overrides: %w", err)
	}
	return mf, nil
}

// LoadMarkerSection reads the markers declared under a top-level key of a
// larger configuration file.
func LoadMarkerSection(path, key string) (*MarkerFile, error) {
	feeder, err := feeders.ForFile(path)
	if err != nil {
		return nil, err
	}
	mf := &MarkerFile{}
	if err := feeder.FeedKey(key, mf); err != nil {
		return nil, fmt.Errorf("load markers: %w", err)
	}
	if err := feeders.NewEnvFeeder(EnvPrefix).Feed(mf); err != nil {
		return nil, fmt.Errorf("load markers: env overrides: %w", err)
	}
	return mf, nil
}

// Build validates every entry and returns a registry holding them. Nothing
// is returned unless all entries are valid.
func (mf *MarkerFile) Build(logger Logger) (*MarkerRegistry, error) {
	reg := NewMarkerRegistry(logger)
	if err := mf.Apply(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Apply registers every entry on reg. Valid entries are registered even when
// others fail; the returned error joins one MarkerConfigError per failure.
func (mf *MarkerFile) Apply(reg *MarkerRegistry) error {
	if mf == nil {
		return ErrMarkerFileNil
	}
	if reg == nil {
		return ErrRegistryNil
	}

	returnLevel, err := ParseLevel(mf.Defaults.ReturnLevel)
	if err != nil {
		return fmt.Errorf("defaults.returnLevel: %w", err)
	}
	throwLevel, err := ParseLevel(mf.Defaults.ThrowLevel)
	if err != nil {
		return fmt.Errorf("defaults.throwLevel: %w", err)
	}

	var errs []error
	for i, spec := range mf.Markers {
		if err := spec.register(reg, returnLevel, throwLevel); err != nil {
			errs = append(errs, NewMarkerConfigError(i, err))
		}
	}
	return errors.Join(errs...)
}

func (s MarkerSpec) register(reg *MarkerRegistry, returnLevel, throwLevel Level) error {
	typ, err := ParseTypeInfo(s.Type)
	if err != nil {
		return err
	}
	marker, err := s.marker(returnLevel, throwLevel)
	if err != nil {
		return err
	}
	if s.Method == "" {
		return reg.RegisterType(typ, marker)
	}
	return reg.RegisterMethod(MethodID{Type: typ, Name: s.Method}, marker)
}

func (s MarkerSpec) marker(returnLevel, throwLevel Level) (Marker, error) {
	kind, err := ParseMarkerKind(s.Kind)
	if err != nil {
		return nil, err
	}
	level, err := ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}

	switch kind {
	case MarkerParam:
		return ParamMarker{Value: s.Value}, nil
	case MarkerReturn:
		return ReturnMarker{Template: s.Template, Level: level.Or(returnLevel)}, nil
	default:
		except := make([]ErrorKind, 0, len(s.Except))
		for _, name := range s.Except {
			k, err := ParseErrorKind(name)
			if err != nil {
				return nil, err
			}
			except = append(except, k)
		}
		return ThrowMarker{Template: s.Template, Level: level.Or(throwLevel), Except: except}, nil
	}
}
