// Package feeders reads marker configuration from YAML, TOML and JSON files
// and overlays values from environment variables.
package feeders

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Feeder fills target from a configuration source.
type Feeder interface {
	Feed(target interface{}) error
}

// KeyFeeder can fill target from a single top-level key of its source, so a
// marker section can live inside a larger application config file.
type KeyFeeder interface {
	Feeder
	FeedKey(key string, target interface{}) error
}

// ForFile picks a file feeder by extension: .yaml/.yml, .toml or .json.
func ForFile(path string) (KeyFeeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYamlFeeder(path), nil
	case ".toml":
		return NewTomlFeeder(path), nil
	case ".json":
		return NewJSONFeeder(path), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// feedKey is a common helper function for extracting specific keys from config files
func feedKey(
	feeder Feeder,
	key string,
	target interface{},
	marshalFunc func(interface{}) ([]byte, error),
	unmarshalFunc func([]byte, interface{}) error,
	fileType string,
) error {
	var allData map[string]interface{}

	if err := feeder.Feed(&allData); err != nil {
		return fmt.Errorf("failed to read %s: %w", fileType, err)
	}

	value, exists := allData[key]
	if !exists {
		return fmt.Errorf("%w: %q in %s", ErrKeyNotFound, key, fileType)
	}

	// Remarshal and unmarshal to handle type conversions
	valueBytes, err := marshalFunc(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s data: %w", fileType, err)
	}

	if err = unmarshalFunc(valueBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s data: %w", fileType, err)
	}

	return nil
}
