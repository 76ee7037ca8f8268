package feeders

import (
	"errors"
)

// Static error definitions for feeders
var (
	ErrUnsupportedFormat   = errors.New("unsupported config file format")
	ErrKeyNotFound         = errors.New("key not found")
	ErrEnvInvalidStructure = errors.New("env: expected pointer to struct")
	ErrEnvEmptyPrefix      = errors.New("env: prefix cannot be empty")
	ErrFieldCannotBeSet    = errors.New("field cannot be set")
)
