// Package yamlutil decodes the YAML documents the CLI reads.
package yamlutil

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion.
const MaxInputSize = 1 << 20

var (
	ErrNilDestination = errors.New("yaml: nil destination pointer")
	ErrInputTooLarge  = errors.New("yaml: input exceeds maximum size")
)

// DecodeStrict decodes data over v, rejecting keys v does not declare.
// Blank input leaves v untouched, so callers can pre-fill defaults.
func DecodeStrict(data []byte, v any) error {
	if v == nil {
		return ErrNilDestination
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return yaml.UnmarshalWithOptions(data, v, yaml.Strict())
}
