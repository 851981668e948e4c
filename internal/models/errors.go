package models

import (
	"fmt"
)

// InvalidSymbolError reports a symbol that is not part of the configured alphabet.
type InvalidSymbolError struct {
	Symbol   Symbol
	Position int
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("invalid symbol %q at position %d", string(e.Symbol), e.Position)
}

// ConfigurationError reports an invalid model setting, detected at construction.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// EmptyModelError is returned when a model is built without any default distribution,
// which would leave queries on untrained situations with nothing to answer.
type EmptyModelError struct{}

func (e *EmptyModelError) Error() string {
	return "model has no default distribution configured"
}
