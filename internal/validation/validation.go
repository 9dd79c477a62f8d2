// Package validation provides centralized input validation for docservice.
package validation

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// =============================================================================
// Key Validation
// =============================================================================

// MaxKeyLength bounds document keys in bytes. DynamoDB caps partition keys at
// 2048 bytes and the links/references partition packs the key together with
// the version id.
const MaxKeyLength = 1024

// ValidateKey validates a client-chosen document key.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("key too long: maximum %d bytes allowed", MaxKeyLength)
	}
	if !utf8.ValidString(key) {
		return fmt.Errorf("key must be valid UTF-8")
	}

	for i, r := range key {
		if r < 32 || r == 127 {
			return fmt.Errorf("key cannot contain control characters at position %d", i)
		}
	}

	return nil
}

// =============================================================================
// Document Validation
// =============================================================================

// ValidateHTML checks that a document body is present. Whitespace-only
// bodies are accepted as documents.
func ValidateHTML(html string) error {
	if html == "" {
		return fmt.Errorf("html is required")
	}
	return nil
}

// ValidateInt32 checks that an integer column value fits the 32-bit storage
// type used for link ids and positions.
func ValidateInt32(field string, v int) error {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return fmt.Errorf("%s %d out of range", field, v)
	}
	return nil
}
