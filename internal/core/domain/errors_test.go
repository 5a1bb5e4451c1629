package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidConfig", ErrInvalidConfig},
		{"ErrTransport", ErrTransport},
		{"ErrUpstream", ErrUpstream},
		{"ErrEnvelope", ErrEnvelope},
		{"ErrContainer", ErrContainer},
		{"ErrBlockDecode", ErrBlockDecode},
		{"ErrUnsupportedCodec", ErrUnsupportedCodec},
		{"ErrFileCollision", ErrFileCollision},
		{"ErrMissingIdentity", ErrMissingIdentity},
		{"ErrBadTimestamp", ErrBadTimestamp},
		{"ErrScore", ErrScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Distinct tests that error classes do not alias each other
func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrTransport, ErrContainer))
	assert.False(t, errors.Is(ErrContainer, ErrBlockDecode))
	assert.False(t, errors.Is(ErrBlockDecode, ErrTransport))
}

// TestErrors_Wrapping tests errors.Is through fmt.Errorf wrapping
func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("subscribe: %w", ErrTransport)

	assert.True(t, errors.Is(wrapped, ErrTransport))
	assert.False(t, errors.Is(wrapped, ErrContainer))
	assert.Contains(t, wrapped.Error(), "transport failure")
}
