package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Message: "test error message",
	}

	assert.Equal(t, "test error message", err.Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("no valid coin IDs provided")

	assert.Error(t, err)
	assert.Equal(t, "no valid coin IDs provided", err.Error())

	// Check that it's the correct type
	validationErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "no valid coin IDs provided", validationErr.Message)
}

func TestNewValidationErrorf(t *testing.T) {
	err := NewValidationErrorf("analysis.days must be between 1 and %d, got %d", 364, 500)

	assert.Error(t, err)
	assert.Equal(t, "analysis.days must be between 1 and 364, got 500", err.Error())

	// Check that it's the correct type
	validationErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "analysis.days must be between 1 and 364, got 500", validationErr.Message)
}
