package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	err := Wrap(fmt.Errorf("dial tcp: refused"), CodeModelUnavailable, "model backend unreachable", CategoryExternal)

	assert.Equal(t, "[MODEL_UNAVAILABLE] model backend unreachable: dial tcp: refused", err.Error())
	assert.Equal(t, CategoryExternal, GetCategory(err))
	assert.Equal(t, CodeModelUnavailable, GetCode(err))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInvalidInput, "x", CategoryUser))
}

func TestHasCodeWalksChain(t *testing.T) {
	inner := User(CodeLocationNotFound, "location not found: Atlantis")
	outer := fmt.Errorf("lookup: %w", Wrap(inner, CodeToolExecutionFailed, "weather lookup failed", CategoryExternal))

	assert.True(t, HasCode(outer, CodeLocationNotFound))
	assert.True(t, HasCode(outer, CodeToolExecutionFailed))
	assert.False(t, HasCode(outer, CodeConfigInvalid))
}

func TestToolFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", fmt.Errorf("boom"), "Error: boom"},
		{"app", User(CodeInvalidInput, "division by zero"), "Error: division by zero"},
		{
			"nested",
			Wrap(User(CodeLocationNotFound, "location not found: Atlantis"), CodeToolExecutionFailed, "weather lookup failed", CategoryExternal),
			"Error: weather lookup failed: location not found: Atlantis",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToolFailure(tc.err))
		})
	}
}

func TestFormatUserMessageSuggestions(t *testing.T) {
	err := NewBuilder(CodeConfigInvalid, "provider is required").
		Config().
		WithSuggestion("Use --provider or set PROVIDER").
		Build()

	msg := FormatUserMessage(err)
	assert.Contains(t, msg, "provider is required")
	assert.Contains(t, msg, "Use --provider or set PROVIDER")
	assert.Equal(t, CategoryConfig, err.Category)
}
