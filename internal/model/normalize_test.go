package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

func TestContentText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain string", `"It is 12:00 UTC."`, "It is 12:00 UTC."},
		{"null", `null`, ""},
		{"content field", `{"role":"assistant","content":"163"}`, "163"},
		{"segment list", `[{"type":"text","text":"first"},{"type":"text","text":"second"}]`, "first\nsecond"},
		{"mixed list", `["bare", {"type":"text","text":"typed"}]`, "bare\ntyped"},
		{
			"non-text segments dropped",
			`[{"type":"reasoning","text":"hidden"},{"type":"text","text":"visible"},{"type":"tool_use","name":"calculator"}]`,
			"visible",
		},
		{
			"bedrock invoke body",
			`{"output":{"message":{"role":"assistant","content":[{"text":"Dear diary"},{"reasoningContent":{"reasoningText":{"text":"x"}}}]}},"stopReason":"end_turn"}`,
			"Dear diary",
		},
		{"nested content list", `{"content":[{"text":"a"},{"text":""},{"text":"b"}]}`, "a\nb"},
		{"typed message object", `{"type":"message","role":"assistant","content":[{"type":"text","text":"hi"}]}`, "hi"},
		{"typed content string", `{"type":"ai","content":"hi"}`, "hi"},
		{"typed segment without container", `{"type":"reasoning","text":"hidden"}`, ""},
		{"number", `42`, ""},
		{"trims", `"  padded  "`, "padded"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ContentText(json.RawMessage(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestContentTextMalformed(t *testing.T) {
	_, err := ContentText(json.RawMessage(`{"content":`))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeModelInvalidResponse))
}
