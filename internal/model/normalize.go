package model

import (
	"bytes"
	"encoding/json"
	"strings"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

// maxContentDepth bounds recursion into nested reply objects.
const maxContentDepth = 8

// containerKeys are the fields under which backends nest reply text.
var containerKeys = []string{"content", "message", "output"}

// ContentText extracts the text of a model reply whose shape varies by
// backend: a bare string, an object nesting the text under content, message,
// output or text, or a list of segments. Text segments are joined with
// newlines; non-text segments (reasoning, tool use, guard metadata) are dropped.
func ContentText(raw json.RawMessage) (string, error) {
	parts, err := textParts(raw, 0)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeModelInvalidResponse, "failed to decode model reply", apperrors.CategoryExternal)
	}
	return joinParts(parts), nil
}

func textParts(raw json.RawMessage, depth int) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || depth > maxContentDepth {
		return nil, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []string{s}, nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		var parts []string
		for _, item := range items {
			p, err := textParts(item, depth+1)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p...)
		}
		return parts, nil

	case '{':
		return objectParts(raw, depth)

	default:
		// null, numbers and booleans carry no text
		return nil, nil
	}
}

func objectParts(raw json.RawMessage, depth int) ([]string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}

	// A typed segment without a container is text only when typed "text".
	kindIsText := true
	if t, ok := obj["type"]; ok {
		var kind string
		if err := json.Unmarshal(t, &kind); err == nil && kind != "" && kind != "text" {
			kindIsText = false
		}
	}

	if text, ok := obj["text"]; ok && kindIsText {
		return textParts(text, depth+1)
	}

	for _, key := range containerKeys {
		if v, ok := obj[key]; ok {
			return textParts(v, depth+1)
		}
	}

	return nil, nil
}

func joinParts(parts []string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
