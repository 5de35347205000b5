package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

func newTestOllama(t *testing.T, handler http.HandlerFunc) *OllamaClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewOllamaClient(&OllamaConfig{
		BaseURL: server.URL,
		Model:   "llama3.1",
		Timeout: 5 * time.Second,
	})
}

func TestOllamaSendToolCall(t *testing.T) {
	var got ollamaChatRequest
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "llama3.1",
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{"function": {"name": "calculator", "arguments": {"expression": "(24*7)-5"}}}]
			},
			"done": true,
			"prompt_eval_count": 40,
			"eval_count": 12
		}`))
	})

	resp, err := client.Send(context.Background(), &Request{
		Messages: []Message{NewSystemMessage("be brief"), NewUserMessage("Calculate (24*7)-5")},
		Tools: []Tool{{
			Name:        "calculator",
			Description: "Evaluate arithmetic",
			Parameters:  map[string]interface{}{"type": "object"},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "llama3.1", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "function", got.Tools[0].Type)
	assert.Equal(t, "calculator", got.Tools[0].Function.Name)

	assert.Equal(t, 52, resp.TokensUsed)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "calculator", resp.ToolCalls[0].Name)
	assert.Equal(t, "(24*7)-5", resp.ToolCalls[0].Input["expression"])
	assert.NotEmpty(t, resp.ToolCalls[0].ID)
}

func TestOllamaSendToolResultMessages(t *testing.T) {
	var got ollamaChatRequest
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"model":"llama3.1","message":{"role":"assistant","content":[{"type":"text","text":"The answer is 163."}]},"done":true}`))
	})

	call := ToolCall{ID: "call_1", Name: "calculator", Input: map[string]any{"expression": "(24*7)-5"}}
	resp, err := client.Send(context.Background(), &Request{
		Messages: []Message{
			NewUserMessage("Calculate (24*7)-5"),
			NewAssistantMessage("", []ToolCall{call}),
			NewToolResultMessage(call, "163", false),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "The answer is 163.", resp.Text)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	require.Len(t, got.Messages[1].ToolCalls, 1)
	assert.Equal(t, "calculator", got.Messages[1].ToolCalls[0].Function.Name)
	assert.Equal(t, "tool", got.Messages[2].Role)
	assert.Equal(t, "calculator", got.Messages[2].ToolName)
	assert.Equal(t, "163", got.Messages[2].Content)
}

func TestOllamaModelNotFound(t *testing.T) {
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'llama3.1' not found"}`))
	})

	_, err := client.Send(context.Background(), &Request{Messages: []Message{NewUserMessage("hi")}})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeModelUnavailable))
	assert.Contains(t, apperrors.FormatUserMessage(err), "ollama pull llama3.1")
}

func TestOllamaServerError(t *testing.T) {
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"out of memory"}`))
	})

	_, err := client.Send(context.Background(), &Request{Messages: []Message{NewUserMessage("hi")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of memory")
}

func TestOllamaUnreachable(t *testing.T) {
	client := NewOllamaClient(&OllamaConfig{BaseURL: "http://127.0.0.1:1", Model: "llama3.1", Timeout: time.Second})

	_, err := client.Send(context.Background(), &Request{Messages: []Message{NewUserMessage("hi")}})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeModelUnavailable, apperrors.GetCode(err))
}

func TestOllamaRejectsAudio(t *testing.T) {
	client := NewOllamaClient(DefaultOllamaConfig("llama3.1"))

	msg := NewUserMessage("transcribe")
	msg.Audio = &Audio{Format: "wav", Data: []byte("RIFF")}
	_, err := client.Send(context.Background(), &Request{Messages: []Message{msg}})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeModelUnsupported, apperrors.GetCode(err))
}

func TestOllamaWithModel(t *testing.T) {
	client := NewOllamaClient(DefaultOllamaConfig("llama3.1"))
	cleanup := client.WithModel("qwen2.5:7b")

	assert.Equal(t, "qwen2.5:7b", cleanup.Name())
	assert.Equal(t, "llama3.1", client.Name())
	assert.True(t, cleanup.IsLocal())
}
