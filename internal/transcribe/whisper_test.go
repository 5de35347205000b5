package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

func TestWhisperClient_Transcribe(t *testing.T) {
	wavPath := writeWAV(t, t.TempDir(), "memo.wav", 1)

	var gotModel, gotFile, gotPath string
	var gotSize int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if !assert.NoError(t, r.ParseMultipartForm(10<<20)) {
			return
		}
		gotModel = r.FormValue("model")
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		gotFile = hdr.Filename
		gotSize = len(data)
		_, _ = w.Write([]byte(`{"text":"  hello from the dock  "}`))
	}))
	defer ts.Close()

	client := NewWhisperClient(WhisperConfig{BaseURL: ts.URL, ModelSize: "small", Timeout: 5 * time.Second}, zerolog.Nop())
	text, err := client.Transcribe(context.Background(), wavPath)
	require.NoError(t, err)

	assert.Equal(t, "hello from the dock", text)
	assert.Equal(t, "/v1/audio/transcriptions", gotPath)
	assert.Equal(t, "small", gotModel)
	assert.Equal(t, "memo.wav", gotFile)
	assert.Greater(t, gotSize, 44)
}

func TestWhisperClient_UnknownSize(t *testing.T) {
	client := NewWhisperClient(WhisperConfig{ModelSize: "gigantic"}, zerolog.Nop())
	_, err := client.Transcribe(context.Background(), "unused.wav")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConfigInvalid))
	assert.Contains(t, err.Error(), `"gigantic"`)
}

func TestWhisperClient_Errors(t *testing.T) {
	wavPath := writeWAV(t, t.TempDir(), "memo.wav", 1)

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, "model not loaded", "status 500: model not loaded"},
		{"empty transcript", http.StatusOK, `{"text":"   "}`, "empty transcript"},
		{"bad json", http.StatusOK, `not json`, "failed to decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			client := NewWhisperClient(WhisperConfig{BaseURL: ts.URL}, zerolog.Nop())
			_, err := client.Transcribe(context.Background(), wavPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidModelSize(t *testing.T) {
	for _, size := range ModelSizes {
		assert.True(t, ValidModelSize(size), size)
	}
	assert.False(t, ValidModelSize("huge"))
	assert.False(t, ValidModelSize(""))
}
