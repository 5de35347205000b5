package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

// ModelSizes are the accepted speech-to-text model sizes.
var ModelSizes = []string{"tiny", "base", "small", "medium", "large", "large-v2", "large-v3"}

const (
	DefaultWhisperURL = "http://localhost:8000"
	DefaultModelSize  = "base"
)

// SpeechToText turns a recording into raw text.
type SpeechToText interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// WhisperConfig configures the local speech-to-text server client.
type WhisperConfig struct {
	BaseURL   string
	ModelSize string
	Timeout   time.Duration
}

// WhisperClient calls an OpenAI-compatible whisper server.
type WhisperClient struct {
	cfg        WhisperConfig
	httpClient *http.Client
	log        zerolog.Logger
}

// NewWhisperClient creates a whisper client.
func NewWhisperClient(cfg WhisperConfig, log zerolog.Logger) *WhisperClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWhisperURL
	}
	if cfg.ModelSize == "" {
		cfg.ModelSize = DefaultModelSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &WhisperClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With().Str("component", "whisper").Logger(),
	}
}

// ValidModelSize reports whether size is one of ModelSizes.
func ValidModelSize(size string) bool {
	return slices.Contains(ModelSizes, size)
}

// Transcribe uploads the recording and returns the raw transcript.
func (c *WhisperClient) Transcribe(ctx context.Context, path string) (string, error) {
	if !ValidModelSize(c.cfg.ModelSize) {
		return "", apperrors.NewBuilder(apperrors.CodeConfigInvalid, fmt.Sprintf("unknown transcription model size %q", c.cfg.ModelSize)).
			Config().
			WithSuggestion("Set TRANSCRIPT_MODEL to one of: " + strings.Join(ModelSizes, ", ")).
			Build()
	}

	body, contentType, err := c.multipartBody(path)
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeUpstreamFailed, "failed to build transcription request", apperrors.CategorySystem)
	}
	req.Header.Set("Content-Type", contentType)

	c.log.Debug().Str("path", path).Str("model", c.cfg.ModelSize).Msg("transcribing")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewBuilder(apperrors.CodeUpstreamFailed, "speech-to-text server unreachable").
			External().
			Wrap(err).
			WithSuggestion(fmt.Sprintf("Check that a whisper server is running at %s", c.cfg.BaseURL)).
			Build()
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeUpstreamFailed, "failed to read transcription response", apperrors.CategoryExternal)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.External(apperrors.CodeUpstreamFailed,
			fmt.Sprintf("speech-to-text server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeUpstreamFailed, "failed to decode transcription response", apperrors.CategoryExternal)
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", apperrors.External(apperrors.CodeUpstreamFailed, "speech-to-text returned an empty transcript")
	}
	return text, nil
}

func (c *WhisperClient) multipartBody(path string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.CodeFileInvalid, "cannot open "+path, apperrors.CategoryUser)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.CodeFileInvalid, "failed to build upload", apperrors.CategorySystem)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.CodeFileInvalid, "failed to read "+path, apperrors.CategoryUser)
	}
	_ = w.WriteField("model", c.cfg.ModelSize)
	_ = w.WriteField("response_format", "json")
	if err := w.Close(); err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.CodeFileInvalid, "failed to build upload", apperrors.CategorySystem)
	}

	return &buf, w.FormDataContentType(), nil
}
