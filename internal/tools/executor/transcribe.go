package executor

import (
	"context"
	"time"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

// Transcriber turns a recording into a saved diary entry.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// TranscribeAudio files a WAV recording as a Markdown diary entry.
type TranscribeAudio struct {
	Pipeline Transcriber
}

func (t *TranscribeAudio) Name() string { return "transcribe_audio" }

func (t *TranscribeAudio) Description() string {
	return "Transcribe a single-channel .wav recording into clean Markdown and save it as a dated diary entry"
}

func (t *TranscribeAudio) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	start := time.Now()

	path, ok := input["wav_file_path"].(string)
	if !ok || path == "" {
		return TimedResult(NewErrorResult(apperrors.User(apperrors.CodeToolInvalidParams, "wav_file_path is required")), start), nil
	}
	if t.Pipeline == nil {
		return TimedResult(NewErrorResult(apperrors.Config(apperrors.CodeToolExecutionFailed, "transcription not configured")), start), nil
	}

	out, err := t.Pipeline.Transcribe(ctx, path)
	if err != nil {
		return TimedResult(NewErrorResult(err), start), nil
	}
	return TimedResult(NewSuccessResult(out), start), nil
}
