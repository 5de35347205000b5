// Package transcribe turns audio recordings into Markdown diary entries.
//
// With a local backend the recording goes through a speech-to-text server
// and the raw text is then tidied by a chat model. With a cloud backend a
// single multimodal request does both.
package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
	"github.com/logbook-ai/logbook/internal/model"
	"github.com/logbook-ai/logbook/internal/prompt"
)

// DefaultDiaryDir is where entries go when no directory is configured.
const DefaultDiaryDir = "diary"

// Options configures a Pipeline.
type Options struct {
	Backend      model.Backend
	CleanupModel string // model used for the local cleanup pass; empty keeps Backend's
	STT          SpeechToText
	DiaryDir     string
	Now          func() time.Time
}

// Pipeline transcribes a recording and files it in the diary.
type Pipeline struct {
	backend      model.Backend
	cleanupModel string
	stt          SpeechToText
	diaryDir     string
	now          func() time.Time
	log          zerolog.Logger
}

// NewPipeline creates a transcription pipeline.
func NewPipeline(opts Options, log zerolog.Logger) *Pipeline {
	if opts.DiaryDir == "" {
		opts.DiaryDir = DefaultDiaryDir
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		backend:      opts.Backend,
		cleanupModel: opts.CleanupModel,
		stt:          opts.STT,
		diaryDir:     opts.DiaryDir,
		now:          opts.Now,
		log:          log.With().Str("component", "transcribe").Logger(),
	}
}

// Transcribe validates the recording, produces the Markdown body and writes
// the diary entry. It returns "Transcript saved to: <path>". Nothing is
// written when any stage before the write fails.
func (p *Pipeline) Transcribe(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", apperrors.User(apperrors.CodeInvalidInput, "audio file path is required")
	}
	path = expandPath(path)

	if _, err := ValidateWAV(path); err != nil {
		return "", err
	}

	// The entry is dated when the request arrived, not when the stages finish.
	captured := p.now()

	if p.backend == nil {
		return "", apperrors.Config(apperrors.CodeModelUnavailable, "no model backend configured for transcription")
	}

	var body string
	var err error
	if p.backend.IsLocal() {
		body, err = p.transcribeLocal(ctx, path)
	} else {
		body, err = p.transcribeCloud(ctx, path)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		return "", apperrors.External(apperrors.CodeModelInvalidResponse, "model returned an empty transcript")
	}

	out, err := WriteEntry(p.diaryDir, Entry{Timestamp: captured, Body: body})
	if err != nil {
		return "", err
	}
	p.log.Info().Str("path", out).Msg("diary entry written")
	return "Transcript saved to: " + out, nil
}

func (p *Pipeline) transcribeLocal(ctx context.Context, path string) (string, error) {
	if p.stt == nil {
		return "", apperrors.Config(apperrors.CodeModelUnavailable, "no speech-to-text service configured")
	}

	raw, err := p.stt.Transcribe(ctx, path)
	if err != nil {
		return "", err
	}
	p.log.Debug().Int("chars", len(raw)).Msg("raw transcript")

	cleaner := p.backend
	if p.cleanupModel != "" {
		cleaner = p.backend.WithModel(p.cleanupModel)
	}

	resp, err := cleaner.Send(ctx, &model.Request{
		Messages: []model.Message{model.NewUserMessage(prompt.BuildCleanupPrompt(raw))},
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (p *Pipeline) transcribeCloud(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeFileInvalid, "cannot read "+path, apperrors.CategoryUser)
	}

	msg := model.NewUserMessage(prompt.AudioInstruction)
	msg.Audio = &model.Audio{Format: "wav", Data: data}

	resp, err := p.backend.Send(ctx, &model.Request{Messages: []model.Message{msg}})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func expandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
