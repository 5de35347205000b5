package transcribe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

const wavFormatPCM = 1

// AudioInfo describes a validated recording.
type AudioInfo struct {
	Path       string
	SampleRate uint32
	BitDepth   uint16
	Duration   time.Duration
}

// ValidateWAV checks that path names an existing single-channel PCM WAV file.
func ValidateWAV(path string) (*AudioInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.User(apperrors.CodeFileNotFound, "file not found: "+path)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeFileInvalid, "cannot access "+path, apperrors.CategoryUser)
	}
	if info.IsDir() {
		return nil, apperrors.User(apperrors.CodeFileInvalid, path+" is a directory")
	}

	if ext := filepath.Ext(path); strings.ToLower(ext) != ".wav" {
		return nil, apperrors.User(apperrors.CodeFileInvalid, fmt.Sprintf("expected a .wav file, got %q", ext))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeFileInvalid, "cannot open "+path, apperrors.CategoryUser)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, apperrors.User(apperrors.CodeFileInvalid, path+" is not a valid WAV file")
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, apperrors.User(apperrors.CodeFileInvalid, fmt.Sprintf("%s is not PCM audio (format %d)", path, dec.WavAudioFormat))
	}
	if dec.NumChans != 1 {
		return nil, apperrors.User(apperrors.CodeFileInvalid, fmt.Sprintf("%s has %d channels, expected mono", path, dec.NumChans))
	}

	duration, err := dec.Duration()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeFileInvalid, path+" has no readable audio data", apperrors.CategoryUser)
	}

	return &AudioInfo{
		Path:       path,
		SampleRate: dec.SampleRate,
		BitDepth:   dec.BitDepth,
		Duration:   duration,
	}, nil
}
