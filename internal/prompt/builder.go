// Package prompt builds system prompts and model instructions for logbook.
package prompt

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

type Mode string

const (
	ModeFull    Mode = "full"
	ModeMinimal Mode = "minimal"
)

// DefaultIdentity is the base system prompt.
const DefaultIdentity = "You are a helpful assistant. Use tools when needed and keep answers concise."

// CleanupInstruction asks a model to tidy a raw transcript without altering it.
const CleanupInstruction = "Convert this text into clean Markdown. " +
	"Do not translate or change any of the content; only fix grammar and formatting. " +
	"Text is in English, but may contain grammar mistakes, filler words, and disfluencies. " +
	"Return only the transcribed and grammar-corrected content with no additional commentary or analysis."

// AudioInstruction asks a multimodal model to transcribe and tidy a recording
// in one step.
const AudioInstruction = "Transcribe the attached audio recording and return the transcript as clean Markdown. " +
	"Do not translate or change any of the content; only fix grammar and formatting. " +
	"Speech is in English, but may contain grammar mistakes, filler words, and disfluencies. " +
	"Return only the transcribed and grammar-corrected content with no additional commentary or analysis."

type Builder struct {
	Mode     Mode
	Identity string
	Timezone string
	Now      func() time.Time
}

// ToolLine describes one tool for the Tooling section.
type ToolLine struct {
	Name        string
	Description string
}

type SystemContext struct {
	Tools   []ToolLine
	Runtime string
}

func NewBuilder(mode Mode) *Builder {
	return &Builder{
		Mode:     mode,
		Identity: DefaultIdentity,
		Now:      time.Now,
	}
}

// BuildSystemPrompt renders the system prompt. Minimal mode is the identity
// line alone.
func (b *Builder) BuildSystemPrompt(ctx SystemContext) string {
	identity := nonEmpty(b.Identity, DefaultIdentity)
	if b.Mode != ModeFull {
		return identity
	}

	var sections []string
	sections = append(sections, identity)
	sections = append(sections, "Tooling:\n"+nonEmpty(b.toolingSection(ctx.Tools), "None."))
	sections = append(sections, "Runtime:\n"+nonEmpty(ctx.Runtime, b.runtimeLine()))
	sections = append(sections, "Current Date & Time:\n"+b.timeLine())

	return strings.Join(sections, "\n\n")
}

// BuildCleanupPrompt pairs the cleanup instruction with a raw transcript.
func BuildCleanupPrompt(raw string) string {
	return CleanupInstruction + "\n\n" + raw
}

func (b *Builder) toolingSection(tools []ToolLine) string {
	if len(tools) == 0 {
		return ""
	}
	var bld strings.Builder
	for _, t := range tools {
		bld.WriteString(fmt.Sprintf("- %s: %s\n", t.Name, t.Description))
	}
	return strings.TrimSpace(bld.String())
}

func (b *Builder) runtimeLine() string {
	return fmt.Sprintf("%s/%s go=%s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func (b *Builder) timeLine() string {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	t := now()
	if b.Timezone != "" {
		if loc, err := time.LoadLocation(b.Timezone); err == nil {
			t = t.In(loc)
		}
	}
	return fmt.Sprintf("%s (%s)", t.Format("Monday, January 2, 2006 15:04"), t.Location())
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
