package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/logbook-ai/logbook/internal/agent"
	"github.com/logbook-ai/logbook/internal/config"
)

const userPrompt = "You> "

// lineReader is the slice of liner the REPL loop needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type invoker interface {
	Invoke(ctx context.Context, prompt string) (*agent.Response, error)
}

func historyPath() string {
	return filepath.Join(filepath.Dir(config.DefaultPath()), "history")
}

func runInteractive(ctx context.Context, rt *runtime, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histFile := historyPath()
	if f, err := os.Open(histFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintln(out, dimText.Render(fmt.Sprintf("logbook %s · %s · type exit or quit to leave", Version, rt.backend.Name())))

	loopErr := replLoop(ctx, line, rt.agent, out)

	if err := os.MkdirAll(filepath.Dir(histFile), 0o755); err == nil {
		if f, err := os.OpenFile(histFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}
	return loopErr
}

// replLoop reads prompts until exit, quit, Ctrl-C or EOF. A backend failure
// ends the session with that error.
func replLoop(ctx context.Context, in lineReader, a invoker, out io.Writer) error {
	for {
		input, err := in.Prompt(userPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "exit", "quit":
			return nil
		}
		in.AppendHistory(input)

		resp, err := a.Invoke(ctx, input)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, agentLabel.Render("Agent>")+" "+resp.Message)
	}
}
