package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/logbook-ai/logbook/internal/config"
	apperrors "github.com/logbook-ai/logbook/internal/errors"
	"github.com/logbook-ai/logbook/internal/logging"
)

var (
	configPath    string
	promptText    string
	provider      string
	modelID       string
	promptMode    string
	ollamaBaseURL string
	awsRegion     string
	mcpServerURL  string
	verbose       bool
)

var (
	agentLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimText    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var rootCmd = &cobra.Command{
	Use:   "logbook",
	Short: "A tool-calling assistant with weather, stocks and an audio diary",
	Long: `logbook sends a prompt to a local Ollama model or an AWS Bedrock model and
lets the model call tools: UTC time, a calculator, current weather, an hourly
forecast, stock quotes and audio transcription into Markdown diary entries.

Run with --prompt for a single answer, or without it for an interactive session.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorLabel.Render("Error:")+" "+apperrors.FormatUserMessage(err))
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ~/.logbook/config.toml)")
	pf.StringVar(&provider, "provider", "", "model provider: ollama or bedrock (env PROVIDER)")
	pf.StringVar(&modelID, "model", "", "model id (env MODEL)")
	pf.StringVar(&promptMode, "prompt-mode", "", "system prompt: minimal or full (env PROMPT_MODE)")
	pf.StringVar(&ollamaBaseURL, "ollama-base-url", "", "Ollama server URL (env OLLAMA_BASE_URL)")
	pf.StringVar(&awsRegion, "aws-region", "", "AWS region for Bedrock (env AWS_REGION)")
	pf.StringVar(&mcpServerURL, "mcp-server-url", "", "remote tool server URL (env MCP_SERVER_URL)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging and a stats summary")

	rootCmd.Flags().StringVarP(&promptText, "prompt", "p", "", "answer a single prompt and exit")
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), os.Interrupt)
	defer stop()

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if strings.TrimSpace(promptText) != "" {
		resp, err := rt.agent.Invoke(ctx, promptText)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, resp.Message)
	} else if err := runInteractive(ctx, rt, out); err != nil {
		return err
	}

	if cfg.Log.Verbose {
		fmt.Fprintln(cmd.ErrOrStderr(), dimText.Render(rt.agent.Stats().Collect().Summary()))
	}
	return nil
}

// loadConfig merges defaults, the TOML file, .env, the environment and the
// flags that were set on cmd, in increasing precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, zerolog.Nop(), err
	}

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	v := config.NewViper()
	for _, name := range []string{"provider", "model", "prompt-mode", "ollama-base-url", "aws-region", "mcp-server-url", "verbose"} {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(name, f); err != nil {
				return nil, zerolog.Nop(), err
			}
		}
	}
	cfg.Apply(v)

	log := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Verbose)
	log.Debug().Str("config", path).Str("provider", cfg.Models.Provider).Str("model", cfg.Models.Model).Msg("configuration loaded")
	return cfg, log, nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
