package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

var (
	listRemote bool
	listJSON   bool
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the model can call",
	Long: `List the built-in tools with their descriptions.

With --remote, also list the tools advertised by the server at --mcp-server-url.
With --json, print the tool schemas in the function-calling format sent to the model.`,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&listRemote, "remote", false, "also list tools advertised by the remote server")
	toolsCmd.Flags().BoolVar(&listJSON, "json", false, "print tool schemas as JSON")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rc := newRemoteClient(cfg, log)
	registry := newToolRegistry(cfg, nil, rc, log)

	if listJSON {
		data, err := json.MarshalIndent(registry.ToOpenAIFormat(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, agentLabel.Render("Built-in tools"))
	for _, line := range registry.PromptLines() {
		fmt.Fprintf(out, "  %-18s %s\n", line.Name, dimText.Render(line.Description))
	}

	if !listRemote {
		return nil
	}
	if !cfg.IsRemoteEnabled() {
		return apperrors.NewBuilder(apperrors.CodeConfigInvalid, "no remote tool server configured").
			Config().
			WithSuggestion("Use --mcp-server-url or set MCP_SERVER_URL").
			Build()
	}

	remoteTools, err := rc.ListTools(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, agentLabel.Render("Remote tools")+" "+dimText.Render(cfg.Remote.ServerURL))
	for _, t := range remoteTools {
		fmt.Fprintf(out, "  %-18s %s\n", t.Name, dimText.Render(firstLine(t.Description)))
	}
	return nil
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	return s
}
