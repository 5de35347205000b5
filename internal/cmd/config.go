package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/logbook-ai/logbook/internal/config"
	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the logbook config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current settings to the config file",
	Long: `Write the merged settings (defaults, config file, .env, environment and flags)
as TOML to --config, or ~/.logbook/config.toml when --config is not set.`,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !forceInit {
		return apperrors.NewBuilder(apperrors.CodeConfigInvalid, fmt.Sprintf("config file already exists: %s", path)).
			Config().
			WithSuggestion("Use --force to overwrite it").
			Build()
	}

	if err := cfg.Save(path); err != nil {
		return apperrors.Wrap(err, apperrors.CodeFileWriteFailed, "failed to write "+path, apperrors.CategorySystem)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Config written to: %s\n", path)
	return nil
}
