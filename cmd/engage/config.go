package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"engage/pkg/config"
	"engage/pkg/export"
	"engage/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage engage configuration files.

Values are taken from, highest priority first:
  - Command line flags
  - Environment variables (ENGAGE_*)
  - .env and ~/.engage.env files
  - Configuration file (YAML or TOML)
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with the default values",
	Long: `Write the default configuration to path (default .engage.yaml). A path
ending in .toml is written as TOML.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the row filter",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := ".engage.yaml"
	if len(args) == 1 {
		path = args[0]
	} else if configFile != "" {
		path = configFile
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Set export.mode to remote and export.endpoint to use a webhook")
	fmt.Fprintln(out, "2. Store the webhook token with 'engage webhook login'")
	fmt.Fprintln(out, "3. Run 'engage collect <post-url>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current configuration")
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}
	if _, err := export.NewFilter(cfg.Export.Filter); err != nil {
		return fmt.Errorf("export filter: %w", err)
	}
	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Export", describeExport(&cfg.Export))
	ui.PrintInfo("Global cap", fmt.Sprint(cfg.Collection.GlobalCap))
	return nil
}
