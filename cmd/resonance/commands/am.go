package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/resonance/am"
	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/sym"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: sym.Short("am"),
	Long: sym.AM + ` am - Show and validate resonance configuration

Configuration sources (in order of precedence):
1. Environment variables (RESONANCE_* prefix)
2. Project config (resonance.toml, searched upward from the working directory)
3. User config (~/.resonance/resonance.toml)
4. System config (/etc/resonance/resonance.toml)
5. Default values

Examples:
  resonance am show                 # Show current configuration
  resonance am show --format json   # Show configuration in JSON format
  resonance am get region.pages     # Get a specific config value
  resonance am validate             # Validate current configuration
  resonance am where                # Show where each setting came from`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., region.pages, cluster.workers)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where each setting is loaded from",
	RunE:  runAmWhere,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	settings := am.GetViper().AllSettings()

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))

	case "yaml":
		data, err := yaml.Marshal(settings)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# resonance configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(settings)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# resonance configuration\n%s", string(data))

	default:
		return errors.NewInvalidArgumentError("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	key := args[0]
	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.NewInvalidArgumentError("configuration key %q not found", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	settings, err := am.Introspect()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(cmd.OutOrStdout(), "  1. [default]      Built-in defaults")
	fmt.Fprintln(cmd.OutOrStdout(), "  2. [system]       /etc/resonance/resonance.toml")
	fmt.Fprintln(cmd.OutOrStdout(), "  3. [user]         ~/.resonance/resonance.toml")
	fmt.Fprintln(cmd.OutOrStdout(), "  4. [project]      ./resonance.toml (searches up directories)")
	fmt.Fprintln(cmd.OutOrStdout(), "  5. [environment]  RESONANCE_* environment variables")
	fmt.Fprintln(cmd.OutOrStdout())

	data := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, s := range settings {
		data = append(data, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
