package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/focus-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit settings",
	Long: `Show every setting of the config file. Use "focus config set" to change
timer durations, the phase cycle, notifications or the user id.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipServicesAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		values := make(map[string]string, len(config.Keys()))
		for _, key := range config.Keys() {
			v, err := config.GetValue(app.configPath, key)
			if err != nil {
				return err
			}
			values[key] = v
		}

		if jsonOutput {
			return printJSON(out, values)
		}
		fmt.Fprintf(out, "  Config file: %s\n\n", app.configPath)
		for _, key := range config.Keys() {
			fmt.Fprintf(out, "  %-28s %s\n", key, values[key])
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:         "get [key]",
	Short:       "Print one setting",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipServicesAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.GetValue(app.configPath, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:         "set [key] [value]",
	Short:       "Change one setting",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{skipServicesAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetValue(app.configPath, args[0], args[1]); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  Saved: %s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
