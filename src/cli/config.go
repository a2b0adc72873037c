package cli

import (
	"encoding/json"
	"fmt"

	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/config_manager"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/utils"
	"github.com/spf13/cobra"
)

// NewConfigCommand manages the configuration file named by *configPath (or its fallbacks).
func NewConfigCommand(configPath *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration file operations",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := utils.GetConfigPath(*configPath)
			_, created, err := config_manager.EnsureDefaultConfig(path)
			if err != nil {
				return fmt.Errorf("failed to initialize %s: %w", path, err)
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at %s, left unchanged\n", path)
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := utils.GetConfigPath(*configPath)
			cm, err := config_manager.NewConfigManager(path)
			if err != nil {
				return err
			}
			if err := cm.Load(); err != nil {
				return err
			}
			settings, err := json.MarshalIndent(cm.AllSettings(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(settings))
			return nil
		},
	}

	configCmd.AddCommand(initCmd, showCmd)
	return configCmd
}
