package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/cli"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/config_manager"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/subscriber"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const program = "wifiscan-subscriber"

var logger = logrus.WithField("module", "main")

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   program,
	Short: "Print Wi-Fi scan results and acknowledgments received over MQTT",
	Long: `wifiscan-subscriber subscribes to the scan result topic and the ACK topic and prints
every message it receives until interrupted.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			utils.InitializeGlobalLogger(logLevel)
		} else {
			utils.InitializeGlobalLogger(config_manager.DefaultLogLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSubscriberConfig()
		if err != nil {
			return err
		}

		listener, err := subscriber.NewListener(cmd.Context(), cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return listener.Run(cmd.Context())
	},
}

func loadSubscriberConfig() (*config_manager.SubscriberConfig, error) {
	path := utils.GetConfigPath(configPath)
	cm, err := config_manager.NewConfigManager(path)
	if err != nil {
		return nil, err
	}
	cfg, err := cm.LoadSubscriberConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if logLevel == "" {
		utils.InitializeGlobalLogger(cfg.LogLevel)
	}
	logger.WithField("config_path", path).Info("Config loaded")
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		fmt.Sprintf("config file (default $%s or %s)", utils.ConfigPathEnv, utils.DefaultConfigPath))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(
		cli.NewConfigCommand(&configPath),
		cli.NewVersionCommand(program),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
