package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/cli"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/config_manager"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/scan_orchestrator"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const program = "wifiscan-publisher"

var logger = logrus.WithField("module", "main")

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   program,
	Short: "Publish nearby Wi-Fi access points over MQTT",
	Long: `wifiscan-publisher reads the kernel's cached Wi-Fi scan results for every wireless
interface and publishes each access point as a JSON message on the configured MQTT topic.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if code := runPublisher(cmd.Context()); code != scan_orchestrator.ExitSuccess {
			return exitCode(code)
		}
		return nil
	},
}

// exitCode carries a process exit status out of a cobra RunE.
type exitCode int

func (c exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(c))
}

// loadPublisherConfig reads the configuration and applies the log level, letting an
// explicit --log-level win over the file.
func loadPublisherConfig() (*config_manager.PublisherConfig, string, error) {
	path := utils.GetConfigPath(configPath)
	cm, err := config_manager.NewConfigManager(path)
	if err != nil {
		return nil, path, err
	}
	cfg, err := cm.LoadPublisherConfig()
	if err != nil {
		return nil, path, err
	}

	if logLevel == "" {
		utils.InitializeGlobalLogger(cfg.LogLevel)
	}
	return cfg, path, nil
}

func runPublisher(ctx context.Context) int {
	cfg, path, err := loadPublisherConfig()
	if err != nil {
		logger.WithError(err).WithField("config_path", path).Error("Failed to load config. Exiting.")
		return scan_orchestrator.ExitFailure
	}
	logger.WithField("config_path", path).Info("Config loaded")

	orchestrator, err := scan_orchestrator.New(ctx, cfg, os.Stdout)
	if err != nil {
		logger.WithError(err).Error("Failed to set up scan run")
		return scan_orchestrator.ExitFailure
	}
	return orchestrator.Run(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		fmt.Sprintf("config file (default $%s or %s)", utils.ConfigPathEnv, utils.DefaultConfigPath))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			utils.InitializeGlobalLogger(logLevel)
		} else {
			utils.InitializeGlobalLogger(config_manager.DefaultLogLevel)
		}
	}

	rootCmd.AddCommand(
		interfacesCmd,
		scanCmd,
		cli.NewConfigCommand(&configPath),
		cli.NewVersionCommand(program),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		if code, ok := err.(exitCode); ok {
			os.Exit(int(code))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
