// ABOUTME: Root cobra command for the rawview CLI
// ABOUTME: Loads configuration at init time and routes logging to the log file
package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/rawview/internal/config"
)

var (
	// Global flags
	configPath string
	logFile    string
	verbose    bool

	// Global configuration (loaded at init time)
	globalConfig  *config.Config
	configLoadErr error

	logOut *os.File
)

var rootCmd = &cobra.Command{
	Use:   "rawview",
	Short: "Viewer for raw multi-channel electrophysiology recordings",
	Long: `rawview - browse raw electrophysiology recordings.

Recordings can be local flat binary files, remote compressed recordings
resolved from an Alyx session, or a synthetic signal.

Configuration is stored in ~/.rawview/config.yaml.

Examples:
  # Browse a local file in the terminal
  rawview view --file probe00.ap.bin

  # Browse a remote probe in a desktop window
  rawview view --session 0a018f12-ee06-4b11-97aa-bbbff5448e9f --probe 0 --window

  # Render a polygon demo to PNG
  rawview polygons --points points.bin --lengths lengths.bin -o out.png`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.rawview/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "rawview.log", "log file path (empty disables)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() {
	cfg, err := config.Load(configPath)
	if err != nil {
		// Reported by commands that need the config
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// setupLogging logs to both stdout and the log file
func setupLogging() error {
	closeLog()
	if logFile == "" {
		log.SetOutput(os.Stdout)
		return nil
	}

	f, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	logOut = f
	log.SetOutput(io.MultiWriter(os.Stdout, f))
	return nil
}

// logOnlyToFile keeps interactive front ends free of log output
func logOnlyToFile() {
	if logOut != nil {
		log.SetOutput(logOut)
	} else {
		log.SetOutput(io.Discard)
	}
}

func closeLog() {
	if logOut != nil {
		_ = logOut.Close()
		logOut = nil
	}
	log.SetOutput(os.Stderr)
}
