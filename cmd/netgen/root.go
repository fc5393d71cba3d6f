package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/GoSim-25-26J-441/netgen/pkg/config"
	"github.com/GoSim-25-26J-441/netgen/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Environment variables read after .env is loaded; flags take precedence
const (
	envConfig    = "NETGEN_CONFIG"
	envLogLevel  = "NETGEN_LOG_LEVEL"
	envOutputDir = "NETGEN_OUTPUT_DIR"
	envSeed      = "NETGEN_SEED"
	envWorkers   = "NETGEN_WORKERS"
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "netgen",
		Short: "Generate labeled synthetic network scenarios.",
		Long: `netgen builds randomized hierarchical IoT/edge/cloud topologies, ` +
			`simulates their sensor and result flows packet by packet, and writes ` +
			`per-flow QoS labels for each scenario of a batch.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// a missing .env file is not an error
			if err := godotenv.Load(opts.envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to load %s: %w", opts.envFile, err)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "config/netgen.yaml", "batch configuration file (env "+envConfig+")")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with NETGEN_* defaults")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (json, text); overrides the config")

	cmd.AddCommand(newRunCmd(opts), newValidateCmd(opts))
	return cmd
}

// loadConfig reads the configuration and applies environment and flag
// overrides, in that order
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := o.configPath
	if v := os.Getenv(envConfig); v != "" && !cmd.Flags().Changed("config") {
		path = v
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(envOutputDir); v != "" {
		cfg.Batch.OutputDir = v
	}
	if v := os.Getenv(envSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", config.ErrInvalidConfig, envSeed, v)
		}
		cfg.Batch.Seed = seed
	}
	if v := os.Getenv(envWorkers); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", config.ErrInvalidConfig, envWorkers, v)
		}
		cfg.Batch.Workers = workers
	}

	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	return cfg, nil
}

// newLogger builds the logger for cfg and installs it as the process default
func (o *rootOptions) newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	l := logger.NewWithFormat(cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr())
	logger.SetDefault(l)
	return l
}
