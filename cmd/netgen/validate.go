package main

import (
	"fmt"

	"github.com/GoSim-25-26J-441/netgen/pkg/config"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var printConfig bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a batch configuration without running it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid: %d scenarios, seed %d, %d workers\n",
				cfg.Batch.Scenarios, cfg.Batch.Seed, cfg.Batch.Workers)
			if !printConfig {
				return nil
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&printConfig, "print", false, "print the resolved configuration with defaults and overrides applied")
	return cmd
}
