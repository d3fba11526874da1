package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repcrec/internal/config"
	"repcrec/pkg/simulator"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Parse and execute a single input script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()

		sim := simulator.New(cfg, newTrace())
		summary, runErr := sim.Run(f)
		fmt.Fprintln(os.Stdout, summary.String())
		return runErr
	},
}

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
