package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"repcrec/internal/config"
	"repcrec/pkg/simulator"
)

// runAllCmd mirrors the original driver's batch mode (SPEC_FULL.md
// §5): run every *.txt file in a directory, keep going past failures,
// report which ones failed, and exit non-zero iff any did.
var runAllCmd = &cobra.Command{
	Use:   "run-all <dir>",
	Short: "Run every *.txt script in a directory, in name order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		matches, err := filepath.Glob(filepath.Join(args[0], "*.txt"))
		if err != nil {
			return err
		}
		sort.Strings(matches)

		var failed []string
		for _, path := range matches {
			fmt.Fprintf(os.Stdout, "=== %s ===\n", path)
			if err := runOne(cfg, path); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				failed = append(failed, path)
			}
		}

		if len(failed) > 0 {
			fmt.Fprintf(os.Stderr, "%d of %d scripts failed: %v\n", len(failed), len(matches), failed)
			return fmt.Errorf("%d script(s) failed", len(failed))
		}
		return nil
	},
}

func runOne(cfg *config.Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sim := simulator.New(cfg, newTrace())
	summary, runErr := sim.Run(f)
	fmt.Fprintln(os.Stdout, summary.String())
	return runErr
}
