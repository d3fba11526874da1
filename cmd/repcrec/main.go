// Command repcrec runs the RepCRec simulator against one script or a
// directory of scripts and writes the required trace to stdout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repcrec/internal/tracelog"
)

var (
	version = "dev"

	cfgPath  string
	jsonOut  bool
	logLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "repcrec",
	Short:   "Deterministic simulator of a replicated concurrency-control database",
	Version: version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("repcrec version %s\n", version))

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a key=value config file (defaults to 10 sites / 20 variables)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "emit the trace as JSON lines instead of console text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", string(tracelog.InfoLevel), "trace verbosity (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(runAllCmd)
}

func newTrace() *tracelog.Trace {
	return tracelog.New(tracelog.Config{
		Level:      tracelog.Level(logLevel),
		JSONOutput: jsonOut,
		Output:     os.Stdout,
	})
}
