// Command siren estimates the speed of a passing emergency vehicle from a
// recording of its two-tone siren.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banshee-data/siren.report/internal/monitoring"
)

type rootOptions struct {
	logLevel string
	verbose  bool
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "siren",
		Short: "Doppler speed estimation from two-tone sirens",
		Long: `siren tracks the high and low tones of a passing emergency vehicle's
siren, fits a Doppler model to their pitch history and reports the
vehicle's speed, its distance from the road and the time of closest
approach.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.installLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "human-readable development logging")

	root.AddCommand(newAnalyzeCmd(), newSimulateCmd(), newVersionCmd())
	return root
}

func (o *rootOptions) installLogger() error {
	l, err := monitoring.NewZapLogger(o.logLevel, o.verbose)
	if err != nil {
		return err
	}
	o.logger = l
	monitoring.UseZap(l)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
