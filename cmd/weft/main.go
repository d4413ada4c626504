// Command weft runs small demonstration chains against the engine and
// prints what each step observed.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "weft",
		Short:         "Compose and run middleware chains",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Engine log level (debug, info, warn, error)")

	logger := func(cmd *cobra.Command) (*slog.Logger, error) {
		var level slog.Level
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return nil, fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
		}
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})), nil
	}

	rootCmd.AddCommand(newDemoCmd(logger))
	return rootCmd
}
