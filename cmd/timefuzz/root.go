package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "timefuzz",
	Short: "Run a grammar-aware differential fuzzing session",
	Long: `timefuzz provides:
- A grammar front-end for deriving, extracting, and extending bounded-length
  sequences of atoms under a context-free grammar.
- An exclusion tree recording which prefixes an oracle has already decided.
- A binary save-file format persisting the whole run.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var rootFlags = struct {
	verbose *bool
}{}

var logger zerolog.Logger

func init() {
	rootFlags.verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	cobra.OnInitialize(func() {
		level := zerolog.InfoLevel
		if *rootFlags.verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	})
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
