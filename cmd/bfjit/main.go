// Command bfjit compiles and runs Brainfuck programs: tokenize, dump IR,
// interpret, JIT-execute in process, or emit a standalone asm/ELF binary.
// It supersedes the teacher's cmd/bfcc, wiring every subcommand through
// cobra instead of main.go's original hand-rolled flag.FlagSet switch
// (whose "build"/"asm" commands were never dispatched from main at all).
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	root := &cobra.Command{
		Use:           "bfjit",
		Short:         "A Brainfuck JIT compiler and interpreter",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all logging but errors")

	root.AddCommand(
		newRunCmd(),
		newInterpCmd(),
		newTokensCmd(),
		newIRCmd(),
		newBuildCmd(),
		newAsmCmd(),
	)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("bfjit failed")
		os.Exit(1)
	}
}

func configureLogging() {
	level := zerolog.InfoLevel
	switch {
	case quiet:
		level = zerolog.ErrorLevel
	case verbose:
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}
