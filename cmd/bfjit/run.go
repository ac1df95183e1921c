package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jitbf/bfjit/internal/core"
	"github.com/jitbf/bfjit/internal/interp"
	"github.com/jitbf/bfjit/internal/runtime"
)

func newRunCmd() *cobra.Command {
	var optimize bool

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "JIT-compile and run a Brainfuck program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vm, err := runtime.New(args[0], os.Stdin, os.Stdout, optimize, runtime.WithLogger(log.Logger))
			if err != nil {
				return err
			}
			defer vm.Close()

			return vm.Run()
		},
	}
	cmd.Flags().BoolVar(&optimize, "optimize", true, "fold consecutive same-kind instructions before running")
	return cmd
}

func newInterpCmd() *cobra.Command {
	var optimize bool

	cmd := &cobra.Command{
		Use:   "interp <file>",
		Short: "Interpret a Brainfuck program without JIT-compiling it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			ops, err := core.Parse(core.Tokenize(src))
			if err != nil {
				return err
			}
			if optimize {
				ops = core.Optimise(ops)
			}

			vm := interp.New(interp.WithInput(os.Stdin), interp.WithOutput(os.Stdout))
			return vm.Run(ops)
		},
	}
	cmd.Flags().BoolVar(&optimize, "optimize", true, "fold consecutive same-kind instructions before running")
	return cmd
}
