package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jitbf/bfjit/internal/codegen/linux"
	"github.com/jitbf/bfjit/internal/core"
)

func newBuildCmd() *cobra.Command {
	var output string
	var optimize bool

	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Compile to a standalone ELF64 Linux executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			src, err := os.ReadFile(file)
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

			outFile := output
			if outFile == "" {
				outFile = strings.TrimSuffix(file, ".bf")
			}

			gen := linux.NewX86_64Generator(ops)
			binary := gen.GenerateELF()

			if err := os.WriteFile(outFile, binary, 0o755); err != nil {
				return err
			}

			fmt.Printf("built %s -> %s\n", file, outFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: input file without extension)")
	cmd.Flags().BoolVar(&optimize, "optimize", true, "fold consecutive same-kind instructions before building")
	return cmd
}
