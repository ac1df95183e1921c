package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jitbf/bfjit/internal/codegen/gas"
	"github.com/jitbf/bfjit/internal/core"
)

func newAsmCmd() *cobra.Command {
	var output string
	var optimize bool

	cmd := &cobra.Command{
		Use:   "asm <file>",
		Short: "Emit GAS assembly for a standalone Linux binary",
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
				outFile = strings.TrimSuffix(file, ".bf") + ".s"
			}

			asmText := gas.NewGenerator(ops).Generate()

			if err := os.WriteFile(outFile, []byte(asmText), 0o644); err != nil {
				return err
			}

			fmt.Printf("generated %s -> %s\n", file, outFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: input file with .s extension)")
	cmd.Flags().BoolVar(&optimize, "optimize", true, "fold consecutive same-kind instructions before generating")
	return cmd
}
