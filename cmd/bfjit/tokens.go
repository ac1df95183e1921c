package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jitbf/bfjit/internal/core"
)

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Dump tokenizer output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			for _, tok := range core.Tokenize(src) {
				fmt.Printf("%d:%d\t%v\n", tok.Pos.Line, tok.Pos.Column, tok.Kind)
			}
			return nil
		},
	}
}

func newIRCmd() *cobra.Command {
	var optimize bool

	cmd := &cobra.Command{
		Use:   "ir <file>",
		Short: "Dump folded IR",
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

			fmt.Print(core.Dump(ops))
			return nil
		},
	}
	cmd.Flags().BoolVar(&optimize, "optimize", true, "fold consecutive same-kind instructions before dumping")
	return cmd
}
