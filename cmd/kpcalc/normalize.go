package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kpcalc/backend/internal/usecase"
)

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <name>...",
		Short: "Show the normalized form and packaging parsed from product names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				packaging := usecase.FormatPackaging(usecase.ExtractPackaging(name))
				if packaging == "" {
					packaging = "-"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", usecase.NormalizeName(name), packaging)
			}
			return nil
		},
	}
}

func newSimilarityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "similarity <a> <b>",
		Short: "Score how alike two product names are (0-100)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b := usecase.NormalizeName(args[0]), usecase.NormalizeName(args[1])
			if a == "" || b == "" {
				return errors.New("empty name after normalization")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", usecase.Similarity(a, b))
			return nil
		},
	}
}
