package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/vecsearch/v1/retrieval"
)

func newTextCmd(r *runner) *cobra.Command {
	textCmd := &cobra.Command{
		Use:   "text",
		Short: "Manage and query the text collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Embed and store one entry per argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ix *retrieval.TextIndex
			return r.run(cmd.Context(), textIndex, func() error {
				for _, text := range args {
					id, err := ix.Add(cmd.Context(), text)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", id)
				}
				return nil
			}, &ix)
		},
	}

	var limit int
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find the stored texts most similar to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ix *retrieval.TextIndex
			return r.run(cmd.Context(), textIndex, func() error {
				results, err := ix.Search(cmd.Context(), strings.Join(args, " "), limit)
				if err != nil {
					return err
				}
				printResults(cmd.OutOrStdout(), results, retrieval.TextOf)
				return nil
			}, &ix)
		},
	}
	searchCmd.Flags().IntVarP(&limit, "limit", "k", retrieval.DefaultLimit,
		fmt.Sprintf("number of results (1-%d)", retrieval.MaxLimit))

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Store the built-in example sentences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ix *retrieval.TextIndex
			return r.run(cmd.Context(), textIndex, func() error {
				n, err := ix.Seed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d example texts\n", n)
				return nil
			}, &ix)
		},
	}

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored texts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ix *retrieval.TextIndex
			return r.run(cmd.Context(), textIndex, func() error {
				n, err := ix.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Points: %d\n", n)
				return nil
			}, &ix)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ix *retrieval.TextIndex
			return r.run(cmd.Context(), textIndex, func() error {
				if err := ix.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", ix.Collection())
				return nil
			}, &ix)
		},
	}

	textCmd.AddCommand(addCmd, searchCmd, seedCmd, countCmd, clearCmd)
	return textCmd
}
