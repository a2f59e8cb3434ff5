package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/vecsearch/v1/retrieval"
)

func newImageCmd(r *runner) *cobra.Command {
	imageCmd := &cobra.Command{
		Use:   "image",
		Short: "Manage and query the image collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var caption string
	addCmd := &cobra.Command{
		Use:   "add <file>...",
		Short: "Embed and store JPEG or PNG files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ix *retrieval.ImageIndex
			return r.run(cmd.Context(), imageIndex, func() error {
				for _, path := range args {
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					id, err := ix.AddCaptionedImage(cmd.Context(), data, caption)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s as %s\n", path, id)
				}
				return nil
			}, &ix)
		},
	}
	addCmd.Flags().StringVar(&caption, "caption", "", "caption embedded on the text slot of every added image")

	var (
		limit    int
		captions bool
		outDir   string
	)
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find the stored images that best match a text query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ix *retrieval.ImageIndex
			return r.run(cmd.Context(), imageIndex, func() error {
				query := strings.Join(args, " ")
				search := ix.SearchImages
				if captions {
					search = ix.SearchCaptions
				}
				results, err := search(cmd.Context(), query, limit)
				if err != nil {
					return err
				}
				printResults(cmd.OutOrStdout(), results, func(res retrieval.Result) string {
					return describeImage(cmd.Context(), ix, res)
				})
				if outDir != "" {
					return writeImages(cmd.Context(), ix, outDir, results)
				}
				return nil
			}, &ix)
		},
	}
	searchCmd.Flags().IntVarP(&limit, "limit", "k", retrieval.DefaultLimit,
		fmt.Sprintf("number of results (1-%d)", retrieval.MaxLimit))
	searchCmd.Flags().BoolVar(&captions, "captions", false, "rank by caption similarity instead of image content")
	searchCmd.Flags().StringVarP(&outDir, "out", "o", "", "directory to write the matching images to")

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ix *retrieval.ImageIndex
			return r.run(cmd.Context(), imageIndex, func() error {
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
		Short: "Remove every stored image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ix *retrieval.ImageIndex
			return r.run(cmd.Context(), imageIndex, func() error {
				if err := ix.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", ix.Collection())
				return nil
			}, &ix)
		},
	}

	imageCmd.AddCommand(addCmd, searchCmd, countCmd, clearCmd)
	return imageCmd
}

func describeImage(ctx context.Context, ix *retrieval.ImageIndex, r retrieval.Result) string {
	data, err := ix.ImageBytes(ctx, r)
	if err != nil {
		return r.ID
	}
	line := fmt.Sprintf("%s (%d bytes)", r.ID, len(data))
	if c := retrieval.CaptionOf(r); c != "" {
		line += ": " + c
	}
	return line
}

// writeImages stores the original bytes of each result as result_<rank>.<ext>.
func writeImages(ctx context.Context, ix *retrieval.ImageIndex, dir string, results []retrieval.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, r := range results {
		data, err := ix.ImageBytes(ctx, r)
		if err != nil {
			return err
		}
		_, format, err := retrieval.DecodeImageBytes(data)
		if err != nil {
			return err
		}
		name := filepath.Join(dir, fmt.Sprintf("result_%d.%s", r.Rank, format))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
