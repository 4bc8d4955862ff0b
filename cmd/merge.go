package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"cookiestatus/internal/checker"
	"cookiestatus/internal/config"

	"github.com/spf13/cobra"
)

func mergeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merges the YouTube and YouTube Music cookie files into the combined file",
		RunE: func(cmd *cobra.Command, args []string) error {
			noBackup, _ := cmd.Flags().GetBool("no-backup")

			ctx := context.Background()
			res, err := newChecker(ctx, cfg, nil).Merge(ctx, cookiesDir(cmd, cfg), checker.MergeOptions{Backup: !noBackup})
			if err != nil {
				return fmt.Errorf("could not merge cookies: %w", err)
			}

			printMergeResult(cmd.OutOrStdout(), res)

			return nil
		},
	}

	cmd.Flags().String("dir", "", "Cookie directory (defaults to the configured one)")
	cmd.Flags().Bool("no-backup", false, "Keep the source files instead of renaming them to *.backup")

	return cmd
}

func printMergeResult(w io.Writer, res *checker.MergeResult) {
	for _, src := range res.Sources {
		fmt.Fprintf(w, "Read    %s\n", filepath.Base(src))
	}
	fmt.Fprintf(w, "Wrote   %s (%d unique cookies)\n", res.Output, res.Cookies)
	if res.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d malformed lines\n", res.Skipped)
	}
	if len(res.Domains) > 0 {
		fmt.Fprintf(w, "Domains %s\n", strings.Join(res.Domains, ", "))
	}
	for _, b := range res.Backups {
		fmt.Fprintf(w, "Backup  %s\n", filepath.Base(b))
	}
}
