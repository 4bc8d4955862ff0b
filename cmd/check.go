package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cookiestatus/internal/api/handler/v1handler"
	"cookiestatus/internal/config"
	"cookiestatus/pkg/domain"

	"github.com/go-faster/jx"
	"github.com/spf13/cobra"
)

var errInvalidCookies = errors.New("cookies are not valid")

func checkCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Checks the cookie files and prints a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			strict, _ := cmd.Flags().GetBool("strict")

			ctx := context.Background()
			status := newChecker(ctx, cfg, nil).Check(ctx, cookiesDir(cmd, cfg))

			if asJSON {
				var e jx.Encoder
				v1handler.EncodeStatus(&e, status)
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(e.Bytes())); err != nil {
					return fmt.Errorf("could not print status: %w", err)
				}
			} else {
				printSummary(cmd.OutOrStdout(), status)
			}

			if strict && !status.Valid {
				return errInvalidCookies
			}

			return nil
		},
	}

	cmd.Flags().String("dir", "", "Cookie directory (defaults to the configured one)")
	cmd.Flags().Bool("json", false, "Print the status as JSON, like the API does")
	cmd.Flags().Bool("strict", false, "Exit with a non-zero status when the cookies are not valid")

	return cmd
}

// printSummary renders status for humans.
func printSummary(w io.Writer, status domain.CookieStatus) {
	verdict := "INVALID"
	if status.Valid {
		verdict = "VALID"
	}

	fmt.Fprintf(w, "Cookies: %s (%s)\n", verdict, status.Reason)
	fmt.Fprintf(w, "  %s\n", status.Message)
	fmt.Fprintf(w, "Source:  %s\n", status.Source)

	for _, kind := range domain.ServiceKinds() {
		mark := "no"
		if status.Coverage[kind] {
			mark = "yes"
		}
		fmt.Fprintf(w, "Covers %-14s %s\n", string(kind)+":", mark)
	}
	if len(status.Domains) > 0 {
		fmt.Fprintf(w, "Domains: %s\n", strings.Join(status.Domains, ", "))
	}
	if !status.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "Expires: %s\n", status.ExpiresAt.UTC().Format(time.RFC3339))
	}

	fmt.Fprintln(w, "Files:")
	for _, f := range status.Files {
		if !f.Exists {
			fmt.Fprintf(w, "  - %s: not found\n", filepath.Base(f.Path))

			continue
		}

		notes := []string{fmt.Sprintf("%d records", f.RecordCount)}
		if !f.HasHeader {
			notes = append(notes, "no Netscape header")
		}
		if f.IsExample {
			notes = append(notes, "example template")
		}
		fmt.Fprintf(w, "  - %s: %s\n", filepath.Base(f.Path), strings.Join(notes, ", "))
	}

	if !status.Valid {
		fmt.Fprintln(w, "\nExport your YouTube cookies in Netscape format (for example with a")
		fmt.Fprintln(w, "\"Get cookies.txt\" browser extension) and save them in the cookie directory.")
	}
}
