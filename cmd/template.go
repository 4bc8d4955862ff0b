package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cookiestatus"
	"cookiestatus/internal/config"

	"github.com/spf13/cobra"
)

func templateCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Writes the example cookie file into the cookie directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			path, err := writeTemplate(cookiesDir(cmd, cfg), cfg.Cookies.ExampleFile, force)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nReplace its records with your own cookies and save it as %s.\n",
				path, cfg.Cookies.CombinedFile)

			return nil
		},
	}

	cmd.Flags().String("dir", "", "Cookie directory (defaults to the configured one)")
	cmd.Flags().Bool("force", false, "Overwrite an existing example file")

	return cmd
}

func writeTemplate(dir, name string, force bool) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("could not create cookie directory: %w", err)
	}

	path := filepath.Join(dir, name)
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("%s already exists, use --force to overwrite it", path)
	}
	if err != nil {
		return "", fmt.Errorf("could not create example file: %w", err)
	}

	if _, err := f.Write(cookiestatus.ExampleTemplate); err != nil {
		_ = f.Close()

		return "", fmt.Errorf("could not write example file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("could not close example file: %w", err)
	}

	return path, nil
}
