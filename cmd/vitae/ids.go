package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/vitae/pkg/identity"
	"github.com/spf13/cobra"
)

var idsCmd = &cobra.Command{
	Use:   "ids <file>",
	Short: "Stamp stable IDs on every node of a CV file",
	Long: `Assigns an ID to every section, sub-section, paragraph and bullet point
that lacks one. Existing IDs are kept. The stamped document is printed as JSON,
or written back to the file with --write.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		write, _ := cmd.Flags().GetBool("write")

		doc, err := readDocument(args[0])
		if err != nil {
			return err
		}
		stamped := identity.EnsureIDs(doc)

		if !write {
			return writeJSON(cmd.OutOrStdout(), stamped)
		}

		if err := replaceJSON(args[0], stamped); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Stamped %d nodes in %s\n", len(identity.Collect(stamped)), args[0])
		return nil
	},
}

// replaceJSON writes v to path through a temp file in the same directory,
// so readers never see a half-written document.
func replaceJSON(path string, v any) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".vitae-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if err := writeJSON(f, v); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func init() {
	idsCmd.Flags().BoolP("write", "w", false, "Rewrite the file in place (as JSON)")
	rootCmd.AddCommand(idsCmd)
}
