package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/vitae"
	"github.com/aretw0/vitae/internal/presentation/graph"
	"github.com/aretw0/vitae/internal/presentation/report"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var diffCmd = &cobra.Command{
	Use:   "diff <original> <current>",
	Short: "Report what changed between two CV files",
	Long: `Compares two CV documents (JSON or YAML) and prints a change report.
Nodes without IDs are matched by position.

On a terminal the report is rendered as styled Markdown; piped output stays
plain Markdown unless --json is set.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		c, err := compareFiles(args[0], args[1])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, c)
		}

		md := report.Markdown(report.Report{
			Changes:     c.Changes,
			View:        c.View,
			TextChanges: c.TextChanges,
		}, c.Original)

		if isTerminal(out) {
			rendered, err := report.Render(md)
			if err == nil {
				md = rendered
			}
		}
		_, err = fmt.Fprint(out, md)
		return err
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge <original> <current>",
	Short: "Print the merged view of two CV files",
	Long: `Prints every current section followed by the deleted ones, flagged so a
client can still show and restore them.

Formats:
- json (default): the merged view.
- mermaid: a flowchart with removed, modified and added nodes highlighted.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		c, err := compareFiles(args[0], args[1])
		if err != nil {
			return err
		}

		switch format {
		case "json":
			return writeJSON(cmd.OutOrStdout(), c.View)
		case "mermaid":
			_, err := fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(c.View, &graph.Overlay{Changes: c.Changes}))
			return err
		default:
			return fmt.Errorf("unknown format %q (want json or mermaid)", format)
		}
	},
}

var changesCmd = &cobra.Command{
	Use:   "changes <original> <current>",
	Short: "Print the change set of two CV files as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := compareFiles(args[0], args[1])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), c.Changes)
	},
}

func compareFiles(originalPath, currentPath string) (vitae.Comparison, error) {
	original, err := readDocument(originalPath)
	if err != nil {
		return vitae.Comparison{}, err
	}
	current, err := readDocument(currentPath)
	if err != nil {
		return vitae.Comparison{}, err
	}
	return vitae.Compare(original, current), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func init() {
	diffCmd.Flags().Bool("json", false, "Print the full comparison as JSON")
	mergeCmd.Flags().String("format", "json", "Output format: json or mermaid")

	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(changesCmd)
}
