package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/vitae"
	"github.com/aretw0/vitae/internal/presentation/report"
	"github.com/aretw0/vitae/pkg/adapters/memory"
	"github.com/aretw0/vitae/pkg/identity"
	"github.com/aretw0/vitae/pkg/session"
	"github.com/spf13/cobra"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <file>",
	Short: "Rewrite a CV file with a configured external command",
	Long: `Runs one of the rewriters listed in the rewriters file over a CV document.
IDs from the original are carried over to the rewritten copy by position and
anything the rewriter broke is reported as a warning on stderr.

The change report is printed on stdout. --out writes the rewritten document.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("with")
		instruction, _ := cmd.Flags().GetString("instruction")
		outPath, _ := cmd.Flags().GetString("out")
		asJSON, _ := cmd.Flags().GetBool("json")
		if name == "" {
			return errors.New("--with is required")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		rewriters, err := newRewriters(cfg)
		if err != nil {
			return err
		}
		rw, err := rewriters.Rewriter(name)
		if err != nil {
			return fmt.Errorf("%w (known: %v)", err, rewriters.Names())
		}

		doc, err := readDocument(args[0])
		if err != nil {
			return err
		}

		mgr := session.NewManager(memory.NewStore(), session.WithLogger(logger))
		sess, err := mgr.Create(cmd.Context(), "", "", doc)
		if err != nil {
			return err
		}
		sess, warnings, err := mgr.Rewrite(cmd.Context(), sess.ID, rw, instruction)
		if err != nil {
			return fmt.Errorf("rewrite %s failed: %w", name, err)
		}
		printWarnings(cmd, warnings)

		if outPath != "" {
			if err := replaceJSON(outPath, sess.Current); err != nil {
				return err
			}
		}

		c := vitae.Compare(sess.Original, sess.Current)
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), c)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), report.Markdown(report.Report{
			Changes:     c.Changes,
			View:        c.View,
			TextChanges: c.TextChanges,
		}, c.Original))
		return err
	},
}

func printWarnings(cmd *cobra.Command, warnings []identity.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
}

func init() {
	rewriteCmd.Flags().String("with", "", "Name of the rewriter to run")
	rewriteCmd.Flags().StringP("instruction", "i", "", "Instruction passed to the rewriter")
	rewriteCmd.Flags().StringP("out", "o", "", "Write the rewritten document (JSON) to this file")
	rewriteCmd.Flags().Bool("json", false, "Print the full comparison as JSON")
	rootCmd.AddCommand(rewriteCmd)
}
