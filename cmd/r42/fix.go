package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"r42/internal/diag"
	"r42/internal/diagfmt"
	"r42/internal/driver"
	"r42/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [glob...]",
	Short: "Apply suggested fixes to templates",
	Long: `Scan templates and apply the fixes attached to their diagnostics, such as
closing a block left open at end of file. Without arguments the project's
include patterns are used.`,
	Args: cobra.ArbitraryArgs,
	RunE: runFix,
}

func init() {
	fixCmd.Flags().Bool("dry-run", false, "show fixes without writing files")
	fixCmd.Flags().String("code", "", "only apply fixes for this diagnostic code (e.g. TPL1001)")
}

func runFix(cmd *cobra.Command, args []string) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	code, err := cmd.Flags().GetString("code")
	if err != nil {
		return fmt.Errorf("failed to get code flag: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	proj, err := loadProject(wd)
	if err != nil {
		return err
	}
	patterns := args
	if len(patterns) == 0 {
		patterns = proj.patterns()
	}
	files, err := driver.Expand(patterns, proj.config.Transform.Suffix)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		if !g.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "no templates matched %s\n", strings.Join(patterns, " "))
		}
		return nil
	}

	res := driver.Diagnose(files, g.maxDiagnostics)
	opts := fix.ApplyOptions{Mode: fix.ApplyModeAll, DryRun: dryRun}
	if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
		opts.Mode = fix.ApplyModeCode
		opts.TargetCode = code
	}

	var readErr error
	if res.Bag.HasErrors() {
		unreadable := diag.NewBag(0)
		for _, d := range res.Bag.Items() {
			if d.Severity >= diag.SevError {
				unreadable.Add(d)
			}
		}
		diagfmt.Pretty(cmd.ErrOrStderr(), unreadable, res.FileSet, prettyOpts(g, cmd.ErrOrStderr()))
		readErr = fmt.Errorf("%d templates could not be read", unreadable.Len())
	}

	applied, err := fix.Apply(res.FileSet, res.Bag.Items(), opts)
	if errors.Is(err, fix.ErrNoFixes) {
		if !g.quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), "no fixes to apply")
		}
		return readErr
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	verb := "fixed"
	if dryRun {
		verb = "would fix"
	}
	for _, a := range applied.Applied {
		fmt.Fprintf(out, "%s %s: %s (%s)\n", verb, a.Path, a.Title, a.Code.ID())
	}
	if !g.quiet {
		for _, s := range applied.Skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", s.ID, s.Reason)
		}
	}
	if dryRun && !g.quiet {
		for _, ch := range applied.FileChanges {
			fmt.Fprintf(out, "--- %s (%d edits)\n", formatPathForOutput(wd, ch.Path), ch.EditCount)
		}
	}
	return readErr
}
