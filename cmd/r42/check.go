package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [glob...]",
	Short: "Scan templates and report problems without writing files",
	Long: `Scan every matching template, resolve its language and report
unterminated blocks, unknown extensions and unreadable files. Nothing is
written. Exits non-zero when errors are found.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Int("jobs", 0, "max parallel workers (0 = auto)")
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	checkCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
}

func runCheck(cmd *cobra.Command, args []string) error {
	s := defaultGenSettings()
	s.checkOnly = true

	var err error
	if s.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if s.format, err = readFormat(formatStr, formatPretty, formatJSON, formatShort); err != nil {
		return err
	}
	if s.warningsAsErrors, err = cmd.Flags().GetBool("warnings-as-errors"); err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	proj, err := loadProject(wd)
	if err != nil {
		return err
	}
	return runGenerate(cmd, proj, args, s)
}
