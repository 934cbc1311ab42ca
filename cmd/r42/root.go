package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"r42/internal/diag"
	"r42/internal/diagfmt"
	"r42/internal/driver"
	"r42/internal/lang"
)

// runRoot keeps the classic invocation forms: no argument or a language
// name reads stdin, anything else is treated as glob patterns.
func runRoot(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	proj, err := loadProject(wd)
	if err != nil {
		return err
	}

	switch {
	case len(args) == 0:
		return runStdin(cmd, proj, proj.fallback)
	case len(args) == 1:
		if l, ok := proj.registry.ByName(args[0]); ok {
			return runStdin(cmd, proj, l)
		}
		if looksLikeLanguage(args[0]) {
			return proj.languageError(args[0])
		}
	}
	return runGenerate(cmd, proj, args, defaultGenSettings())
}

// runStdin transforms stdin and prints the result followed by a newline.
func runStdin(cmd *cobra.Command, proj *projectContext, l lang.Language) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	res := driver.TransformSource("<stdin>", src, l, driver.Options{
		MaxDiagnostics: g.maxDiagnostics,
		Normalize:      proj.config.Transform.Normalize,
	})
	shown := visibleDiagnostics(g, res.Bag)
	if !g.quiet && shown.Len() > 0 {
		diagfmt.Pretty(cmd.ErrOrStderr(), shown, res.FileSet, prettyOpts(g, cmd.ErrOrStderr()))
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), res.Output); err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		return fmt.Errorf("transform reported errors")
	}
	return nil
}

// prettyOpts configures diagnostics rendered to w.
func prettyOpts(g globalFlags, w io.Writer) diagfmt.PrettyOpts {
	return diagfmt.PrettyOpts{
		Color:     useColor(g.color, w),
		Context:   1,
		PathMode:  g.pathMode,
		ShowNotes: true,
		ShowFixes: true,
	}
}

// mergeBags collects every result's diagnostics into one bag ready for display.
func mergeBags(g globalFlags, results []driver.FileResult) *diag.Bag {
	all := diag.NewBag(0)
	for i := range results {
		all.Merge(results[i].Bag)
	}
	return visibleDiagnostics(g, all)
}

// visibleDiagnostics copies bag without entries below --min-severity,
// sorted and deduplicated. The exit status still uses the full bag.
func visibleDiagnostics(g globalFlags, bag *diag.Bag) *diag.Bag {
	out := diag.NewBag(0)
	out.Merge(bag)
	out.AtLeast(g.minSeverity)
	out.Sort()
	out.Dedup()
	return out
}
