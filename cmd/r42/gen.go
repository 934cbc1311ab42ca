package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"r42/internal/diag"
	"r42/internal/diagfmt"
	"r42/internal/driver"
	"r42/internal/logging"
	"r42/internal/observ"
	"r42/internal/source"
)

// cacheApp names the cache directory under $XDG_CACHE_HOME.
const cacheApp = "r42"

var genCmd = &cobra.Command{
	Use:   "gen [glob...]",
	Short: "Transform template files into source files",
	Long: `Transform every template matching the given glob patterns (** allowed).
A template named page.rs.r42 produces page.rs; the extension before .r42
selects the language. Without patterns, [transform].include from r42.toml
is used, or **/*.r42 below the working directory.`,
	RunE: runGen,
}

func init() {
	genCmd.Flags().Int("jobs", 0, "max parallel workers (0 = [transform].jobs or auto)")
	genCmd.Flags().Bool("dry-run", false, "generate without writing output files")
	genCmd.Flags().Bool("no-cache", false, "always rewrite outputs")
	genCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	genCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type genSettings struct {
	jobs    int
	dryRun  bool
	noCache bool
	ui      uiMode
	format  outputFormat
	// checkOnly suppresses the per-file lines and never writes.
	checkOnly        bool
	warningsAsErrors bool
}

func defaultGenSettings() genSettings {
	return genSettings{ui: uiModeOff, format: formatPretty}
}

func readGenSettings(cmd *cobra.Command) (genSettings, error) {
	s := defaultGenSettings()
	var err error
	if s.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return s, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if s.jobs < 0 {
		return s, fmt.Errorf("--jobs must not be negative")
	}
	if s.dryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return s, fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	if s.noCache, err = cmd.Flags().GetBool("no-cache"); err != nil {
		return s, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return s, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if s.ui, err = readUIMode(uiStr); err != nil {
		return s, err
	}
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return s, fmt.Errorf("failed to get format flag: %w", err)
	}
	if s.format, err = readFormat(formatStr, formatPretty, formatJSON); err != nil {
		return s, err
	}
	return s, nil
}

func runGen(cmd *cobra.Command, args []string) error {
	settings, err := readGenSettings(cmd)
	if err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	proj, err := loadProject(wd)
	if err != nil {
		return err
	}
	return runGenerate(cmd, proj, args, settings)
}

// runGenerate is shared by gen, check and the root glob form.
func runGenerate(cmd *cobra.Command, proj *projectContext, patterns []string, s genSettings) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	log := logging.Get("cli")
	var timer *observ.Timer
	if g.timings {
		timer = observ.NewTimer()
	}

	if len(patterns) == 0 {
		patterns = proj.patterns()
	}
	suffix := proj.config.Transform.Suffix

	endExpand := timer.Track("expand")
	files, err := driver.Expand(patterns, suffix)
	endExpand(fmt.Sprintf("%d files", len(files)))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		if !g.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "no templates matched %s\n", strings.Join(patterns, " "))
		}
		return nil
	}

	opts := driver.Options{
		MaxDiagnostics: g.maxDiagnostics,
		Suffix:         suffix,
		Jobs:           s.jobs,
		DryRun:         s.dryRun || s.checkOnly,
		Normalize:      proj.config.Transform.Normalize,
	}
	if opts.Jobs == 0 {
		opts.Jobs = proj.config.Transform.JobCount()
	}
	if !opts.DryRun && !s.noCache && proj.config.Transform.CacheEnabled() {
		cache, err := driver.OpenCache(cacheApp)
		if err != nil {
			log.Warn().Err(err).Msg("output cache disabled")
		} else {
			opts.Cache = cache
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	endTransform := timer.Track("transform")
	var (
		fs      *source.FileSet
		results []driver.FileResult
	)
	if s.format == formatPretty && !g.quiet && shouldUseTUI(s.ui, cmd.OutOrStdout()) {
		opts.Logger = nopLogger()
		fs, results, err = runBatchWithUI(ctx, cmd.OutOrStdout(), "r42 "+cmd.Name(), files, proj, opts)
	} else {
		fs, results, err = driver.TransformBatch(ctx, files, proj.registry, opts)
	}
	endTransform("")
	if err != nil {
		return err
	}

	endReport := timer.Track("report")
	err = reportBatch(cmd.OutOrStdout(), cmd.ErrOrStderr(), fs, results, g, s)
	endReport("")
	if timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return err
}

type fileResultJSON struct {
	Path     string `json:"path"`
	Output   string `json:"output,omitempty"`
	Language string `json:"language,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

type batchJSON struct {
	Files       []fileResultJSON          `json:"files"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

// reportBatch prints results and returns an error when the run failed.
func reportBatch(out, errOut io.Writer, fs *source.FileSet, results []driver.FileResult, g globalFlags, s genSettings) error {
	bag := mergeBags(g, results)
	sum := driver.Summarize(results)

	switch s.format {
	case formatJSON:
		doc := batchJSON{
			Files: make([]fileResultJSON, len(results)),
			Diagnostics: diagfmt.BuildDiagnosticsOutput(bag, fs, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         g.pathMode,
				IncludeNotes:     true,
				IncludeFixes:     true,
			}),
		}
		for i, r := range results {
			doc.Files[i] = fileResultJSON{
				Path:     r.Path,
				Output:   r.OutPath,
				Language: r.Language,
				Status:   string(r.Status),
			}
			if r.Err != nil {
				doc.Files[i].Error = r.Err.Error()
			}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return err
		}
	case formatShort:
		if bag.Len() > 0 {
			fmt.Fprintln(out, diag.FormatShort(bag.Items(), fs))
		}
	default:
		if !g.quiet && !s.checkOnly {
			for i := range results {
				if line := resultLine(&results[i]); line != "" {
					fmt.Fprintln(out, line)
				}
			}
		}
		if bag.Len() > 0 && (!g.quiet || bag.HasErrors()) {
			diagfmt.Pretty(errOut, bag, fs, prettyOpts(g, errOut))
		}
		if !g.quiet {
			fmt.Fprintln(errOut, summaryLine(sum, len(results)))
		}
	}

	return batchError(results, sum, s)
}

// resultLine renders "[Lang] 'in' -> 'out'" for a successful file.
func resultLine(r *driver.FileResult) string {
	switch r.Status {
	case driver.StatusWritten:
		return fmt.Sprintf("[%s] '%s' -> '%s'", r.Language, r.Path, r.OutPath)
	case driver.StatusUnchanged:
		return fmt.Sprintf("[%s] '%s' -> '%s' (unchanged)", r.Language, r.Path, r.OutPath)
	case driver.StatusDryRun:
		return fmt.Sprintf("[%s] '%s' -> '%s' (dry run)", r.Language, r.Path, r.OutPath)
	}
	return ""
}

func summaryLine(sum driver.BatchSummary, total int) string {
	parts := []string{}
	for _, st := range []driver.Status{
		driver.StatusWritten, driver.StatusUnchanged, driver.StatusDryRun, driver.StatusSkipped, driver.StatusFailed,
	} {
		if n := sum[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	return fmt.Sprintf("%d templates: %s", total, strings.Join(parts, ", "))
}

func batchError(results []driver.FileResult, sum driver.BatchSummary, s genSettings) error {
	if n := sum[driver.StatusFailed]; n > 0 {
		return fmt.Errorf("%d of %d templates failed", n, len(results))
	}
	if !s.checkOnly {
		return nil
	}
	for i := range results {
		b := results[i].Bag
		if b == nil {
			continue
		}
		if b.HasErrors() || (s.warningsAsErrors && b.HasWarnings()) {
			return errors.New("check found problems")
		}
	}
	return nil
}

// nopLogger keeps batch logs off the terminal while the TUI owns it.
func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
