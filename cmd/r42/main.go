package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"r42/internal/logging"
	"r42/internal/prof"
	"r42/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "r42 [Language | glob...]",
	Short: "Turn text templates into target-language source",
	Long: `r42 converts templates with <# code #> and <#= expression #> blocks into
source code that writes the template's text through a buffer.

  r42                 read stdin, write the default language to stdout
  r42 <Language>      read stdin, write the named language to stdout
  r42 <glob>...       transform matching files such as page.rs.r42 (same as r42 gen)`,
	Args:               cobra.ArbitraryArgs,
	PersistentPreRunE:  setupGlobals,
	PersistentPostRunE: stopProfiling,
	RunE:               runRoot,
	SilenceUsage:       true,
}

func init() {
	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(regionsCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	// global flags
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics per file (0 = unlimited)")
	rootCmd.PersistentFlags().String("min-severity", "info", "hide diagnostics below this severity (info|warning|error)")
	rootCmd.PersistentFlags().String("paths", "relative", "how diagnostics print file paths (auto|absolute|relative|basename)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a runtime trace to file")
}

// main executes the root command and exits with status 1 on error.
func main() {
	rootCmd.Version = version.Version
	err := rootCmd.Execute()
	// PersistentPostRunE is skipped when a command fails.
	_ = stopProfiling(rootCmd, nil)
	if err != nil {
		os.Exit(1)
	}
}

// profiling is the active profiler session, if any.
var profiling *prof.Session

// setupGlobals applies --verbose, --color and the profiling flags before
// any command runs.
func setupGlobals(cmd *cobra.Command, _ []string) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	logging.Setup(g.verbosity, cmd.ErrOrStderr())
	color.NoColor = !useColor(g.color, cmd.OutOrStdout())

	profiling, err = prof.Start(g.profile)
	return err
}

func stopProfiling(cmd *cobra.Command, _ []string) error {
	err := profiling.Stop()
	profiling = nil
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "profiling: %v\n", err)
	}
	return nil
}

// isTerminal reports whether w is a terminal. Writers that are not files,
// such as buffers installed with cobra's SetOut, never are.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
