package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"r42/internal/diag"
	"r42/internal/diagfmt"
	"r42/internal/prof"
)

type globalFlags struct {
	color          colorMode
	quiet          bool
	timings        bool
	maxDiagnostics int
	verbosity      int
	minSeverity    diag.Severity
	pathMode       diagfmt.PathMode
	profile        prof.Config
}

func readGlobalFlags(cmd *cobra.Command) (globalFlags, error) {
	flags := cmd.Root().PersistentFlags()
	var g globalFlags

	colorStr, err := flags.GetString("color")
	if err != nil {
		return g, fmt.Errorf("failed to get color flag: %w", err)
	}
	if g.color, err = readColorMode(colorStr); err != nil {
		return g, err
	}
	if g.quiet, err = flags.GetBool("quiet"); err != nil {
		return g, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if g.timings, err = flags.GetBool("timings"); err != nil {
		return g, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if g.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return g, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if g.maxDiagnostics < 0 {
		return g, fmt.Errorf("--max-diagnostics must not be negative")
	}
	sevStr, err := flags.GetString("min-severity")
	if err != nil {
		return g, fmt.Errorf("failed to get min-severity flag: %w", err)
	}
	if g.minSeverity, err = diag.ParseSeverity(sevStr); err != nil {
		return g, fmt.Errorf("invalid --min-severity: %w", err)
	}
	pathStr, err := flags.GetString("paths")
	if err != nil {
		return g, fmt.Errorf("failed to get paths flag: %w", err)
	}
	if g.pathMode, err = diagfmt.ParsePathMode(pathStr); err != nil {
		return g, fmt.Errorf("invalid --paths: %w", err)
	}
	if g.verbosity, err = flags.GetCount("verbose"); err != nil {
		return g, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	if g.profile.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return g, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if g.profile.Mem, err = flags.GetString("mem-profile"); err != nil {
		return g, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if g.profile.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return g, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	return g, nil
}

type colorMode string

const (
	colorAuto colorMode = "auto"
	colorOn   colorMode = "on"
	colorOff  colorMode = "off"
)

func readColorMode(value string) (colorMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return colorAuto, nil
	case "on", "always":
		return colorOn, nil
	case "off", "never":
		return colorOff, nil
	default:
		return "", fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

// useColor decides whether output written to w gets ANSI colours.
func useColor(mode colorMode, w io.Writer) bool {
	switch mode {
	case colorOn:
		return true
	case colorOff:
		return false
	default:
		return os.Getenv("NO_COLOR") == "" && isTerminal(w)
	}
}

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// shouldUseTUI decides whether the progress list is drawn on w.
func shouldUseTUI(mode uiMode, w io.Writer) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(w)
	}
}

type outputFormat string

const (
	formatPretty outputFormat = "pretty"
	formatJSON   outputFormat = "json"
	formatShort  outputFormat = "short"
)

// readFormat validates --format against allowed.
func readFormat(value string, allowed ...outputFormat) (outputFormat, error) {
	f := outputFormat(strings.TrimSpace(strings.ToLower(value)))
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", fmt.Errorf("unsupported format %q (must be %s)", value, strings.Join(names, "|"))
}
