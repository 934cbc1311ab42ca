package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"r42/internal/version"
)

// versionPayload is the --format=json document.
type versionPayload struct {
	Tool string `json:"tool"`
	version.Info
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show r42 build metadata",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("full", false, "include commit hash and build date")
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := readFormat(formatStr, formatPretty, formatJSON)
	if err != nil {
		return err
	}
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}

	info := version.Current()
	if full {
		info.GitCommit = valueOrUnknown(info.GitCommit)
		info.BuildDate = valueOrUnknown(info.BuildDate)
	} else {
		info = version.Info{Version: info.Version}
	}

	out := cmd.OutOrStdout()
	if format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(versionPayload{Tool: "r42", Info: info})
	}

	fmt.Fprintf(out, "r42 %s\n", version.Colored())
	if full {
		commit := version.Short(info.GitCommit)
		if info.Modified {
			commit += " (modified)"
		}
		fmt.Fprintf(out, "commit: %s\nbuilt:  %s\n", commit, info.BuildDate)
	}
	return nil
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
