package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"r42/internal/lang"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List target languages and their file extensions",
	Args:  cobra.NoArgs,
	RunE:  runLanguages,
}

func init() {
	languagesCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type languageJSON struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Default   bool   `json:"default"`
	Custom    bool   `json:"custom"`
}

func runLanguages(cmd *cobra.Command, _ []string) error {
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := readFormat(formatStr, formatPretty, formatJSON)
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

	all := proj.registry.All()
	rows := make([]languageJSON, len(all))
	for i, l := range all {
		rows[i] = languageJSON{
			Name:      l.Name,
			Extension: l.Extension,
			Default:   l.Name == proj.fallback.Name,
			Custom:    l.ID == lang.Custom,
		}
	}

	out := cmd.OutOrStdout()
	if format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	nameWidth := 0
	for _, r := range rows {
		nameWidth = max(nameWidth, runewidth.StringWidth(r.Name))
	}
	for _, r := range rows {
		line := runewidth.FillRight(r.Name, nameWidth) + "  ." + r.Extension
		if r.Default {
			line += "  (default)"
		}
		if r.Custom {
			line += "  (r42.toml)"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
