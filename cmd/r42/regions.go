package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"r42/internal/diag"
	"r42/internal/diagfmt"
	"r42/internal/scan"
	"r42/internal/source"
)

var regionsCmd = &cobra.Command{
	Use:   "regions <file>",
	Short: "Show how a template splits into literal, code and expression regions",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegions,
}

func init() {
	regionsCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type regionJSON struct {
	State     string `json:"state"`
	StartLine uint32 `json:"start_line"`
	StartCol  uint32 `json:"start_col"`
	EndLine   uint32 `json:"end_line"`
	EndCol    uint32 `json:"end_col"`
	Text      string `json:"text"`
	Closed    bool   `json:"closed"`
}

func runRegions(cmd *cobra.Command, args []string) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := readFormat(formatStr, formatPretty, formatJSON)
	if err != nil {
		return err
	}

	fs := source.NewFileSet()
	id, err := fs.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}
	file := fs.Get(id)

	bag := diag.NewBag(g.maxDiagnostics)
	var regions []scan.Segment
	scan.NewFile(file, scan.Options{
		Reporter: diag.BagReporter{Bag: bag},
		Observer: func(seg scan.Segment) { regions = append(regions, seg) },
	}).Run(scan.Funcs{})

	if format == formatJSON {
		return writeRegionsJSON(cmd.OutOrStdout(), fs, regions)
	}
	writeRegionsPretty(cmd.OutOrStdout(), fs, regions)
	if bag.Len() > 0 && !g.quiet {
		bag.Sort()
		diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, prettyOpts(g, cmd.ErrOrStderr()))
	}
	return nil
}

func writeRegionsPretty(w io.Writer, fs *source.FileSet, regions []scan.Segment) {
	for _, seg := range regions {
		start, end := fs.Resolve(seg.Span)
		mark := ""
		if !seg.Closed {
			mark = "  (unterminated)"
		}
		fmt.Fprintf(w, "%-10s %d:%d-%d:%d  %q%s\n",
			seg.State, start.Line, start.Col, end.Line, end.Col, seg.Text, mark)
	}
}

func writeRegionsJSON(w io.Writer, fs *source.FileSet, regions []scan.Segment) error {
	out := make([]regionJSON, len(regions))
	for i, seg := range regions {
		start, end := fs.Resolve(seg.Span)
		out[i] = regionJSON{
			State:     seg.State.String(),
			StartLine: start.Line,
			StartCol:  start.Col,
			EndLine:   end.Line,
			EndCol:    end.Col,
			Text:      seg.Text,
			Closed:    seg.Closed,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
