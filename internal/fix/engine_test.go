package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"r42/internal/diag"
	"r42/internal/scan"
	"r42/internal/source"
)

// loadAndScan loads path and collects scanner diagnostics for it.
func loadAndScan(t *testing.T, path string) (*source.FileSet, []diag.Diagnostic) {
	t.Helper()
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	bag := diag.NewBag(0)
	scan.NewFile(fs.Get(id), scan.Options{Reporter: diag.BagReporter{Bag: bag}}).Run(scan.Funcs{})
	return fs, bag.Items()
}

func writeTemplate(t *testing.T, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.rs.r42")
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestApplyClosesUnterminatedBlock(t *testing.T) {
	path := writeTemplate(t, "a<# let x = 1;", 0o600)
	fs, diags := loadAndScan(t, path)

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].Code != diag.TplUnterminatedCode {
		t.Fatalf("unexpected applied fixes: %+v", res.Applied)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "a<# let x = 1;#>" {
		t.Fatalf("content = %q", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}

	_, diags = loadAndScan(t, path)
	if len(diags) != 0 {
		t.Fatalf("fixed template still has diagnostics: %+v", diags)
	}
}

func TestApplyDryRunLeavesFile(t *testing.T) {
	path := writeTemplate(t, "<#= name", 0o644)
	fs, diags := loadAndScan(t, path)

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.FileChanges) != 1 {
		t.Fatalf("expected 1 file change, got %d", len(res.FileChanges))
	}
	if string(res.FileChanges[0].Content) != "<#= name#>" {
		t.Fatalf("content = %q", res.FileChanges[0].Content)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "<#= name" {
		t.Fatalf("dry run modified the file: %q", got)
	}
}

func TestApplyKeepsBOM(t *testing.T) {
	path := writeTemplate(t, "\xEF\xBB\xBFa<#", 0o644)
	fs, diags := loadAndScan(t, path)

	if _, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "\xEF\xBB\xBFa<##>" {
		t.Fatalf("content = %q", got)
	}
}

func TestApplyNoFixes(t *testing.T) {
	path := writeTemplate(t, "a<#=b#>", 0o644)
	fs, diags := loadAndScan(t, path)

	_, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
}

func TestApplyModeCodeFilters(t *testing.T) {
	path := writeTemplate(t, "a<# x", 0o644)
	fs, diags := loadAndScan(t, path)

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeCode, TargetCode: diag.TplUnterminatedExpression.ID()})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "no fixes for code" {
		t.Fatalf("unexpected skips: %+v", res.Skipped)
	}

	res, err = Apply(fs, diags, ApplyOptions{Mode: ApplyModeCode, TargetCode: diag.TplUnterminatedCode.ID(), DryRun: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("expected 1 applied fix, got %d", len(res.Applied))
	}
}

func TestApplySkipsConflicts(t *testing.T) {
	fs := source.NewFileSet()
	path := writeTemplate(t, "abcdef", 0o644)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	span := func(start, end uint32) source.Span { return source.Span{File: id, Start: start, End: end} }

	diags := []diag.Diagnostic{
		diag.New(diag.SevWarning, diag.TplInfo, span(1, 3), "first").
			WithFix("replace bc", diag.FixEdit{Span: span(1, 3), NewText: "X"}),
		diag.New(diag.SevWarning, diag.TplInfo, span(2, 4), "second").
			WithFix("replace cd", diag.FixEdit{Span: span(2, 4), NewText: "Y"}),
		diag.New(diag.SevWarning, diag.TplInfo, span(5, 6), "third").
			WithFix("replace f", diag.FixEdit{Span: span(5, 6), NewText: "ZZ"}),
	}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 2 || len(res.Skipped) != 1 {
		t.Fatalf("applied=%d skipped=%d", len(res.Applied), len(res.Skipped))
	}
	if got := string(res.FileChanges[0].Content); got != "aXdeZZ" {
		t.Fatalf("content = %q", got)
	}
	if res.FileChanges[0].EditCount != 2 {
		t.Fatalf("edit count = %d", res.FileChanges[0].EditCount)
	}
}

func TestApplySkipsVirtualFiles(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("<stdin>", []byte("a<#"))
	bag := diag.NewBag(0)
	scan.NewFile(fs.Get(id), scan.Options{Reporter: diag.BagReporter{Bag: bag}}).Run(scan.Funcs{})

	res, err := Apply(fs, bag.Items(), ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "target file is virtual" {
		t.Fatalf("unexpected skips: %+v", res.Skipped)
	}
}

func TestSpansConflict(t *testing.T) {
	edit := func(start, end uint32) diag.FixEdit {
		return diag.FixEdit{Span: source.Span{Start: start, End: end}}
	}
	tests := []struct {
		a, b diag.FixEdit
		want bool
	}{
		{edit(0, 0), edit(0, 0), false},
		{edit(2, 2), edit(1, 3), true},
		{edit(1, 1), edit(1, 3), false},
		{edit(1, 3), edit(3, 5), false},
		{edit(1, 4), edit(3, 5), true},
	}
	for i, tt := range tests {
		if got := spansConflict(tt.a, tt.b); got != tt.want {
			t.Errorf("case %d: spansConflict = %v, want %v", i, got, tt.want)
		}
	}
}

func TestApplyInsertionsKeepOrder(t *testing.T) {
	fs := source.NewFileSet()
	id, err := fs.Load(writeTemplate(t, "abc", 0o644))
	if err != nil {
		t.Fatal(err)
	}
	span := func(start, end uint32) source.Span { return source.Span{File: id, Start: start, End: end} }

	diags := []diag.Diagnostic{
		diag.New(diag.SevInfo, diag.TplInfo, span(1, 1), "one").
			WithFix("insert 1", diag.FixEdit{Span: span(1, 1), NewText: "1"}),
		diag.New(diag.SevInfo, diag.TplInfo, span(1, 1), "two").
			WithFix("insert 2", diag.FixEdit{Span: span(1, 1), NewText: "2"}),
		diag.New(diag.SevInfo, diag.TplInfo, span(1, 2), "replace").
			WithFix("replace b", diag.FixEdit{Span: span(1, 2), NewText: "B"}),
		diag.New(diag.SevInfo, diag.TplInfo, span(0, 3), "self overlap").
			WithFix("both", diag.FixEdit{Span: span(0, 2), NewText: "x"}, diag.FixEdit{Span: span(1, 3), NewText: "y"}),
	}

	res, err := Apply(fs, diags, ApplyOptions{DryRun: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := string(res.FileChanges[0].Content); got != "a12Bc" {
		t.Fatalf("content = %q", got)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "fix edits overlap each other" {
		t.Fatalf("unexpected skips: %+v", res.Skipped)
	}
}
