package driver

import (
	"r42/internal/diag"
	"r42/internal/scan"
	"r42/internal/source"
)

// DiagnoseResult holds scanner diagnostics for a set of templates.
type DiagnoseResult struct {
	FileSet *source.FileSet
	Bag     *diag.Bag
}

// Diagnose loads each template and scans it without generating code.
// Files are read byte for byte, never normalized, so fix offsets match
// the file on disk. Unreadable files are reported in Bag.
func Diagnose(paths []string, maxDiagnostics int) *DiagnoseResult {
	res := &DiagnoseResult{
		FileSet: source.NewFileSet(),
		Bag:     diag.NewBag(maxDiagnostics),
	}
	for _, path := range paths {
		id, err := res.FileSet.Load(path)
		if err != nil {
			res.Bag.Add(diag.NewPathError(diag.IOLoadFileError, path, err.Error()))
			continue
		}
		scan.NewFile(res.FileSet.Get(id), scan.Options{
			Reporter: diag.BagReporter{Bag: res.Bag},
		}).Run(scan.Funcs{})
	}
	res.Bag.Sort()
	return res
}
