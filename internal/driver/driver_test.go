package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"r42/internal/diag"
	"r42/internal/lang"
)

const helloRust = "\nbuffer.push_str(\"Hello \");\n" +
	"\nbuffer.push_str(format!(\"{:?}\", name).as_str());\n" +
	"\nbuffer.push_str(\"!\");\n"

func testOptions(t *testing.T) Options {
	t.Helper()
	nop := zerolog.Nop()
	return Options{Logger: &nop}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in      string
		out     string
		ext     string
		wantErr error
	}{
		{in: "page.rs.r42", out: "page.rs", ext: "rs"},
		{in: filepath.Join("a.b", "view.cs.r42"), out: filepath.Join("a.b", "view.cs"), ext: "cs"},
		{in: "page.r42", wantErr: ErrUnknownLanguage},
		{in: ".rs.r42", wantErr: ErrUnknownLanguage},
		{in: "page.rs", wantErr: ErrNotTemplate},
		{in: filepath.Join("dir.r42", "page.rs"), wantErr: ErrNotTemplate},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			out, ext, err := OutputPath(tt.in, "r42")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.out, out)
			assert.Equal(t, tt.ext, ext)
		})
	}

	out, ext, err := OutputPath("x.py.tpl", ".tpl")
	require.NoError(t, err)
	assert.Equal(t, "x.py", out)
	assert.Equal(t, "py", ext)
}

func TestTransformSource(t *testing.T) {
	rust, _ := lang.Builtin().ByName("Rust")
	res := TransformSource("<stdin>", []byte("Hello <#=name#>!"), rust, testOptions(t))
	assert.Equal(t, helloRust, res.Output)
	assert.Equal(t, 0, res.Bag.Len())

	res = TransformSource("<stdin>", []byte("a<#=b"), rust, testOptions(t))
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.TplUnterminatedExpression, res.Bag.Items()[0].Code)
	assert.Equal(t, "<stdin>", res.FileSet.Get(res.Bag.Items()[0].Primary.File).Path)

	res = TransformSource("<stdin>", []byte("ok\xc3("), rust, testOptions(t))
	assert.Empty(t, res.Output)
	assert.True(t, res.Bag.HasErrors())
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.IOInvalidUTF8, res.Bag.Items()[0].Code)
	assert.Equal(t, uint32(2), res.Bag.Items()[0].Primary.Start)
}

func TestTransformSourceNormalize(t *testing.T) {
	js, _ := lang.Builtin().ByName("JavaScript")
	opts := testOptions(t)
	opts.Normalize = true
	res := TransformSource("<stdin>", []byte("cafe\u0301"), js, opts)
	assert.Equal(t, "\nwrite(\"caf\u00e9\")\n", res.Output)

	opts.Normalize = false
	res = TransformSource("<stdin>", []byte("cafe\u0301"), js, opts)
	assert.Equal(t, "\nwrite(\"cafe\u0301\")\n", res.Output)
}

func TestTransformFileWritesOutput(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "hello.rs.r42")
	writeFile(t, tpl, "Hello <#=name#>!")

	res, fs, err := TransformFile(tpl, lang.Builtin(), testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, StatusWritten, res.Status)
	assert.Equal(t, "Rust", res.Language)
	assert.Equal(t, filepath.Join(dir, "hello.rs"), res.OutPath)
	assert.Equal(t, helloRust, readFile(t, res.OutPath))
	assert.True(t, res.Loaded)
	assert.Equal(t, 1, fs.Len())

	fi, err := os.Stat(res.OutPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm())
}

func TestTransformFileDryRun(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "page.py.r42")
	writeFile(t, tpl, "x")

	opts := testOptions(t)
	opts.DryRun = true
	res, _, err := TransformFile(tpl, lang.Builtin(), opts)
	require.NoError(t, err)
	assert.Equal(t, StatusDryRun, res.Status)
	assert.Equal(t, "\nbuffer.write(\"x\")\n", res.Output)
	assert.NoFileExists(t, filepath.Join(dir, "page.py"))
}

func TestTransformFileFailures(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "page.zz.r42")
	writeFile(t, unknown, "x")
	noExt := filepath.Join(dir, "page.r42")
	writeFile(t, noExt, "x")
	missing := filepath.Join(dir, "missing.rs.r42")
	blocked := filepath.Join(dir, "blocked.rs.r42")
	writeFile(t, blocked, "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "blocked.rs"), 0o755))

	tests := []struct {
		path    string
		wantErr error
		code    diag.Code
	}{
		{unknown, ErrUnknownLanguage, diag.DrvUnknownLanguage},
		{noExt, ErrUnknownLanguage, diag.DrvMissingLanguageExtension},
		{missing, ErrFileNotReadable, diag.IOLoadFileError},
		{blocked, ErrFileWriteFailure, diag.IOWriteFileError},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			res, _, err := TransformFile(tt.path, lang.Builtin(), testOptions(t))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, res.Failed())
			require.Equal(t, 1, res.Bag.Len())
			d := res.Bag.Items()[0]
			assert.Equal(t, tt.code, d.Code)
			assert.Equal(t, diag.SevError, d.Severity)
			assert.True(t, d.Detached())
		})
	}
}

func TestTransformFileRejectsInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "bad.js.r42")
	writeFile(t, tpl, "a\xffb<#= x #>")

	res, fs, err := TransformFile(tpl, lang.Builtin(), testOptions(t))
	require.ErrorIs(t, err, ErrFileNotReadable)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Empty(t, res.Output)
	assert.NoFileExists(t, filepath.Join(dir, "bad.js"))

	require.Equal(t, 1, res.Bag.Len())
	d := res.Bag.Items()[0]
	assert.Equal(t, diag.IOInvalidUTF8, d.Code)
	assert.Equal(t, diag.SevError, d.Severity)
	assert.False(t, d.Detached())
	assert.Equal(t, uint32(1), d.Primary.Start)
	assert.Equal(t, tpl, fs.Get(d.Primary.File).Path)
}

func TestTransformFileSkipsNonTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "x")

	res, _, err := TransformFile(path, lang.Builtin(), testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.DrvNotTemplate, res.Bag.Items()[0].Code)
	assert.False(t, res.Bag.HasErrors())
}

func TestTransformFileCustomLanguage(t *testing.T) {
	php, err := lang.NewPattern("PHP", "php", `echo "{}";`, "echo {};")
	require.NoError(t, err)
	reg, err := lang.Builtin().With(php)
	require.NoError(t, err)

	dir := t.TempDir()
	tpl := filepath.Join(dir, "index.php.r42")
	writeFile(t, tpl, "<#=$x#>")
	res, _, err := TransformFile(tpl, reg, testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, "PHP", res.Language)
	assert.Equal(t, "\necho $x;\n", readFile(t, filepath.Join(dir, "index.php")))
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.rs.r42"), "")
	writeFile(t, filepath.Join(dir, "sub", "b.cs.r42"), "")
	writeFile(t, filepath.Join(dir, "sub", "deep", "c.js.r42"), "")
	writeFile(t, filepath.Join(dir, "sub", "readme.md"), "")

	all := []string{
		filepath.Join(dir, "a.rs.r42"),
		filepath.Join(dir, "sub", "b.cs.r42"),
		filepath.Join(dir, "sub", "deep", "c.js.r42"),
	}

	files, err := Expand([]string{filepath.Join(dir, "**", "*.r42")}, "r42")
	require.NoError(t, err)
	assert.Equal(t, all, files)

	files, err = Expand([]string{
		filepath.Join(dir, "*.r42"),
		filepath.Join(dir, "a.rs.r42"),
		filepath.Join(dir, "sub", "*"),
	}, "r42")
	require.NoError(t, err)
	assert.Equal(t, all[:2], files)

	files, err = Expand([]string{dir}, "r42")
	require.NoError(t, err)
	assert.Equal(t, all, files)

	files, err = Expand([]string{filepath.Join(dir, "nothing", "*.r42")}, "r42")
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = Expand([]string{filepath.Join(dir, "[")}, "r42")
	assert.Error(t, err)
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) final() map[string]Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Status)
	for _, e := range s.events {
		if e.Status.Final() {
			out[e.File] = e.Status
		}
	}
	return out
}

func TestTransformBatch(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.java.r42")
	bad := filepath.Join(dir, "bad.zz.r42")
	open := filepath.Join(dir, "open.cs.r42")
	writeFile(t, good, "<#int x = 1;#>v=<#=x#>")
	writeFile(t, bad, "x")
	writeFile(t, open, "<# unfinished")

	sink := &recordingSink{}
	opts := testOptions(t)
	opts.Jobs = 2
	opts.Progress = sink
	files := []string{bad, good, open}

	fs, results, err := TransformBatch(context.Background(), files, lang.Builtin(), opts)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 3, fs.Len())

	assert.Equal(t, StatusFailed, results[0].Status)
	assert.ErrorIs(t, results[0].Err, ErrUnknownLanguage)

	assert.Equal(t, StatusWritten, results[1].Status)
	assert.Equal(t, "int x = 1;\nbuffer.write(\"v=\");\n\nbuffer.write((x).toString());\n",
		readFile(t, filepath.Join(dir, "good.java")))

	assert.Equal(t, StatusWritten, results[2].Status)
	assert.True(t, results[2].Bag.HasWarnings())
	assert.Equal(t, " unfinished", readFile(t, filepath.Join(dir, "open.cs")))

	assert.Equal(t, map[string]Status{bad: StatusFailed, good: StatusWritten, open: StatusWritten}, sink.final())

	sum := Summarize(results)
	assert.Equal(t, 2, sum[StatusWritten])
	assert.Equal(t, 1, sum[StatusFailed])
}

func TestTransformBatchCache(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "page.js.r42")
	out := filepath.Join(dir, "page.js")
	writeFile(t, tpl, "a<#=b#>")

	cache, err := NewCache(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	opts := testOptions(t)
	opts.Cache = cache
	ctx := context.Background()

	run := func() FileResult {
		_, results, err := TransformBatch(ctx, []string{tpl}, lang.Builtin(), opts)
		require.NoError(t, err)
		require.Len(t, results, 1)
		return results[0]
	}

	assert.Equal(t, StatusWritten, run().Status)
	assert.Equal(t, StatusUnchanged, run().Status)

	writeFile(t, out, "edited by hand")
	assert.Equal(t, StatusWritten, run().Status)
	assert.Equal(t, "\nwrite(\"a\")\n\nwrite(b)\n", readFile(t, out))

	writeFile(t, tpl, "changed")
	assert.Equal(t, StatusWritten, run().Status)
	assert.Equal(t, "\nwrite(\"changed\")\n", readFile(t, out))

	require.NoError(t, cache.DropAll())
	assert.Equal(t, StatusWritten, run().Status)
}

func TestTransformBatchCancelled(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "page.rs.r42")
	writeFile(t, tpl, "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := TransformBatch(ctx, []string{tpl}, lang.Builtin(), testOptions(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, "page.rs"))
}

func TestTransformBatchEmpty(t *testing.T) {
	fs, results, err := TransformBatch(context.Background(), nil, lang.Builtin(), testOptions(t))
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, fs.Len())
}
