package driver

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"r42/internal/diag"
	"r42/internal/lang"
	"r42/internal/source"
)

// OutputPath strips the template suffix from templatePath and returns the
// output path and the language extension it ends with:
// "dir/page.rs.r42" gives "dir/page.rs" and "rs".
func OutputPath(templatePath, suffix string) (out, ext string, err error) {
	suffix = "." + strings.TrimPrefix(suffix, ".")
	if !strings.HasSuffix(filepath.Base(templatePath), suffix) {
		return "", "", fmt.Errorf("%s: %w: expected a %s suffix", templatePath, ErrNotTemplate, suffix)
	}
	out = strings.TrimSuffix(templatePath, suffix)
	ext = strings.TrimPrefix(filepath.Ext(out), ".")
	if ext == "" || filepath.Base(out) == filepath.Ext(out) {
		return "", "", fmt.Errorf("%s: %w: no language extension before %s", templatePath, ErrUnknownLanguage, suffix)
	}
	return out, ext, nil
}

// resolveLanguage maps a template path to its output path and language.
// On failure it returns the diagnostic to record.
func resolveLanguage(path, suffix string, reg *lang.Registry) (string, lang.Language, *diag.Diagnostic, error) {
	out, ext, err := OutputPath(path, suffix)
	if err != nil {
		code := diag.DrvMissingLanguageExtension
		sev := diag.SevError
		if errors.Is(err, ErrNotTemplate) {
			code, sev = diag.DrvNotTemplate, diag.SevInfo
		}
		d := diag.NewPathError(code, path, err.Error())
		d.Severity = sev
		return "", lang.Language{}, &d, err
	}
	l, ok := reg.ByExtension(ext)
	if !ok {
		err := fmt.Errorf("%s: %w %q", path, ErrUnknownLanguage, ext)
		msg := fmt.Sprintf("no language found for extension %q", ext)
		d := diag.NewPathError(diag.DrvUnknownLanguage, path, msg).
			WithNote(source.Span{}, "known extensions: "+strings.Join(extensions(reg), ", "))
		return "", lang.Language{}, &d, err
	}
	return out, l, nil, nil
}

func extensions(reg *lang.Registry) []string {
	all := reg.All()
	out := make([]string, len(all))
	for i, l := range all {
		out[i] = l.Extension
	}
	return out
}
