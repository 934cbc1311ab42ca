package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"r42/internal/lang"
	"r42/internal/project"
)

// projectContext is the resolved configuration for one invocation.
type projectContext struct {
	manifest *project.Manifest // nil without r42.toml
	config   project.Config
	registry *lang.Registry
	fallback lang.Language // default language for stdin mode
}

// loadProject finds r42.toml above dir, or falls back to defaults.
func loadProject(dir string) (*projectContext, error) {
	manifest, ok, err := project.Load(dir)
	if err != nil {
		return nil, err
	}
	cfg := project.DefaultConfig()
	if ok {
		cfg = manifest.Config
	}
	reg, err := cfg.Registry()
	if err != nil {
		if ok {
			return nil, fmt.Errorf("%s: %w", manifest.Path, err)
		}
		return nil, err
	}
	def, err := cfg.DefaultLanguage(reg)
	if err != nil {
		if ok {
			return nil, fmt.Errorf("%s: %w", manifest.Path, err)
		}
		return nil, err
	}
	return &projectContext{manifest: manifest, config: cfg, registry: reg, fallback: def}, nil
}

// patterns returns the default include patterns: the manifest's, resolved
// against its root, else the defaults relative to the working directory.
func (p *projectContext) patterns() []string {
	if p.manifest != nil {
		return p.manifest.Patterns()
	}
	return p.config.Transform.Include
}

// languageError explains an unknown language name with close matches.
func (p *projectContext) languageError(name string) error {
	msg := fmt.Sprintf("unknown language %q", name)
	if s := p.registry.Suggest(name); len(s) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(s, ", "))
	} else {
		msg += fmt.Sprintf(" (available: %s)", strings.Join(p.registry.Names(), ", "))
	}
	return errors.New(msg)
}

// looksLikeLanguage reports whether arg was probably meant as a language
// name rather than a path or glob.
func looksLikeLanguage(arg string) bool {
	if arg == "" || strings.ContainsAny(arg, "*?[{/\\.") || strings.Contains(arg, string(filepath.Separator)) {
		return false
	}
	_, err := os.Stat(arg)
	return err != nil
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
