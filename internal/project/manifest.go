package project

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"r42/internal/lang"
)

// DefaultSuffix is the extension that marks template files.
const DefaultSuffix = "r42"

// Manifest is a loaded r42.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the r42.toml layout.
type Config struct {
	Transform TransformConfig  `toml:"transform"`
	Languages []LanguageConfig `toml:"language"`
}

type TransformConfig struct {
	// Language is the default for stdin mode; empty means the registry default.
	Language string `toml:"language"`
	// Include lists glob patterns, relative to the manifest directory.
	Include []string `toml:"include"`
	// Suffix is the template extension without the dot.
	Suffix string `toml:"suffix"`
	// Jobs caps parallel workers; 0 means GOMAXPROCS.
	Jobs int `toml:"jobs"`
	// Normalize applies Unicode NFC to template text before transforming.
	Normalize bool `toml:"normalize"`
	// Cache skips rewriting outputs whose template did not change.
	Cache *bool `toml:"cache"`
}

type LanguageConfig struct {
	Name       string `toml:"name"`
	Extension  string `toml:"extension"`
	Literal    string `toml:"literal"`
	Expression string `toml:"expression"`
}

// DefaultConfig is used when no manifest is found.
func DefaultConfig() Config {
	return Config{
		Transform: TransformConfig{
			Include: []string{"**/*." + DefaultSuffix},
			Suffix:  DefaultSuffix,
		},
	}
}

// CacheEnabled reports whether the output cache is on (default true).
func (c TransformConfig) CacheEnabled() bool {
	return c.Cache == nil || *c.Cache
}

// JobCount resolves Jobs to a positive worker count.
func (c TransformConfig) JobCount() int {
	if c.Jobs <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Jobs
}

// Load finds and decodes the manifest above startDir. ok is false when
// there is none.
func Load(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// LoadConfig decodes and validates one manifest file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Transform.Suffix = strings.TrimPrefix(strings.TrimSpace(cfg.Transform.Suffix), ".")
	if cfg.Transform.Suffix == "" {
		return Config{}, fmt.Errorf("%s: [transform].suffix must not be empty", path)
	}
	if !meta.IsDefined("transform", "include") {
		cfg.Transform.Include = []string{"**/*." + cfg.Transform.Suffix}
	}
	if cfg.Transform.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [transform].jobs must not be negative", path)
	}
	for i, l := range cfg.Languages {
		if strings.TrimSpace(l.Name) == "" {
			return Config{}, fmt.Errorf("%s: [[language]] #%d: missing name", path, i+1)
		}
		if strings.TrimSpace(l.Extension) == "" {
			return Config{}, fmt.Errorf("%s: [[language]] %s: missing extension", path, l.Name)
		}
	}
	return cfg, nil
}

// Registry returns the built-in languages followed by the manifest's
// custom ones.
func (c Config) Registry() (*lang.Registry, error) {
	base := lang.Builtin()
	if len(c.Languages) == 0 {
		return base, nil
	}
	extra := make([]lang.Language, 0, len(c.Languages))
	for _, lc := range c.Languages {
		l, err := lang.NewPattern(lc.Name, lc.Extension, lc.Literal, lc.Expression)
		if err != nil {
			return nil, err
		}
		extra = append(extra, l)
	}
	return base.With(extra...)
}

// DefaultLanguage resolves [transform].language against reg.
func (c Config) DefaultLanguage(reg *lang.Registry) (lang.Language, error) {
	name := strings.TrimSpace(c.Transform.Language)
	if name == "" {
		return reg.Default(), nil
	}
	l, ok := reg.ByName(name)
	if !ok {
		return lang.Language{}, fmt.Errorf("[transform].language: unknown language %q", name)
	}
	return l, nil
}

// Patterns returns the include patterns resolved against root.
func (m *Manifest) Patterns() []string {
	out := make([]string, 0, len(m.Config.Transform.Include))
	for _, p := range m.Config.Transform.Include {
		if filepath.IsAbs(p) {
			out = append(out, p)
			continue
		}
		out = append(out, filepath.Join(m.Root, filepath.FromSlash(p)))
	}
	return out
}

// Render returns a starter manifest for `r42 init`.
func Render(language string) string {
	return fmt.Sprintf(`# r42 project manifest
[transform]
# default language for stdin mode
language = %q
# templates named <name>.<ext>.r42 produce <name>.<ext>
include = ["**/*.%s"]
suffix = %q
# 0 uses every CPU
jobs = 0
normalize = false
cache = true

# Extra target languages. {} is replaced by the escaped literal or the raw expression.
# [[language]]
# name = "PHP"
# extension = "php"
# literal = "echo \"{}\";"
# expression = "echo {};"
`, language, DefaultSuffix, DefaultSuffix)
}
