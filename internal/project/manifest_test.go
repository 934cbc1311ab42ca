package project

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"r42/internal/lang"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[transform]\nlanguage = \"Java\"\njobs = 3\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	m, ok, err := Load(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root, m.Root)
	assert.Equal(t, "Java", m.Config.Transform.Language)
	assert.Equal(t, 3, m.Config.Transform.JobCount())
	assert.Equal(t, DefaultSuffix, m.Config.Transform.Suffix)
	assert.True(t, m.Config.Transform.CacheEnabled())
	assert.Equal(t, []string{filepath.Join(root, "**", "*.r42")}, m.Patterns())
}

func TestLoadMissing(t *testing.T) {
	m, ok, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestLoadConfigSuffixDrivesInclude(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "[transform]\nsuffix = \".tpl\"\ncache = false\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "tpl", cfg.Transform.Suffix)
	assert.Equal(t, []string{"**/*.tpl"}, cfg.Transform.Include)
	assert.False(t, cfg.Transform.CacheEnabled())
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Transform.JobCount())
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[transform\n", "failed to parse TOML"},
		{"unknown key", "[transform]\nlangauge = \"Rust\"\n", "unknown keys: transform.langauge"},
		{"negative jobs", "[transform]\njobs = -1\n", "jobs must not be negative"},
		{"empty suffix", "[transform]\nsuffix = \"\"\n", "suffix must not be empty"},
		{"language without name", "[[language]]\nextension = \"php\"\n", "missing name"},
		{"language without extension", "[[language]]\nname = \"PHP\"\n", "missing extension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.content)
			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfigRegistry(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[transform]
language = "PHP"

[[language]]
name = "PHP"
extension = "php"
literal = "echo \"{}\";"
expression = "echo {};"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, 6, reg.Len())

	def, err := cfg.DefaultLanguage(reg)
	require.NoError(t, err)
	assert.Equal(t, lang.Custom, def.ID)
	assert.Equal(t, "\necho \"a\";\n\necho $b;\n", def.Transform("a<#=$b#>"))

	cfg.Transform.Language = "Cobol"
	_, err = cfg.DefaultLanguage(reg)
	assert.Error(t, err)

	cfg.Languages[0].Literal = "no placeholder"
	_, err = cfg.Registry()
	assert.ErrorIs(t, err, lang.ErrInvalidLanguage)
}

func TestDefaultConfigRegistry(t *testing.T) {
	cfg := DefaultConfig()
	reg, err := cfg.Registry()
	require.NoError(t, err)
	def, err := cfg.DefaultLanguage(reg)
	require.NoError(t, err)
	assert.Equal(t, "Rust", def.Name)
}

func TestRenderRoundTrips(t *testing.T) {
	path := writeManifest(t, t.TempDir(), Render("C#"))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "C#", cfg.Transform.Language)
	assert.Equal(t, []string{"**/*.r42"}, cfg.Transform.Include)
	assert.True(t, cfg.Transform.CacheEnabled())
}

func TestDigest(t *testing.T) {
	a := HashString("a")
	assert.False(t, a.IsZero())
	assert.True(t, Digest{}.IsZero())
	assert.Len(t, a.String(), 64)
	assert.NotEqual(t, Combine(a), Combine(a, HashString("b")))
	assert.Equal(t, Combine(a, a), Combine(a, a))
}
