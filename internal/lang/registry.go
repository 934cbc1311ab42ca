package lang

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"r42/internal/scan"
)

// ID tags the built-in strategies. Manifest-defined languages use Custom.
type ID uint8

const (
	Rust ID = iota
	CSharp
	Java
	JavaScript
	Python
	Custom
)

func (id ID) String() string {
	switch id {
	case Rust:
		return "rust"
	case CSharp:
		return "csharp"
	case Java:
		return "java"
	case JavaScript:
		return "javascript"
	case Python:
		return "python"
	case Custom:
		return "custom"
	}
	return "unknown"
}

// Language describes one target language.
type Language struct {
	ID        ID
	Name      string
	Extension string
	Emitter   scan.Emitter
}

// Transform runs the scanner with this language's writers.
func (l Language) Transform(input string) string {
	return scan.TransformWith(input, l.Emitter)
}

var (
	ErrDuplicateName      = errors.New("duplicate language name")
	ErrDuplicateExtension = errors.New("duplicate language extension")
	ErrInvalidLanguage    = errors.New("invalid language")
)

// Registry is an ordered, read-only list of languages. The first entry is
// the default. A Registry is safe for concurrent use.
type Registry struct {
	langs []Language
}

var builtins = []Language{
	{ID: Rust, Name: "Rust", Extension: "rs", Emitter: rustEmitter{}},
	{ID: CSharp, Name: "C#", Extension: "cs", Emitter: csharpEmitter{}},
	{ID: Java, Name: "Java", Extension: "java", Emitter: javaEmitter{}},
	{ID: JavaScript, Name: "JavaScript", Extension: "js", Emitter: javascriptEmitter{}},
	{ID: Python, Name: "Python", Extension: "py", Emitter: pythonEmitter{}},
}

// Builtin returns the registry of built-in languages, Rust first.
func Builtin() *Registry {
	return &Registry{langs: slices.Clone(builtins)}
}

// New builds a registry from langs, rejecting empty or colliding entries.
func New(langs ...Language) (*Registry, error) {
	if len(langs) == 0 {
		return nil, fmt.Errorf("%w: registry needs at least one language", ErrInvalidLanguage)
	}
	r := &Registry{langs: make([]Language, 0, len(langs))}
	for _, l := range langs {
		if err := r.add(l); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// With returns a new registry holding r's languages followed by extra.
func (r *Registry) With(extra ...Language) (*Registry, error) {
	return New(append(slices.Clone(r.langs), extra...)...)
}

func (r *Registry) add(l Language) error {
	l.Extension = strings.TrimPrefix(l.Extension, ".")
	switch {
	case strings.TrimSpace(l.Name) == "":
		return fmt.Errorf("%w: empty name", ErrInvalidLanguage)
	case l.Extension == "" || strings.ContainsAny(l.Extension, "./\\"):
		return fmt.Errorf("%w: %s: bad extension %q", ErrInvalidLanguage, l.Name, l.Extension)
	case l.Emitter == nil:
		return fmt.Errorf("%w: %s: no emitter", ErrInvalidLanguage, l.Name)
	}
	if _, ok := r.ByName(l.Name); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, l.Name)
	}
	if other, ok := r.ByExtension(l.Extension); ok {
		return fmt.Errorf("%w: %s is already used by %s", ErrDuplicateExtension, l.Extension, other.Name)
	}
	r.langs = append(r.langs, l)
	return nil
}

// NewPattern builds a Custom language from two Pattern templates.
func NewPattern(name, extension, literal, expression string) (Language, error) {
	for _, tmpl := range []string{literal, expression} {
		if !strings.Contains(tmpl, Placeholder) {
			return Language{}, fmt.Errorf("%w: %s: pattern %q has no %s placeholder", ErrInvalidLanguage, name, tmpl, Placeholder)
		}
	}
	return Language{
		ID:        Custom,
		Name:      name,
		Extension: strings.TrimPrefix(extension, "."),
		Emitter:   Pattern{Literal: literal, Expression: expression},
	}, nil
}

// Default returns the first language.
func (r *Registry) Default() Language {
	return r.langs[0]
}

// Len returns the number of languages.
func (r *Registry) Len() int {
	return len(r.langs)
}

// All returns a copy of the languages in order.
func (r *Registry) All() []Language {
	return slices.Clone(r.langs)
}

// Names returns the display names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.langs))
	for i, l := range r.langs {
		names[i] = l.Name
	}
	return names
}

// ByName finds a language by exact display name.
func (r *Registry) ByName(name string) (Language, bool) {
	for _, l := range r.langs {
		if l.Name == name {
			return l, true
		}
	}
	return Language{}, false
}

// ByExtension finds a language by file extension, with or without the dot.
func (r *Registry) ByExtension(ext string) (Language, bool) {
	ext = strings.TrimPrefix(ext, ".")
	for _, l := range r.langs {
		if l.Extension == ext {
			return l, true
		}
	}
	return Language{}, false
}

// Suggest returns language names close to name, best first.
func (r *Registry) Suggest(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	names := r.Names()
	seen := make(map[string]bool)
	var out []string

	for _, n := range names {
		if strings.EqualFold(n, name) {
			out = append(out, n)
			seen[n] = true
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(name, names)
	sort.Sort(ranks)
	for _, rk := range ranks {
		if !seen[rk.Target] {
			out = append(out, rk.Target)
			seen[rk.Target] = true
		}
	}

	lower := strings.ToLower(name)
	for _, n := range names {
		if !seen[n] && fuzzy.LevenshteinDistance(lower, strings.ToLower(n)) <= 2 {
			out = append(out, n)
			seen[n] = true
		}
	}
	return out
}
