package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"r42/internal/lang"
	"r42/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create an r42.toml project manifest",
	Long: `Create an r42.toml in [path] (default: the current directory). The
directory is created if it does not exist. An existing manifest is never
overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("language", "", "default language for stdin mode (default: first built-in)")
}

func runInit(cmd *cobra.Command, args []string) error {
	language, err := cmd.Flags().GetString("language")
	if err != nil {
		return fmt.Errorf("failed to get language flag: %w", err)
	}
	reg := lang.Builtin()
	if language == "" {
		language = reg.Default().Name
	} else if _, ok := reg.ByName(language); !ok {
		return (&projectContext{registry: reg}).languageError(language)
	}

	dir := "."
	if len(args) == 1 && args[0] != "" {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}
	manifest := filepath.Join(dir, project.ManifestName)
	if err := createExclusive(manifest, project.Render(language)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("project already initialized: %s exists", manifest)
		}
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized r42 project in %s\n  - %s\n",
		filepath.ToSlash(filepath.Clean(dir)), project.ManifestName)
	return nil
}

// createExclusive writes a new file and fails with fs.ErrExist if path is taken.
func createExclusive(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
