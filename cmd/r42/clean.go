package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"r42/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Drop the output cache",
	Long: `Forget which outputs are up to date, so the next gen rewrites every file.
The cache lives in $R42_CACHE_DIR, or $XDG_CACHE_HOME/r42.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func runClean(cmd *cobra.Command, _ []string) error {
	cache, err := driver.OpenCache(cacheApp)
	if err != nil {
		return err
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop cache %q: %w", cache.Dir(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed cache %s\n", cache.Dir())
	return nil
}
