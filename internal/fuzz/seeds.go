package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB: ограничение для тестового корпуса
)

var inlineSeeds = []string{
	"",
	"plain text",
	"<# code #>",
	"<#= expr #>",
	"a<#b#>c<#=d#>e",
	"<##><#=#>",
	"unterminated <# code",
	"unterminated <#= expr",
	"quote \" backslash \\ tab \t nul \x00 cr \r lf \n",
	"<#=<#=x#>",
	"#> stray",
	"\xEF\xBB\xBFbom",
	"\xff\xfe invalid <#= \xc3 #>",
	"日本語 🚀 <#= café #>",
}

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	for _, s := range inlineSeeds {
		f.Add([]byte(s))
	}
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.r42 файлы
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".r42" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
