package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/flowset/pkg/pipeline"
)

// cacheDir returns the cache directory using XDG standard (~/.cache/flowset/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// basePath derives the output path without extension. An empty output
// strips the extension of the input; known output extensions are stripped
// from output.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	if s, ok := strings.CutSuffix(output, ".tree.svg"); ok {
		return s
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
