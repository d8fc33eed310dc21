package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"formalizer/internal/common/fsutil"
)

// ResolveModelPath turns the configured model path into a single .gguf file.
// A directory is scanned for *.gguf files: name selects one by filename (with
// or without extension), otherwise the directory must hold exactly one.
func ResolveModelPath(path, name string) (string, error) {
	p, err := fsutil.ExpandHome(strings.TrimSpace(path))
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", fmt.Errorf("model path is empty")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("abs path: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("model path: %w", err)
	}
	if !fi.IsDir() {
		return abs, nil
	}
	files, err := fsutil.FilesWithExt(abs, ".gguf")
	if err != nil {
		return "", err
	}
	if name != "" {
		for _, f := range files {
			if f == name || strings.TrimSuffix(f, filepath.Ext(f)) == name {
				return filepath.Join(abs, f), nil
			}
		}
		return "", fmt.Errorf("model %q not found in %s", name, abs)
	}
	switch len(files) {
	case 0:
		return "", fmt.Errorf("no .gguf models in %s", abs)
	case 1:
		return filepath.Join(abs, files[0]), nil
	default:
		return "", fmt.Errorf("%d .gguf models in %s; set engine_model to pick one", len(files), abs)
	}
}
