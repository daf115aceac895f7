package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/skekre98/arc/config"
)

// FileSource loads application.yaml (or .yml) from BasePath and, when
// Profile is set, deep-merges application.<Profile>.yaml over it:
//
//	configs/
//	  application.yaml       # base
//	  application.prod.yaml  # overlay for Profile "prod"
//
// A missing profile file is ignored. A missing base file is an error
// wrapping os.ErrNotExist unless Optional is set.
type FileSource struct {
	BasePath string
	Profile  string
	Optional bool
}

func (f *FileSource) Name() string { return "file" }

func (f *FileSource) Load(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]any{}
	baseFile := findYAMLFile(f.BasePath, "application")
	if baseFile == "" {
		if f.Optional {
			return data, nil
		}
		return nil, fmt.Errorf("no application.yaml in %q: %w", f.BasePath, os.ErrNotExist)
	}
	if err := readYAML(baseFile, data); err != nil {
		return nil, err
	}

	if f.Profile != "" {
		if profileFile := findYAMLFile(f.BasePath, "application."+f.Profile); profileFile != "" {
			overlay := map[string]any{}
			if err := readYAML(profileFile, overlay); err != nil {
				return nil, err
			}
			deepMerge(data, overlay)
		}
	}

	return data, nil
}

// Watch is a no-op; files are read on every Reload.
func (f *FileSource) Watch(ctx context.Context, ch chan<- config.Event) error { return nil }

func findYAMLFile(dir, basename string) string {
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, basename+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func readYAML(path string, out map[string]any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		sv, ok := v.(map[string]any)
		dv, dok := dst[k].(map[string]any)
		if ok && dok {
			deepMerge(dv, sv)
			continue
		}
		dst[k] = v
	}
}
