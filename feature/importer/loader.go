package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"content-importer/feature/schema"

	"go.uber.org/zap"
)

// wrapperKeys are object keys that hold the record array in wrapped files.
var wrapperKeys = []string{"data", "items", "records"}

// Loader reads raw records from JSON files.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger.With(zap.String("component", "loader"))}
}

// Resolve expands patterns into a sorted, de-duplicated file list. Exact
// paths must exist; a glob matching nothing is only logged.
func (l *Loader) Resolve(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		var matches []string
		if strings.ContainsAny(pattern, "*?[") {
			m, err := filepath.Glob(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			if len(m) == 0 {
				l.logger.Warn("Pattern matched no files", zap.String("pattern", pattern))
			}
			sort.Strings(m)
			matches = m
		} else {
			info, err := os.Stat(pattern)
			if err != nil {
				return nil, fmt.Errorf("input file: %w", err)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("input %s is a directory", pattern)
			}
			matches = []string{pattern}
		}

		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files, nil
}

// Load reads every file matched by patterns. Each file holds one object, an
// array of objects, or an object wrapping the array under "data", "items"
// or "records". Array elements that are not objects yield envelopes with a
// nil Raw so that validation reports them.
func (l *Loader) Load(kind schema.Kind, patterns []string) ([]schema.Envelope, error) {
	files, err := l.Resolve(patterns)
	if err != nil {
		return nil, err
	}

	var out []schema.Envelope
	for _, file := range files {
		envs, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded file",
			zap.String("kind", string(kind)),
			zap.String("file", file),
			zap.Int("records", len(envs)))
		out = append(out, envs...)
	}
	return out, nil
}

func (l *Loader) loadFile(file string) ([]schema.Envelope, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	return decodeRecords(f, file)
}

func decodeRecords(r io.Reader, file string) ([]schema.Envelope, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
		for _, k := range wrapperKeys {
			if list, ok := v[k].([]any); ok {
				items = list
				break
			}
		}
	default:
		return nil, fmt.Errorf("%s: expected an object or an array, got %T", file, doc)
	}

	envs := make([]schema.Envelope, len(items))
	for i, item := range items {
		raw, _ := item.(map[string]any)
		envs[i] = schema.Envelope{Raw: raw, File: file, Index: i}
	}
	return envs, nil
}
