// Package source fetches graph snapshots from files or a database and
// refreshes them on an interval.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

// ErrUnsupportedFormat is returned for snapshot files that are neither
// JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

// Source produces the current structural view of the agent graph
type Source interface {
	Fetch(ctx context.Context) (visualization.Snapshot, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (visualization.Snapshot, error)

func (f SourceFunc) Fetch(ctx context.Context) (visualization.Snapshot, error) { return f(ctx) }

// FileSource reads a snapshot from disk on every Fetch, so edits to the
// file show up on the next poll.
type FileSource struct {
	Path string
}

// NewFileSource checks the extension up front
func NewFileSource(path string) (*FileSource, error) {
	if _, err := formatOf(path); err != nil {
		return nil, err
	}
	return &FileSource{Path: path}, nil
}

func (f *FileSource) Fetch(ctx context.Context) (visualization.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return visualization.Snapshot{}, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return visualization.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	format, err := formatOf(f.Path)
	if err != nil {
		return visualization.Snapshot{}, err
	}
	return Parse(data, format)
}

// Parse decodes snapshot bytes. format is "json" or "yaml".
func Parse(data []byte, format string) (visualization.Snapshot, error) {
	var snap visualization.Snapshot
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(data, &snap)
	case "yaml":
		err = yaml.Unmarshal(data, &snap)
	default:
		return snap, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return visualization.Snapshot{}, fmt.Errorf("parse %s snapshot: %w", format, err)
	}
	return snap, nil
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
