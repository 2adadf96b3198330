package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sink accepts an encoded image and a suggested filename and saves it somewhere
// the user can get at it. It returns where the image ended up.
type Sink interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

// ManifestSaver is implemented by sinks that keep a description next to the image
type ManifestSaver interface {
	SaveManifest(ctx context.Context, location string, m Manifest) error
}

// Manifest describes a saved strip
type Manifest struct {
	SessionID string          `yaml:"sessionid"`
	Label     string          `yaml:"label"`
	Width     int             `yaml:"width"`
	Height    int             `yaml:"height"`
	CreatedAt time.Time       `yaml:"createdat"`
	Photos    []PhotoManifest `yaml:"photos"`
}

type PhotoManifest struct {
	Index   int       `yaml:"index"`
	Filter  string    `yaml:"filter"`
	Width   int       `yaml:"width"`
	Height  int       `yaml:"height"`
	TakenAt time.Time `yaml:"takenat"`
}

var ErrInvalidFilename = errors.New("invalid filename")

// Dir saves into a directory, never overwriting an existing file
type Dir struct {
	Path string
}

func NewDir(path string) *Dir {
	return &Dir{Path: path}
}

func (d *Dir) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}

	if err := os.MkdirAll(d.Path, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	for i := 0; ; i++ {
		name := filename
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		path := filepath.Join(d.Path, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", name, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to write %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close %s: %w", name, err)
		}

		slog.Info("Image saved", "path", path, "bytes", len(data))
		return path, nil
	}
}

// SaveManifest writes m as YAML beside the image at location
func (d *Dir) SaveManifest(ctx context.Context, location string, m Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	path := strings.TrimSuffix(location, filepath.Ext(location)) + ".yaml"
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest written by SaveManifest
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
