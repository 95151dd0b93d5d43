// Package resource provides cached loading of JSON descriptors and images.
//
// Image decoding is delegated to a Decoder collaborator so the cache and the
// rest of the engine stay independent of the rendering backend.
package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// ErrUpwardTraversal is returned when a resource path tries to escape the
// game directory with "../" segments.
var ErrUpwardTraversal = errors.New("resource: illegal upward traversal in path")

// Surface is an opaque loaded image. The rendering backend supplies the
// concrete type; the engine core only needs its dimensions and rescaling.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (w, h int)
	// Scaled returns a copy of the surface scaled to the given size.
	Scaled(w, h int) Surface
}

// Decoder loads and decodes an image file into a Surface.
type Decoder interface {
	DecodeImage(path string) (Surface, error)
}

// Manager caches JSON documents and images by normalized path.
type Manager struct {
	log     *zap.Logger
	decoder Decoder
	jsons   map[string]json.RawMessage
	images  map[string]Surface
}

// NewManager creates a resource manager backed by the given image decoder.
func NewManager(log *zap.Logger, decoder Decoder) *Manager {
	return &Manager{
		log:     log.Named("resource"),
		decoder: decoder,
		jsons:   make(map[string]json.RawMessage),
		images:  make(map[string]Surface),
	}
}

// NormalizePath normalizes paths between Windows and other systems and
// rejects upward traversal.
func NormalizePath(path string) (string, error) {
	normalized := strings.ReplaceAll(path, `\`, "/")
	if strings.Contains(normalized, "../") {
		return "", fmt.Errorf("%w: %q", ErrUpwardTraversal, normalized)
	}
	return normalized, nil
}

// LoadJSON reads, caches, and unmarshals the JSON file at path into out.
// A second load of the same path decodes the cached bytes instead of
// re-reading the file.
func (m *Manager) LoadJSON(path string, out any) error {
	path, err := NormalizePath(path)
	if err != nil {
		m.log.Error("Illegal resource path", zap.String("path", path), zap.Error(err))
		return err
	}

	raw, ok := m.jsons[path]
	if !ok {
		m.log.Info("Loading JSON file", zap.String("path", path))
		data, err := os.ReadFile(path)
		if err != nil {
			m.log.Error("Could not open JSON file", zap.String("path", path), zap.Error(err))
			return fmt.Errorf("resource: reading %q: %w", path, err)
		}
		if !json.Valid(data) {
			m.log.Error("JSON syntax error in file", zap.String("path", path))
			return fmt.Errorf("resource: invalid JSON in %q", path)
		}
		raw = json.RawMessage(data)
		m.jsons[path] = raw
	}

	if err := json.Unmarshal(raw, out); err != nil {
		m.log.Error("JSON structure error in file", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("resource: unmarshaling %q: %w", path, err)
	}
	return nil
}

// LoadImage loads and caches the image at path, scaled to the given size.
// A nil scale loads the image at its native size. The cache key includes the
// scale, so the same file may be cached at several sizes.
func (m *Manager) LoadImage(path string, scale []int) (Surface, error) {
	path, err := NormalizePath(path)
	if err != nil {
		m.log.Error("Illegal resource path", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	key := path
	if len(scale) == 2 {
		key = fmt.Sprintf("%s@%dx%d", path, scale[0], scale[1])
	}
	if img, ok := m.images[key]; ok {
		return img, nil
	}

	m.log.Info("Loading image file", zap.String("path", path))
	img, err := m.decoder.DecodeImage(path)
	if err != nil {
		m.log.Error("Could not load image file", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("resource: loading image %q: %w", path, err)
	}
	if len(scale) == 2 {
		img = img.Scaled(scale[0], scale[1])
	}
	m.images[key] = img
	return img, nil
}
