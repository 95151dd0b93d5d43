package resource

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

// fakeSurface is a test Surface that records its size.
type fakeSurface struct {
	w, h int
}

func (f *fakeSurface) Size() (int, int)          { return f.w, f.h }
func (f *fakeSurface) Scaled(w, h int) Surface   { return &fakeSurface{w: w, h: h} }

// fakeDecoder counts decodes and fails for paths in the missing set.
type fakeDecoder struct {
	decodes int
	missing map[string]bool
}

func (f *fakeDecoder) DecodeImage(path string) (Surface, error) {
	if f.missing[path] {
		return nil, errors.New("no such image")
	}
	f.decodes++
	return &fakeSurface{w: 100, h: 50}, nil
}

func newTestManager(t *testing.T) (*Manager, *fakeDecoder) {
	t.Helper()
	dec := &fakeDecoder{missing: make(map[string]bool)}
	return NewManager(zap.NewNop(), dec), dec
}

func TestNormalizePath_Backslashes(t *testing.T) {
	got, err := NormalizePath(`rooms\cellar.json`)
	if err != nil {
		t.Fatalf("NormalizePath returned error: %v", err)
	}
	if got != "rooms/cellar.json" {
		t.Errorf("NormalizePath = %q, want %q", got, "rooms/cellar.json")
	}
}

func TestNormalizePath_UpwardTraversal(t *testing.T) {
	_, err := NormalizePath("../../etc/passwd")
	if !errors.Is(err, ErrUpwardTraversal) {
		t.Errorf("NormalizePath error = %v, want ErrUpwardTraversal", err)
	}
}

func TestLoadJSON_CachedByPath(t *testing.T) {
	m, _ := newTestManager(t)
	path := filepath.Join(t.TempDir(), "room.json")
	if err := os.WriteFile(path, []byte(`{"name": "cellar"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	var first map[string]string
	if err := m.LoadJSON(path, &first); err != nil {
		t.Fatalf("first LoadJSON: %v", err)
	}

	// Replace the file on disk; the cached parse must win.
	if err := os.WriteFile(path, []byte(`{"name": "attic"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	var second map[string]string
	if err := m.LoadJSON(path, &second); err != nil {
		t.Fatalf("second LoadJSON: %v", err)
	}
	if second["name"] != "cellar" {
		t.Errorf("second load read from disk, got %q, want cached %q", second["name"], "cellar")
	}
}

func TestLoadJSON_InvalidJSON(t *testing.T) {
	m, _ := newTestManager(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := m.LoadJSON(path, &out); err == nil {
		t.Error("LoadJSON succeeded on invalid JSON, want error")
	}
}

func TestLoadImage_CachedPerScale(t *testing.T) {
	m, dec := newTestManager(t)

	a, err := m.LoadImage("images/bg.png", []int{800, 600})
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if w, h := a.Size(); w != 800 || h != 600 {
		t.Errorf("scaled size = %dx%d, want 800x600", w, h)
	}

	// Same path and scale must hit the cache.
	if _, err := m.LoadImage("images/bg.png", []int{800, 600}); err != nil {
		t.Fatalf("second LoadImage: %v", err)
	}
	if dec.decodes != 1 {
		t.Errorf("decodes = %d, want 1 (cache hit expected)", dec.decodes)
	}

	// A different scale is a distinct cache entry.
	if _, err := m.LoadImage("images/bg.png", []int{64, 64}); err != nil {
		t.Fatalf("rescaled LoadImage: %v", err)
	}
	if dec.decodes != 2 {
		t.Errorf("decodes = %d, want 2 after new scale", dec.decodes)
	}
}

func TestLoadImage_Missing(t *testing.T) {
	m, dec := newTestManager(t)
	dec.missing["images/gone.png"] = true
	if _, err := m.LoadImage("images/gone.png", nil); err == nil {
		t.Error("LoadImage succeeded on missing image, want error")
	}
}
