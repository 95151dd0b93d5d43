package world

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"duskwalk/pkg/engine/database"
	"duskwalk/pkg/engine/overlay"
	"duskwalk/pkg/engine/resource"
	"duskwalk/pkg/engine/room"
)

type fakeSurface struct {
	w, h int
}

func (s *fakeSurface) Size() (int, int) { return s.w, s.h }
func (s *fakeSurface) Scaled(w, h int) resource.Surface {
	return &fakeSurface{w: w, h: h}
}

type fakeDecoder struct{}

func (d *fakeDecoder) DecodeImage(path string) (resource.Surface, error) {
	return &fakeSurface{w: 800, h: 600}, nil
}

// fixedRand always rolls its value. Funvalue draws and chance rolls both go
// through it.
type fixedRand struct {
	value int
}

func (r *fixedRand) Intn(n int) int { return r.value % n }

const worldJSON = `{
	"name": "Dusk Manor",
	"first_roomview": "hall.json",
	"funvalue_range": [1, 1000]
}`

const hallJSON = `{
	"default": {
		"image": "hall.png",
		"exits": {"left": "study.json"}
	},
	"nighttime": {
		"image": "hall_dark.png"
	}
}`

const studyJSON = `{
	"default": {
		"image": "study.png"
	}
}`

func writeWorld(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range map[string]string{
		"world.json": worldJSON,
		"hall.json":  hallJSON,
		"study.json": studyJSON,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newTestWorld(t *testing.T, dir string, db database.Store, roll int) *World {
	t.Helper()
	rng := &fixedRand{value: roll}
	res := resource.NewManager(zap.NewNop(), &fakeDecoder{})
	loader := room.NewLoader(res, nil, []int{800, 600}, rng, zap.NewNop())
	ov := overlay.NewManager(res, zap.NewNop())
	return New(dir, res, db, loader, ov, rng, zap.NewNop())
}

func openTestStore(t *testing.T, path string) database.Store {
	t.Helper()
	db, err := database.OpenFile(path, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func TestLoad_DrawsAndPersistsFunvalue(t *testing.T) {
	dir := writeWorld(t)
	db := openTestStore(t, filepath.Join(dir, "session.db"))

	w := newTestWorld(t, dir, db, 41)
	if err := w.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Range [1,1000] with a roll of 41 gives 1 + 41.
	if w.Funvalue != 42 {
		t.Errorf("funvalue = %d, want 42", w.Funvalue)
	}
	if w.Name != "Dusk Manor" {
		t.Errorf("name = %q", w.Name)
	}
	if w.Roomview == nil || w.Roomview.View != "default" {
		t.Fatalf("first roomview not loaded: %+v", w.Roomview)
	}

	var persisted int
	if err := db.Get("funvalue", &persisted); err != nil {
		t.Fatalf("funvalue not persisted: %v", err)
	}
	if persisted != 42 {
		t.Errorf("persisted funvalue = %d, want 42", persisted)
	}
}

func TestLoad_FunvalueStableAcrossRestart(t *testing.T) {
	dir := writeWorld(t)
	dbPath := filepath.Join(dir, "session.db")

	db := openTestStore(t, dbPath)
	first := newTestWorld(t, dir, db, 41)
	if err := first.Load(); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	// A different roll must not matter: the persisted value wins.
	reopened := openTestStore(t, dbPath)
	second := newTestWorld(t, dir, reopened, 997)
	if err := second.Load(); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if second.Funvalue != first.Funvalue {
		t.Errorf("funvalue changed across restart: %d then %d", first.Funvalue, second.Funvalue)
	}
}

func TestLoad_BadDescriptor(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"missing name":  `{"first_roomview": "hall.json", "funvalue_range": [1, 10]}`,
		"missing first": `{"name": "X", "funvalue_range": [1, 10]}`,
		"bad range":     `{"name": "X", "first_roomview": "hall.json", "funvalue_range": [10, 1]}`,
	}
	for name, contents := range cases {
		sub := filepath.Join(dir, name)
		if err := os.MkdirAll(sub, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(sub, "world.json"), []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
		db := openTestStore(t, filepath.Join(sub, "session.db"))
		w := newTestWorld(t, sub, db, 0)
		if err := w.Load(); err == nil {
			t.Errorf("%s: Load succeeded", name)
		}
	}
}

func TestNavigate(t *testing.T) {
	dir := writeWorld(t)
	db := openTestStore(t, filepath.Join(dir, "session.db"))
	w := newTestWorld(t, dir, db, 0)
	if err := w.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !w.Navigate("left") {
		t.Fatal("Navigate(left) failed")
	}
	if w.Roomview.File != dir+"/study.json" {
		t.Errorf("roomview file = %q after navigating", w.Roomview.File)
	}

	// The study has no exits at all.
	if w.Navigate("right") {
		t.Error("Navigate through a non-existent exit succeeded")
	}
	if w.Roomview.File != dir+"/study.json" {
		t.Errorf("failed navigation moved the roomview")
	}
}

func TestChangeRoomview_ViewSelector(t *testing.T) {
	dir := writeWorld(t)
	db := openTestStore(t, filepath.Join(dir, "session.db"))
	w := newTestWorld(t, dir, db, 0)
	if err := w.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !w.ChangeRoomview("hall.json:nighttime") {
		t.Fatal("ChangeRoomview with view selector failed")
	}
	if w.Roomview.View != "nighttime" {
		t.Errorf("view = %q, want nighttime", w.Roomview.View)
	}
}

func TestChangeRoomview_RollsBackOnFailure(t *testing.T) {
	dir := writeWorld(t)
	db := openTestStore(t, filepath.Join(dir, "session.db"))
	w := newTestWorld(t, dir, db, 0)
	if err := w.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	before := w.Roomview

	if w.ChangeRoomview("hall.json:no-such-view") {
		t.Fatal("ChangeRoomview to a missing view succeeded")
	}
	if w.Roomview != before {
		t.Error("failed roomview change replaced the live roomview")
	}

	if w.ChangeRoomview("absent.json") {
		t.Fatal("ChangeRoomview to a missing file succeeded")
	}
	if w.Roomview != before {
		t.Error("failed roomview change replaced the live roomview")
	}
}

func TestChangeRoomview_CleansUpOverlays(t *testing.T) {
	dir := writeWorld(t)
	db := openTestStore(t, filepath.Join(dir, "session.db"))

	rng := &fixedRand{value: 0}
	res := resource.NewManager(zap.NewNop(), &fakeDecoder{})
	loader := room.NewLoader(res, nil, []int{800, 600}, rng, zap.NewNop())
	ov := overlay.NewManager(res, zap.NewNop())
	w := New(dir, res, db, loader, ov, rng, zap.NewNop())
	if err := w.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	kept := ov.InsertSurface(&fakeSurface{w: 1, h: 1}, 0, 0, true)
	ov.InsertSurface(&fakeSurface{w: 1, h: 1}, 0, 0, false)

	if !w.Navigate("left") {
		t.Fatal("Navigate failed")
	}
	if ov.Len() != 1 || !ov.Contains(kept) {
		t.Errorf("room change kept %d overlays, want just the persistent one", ov.Len())
	}

	// A failed change must not sweep overlays.
	ov.InsertSurface(&fakeSurface{w: 1, h: 1}, 0, 0, false)
	w.ChangeRoomview("absent.json")
	if ov.Len() != 2 {
		t.Errorf("failed room change swept overlays")
	}
}
