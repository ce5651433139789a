package watch

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ironsheep/nid-extract/internal/detection"
	"github.com/ironsheep/nid-extract/internal/imaging"
	"github.com/ironsheep/nid-extract/internal/nid"
	"github.com/ironsheep/nid-extract/internal/pipeline"
)

type stubFinder struct{}

func (stubFinder) FindRegions(*image.Gray) ([]detection.Bounds, error) {
	return []detection.Bounds{{X1: 0, Y1: 0, X2: 40, Y2: 10}}, nil
}

type stubOCR string

func (o stubOCR) Text(context.Context, image.Image) (string, error) {
	return string(o), nil
}

type stubFaces struct{}

func (stubFaces) Detect(*image.Gray) ([]image.Rectangle, error) {
	return []image.Rectangle{image.Rect(10, 10, 30, 30)}, nil
}

func newTestPipeline(text string) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Cache:   imaging.NewImageCache(),
		Scanner: &nid.Scanner{Finder: stubFinder{}, OCR: stubOCR(text)},
		Faces:   stubFaces{},
	}
}

// writeCard writes a PNG via a temporary name so the watcher sees one
// complete file appear.
func writeCard(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 60, 40))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.SetNRGBA(5, 5, color.NRGBA{0, 0, 0, 255})

	tmp := filepath.Join(dir, name+".part")
	f, err := os.Create(tmp)
	if err != nil {
		t.Fatalf("Failed to create card: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		t.Fatalf("Failed to encode card: %v", err)
	}
	f.Close()

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("Failed to rename card: %v", err)
	}
	return path
}

type outcome struct {
	path string
	res  *pipeline.Result
	err  error
}

// startWatcher runs w in the background and returns its outcomes.
func startWatcher(t *testing.T, w *Watcher) <-chan outcome {
	t.Helper()
	out := make(chan outcome, 16)
	w.Handle = func(path string, res *pipeline.Result, err error) {
		out <- outcome{path, res, err}
	}
	if w.Quiet == 0 {
		w.Quiet = 20 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	// Give fsnotify time to register the directory.
	time.Sleep(50 * time.Millisecond)
	return out
}

func waitOutcome(t *testing.T, out <-chan outcome) outcome {
	t.Helper()
	select {
	case o := <-out:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a recognition")
	}
	return outcome{}
}

func TestIsSupported(t *testing.T) {
	tests := map[string]bool{
		"card.png":      true,
		"card.JPG":      true,
		"card.jpeg":     true,
		"card.png.part": false,
		"notes.txt":     false,
		"noext":         false,
	}
	for name, want := range tests {
		if got := IsSupported(name); got != want {
			t.Errorf("IsSupported(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ListImages(dir)
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	want := []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.png")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWatcher_ProcessesNewImage(t *testing.T) {
	dir := t.TempDir()
	out := startWatcher(t, New(dir, newTestPipeline("1234567890"), nil))

	path := writeCard(t, dir, "card.png")
	o := waitOutcome(t, out)

	if o.err != nil {
		t.Fatalf("recognition failed: %v", o.err)
	}
	if o.path != path || o.res.ID != "1234567890" {
		t.Errorf("got %s -> %q", o.path, o.res.ID)
	}
}

func TestWatcher_ProcessesExistingImages(t *testing.T) {
	dir := t.TempDir()
	existing := writeCard(t, dir, "old.png")

	w := New(dir, newTestPipeline("1234567890"), nil)
	w.Existing = true
	out := startWatcher(t, w)

	if o := waitOutcome(t, out); o.path != existing {
		t.Errorf("got %s, want %s", o.path, existing)
	}
}

func TestWatcher_DoesNotReprocessSavedFaces(t *testing.T) {
	dir := t.TempDir()
	p := newTestPipeline("1234567890")
	p.SaveDir = dir
	out := startWatcher(t, New(dir, p, nil))

	writeCard(t, dir, "card.png")
	o := waitOutcome(t, out)
	if o.res == nil || o.res.SavedPath != filepath.Join(dir, "1234567890.jpg") {
		t.Fatalf("expected the face to be saved into the watched dir, got %+v", o.res)
	}

	select {
	case o := <-out:
		t.Errorf("saved face was fed back into the pipeline: %s", o.path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_ProcessesCardReusingSavedName(t *testing.T) {
	dir := t.TempDir()
	p := newTestPipeline("1234567890")
	p.SaveDir = dir
	out := startWatcher(t, New(dir, p, nil))

	writeCard(t, dir, "card.png")
	first := waitOutcome(t, out)
	if first.res == nil || first.res.SavedPath == "" {
		t.Fatalf("expected a saved face, got %+v", first.res)
	}

	// Let the events of the save drain before replacing the file.
	time.Sleep(100 * time.Millisecond)
	reused := writeCard(t, dir, filepath.Base(first.res.SavedPath))

	o := waitOutcome(t, out)
	if o.path != reused {
		t.Errorf("got %s, want %s", o.path, reused)
	}
}

func TestOwnOutput_Tracking(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, newTestPipeline(""), nil)

	face := filepath.Join(dir, "1234567890.jpg")
	if err := os.WriteFile(face, []byte("face"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.markOwnOutput(face)
	if !w.isOwnOutput(face) {
		t.Fatal("freshly saved face should be recognized as own output")
	}

	// A different file under the same name is no longer ours.
	if err := os.WriteFile(face, []byte("another card"), 0o644); err != nil {
		t.Fatal(err)
	}
	if w.isOwnOutput(face) {
		t.Error("rewritten file must not be treated as own output")
	}
	if len(w.written) != 0 {
		t.Errorf("stale entry kept: %v", w.written)
	}

	w.markOwnOutput(face)
	w.forget(face)
	if len(w.written) != 0 {
		t.Errorf("forget left %d entries", len(w.written))
	}

	w.markOwnOutput(filepath.Join(dir, "missing.jpg"))
	if len(w.written) != 0 {
		t.Error("a missing file should not be tracked")
	}
}

func TestWatcher_ReportsDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	out := startWatcher(t, New(dir, newTestPipeline("1234567890"), nil))

	bad := filepath.Join(dir, "bad.jpg")
	if err := os.WriteFile(bad, []byte("not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	o := waitOutcome(t, out)
	if o.err == nil || o.res != nil {
		t.Errorf("expected a decode error for %s, got %+v", o.path, o)
	}
}

func TestWatcher_MissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), newTestPipeline(""), nil)
	if err := w.Run(context.Background()); err == nil {
		t.Error("watching a missing directory should fail")
	}
}
