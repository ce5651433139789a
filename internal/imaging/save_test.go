package imaging

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveJPEG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "face.jpg")
	img := createInMemoryImage(32, 24, color.RGBA{200, 120, 80, 255})

	if err := SaveJPEG(img, path, 0); err != nil {
		t.Fatalf("SaveJPEG failed: %v", err)
	}

	cache := NewImageCache()
	info, err := LoadImageInfo(cache, path)
	if err != nil {
		t.Fatalf("saved file does not load: %v", err)
	}
	if info.Width != 32 || info.Height != 24 || info.Format != "jpeg" {
		t.Errorf("unexpected saved image info: %+v", info)
	}
}

func TestSaveJPEG_Unwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	// Parent "directory" is a regular file.
	err := SaveJPEG(createInMemoryImage(4, 4, color.White), filepath.Join(blocker, "a.jpg"), 90)
	if err == nil {
		t.Error("SaveJPEG should fail when the directory cannot be created")
	}
}
