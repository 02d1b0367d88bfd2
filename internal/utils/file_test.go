package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.webp"} {
		if !IsImageFile(name) {
			t.Errorf("%s should be an image", name)
		}
	}
	for _, name := range []string{"a.txt", "b", "c.jpg.bak", "d.gif"} {
		if IsImageFile(name) {
			t.Errorf("%s should not be an image", name)
		}
	}
}

func TestGenerateOutputFilename(t *testing.T) {
	tests := []struct {
		input, dir, prefix, suffix, format string
		want                               string
	}{
		{"/photos/cat.png", "out", "", "_square", "", filepath.Join("out", "cat_square.png")},
		{"dog.jpeg", "out", "crop_", "", "webp", filepath.Join("out", "crop_dog.webp")},
		{"noext", "out", "", "_x", "", filepath.Join("out", "noext_x.jpg")},
	}

	for _, tt := range tests {
		if got := GenerateOutputFilename(tt.input, tt.dir, tt.prefix, tt.suffix, tt.format); got != tt.want {
			t.Errorf("GenerateOutputFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	if got := BaseName("/a/b/photo.final.jpg"); got != "photo.final" {
		t.Errorf("BaseName = %q", got)
	}
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := EnsureDir(sub); err != nil {
		t.Fatal(err)
	}
	hidden := filepath.Join(dir, ".thumbs")
	if err := EnsureDir(hidden); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{filepath.Join(dir, "b.png"), filepath.Join(sub, "a.jpg"), filepath.Join(dir, "notes.txt"), filepath.Join(hidden, "c.png")} {
		if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ListImageFiles(dir)
	if err != nil {
		t.Fatalf("ListImageFiles failed: %v", err)
	}
	want := []string{filepath.Join(dir, "b.png"), filepath.Join(sub, "a.jpg")}
	if len(files) != 2 || files[0] != want[0] || files[1] != want[1] {
		t.Errorf("ListImageFiles = %v, want %v", files, want)
	}

	if !DirExists(sub) || DirExists(want[0]) {
		t.Error("DirExists mismatch")
	}
	if !FileExists(want[0]) || FileExists(sub) {
		t.Error("FileExists mismatch")
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(" a:b*c? ."); got != "a_b_c_" {
		t.Errorf("SanitizeFilename = %q", got)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		512:         "512 B",
		2048:        "2.0 KB",
		5 * 1 << 20: "5.0 MB",
	}
	for size, want := range tests {
		if got := FormatFileSize(size); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", size, got, want)
		}
	}
}

func TestFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	if err := os.WriteFile(path, make([]byte, 3072), 0644); err != nil {
		t.Fatal(err)
	}
	if got := FileSize(path); got != "3.0 KB" {
		t.Errorf("FileSize = %q", got)
	}
	if got := FileSize(path + ".missing"); got != "?" {
		t.Errorf("FileSize of a missing file = %q", got)
	}
}
