package imageprep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestPrepareUsesConfiguredPathFirst(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "chair.png")
	if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	prep, err := Prepare(context.Background(), dir, img, "http://unused.example", nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if prep.Source != "configured" || prep.Path != img {
		t.Fatalf("got %+v, want the configured file", prep)
	}
	if prep.OriginalFilename != "chair.png" {
		t.Fatalf("original filename %q", prep.OriginalFilename)
	}
}

func TestPrepareDownloadsRemoteImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	prep, err := Prepare(context.Background(), dir, "", srv.URL+"/renders/lamp", nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if prep.Source != "remote" {
		t.Fatalf("source %q, want remote", prep.Source)
	}
	if prep.OriginalFilename != "lamp.jpg" {
		t.Fatalf("filename %q, want extension derived from Content-Type", prep.OriginalFilename)
	}
	if _, err := os.Stat(prep.Path); err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
}

func TestPrepareFallsBackToEmbeddedSample(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	prep, err := Prepare(context.Background(), dir, "", srv.URL+"/missing.png", nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if prep.Source != "embedded" || prep.OriginalFilename != "sample.png" {
		t.Fatalf("got %+v, want the embedded sample", prep)
	}
	data, err := os.ReadFile(prep.Path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	// PNG magic.
	if len(data) < 8 || data[1] != 'P' || data[2] != 'N' || data[3] != 'G' {
		t.Fatal("embedded sample is not a PNG")
	}
}

func TestRemoteFilename(t *testing.T) {
	cases := []struct {
		url, contentType, want string
	}{
		{"http://x/th/leg.png", "image/png", "leg.png"},
		{"http://x/render", "image/png", "render.png"},
		{"http://x/render", "image/webp", "render.webp"},
		{"http://x/", "image/jpeg", "input.jpg"},
	}
	for _, c := range cases {
		if got := remoteFilename(c.url, c.contentType); got != c.want {
			t.Errorf("remoteFilename(%q, %q) = %q, want %q", c.url, c.contentType, got, c.want)
		}
	}
}
