// Package imageprep resolves the image the workflow uploads. Sources are
// tried in priority order: an explicitly configured file, a leg.png dropped
// next to the binary, a remote URL, and finally an embedded 1x1 placeholder
// that keeps smoke runs self-contained.
package imageprep

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"vizactor/engine"
)

// samplePNG is a 1x1 white PNG.
const samplePNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR4nGMAAQAABAABJzQnCgAAAABJRU5ErkJggg=="

const localPriorityName = "leg.png"

// Prepared describes the image the run will upload.
type Prepared struct {
	// Path on disk, ready for the file chooser.
	Path string
	// OriginalFilename is the name the app will show in the layer panel.
	OriginalFilename string
	// Source records where the image came from: "configured", "local",
	// "remote" or "embedded".
	Source string
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Prepare resolves the upload image into dir and returns its description.
func Prepare(ctx context.Context, dir, configuredPath, imageURL string, log engine.Logger) (Prepared, error) {
	if log == nil {
		log = &engine.SimpleLogger{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Prepared{}, err
	}

	if configuredPath != "" {
		if _, err := os.Stat(configuredPath); err == nil {
			log.Printf("🖼️  Using configured image %s", configuredPath)
			return Prepared{Path: configuredPath, OriginalFilename: filepath.Base(configuredPath), Source: "configured"}, nil
		}
		log.Printf("⚠️  Configured image %s not found, falling through", configuredPath)
	}

	if _, err := os.Stat(localPriorityName); err == nil {
		log.Printf("🖼️  Using local %s", localPriorityName)
		return Prepared{Path: localPriorityName, OriginalFilename: localPriorityName, Source: "local"}, nil
	}

	if imageURL != "" {
		prep, err := download(ctx, dir, imageURL)
		if err == nil {
			log.Printf("🖼️  Downloaded %s from %s", prep.OriginalFilename, imageURL)
			return prep, nil
		}
		log.Printf("⚠️  Image download failed (%v), using the embedded sample", err)
	}

	return embedSample(dir, log)
}

func download(ctx context.Context, dir, imageURL string) (Prepared, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Prepared{}, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return Prepared{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Prepared{}, fmt.Errorf("fetch %s: status %d", imageURL, resp.StatusCode)
	}

	name := remoteFilename(imageURL, resp.Header.Get("Content-Type"))
	dest := filepath.Join(dir, name)
	f, err := os.Create(dest)
	if err != nil {
		return Prepared{}, err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(dest)
		return Prepared{}, err
	}
	return Prepared{Path: dest, OriginalFilename: name, Source: "remote"}, nil
}

// remoteFilename derives a usable filename from the URL path, filling in the
// extension from the Content-Type when the path has none.
func remoteFilename(imageURL, contentType string) string {
	name := "input"
	if u, err := url.Parse(imageURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			name = base
		}
	}
	if filepath.Ext(name) != "" {
		return name
	}
	switch {
	case strings.Contains(contentType, "png"):
		return name + ".png"
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return name + ".jpg"
	case strings.Contains(contentType, "webp"):
		return name + ".webp"
	default:
		return name + ".png"
	}
}

func embedSample(dir string, log engine.Logger) (Prepared, error) {
	data, err := base64.StdEncoding.DecodeString(samplePNG)
	if err != nil {
		return Prepared{}, fmt.Errorf("decode embedded sample: %w", err)
	}
	dest := filepath.Join(dir, "sample.png")
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return Prepared{}, err
	}
	log.Printf("🖼️  Wrote embedded sample image to %s", dest)
	return Prepared{Path: dest, OriginalFilename: "sample.png", Source: "embedded"}, nil
}
