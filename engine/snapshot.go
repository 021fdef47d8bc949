package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vizactor/dom"
)

// Diagnostics dumps a screenshot and the page HTML when a step fails, so a
// broken selector can be diagnosed without replaying the run.
type Diagnostics struct {
	page dom.Page
	dir  string
	log  Logger
}

func NewDiagnostics(page dom.Page, dir string, logger Logger) *Diagnostics {
	if logger == nil {
		logger = &SimpleLogger{}
	}
	return &Diagnostics{page: page, dir: dir, log: logger}
}

// Capture is best effort; diagnostics must never make a bad situation worse.
func (d *Diagnostics) Capture(tag string) {
	if d == nil || d.page == nil {
		return
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		d.log.Errorf("diagnostics dir: %v", err)
		return
	}
	stamp := time.Now().Format("20060102_150405")
	base := fmt.Sprintf("%s_%s", sanitizeTag(tag), stamp)

	shot := filepath.Join(d.dir, base+".png")
	if buf, err := d.page.Screenshot(); err != nil {
		d.log.Errorf("screenshot: %v", err)
	} else if err := os.WriteFile(shot, buf, 0o644); err != nil {
		d.log.Errorf("write %s: %v", shot, err)
	} else {
		d.log.Printf("📸 Saved %s", shot)
	}

	html, err := d.page.Content()
	if err != nil {
		d.log.Errorf("page content: %v", err)
		return
	}
	dump := filepath.Join(d.dir, base+".html")
	if err := os.WriteFile(dump, []byte(html), 0o644); err != nil {
		d.log.Errorf("write %s: %v", dump, err)
		return
	}
	d.log.Printf("📄 Saved %s", dump)
}

func sanitizeTag(tag string) string {
	tag = strings.TrimSpace(strings.ToLower(tag))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, tag)
}
