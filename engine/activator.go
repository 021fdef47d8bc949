package engine

import (
	"time"

	"vizactor/dom"
)

// Technique is one way of delivering a click, ordered from most faithful to
// most forceful.
type Technique int

const (
	// TechNative is the driver's regular click with actionability checks.
	TechNative Technique = iota
	// TechForced bypasses actionability checks.
	TechForced
	// TechScripted dispatches the click from inside the page.
	TechScripted
	// TechCoordinate clicks the element's bounding-box centre with the
	// virtual mouse.
	TechCoordinate

	techniqueCount = 4
)

func (t Technique) String() string {
	switch t {
	case TechNative:
		return "native"
	case TechForced:
		return "forced"
	case TechScripted:
		return "scripted"
	case TechCoordinate:
		return "coordinate"
	}
	return "unknown"
}

// Activator clicks elements through escalating techniques. SPAs routinely
// swallow native clicks behind transparent overlays, so one delivery path is
// never enough.
type Activator struct {
	page dom.Page
	log  Logger

	// Settle is the pause between failed techniques.
	Settle time.Duration
}

func NewActivator(page dom.Page, logger Logger) *Activator {
	if logger == nil {
		logger = &SimpleLogger{}
	}
	return &Activator{page: page, log: logger, Settle: 300 * time.Millisecond}
}

// Activate tries up to maxAttempts techniques in order and reports whether
// any landed. Faults inside a technique never escape; they just move the
// escalation forward.
func (a *Activator) Activate(el dom.Element, maxAttempts int) bool {
	if el == nil {
		return false
	}
	if maxAttempts <= 0 || maxAttempts > techniqueCount {
		maxAttempts = techniqueCount
	}
	for i := 0; i < maxAttempts; i++ {
		tech := Technique(i)
		if a.try(el, tech) {
			if i > 0 {
				a.log.Printf("✅ Click landed via %s technique (attempt %d)", tech, i+1)
			}
			return true
		}
		a.log.Printf("⚠️  %s click failed, escalating", tech)
		if a.Settle > 0 {
			time.Sleep(a.Settle)
		}
	}
	return false
}

func (a *Activator) try(el dom.Element, tech Technique) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Errorf("click technique %s panicked: %v", tech, r)
			ok = false
		}
	}()
	switch tech {
	case TechNative:
		return el.Click() == nil
	case TechForced:
		return el.ForceClick() == nil
	case TechScripted:
		return el.DispatchClick() == nil
	case TechCoordinate:
		box, visible, err := el.BoundingBox()
		if err != nil || !visible {
			return false
		}
		x, y := box.Center()
		return a.page.MouseClick(x, y) == nil
	}
	return false
}
