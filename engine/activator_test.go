package engine

import (
	"errors"
	"testing"
)

func newTestActivator(page *fakePage) *Activator {
	a := NewActivator(page, quietLogger{})
	a.Settle = 0
	return a
}

func TestActivateEscalatesUntilScriptedLands(t *testing.T) {
	page := newFakePage()
	el := newFakeElement("button")
	el.clickErr = errors.New("intercepted by overlay")
	el.forceErr = errors.New("still intercepted")

	a := newTestActivator(page)
	if !a.Activate(el, 0) {
		t.Fatal("activation should succeed via the scripted technique")
	}
	if el.nativeCalls != 1 || el.forceCalls != 1 || el.dispatchCalls != 1 {
		t.Fatalf("expected exactly one attempt per technique, got %d/%d/%d",
			el.nativeCalls, el.forceCalls, el.dispatchCalls)
	}
	if len(page.mouseClicks) != 0 {
		t.Fatal("coordinate click should not run once an earlier technique lands")
	}
}

func TestActivateCoordinateFallbackClicksBoxCentre(t *testing.T) {
	page := newFakePage()
	el := newFakeElement("button")
	fail := errors.New("no")
	el.clickErr, el.forceErr, el.dispatchErr = fail, fail, fail

	a := newTestActivator(page)
	if !a.Activate(el, 0) {
		t.Fatal("coordinate fallback should land")
	}
	if len(page.mouseClicks) != 1 {
		t.Fatalf("expected one coordinate click, got %d", len(page.mouseClicks))
	}
	wantX, wantY := el.box.Center()
	if got := page.mouseClicks[0]; got[0] != wantX || got[1] != wantY {
		t.Fatalf("clicked (%v,%v), want box centre (%v,%v)", got[0], got[1], wantX, wantY)
	}
}

func TestActivateAllTechniquesFail(t *testing.T) {
	page := newFakePage()
	el := newFakeElement("button")
	fail := errors.New("no")
	el.clickErr, el.forceErr, el.dispatchErr = fail, fail, fail
	el.hasBox = false

	a := newTestActivator(page)
	if a.Activate(el, 0) {
		t.Fatal("activation should report failure")
	}
}

func TestActivateNilElement(t *testing.T) {
	a := newTestActivator(newFakePage())
	if a.Activate(nil, 0) {
		t.Fatal("nil element cannot be activated")
	}
}

func TestActivateAttemptCap(t *testing.T) {
	page := newFakePage()
	el := newFakeElement("button")
	el.clickErr = errors.New("no")
	el.forceErr = errors.New("no")
	el.dispatchErr = nil

	a := newTestActivator(page)
	if a.Activate(el, 2) {
		t.Fatal("two attempts only cover native and forced, both failing")
	}
	if el.dispatchCalls != 0 {
		t.Fatal("capped activation must not reach the scripted technique")
	}
}
