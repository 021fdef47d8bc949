package engine

import (
	"fmt"
	"strings"

	"vizactor/dom"
)

// markerAttr is set by page-side fallback scripts on the node they elect, so
// the located element can be handed back across the evaluate boundary.
const markerAttr = "data-vz-hit"

// textTags restricts exact-text matching to tags that plausibly label a
// control. Matching against arbitrary nodes produces container false
// positives.
const textTags = "h1, h2, h3, h4, h5, h6, p, span, div, button, a"

// defaultTextCeiling rejects containment matches against long composite text
// blocks, which are usually wrapping containers rather than the control.
const defaultTextCeiling = 30

// Description declares what to look for, not how. The resolver walks its
// strategy order and returns the first hit.
type Description struct {
	// Label is the control's logical text.
	Label string
	// MaxTextLen caps containment matches; zero means defaultTextCeiling.
	MaxTextLen int
	// Hints are selector fallbacks tried in order after text matching.
	Hints []string
	// Structural enables the card/image-adjacency heuristics of last
	// resort.
	Structural bool
	// Script is a raw page-side fallback. It must tag its hit with the
	// marker attribute and return true.
	Script string
}

// Resolver finds elements through an ordered list of independent strategies.
// Strategies are stateless and evaluated fresh on every call; nothing is
// cached because the target DOM mutates under us.
type Resolver struct {
	page dom.Page
	log  Logger
}

func NewResolver(page dom.Page, logger Logger) *Resolver {
	if logger == nil {
		logger = &SimpleLogger{}
	}
	return &Resolver{page: page, log: logger}
}

type strategy struct {
	name string
	find func(r *Resolver, d Description) (dom.Element, error)
}

var strategies = []strategy{
	{"exact-text", (*Resolver).findExactText},
	{"contains-text", (*Resolver).findContainsText},
	{"selector-hint", (*Resolver).findByHints},
	{"structural", (*Resolver).findStructural},
	{"script", (*Resolver).findByScript},
}

// Resolve returns the first strategy's match. Absence is ErrElementNotFound;
// only session-level faults surface as anything else.
func (r *Resolver) Resolve(d Description) (dom.Element, error) {
	for _, s := range strategies {
		el, err := s.find(r, d)
		if err != nil {
			if dom.IsTransport(err) {
				return nil, err
			}
			r.log.Printf("⚠️  Strategy %s errored for %q: %v", s.name, d.Label, err)
			continue
		}
		if el != nil {
			r.log.Printf("🔍 Resolved %q via %s strategy", d.Label, s.name)
			return el, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", d.Label, ErrElementNotFound)
}

func (r *Resolver) findExactText(d Description) (dom.Element, error) {
	if d.Label == "" {
		return nil, nil
	}
	els, err := r.page.QueryAll(textTags)
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			if dom.IsTransport(err) {
				return nil, err
			}
			continue
		}
		if strings.TrimSpace(text) == d.Label {
			return el, nil
		}
	}
	return nil, nil
}

func (r *Resolver) findContainsText(d Description) (dom.Element, error) {
	if d.Label == "" {
		return nil, nil
	}
	ceiling := d.MaxTextLen
	if ceiling <= 0 {
		ceiling = defaultTextCeiling
	}
	needle := strings.ToLower(d.Label)
	els, err := r.page.QueryAll(textTags)
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			if dom.IsTransport(err) {
				return nil, err
			}
			continue
		}
		text = strings.TrimSpace(text)
		if len(text) == 0 || len(text) >= ceiling {
			continue
		}
		if strings.Contains(strings.ToLower(text), needle) {
			return el, nil
		}
	}
	return nil, nil
}

func (r *Resolver) findByHints(d Description) (dom.Element, error) {
	for _, sel := range d.Hints {
		el, err := r.page.Query(sel)
		if err != nil {
			if dom.IsTransport(err) {
				return nil, err
			}
			continue
		}
		if el != nil {
			return el, nil
		}
	}
	return nil, nil
}

// imageAdjacentScript tags the first button-like sibling next to an image.
// Mirrors the target app's habit of pairing preview images with their action.
const imageAdjacentScript = `
() => {
	const images = document.querySelectorAll('img');
	for (const img of images) {
		const parent = img.parentElement;
		if (!parent) continue;
		const controls = parent.querySelectorAll('button, a, div[role="button"]');
		if (controls.length > 0) {
			controls[0].setAttribute('` + markerAttr + `', '1');
			return true;
		}
	}
	return false;
}`

func (r *Resolver) findStructural(d Description) (dom.Element, error) {
	if !d.Structural {
		return nil, nil
	}
	// First of the visually card-like containers.
	cards, err := r.page.QueryAll(`.card, [class*="card"], [class*="Card"]`)
	if err != nil {
		if dom.IsTransport(err) {
			return nil, err
		}
	} else if len(cards) > 0 {
		return cards[0], nil
	}
	// Control adjacent to an image.
	return r.runMarkerScript(imageAdjacentScript)
}

func (r *Resolver) findByScript(d Description) (dom.Element, error) {
	if d.Script == "" {
		return nil, nil
	}
	return r.runMarkerScript(d.Script)
}

// runMarkerScript executes a page-side locator script and retrieves whatever
// node it tagged.
func (r *Resolver) runMarkerScript(script string) (dom.Element, error) {
	hit, err := r.page.Evaluate(script)
	if err != nil {
		return nil, err
	}
	if ok, _ := hit.(bool); !ok {
		return nil, nil
	}
	el, err := r.page.Query("[" + markerAttr + "]")
	if err != nil {
		return nil, err
	}
	// Clear the marker so a later resolution cannot pick up a stale tag.
	defer func() {
		_, _ = r.page.Evaluate(`() => {
			document.querySelectorAll('[` + markerAttr + `]').forEach(el => el.removeAttribute('` + markerAttr + `'));
		}`)
	}()
	return el, nil
}
