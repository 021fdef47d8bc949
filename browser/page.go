package browser

import (
	"time"

	pw "github.com/playwright-community/playwright-go"

	"vizactor/dom"
)

// pwPage adapts a Playwright page to the dom.Page capability surface.
type pwPage struct {
	page pw.Page
}

// NewPage wraps a raw Playwright page.
func NewPage(page pw.Page) dom.Page {
	return &pwPage{page: page}
}

func (p *pwPage) Query(selector string) (dom.Element, error) {
	el, err := p.page.QuerySelector(selector)
	if err != nil {
		return nil, dom.ClassifyDriverError("query", err)
	}
	if el == nil {
		return nil, nil
	}
	return &pwElement{el: el}, nil
}

func (p *pwPage) QueryAll(selector string) ([]dom.Element, error) {
	els, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, dom.ClassifyDriverError("queryAll", err)
	}
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &pwElement{el: el})
	}
	return out, nil
}

func (p *pwPage) Evaluate(script string, args ...interface{}) (interface{}, error) {
	v, err := p.page.Evaluate(script, args...)
	if err != nil {
		return nil, dom.ClassifyDriverError("evaluate", err)
	}
	return v, nil
}

func (p *pwPage) WaitForCondition(script string, arg interface{}, timeout time.Duration) error {
	_, err := p.page.WaitForFunction(script, arg, pw.PageWaitForFunctionOptions{
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return dom.ClassifyDriverError("waitForCondition", err)
	}
	return nil
}

func (p *pwPage) WaitFor(selector string, timeout time.Duration) (dom.Element, error) {
	el, err := p.page.WaitForSelector(selector, pw.PageWaitForSelectorOptions{
		State:   pw.WaitForSelectorStateVisible,
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		classified := dom.ClassifyDriverError("waitFor", err)
		if dom.IsTransport(classified) {
			return nil, classified
		}
		// Deadline passed without a match: absence, not a fault.
		return nil, nil
	}
	if el == nil {
		return nil, nil
	}
	return &pwElement{el: el}, nil
}

func (p *pwPage) WaitIdle(timeout time.Duration) error {
	err := p.page.WaitForLoadState(pw.PageWaitForLoadStateOptions{
		State:   pw.LoadStateNetworkidle,
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return dom.ClassifyDriverError("waitIdle", err)
	}
	return nil
}

func (p *pwPage) UploadViaChooser(trigger func() error, filePath string) error {
	chooser, err := p.page.ExpectFileChooser(trigger)
	if err != nil {
		return dom.ClassifyDriverError("fileChooser", err)
	}
	if err := chooser.SetFiles(filePath); err != nil {
		return dom.ClassifyDriverError("setFiles", err)
	}
	return nil
}

func (p *pwPage) AwaitDownload(trigger func() error, timeout time.Duration) (dom.Download, error) {
	dl, err := p.page.ExpectDownload(trigger, pw.PageExpectDownloadOptions{
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, dom.ClassifyDriverError("download", err)
	}
	return &pwDownload{dl: dl}, nil
}

func (p *pwPage) Content() (string, error) {
	html, err := p.page.Content()
	if err != nil {
		return "", dom.ClassifyDriverError("content", err)
	}
	return html, nil
}

func (p *pwPage) Screenshot() ([]byte, error) {
	buf, err := p.page.Screenshot()
	if err != nil {
		return nil, dom.ClassifyDriverError("screenshot", err)
	}
	return buf, nil
}

func (p *pwPage) MouseMove(x, y float64) error {
	return dom.ClassifyDriverError("mouseMove", p.page.Mouse().Move(x, y))
}

func (p *pwPage) MouseClick(x, y float64) error {
	return dom.ClassifyDriverError("mouseClick", p.page.Mouse().Click(x, y))
}

func (p *pwPage) PressKey(key string) error {
	return dom.ClassifyDriverError("pressKey", p.page.Keyboard().Press(key))
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

// pwElement adapts a Playwright element handle.
type pwElement struct {
	el pw.ElementHandle
}

func (e *pwElement) Text() (string, error) {
	txt, err := e.el.InnerText()
	if err != nil {
		return "", dom.ClassifyDriverError("innerText", err)
	}
	return txt, nil
}

func (e *pwElement) Click() error {
	return dom.ClassifyDriverError("click", e.el.Click(pw.ElementHandleClickOptions{
		Timeout: pw.Float(5000),
	}))
}

func (e *pwElement) ForceClick() error {
	return dom.ClassifyDriverError("forceClick", e.el.Click(pw.ElementHandleClickOptions{
		Force:   pw.Bool(true),
		Timeout: pw.Float(5000),
	}))
}

func (e *pwElement) DispatchClick() error {
	_, err := e.el.Evaluate("el => el.click()")
	return dom.ClassifyDriverError("dispatchClick", err)
}

func (e *pwElement) BoundingBox() (dom.Box, bool, error) {
	rect, err := e.el.BoundingBox()
	if err != nil {
		return dom.Box{}, false, dom.ClassifyDriverError("boundingBox", err)
	}
	if rect == nil {
		return dom.Box{}, false, nil
	}
	return dom.Box{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}, true, nil
}

func (e *pwElement) Query(selector string) (dom.Element, error) {
	el, err := e.el.QuerySelector(selector)
	if err != nil {
		return nil, dom.ClassifyDriverError("elementQuery", err)
	}
	if el == nil {
		return nil, nil
	}
	return &pwElement{el: el}, nil
}

func (e *pwElement) Hover() error {
	return dom.ClassifyDriverError("hover", e.el.Hover())
}

func (e *pwElement) Fill(value string) error {
	return dom.ClassifyDriverError("fill", e.el.Fill(value))
}

func (e *pwElement) Press(key string) error {
	return dom.ClassifyDriverError("press", e.el.Press(key))
}

func (e *pwElement) IsVisible() (bool, error) {
	visible, err := e.el.IsVisible()
	if err != nil {
		return false, dom.ClassifyDriverError("isVisible", err)
	}
	return visible, nil
}

type pwDownload struct {
	dl pw.Download
}

func (d *pwDownload) SuggestedFilename() string {
	return d.dl.SuggestedFilename()
}

func (d *pwDownload) SaveAs(path string) error {
	return d.dl.SaveAs(path)
}
