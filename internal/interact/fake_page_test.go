// internal/interact/fake_page_test.go
package interact

import (
	"context"
	"strings"
	"sync"
)

// fakePage is a scripted Page. Every method records a call line like
// "ClickNative css:#x" and then delegates to the matching hook; hooks left
// nil get permissive defaults (element present, operations succeed).
type fakePage struct {
	mu    sync.Mutex
	calls []string

	inspect     func(loc Locator) (ElementState, error)
	scroll      func(loc Locator) error
	clickNative func(loc Locator) error
	clickScript func(loc Locator) error
	clear       func(loc Locator) error
	selectAll   func(loc Locator) error
	sendKeys    func(loc Locator, keys string) error
	text        func(loc Locator) (string, error)
	eval        func(expr string, out any) error

	url    string
	closed bool
}

func newFakePage() *fakePage {
	return &fakePage{url: "https://intranet.example/board"}
}

func (f *fakePage) record(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, line)
}

// count returns how many recorded calls start with prefix.
func (f *fakePage) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakePage) callLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakePage) Navigate(_ context.Context, url string) error {
	f.record("Navigate " + url)
	f.mu.Lock()
	f.url = url
	f.mu.Unlock()
	return nil
}

func (f *fakePage) Reload(context.Context) error {
	f.record("Reload")
	return nil
}

func (f *fakePage) CurrentURL(context.Context) (string, error) {
	f.record("CurrentURL")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

func (f *fakePage) Inspect(_ context.Context, loc Locator) (ElementState, error) {
	f.record("Inspect " + loc.String())
	if f.inspect != nil {
		return f.inspect(loc)
	}
	return ElementState{Found: true, Visible: true, Enabled: true}, nil
}

func (f *fakePage) ScrollIntoView(_ context.Context, loc Locator) error {
	f.record("ScrollIntoView " + loc.String())
	if f.scroll != nil {
		return f.scroll(loc)
	}
	return nil
}

func (f *fakePage) ClickNative(_ context.Context, loc Locator) error {
	f.record("ClickNative " + loc.String())
	if f.clickNative != nil {
		return f.clickNative(loc)
	}
	return nil
}

func (f *fakePage) ClickScript(_ context.Context, loc Locator) error {
	f.record("ClickScript " + loc.String())
	if f.clickScript != nil {
		return f.clickScript(loc)
	}
	return nil
}

func (f *fakePage) Clear(_ context.Context, loc Locator) error {
	f.record("Clear " + loc.String())
	if f.clear != nil {
		return f.clear(loc)
	}
	return nil
}

func (f *fakePage) SelectAll(_ context.Context, loc Locator) error {
	f.record("SelectAll " + loc.String())
	if f.selectAll != nil {
		return f.selectAll(loc)
	}
	return nil
}

func (f *fakePage) SendKeys(_ context.Context, loc Locator, keys string) error {
	f.record("SendKeys " + loc.String() + " " + keys)
	if f.sendKeys != nil {
		return f.sendKeys(loc, keys)
	}
	return nil
}

func (f *fakePage) Text(_ context.Context, loc Locator) (string, error) {
	f.record("Text " + loc.String())
	if f.text != nil {
		return f.text(loc)
	}
	return "", nil
}

func (f *fakePage) Eval(_ context.Context, expr string, out any) error {
	f.record("Eval " + expr)
	if f.eval != nil {
		return f.eval(expr, out)
	}
	if s, ok := out.(*string); ok {
		*s = "complete"
	}
	return nil
}

func (f *fakePage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
