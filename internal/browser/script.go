// internal/browser/script.go
package browser

import (
	"encoding/json"
	"fmt"

	"github.com/xkilldash9x/dpbot/internal/interact"
)

// Probe scripts run as one-shot IIFEs inside the page. Each resolves its
// locator fresh and reports through a small result object, so the Go side
// never holds a node reference that a Vue re-render could invalidate.

type foundResult struct {
	Found bool `json:"found"`
}

type stateResult struct {
	Found   bool `json:"found"`
	Visible bool `json:"visible"`
	Enabled bool `json:"enabled"`
}

type pointResult struct {
	Found bool    `json:"found"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Hit   bool    `json:"hit"`
}

type textResult struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// resolveExpr returns a JS expression evaluating to the first element the
// locator matches, or null.
func resolveExpr(loc interact.Locator) string {
	q := jsString(loc.Query)
	if loc.Strategy == interact.XPath {
		return fmt.Sprintf(
			"document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", q)
	}
	return fmt.Sprintf("document.querySelector(%s)", q)
}

func inspectScript(loc interact.Locator) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) { return { found: false, visible: false, enabled: false }; }
	const rect = el.getBoundingClientRect();
	const style = window.getComputedStyle(el);
	const visible = rect.width > 0 && rect.height > 0 &&
		style.display !== 'none' && style.visibility !== 'hidden';
	return { found: true, visible: visible, enabled: !el.disabled };
})()`, resolveExpr(loc))
}

// clickPointScript reports the element's viewport center and whether a real
// mouse event at that point would actually land on it.
func clickPointScript(loc interact.Locator) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) { return { found: false }; }
	const rect = el.getBoundingClientRect();
	const x = rect.left + rect.width / 2;
	const y = rect.top + rect.height / 2;
	const at = document.elementFromPoint(x, y);
	const hit = at !== null && (at === el || el.contains(at) || at.contains(el));
	return { found: true, x: x, y: y, hit: hit };
})()`, resolveExpr(loc))
}

func scriptClickScript(loc interact.Locator) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) { return { found: false }; }
	el.click();
	return { found: true };
})()`, resolveExpr(loc))
}

// clearScript empties the field and fires the events Vue's v-model listens
// for, since assigning .value alone leaves the bound model stale.
func clearScript(loc interact.Locator) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) { return { found: false }; }
	el.focus();
	el.value = '';
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return { found: true };
})()`, resolveExpr(loc))
}

func selectAllScript(loc interact.Locator) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) { return { found: false }; }
	el.focus();
	if (typeof el.select === 'function') { el.select(); }
	return { found: true };
})()`, resolveExpr(loc))
}

func focusScript(loc interact.Locator) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) { return { found: false }; }
	el.focus();
	return { found: true };
})()`, resolveExpr(loc))
}

func scrollScript(loc interact.Locator) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) { return { found: false }; }
	el.scrollIntoView({ block: 'center' });
	return { found: true };
})()`, resolveExpr(loc))
}

// textScript prefers innerText so hidden nodes do not leak into the value
// read from result cells.
func textScript(loc interact.Locator) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) { return { found: false, text: '' }; }
	const text = el.innerText !== undefined ? el.innerText : el.textContent;
	return { found: true, text: text || '' };
})()`, resolveExpr(loc))
}
