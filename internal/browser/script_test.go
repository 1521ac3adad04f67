// internal/browser/script_test.go
package browser

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/dpbot/internal/interact"
)

// domStub models just enough of a DOM for the probe scripts to run inside a
// plain goja VM: a document that resolves "#field" (or any XPath mentioning
// "field") to one instrumented element.
const domStub = `
var dispatched = [];
var scrolled = [];
var resolved = [];
var overlay = null;

var field = {
	value: 'previous',
	disabled: false,
	focused: false,
	display: 'block',
	visibility: 'visible',
	width: 100,
	height: 50,
	innerText: '  Kode 123  ',
	textContent: 'raw text',
	getBoundingClientRect: function() {
		return { left: 10, top: 20, width: this.width, height: this.height };
	},
	focus: function() { this.focused = true; },
	select: function() { this.selected = true; },
	click: function() { this.clicked = true; },
	scrollIntoView: function(opts) { scrolled.push(opts.block); },
	contains: function(other) { return other === this; },
	dispatchEvent: function(ev) { dispatched.push(ev.type); }
};

function Event(type, opts) {
	this.type = type;
	this.bubbles = opts && opts.bubbles;
}

var XPathResult = { FIRST_ORDERED_NODE_TYPE: 9 };

var document = {
	querySelector: function(q) {
		resolved.push('css:' + q);
		return q === '#field' ? field : null;
	},
	evaluate: function(expr, root, ns, type, result) {
		resolved.push('xpath:' + expr);
		return { singleNodeValue: expr.indexOf('field') >= 0 ? field : null };
	},
	elementFromPoint: function(x, y) {
		return overlay !== null ? overlay : field;
	}
};

var window = {
	getComputedStyle: function(el) {
		return { display: el.display, visibility: el.visibility };
	}
};
`

// runProbe executes script against the DOM stub, after an optional setup
// snippet that mutates the stub's state.
func runProbe(t *testing.T, setup, script string) (*goja.Runtime, *goja.Object) {
	t.Helper()
	vm := goja.New()
	_, err := vm.RunString(domStub)
	require.NoError(t, err)
	if setup != "" {
		_, err = vm.RunString(setup)
		require.NoError(t, err)
	}
	val, err := vm.RunString(script)
	require.NoError(t, err)
	return vm, val.ToObject(vm)
}

// vmString evaluates expr in the stub VM and returns it as a string, for
// asserting on side effects the probes leave behind.
func vmString(t *testing.T, vm *goja.Runtime, expr string) string {
	t.Helper()
	v, err := vm.RunString(expr)
	require.NoError(t, err)
	return v.String()
}

func fieldLoc() interact.Locator {
	return interact.ParseLocator("#field")
}

func TestProbeScriptsAreValidJS(t *testing.T) {
	loc := fieldLoc()
	xloc := interact.ParseLocator("//input[@id='field']")
	scripts := map[string]string{
		"inspect":    inspectScript(loc),
		"clickPoint": clickPointScript(xloc),
		"click":      scriptClickScript(loc),
		"clear":      clearScript(loc),
		"selectAll":  selectAllScript(loc),
		"focus":      focusScript(loc),
		"scroll":     scrollScript(xloc),
		"text":       textScript(loc),
		"stealth":    stealthScript,
	}
	for name, src := range scripts {
		t.Run(name, func(t *testing.T) {
			_, err := goja.Compile(name, src, true)
			assert.NoError(t, err)
		})
	}
}

func TestJSString(t *testing.T) {
	assert.Equal(t, `"plain"`, jsString("plain"))
	assert.Equal(t, `"say \"hi\""`, jsString(`say "hi"`))
	assert.Equal(t, `"back\\slash"`, jsString(`back\slash`))
}

func TestResolveExpr(t *testing.T) {
	css := resolveExpr(interact.ParseLocator("ul.menu > li"))
	assert.Equal(t, `document.querySelector("ul.menu > li")`, css)

	xpath := resolveExpr(interact.ParseLocator("//li[normalize-space()='Jakarta']"))
	assert.Contains(t, xpath, "document.evaluate(")
	assert.Contains(t, xpath, `"//li[normalize-space()='Jakarta']"`)
	assert.Contains(t, xpath, "XPathResult.FIRST_ORDERED_NODE_TYPE")
}

func TestInspectScript(t *testing.T) {
	t.Run("InteractableElement", func(t *testing.T) {
		_, res := runProbe(t, "", inspectScript(fieldLoc()))
		assert.True(t, res.Get("found").ToBoolean())
		assert.True(t, res.Get("visible").ToBoolean())
		assert.True(t, res.Get("enabled").ToBoolean())
	})

	t.Run("MissingElement", func(t *testing.T) {
		_, res := runProbe(t, "", inspectScript(interact.ParseLocator("#nope")))
		assert.False(t, res.Get("found").ToBoolean())
		assert.False(t, res.Get("visible").ToBoolean())
	})

	t.Run("HiddenByStyle", func(t *testing.T) {
		_, res := runProbe(t, "field.display = 'none';", inspectScript(fieldLoc()))
		assert.True(t, res.Get("found").ToBoolean())
		assert.False(t, res.Get("visible").ToBoolean())
	})

	t.Run("ZeroSizeIsNotVisible", func(t *testing.T) {
		_, res := runProbe(t, "field.width = 0;", inspectScript(fieldLoc()))
		assert.False(t, res.Get("visible").ToBoolean())
	})

	t.Run("DisabledElement", func(t *testing.T) {
		_, res := runProbe(t, "field.disabled = true;", inspectScript(fieldLoc()))
		assert.True(t, res.Get("found").ToBoolean())
		assert.False(t, res.Get("enabled").ToBoolean())
	})
}

func TestClickPointScript(t *testing.T) {
	t.Run("ReportsViewportCenter", func(t *testing.T) {
		_, res := runProbe(t, "", clickPointScript(fieldLoc()))
		assert.True(t, res.Get("found").ToBoolean())
		assert.Equal(t, 60.0, res.Get("x").ToFloat())
		assert.Equal(t, 45.0, res.Get("y").ToFloat())
		assert.True(t, res.Get("hit").ToBoolean())
	})

	t.Run("CoveredByForeignElement", func(t *testing.T) {
		setup := `overlay = { contains: function() { return false; } };`
		_, res := runProbe(t, setup, clickPointScript(fieldLoc()))
		assert.True(t, res.Get("found").ToBoolean())
		assert.False(t, res.Get("hit").ToBoolean())
	})

	t.Run("OwnChildCountsAsHit", func(t *testing.T) {
		setup := `
			overlay = { contains: function() { return false; } };
			field.contains = function(other) { return other === overlay; };
		`
		_, res := runProbe(t, setup, clickPointScript(fieldLoc()))
		assert.True(t, res.Get("hit").ToBoolean())
	})

	t.Run("MissingElement", func(t *testing.T) {
		_, res := runProbe(t, "", clickPointScript(interact.ParseLocator("#nope")))
		assert.False(t, res.Get("found").ToBoolean())
	})
}

func TestClearScript(t *testing.T) {
	vm, res := runProbe(t, "", clearScript(fieldLoc()))
	assert.True(t, res.Get("found").ToBoolean())

	state := vmString(t, vm, "field.value + '|' + dispatched.join(',') + '|' + field.focused")
	assert.Equal(t, "|input,change|true", state)
}

func TestSelectAllScript(t *testing.T) {
	vm, res := runProbe(t, "", selectAllScript(fieldLoc()))
	assert.True(t, res.Get("found").ToBoolean())
	assert.Equal(t, "true|true", vmString(t, vm, "field.focused + '|' + field.selected"))
}

func TestScriptClickScript(t *testing.T) {
	vm, res := runProbe(t, "", scriptClickScript(fieldLoc()))
	assert.True(t, res.Get("found").ToBoolean())
	assert.Equal(t, "true", vmString(t, vm, "'' + field.clicked"))
}

func TestScrollScript(t *testing.T) {
	vm, res := runProbe(t, "", scrollScript(fieldLoc()))
	assert.True(t, res.Get("found").ToBoolean())
	assert.Equal(t, "center", vmString(t, vm, "scrolled.join(',')"))
}

func TestTextScript(t *testing.T) {
	t.Run("PrefersInnerText", func(t *testing.T) {
		_, res := runProbe(t, "", textScript(fieldLoc()))
		assert.True(t, res.Get("found").ToBoolean())
		assert.Equal(t, "  Kode 123  ", res.Get("text").String())
	})

	t.Run("FallsBackToTextContent", func(t *testing.T) {
		_, res := runProbe(t, "field.innerText = undefined;", textScript(fieldLoc()))
		assert.Equal(t, "raw text", res.Get("text").String())
	})
}

func TestXPathLocatorsUseDocumentEvaluate(t *testing.T) {
	xloc := interact.ParseLocator("//input[@id='field']")
	vm, res := runProbe(t, "", focusScript(xloc))
	assert.True(t, res.Get("found").ToBoolean())
	assert.Equal(t, "xpath://input[@id='field']", vmString(t, vm, "resolved[0]"))
}
