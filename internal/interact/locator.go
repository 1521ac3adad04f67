// internal/interact/locator.go
package interact

import "strings"

// Strategy selects how a locator query is resolved inside the page.
type Strategy int

const (
	// CSS resolves the query with querySelector.
	CSS Strategy = iota
	// XPath resolves the query with document.evaluate.
	XPath
)

func (s Strategy) String() string {
	if s == XPath {
		return "xpath"
	}
	return "css"
}

// Locator is a single way of finding an element.
type Locator struct {
	Query    string
	Strategy Strategy
}

func (l Locator) String() string {
	return l.Strategy.String() + ":" + l.Query
}

// ParseLocator infers the resolution strategy from the query's syntax.
// Absolute paths ("/", "//"), relative paths (".//") and grouped expressions
// ("(") can only be XPath; everything else is treated as a CSS selector.
func ParseLocator(query string) Locator {
	if strings.HasPrefix(query, "/") ||
		strings.HasPrefix(query, ".//") ||
		strings.HasPrefix(query, "(") {
		return Locator{Query: query, Strategy: XPath}
	}
	return Locator{Query: query, Strategy: CSS}
}

// ParseLocators converts an ordered candidate list. Order is preserved;
// earlier entries are tried first.
func ParseLocators(queries []string) []Locator {
	out := make([]Locator, 0, len(queries))
	for _, q := range queries {
		out = append(out, ParseLocator(q))
	}
	return out
}

// xpathLiteral quotes s for embedding in an XPath expression. Values with
// both quote kinds need the concat() form since XPath 1.0 has no escaping.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	var b strings.Builder
	b.WriteString("concat(")
	for i, part := range strings.Split(s, "'") {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'")
		b.WriteString(part)
		b.WriteString("'")
	}
	b.WriteString(")")
	return b.String()
}
