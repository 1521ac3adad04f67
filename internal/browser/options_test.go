// internal/browser/options_test.go
package browser

import (
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/dpbot/internal/config"
)

// Allocator options are opaque funcs, so presence is asserted by count.
func TestAllocatorOptions(t *testing.T) {
	base := config.BrowserConfig{
		Headless:  true,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	}

	t.Run("ExtendsChromedpDefaults", func(t *testing.T) {
		opts := allocatorOptions(base)
		assert.Greater(t, len(opts), len(chromedp.DefaultExecAllocatorOptions))
	})

	t.Run("ProxyAddsOneOption", func(t *testing.T) {
		withProxy := base
		withProxy.ProxyServer = "http://127.0.0.1:8080"
		assert.Len(t, allocatorOptions(withProxy), len(allocatorOptions(base))+1)
	})

	t.Run("ChromeArgsAddOneEach", func(t *testing.T) {
		withArgs := base
		withArgs.ChromeArgs = []string{"--lang=en-US", "disable-sync"}
		assert.Len(t, allocatorOptions(withArgs), len(allocatorOptions(base))+2)
	})

	t.Run("BlankArgsSkipped", func(t *testing.T) {
		withArgs := base
		withArgs.ChromeArgs = []string{"", "--", "--=value"}
		assert.Len(t, allocatorOptions(withArgs), len(allocatorOptions(base)))
	})
}
