// internal/browser/context.go
package browser

import "context"

// combineContext derives a context from tabCtx that is additionally cancelled
// when opCtx ends. tabCtx must be the primary parent: chromedp stores the CDP
// target handle in context values, so deriving from opCtx instead would hand
// chromedp a context with no browser attached. The caller must invoke the
// returned cancel func, which also reaps the linking goroutine.
func combineContext(tabCtx, opCtx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(tabCtx)

	go func() {
		select {
		case <-opCtx.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
