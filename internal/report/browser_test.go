//go:build e2e

package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Validates in a real browser what the render package proves in-process:
// one visible panel, lazy chart rendering, persisted theme.
func TestReportBrowser(t *testing.T) {
	dir := t.TempDir()
	doc := sampleDoc()
	path, err := NewWriter(zap.NewNop()).Write(doc, dir)
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	url := fmt.Sprintf("file://%s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	const visibleCount = `Array.from(document.querySelectorAll('.content-section'))
		.filter(el => getComputedStyle(el).display !== 'none').length`

	t.Run("exactly one visible panel at load", func(t *testing.T) {
		var count int
		err := chromedp.Run(browserCtx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body"),
			chromedp.Evaluate(visibleCount, &count),
		)
		if err != nil {
			t.Fatalf("chromedp: %v", err)
		}
		if count != 1 {
			t.Errorf("visible panels = %d, want 1", count)
		}
	})

	t.Run("initial section renders its charts once", func(t *testing.T) {
		var svgs int
		err := chromedp.Run(browserCtx,
			chromedp.Evaluate(`document.querySelectorAll('#plot-overview-kinds svg').length`, &svgs),
		)
		if err != nil {
			t.Fatalf("chromedp: %v", err)
		}
		if svgs != 1 {
			t.Errorf("chart svg count = %d, want 1", svgs)
		}
	})

	t.Run("navigation keeps one panel visible", func(t *testing.T) {
		var count int
		var active string
		err := chromedp.Run(browserCtx,
			chromedp.Click(`.nav-link[data-section-id="quality"]`, chromedp.ByQuery),
			chromedp.Evaluate(visibleCount, &count),
			chromedp.Evaluate(`document.querySelector('.content-section.active').id`, &active),
		)
		if err != nil {
			t.Fatalf("chromedp: %v", err)
		}
		if count != 1 {
			t.Errorf("visible panels = %d, want 1", count)
		}
		if active != "section-quality" {
			t.Errorf("active panel = %q, want section-quality", active)
		}
	})

	t.Run("theme toggle persists to localStorage", func(t *testing.T) {
		var theme, stored string
		err := chromedp.Run(browserCtx,
			chromedp.Click("#theme-toggle", chromedp.ByID),
			chromedp.Evaluate(`document.body.dataset.theme`, &theme),
			chromedp.Evaluate(`localStorage.getItem('datasight-theme')`, &stored),
		)
		if err != nil {
			t.Fatalf("chromedp: %v", err)
		}
		if theme != "light" {
			t.Errorf("theme = %q, want light after toggling from dark", theme)
		}
		if stored != "light" {
			t.Errorf("stored preference = %q, want light", stored)
		}
	})
}
