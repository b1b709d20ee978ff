package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/chromedp/chromedp"

	appLog "meetcal/internal/log"
)

// Default viewport for a desktop-sized dashboard screenshot.
const (
	DefaultWidth      = 1280
	DefaultHeight     = 960
	DefaultTimeoutSec = 30
)

// readySelector matches the dashboard root once the page has rendered.
const readySelector = `[data-ready="true"]`

var ErrMissingURL = errors.New("capture: URL is required")

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/?granularity=month".
	URL string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	Timeout time.Duration
}

func (o Options) normalize() (Options, error) {
	if o.URL == "" {
		return o, ErrMissingURL
	}
	if _, err := url.ParseRequestURI(o.URL); err != nil {
		return o, fmt.Errorf("capture: invalid URL %q: %w", o.URL, err)
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return o, nil
}

// DashboardURL builds the address of the dashboard page served on listen
// with the given view query (granularity, date and so on).
func DashboardURL(listen string, query url.Values) string {
	u := url.URL{Scheme: "http", Host: listen, Path: "/"}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// DashboardPNG launches a headless Chromium instance via chromedp,
// navigates to opts.URL, waits for the dashboard root to report
// data-ready="true" and returns a full-page PNG screenshot.
func DashboardPNG(parentCtx context.Context, opts Options) ([]byte, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	appLog.Debug("capturing dashboard", "url", opts.URL, "width", opts.Width, "height", opts.Height)

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(250 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	return png, nil
}

// DashboardToFile captures the dashboard and writes the PNG to path.
func DashboardToFile(ctx context.Context, opts Options, path string) error {
	if path == "" {
		return errors.New("capture: output path is required")
	}
	png, err := DashboardPNG(ctx, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	appLog.Info("dashboard captured", "path", path, "bytes", len(png))
	return nil
}
