package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webpilot-dev/webpilot/internal/autoerr"
)

// ScreenshotStore captures pages to PNG artifacts on disk.
type ScreenshotStore struct {
	dir    string
	logger *zap.Logger
}

// NewScreenshotStore creates a store writing into dir. The directory is
// created lazily on first capture.
func NewScreenshotStore(dir string, logger *zap.Logger) *ScreenshotStore {
	return &ScreenshotStore{
		dir:    dir,
		logger: logger.Named("screenshots"),
	}
}

// Capture takes a viewport screenshot of the page behind ctx and writes it
// to disk, returning the artifact path. The label prefixes the filename so
// failure and challenge captures are easy to tell apart.
func (st *ScreenshotStore) Capture(ctx context.Context, label string) (string, error) {
	var buf []byte
	shotCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	capture := chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			Do(ctx)
		return err
	})
	if err := chromedp.Run(shotCtx, capture); err != nil {
		return "", autoerr.Automation(err, "failed to capture screenshot")
	}

	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return "", autoerr.Automation(err, "failed to create screenshot directory %s", st.dir)
	}

	path := filepath.Join(st.dir, ArtifactName(label, time.Now()))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", autoerr.Automation(err, "failed to write screenshot %s", path)
	}

	st.logger.Info("Screenshot captured.", zap.String("path", path), zap.Int("bytes", len(buf)))
	return path, nil
}

// ArtifactName builds the screenshot filename: label, timestamp, and a
// short random suffix to avoid collisions within the same second.
func ArtifactName(label string, now time.Time) string {
	if label == "" {
		label = "page"
	}
	return fmt.Sprintf("%s-%s-%s.png",
		label, now.Format("20060102-150405"), uuid.New().String()[:8])
}
