package intake

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
)

var ErrPreviewTooLarge = errors.New("image is too large to preview")

// Preview is a data URI rendering of an image asset that completes at some
// point after the asset was accepted.
type Preview struct {
	done chan struct{}
	uri  string
	err  error
}

func derivePreview(data []byte, maxEdge uint, maxPixels int64) *Preview {
	p := &Preview{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.uri, p.err = renderPreview(data, maxEdge, maxPixels)
	}()
	return p
}

// Ready reports the preview without blocking.
func (p *Preview) Ready() (string, bool, error) {
	select {
	case <-p.done:
		return p.uri, true, p.err
	default:
		return "", false, nil
	}
}

func (p *Preview) Wait(ctx context.Context) (string, error) {
	select {
	case <-p.done:
		return p.uri, p.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func renderPreview(data []byte, maxEdge uint, maxPixels int64) (string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("error reading image header for preview: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return "", fmt.Errorf("%w: %dx%d", ErrPreviewTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("error decoding image for preview: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > int(maxEdge) || bounds.Dy() > int(maxEdge) {
		img = resize.Thumbnail(maxEdge, maxEdge, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("error encoding preview: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
