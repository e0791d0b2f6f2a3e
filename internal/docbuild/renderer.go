package docbuild

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// FragmentRenderer converts a standalone HTML document into a PNG for
// embedding. Real rendering needs a browser-backed service and is injected
// from outside; the pipeline only depends on this contract.
type FragmentRenderer interface {
	RenderPNG(ctx context.Context, html string) ([]byte, error)
}

// PlaceholderRenderer emits a blank card-sized PNG so assembly can complete
// in environments without a rendering backend.
type PlaceholderRenderer struct{}

func (PlaceholderRenderer) RenderPNG(ctx context.Context, html string) ([]byte, error) {
	_ = ctx
	_ = html
	img := image.NewRGBA(image.Rect(0, 0, 800, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 800; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode placeholder png: %w", err)
	}
	return buf.Bytes(), nil
}
