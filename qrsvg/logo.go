package qrsvg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
	"github.com/soypat/qrplaque/outline"
	"github.com/soypat/qrplaque/svgimport"
	"gonum.org/v1/gonum/spatial/r2"
)

// logoPixels is the longest side of a raster logo after downscaling.
const logoPixels = 64

// loadLogo reads an SVG or raster image into outlines. The returned
// shapes are in an arbitrary y up frame.
func loadLogo(ctx context.Context, path string, segments int) ([]outline.Shape, error) {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		fp, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer fp.Close()
		return svgimport.Import(fp, svgimport.Options{PxPerMM: 1, Segments: segments})
	}
	img, err := gg.LoadImage(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rasterShapes(img)
}

// rasterShapes downscales img and returns one rectangle per horizontal
// run of dark, opaque pixels. Each pixel is one unit wide.
func rasterShapes(img image.Image) ([]outline.Shape, error) {
	b := img.Bounds()
	if b.Dx() > logoPixels || b.Dy() > logoPixels {
		img = resize.Thumbnail(logoPixels, logoPixels, img, resize.Bilinear)
		b = img.Bounds()
	}
	var shapes []outline.Shape
	for y := b.Min.Y; y < b.Max.Y; y++ {
		// image rows grow downwards.
		top := float64(b.Max.Y - y)
		run := -1
		for x := b.Min.X; x <= b.Max.X; x++ {
			on := x < b.Max.X && isDark(img.At(x, y))
			switch {
			case on && run < 0:
				run = x
			case !on && run >= 0:
				shapes = append(shapes, outline.Rect(
					r2.Vec{X: float64(run - b.Min.X), Y: top - 1},
					r2.Vec{X: float64(x - b.Min.X), Y: top},
				))
				run = -1
			}
		}
	}
	if len(shapes) == 0 {
		return nil, errors.New("image has no dark pixels")
	}
	return shapes, nil
}

// isDark reports whether c is at least half opaque with luminance below half.
func isDark(c color.Color) bool {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	if n.A < 0x8000 {
		return false
	}
	y := (19595*uint32(n.R) + 38470*uint32(n.G) + 7471*uint32(n.B) + 1<<15) >> 16
	return y < 0x8000
}

// fit uniformly scales shapes to fit a square of side size centered at
// (cx, cy).
func fit(shapes []outline.Shape, cx, cy, size float64) ([]outline.Shape, error) {
	if !(size > 0) {
		return nil, fmt.Errorf("no room for logo, fit size %g", size)
	}
	bb := outline.Bounds(shapes)
	w, h := bb.Max.X-bb.Min.X, bb.Max.Y-bb.Min.Y
	if !(w > 0 && h > 0) {
		return nil, errors.New("logo has empty bounds")
	}
	k := size / w
	if h > w {
		k = size / h
	}
	mid := r2.Scale(0.5, r2.Add(bb.Min, bb.Max))
	out := make([]outline.Shape, len(shapes))
	for i, s := range shapes {
		out[i] = s.Transform(func(p r2.Vec) r2.Vec {
			return r2.Vec{X: cx + k*(p.X-mid.X), Y: cy + k*(p.Y-mid.Y)}
		})
	}
	return out, nil
}
