// Package glyph extracts text outlines from TrueType fonts.
package glyph

import (
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/golang/freetype/truetype"
	"github.com/soypat/qrplaque/outline"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultSegments is the number of line segments per quadratic curve.
const DefaultSegments = 8

// Face lays out text with a TrueType font.
type Face struct {
	font *truetype.Font
	// Segments is the number of line segments each curve is split into.
	Segments int
}

// Parse returns a Face for the TrueType font data ttf.
func Parse(ttf []byte) (*Face, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	return &Face{font: f, Segments: DefaultSegments}, nil
}

// Load reads a TrueType font file.
func Load(path string) (*Face, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Default returns the Go Regular sans serif face.
func Default() *Face {
	f, err := Parse(goregular.TTF)
	if err != nil {
		panic(err) // bundled font is known good.
	}
	return f
}

// Outline returns one shape per visible glyph of text. size is the em
// size in millimetres and spacing is extra advance added after every
// glyph. The baseline starts at the origin and runs along +x, y up.
// Characters with no contours such as spaces only advance the pen.
func (f *Face) Outline(text string, size, spacing float64) ([]outline.Shape, error) {
	if !(size > 0) {
		return nil, fmt.Errorf("invalid text size %g", size)
	}
	segs := f.Segments
	if segs < 1 {
		segs = DefaultSegments
	}
	upem := f.font.FUnitsPerEm()
	if upem <= 0 {
		return nil, errors.New("font has no units per em")
	}
	// Loading at scale upem keeps glyph coordinates in font units.
	scale := fixed.I(int(upem))
	k := size / float64(upem)
	var (
		shapes []outline.Shape
		buf    truetype.GlyphBuf
		pen    float64
		prev   truetype.Index
		first  = true
	)
	for _, r := range text {
		if unicode.IsControl(r) {
			continue
		}
		idx := f.font.Index(r)
		if !first {
			pen += k * unfix(f.font.Kern(scale, prev, idx))
		}
		if err := buf.Load(f.font, scale, idx, font.HintingNone); err != nil {
			return nil, fmt.Errorf("loading glyph %q: %w", r, err)
		}
		var shape outline.Shape
		start := 0
		for _, end := range buf.Ends {
			ring := contour(buf.Points[start:end], segs)
			start = end
			for i, v := range ring {
				ring[i] = r2.Vec{X: pen + k*v.X, Y: k * v.Y}
			}
			shape.Rings = append(shape.Rings, ring)
		}
		shape = shape.Normalize(outline.NonZero)
		if len(shape.Rings) > 0 {
			shapes = append(shapes, shape)
		}
		pen += k*unfix(f.font.HMetric(scale, idx).AdvanceWidth) + spacing
		prev = idx
		first = false
	}
	return shapes, nil
}

func unfix(x fixed.Int26_6) float64 { return float64(x) / 64 }

func onCurve(p truetype.Point) bool { return p.Flags&0x01 != 0 }

func vec(p truetype.Point) r2.Vec { return r2.Vec{X: unfix(p.X), Y: unfix(p.Y)} }

func mid(a, b r2.Vec) r2.Vec { return r2.Scale(0.5, r2.Add(a, b)) }

// contour flattens a TrueType contour. Consecutive off curve points
// imply an on curve point at their midpoint.
func contour(ps []truetype.Point, segs int) outline.Ring {
	if len(ps) == 0 {
		return nil
	}
	var start r2.Vec
	rest := ps[1:]
	switch last := ps[len(ps)-1]; {
	case onCurve(ps[0]):
		start = vec(ps[0])
	case onCurve(last):
		start = vec(last)
		rest = ps[:len(ps)-1]
	default:
		start = mid(vec(ps[0]), vec(last))
		rest = ps
	}
	ring := outline.Ring{start}
	pen := start
	quad := func(c, end r2.Vec) {
		for i := 1; i <= segs; i++ {
			t := float64(i) / float64(segs)
			u := 1 - t
			ring = append(ring, r2.Add(r2.Add(r2.Scale(u*u, pen), r2.Scale(2*u*t, c)), r2.Scale(t*t, end)))
		}
		pen = end
	}
	var ctrl r2.Vec
	haveCtrl := false
	for _, p := range rest {
		v := vec(p)
		switch {
		case onCurve(p) && haveCtrl:
			quad(ctrl, v)
			haveCtrl = false
		case onCurve(p):
			ring = append(ring, v)
			pen = v
		default:
			if haveCtrl {
				quad(ctrl, mid(ctrl, v))
			}
			ctrl = v
			haveCtrl = true
		}
	}
	if haveCtrl {
		quad(ctrl, start)
	}
	return ring
}
