// Package svgimport converts the filled paths of an SVG document into
// planar outlines measured in millimetres.
//
// Curves are flattened into line segments. Path transforms and stroke
// geometry are ignored, every path is treated as a filled region.
package svgimport

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/soypat/qrplaque/outline"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrNoShapes is returned when a document contains no filled area.
var ErrNoShapes = errors.New("svg contains no filled shapes")

// Options configures the import.
type Options struct {
	// PxPerMM is the number of SVG user units per millimetre.
	PxPerMM float64
	// Segments is the number of line segments each curve is split into.
	Segments int
}

// DefaultOptions returns one user unit per millimetre and 32 segments per curve.
func DefaultOptions() Options {
	return Options{PxPerMM: 1, Segments: 32}
}

func (o Options) validate() error {
	if !(o.PxPerMM > 0) || math.IsInf(o.PxPerMM, 0) {
		return fmt.Errorf("invalid px per mm %g", o.PxPerMM)
	}
	if o.Segments < 1 {
		return fmt.Errorf("invalid curve segment count %d", o.Segments)
	}
	return nil
}

// Import parses an SVG document and returns one normalized shape per
// path, in document order. The y axis is flipped so the result is in a
// y-up frame with the view box's bottom left corner at the origin.
func Import(r io.Reader, opts Options) ([]outline.Shape, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(r, oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parsing svg: %w", err)
	}
	vb := icon.ViewBox
	toMM := func(p r2.Vec) r2.Vec {
		return r2.Vec{
			X: (p.X - vb.X) / opts.PxPerMM,
			Y: (vb.Y + vb.H - p.Y) / opts.PxPerMM,
		}
	}
	var shapes []outline.Shape
	for i := range icon.SVGPaths {
		sp := &icon.SVGPaths[i]
		f := flattener{segments: opts.Segments}
		sp.Path.AddTo(&f)
		f.Stop(false)
		if len(f.rings) == 0 {
			continue
		}
		rule := outline.EvenOdd
		if sp.UseNonZeroWinding {
			rule = outline.NonZero
		}
		shape := outline.Shape{Rings: f.rings}.Transform(toMM).Normalize(rule)
		if len(shape.Rings) == 0 {
			continue
		}
		shapes = append(shapes, shape)
	}
	if len(shapes) == 0 {
		return nil, ErrNoShapes
	}
	return shapes, nil
}

// flattener is a rasterx.Adder that records closed polylines.
type flattener struct {
	segments int
	rings    []outline.Ring
	cur      outline.Ring
	pen      r2.Vec
}

var _ rasterx.Adder = (*flattener)(nil)

func toVec(p fixed.Point26_6) r2.Vec {
	return r2.Vec{X: float64(p.X) / 64, Y: float64(p.Y) / 64}
}

func (f *flattener) Start(a fixed.Point26_6) {
	f.Stop(false)
	f.pen = toVec(a)
	f.cur = outline.Ring{f.pen}
}

func (f *flattener) Line(b fixed.Point26_6) {
	f.pen = toVec(b)
	f.cur = append(f.cur, f.pen)
}

func (f *flattener) QuadBezier(b, c fixed.Point26_6) {
	p0, p1, p2 := f.pen, toVec(b), toVec(c)
	for i := 1; i <= f.segments; i++ {
		t := float64(i) / float64(f.segments)
		u := 1 - t
		f.cur = append(f.cur, r2.Add(r2.Add(r2.Scale(u*u, p0), r2.Scale(2*u*t, p1)), r2.Scale(t*t, p2)))
	}
	f.pen = p2
}

func (f *flattener) CubeBezier(b, c, d fixed.Point26_6) {
	p0, p1, p2, p3 := f.pen, toVec(b), toVec(c), toVec(d)
	for i := 1; i <= f.segments; i++ {
		t := float64(i) / float64(f.segments)
		u := 1 - t
		p := r2.Add(r2.Scale(u*u*u, p0), r2.Scale(3*u*u*t, p1))
		p = r2.Add(p, r2.Add(r2.Scale(3*u*t*t, p2), r2.Scale(t*t*t, p3)))
		f.cur = append(f.cur, p)
	}
	f.pen = p3
}

// Stop ends the current subpath. Filled regions are closed regardless
// of closeLoop.
func (f *flattener) Stop(closeLoop bool) {
	if len(f.cur) >= 3 {
		f.rings = append(f.rings, f.cur)
	}
	f.cur = nil
}
