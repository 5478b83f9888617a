// Package outline models planar regions bounded by closed polygonal rings.
// Values are immutable: every transform returns a new Shape.
package outline

import (
	"errors"
	"fmt"

	"github.com/soypat/qrplaque/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrDegenerate is returned by Validate for outlines that enclose no area
// or are otherwise unusable as a fill region.
var ErrDegenerate = errors.New("degenerate outline")

// FillRule selects how overlapping rings decide what is inside.
type FillRule uint8

const (
	// NonZero marks points with a non-zero winding number as inside.
	NonZero FillRule = iota
	// EvenOdd marks points enclosed by an odd number of rings as inside.
	EvenOdd
)

func (f FillRule) String() string {
	switch f {
	case NonZero:
		return "nonzero"
	case EvenOdd:
		return "evenodd"
	}
	return "FillRule(" + fmt.Sprint(uint8(f)) + ")"
}

// Ring is a closed sequence of vertices. The edge from the last
// vertex back to the first is implicit.
type Ring []r2.Vec

// Shape is a planar region bounded by one or more rings. After Normalize
// outer boundaries run counter-clockwise and holes clockwise.
type Shape struct {
	Rings []Ring
}

// SignedArea returns the shoelace area of the ring. Counter-clockwise rings
// are positive.
func (r Ring) SignedArea() float64 {
	if len(r) < 3 {
		return 0
	}
	o := r[0]
	sum := 0.0
	for i := 1; i < len(r)-1; i++ {
		sum += d2.Cross(r2.Sub(r[i], o), r2.Sub(r[i+1], o))
	}
	return sum / 2
}

// Bounds returns the axis aligned bounding box of the ring.
func (r Ring) Bounds() r2.Box {
	if len(r) == 0 {
		return r2.Box{}
	}
	bb := d2.Box{Min: r[0], Max: r[0]}
	for _, v := range r[1:] {
		bb = bb.Include(v)
	}
	return r2.Box(bb)
}

// Contains reports whether p lies inside the ring using the crossing rule.
// Points exactly on an edge may report either result.
func (r Ring) Contains(p r2.Vec) bool {
	in := false
	n := len(r)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := r[i], r[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				in = !in
			}
		}
	}
	return in
}

// Reversed returns a copy of the ring with opposite winding.
func (r Ring) Reversed() Ring {
	out := make(Ring, len(r))
	for i, v := range r {
		out[len(r)-1-i] = v
	}
	return out
}

// clean returns the ring without repeated consecutive vertices and
// without an explicit closing vertex.
func (r Ring) clean() Ring {
	out := make(Ring, 0, len(r))
	for _, v := range r {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// Area returns the enclosed area of the shape as the sum of signed ring areas.
// It is only meaningful for normalized shapes.
func (s Shape) Area() float64 {
	a := 0.0
	for _, r := range s.Rings {
		a += r.SignedArea()
	}
	return a
}

// Bounds returns the bounding box of all rings in the shape.
func (s Shape) Bounds() r2.Box {
	var bb d2.Box
	for i, r := range s.Rings {
		rb := d2.Box(r.Bounds())
		if i == 0 {
			bb = rb
		} else {
			bb = bb.Extend(rb)
		}
	}
	return r2.Box(bb)
}

// Transform returns a new shape with f applied to every vertex. f must
// preserve orientation for the result to stay normalized.
func (s Shape) Transform(f func(r2.Vec) r2.Vec) Shape {
	out := Shape{Rings: make([]Ring, len(s.Rings))}
	for i, r := range s.Rings {
		nr := make(Ring, len(r))
		for j, v := range r {
			nr[j] = f(v)
		}
		out.Rings[i] = nr
	}
	return out
}

// Translate returns the shape moved by v.
func (s Shape) Translate(v r2.Vec) Shape {
	return s.Transform(func(p r2.Vec) r2.Vec { return r2.Add(p, v) })
}

// Scale returns the shape scaled by k about the origin. k must be positive.
func (s Shape) Scale(k float64) Shape {
	return s.Transform(func(p r2.Vec) r2.Vec { return r2.Scale(k, p) })
}

// Validate checks the shape can be swept into a solid: at least one ring,
// every ring with 3 or more finite vertices and non-zero area, and a
// positive total area.
func (s Shape) Validate() error {
	if len(s.Rings) == 0 {
		return fmt.Errorf("no rings: %w", ErrDegenerate)
	}
	for i, r := range s.Rings {
		if len(r) < 3 {
			return fmt.Errorf("ring %d has %d vertices: %w", i, len(r), ErrDegenerate)
		}
		for _, v := range r {
			if !d2.IsFinite(v) {
				return fmt.Errorf("ring %d has non-finite vertex %v: %w", i, v, ErrDegenerate)
			}
		}
		if r.SignedArea() == 0 {
			return fmt.Errorf("ring %d encloses no area: %w", i, ErrDegenerate)
		}
	}
	if a := s.Area(); !(a > 0) {
		return fmt.Errorf("shape area %g is not positive: %w", a, ErrDegenerate)
	}
	return nil
}

// Normalize returns a cleaned copy of the shape with rings oriented so
// that the non-zero winding rule describes the same region that rule
// described for the input. Rings with fewer than 3 distinct vertices or
// zero area are dropped.
func (s Shape) Normalize(rule FillRule) Shape {
	rings := make([]Ring, 0, len(s.Rings))
	for _, r := range s.Rings {
		r = r.clean()
		if len(r) < 3 || r.SignedArea() == 0 {
			continue
		}
		rings = append(rings, r)
	}
	switch rule {
	case EvenOdd:
		for i, r := range rings {
			depth := 0
			for j, other := range rings {
				if i != j && other.Contains(r[0]) {
					depth++
				}
			}
			ccw := r.SignedArea() > 0
			if (depth%2 == 0) != ccw {
				rings[i] = r.Reversed()
			}
		}
	default:
		total := 0.0
		for _, r := range rings {
			total += r.SignedArea()
		}
		if total < 0 {
			for i, r := range rings {
				rings[i] = r.Reversed()
			}
		}
	}
	return Shape{Rings: rings}
}

// Rect returns the counter-clockwise rectangle spanning [min, max].
func Rect(min, max r2.Vec) Shape {
	return Shape{Rings: []Ring{{
		min,
		{X: max.X, Y: min.Y},
		max,
		{X: min.X, Y: max.Y},
	}}}
}

// Frame returns a w by h rectangle anchored at the origin with an inner
// rectangle inset by b on all sides removed. The outer ring is
// counter-clockwise and the inner ring clockwise.
func Frame(w, h, b float64) Shape {
	outer := Rect(r2.Vec{}, r2.Vec{X: w, Y: h}).Rings[0]
	inner := Rect(r2.Vec{X: b, Y: b}, r2.Vec{X: w - b, Y: h - b}).Rings[0].Reversed()
	return Shape{Rings: []Ring{outer, inner}}
}

// Bounds returns the bounding box enclosing every shape. An empty slice
// returns the zero box.
func Bounds(shapes []Shape) r2.Box {
	var bb d2.Box
	first := true
	for _, s := range shapes {
		if len(s.Rings) == 0 {
			continue
		}
		sb := d2.Box(s.Bounds())
		if first {
			bb = sb
			first = false
		} else {
			bb = bb.Extend(sb)
		}
	}
	return r2.Box(bb)
}

// TotalArea sums the area of normalized shapes.
func TotalArea(shapes []Shape) float64 {
	a := 0.0
	for _, s := range shapes {
		a += s.Area()
	}
	return a
}
