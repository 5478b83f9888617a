package must3

import (
	"math"

	"github.com/soypat/qrplaque/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// box is a 3d box centered at the origin.
type box struct {
	size  r3.Vec
	round float64
	bb    r3.Box
}

// Box return an SDF3 for a 3d box (rounded corners with round > 0).
func Box(size r3.Vec, round float64) *box {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		panic("size <= 0")
	}
	if round < 0 {
		panic("round < 0")
	}
	if 2*round > math.Min(size.X, math.Min(size.Y, size.Z)) {
		panic("round exceeds half the smallest box side")
	}
	size = r3.Scale(0.5, size)
	s := box{
		size:  r3.Sub(size, d3.Elem(round)),
		round: round,
		bb:    r3.Box{Min: r3.Scale(-1, size), Max: size},
	}
	return &s
}

// Evaluate returns the minimum distance to a 3d box.
func (s *box) Evaluate(p r3.Vec) float64 {
	return sdfBox3d(p, s.size) - s.round
}

// Bounds returns the bounding box for a 3d box.
func (s *box) Bounds() r3.Box {
	return s.bb
}

func sdfBox3d(p, s r3.Vec) float64 {
	d := r3.Sub(d3.AbsElem(p), s)
	if d.X > 0 && d.Y > 0 && d.Z > 0 {
		return r3.Norm(d)
	}
	if d.X > 0 && d.Y > 0 {
		return math.Hypot(d.X, d.Y)
	}
	if d.X > 0 && d.Z > 0 {
		return math.Hypot(d.X, d.Z)
	}
	if d.Y > 0 && d.Z > 0 {
		return math.Hypot(d.Y, d.Z)
	}
	// at most one positive component (or p inside the box)
	return d3.Max(d)
}
