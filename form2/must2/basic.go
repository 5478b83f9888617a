package must2

import (
	"math"

	"github.com/soypat/qrplaque/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

const tolerance = 1e-9

// 2D Box (rounded corners with round > 0)

// box is the 2d signed distance object for a rectangular box.
type box struct {
	size  r2.Vec
	round float64
	bb    r2.Box
}

// Box returns a 2d box centered at the origin.
func Box(size r2.Vec, round float64) *box {
	if size.X <= 0 || size.Y <= 0 {
		panic("box size must be positive")
	}
	if round < 0 || 2*round > math.Min(size.X, size.Y) {
		panic("invalid box rounding")
	}
	size = r2.Scale(0.5, size)
	s := box{}
	s.size = r2.Sub(size, d2.Elem(round))
	s.round = round
	s.bb = r2.Box{Min: r2.Scale(-1, size), Max: size}
	return &s
}

// Evaluate returns the minimum distance to a 2d box.
func (s *box) Evaluate(p r2.Vec) float64 {
	return sdfBox2d(p, s.size) - s.round
}

// Bounds returns the bounding box for a 2d box.
func (s *box) Bounds() r2.Box {
	return s.bb
}

func sdfBox2d(p, s r2.Vec) float64 {
	p = d2.AbsElem(p)
	d := r2.Sub(p, s)
	k := s.Y - s.X
	if d.X > 0 && d.Y > 0 {
		return r2.Norm(d)
	}
	if p.Y-p.X > k {
		return d.Y
	}
	return d.X
}
