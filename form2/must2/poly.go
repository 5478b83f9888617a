package must2

import (
	"math"
	"strconv"

	"github.com/soypat/qrplaque/internal/d2"
	"github.com/soypat/qrplaque/sdf"
	"gonum.org/v1/gonum/spatial/r2"
)

// polygon is an SDF2 made from one or more closed rings of line segments.
// Points with a non-zero winding number are inside.
type polygon struct {
	seg []segment
	bb  r2.Box // bounding box
}

// segment is a precomputed polygon edge.
type segment struct {
	a, b   r2.Vec  // end points
	vector r2.Vec  // unit line vector
	length float64 // line length
}

// MultiPolygon returns an SDF2 made from several closed rings. Holes are
// rings wound opposite to the ring that encloses them.
func MultiPolygon(rings [][]r2.Vec) sdf.SDF2 {
	if len(rings) == 0 {
		panic("polygon needs at least one ring")
	}
	s := polygon{}
	bb := d2.Box{Min: d2.Elem(math.Inf(1)), Max: d2.Elem(math.Inf(-1))}
	for ir, ring := range rings {
		n := len(ring)
		if n < 3 {
			panic("ring " + strconv.Itoa(ir) + ": number of vertices < 3")
		}
		// Close the loop (if necessary)
		if d2.EqualWithin(ring[0], ring[n-1], tolerance) {
			n--
			if n < 3 {
				panic("ring " + strconv.Itoa(ir) + ": number of vertices < 3")
			}
		}
		for i := 0; i < n; i++ {
			a := ring[i]
			b := ring[(i+1)%n]
			if !d2.IsFinite(a) {
				panic("ring " + strconv.Itoa(ir) + ": non-finite vertex")
			}
			bb = bb.Include(a)
			l := r2.Sub(b, a)
			length := r2.Norm(l)
			if length == 0 {
				// repeated vertex, contributes nothing.
				continue
			}
			s.seg = append(s.seg, segment{
				a:      a,
				b:      b,
				vector: r2.Scale(1/length, l),
				length: length,
			})
		}
	}
	if len(s.seg) < 3 {
		panic("polygon has less than 3 non-degenerate edges")
	}
	s.bb = r2.Box(bb)
	return &s
}

// Evaluate returns the minimum distance for a 2d polygon.
func (s *polygon) Evaluate(p r2.Vec) float64 {
	dd := math.MaxFloat64 // d^2 to polygon (>0)
	wn := 0               // winding number (inside/outside)

	for i := range s.seg {
		sg := &s.seg[i]
		a := sg.a
		b := sg.b
		pa := r2.Sub(p, a)

		t := r2.Dot(pa, sg.vector)                             // t-parameter of projection onto line
		dn := r2.Dot(pa, r2.Vec{X: sg.vector.Y, Y: -sg.vector.X}) // normal distance from p to line

		// Distance to line segment
		if t < 0 {
			dd = math.Min(dd, r2.Norm2(pa)) // distance to vertex[0] of line
		} else if t > sg.length {
			dd = math.Min(dd, r2.Norm2(r2.Sub(p, b))) // distance to vertex[1] of line
		} else {
			dd = math.Min(dd, dn*dn) // normal distance to line
		}

		// Is the point in the polygon?
		// See: http://geomalgorithms.com/a03-_inclusion.html
		if a.Y <= p.Y {
			if b.Y > p.Y { // upward crossing
				if dn < 0 { // p is to the left of the line segment
					wn++ // up intersect
				}
			}
		} else {
			if b.Y <= p.Y { // downward crossing
				if dn > 0 { // p is to the right of the line segment
					wn-- // down intersect
				}
			}
		}
	}

	// normalise d*d to d
	d := math.Sqrt(dd)
	if wn != 0 {
		// p is inside the polygon
		return -d
	}
	return d
}

// Bounds returns the bounding box of a 2d polygon.
func (s *polygon) Bounds() r2.Box {
	return s.bb
}
