package obj2

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/qrplaque/outline"
	"gonum.org/v1/gonum/spatial/r2"
)

/*

2D Panel with edge holes.

Note: The hole pattern is used to layout multiple holes along an edge.
The edge runs clockwise from one corner to the next, corners included.

Examples:

"x" - single hole at the starting corner
"xx" - holes at both corners
"x.x" = holes at both corners
"xx.x.xx" = five holes on edge with spacing
etc.

*/

// PanelParams defines the parameters for a 2D panel. The panel is
// anchored at the origin and spans [0, Size].
type PanelParams struct {
	Size         r2.Vec     // size of the panel
	HoleDiameter float64    // diameter of panel holes, 0 for none
	HoleMargin   [4]float64 // hole margins for top, right, bottom, left
	HolePattern  [4]string  // hole pattern for top, right, bottom, left
	Segments     int        // sides of the polygon approximating a hole
}

// Panel returns the outline of a rectangular panel with holes on the edges.
// Holes on shared corners are only cut once.
func Panel(k PanelParams) (outline.Shape, error) {
	if !(k.Size.X > 0 && k.Size.Y > 0) || math.IsInf(k.Size.X, 0) || math.IsInf(k.Size.Y, 0) {
		return outline.Shape{}, fmt.Errorf("bad panel size %v", k.Size)
	}
	// panel
	panel := outline.Rect(r2.Vec{}, k.Size)
	if k.HoleDiameter <= 0 {
		// no holes
		return panel, nil
	}
	if k.Segments < 3 {
		return outline.Shape{}, errors.New("need at least 3 hole segments")
	}
	// vertices sit on the circumscribed circle, edges are tangent to the hole.
	r := 0.5 * k.HoleDiameter / math.Cos(math.Pi/float64(k.Segments))
	for i, m := range k.HoleMargin {
		if m <= r || math.IsInf(m, 0) || math.IsNaN(m) {
			return outline.Shape{}, fmt.Errorf("hole margin %d (%g) does not clear hole radius %g", i, m, r)
		}
	}
	centers := HoleCenters(k)
	for i, a := range centers {
		for _, b := range centers[:i] {
			if r2.Norm(r2.Sub(a, b)) <= 2*r {
				return outline.Shape{}, fmt.Errorf("holes at %v and %v overlap", a, b)
			}
		}
		panel.Rings = append(panel.Rings, hole(a, r, k.Segments))
	}
	return panel, nil
}

// HoleCenters returns the hole positions Panel cuts for k.
func HoleCenters(k PanelParams) []r2.Vec {
	// corners
	tl := r2.Vec{X: k.HoleMargin[3], Y: k.Size.Y - k.HoleMargin[0]}
	tr := r2.Vec{X: k.Size.X - k.HoleMargin[1], Y: k.Size.Y - k.HoleMargin[0]}
	br := r2.Vec{X: k.Size.X - k.HoleMargin[1], Y: k.HoleMargin[2]}
	bl := r2.Vec{X: k.HoleMargin[3], Y: k.HoleMargin[2]}
	// clockwise: top, right, bottom, left
	var centers []r2.Vec
	centers = lineOf(centers, tl, tr, k.HolePattern[0])
	centers = lineOf(centers, tr, br, k.HolePattern[1])
	centers = lineOf(centers, br, bl, k.HolePattern[2])
	centers = lineOf(centers, bl, tl, k.HolePattern[3])
	return centers
}

// lineOf appends the positions marked 'x' in pattern, evenly spaced from
// p0 to p1, skipping positions already in dst.
func lineOf(dst []r2.Vec, p0, p1 r2.Vec, pattern string) []r2.Vec {
	if pattern == "" {
		return dst
	}
	var dp r2.Vec
	if len(pattern) > 1 {
		dp = r2.Scale(1/float64(len(pattern)-1), r2.Sub(p1, p0))
	}
	x := p0
outer:
	for _, c := range pattern {
		p := x
		x = r2.Add(x, dp)
		if c != 'x' {
			continue
		}
		for _, q := range dst {
			if r2.Norm(r2.Sub(p, q)) < 1e-9 {
				continue outer
			}
		}
		dst = append(dst, p)
	}
	return dst
}

// hole returns a clockwise regular polygon with vertices on a circle of radius r.
func hole(center r2.Vec, r float64, n int) outline.Ring {
	ring := make(outline.Ring, n)
	for i := range ring {
		a := -2 * math.Pi * float64(i) / float64(n)
		ring[i] = r2.Add(center, r2.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)})
	}
	return ring
}
