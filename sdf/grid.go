package sdf

import (
	"math"
	"strconv"

	"github.com/soypat/qrplaque/internal/d2"
	"github.com/soypat/qrplaque/internal/d3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// gridUnion3 is a union of many SDF3s binned on an xy grid so that
// an evaluation only visits the objects near the query point.
type gridUnion3 struct {
	sdf    []SDF3
	bins   [][]int32 // object indices per cell, row major.
	origin r2.Vec
	cell   float64
	pad    float64
	nx, ny int
	bb     r3.Box
}

// GridUnion3D returns the union of sdf objects evaluated through a
// uniform xy grid of square cells with side cell. Each cell lists the
// objects whose bounds, grown by one cell side, touch it. The returned
// distance is exact within one cell side of the surface and a lower bound
// elsewhere, which is what octree rendering requires.
func GridUnion3D(cell float64, sdf ...SDF3) SDF3 {
	if len(sdf) == 0 {
		panic("grid union requires at least 1 sdf")
	}
	if cell <= 0 || math.IsNaN(cell) || math.IsInf(cell, 0) {
		panic("grid cell size must be positive and finite")
	}
	bb := d3.Box{}
	for i, x := range sdf {
		if x == nil {
			panic("nil sdf argument (" + strconv.Itoa(i) + ") to GridUnion3D")
		}
		if i == 0 {
			bb = d3.Box(x.Bounds())
		} else {
			bb = bb.Extend(d3.Box(x.Bounds()))
		}
	}
	s := gridUnion3{
		sdf:  sdf,
		cell: cell,
		pad:  cell,
		bb:   r3.Box(bb),
	}
	xy := d2.Box{Min: d3.ToR2(bb.Min), Max: d3.ToR2(bb.Max)}.Grow(s.pad)
	s.origin = xy.Min
	size := xy.Size()
	s.nx = int(math.Ceil(size.X/cell)) + 1
	s.ny = int(math.Ceil(size.Y/cell)) + 1
	s.bins = make([][]int32, s.nx*s.ny)
	for i, x := range sdf {
		b := r3.Box(x.Bounds())
		cb := d2.Box{Min: d3.ToR2(b.Min), Max: d3.ToR2(b.Max)}.Grow(s.pad)
		ix0, iy0 := s.cellOf(cb.Min)
		ix1, iy1 := s.cellOf(cb.Max)
		for iy := iy0; iy <= iy1; iy++ {
			for ix := ix0; ix <= ix1; ix++ {
				k := iy*s.nx + ix
				s.bins[k] = append(s.bins[k], int32(i))
			}
		}
	}
	return &s
}

// cellOf returns the clamped cell indices containing p.
func (s *gridUnion3) cellOf(p r2.Vec) (ix, iy int) {
	ix = int(math.Floor((p.X - s.origin.X) / s.cell))
	iy = int(math.Floor((p.Y - s.origin.Y) / s.cell))
	return clampInt(ix, 0, s.nx-1), clampInt(iy, 0, s.ny-1)
}

// Evaluate returns the minimum distance to the grid union.
func (s *gridUnion3) Evaluate(p r3.Vec) float64 {
	fx := (p.X - s.origin.X) / s.cell
	fy := (p.Y - s.origin.Y) / s.cell
	ix := int(math.Floor(fx))
	iy := int(math.Floor(fy))
	if fx < 0 || fy < 0 || ix >= s.nx || iy >= s.ny {
		// Outside the grid all objects are at least pad away.
		return d3.Box(s.bb).Dist(p)
	}
	x0 := s.origin.X + float64(ix)*s.cell
	y0 := s.origin.Y + float64(iy)*s.cell
	edge := math.Min(
		math.Min(p.X-x0, x0+s.cell-p.X),
		math.Min(p.Y-y0, y0+s.cell-p.Y),
	)
	// Unlisted objects are at least pad+edge away.
	d := s.pad + math.Max(edge, 0)
	for _, i := range s.bins[iy*s.nx+ix] {
		d = math.Min(d, s.sdf[i].Evaluate(p))
	}
	return d
}

// Bounds returns the bounding box of the grid union.
func (s *gridUnion3) Bounds() r3.Box {
	return s.bb
}

func clampInt(x, a, b int) int {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
