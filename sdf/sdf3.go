package sdf

import (
	"math"
	"strconv"

	"github.com/soypat/qrplaque/internal/d3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// 3D signed distance utility functions.

// SDF3 is the interface to a 3d signed distance function object.
type SDF3 interface {
	// Evaluate takes a point in 3D space as input and returns
	// the minimum distance of the SDF3 to the point. The distance
	// is negative if the point is contained within the SDF3.
	Evaluate(p r3.Vec) float64
	// Bounds returns the bounding box that completely contains
	// the SDF3.
	Bounds() r3.Box
}

// extrude3 is a linear extrusion of an SDF2 along the z axis.
type extrude3 struct {
	sdf    SDF2
	height float64
	bb     r3.Box
}

// Extrude3D does a linear extrude on an SDF2. The result spans
// z = [-height/2, height/2].
func Extrude3D(sdf SDF2, height float64) SDF3 {
	if sdf == nil {
		panic("nil sdf argument to Extrude3D")
	}
	if height <= 0 {
		panic("extrusion height must be positive")
	}
	s := extrude3{}
	s.sdf = sdf
	s.height = height / 2
	// work out the bounding box
	bb := sdf.Bounds()
	s.bb = r3.Box{Min: r3.Vec{X: bb.Min.X, Y: bb.Min.Y, Z: -s.height}, Max: r3.Vec{X: bb.Max.X, Y: bb.Max.Y, Z: s.height}}
	return &s
}

// Evaluate returns the minimum distance to an extrusion.
func (s *extrude3) Evaluate(p r3.Vec) float64 {
	// sdf for the projected 2d surface
	a := s.sdf.Evaluate(r2.Vec{X: p.X, Y: p.Y})
	// sdf for the extrusion region: z = [-height, height]
	b := math.Abs(p.Z) - s.height
	// return the intersection
	return math.Max(a, b)
}

// Bounds returns the bounding box for an extrusion.
func (s *extrude3) Bounds() r3.Box {
	return s.bb
}

// translate3 moves an SDF3 by a fixed offset.
type translate3 struct {
	sdf SDF3
	v   r3.Vec
	bb  r3.Box
}

// Translate3D returns the SDF3 moved by v. Distances are preserved.
func Translate3D(sdf SDF3, v r3.Vec) SDF3 {
	if sdf == nil {
		panic("nil sdf argument to Translate3D")
	}
	if t, ok := sdf.(*translate3); ok {
		// collapse nested translations.
		return Translate3D(t.sdf, r3.Add(t.v, v))
	}
	return &translate3{
		sdf: sdf,
		v:   v,
		bb:  r3.Box(d3.Box(sdf.Bounds()).Translate(v)),
	}
}

// Evaluate returns the minimum distance to a translated SDF3.
func (s *translate3) Evaluate(p r3.Vec) float64 {
	return s.sdf.Evaluate(r3.Sub(p, s.v))
}

// Bounds returns the bounding box of a translated SDF3.
func (s *translate3) Bounds() r3.Box {
	return s.bb
}

// scaleUniform3 scales an SDF3 about the origin.
type scaleUniform3 struct {
	sdf  SDF3
	k    float64
	invK float64
	bb   r3.Box
}

// ScaleUniform3D uniformly scales an SDF3 on all axes about the origin.
// k must be positive.
func ScaleUniform3D(sdf SDF3, k float64) SDF3 {
	if sdf == nil {
		panic("nil sdf argument to ScaleUniform3D")
	}
	if !(k > 0) || math.IsInf(k, 0) {
		panic("scale factor must be positive and finite")
	}
	bb := sdf.Bounds()
	return &scaleUniform3{
		sdf:  sdf,
		k:    k,
		invK: 1.0 / k,
		bb:   r3.Box{Min: r3.Scale(k, bb.Min), Max: r3.Scale(k, bb.Max)},
	}
}

// Evaluate returns the minimum distance to a uniformly scaled SDF3.
// The distance is correct with scaling.
func (s *scaleUniform3) Evaluate(p r3.Vec) float64 {
	q := r3.Scale(s.invK, p)
	return s.sdf.Evaluate(q) * s.k
}

// Bounds returns the bounding box of a uniformly scaled SDF3.
func (s *scaleUniform3) Bounds() r3.Box {
	return s.bb
}

// union3 is a union of SDF3s.
type union3 struct {
	sdf []SDF3
	bb  r3.Box
}

// Union3D returns the union of multiple SDF3 objects.
// Union3D will panic if arguments list has less than two elements or if
// an argument SDF3 is nil.
func Union3D(sdf ...SDF3) SDF3 {
	if len(sdf) < 2 {
		panic("union require at least 2 sdfs")
	}
	s := union3{
		sdf: sdf,
	}
	for i, x := range s.sdf {
		if x == nil {
			panic("nil sdf argument (" + strconv.Itoa(i) + ") to Union3D")
		}
	}
	// work out the bounding box
	bb := d3.Box(s.sdf[0].Bounds())
	for _, x := range s.sdf {
		bb = bb.Extend(d3.Box(x.Bounds()))
	}
	s.bb = r3.Box(bb)
	return &s
}

// Evaluate returns the minimum distance to an SDF3 union.
func (s *union3) Evaluate(p r3.Vec) float64 {
	var d float64
	for i, x := range s.sdf {
		if i == 0 {
			d = x.Evaluate(p)
		} else {
			d = math.Min(d, x.Evaluate(p))
		}
	}
	return d
}

// Bounds returns the bounding box of an SDF3 union.
func (s *union3) Bounds() r3.Box {
	return s.bb
}

// diff3 is the difference of two SDF3s, s0 - s1.
type diff3 struct {
	s0 SDF3
	s1 SDF3
	bb r3.Box
}

// Difference3D returns the difference of two SDF3s, s0 - s1.
// Difference3D will panic if one any of the arguments is nil.
func Difference3D(s0, s1 SDF3) SDF3 {
	if s1 == nil || s0 == nil {
		panic("nil argument to Difference3D")
	}
	return &diff3{s0: s0, s1: s1, bb: s0.Bounds()}
}

// Evaluate returns the minimum distance to the SDF3 difference.
func (s *diff3) Evaluate(p r3.Vec) float64 {
	return math.Max(s.s0.Evaluate(p), -s.s1.Evaluate(p))
}

// Bounds returns the bounding box of the SDF3 difference.
func (s *diff3) Bounds() r3.Box {
	return s.bb
}
