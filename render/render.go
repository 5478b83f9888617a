package render

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Renderer streams the triangles of a tessellated solid.
type Renderer interface {
	// ReadTriangles writes rendered triangles to dst and returns the number
	// written. io.EOF is returned once the model is fully rendered.
	ReadTriangles(dst []Triangle3) (int, error)
}

// Triangle3 is a 3D triangle. Vertices are ordered counter-clockwise
// when seen from outside the solid.
type Triangle3 struct {
	V [3]r3.Vec
}

// Normal returns the unit normal of the triangle following the right hand rule.
func (t Triangle3) Normal() r3.Vec {
	e1 := r3.Sub(t.V[1], t.V[0])
	e2 := r3.Sub(t.V[2], t.V[0])
	return r3.Unit(r3.Cross(e1, e2))
}

// Degenerate returns true if two or more vertices are within tol of each other.
func (t Triangle3) Degenerate(tol float64) bool {
	return r3.Norm(r3.Sub(t.V[0], t.V[1])) <= tol ||
		r3.Norm(r3.Sub(t.V[1], t.V[2])) <= tol ||
		r3.Norm(r3.Sub(t.V[2], t.V[0])) <= tol
}

// Volume returns the signed volume enclosed by a closed, outward facing
// triangle mesh.
func Volume(model []Triangle3) float64 {
	v := 0.0
	for _, t := range model {
		v += r3.Dot(t.V[0], r3.Cross(t.V[1], t.V[2]))
	}
	return v / 6
}

// Bounds returns the bounding box of the triangle vertices.
func Bounds(model []Triangle3) r3.Box {
	if len(model) == 0 {
		return r3.Box{}
	}
	bb := r3.Box{Min: model[0].V[0], Max: model[0].V[0]}
	for _, t := range model {
		for _, v := range t.V {
			bb.Min = r3.Vec{X: minf(bb.Min.X, v.X), Y: minf(bb.Min.Y, v.Y), Z: minf(bb.Min.Z, v.Z)}
			bb.Max = r3.Vec{X: maxf(bb.Max.X, v.X), Y: maxf(bb.Max.Y, v.Y), Z: maxf(bb.Max.Z, v.Z)}
		}
	}
	return bb
}

func minf(a, b float64) float64 {
	if a <= b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}
