package render

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// maxCubeTriangles is the most triangles a single cube can produce:
// six tetrahedra with at most two triangles each.
const maxCubeTriangles = 12

// minEdgeT keeps surface vertices off lattice points so that triangles
// sharing a lattice corner never collapse after float32 encoding.
const minEdgeT = 1e-3

// cubeTetrahedra splits a cube into six tetrahedra sharing the 0-6
// diagonal. Corner numbering:
//
//	0:(0,0,0) 1:(1,0,0) 2:(1,1,0) 3:(0,1,0)
//	4:(0,0,1) 5:(1,0,1) 6:(1,1,1) 7:(0,1,1)
//
// Opposite faces of adjacent cubes are split along the same diagonal so
// the resulting surface is closed.
var cubeTetrahedra = [6][4]int{
	{0, 6, 1, 2},
	{0, 6, 2, 3},
	{0, 6, 3, 7},
	{0, 6, 7, 4},
	{0, 6, 4, 5},
	{0, 6, 5, 1},
}

// cubeToTriangles writes the isosurface triangles of a cube into dst.
// A corner is inside the solid when its value is negative. dst must have
// room for maxCubeTriangles.
func cubeToTriangles(dst []Triangle3, p [8]r3.Vec, v [8]float64) int {
	n := 0
	for _, tet := range cubeTetrahedra {
		n += tetraToTriangles(dst[n:],
			[4]r3.Vec{p[tet[0]], p[tet[1]], p[tet[2]], p[tet[3]]},
			[4]float64{v[tet[0]], v[tet[1]], v[tet[2]], v[tet[3]]},
		)
	}
	return n
}

func tetraToTriangles(dst []Triangle3, p [4]r3.Vec, v [4]float64) int {
	var in, out [4]int
	var ni, no int
	for i := range v {
		if v[i] < 0 {
			in[ni] = i
			ni++
		} else {
			out[no] = i
			no++
		}
	}
	edge := func(i, o int) r3.Vec { return edgeVertex(p[i], v[i], p[o], v[o]) }
	switch ni {
	case 1:
		i := in[0]
		a, b, c := edge(i, out[0]), edge(i, out[1]), edge(i, out[2])
		outward := r3.Sub(centroid(p[out[0]], p[out[1]], p[out[2]]), p[i])
		return emitTriangle(dst, a, b, c, outward)
	case 3:
		o := out[0]
		a, b, c := edge(in[0], o), edge(in[1], o), edge(in[2], o)
		outward := r3.Sub(p[o], centroid(p[in[0]], p[in[1]], p[in[2]]))
		return emitTriangle(dst, a, b, c, outward)
	case 2:
		i0, i1 := in[0], in[1]
		o0, o1 := out[0], out[1]
		// quad cycle: consecutive vertices share a tetrahedron face.
		q0, q1, q2, q3 := edge(i0, o0), edge(i0, o1), edge(i1, o1), edge(i1, o0)
		outward := r3.Sub(r3.Add(p[o0], p[o1]), r3.Add(p[i0], p[i1]))
		n := emitTriangle(dst, q0, q1, q2, outward)
		n += emitTriangle(dst[n:], q0, q2, q3, outward)
		return n
	}
	// all corners on the same side of the surface.
	return 0
}

// edgeVertex interpolates the surface crossing between an inside point pi
// (vi < 0) and an outside point po (vo >= 0). The result only depends on
// the pair of points, never on which cube asks for it.
func edgeVertex(pi r3.Vec, vi float64, po r3.Vec, vo float64) r3.Vec {
	t := vi / (vi - vo)
	if t < minEdgeT {
		t = minEdgeT
	} else if t > 1-minEdgeT {
		t = 1 - minEdgeT
	}
	return r3.Add(pi, r3.Scale(t, r3.Sub(po, pi)))
}

// emitTriangle writes triangle abc to dst wound so its normal points along
// outward. Zero area triangles are discarded.
func emitTriangle(dst []Triangle3, a, b, c, outward r3.Vec) int {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if r3.Norm2(n) == 0 {
		return 0
	}
	if r3.Dot(n, outward) < 0 {
		b, c = c, b
	}
	dst[0] = Triangle3{V: [3]r3.Vec{a, b, c}}
	return 1
}

func centroid(a, b, c r3.Vec) r3.Vec {
	return r3.Scale(1.0/3, r3.Add(a, r3.Add(b, c)))
}
