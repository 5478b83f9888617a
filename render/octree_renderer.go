package render

import (
	"io"
	"math"

	"github.com/soypat/qrplaque/internal/d3"
	"github.com/soypat/qrplaque/sdf"
	"gonum.org/v1/gonum/spatial/r3"
)

// octree renders using marching tetrahedra with octree space sampling.
type octree struct {
	dc        dc3
	todo      []cube
	unwritten triangle3Buffer
}

type cube struct {
	sdf.V3i      // origin of cube as integers
	n       uint // level of cube, size = 1 << n
}

var _ Renderer = (*octree)(nil)

// NewOctreeRenderer returns a marching tetrahedra renderer that samples
// the SDF on a lattice of cubes with side cellSize. Empty regions are
// skipped by subdividing an octree from a cube enclosing the whole model.
// Output order is deterministic for a given SDF and cellSize.
func NewOctreeRenderer(s sdf.SDF3, cellSize float64) *octree {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		panic("cellSize must be positive and finite")
	}
	// Grow the bounding box so the boundaries
	// aren't on the object surface.
	bb := d3.Box(s.Bounds())
	bb = d3.Box{Min: r3.Sub(bb.Min, d3.Elem(cellSize)), Max: r3.Add(bb.Max, d3.Elem(cellSize))}
	longAxis := d3.Max(bb.Size())
	// We want to test the smallest cube (side == cellSize) for emptiness
	// so the level = 0 cube is at half resolution.
	resolution := 0.5 * cellSize

	// how many cube levels for the octree?
	levels := uint(math.Ceil(math.Log2(longAxis/resolution))) + 1
	if levels < 2 {
		levels = 2
	}

	// Calculate theoretical max amount of cubes
	divisions := r3.Scale(1/cellSize, bb.Size())
	maxCubes := int(divisions.X) * int(divisions.Y) * int(divisions.Z)

	// Allocate a reasonable size for cube slice
	cubes := make([]cube, 1, maxInt(1, maxCubes/64))
	cubes[0] = cube{sdf.V3i{0, 0, 0}, levels - 1} // process the octree, start at the top level
	return &octree{
		dc:        *newDc3(s, bb.Min, resolution, levels),
		unwritten: triangle3Buffer{buf: make([]Triangle3, 0, 1024)},
		todo:      cubes,
	}
}

// ReadTriangles writes triangles rendered from the model into the argument buffer.
// returns number of triangles written and an error if present.
func (oc *octree) ReadTriangles(dst []Triangle3) (n int, err error) {
	if len(dst) == 0 {
		panic("cannot write to empty triangle slice")
	}
	if oc.unwritten.Len() > 0 {
		n += oc.unwritten.Read(dst[n:])
		if n == len(dst) {
			return n, nil
		}
	}
	if len(oc.todo) == 0 && oc.unwritten.Len() == 0 {
		// Done rendering model.
		return n, io.EOF
	}
	n += oc.readTriangles(dst[n:])
	return n, nil
}

// readTriangles processes queued cubes until dst is full or the queue
// is drained and returns the number of triangles written.
func (oc *octree) readTriangles(dst []Triangle3) (n int) {
	cubesProcessed := 0
	var newCubes []cube
	for _, cube := range oc.todo {
		if n == len(dst) {
			// Finished writing all the buffer
			break
		}
		if n+maxCubeTriangles > len(dst) {
			// Not enough room in buffer to write all triangles that could be found.
			var tmp [maxCubeTriangles]Triangle3
			tri, cubes := oc.processCube(tmp[:], cube)
			oc.unwritten.Write(tmp[:tri])
			newCubes = append(newCubes, cubes...)
			cubesProcessed++
			break
		}
		tri, cubes := oc.processCube(dst[n:], cube)
		newCubes = append(newCubes, cubes...)
		cubesProcessed++
		n += tri
	}
	oc.todo = append(oc.todo[cubesProcessed:], newCubes...)
	return n
}

// Process a cube. Generate triangles, or more cubes.
func (oc *octree) processCube(dst []Triangle3, c cube) (writtenTriangles int, newCubes []cube) {
	if c.n == 1 {
		// this cube is at the required resolution
		c0, d0 := oc.dc.Evaluate(c.Add(sdf.V3i{0, 0, 0}))
		c1, d1 := oc.dc.Evaluate(c.Add(sdf.V3i{2, 0, 0}))
		c2, d2 := oc.dc.Evaluate(c.Add(sdf.V3i{2, 2, 0}))
		c3, d3 := oc.dc.Evaluate(c.Add(sdf.V3i{0, 2, 0}))
		c4, d4 := oc.dc.Evaluate(c.Add(sdf.V3i{0, 0, 2}))
		c5, d5 := oc.dc.Evaluate(c.Add(sdf.V3i{2, 0, 2}))
		c6, d6 := oc.dc.Evaluate(c.Add(sdf.V3i{2, 2, 2}))
		c7, d7 := oc.dc.Evaluate(c.Add(sdf.V3i{0, 2, 2}))
		corners := [8]r3.Vec{c0, c1, c2, c3, c4, c5, c6, c7}
		values := [8]float64{d0, d1, d2, d3, d4, d5, d6, d7}
		// output the triangle(s) for this cube
		writtenTriangles = cubeToTriangles(dst, corners, values)
	} else {
		// process the sub cubes
		n := c.n - 1
		s := 1 << n
		subCubes := [8]cube{
			{c.Add(sdf.V3i{0, 0, 0}), n},
			{c.Add(sdf.V3i{s, 0, 0}), n},
			{c.Add(sdf.V3i{s, s, 0}), n},
			{c.Add(sdf.V3i{0, s, 0}), n},
			{c.Add(sdf.V3i{0, 0, s}), n},
			{c.Add(sdf.V3i{s, 0, s}), n},
			{c.Add(sdf.V3i{s, s, s}), n},
			{c.Add(sdf.V3i{0, s, s}), n},
		}
		// Eliminate empty cubes.
		for _, candidate := range subCubes {
			if !oc.dc.IsEmpty(&candidate) {
				newCubes = append(newCubes, candidate)
			}
		}
	}
	return writtenTriangles, newCubes
}

// dc3 implements a 3 dimensional distance cache. evaluates the SDF3 via a distance cache to avoid repeated evaluations.
// Neighbouring cubes share lattice points so most corner lookups are hits.
type dc3 struct {
	cache      map[sdf.V3i]float64 // cache of distances
	origin     r3.Vec              // origin of the overall bounding cube
	resolution float64             // size of smallest octree cube
	hdiag      []float64           // lookup table of cube half diagonals
	s          sdf.SDF3            // the SDF3 to be rendered
}

// Evaluate returns the lattice point position and its SDF value.
func (dc *dc3) Evaluate(vi sdf.V3i) (r3.Vec, float64) {
	v := r3.Add(dc.origin, r3.Scale(dc.resolution, vi.ToV3()))
	// do we have it in the cache?
	dist, found := dc.cache[vi]
	if found {
		return v, dist
	}
	// evaluate the SDF3
	dist = dc.s.Evaluate(v)
	dc.cache[vi] = dist
	return v, dist
}

// IsEmpty returns true if the cube contains no SDF surface
func (dc *dc3) IsEmpty(c *cube) bool {
	// evaluate the SDF3 at the center of the cube
	s := 1 << (c.n - 1) // half side
	_, d := dc.Evaluate(c.AddScalar(s))
	// compare to the center/corner distance
	return math.Abs(d) >= dc.hdiag[c.n]
}

func newDc3(s sdf.SDF3, origin r3.Vec, resolution float64, n uint) *dc3 {
	if n >= 64 {
		panic("size of n must be less than size of word for hdiag generation")
	}
	dc := dc3{
		origin:     origin,
		resolution: resolution,
		hdiag:      make([]float64, n),
		s:          s,
		cache:      make(map[sdf.V3i]float64),
	}
	// build a lut for cube half diagonal lengths
	for i := range dc.hdiag {
		si := 1 << uint(i)
		s := float64(si) * dc.resolution
		dc.hdiag[i] = 0.5 * math.Sqrt(3.0*s*s)
	}
	return &dc
}

func maxInt(a, b int) int {
	if a >= b {
		return a
	}
	return b
}
