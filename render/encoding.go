package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hschendel/stl"
	"gonum.org/v1/gonum/spatial/r3"
)

// Encoding selects the STL file flavour.
type Encoding uint8

const (
	// Binary is the compact little endian STL encoding.
	Binary Encoding = iota
	// ASCII is the human readable "solid ... endsolid" encoding.
	ASCII
)

func (e Encoding) String() string {
	switch e {
	case Binary:
		return "binary"
	case ASCII:
		return "ascii"
	}
	return fmt.Sprintf("Encoding(%d)", uint8(e))
}

// solidName is written after the "solid" keyword of ASCII files.
const solidName = "plaque"

// Encode writes model to w using the requested encoding.
func Encode(w io.Writer, model []Triangle3, enc Encoding) error {
	switch enc {
	case Binary:
		return WriteSTL(w, model)
	case ASCII:
		return WriteASCIISTL(w, model)
	}
	return fmt.Errorf("unknown STL encoding %v", enc)
}

// WriteASCIISTL writes model triangles to a writer in ASCII STL file format.
func WriteASCIISTL(w io.Writer, model []Triangle3) error {
	if len(model) == 0 {
		return errEmptyModel
	}
	solid := stl.Solid{
		Name:      solidName,
		IsAscii:   true,
		Triangles: make([]stl.Triangle, len(model)),
	}
	for i, t := range model {
		d := fromTriangle3(t)
		solid.Triangles[i] = stl.Triangle{
			Normal:   stl.Vec3(d.Normal),
			Vertices: [3]stl.Vec3{stl.Vec3(d.Vertex1), stl.Vec3(d.Vertex2), stl.Vec3(d.Vertex3)},
		}
	}
	return solid.WriteAll(w)
}

// ReadSTL reads a binary or ASCII STL file and returns its triangles.
// Vertices are validated and stored normals are ignored.
func ReadSTL(r io.ReadSeeker) ([]Triangle3, error) {
	var magic [5]byte
	n, err := io.ReadFull(r, magic[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if n == len(magic) && bytes.Equal(magic[:], []byte("solid")) {
		// Some binary headers also start with "solid", the STL library
		// tells both apart.
		solid, err := stl.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return fromSolid(solid)
	}
	model, err := readBinarySTL(r)
	if errors.Is(err, errCalculatedNormalMismatch) {
		// Stored normals are not used.
		err = nil
	}
	return model, err
}

func fromSolid(solid *stl.Solid) ([]Triangle3, error) {
	if len(solid.Triangles) == 0 {
		return nil, errEmptyModel
	}
	model := make([]Triangle3, len(solid.Triangles))
	for i, t := range solid.Triangles {
		d := stlTriangle{
			Normal:  [3]float32(t.Normal),
			Vertex1: [3]float32(t.Vertices[0]),
			Vertex2: [3]float32(t.Vertices[1]),
			Vertex3: [3]float32(t.Vertices[2]),
		}
		if bad3F32(d.Vertex1) || bad3F32(d.Vertex2) || bad3F32(d.Vertex3) {
			return nil, fmt.Errorf("triangle %d: inf/NaN STL triangle vertex", i)
		}
		model[i] = Triangle3{V: [3]r3.Vec{
			r3From3F32(d.Vertex1),
			r3From3F32(d.Vertex2),
			r3From3F32(d.Vertex3),
		}}
	}
	return model, nil
}
