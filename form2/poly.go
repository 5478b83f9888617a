package form2

import (
	"runtime/debug"

	"github.com/soypat/qrplaque/form2/must2"
	"github.com/soypat/qrplaque/outline"
	"github.com/soypat/qrplaque/sdf"
	"gonum.org/v1/gonum/spatial/r2"
)

// Outline returns the SDF2 of a planar shape. The shape's rings are
// evaluated with the non-zero winding rule so it should be normalized first.
func Outline(shape outline.Shape) (s sdf.SDF2, err error) {
	defer func() {
		if a := recover(); a != nil {
			err = &shapeErr{
				panicObj: a,
				stack:    string(debug.Stack()),
			}
		}
	}()
	rings := make([][]r2.Vec, len(shape.Rings))
	for i, r := range shape.Rings {
		rings[i] = r
	}
	return must2.MultiPolygon(rings), err
}
