package form2

import (
	"fmt"
	"runtime/debug"

	"github.com/soypat/qrplaque/form2/must2"
	"github.com/soypat/qrplaque/sdf"
	"gonum.org/v1/gonum/spatial/r2"
)

type shapeErr struct {
	panicObj interface{}
	stack    string
}

func (s *shapeErr) Error() string {
	return fmt.Sprintf("%s", s.panicObj)
}

// Box returns a 2d box centered at the origin.
func Box(size r2.Vec, round float64) (s sdf.SDF2, err error) {
	defer func() {
		if a := recover(); a != nil {
			err = &shapeErr{
				panicObj: a,
				stack:    string(debug.Stack()),
			}
		}
	}()
	return must2.Box(size, round), err
}

// Rect returns a sharp cornered box spanning [min, max].
func Rect(min, max r2.Vec) (sdf.SDF2, error) {
	size := r2.Sub(max, min)
	b, err := Box(size, 0)
	if err != nil {
		return nil, err
	}
	return sdf.Translate2D(b, r2.Scale(0.5, r2.Add(min, max))), nil
}
