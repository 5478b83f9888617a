package form3

import (
	"fmt"
	"runtime/debug"

	"github.com/soypat/qrplaque/form3/must3"
	"github.com/soypat/qrplaque/sdf"
	"gonum.org/v1/gonum/spatial/r3"
)

type shapeErr struct {
	panicObj interface{}
	stack    string
}

func (s *shapeErr) Error() string {
	return fmt.Sprintf("%s", s.panicObj)
}

// Box return an SDF3 for a 3d box (rounded corners with round > 0).
func Box(size r3.Vec, round float64) (s sdf.SDF3, err error) {
	defer func() {
		if a := recover(); a != nil {
			err = &shapeErr{
				panicObj: a,
				stack:    string(debug.Stack()),
			}
		}
	}()
	return must3.Box(size, round), err
}

// Cuboid returns a sharp cornered box spanning [min, max].
func Cuboid(min, max r3.Vec) (sdf.SDF3, error) {
	b, err := Box(r3.Sub(max, min), 0)
	if err != nil {
		return nil, err
	}
	return sdf.Translate3D(b, r3.Scale(0.5, r3.Add(min, max))), nil
}

// Extrude sweeps s along z so the result spans z = [0, height].
func Extrude(s sdf.SDF2, height float64) (s3 sdf.SDF3, err error) {
	defer func() {
		if a := recover(); a != nil {
			err = &shapeErr{
				panicObj: a,
				stack:    string(debug.Stack()),
			}
		}
	}()
	return sdf.Translate3D(sdf.Extrude3D(s, height), r3.Vec{Z: height / 2}), err
}
