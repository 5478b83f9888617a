package plaque

import (
	"fmt"
	"math"

	"github.com/soypat/qrplaque/form2"
	"github.com/soypat/qrplaque/form2/obj2"
	"github.com/soypat/qrplaque/form3"
	"github.com/soypat/qrplaque/outline"
	"github.com/soypat/qrplaque/sdf"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Extrude sweeps every shape into a right prism spanning z = [0, h].
// The result has one solid per shape in input order.
func Extrude(shapes []outline.Shape, h float64) ([]sdf.SDF3, error) {
	if !(h > 0) || math.IsInf(h, 0) {
		return nil, fmt.Errorf("%w: extrusion height %g", ErrInvalidDimensions, h)
	}
	solids := make([]sdf.SDF3, 0, len(shapes))
	for i, shape := range shapes {
		if err := shape.Validate(); err != nil {
			return nil, fmt.Errorf("%w: shape %d: %w", ErrInvalidGeometry, i, err)
		}
		s2, err := form2.Outline(shape)
		if err != nil {
			return nil, fmt.Errorf("%w: shape %d: %w", ErrInvalidGeometry, i, err)
		}
		s3, err := form3.Extrude(s2, h)
		if err != nil {
			return nil, fmt.Errorf("%w: shape %d: %w", ErrInvalidGeometry, i, err)
		}
		solids = append(solids, s3)
	}
	return solids, nil
}

// Plate is the base slab and the picture frame border that sits on it.
type Plate struct {
	// Base spans [0,W]x[0,H]x[0,T] minus any mount holes.
	Base sdf.SDF3
	// Border is the frame extruded from z = 0. It is placed on the plate
	// by the composer.
	Border sdf.SDF3
	// Frame is the exact planar outline of Border.
	Frame outline.Shape
}

// plateBase returns the slab, pierced by the mount holes if p has any.
func plateBase(p Plaque) (sdf.SDF3, error) {
	if p.MountHoleDiameter <= 0 {
		base, err := form3.Cuboid(r3.Vec{}, r3.Vec{X: p.Width, Y: p.Height, Z: p.Thickness})
		if err != nil {
			return nil, fmt.Errorf("%w: plate: %w", ErrInvalidGeometry, err)
		}
		return base, nil
	}
	panel, err := obj2.Panel(p.panel())
	if err != nil {
		return nil, fmt.Errorf("%w: plate: %w", ErrInvalidDimensions, err)
	}
	solids, err := Extrude([]outline.Shape{panel}, p.Thickness)
	if err != nil {
		return nil, err
	}
	return solids[0], nil
}

// BuildPlate returns the base slab of p and its border of height borderHeight.
// The border is the plate rectangle minus a rectangle inset by the border
// width on every side.
func BuildPlate(p Plaque, borderHeight float64) (Plate, error) {
	w, h, b := p.Width, p.Height, p.BorderWidth
	switch {
	case !(w > 0 && h > 0 && p.Thickness > 0):
		return Plate{}, fmt.Errorf("%w: plate %gx%gx%g", ErrInvalidDimensions, w, h, p.Thickness)
	case !(b > 0):
		return Plate{}, fmt.Errorf("%w: border width %g", ErrInvalidDimensions, b)
	case w <= 2*b || h <= 2*b:
		return Plate{}, fmt.Errorf("%w: %g border does not fit %gx%g plate", ErrInvalidDimensions, b, w, h)
	case !(borderHeight > 0):
		return Plate{}, fmt.Errorf("%w: border height %g", ErrInvalidDimensions, borderHeight)
	}
	base, err := plateBase(p)
	if err != nil {
		return Plate{}, err
	}
	outer, err := form2.Rect(r2.Vec{}, r2.Vec{X: w, Y: h})
	if err != nil {
		return Plate{}, fmt.Errorf("%w: border: %w", ErrInvalidGeometry, err)
	}
	inner, err := form2.Rect(r2.Vec{X: b, Y: b}, r2.Vec{X: w - b, Y: h - b})
	if err != nil {
		return Plate{}, fmt.Errorf("%w: border: %w", ErrInvalidGeometry, err)
	}
	border, err := form3.Extrude(sdf.Difference2D(outer, inner), borderHeight)
	if err != nil {
		return Plate{}, fmt.Errorf("%w: border: %w", ErrInvalidGeometry, err)
	}
	return Plate{
		Base:   base,
		Border: border,
		Frame:  outline.Frame(w, h, b),
	}, nil
}
