// Package matter compensates printed parts for material shrinkage.
package matter

import (
	"fmt"
	"strings"

	"github.com/soypat/qrplaque/sdf"
)

var (
	// PLA (polylactic acid) is the most widely used plastic filament material in 3D printing.
	PLA = ViscousMaterial{Name: "pla", shrink: 0.2e-2} // 0.2% shrinkage
	// PETG shrinks slightly more than PLA.
	PETG = ViscousMaterial{Name: "petg", shrink: 0.4e-2}
	// ABS shrinks noticeably as it cools and benefits most from compensation.
	ABS = ViscousMaterial{Name: "abs", shrink: 0.7e-2}
)

// ViscousMaterial is a thermoplastic filament.
type ViscousMaterial struct {
	Name string
	// shrink is the thermal contraction shrinkage of a material once the material
	// cools to room temperature after the heated bed is turned off.
	shrink float64
}

// Lookup returns the material with the given name, case insensitive.
func Lookup(name string) (ViscousMaterial, error) {
	for _, m := range []ViscousMaterial{PLA, PETG, ABS} {
		if strings.EqualFold(name, m.Name) {
			return m, nil
		}
	}
	return ViscousMaterial{}, fmt.Errorf("unknown material %q", name)
}

// Shrink returns the linear shrinkage fraction.
func (m ViscousMaterial) Shrink() float64 { return m.shrink }

// ScaleFactor returns the enlargement that cancels shrinkage.
func (m ViscousMaterial) ScaleFactor() float64 { return 1 / (1 - m.shrink) }

// Scale enlarges s about the origin so it cools to its nominal size.
func (m ViscousMaterial) Scale(s sdf.SDF3) sdf.SDF3 {
	if m.shrink == 0 {
		return s
	}
	return sdf.ScaleUniform3D(s, m.ScaleFactor())
}
