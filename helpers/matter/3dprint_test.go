package matter

import (
	"math"
	"testing"

	"github.com/soypat/qrplaque/form3"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestScaleCancelsShrink(t *testing.T) {
	box, err := form3.Cuboid(r3.Vec{}, r3.Vec{X: 160, Y: 160, Z: 6.48})
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range []ViscousMaterial{PLA, PETG, ABS} {
		bb := m.Scale(box).Bounds()
		cooled := bb.Max.X * (1 - m.Shrink())
		if math.Abs(cooled-160) > 1e-9 {
			t.Errorf("%s: printed %g shrinks to %g, want 160", m.Name, bb.Max.X, cooled)
		}
	}
	if s := (ViscousMaterial{}).Scale(box); s != box {
		t.Error("zero shrink material should not wrap the solid")
	}
}

func TestLookup(t *testing.T) {
	m, err := Lookup("PLA")
	if err != nil || m != PLA {
		t.Errorf("Lookup(PLA) = %v, %v", m, err)
	}
	if _, err := Lookup("wood"); err == nil {
		t.Error("expected error for unknown material")
	}
}
