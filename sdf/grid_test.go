package sdf_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/soypat/qrplaque/form3/must3"
	"github.com/soypat/qrplaque/sdf"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestGridUnionMatchesUnion(t *testing.T) {
	const cell = 2.0
	var objs []sdf.SDF3
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			b := must3.Box(r3.Vec{X: 1.5, Y: 1.5, Z: 1}, 0.2)
			objs = append(objs, sdf.Translate3D(b, r3.Vec{X: float64(i) * 3, Y: float64(j) * 3}))
		}
	}
	grid := sdf.GridUnion3D(cell, objs...)
	union := sdf.Union3D(objs...)
	if grid.Bounds() != union.Bounds() {
		t.Errorf("bounds differ: %v != %v", grid.Bounds(), union.Bounds())
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		p := r3.Vec{X: rng.Float64()*20 - 3, Y: rng.Float64()*20 - 3, Z: rng.Float64()*4 - 2}
		want := union.Evaluate(p)
		got := grid.Evaluate(p)
		switch {
		case want < cell && math.Abs(got-want) > 1e-12:
			t.Fatalf("at %v near surface: grid %g, union %g", p, got, want)
		case got > want+1e-12:
			t.Fatalf("at %v: grid %g exceeds true distance %g", p, got, want)
		}
		if (got < 0) != (want < 0) {
			t.Fatalf("at %v: inside test differs", p)
		}
	}
}

func TestScaleUniform(t *testing.T) {
	b := must3.Box(r3.Vec{X: 2, Y: 2, Z: 2}, 0)
	s := sdf.ScaleUniform3D(b, 3)
	bb := s.Bounds()
	if bb.Min != (r3.Vec{X: -3, Y: -3, Z: -3}) || bb.Max != (r3.Vec{X: 3, Y: 3, Z: 3}) {
		t.Errorf("scaled bounds %v", bb)
	}
	for _, p := range []r3.Vec{{X: 5}, {Y: -2}, {Z: 3}} {
		want := b.Evaluate(r3.Scale(1.0/3, p)) * 3
		if got := s.Evaluate(p); math.Abs(got-want) > 1e-12 {
			t.Errorf("Evaluate(%v) = %g, want %g", p, got, want)
		}
	}
	if d := s.Evaluate(r3.Vec{X: 5}); math.Abs(d-2) > 1e-12 {
		t.Errorf("distance outside scaled box %g, want 2", d)
	}
}
