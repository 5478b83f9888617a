package form2

import (
	"math"
	"testing"

	"github.com/soypat/qrplaque/outline"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestOutlineWithHole(t *testing.T) {
	s, err := Outline(outline.Frame(10, 10, 2))
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		p    r2.Vec
		want float64
	}{
		{r2.Vec{X: 1, Y: 5}, -1},  // in the band
		{r2.Vec{X: 5, Y: 5}, 3},   // center of hole
		{r2.Vec{X: -2, Y: 5}, 2},  // outside left
		{r2.Vec{X: 13, Y: 14}, 5}, // outside corner
	} {
		if got := s.Evaluate(test.p); math.Abs(got-test.want) > 1e-12 {
			t.Errorf("Evaluate(%v) = %g, want %g", test.p, got, test.want)
		}
	}
	bb := s.Bounds()
	if bb.Min != (r2.Vec{}) || bb.Max != (r2.Vec{X: 10, Y: 10}) {
		t.Errorf("bounds %+v", bb)
	}
}

func TestOutlineErrors(t *testing.T) {
	for _, vertex := range [][]r2.Vec{
		nil,
		{{}, {X: 1}},
		{{}, {X: 1}, {}},
		{{}, {X: math.NaN()}, {Y: 1}},
	} {
		shape := outline.Shape{Rings: []outline.Ring{vertex}}
		if _, err := Outline(shape); err == nil {
			t.Errorf("Outline(%v): expected error", vertex)
		}
	}
	if _, err := Outline(outline.Shape{}); err == nil {
		t.Error("Outline of empty shape: expected error")
	}
}

func TestRect(t *testing.T) {
	s, err := Rect(r2.Vec{X: 1, Y: 2}, r2.Vec{X: 5, Y: 4})
	if err != nil {
		t.Fatal(err)
	}
	if d := s.Evaluate(r2.Vec{X: 3, Y: 3}); d != -1 {
		t.Errorf("center distance %g, want -1", d)
	}
	bb := s.Bounds()
	if bb.Min != (r2.Vec{X: 1, Y: 2}) || bb.Max != (r2.Vec{X: 5, Y: 4}) {
		t.Errorf("bounds %+v", bb)
	}
	if _, err := Rect(r2.Vec{X: 1}, r2.Vec{}); err == nil {
		t.Error("inverted rect: expected error")
	}
	if _, err := Box(r2.Vec{X: 1, Y: 1}, 0.6); err == nil {
		t.Error("over rounded box: expected error")
	}
}
