package outline

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestFrame(t *testing.T) {
	f := Frame(160, 175, 3)
	if got, want := f.Area(), 160*175-154*169.; got != want {
		t.Errorf("frame area %g, want %g", got, want)
	}
	if f.Rings[0].SignedArea() <= 0 || f.Rings[1].SignedArea() >= 0 {
		t.Error("frame rings not outer CCW, inner CW")
	}
	bb := f.Bounds()
	if bb.Min != (r2.Vec{}) || bb.Max != (r2.Vec{X: 160, Y: 175}) {
		t.Errorf("frame bounds %+v", bb)
	}
}

func TestNormalizeEvenOdd(t *testing.T) {
	outer := Rect(r2.Vec{}, r2.Vec{X: 10, Y: 10}).Rings[0]
	// hole wound the same way as the outer ring.
	hole := Rect(r2.Vec{X: 2, Y: 2}, r2.Vec{X: 8, Y: 8}).Rings[0]
	island := Rect(r2.Vec{X: 4, Y: 4}, r2.Vec{X: 6, Y: 6}).Rings[0]
	s := Shape{Rings: []Ring{outer.Reversed(), hole, island}}.Normalize(EvenOdd)
	if got, want := s.Area(), 100-36+4.; got != want {
		t.Errorf("even-odd area %g, want %g", got, want)
	}
	if err := s.Validate(); err != nil {
		t.Error(err)
	}
}

func TestNormalizeNonZero(t *testing.T) {
	cw := Rect(r2.Vec{}, r2.Vec{X: 2, Y: 3}).Rings[0].Reversed()
	// closing vertex and repeated vertices are dropped.
	cw = append(Ring{cw[0]}, cw...)
	cw = append(cw, cw[0])
	s := Shape{Rings: []Ring{cw, {{}, {X: 1}}}}.Normalize(NonZero)
	if len(s.Rings) != 1 || len(s.Rings[0]) != 4 {
		t.Fatalf("normalized rings %v", s.Rings)
	}
	if s.Area() != 6 {
		t.Errorf("area %g, want 6", s.Area())
	}
}

func TestValidate(t *testing.T) {
	for _, s := range []Shape{
		{},
		{Rings: []Ring{{{}, {X: 1}}}},
		{Rings: []Ring{{{}, {X: 1}, {X: 2}}}},
		{Rings: []Ring{{{}, {X: math.Inf(1)}, {Y: 1}}}},
		{Rings: []Ring{Rect(r2.Vec{}, r2.Vec{X: 1, Y: 1}).Rings[0].Reversed()}},
	} {
		if err := s.Validate(); !errors.Is(err, ErrDegenerate) {
			t.Errorf("shape %v: want ErrDegenerate, got %v", s.Rings, err)
		}
	}
}

func TestTransformsAreCopies(t *testing.T) {
	s := Rect(r2.Vec{}, r2.Vec{X: 1, Y: 1})
	m := s.Translate(r2.Vec{X: 5}).Scale(2)
	if s.Rings[0][0] != (r2.Vec{}) {
		t.Error("transform mutated input")
	}
	if m.Rings[0][0] != (r2.Vec{X: 10}) || m.Area() != 4 {
		t.Errorf("transformed shape %v area %g", m.Rings, m.Area())
	}
	if TotalArea([]Shape{s, m}) != 5 {
		t.Error("total area mismatch")
	}
	bb := Bounds([]Shape{{}, s, m})
	if bb.Min != (r2.Vec{}) || bb.Max != (r2.Vec{X: 12, Y: 2}) {
		t.Errorf("bounds %+v", bb)
	}
}

func TestContains(t *testing.T) {
	r := Ring{{}, {X: 4}, {X: 4, Y: 4}, {X: 2, Y: 1}, {Y: 4}}
	for _, test := range []struct {
		p    r2.Vec
		want bool
	}{
		{r2.Vec{X: 1, Y: 0.5}, true},
		{r2.Vec{X: 2, Y: 3}, false},
		{r2.Vec{X: 5, Y: 1}, false},
	} {
		if got := r.Contains(test.p); got != test.want {
			t.Errorf("Contains(%v) = %v", test.p, got)
		}
	}
}
