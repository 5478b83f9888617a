package plaque

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/qrplaque/form2/obj2"
	"github.com/soypat/qrplaque/form3"
	"github.com/soypat/qrplaque/glyph"
	"github.com/soypat/qrplaque/helpers/matter"
	"github.com/soypat/qrplaque/outline"
	"github.com/soypat/qrplaque/qrsvg"
	"github.com/soypat/qrplaque/render"
	"github.com/soypat/qrplaque/sdf"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// qrFixture returns three finder-like squares and a center dot spanning
// the whole size x size QR square.
func qrFixture(size float64) []outline.Shape {
	const f = 20
	return []outline.Shape{
		outline.Rect(r2.Vec{X: 0, Y: size - f}, r2.Vec{X: f, Y: size}),
		outline.Rect(r2.Vec{X: size - f, Y: size - f}, r2.Vec{X: size, Y: size}),
		outline.Rect(r2.Vec{X: 0, Y: 0}, r2.Vec{X: f, Y: f}),
		outline.Rect(r2.Vec{X: size/2 - 5, Y: size/2 - 5}, r2.Vec{X: size/2 + 5, Y: size/2 + 5}),
	}
}

type fixtureSource struct {
	shapes []outline.Shape
	err    error
}

func (s fixtureSource) Shapes(ctx context.Context) ([]outline.Shape, error) {
	return s.shapes, s.err
}

func TestFrameArea(t *testing.T) {
	p, err := DefaultConfig().Plaque(false)
	if err != nil {
		t.Fatal(err)
	}
	plate, err := BuildPlate(p, 1.62)
	if err != nil {
		t.Fatal(err)
	}
	want := 160*160 - 154*154.
	if got := plate.Frame.Area(); got != want {
		t.Errorf("frame area %g, want %g", got, want)
	}
	if err := plate.Frame.Validate(); err != nil {
		t.Error(err)
	}
	// Center of the plate is open, the frame band is solid.
	if d := plate.Border.Evaluate(r3.Vec{X: 80, Y: 80, Z: 0.8}); d <= 0 {
		t.Errorf("border covers plate center, distance %g", d)
	}
	if d := plate.Border.Evaluate(r3.Vec{X: 1.5, Y: 80, Z: 0.8}); d >= 0 {
		t.Errorf("border band not solid, distance %g", d)
	}
}

func TestBuildPlateErrors(t *testing.T) {
	p, _ := DefaultConfig().Plaque(false)
	for _, b := range []float64{80, 100} {
		q := p
		q.BorderWidth = b
		if _, err := BuildPlate(q, 1); !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("border %g: want ErrInvalidDimensions, got %v", b, err)
		}
	}
	if _, err := BuildPlate(p, 0); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("zero border height: want ErrInvalidDimensions, got %v", err)
	}
}

func TestExtrudeVolume(t *testing.T) {
	const h = 2.0
	lshape := outline.Shape{Rings: []outline.Ring{{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 10}, {X: 0, Y: 10},
	}}}
	solids, err := Extrude([]outline.Shape{lshape}, h)
	if err != nil {
		t.Fatal(err)
	}
	if len(solids) != 1 {
		t.Fatalf("got %d solids", len(solids))
	}
	bb := solids[0].Bounds()
	if bb.Min.Z != 0 || bb.Max.Z != h {
		t.Errorf("extrusion spans z [%g,%g], want [0,%g]", bb.Min.Z, bb.Max.Z, h)
	}
	model, err := render.RenderAll(render.NewOctreeRenderer(solids[0], 0.2))
	if err != nil {
		t.Fatal(err)
	}
	want := lshape.Area() * h
	if got := render.Volume(model); math.Abs(got-want)/want > 0.03 {
		t.Errorf("volume %g, want %g", got, want)
	}
}

func TestExtrudeErrors(t *testing.T) {
	square := outline.Rect(r2.Vec{}, r2.Vec{X: 1, Y: 1})
	for _, test := range []struct {
		name   string
		shapes []outline.Shape
		h      float64
		want   error
	}{
		{"zero height", []outline.Shape{square}, 0, ErrInvalidDimensions},
		{"negative height", []outline.Shape{square}, -1, ErrInvalidDimensions},
		{"no rings", []outline.Shape{{}}, 1, ErrInvalidGeometry},
		{"two vertices", []outline.Shape{{Rings: []outline.Ring{{{}, {X: 1}}}}}, 1, ErrInvalidGeometry},
		{"collinear", []outline.Shape{{Rings: []outline.Ring{{{}, {X: 1}, {X: 2}}}}}, 1, ErrInvalidGeometry},
		{"nan", []outline.Shape{{Rings: []outline.Ring{{{}, {X: 1}, {X: math.NaN(), Y: 1}}}}}, 1, ErrInvalidGeometry},
	} {
		_, err := Extrude(test.shapes, test.h)
		if !errors.Is(err, test.want) {
			t.Errorf("%s: want %v, got %v", test.name, test.want, err)
		}
	}
	solids, err := Extrude(nil, 1)
	if err != nil || len(solids) != 0 {
		t.Errorf("empty input: %d solids, err %v", len(solids), err)
	}
}

func TestComposeNoLettering(t *testing.T) {
	cfg := DefaultConfig()
	m, err := Compose(cfg, qrFixture(cfg.QRSize()), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := Plaque{Width: 160, Height: 160, Thickness: 6.48, BorderWidth: 3, QRMargin: 8, QRSize: 144, MountHoleMargin: 5.5}
	if m.Plaque != want {
		t.Errorf("plaque %+v, want %+v", m.Plaque, want)
	}
	if len(m.Parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(m.Parts))
	}
	for i, name := range []string{PartPlate, PartBorder, PartQR} {
		if m.Parts[i].Name != name {
			t.Errorf("part %d is %q, want %q", i, m.Parts[i].Name, name)
		}
	}
	qr := m.Part(PartQR).Bounds()
	const tol = 1e-9
	if math.Abs(qr.Min.X-8) > tol || math.Abs(qr.Max.X-152) > tol || math.Abs(qr.Max.Y-152) > tol || math.Abs(qr.Min.Y-8) > tol {
		t.Errorf("qr placed at %+v", qr)
	}
	if math.Abs(qr.Min.Z-6.48) > tol || math.Abs(qr.Max.Z-8.1) > tol {
		t.Errorf("qr not flush on plate top: z [%g,%g]", qr.Min.Z, qr.Max.Z)
	}
	border := m.Part(PartBorder).Bounds()
	if math.Abs(border.Min.Z-6.48) > tol {
		t.Errorf("border base at z %g", border.Min.Z)
	}
	// The QR sits inside the union.
	if d := m.Solid().Evaluate(r3.Vec{X: 18, Y: 142, Z: 7.3}); d >= 0 {
		t.Errorf("qr module missing from union, distance %g", d)
	}
	if d := m.Solid().Evaluate(r3.Vec{X: 60, Y: 60, Z: 7.3}); d <= 0 {
		t.Errorf("gap between QR modules filled, distance %g", d)
	}
}

func TestComposeLettering(t *testing.T) {
	cfg := DefaultConfig()
	text, err := glyph.Default().Outline("Room 5", cfg.LetteringSize, cfg.LetteringSpacing)
	if err != nil {
		t.Fatal(err)
	}
	m, err := Compose(cfg, qrFixture(cfg.QRSize()), text)
	if err != nil {
		t.Fatal(err)
	}
	if m.Plaque.Height != 175 {
		t.Errorf("plate height %g, want 175", m.Plaque.Height)
	}
	if len(m.Parts) != 4 || m.Parts[3].Name != PartLettering {
		t.Fatalf("want 4 parts ending in lettering, got %d", len(m.Parts))
	}
	lb := m.Part(PartLettering).Bounds()
	if c := (lb.Min.X + lb.Max.X) / 2; math.Abs(c-80) > 1e-9 {
		t.Errorf("lettering centered at x=%g, want 80", c)
	}
	// baseline at qrBottom - 9 - 5 = 23 - 14.
	if lb.Min.Y < 8 || lb.Max.Y > 23 {
		t.Errorf("lettering band y [%g,%g] outside [8,23]", lb.Min.Y, lb.Max.Y)
	}
	qr := m.Part(PartQR).Bounds()
	if math.Abs(qr.Max.Y-167) > 1e-9 {
		t.Errorf("qr top at %g, want 167", qr.Max.Y)
	}
}

func TestComposeEmptyLetteringIsAbsent(t *testing.T) {
	cfg := DefaultConfig()
	a, err := Compose(cfg, qrFixture(cfg.QRSize()), nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compose(cfg, qrFixture(cfg.QRSize()), []outline.Shape{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Plaque != b.Plaque || len(a.Parts) != len(b.Parts) {
		t.Fatalf("nil and empty lettering differ: %+v vs %+v", a.Plaque, b.Plaque)
	}
	for _, p := range []r3.Vec{{X: 10, Y: 10, Z: 7}, {X: 80, Y: 80, Z: 3}, {X: 1, Y: 159, Z: 7.5}, {X: 200, Y: 0, Z: 0}} {
		if da, db := a.Solid().Evaluate(p), b.Solid().Evaluate(p); da != db {
			t.Errorf("at %v: %g != %g", p, da, db)
		}
	}
}

func TestComposeDimensionErrors(t *testing.T) {
	qr := qrFixture(10)
	for _, test := range []struct {
		name string
		mod  func(*Config)
	}{
		{"margin half width", func(c *Config) { c.QRMargin = 80 }},
		{"margin over half width", func(c *Config) { c.QRMargin = 100 }},
		{"border too wide", func(c *Config) { c.BorderWidth = 80 }},
		{"qr taller than plate", func(c *Config) { c.Height = 100 }},
		{"negative thickness", func(c *Config) { c.Thickness = -1 }},
	} {
		cfg := DefaultConfig()
		test.mod(&cfg)
		_, err := Compose(cfg, qr, nil)
		if !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("%s: want ErrInvalidDimensions, got %v", test.name, err)
		}
	}
	cfg := DefaultConfig()
	if _, err := Compose(cfg, qrFixture(200), nil); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("oversized qr: want ErrInvalidDimensions, got %v", err)
	}
	if _, err := Compose(cfg, nil, nil); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("no qr: want ErrInvalidGeometry, got %v", err)
	}
}

func testGenerator(cfg Config) *Generator {
	return &Generator{
		Config: cfg,
		Export: ExportOptions{Encoding: render.Binary, Resolution: 2},
		QR:     fixtureSource{shapes: qrFixture(cfg.QRSize())},
		Text:   glyph.Default(),
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	if testing.Short() {
		t.Skip("renders two plaques")
	}
	g := testGenerator(DefaultConfig())
	var b1, b2 bytes.Buffer
	if err := g.Run(context.Background(), "Room 5", &b1); err != nil {
		t.Fatal(err)
	}
	if err := g.Run(context.Background(), "Room 5", &b2); err != nil {
		t.Fatal(err)
	}
	if b1.Len() == 0 || !bytes.Equal(b1.Bytes(), b2.Bytes()) {
		t.Error("pipeline output is not byte identical across runs")
	}
	model, err := render.ReadSTL(bytes.NewReader(b1.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	bb := render.Bounds(model)
	size := r3.Sub(bb.Max, bb.Min)
	if math.Abs(size.X-160) > 2 || math.Abs(size.Y-175) > 2 || math.Abs(size.Z-8.1) > 2 {
		t.Errorf("mesh size %v, want about 160x175x8.1", size)
	}
}

func TestGeneratorErrors(t *testing.T) {
	cfg := DefaultConfig()
	g := testGenerator(cfg)
	g.QR = fixtureSource{err: errors.New("boom")}
	if _, err := g.Build(context.Background(), ""); !errors.Is(err, ErrExternalService) {
		t.Errorf("failing source: want ErrExternalService, got %v", err)
	}
	g = testGenerator(cfg)
	g.Text = nil
	if _, err := g.Build(context.Background(), "hello"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("no font: want ErrInvalidArgument, got %v", err)
	}
	m, err := g.Build(context.Background(), "   ")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Parts) != 3 || m.Plaque.Height != 160 {
		t.Errorf("blank lettering produced %d parts and height %g", len(m.Parts), m.Plaque.Height)
	}
	g = testGenerator(cfg)
	g.Export.Resolution = 0
	if err := g.Run(context.Background(), "", &bytes.Buffer{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero resolution: want ErrInvalidArgument, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := testGenerator(cfg).Build(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled context: got %v", err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plaque.stl")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write([]byte("partial"))
		if err != nil {
			return err
		}
		return errors.New("render failed")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("failed write left %d files behind", len(entries))
	}
	err = WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write([]byte("solid"))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "solid" {
		t.Errorf("read back %q, err %v", b, err)
	}
}

func TestExportASCII(t *testing.T) {
	cfg := DefaultConfig()
	m, err := Compose(cfg, qrFixture(cfg.QRSize()), nil)
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	err = Export(&b, m, ExportOptions{Encoding: render.ASCII, Resolution: 4})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b.Bytes(), []byte("solid plaque")) {
		t.Errorf("ascii export starts with %q", b.Bytes()[:16])
	}
	if err := Export(&b, m, ExportOptions{Resolution: -1}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative resolution: got %v", err)
	}
}

func TestRenderMaterialCompensation(t *testing.T) {
	cfg := DefaultConfig()
	m, err := Compose(cfg, qrFixture(cfg.QRSize()), nil)
	if err != nil {
		t.Fatal(err)
	}
	maxX := func(opts ExportOptions) float64 {
		model, err := Render(m, opts)
		if err != nil {
			t.Fatal(err)
		}
		x := math.Inf(-1)
		for _, tri := range model {
			for _, v := range tri.V {
				x = math.Max(x, v.X)
			}
		}
		return x
	}
	const tol = 0.05
	if got := maxX(ExportOptions{Resolution: 4}); math.Abs(got-cfg.Width) > tol {
		t.Errorf("nominal width %g, want %g", got, cfg.Width)
	}
	want := cfg.Width * matter.ABS.ScaleFactor()
	if got := maxX(ExportOptions{Resolution: 4, Material: matter.ABS}); math.Abs(got-want) > tol {
		t.Errorf("compensated width %g, want %g", got, want)
	}
}

func TestComposeMountHoles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MountHoleDiameter = 3.2
	m, err := Compose(cfg, qrFixture(cfg.QRSize()), nil)
	if err != nil {
		t.Fatal(err)
	}
	holes := m.Plaque.MountHoles()
	if len(holes) != 4 {
		t.Fatalf("got %d mount holes, want 4", len(holes))
	}
	mid := cfg.Thickness / 2
	for _, c := range holes {
		if d := m.Solid().Evaluate(r3.Vec{X: c.X, Y: c.Y, Z: mid}); d <= 0 {
			t.Errorf("hole at %v is filled, distance %g", c, d)
		}
		beside := r3.Vec{X: 80, Y: c.Y, Z: mid}
		if d := m.Solid().Evaluate(beside); d >= 0 {
			t.Errorf("plate missing at %v, distance %g", beside, d)
		}
	}
	if got := (Plaque{}).MountHoles(); got != nil {
		t.Errorf("plate without holes has centers %v", got)
	}

	// Holes must clear the border and the QR square.
	cfg.MountHoleDiameter = 6
	if _, err := Compose(cfg, qrFixture(cfg.QRSize()), nil); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("hole into border: got %v", err)
	}

	cfg.MountHoleDiameter = 3.2
	wide := []outline.Shape{outline.Rect(r2.Vec{X: 0, Y: -3}, r2.Vec{X: 158, Y: 5})}
	if _, err := Compose(cfg, qrFixture(cfg.QRSize()), wide); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("hole into lettering: got %v", err)
	}
	narrow := []outline.Shape{outline.Rect(r2.Vec{X: 0, Y: -3}, r2.Vec{X: 40, Y: 5})}
	if _, err := Compose(cfg, qrFixture(cfg.QRSize()), narrow); err != nil {
		t.Errorf("centered lettering between holes: %v", err)
	}
}

func TestPlateHolesMatchDifference(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MountHoleDiameter = 3.2
	p, err := cfg.Plaque(false)
	if err != nil {
		t.Fatal(err)
	}
	plate, err := BuildPlate(p, cfg.BorderExtrude)
	if err != nil {
		t.Fatal(err)
	}
	// Reference: the slab minus one prism per hole.
	panel, err := obj2.Panel(p.panel())
	if err != nil {
		t.Fatal(err)
	}
	var holes []outline.Shape
	for _, r := range panel.Rings[1:] {
		holes = append(holes, outline.Shape{Rings: []outline.Ring{r.Reversed()}})
	}
	prisms, err := Extrude(holes, p.Thickness)
	if err != nil {
		t.Fatal(err)
	}
	slab, err := form3.Cuboid(r3.Vec{}, r3.Vec{X: p.Width, Y: p.Height, Z: p.Thickness})
	if err != nil {
		t.Fatal(err)
	}
	want := sdf.Difference3D(slab, sdf.Union3D(prisms...))
	rng := rand.New(rand.NewSource(1))
	const eps = 1e-6
	for i := 0; i < 5000; i++ {
		// Concentrate samples around the bottom left hole.
		pt := r3.Vec{X: rng.Float64() * 11, Y: rng.Float64() * 11, Z: rng.Float64() * p.Thickness}
		if i%2 == 0 {
			pt.X += p.Width - 11
		}
		got, ref := plate.Base.Evaluate(pt), want.Evaluate(pt)
		if math.Abs(got) < eps || math.Abs(ref) < eps {
			continue
		}
		if (got < 0) != (ref < 0) {
			t.Fatalf("at %v plate distance %g, reference %g", pt, got, ref)
		}
	}
}

func TestBuildDefaultQR(t *testing.T) {
	cfg := DefaultConfig()
	src, err := qrsvg.NewSource("https://example.com", qrsvg.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	g := &Generator{Config: cfg, QR: src}
	m, err := g.Build(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if m.Plaque.Width != 160 || m.Plaque.Height != 160 || m.Plaque.Thickness != 6.48 || m.Plaque.QRSize != 144 {
		t.Errorf("plaque %+v", m.Plaque)
	}
	if len(m.Parts) != 3 || m.Part(PartLettering) != nil {
		t.Fatalf("got %d parts, want plate, border and qr", len(m.Parts))
	}
	qr := m.Part(PartQR).Bounds()
	const tol = 1e-6
	if qr.Min.X < 8-tol || qr.Max.X > 152+tol || qr.Min.Y < 8-tol || qr.Max.Y > 152+tol {
		t.Errorf("qr outside its square: %+v", qr)
	}
	if size := qr.Max.X - qr.Min.X; math.Abs(size-144) > tol {
		t.Errorf("qr width %g, want 144", size)
	}
}
