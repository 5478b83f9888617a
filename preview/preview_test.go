package preview

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/qrplaque/form3"
	"github.com/soypat/qrplaque/render"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestImage(t *testing.T) {
	box, err := form3.Cuboid(r3.Vec{}, r3.Vec{X: 4, Y: 4, Z: 1})
	if err != nil {
		t.Fatal(err)
	}
	model, err := render.RenderAll(render.NewOctreeRenderer(box, 0.25))
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	opts.Width, opts.Height = 64, 48
	img, err := Image(model, opts)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("image size %v", b)
	}
	// The box is centered in view so the center pixel is not background.
	bg := color.NRGBAModel.Convert(img.At(0, 0))
	if c := color.NRGBAModel.Convert(img.At(32, 24)); c == bg {
		t.Error("center pixel is background, mesh not drawn")
	}
	path := filepath.Join(t.TempDir(), "box.png")
	if err := SavePNG(path, model, opts); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("png not written: %v", err)
	}
	if _, err := Image(nil, opts); err == nil {
		t.Error("expected error for empty model")
	}
}
