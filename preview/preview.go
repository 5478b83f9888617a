// Package preview renders triangle meshes to shaded PNG images.
package preview

import (
	"errors"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/qrplaque/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// View describes the camera. Positions are in the bi-unit cube the mesh
// is fitted into.
type View struct {
	// LookAt is the point the camera looks at.
	LookAt r3.Vec
	// Up is the camera up direction.
	Up r3.Vec
	// Eye is the camera position.
	Eye  r3.Vec
	Near float64
	Far  float64
	// Fovy is the vertical field of view in degrees.
	Fovy float64
}

// Options configures the output image.
type Options struct {
	Width, Height int
	// Supersample renders at a multiple of the output size and
	// downsamples for antialiasing.
	Supersample int
	View        View
}

// DefaultOptions looks at a plaque lying on the xy plane from above and
// slightly to the front.
func DefaultOptions() Options {
	return Options{
		Width:       800,
		Height:      800,
		Supersample: 2,
		View: View{
			Up:   r3.Vec{Y: 1},
			Eye:  r3.Vec{Y: -1.5, Z: 3},
			Near: 1,
			Far:  10,
			Fovy: 40,
		},
	}
}

func v(p r3.Vec) fauxgl.Vector { return fauxgl.V(p.X, p.Y, p.Z) }

// Image renders model with Phong shading.
func Image(model []render.Triangle3, opts Options) (image.Image, error) {
	if len(model) == 0 {
		return nil, errors.New("empty model")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.New("invalid preview size")
	}
	scale := opts.Supersample
	if scale < 1 {
		scale = 1
	}
	tris := make([]*fauxgl.Triangle, len(model))
	for i, t := range model {
		tris[i] = fauxgl.NewTriangleForPoints(v(t.V[0]), v(t.V[1]), v(t.V[2]))
	}
	mesh := fauxgl.NewTriangleMesh(tris)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()

	var (
		view   = opts.View
		eye    = v(view.Eye)
		center = v(view.LookAt)
		up     = v(view.Up)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
		color  = fauxgl.HexColor("#468966")
	)
	context := fauxgl.NewContext(opts.Width*scale, opts.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(opts.Width) / float64(opts.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(view.Fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(mesh)
	img := context.Image()
	if scale > 1 {
		img = resize.Resize(uint(opts.Width), uint(opts.Height), img, resize.Bilinear)
	}
	return img, nil
}

// SavePNG renders model and writes it as a PNG file.
func SavePNG(path string, model []render.Triangle3, opts Options) error {
	img, err := Image(model, opts)
	if err != nil {
		return err
	}
	return Save(path, img)
}

// Save writes img to path as a PNG file.
func Save(path string, img image.Image) error {
	return fauxgl.SavePNG(path, img)
}
