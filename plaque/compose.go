package plaque

import (
	"fmt"
	"math"

	"github.com/soypat/qrplaque/outline"
	"github.com/soypat/qrplaque/sdf"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Part names in composition order.
const (
	PartPlate     = "plate"
	PartBorder    = "border"
	PartQR        = "qr"
	PartLettering = "lettering"
)

// minGridCell is the smallest cell of the spatial grid used to union many
// embossed shapes.
const minGridCell = 4

// placeTol is the slack allowed when checking QR outlines against the QR square.
const placeTol = 1e-6

// Part is a named top level solid of a Model.
type Part struct {
	Name  string
	Solid sdf.SDF3
}

// Model is a composed plaque.
type Model struct {
	Plaque Plaque
	Parts  []Part
	solid  sdf.SDF3
}

// Solid returns the union of all parts.
func (m *Model) Solid() sdf.SDF3 { return m.solid }

// Part returns the named part or nil if absent.
func (m *Model) Part(name string) sdf.SDF3 {
	for _, p := range m.Parts {
		if p.Name == name {
			return p.Solid
		}
	}
	return nil
}

// Compose lays out the plaque. qr outlines are given in a frame where the
// QR square spans [0,QRSize] on both axes. The square is placed QRMargin
// from the left and top plate edges. lettering outlines have their
// baseline on y = 0; they are centered horizontally and set below the QR.
// A nil or empty lettering omits the lettering part and keeps the plate
// square.
func Compose(cfg Config, qr []outline.Shape, lettering []outline.Shape) (*Model, error) {
	hasLettering := len(lettering) > 0
	p, err := cfg.Plaque(hasLettering)
	if err != nil {
		return nil, err
	}
	if len(qr) == 0 {
		return nil, fmt.Errorf("%w: no QR outlines", ErrInvalidGeometry)
	}
	plate, err := BuildPlate(p, cfg.BorderExtrude)
	if err != nil {
		return nil, err
	}
	cell := math.Max(minGridCell, cfg.Resolution)
	top := r3.Vec{Z: p.Thickness}

	bb := outline.Bounds(qr)
	if bb.Min.X < -placeTol || bb.Min.Y < -placeTol || bb.Max.X > p.QRSize+placeTol || bb.Max.Y > p.QRSize+placeTol {
		return nil, fmt.Errorf("%w: QR outline bounds %v exceed %g square", ErrInvalidDimensions, bb, p.QRSize)
	}
	qrSolid, err := emboss(translate(qr, r2.Vec{X: p.QRMargin, Y: p.QRBottom()}), cfg.QRExtrude, cell)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	parts := []Part{
		{Name: PartPlate, Solid: plate.Base},
		{Name: PartBorder, Solid: sdf.Translate3D(plate.Border, top)},
		{Name: PartQR, Solid: sdf.Translate3D(qrSolid, top)},
	}
	if hasLettering {
		lb := outline.Bounds(lettering)
		offset := r2.Vec{
			X: p.Width/2 - (lb.Min.X+lb.Max.X)/2,
			Y: p.QRBottom() - cfg.LetteringGap - cfg.LetteringHalfHeight,
		}
		placed := translate(lettering, offset)
		if err := checkHoleClearance(p, outline.Bounds(placed)); err != nil {
			return nil, err
		}
		text, err := emboss(placed, cfg.LetteringExtrude, cell)
		if err != nil {
			return nil, fmt.Errorf("lettering: %w", err)
		}
		parts = append(parts, Part{Name: PartLettering, Solid: sdf.Translate3D(text, top)})
	}
	solids := make([]sdf.SDF3, len(parts))
	for i := range parts {
		solids[i] = parts[i].Solid
	}
	return &Model{
		Plaque: p,
		Parts:  parts,
		solid:  sdf.Union3D(solids...),
	}, nil
}

// checkHoleClearance fails if a mount hole cuts into box.
func checkHoleClearance(p Plaque, box r2.Box) error {
	r := p.mountHoleRadius()
	for _, c := range p.MountHoles() {
		if c.X+r > box.Min.X && c.X-r < box.Max.X && c.Y+r > box.Min.Y && c.Y-r < box.Max.Y {
			return fmt.Errorf("%w: mount hole at %v overlaps lettering %v", ErrInvalidDimensions, c, box)
		}
	}
	return nil
}

func translate(shapes []outline.Shape, v r2.Vec) []outline.Shape {
	out := make([]outline.Shape, len(shapes))
	for i, s := range shapes {
		out[i] = s.Translate(v)
	}
	return out
}

// emboss extrudes shapes to height h and unions them.
func emboss(shapes []outline.Shape, h, cell float64) (sdf.SDF3, error) {
	solids, err := Extrude(shapes, h)
	if err != nil {
		return nil, err
	}
	if len(solids) == 1 {
		return solids[0], nil
	}
	return sdf.GridUnion3D(cell, solids...), nil
}
