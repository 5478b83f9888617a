// Package plaque composes a QR code plaque: a rectangular plate with a
// raised border, an embossed QR code and optional lettering underneath.
//
// All dimensions are in millimetres. The plate occupies [0,W]x[0,H]x[0,T]
// and every embossed feature sits on its top face at z = T.
package plaque

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/qrplaque/form2/obj2"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// ErrInvalidArgument is returned for missing or malformed inputs.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidGeometry is returned for outlines that cannot be swept into solids.
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrInvalidDimensions is returned when dimensions leave no room for a feature.
	ErrInvalidDimensions = errors.New("invalid dimensions")
	// ErrExternalService is returned when a QR, font or image provider fails.
	ErrExternalService = errors.New("external service failure")
)

// Config holds every plaque dimension. It is passed by value and never
// modified by this package.
type Config struct {
	Width           float64 // plate width
	Height          float64 // plate height without lettering, usually equal to Width
	LetteringHeight float64 // plate height when lettering is present
	Thickness       float64 // plate thickness

	QRMargin  float64 // distance from the plate edges to the QR square
	QRExtrude float64 // QR emboss height

	BorderWidth   float64
	BorderExtrude float64

	LetteringExtrude    float64
	LetteringGap        float64 // gap between the QR bottom and the lettering band
	LetteringHalfHeight float64 // half the lettering band height
	LetteringSize       float64 // em size
	LetteringSpacing    float64 // extra advance between glyphs

	MountHoleDiameter float64 // corner screw holes through the plate, 0 for none
	MountHoleMargin   float64 // distance from the plate edges to the hole centers

	// Resolution is the render cell size.
	Resolution float64
}

// DefaultConfig returns the stock 160mm plaque.
func DefaultConfig() Config {
	return Config{
		Width:               160,
		Height:              160,
		LetteringHeight:     175,
		Thickness:           6.48,
		QRMargin:            8,
		QRExtrude:           1.62,
		BorderWidth:         3,
		BorderExtrude:       1.62,
		LetteringExtrude:    1.62,
		LetteringGap:        9,
		LetteringHalfHeight: 5,
		LetteringSize:       10,
		LetteringSpacing:    0.6,
		MountHoleMargin:     5.5,
		Resolution:          0.5,
	}
}

// Plaque is the resolved plate geometry for one run.
type Plaque struct {
	Width       float64
	Height      float64
	Thickness   float64
	BorderWidth float64
	QRMargin    float64
	QRSize      float64

	MountHoleDiameter float64
	MountHoleMargin   float64
}

// QRSize returns the side of the QR square.
func (c Config) QRSize() float64 { return c.Width - 2*c.QRMargin }

// Validate checks all dimensions are finite and in range.
func (c Config) Validate() error {
	for _, d := range []struct {
		name string
		v    float64
	}{
		{"width", c.Width},
		{"height", c.Height},
		{"lettering height", c.LetteringHeight},
		{"thickness", c.Thickness},
		{"qr extrude", c.QRExtrude},
		{"border extrude", c.BorderExtrude},
		{"lettering extrude", c.LetteringExtrude},
		{"lettering size", c.LetteringSize},
	} {
		if !(d.v > 0) || math.IsInf(d.v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidDimensions, d.name, d.v)
		}
	}
	for _, d := range []struct {
		name string
		v    float64
	}{
		{"qr margin", c.QRMargin},
		{"border width", c.BorderWidth},
		{"lettering gap", c.LetteringGap},
		{"lettering half height", c.LetteringHalfHeight},
		{"mount hole diameter", c.MountHoleDiameter},
		{"mount hole margin", c.MountHoleMargin},
		{"resolution", c.Resolution},
	} {
		if d.v < 0 || math.IsNaN(d.v) || math.IsInf(d.v, 0) {
			return fmt.Errorf("%w: %s must be non-negative, got %g", ErrInvalidDimensions, d.name, d.v)
		}
	}
	if math.IsNaN(c.LetteringSpacing) || math.IsInf(c.LetteringSpacing, 0) {
		return fmt.Errorf("%w: lettering spacing %g", ErrInvalidDimensions, c.LetteringSpacing)
	}
	return nil
}

// Plaque resolves the plate for a run. The height is fixed by the
// configuration: Height without lettering and LetteringHeight with it.
// It is never derived from the lettering itself.
func (c Config) Plaque(lettering bool) (Plaque, error) {
	if err := c.Validate(); err != nil {
		return Plaque{}, err
	}
	p := Plaque{
		Width:       c.Width,
		Height:      c.Height,
		Thickness:   c.Thickness,
		BorderWidth: c.BorderWidth,
		QRMargin:    c.QRMargin,
		QRSize:      c.QRSize(),

		MountHoleDiameter: c.MountHoleDiameter,
		MountHoleMargin:   c.MountHoleMargin,
	}
	if lettering {
		p.Height = c.LetteringHeight
	}
	if !(p.QRSize > 0) {
		return Plaque{}, fmt.Errorf("%w: qr margin %g leaves no room on a %g wide plate", ErrInvalidDimensions, c.QRMargin, c.Width)
	}
	if p.Height-2*p.QRMargin < p.QRSize {
		return Plaque{}, fmt.Errorf("%w: %g QR square does not fit %g high plate", ErrInvalidDimensions, p.QRSize, p.Height)
	}
	if p.MountHoleDiameter > 0 {
		r := p.mountHoleRadius()
		if p.MountHoleMargin-r < p.BorderWidth || p.MountHoleMargin+r > p.QRMargin {
			return Plaque{}, fmt.Errorf("%w: %g mount holes %g from the edge cut into the border or QR",
				ErrInvalidDimensions, p.MountHoleDiameter, p.MountHoleMargin)
		}
	}
	return p, nil
}

// QRBottom returns the y coordinate of the QR square's bottom edge.
func (p Plaque) QRBottom() float64 { return p.Height - p.QRMargin - p.QRSize }

// mountHoleSegments is the number of sides of a mount hole polygon.
const mountHoleSegments = 32

// mountHoleRadius returns the radius of the circle through the hole
// polygon vertices.
func (p Plaque) mountHoleRadius() float64 {
	return 0.5 * p.MountHoleDiameter / math.Cos(math.Pi/mountHoleSegments)
}

func (p Plaque) panel() obj2.PanelParams {
	m := p.MountHoleMargin
	return obj2.PanelParams{
		Size:         r2.Vec{X: p.Width, Y: p.Height},
		HoleDiameter: p.MountHoleDiameter,
		HoleMargin:   [4]float64{m, m, m, m},
		HolePattern:  [4]string{"x", "x", "x", "x"},
		Segments:     mountHoleSegments,
	}
}

// MountHoles returns the centers of the corner mount holes, nil when
// the plate has none.
func (p Plaque) MountHoles() []r2.Vec {
	if p.MountHoleDiameter <= 0 {
		return nil
	}
	return obj2.HoleCenters(p.panel())
}
