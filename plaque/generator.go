package plaque

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/soypat/qrplaque/helpers/matter"
	"github.com/soypat/qrplaque/outline"
	"github.com/soypat/qrplaque/render"
	"go.uber.org/zap"
)

// VectorSource provides the QR outlines in the QR square frame.
type VectorSource interface {
	Shapes(ctx context.Context) ([]outline.Shape, error)
}

// TextOutliner lays out a line of text as glyph outlines with the
// baseline on y = 0.
type TextOutliner interface {
	Outline(text string, size, spacing float64) ([]outline.Shape, error)
}

// ExportOptions configures mesh export.
type ExportOptions struct {
	Encoding render.Encoding
	// Resolution is the render cell size in millimetres.
	Resolution float64
	// Material enlarges the mesh to cancel cooling shrinkage.
	// The zero value leaves the model at nominal size.
	Material matter.ViscousMaterial
}

// Render tessellates the model's solid.
func Render(m *Model, opts ExportOptions) ([]render.Triangle3, error) {
	if !(opts.Resolution > 0) || math.IsInf(opts.Resolution, 0) {
		return nil, fmt.Errorf("%w: render resolution %g", ErrInvalidArgument, opts.Resolution)
	}
	s := opts.Material.Scale(m.Solid())
	return render.RenderAll(render.NewOctreeRenderer(s, opts.Resolution))
}

// Export renders m and writes it to w as an STL file.
func Export(w io.Writer, m *Model, opts ExportOptions) error {
	model, err := Render(m, opts)
	if err != nil {
		return err
	}
	return render.Encode(w, model, opts.Encoding)
}

// Generator runs the full pipeline: QR and text outlines, composition,
// rendering and encoding.
type Generator struct {
	Config Config
	Export ExportOptions
	QR     VectorSource
	// Text may be nil when no lettering is requested.
	Text TextOutliner
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

func (g *Generator) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

// Build composes the plaque. Surrounding whitespace is trimmed from
// lettering and blank lettering is treated as absent.
func (g *Generator) Build(ctx context.Context, lettering string) (*Model, error) {
	log := g.logger()
	if g.QR == nil {
		return nil, fmt.Errorf("%w: no QR source", ErrInvalidArgument)
	}
	qr, err := g.QR.Shapes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: qr: %w", ErrExternalService, err)
	}
	log.Debug("qr outlines ready", zap.Int("shapes", len(qr)))

	var text []outline.Shape
	if lettering = strings.TrimSpace(lettering); lettering != "" {
		if g.Text == nil {
			return nil, fmt.Errorf("%w: lettering %q given without a font", ErrInvalidArgument, lettering)
		}
		text, err = g.Text.Outline(lettering, g.Config.LetteringSize, g.Config.LetteringSpacing)
		if err != nil {
			return nil, fmt.Errorf("%w: lettering: %w", ErrExternalService, err)
		}
		log.Debug("lettering outlines ready", zap.String("text", lettering), zap.Int("glyphs", len(text)))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := Compose(g.Config, qr, text)
	if err != nil {
		return nil, err
	}
	log.Info("plaque composed",
		zap.Float64("width", m.Plaque.Width),
		zap.Float64("height", m.Plaque.Height),
		zap.Float64("thickness", m.Plaque.Thickness),
		zap.Float64("qrSize", m.Plaque.QRSize),
		zap.Int("parts", len(m.Parts)),
	)
	return m, nil
}

// Mesh builds the plaque and tessellates it.
func (g *Generator) Mesh(ctx context.Context, lettering string) ([]render.Triangle3, error) {
	m, err := g.Build(ctx, lettering)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	model, err := Render(m, g.Export)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.logger().Info("mesh rendered",
		zap.Int("triangles", len(model)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return model, nil
}

// Run builds the plaque and writes the encoded mesh to w. Nothing is
// written if any step before encoding fails.
func (g *Generator) Run(ctx context.Context, lettering string, w io.Writer) error {
	model, err := g.Mesh(ctx, lettering)
	if err != nil {
		return err
	}
	return render.Encode(w, model, g.Export.Encoding)
}

// WriteFileAtomic calls write with a buffered temporary file in the
// directory of path and renames it to path once write succeeds. On
// failure path is left untouched.
func WriteFileAtomic(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
