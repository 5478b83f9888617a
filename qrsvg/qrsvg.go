// Package qrsvg renders QR codes as styled SVG documents and imports
// them back as planar outlines ready for extrusion.
package qrsvg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/skip2/go-qrcode"
	"github.com/soypat/qrplaque/outline"
	"github.com/soypat/qrplaque/svgimport"
)

// modulePx is the side of a QR module in SVG user units.
const modulePx = 10

// kappa places cubic bezier control points so a quarter circle is
// approximated with under 0.03% radial error.
const kappa = 0.5522847498

// Level is a QR error correction level.
type Level byte

const (
	LevelL Level = 'L'
	LevelM Level = 'M'
	LevelQ Level = 'Q'
	LevelH Level = 'H'
)

// ParseLevel parses one of L, M, Q or H, case insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return LevelL, nil
	case "M", "":
		return LevelM, nil
	case "Q":
		return LevelQ, nil
	case "H":
		return LevelH, nil
	}
	return 0, fmt.Errorf("unknown error correction level %q", s)
}

func (l Level) String() string { return string(l) }

func (l Level) recovery() qrcode.RecoveryLevel {
	switch l {
	case LevelL:
		return qrcode.Low
	case LevelQ:
		return qrcode.High
	case LevelH:
		return qrcode.Highest
	}
	return qrcode.Medium
}

// budget is the fraction of modules that may be hidden by a logo.
func (l Level) budget() float64 {
	switch l {
	case LevelL:
		return 0.07
	case LevelQ:
		return 0.25
	case LevelH:
		return 0.30
	}
	return 0.15
}

// Options configures the QR rendering.
type Options struct {
	// Level is the error correction level. The zero value means M.
	Level Level
	// Size is the side of the QR square in millimetres.
	Size float64
	// Logo is an optional SVG or raster image embossed in the QR center.
	Logo string
	// LogoScale is the fraction of the QR side the logo area may cover
	// before the error correction budget applies.
	LogoScale float64
	// LogoMargin is the clearance in millimetres between the hidden
	// modules and the logo.
	LogoMargin float64
	// Segments is the number of line segments used per curve.
	Segments int
}

// DefaultOptions returns a 144mm level M QR with no logo.
func DefaultOptions() Options {
	return Options{
		Level:      LevelM,
		Size:       144,
		LogoScale:  0.4,
		LogoMargin: 8,
		Segments:   8,
	}
}

// Source generates QR outlines for Data.
type Source struct {
	Data string
	Opts Options
}

// NewSource returns a Source after validating its options.
func NewSource(data string, opts Options) (*Source, error) {
	if data == "" {
		return nil, errors.New("empty QR data")
	}
	if opts.Level == 0 {
		opts.Level = LevelM
	}
	if _, err := ParseLevel(string(opts.Level)); err != nil {
		return nil, err
	}
	if !(opts.Size > 0) || math.IsInf(opts.Size, 0) {
		return nil, fmt.Errorf("invalid QR size %g", opts.Size)
	}
	if opts.Segments < 1 {
		return nil, fmt.Errorf("invalid curve segment count %d", opts.Segments)
	}
	if opts.Logo != "" && !(opts.LogoScale > 0 && opts.LogoScale < 1) {
		return nil, fmt.Errorf("logo scale %g not in (0,1)", opts.LogoScale)
	}
	if opts.LogoMargin < 0 {
		return nil, fmt.Errorf("negative logo margin %g", opts.LogoMargin)
	}
	return &Source{Data: data, Opts: opts}, nil
}

// Bitmap returns the QR modules without a quiet zone indexed [row][column],
// row 0 at the top. Modules under the logo area are cleared when a logo
// is set.
func (s *Source) Bitmap() ([][]bool, error) {
	q, err := qrcode.New(s.Data, s.Opts.Level.recovery())
	if err != nil {
		return nil, err
	}
	q.DisableBorder = true
	bm := q.Bitmap()
	if s.Opts.Logo != "" {
		lo, hi := s.logoModules(len(bm))
		for y := lo; y < hi; y++ {
			for x := lo; x < hi; x++ {
				bm[y][x] = false
			}
		}
	}
	return bm, nil
}

// logoModules returns the half open module range hidden by the logo on
// both axes. The range is centered and capped by the error correction budget.
func (s *Source) logoModules(n int) (lo, hi int) {
	k := int(float64(n) * s.Opts.LogoScale)
	if maxK := int(float64(n) * math.Sqrt(s.Opts.Level.budget())); k > maxK {
		k = maxK
	}
	if (n-k)%2 != 0 {
		k--
	}
	if k <= 0 {
		return 0, 0
	}
	lo = (n - k) / 2
	return lo, lo + k
}

// WriteSVG writes the styled QR document. Each dark module is a path
// whose corners are rounded when both modules adjacent to the corner
// are light, so isolated modules become dots.
func (s *Source) WriteSVG(w io.Writer) error {
	bm, err := s.Bitmap()
	if err != nil {
		return err
	}
	writeSVG(w, bm)
	return nil
}

func writeSVG(w io.Writer, bm [][]bool) {
	n := len(bm)
	side := n * modulePx
	canvas := svg.New(w)
	canvas.Startview(side, side, 0, 0, side, side)
	dark := func(x, y int) bool {
		return y >= 0 && y < n && x >= 0 && x < n && bm[y][x]
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if !bm[y][x] {
				continue
			}
			l, r := dark(x-1, y), dark(x+1, y)
			u, d := dark(x, y-1), dark(x, y+1)
			canvas.Path(modulePath(x*modulePx, y*modulePx, modulePx, [4]bool{
				!u && !l, // top left
				!u && !r, // top right
				!d && !r, // bottom right
				!d && !l, // bottom left
			}), "fill:#000")
		}
	}
	canvas.End()
}

// modulePath returns the path data for a square module at (x,y) with side
// s. Rounded corners get a quarter circle of radius s/2. Corners are
// listed clockwise from the top left in screen coordinates.
func modulePath(x, y, s int, round [4]bool) string {
	fx, fy, fs := float64(x), float64(y), float64(s)
	r := fs / 2
	radius := func(i int) float64 {
		if round[i] {
			return r
		}
		return 0
	}
	var b strings.Builder
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	pt := func(cmd string, vs ...float64) {
		b.WriteString(cmd)
		for i, v := range vs {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(num(v))
		}
	}
	// arc from a to b around corner c.
	arc := func(ax, ay, cx, cy, bx, by float64) {
		pt("C", ax+kappa*(cx-ax), ay+kappa*(cy-ay), bx+kappa*(cx-bx), by+kappa*(cy-by), bx, by)
	}
	tl, tr, br, bl := radius(0), radius(1), radius(2), radius(3)
	pt("M", fx+tl, fy)
	pt("H", fx+fs-tr)
	if tr > 0 {
		arc(fx+fs-tr, fy, fx+fs, fy, fx+fs, fy+tr)
	}
	pt("V", fy+fs-br)
	if br > 0 {
		arc(fx+fs, fy+fs-br, fx+fs, fy+fs, fx+fs-br, fy+fs)
	}
	pt("H", fx+bl)
	if bl > 0 {
		arc(fx+bl, fy+fs, fx, fy+fs, fx, fy+fs-bl)
	}
	pt("V", fy+tl)
	if tl > 0 {
		arc(fx, fy+tl, fx, fy, fx+tl, fy)
	}
	b.WriteString("Z")
	return b.String()
}

// Shapes returns the QR modules, and the logo when set, as outlines in a
// frame where the QR square spans [0,Size] on both axes, y up.
func (s *Source) Shapes(ctx context.Context) ([]outline.Shape, error) {
	bm, err := s.Bitmap()
	if err != nil {
		return nil, err
	}
	n := len(bm)
	var buf bytes.Buffer
	writeSVG(&buf, bm)
	shapes, err := svgimport.Import(&buf, svgimport.Options{
		PxPerMM:  float64(n*modulePx) / s.Opts.Size,
		Segments: s.Opts.Segments,
	})
	if err != nil {
		return nil, fmt.Errorf("importing QR svg: %w", err)
	}
	if s.Opts.Logo == "" {
		return shapes, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lo, hi := s.logoModules(n)
	if hi <= lo {
		return nil, fmt.Errorf("%s level error correction leaves no room for a logo", s.Opts.Level)
	}
	moduleMM := s.Opts.Size / float64(n)
	area := float64(hi-lo) * moduleMM
	margin := math.Min(s.Opts.LogoMargin, area/4)
	logo, err := loadLogo(ctx, s.Opts.Logo, s.Opts.Segments)
	if err != nil {
		return nil, fmt.Errorf("loading logo %q: %w", s.Opts.Logo, err)
	}
	center := s.Opts.Size / 2
	logo, err = fit(logo, center, center, area-2*margin)
	if err != nil {
		return nil, fmt.Errorf("logo %q: %w", s.Opts.Logo, err)
	}
	return append(shapes, logo...), nil
}
