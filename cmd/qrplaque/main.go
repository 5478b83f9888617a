// Command qrplaque writes an STL mesh of a plaque with an embossed QR code
// and optional lettering.
//
//	qrplaque [flags] <qrData> [imagePath] [letteringText]
//
// An empty imagePath ("") skips the center image so lettering can be
// given without one.
package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/soypat/qrplaque/glyph"
	"github.com/soypat/qrplaque/internal/config"
	"github.com/soypat/qrplaque/internal/logger"
	"github.com/soypat/qrplaque/plaque"
	"github.com/soypat/qrplaque/preview"
	"github.com/soypat/qrplaque/qrsvg"
	"github.com/soypat/qrplaque/render"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const usage = "usage: qrplaque [flags] <qrData> [imagePath] [letteringText]"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	settings, pos, err := config.Load(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintln(stderr, usage)
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, usage)
		return 1
	}
	if len(pos) < 1 || pos[0] == "" || len(pos) > 3 {
		fmt.Fprintln(stderr, usage)
		return 1
	}
	log := logger.New(logger.Config{Debug: settings.Debug, Color: true, Out: stderr})
	defer log.Sync()

	var imagePath, lettering string
	if len(pos) > 1 {
		imagePath = pos[1]
	}
	if len(pos) > 2 {
		lettering = pos[2]
	}
	if err := generate(ctx, log, settings, pos[0], imagePath, lettering); err != nil {
		log.Error("plaque generation failed", zap.Error(err))
		return 1
	}
	return 0
}

func generate(ctx context.Context, log *zap.Logger, s *config.Settings, data, imagePath, lettering string) error {
	qrOpts := s.QR
	qrOpts.Logo = imagePath
	src, err := qrsvg.NewSource(data, qrOpts)
	if err != nil {
		return fmt.Errorf("%w: %w", plaque.ErrInvalidArgument, err)
	}
	face := glyph.Default()
	if s.Font != "" {
		face, err = glyph.Load(s.Font)
		if err != nil {
			return fmt.Errorf("%w: font: %w", plaque.ErrExternalService, err)
		}
	}
	g := &plaque.Generator{
		Config: s.Plaque,
		Export: s.Export,
		QR:     src,
		Text:   face,
		Logger: log,
	}
	log.Debug("generating plaque",
		zap.String("data", data),
		zap.String("image", imagePath),
		zap.String("lettering", lettering),
		zap.Stringer("level", qrOpts.Level),
		zap.Stringer("encoding", s.Export.Encoding),
		zap.String("material", s.Export.Material.Name),
		zap.Float64("mountHoles", s.Plaque.MountHoleDiameter),
	)
	model, err := g.Mesh(ctx, lettering)
	if err != nil {
		return err
	}
	var img image.Image
	if s.Preview != "" {
		img, err = preview.Image(model, preview.DefaultOptions())
		if err != nil {
			return fmt.Errorf("preview: %w", err)
		}
	}
	err = plaque.WriteFileAtomic(s.Output, func(w io.Writer) error {
		return render.Encode(w, model, s.Export.Encoding)
	})
	if err != nil {
		return err
	}
	log.Info("wrote plaque", zap.String("path", s.Output), zap.Int("triangles", len(model)))
	if img != nil {
		// The plaque is already written, a failed preview does not fail the run.
		if err := preview.Save(s.Preview, img); err != nil {
			log.Warn("preview not written", zap.String("path", s.Preview), zap.Error(err))
			return nil
		}
		log.Info("wrote preview", zap.String("path", s.Preview))
	}
	return nil
}
