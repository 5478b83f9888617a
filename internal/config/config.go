// Package config loads command line settings from defaults, an optional
// YAML file, QRPLAQUE_ environment variables and flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/soypat/qrplaque/helpers/matter"
	"github.com/soypat/qrplaque/plaque"
	"github.com/soypat/qrplaque/qrsvg"
	"github.com/soypat/qrplaque/render"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. QRPLAQUE_PLAQUE_WIDTH.
const EnvPrefix = "QRPLAQUE"

// DefaultOutput is the STL file written to the working directory.
const DefaultOutput = "plaque.stl"

// Settings is the resolved configuration of one run.
type Settings struct {
	Plaque  plaque.Config
	QR      qrsvg.Options
	Export  plaque.ExportOptions
	Font    string // TrueType file, empty for the built in face
	Output  string
	Preview string // PNG path, empty for none
	Debug   bool
}

// viper keys.
const (
	keyConfig  = "config"
	keyOutput  = "output"
	keyASCII   = "ascii"
	keyDebug   = "debug"
	keyPreview = "preview"
	keyRes     = "render.resolution"
	keyMat     = "render.material"
	keyHoles   = "mount.hole-diameter"
	keyFont    = "lettering.font"
	keyLevel   = "qr.level"
	keySegs    = "qr.segments"
	keyLogoK   = "qr.logo-scale"
	keyLogoM   = "qr.logo-margin"
)

// plaqueKeys maps viper keys to plaque.Config fields.
func plaqueKeys(c *plaque.Config) map[string]*float64 {
	return map[string]*float64{
		"plaque.width":            &c.Width,
		"plaque.height":           &c.Height,
		"plaque.lettering-height": &c.LetteringHeight,
		"plaque.thickness":        &c.Thickness,
		"qr.margin":               &c.QRMargin,
		"qr.extrude":              &c.QRExtrude,
		"border.width":            &c.BorderWidth,
		"border.extrude":          &c.BorderExtrude,
		"lettering.extrude":       &c.LetteringExtrude,
		"lettering.gap":           &c.LetteringGap,
		"lettering.half-height":   &c.LetteringHalfHeight,
		"lettering.size":          &c.LetteringSize,
		"lettering.spacing":       &c.LetteringSpacing,
		"mount.hole-diameter":     &c.MountHoleDiameter,
		"mount.hole-margin":       &c.MountHoleMargin,
	}
}

// FlagSet returns the command line flags.
func FlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String(keyConfig, "", "YAML configuration file")
	fs.StringP(keyOutput, "o", DefaultOutput, "output STL file")
	fs.Bool(keyASCII, false, "write ASCII STL instead of binary")
	fs.Float64("resolution", plaque.DefaultConfig().Resolution, "render cell size in millimetres")
	fs.Bool(keyDebug, false, "enable debug logging")
	fs.String(keyPreview, "", "also write a PNG preview to this file")
	fs.String("font", "", "TrueType font file for the lettering")
	fs.String("level", string(qrsvg.LevelM), "QR error correction level: L, M, Q or H")
	fs.Float64("holes", 0, "diameter of corner mount holes, 0 for none")
	fs.String("material", "", "compensate shrinkage of a filament: pla, petg or abs")
	return fs
}

// Load parses args and resolves settings. It returns the positional
// arguments left after flag parsing. pflag.ErrHelp is returned when help
// was requested.
func Load(args []string, usage io.Writer) (*Settings, []string, error) {
	fs := FlagSet("qrplaque")
	fs.SetOutput(usage)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	v := viper.New()
	setDefaults(v)
	for key, flag := range map[string]string{
		keyOutput:  keyOutput,
		keyASCII:   keyASCII,
		keyRes:     "resolution",
		keyDebug:   keyDebug,
		keyPreview: keyPreview,
		keyFont:    "font",
		keyLevel:   "level",
		keyMat:     "material",
		keyHoles:   "holes",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, nil, err
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	path, _ := fs.GetString(keyConfig)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("qrplaque")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}
	s, err := fromViper(v)
	if err != nil {
		return nil, nil, err
	}
	return s, fs.Args(), nil
}

func setDefaults(v *viper.Viper) {
	def := plaque.DefaultConfig()
	for key, ptr := range plaqueKeys(&def) {
		v.SetDefault(key, *ptr)
	}
	qr := qrsvg.DefaultOptions()
	v.SetDefault(keyOutput, DefaultOutput)
	v.SetDefault(keyRes, def.Resolution)
	v.SetDefault(keyLevel, string(qr.Level))
	v.SetDefault(keySegs, qr.Segments)
	v.SetDefault(keyLogoK, qr.LogoScale)
	v.SetDefault(keyLogoM, qr.LogoMargin)
}

func fromViper(v *viper.Viper) (*Settings, error) {
	var s Settings
	for key, ptr := range plaqueKeys(&s.Plaque) {
		*ptr = v.GetFloat64(key)
	}
	s.Plaque.Resolution = v.GetFloat64(keyRes)
	if err := s.Plaque.Validate(); err != nil {
		return nil, err
	}
	level, err := qrsvg.ParseLevel(v.GetString(keyLevel))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", plaque.ErrInvalidArgument, err)
	}
	s.QR = qrsvg.Options{
		Level:      level,
		Size:       s.Plaque.QRSize(),
		LogoScale:  v.GetFloat64(keyLogoK),
		LogoMargin: v.GetFloat64(keyLogoM),
		Segments:   v.GetInt(keySegs),
	}
	s.Export = plaque.ExportOptions{Encoding: render.Binary, Resolution: s.Plaque.Resolution}
	if v.GetBool(keyASCII) {
		s.Export.Encoding = render.ASCII
	}
	if name := v.GetString(keyMat); name != "" {
		s.Export.Material, err = matter.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", plaque.ErrInvalidArgument, err)
		}
	}
	s.Font = v.GetString(keyFont)
	s.Output = v.GetString(keyOutput)
	if s.Output == "" {
		return nil, fmt.Errorf("%w: empty output path", plaque.ErrInvalidArgument)
	}
	s.Preview = v.GetString(keyPreview)
	s.Debug = v.GetBool(keyDebug)
	return &s, nil
}
