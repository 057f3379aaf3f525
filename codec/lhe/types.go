/*
NAME
  types.go

DESCRIPTION
  types.go declares the pixel-format enum, protected rectangles, and the
  Config struct accepted by Encoder, following the option-struct pattern
  used by revid/config.Config.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package lhe

import (
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// PixelFormat identifies the YUV sampling layout of a frame (§6).
type PixelFormat uint8

// Pixel formats recognized by the bitstream header.
const (
	PixelFormatYUV420 PixelFormat = YUV420
	PixelFormatYUV422 PixelFormat = YUV422
	PixelFormatYUV444 PixelFormat = YUV444
)

// ChromaFactors returns (cfw, cfh) such that chroma plane extents are
// ((W-1)/cfw+1, (H-1)/cfh+1) with truncating division (see chromaDim), as
// in the original decoder's lhe_init_pixel_format.
func (f PixelFormat) ChromaFactors() (cfw, cfh int, err error) {
	switch f {
	case PixelFormatYUV420:
		return 2, 2, nil
	case PixelFormatYUV422:
		return 2, 1, nil
	case PixelFormatYUV444:
		return 1, 1, nil
	default:
		return 0, 0, errors.Wrapf(ErrInvalidHeader, "unknown pixel format %d", uint8(f))
	}
}

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatYUV420:
		return "YUV420"
	case PixelFormatYUV422:
		return "YUV422"
	case PixelFormatYUV444:
		return "YUV444"
	default:
		return fmt.Sprintf("PixelFormat(%d)", uint8(f))
	}
}

// chromaDim returns (dim-1)/factor+1 using Go's truncating integer
// division, the chroma-plane sizing formula shared by every component
// that derives U/V extents from Y extents. This matches the original
// lhedec.c/lheenc.c C integer division, not a ceiling division.
func chromaDim(dim, factor int) int {
	return (dim-1)/factor + 1
}

// Rectangle is a protected rectangle (§3): a region that biases the PR mesh
// toward full relevance (protection=1, "keep detail") or zero relevance
// (protection=0, "always downsample"), without entering the bitstream.
type Rectangle struct {
	XIni, XFin, YIni, YFin int
	Protection             int // 0 or 1.
	Active                 bool
}

// contains reports whether the rectangle covers mesh coordinate (x, y).
func (r Rectangle) contains(x, y int) bool {
	return r.Active && x >= r.XIni && x < r.XFin && y >= r.YIni && y < r.YFin
}

// Config holds the per-encoder options recognized by encode() (§6), modeled
// on revid/config.Config's flat option struct plus a shared Logger field.
type Config struct {
	// BasicLHE forces BASIC_LHE mode; only meaningful for still images.
	BasicLHE bool

	// QL is the quality level in [0, 99], indexing the compression-factor
	// table.
	QL int

	// DownMode selects the downsampler: DownSPS, DownAVG, DownSPSxSPSy or
	// DownAVGxSPSy.
	DownMode int

	// BlockGOP is the number of frames between forced I-refresh for a
	// delta-coded block. Zero selects defaultBlockGOP.
	BlockGOP uint

	// SkipFrames is the frame-dropping stride option, in [0, 100].
	// Validate checks its range; EncodeFrame does not read it and drops
	// no frames.
	SkipFrames int

	// PRMetrics is the PR-mesh side-channel option. No encoder method reads
	// it, and the computed PR mesh is not exposed outside the package; it
	// never enters the bitstream.
	PRMetrics bool

	// Rectangles lists the protected rectangles and their shared TTL.
	Rectangles    []Rectangle
	RectanglesTTL int

	// Logger receives a Debug log of the mode of each ADVANCED_LHE or
	// DELTA_MLHE frame the encoder emits, and LogInvalidField's notices. A
	// nil Logger is replaced with a discarding logger.
	Logger logging.Logger
}

// LogInvalidField logs that a configuration field was out of range and the
// default value substituted, mirroring filter.NewBasic's validation style.
func (c *Config) LogInvalidField(field string, def interface{}) {
	if c.Logger != nil {
		c.Logger.Info("invalid config field, using default", "field", field, "default", def)
	}
}

// Validate checks the option ranges required by spec.md §7 ("Encoder
// routines that receive invalid configuration ... are rejected before any
// state is mutated") before any buffers are allocated.
func (c *Config) Validate() error {
	if c.QL < 0 || c.QL > 99 {
		return errors.Wrapf(ErrInvalidConfig, "ql %d out of range [0,99]", c.QL)
	}
	if c.DownMode < DownSPS || c.DownMode > DownAVGxSPSy {
		return errors.Wrapf(ErrInvalidConfig, "down_mode %d out of range [0,3]", c.DownMode)
	}
	if c.SkipFrames < 0 || c.SkipFrames > 100 {
		return errors.Wrapf(ErrInvalidConfig, "skip_frames %d out of range [0,100]", c.SkipFrames)
	}
	if len(c.Rectangles) > MaxRectangles {
		return errors.Wrapf(ErrInvalidConfig, "too many rectangles: %d > %d", len(c.Rectangles), MaxRectangles)
	}
	return nil
}

// gop returns the effective block GOP, substituting the default when unset.
func (c *Config) gop() uint {
	if c.BlockGOP == 0 {
		return defaultBlockGOP
	}
	return c.BlockGOP
}

// logger returns c.Logger, substituting a discarding logger built the same
// way the teacher's tests build one (logging.New(..., io.Discard, true))
// when none was configured.
func (c *Config) logger() logging.Logger {
	if c.Logger == nil {
		c.Logger = logging.New(logging.Error, io.Discard, true)
	}
	return c.Logger
}
