/*
NAME
  errors.go

DESCRIPTION
  errors.go declares the sentinel error kinds surfaced by the LHE/MLHE core
  (§7), and a small set of wrapping helpers used throughout the package.

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

import "github.com/pkg/errors"

// Sentinel errors returned by the core. Callers should use errors.Is to
// test for these, since they are frequently wrapped with call-site context.
var (
	// ErrTruncated indicates the bit reader was exhausted before the
	// expected amount of data was consumed.
	ErrTruncated = errors.New("lhe: truncated bitstream")

	// ErrInvalidHeader indicates an unknown lhe_mode or pixel-format value.
	ErrInvalidHeader = errors.New("lhe: invalid header")

	// ErrInvalidHuffman indicates the mesh Huffman length vector does not
	// form a valid prefix code.
	ErrInvalidHuffman = errors.New("lhe: invalid huffman table")

	// ErrGeometryOverflow indicates the PR -> PPP -> extents pipeline
	// produced a non-positive downsampled side.
	ErrGeometryOverflow = errors.New("lhe: geometry overflow")

	// ErrDeltaWithoutReference indicates a DELTA packet arrived before any
	// reference frame had been decoded.
	ErrDeltaWithoutReference = errors.New("lhe: delta frame without reference")

	// ErrInvalidConfig indicates an Encoder configuration value is out of
	// its documented range.
	ErrInvalidConfig = errors.New("lhe: invalid configuration")
)
