/*
NAME
  consts.go

DESCRIPTION
  consts.go holds the numeric constants of the LHE/MLHE algorithm: hop
  alphabet indices, h1 bounds, PR quantization levels, geometry bounds and
  block-grid parameters.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package lhe implements the LHE/MLHE codec core: a predictive, pre-quantized
// "hop"-based image and video coder with elastic per-block downsampling
// driven by a perceptual-relevance mesh, and a companded delta-frame mode.
package lhe

// Hop alphabet. The central symbol denotes "prediction was correct".
const (
	HopNeg4 = iota
	HopNeg3
	HopNeg2
	HopNeg1
	HopZero
	HopPos1
	HopPos2
	HopPos3
	HopPos4
	numHops = HopPos4 + 1
)

// h1 adaptation bounds (§3).
const (
	MinHop1 = 4
	MaxHop1 = 10
)

// Sample range. Value 0 is reserved and never emitted by the predictor.
const (
	SampleMin = 1
	SampleMax = 255
)

// PR quantization levels (§4.4), in ascending order.
var prQuantLevels = [5]float64{0, 0.125, 0.25, 0.5, 1.0}

const (
	prMin = 0.0
	prMax = 0.5
	prDif = prMax - prMin
)

// Luminance-difference bucket thresholds used by the PR-mesh scan (§4.4).
var quantLum = [4]int{
	QuantLum0,
	QuantLum1,
	QuantLum2,
	QuantLum3,
}

const (
	QuantLum0 = 4
	QuantLum1 = 16
	QuantLum2 = 32
	QuantLum3 = 64
)

// Geometry bounds (§3, §4.5).
const (
	SideMin      = 2
	PPPMax       = 8.0
	PPPMaxRatio  = 4.0
	pppMaxTheory = 8 // indexes the compression_factor table's first axis.
)

// Basic block grid (§3).
const HorizontalBlocks = 16

// LHE frame modes, encoded in the 2-bit lhe_mode header field (§4.8).
const (
	ModeBasic = iota
	ModeAdvanced
	ModeDelta
)

// Pixel formats (§6).
const (
	YUV420 = iota
	YUV422
	YUV444
)

// Downsampler selection (§4.6, §6 down_mode).
const (
	DownSPS = iota
	DownAVG
	DownSPSxSPSy
	DownAVGxSPSy
)

// MaxRectangles bounds the number of simultaneously active protected
// rectangles (§3).
const MaxRectangles = 16

// Mesh Huffman length fields (§4.7, §4.8).
const (
	meshHuffmanLenBits  = 3
	meshHuffmanNoOccurs = 7 // all-ones 3-bit length means "absent symbol".
	numPRSymbols        = 5
)

// Delta-frame companding breakpoints (§4.9).
const (
	deltaTramo1 = 52
	deltaTramo2 = 204
)

// defaultBlockGOP is used when Config.BlockGOP is left at its zero value.
const defaultBlockGOP = 30

// movementThreshold is the per-block I/P decision cutoff on the PR-mesh
// movement scalar (§4.9).
const movementThreshold = 0.26
