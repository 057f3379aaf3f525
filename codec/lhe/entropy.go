/*
NAME
  entropy.go

DESCRIPTION
  entropy.go implements the entropy layer (C7): the fixed hop prefix code
  with its save-one-bit ("ahorro") shifted table and two-stage zero
  run-length coding, and the canonical length-limited 5-symbol Huffman
  code used for the PR mesh.

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
	"sort"

	"github.com/jjaranda13/lhe/codec/lhe/lhebit"
	"github.com/pkg/errors"
)

// hopCode is a (value, bit length) pair for one entry of a hop prefix
// table.
type hopCode struct {
	val uint32
	len int
}

// normalHopCodes is the fixed prefix code of §4.7, indexed by hop symbol.
var normalHopCodes = [numHops]hopCode{
	HopZero: {0b1, 1},
	HopPos1: {0b01, 2},
	HopNeg1: {0b001, 3},
	HopPos2: {0b0001, 4},
	HopNeg2: {0b00001, 5},
	HopPos3: {0b000001, 6},
	HopNeg3: {0b0000001, 7},
	HopPos4: {0b00000001, 8},
	HopNeg4: {0b00000000, 8},
}

// shiftedHopCodes is the "ahorro" table following a non-ZERO hop. §4.7's
// table as given has no ZERO entry and is already a complete 8-leaf code
// (lengths 1..7,7 sum to exactly 1 in Kraft's inequality), so there is no
// spare codeword for a 9th symbol without splitting an existing leaf. ZERO
// is given a codeword the same way the normal table already splits its own
// final leaf to fit both POS_4 and NEG_4: NEG_4's former 7-bit leaf
// (0000000) becomes two 8-bit leaves, NEG_4 (00000001) and ZERO
// (00000000), keeping the whole table uniquely decodable.
var shiftedHopCodes = [numHops]hopCode{
	HopPos1: {0b1, 1},
	HopNeg1: {0b01, 2},
	HopPos2: {0b001, 3},
	HopNeg2: {0b0001, 4},
	HopPos3: {0b00001, 5},
	HopNeg3: {0b000001, 6},
	HopPos4: {0b0000001, 7},
	HopNeg4: {0b00000001, 8},
	HopZero: {0b00000000, 8},
}

// rankToNormal maps a leading-zero count (1..6) in the normal table to its
// hop symbol.
var rankToNormal = [7]int{-1, HopPos1, HopNeg1, HopPos2, HopNeg2, HopPos3, HopNeg3}

// rankToShifted maps a leading-zero count (1..5) in the shifted table to
// its hop symbol.
var rankToShifted = [6]int{-1, HopNeg1, HopPos2, HopNeg2, HopPos3, HopNeg3}

// hopEncoder carries the HUFFMAN/RLC1/RLC2 state machine across an entire
// plane's hop stream (§4.7).
type hopEncoder struct {
	w      *lhebit.Writer
	h0     int
	ahorro bool
}

func newHopEncoder(w *lhebit.Writer) *hopEncoder {
	return &hopEncoder{w: w}
}

// EncodeStream writes hops, the full hop-symbol sequence for one plane, in
// HUFFMAN mode with embedded RLC1/RLC2 zero runs.
func (e *hopEncoder) EncodeStream(hops []int) {
	i := 0
	for i < len(hops) {
		if e.h0 >= 7 {
			i = e.encodeRun(hops, i)
			continue
		}
		e.encodeOne(hops[i])
		i++
	}
}

func (e *hopEncoder) encodeOne(hop int) {
	if e.ahorro {
		e.writeCode(shiftedHopCodes[hop])
	} else {
		e.writeCode(normalHopCodes[hop])
	}
	if hop == HopZero {
		e.ahorro = false
		e.h0++
	} else {
		e.ahorro = true
		e.h0 = 0
	}
}

func (e *hopEncoder) writeCode(c hopCode) {
	e.w.Put(c.len, c.val)
}

// encodeRun handles one RLC1 (and, if needed, chained RLC2) episode
// starting at hops[i], where the 7 ZEROs that triggered it have already
// been written by encodeOne. It returns the index just past the run.
func (e *hopEncoder) encodeRun(hops []int, i int) int {
	n := 0
	for i+n < len(hops) && hops[i+n] == HopZero && n < 15 {
		n++
	}
	if n < 15 {
		e.w.Put(1, 0)
		e.w.Put(4, uint32(n))
		e.h0, e.ahorro = 0, true
		return i + n
	}
	e.w.Put(1, 1)
	i += 15
	return e.encodeRLC2(hops, i)
}

func (e *hopEncoder) encodeRLC2(hops []int, i int) int {
	for {
		n := 0
		for i+n < len(hops) && hops[i+n] == HopZero && n < 31 {
			n++
		}
		if n < 31 {
			e.w.Put(5, uint32(n))
			e.h0, e.ahorro = 0, true
			return i + n
		}
		e.w.Put(5, 31)
		i += 31
	}
}

// hopDecoder mirrors hopEncoder over a lhebit.Reader.
type hopDecoder struct {
	r      *lhebit.Reader
	h0     int
	ahorro bool
}

func newHopDecoder(r *lhebit.Reader) *hopDecoder {
	return &hopDecoder{r: r}
}

// DecodeStream reads exactly count hop symbols.
func (d *hopDecoder) DecodeStream(count int) ([]int, error) {
	out := make([]int, 0, count)
	for len(out) < count {
		if d.h0 >= 7 {
			zeros, err := d.decodeRun()
			if err != nil {
				return nil, err
			}
			for i := 0; i < zeros && len(out) < count; i++ {
				out = append(out, HopZero)
			}
			d.h0, d.ahorro = 0, true
			continue
		}
		hop, err := d.decodeOne()
		if err != nil {
			return nil, err
		}
		out = append(out, hop)
	}
	return out, nil
}

func (d *hopDecoder) decodeOne() (int, error) {
	var hop int
	var err error
	if d.ahorro {
		hop, err = decodeShiftedHop(d.r)
	} else {
		hop, err = decodeNormalHop(d.r)
	}
	if err != nil {
		return 0, err
	}
	if hop == HopZero {
		d.ahorro = false
		d.h0++
	} else {
		d.ahorro = true
		d.h0 = 0
	}
	return hop, nil
}

// decodeRun reads one RLC1 episode, chaining into RLC2 as needed, and
// returns the total number of additional ZEROs it represents.
func (d *hopDecoder) decodeRun() (int, error) {
	marker, err := d.r.Get(1)
	if err != nil {
		return 0, errors.Wrap(err, "lhe: reading RLC1 marker")
	}
	if marker == 0 {
		n, err := d.r.Get(4)
		if err != nil {
			return 0, errors.Wrap(err, "lhe: reading RLC1 length")
		}
		return int(n), nil
	}
	total := 15
	for {
		n, err := d.r.Get(5)
		if err != nil {
			return 0, errors.Wrap(err, "lhe: reading RLC2 length")
		}
		if n < 31 {
			return total + int(n), nil
		}
		total += 31
	}
}

func decodeNormalHop(r *lhebit.Reader) (int, error) {
	b, err := r.Get(1)
	if err != nil {
		return 0, errors.Wrap(err, "lhe: decoding hop")
	}
	if b == 1 {
		return HopZero, nil
	}
	zeros := 1
	for zeros < 7 {
		b, err = r.Get(1)
		if err != nil {
			return 0, errors.Wrap(err, "lhe: decoding hop")
		}
		if b == 1 {
			return rankToNormal[zeros], nil
		}
		zeros++
	}
	b, err = r.Get(1)
	if err != nil {
		return 0, errors.Wrap(err, "lhe: decoding hop")
	}
	if b == 1 {
		return HopPos4, nil
	}
	return HopNeg4, nil
}

func decodeShiftedHop(r *lhebit.Reader) (int, error) {
	b, err := r.Get(1)
	if err != nil {
		return 0, errors.Wrap(err, "lhe: decoding shifted hop")
	}
	if b == 1 {
		return HopPos1, nil
	}
	zeros := 1
	for zeros < 6 {
		b, err = r.Get(1)
		if err != nil {
			return 0, errors.Wrap(err, "lhe: decoding shifted hop")
		}
		if b == 1 {
			return rankToShifted[zeros], nil
		}
		zeros++
	}
	b, err = r.Get(1)
	if err != nil {
		return 0, errors.Wrap(err, "lhe: decoding shifted hop")
	}
	if b == 1 {
		return HopPos4, nil
	}
	b, err = r.Get(1)
	if err != nil {
		return 0, errors.Wrap(err, "lhe: decoding shifted hop")
	}
	if b == 1 {
		return HopNeg4, nil
	}
	return HopZero, nil
}

// meshHuffman is a canonical, length-limited prefix code over the
// numPRSymbols PR quantization levels (§4.7).
type meshHuffman struct {
	lengths [numPRSymbols]int
	codes   [numPRSymbols]uint32
}

type huffNode struct {
	weight      int
	symbol      int
	left, right *huffNode
}

// buildMeshHuffman builds the canonical code from counts, each incremented
// by 1 to avoid zero-weight symbols (§4.7).
func buildMeshHuffman(counts prQuantaCounter) meshHuffman {
	nodes := make([]*huffNode, numPRSymbols)
	for i := range nodes {
		nodes[i] = &huffNode{weight: counts[i] + 1, symbol: i}
	}
	list := append([]*huffNode{}, nodes...)
	for len(list) > 1 {
		sort.Slice(list, func(i, j int) bool { return list[i].weight < list[j].weight })
		a, b := list[0], list[1]
		merged := &huffNode{weight: a.weight + b.weight, symbol: -1, left: a, right: b}
		list = append(list[2:], merged)
	}

	var lengths [numPRSymbols]int
	var walk func(n *huffNode, depth int)
	walk = func(n *huffNode, depth int) {
		if n.symbol >= 0 {
			if depth == 0 {
				depth = 1
			}
			lengths[n.symbol] = depth
			return
		}
		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}
	walk(list[0], 0)

	return meshHuffman{lengths: lengths, codes: canonicalCodes(lengths)}
}

// canonicalCodes assigns canonical Huffman codes from a length vector,
// ordering symbols by (length, symbol index) ascending.
func canonicalCodes(lengths [numPRSymbols]int) [numPRSymbols]uint32 {
	type entry struct{ sym, length int }
	order := make([]entry, numPRSymbols)
	for i, l := range lengths {
		order[i] = entry{i, l}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].length != order[j].length {
			return order[i].length < order[j].length
		}
		return order[i].sym < order[j].sym
	})

	var codes [numPRSymbols]uint32
	code := uint32(0)
	prevLen := 0
	for _, e := range order {
		code <<= uint(e.length - prevLen)
		codes[e.sym] = code
		code++
		prevLen = e.length
	}
	return codes
}

// WriteLengths writes the 5 length header fields (§4.8), substituting
// meshHuffmanNoOccurs for any length that does not fit in 3 bits.
func (h meshHuffman) WriteLengths(w *lhebit.Writer) {
	for _, l := range h.lengths {
		if l <= 0 || l > 6 {
			w.Put(meshHuffmanLenBits, meshHuffmanNoOccurs)
			continue
		}
		w.Put(meshHuffmanLenBits, uint32(l))
	}
}

// readMeshHuffman reads the 5 length fields and reconstructs the canonical
// code.
func readMeshHuffman(r *lhebit.Reader) (meshHuffman, error) {
	var lengths [numPRSymbols]int
	for i := range lengths {
		v, err := r.Get(meshHuffmanLenBits)
		if err != nil {
			return meshHuffman{}, errors.Wrap(err, "lhe: reading mesh huffman length")
		}
		if v == meshHuffmanNoOccurs {
			lengths[i] = 0
			continue
		}
		lengths[i] = int(v)
	}
	return meshHuffman{lengths: lengths, codes: canonicalCodes(lengths)}, nil
}

// Encode writes symbol (an index into prQuantLevels) using h's code.
func (h meshHuffman) Encode(w *lhebit.Writer, symbol int) {
	w.Put(h.lengths[symbol], h.codes[symbol])
}

// Decode reads one symbol using h's canonical code.
func (h meshHuffman) Decode(r *lhebit.Reader) (int, error) {
	var val uint32
	for length := 1; length <= 6; length++ {
		bit, err := r.Get(1)
		if err != nil {
			return 0, errors.Wrap(err, "lhe: decoding mesh symbol")
		}
		val = val<<1 | bit
		for sym, l := range h.lengths {
			if l == length && h.codes[sym] == val {
				return sym, nil
			}
		}
	}
	return 0, errors.Wrap(ErrInvalidHuffman, "lhe: no matching mesh code")
}
