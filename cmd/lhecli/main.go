/*
DESCRIPTION
  lhecli is a command-line front end to the LHE/MLHE codec core: it reads
  raw planar YUV frames from stdin or a file, encodes them with the
  configured mode and options, and writes the resulting packet stream to
  stdout or a file (and the reverse, with -decode).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package lhecli is a command-line front end to the LHE/MLHE codec core.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"
	"github.com/jjaranda13/lhe/codec/lhe"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration, mirroring rv's file-rotation setup.
const (
	logPath      = "lhecli.log"
	logMaxSize   = 50 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

const pkg = "lhecli: "

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version")
		decode      = flag.Bool("decode", false, "decode an LHE packet stream instead of encoding")
		inPath      = flag.String("in", "", "input file path (default stdin)")
		outPath     = flag.String("out", "", "output file path (default stdout)")
		width       = flag.Int("width", 0, "frame width in pixels (encode only)")
		height      = flag.Int("height", 0, "frame height in pixels (encode only)")
		pixFmt      = flag.String("pixfmt", "420", "chroma subsampling: 420, 422 or 444 (encode only)")
		basicLHE    = flag.Bool("basic", false, "force BASIC_LHE mode (still images only)")
		ql          = flag.Int("ql", 0, "quality level, 0-99")
		downMode    = flag.Int("downmode", lhe.DownSPS, "downsampler mode, 0-3")
		blockGOP    = flag.Uint("gop", 0, "frames between forced block refresh, 0 for default")
		logFile     = flag.Bool("logfile", false, "write logs to lhecli.log instead of stderr")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	var logWriter io.Writer = os.Stderr
	if *logFile {
		logWriter = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		}
	}
	log := logging.New(logVerbosity, logWriter, logSuppress)
	log.Info("starting lhecli", "version", version)

	in := os.Stdin
	if *inPath != "" {
		f, err := os.Open(*inPath)
		if err != nil {
			log.Fatal(pkg+"could not open input", "error", err.Error())
		}
		defer f.Close()
		in = f
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatal(pkg+"could not create output", "error", err.Error())
		}
		defer f.Close()
		out = f
	}

	r := bufio.NewReader(in)
	w := bufio.NewWriter(out)
	defer w.Flush()

	if *decode {
		if err := runDecode(r, w, *blockGOP, log); err != nil {
			log.Fatal(pkg+"decode failed", "error", err.Error())
		}
		return
	}

	pf, err := parsePixelFormat(*pixFmt)
	if err != nil {
		log.Fatal(pkg+"invalid pixel format", "error", err.Error())
	}
	if *width <= 0 || *height <= 0 {
		log.Fatal(pkg + "width and height are required for encoding")
	}

	cfg := lhe.Config{
		BasicLHE:  *basicLHE,
		QL:        *ql,
		DownMode:  *downMode,
		BlockGOP:  *blockGOP,
		Logger:    log,
	}
	if err := runEncode(r, w, cfg, *width, *height, pf, log); err != nil {
		log.Fatal(pkg+"encode failed", "error", err.Error())
	}
}

func parsePixelFormat(s string) (lhe.PixelFormat, error) {
	switch s {
	case "420":
		return lhe.PixelFormatYUV420, nil
	case "422":
		return lhe.PixelFormatYUV422, nil
	case "444":
		return lhe.PixelFormatYUV444, nil
	default:
		return 0, fmt.Errorf("unknown pixel format %q", s)
	}
}

// planeSizes returns the Y, U, V plane byte counts for one frame of the
// given dimensions and pixel format.
func planeSizes(width, height int, pf lhe.PixelFormat) (yN, cN int, err error) {
	cfw, cfh, err := pf.ChromaFactors()
	if err != nil {
		return 0, 0, err
	}
	chromaW := (width-1)/cfw + 1
	chromaH := (height-1)/cfh + 1
	return width * height, chromaW * chromaH, nil
}

// runEncode reads consecutive raw YUV frames from r and writes a
// length-prefixed LHE packet stream to w, one packet per frame.
func runEncode(r io.Reader, w io.Writer, cfg lhe.Config, width, height int, pf lhe.PixelFormat, log logging.Logger) error {
	enc, err := lhe.NewEncoder(cfg)
	if err != nil {
		return err
	}

	yN, cN, err := planeSizes(width, height, pf)
	if err != nil {
		return err
	}
	yBuf := make([]byte, yN)
	uBuf := make([]byte, cN)
	vBuf := make([]byte, cN)

	frames := 0
	for {
		if err := readFull(r, yBuf); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		if err := readFull(r, uBuf); err != nil {
			return err
		}
		if err := readFull(r, vBuf); err != nil {
			return err
		}

		y := lhe.Plane{Pix: yBuf, Stride: width}
		cfw, cfh, _ := pf.ChromaFactors()
		chromaW := (width-1)/cfw + 1
		_ = cfh
		u := lhe.Plane{Pix: uBuf, Stride: chromaW}
		v := lhe.Plane{Pix: vBuf, Stride: chromaW}

		packet, err := enc.EncodeFrame(y, u, v, width, height, pf)
		if err != nil {
			return err
		}
		if err := writePacket(w, packet); err != nil {
			return err
		}
		frames++
	}
	log.Info("encoding complete", "frames", frames)
	return nil
}

// runDecode reads a length-prefixed LHE packet stream from r, decoding
// each packet and writing its planar YUV samples to w.
func runDecode(r io.Reader, w io.Writer, gop uint, log logging.Logger) error {
	dec := lhe.NewDecoder(gop)

	frames := 0
	for {
		packet, err := readPacket(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		y, u, v, err := dec.DecodeFrame(packet)
		if err != nil {
			return err
		}
		if _, err := w.Write(y.Pix); err != nil {
			return err
		}
		if _, err := w.Write(u.Pix); err != nil {
			return err
		}
		if _, err := w.Write(v.Pix); err != nil {
			return err
		}
		frames++
	}
	log.Info("decoding complete", "frames", frames)
	return nil
}

// writePacket writes a 4-byte big-endian length prefix followed by data.
func writePacket(w io.Writer, data []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// readPacket is writePacket's inverse.
func readPacket(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if err := readFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	data := make([]byte, n)
	if err := readFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// readFull reads exactly len(buf) bytes, returning io.EOF only when zero
// bytes were read before the stream ended.
func readFull(r io.Reader, buf []byte) error {
	n, err := io.ReadFull(r, buf)
	if err == io.ErrUnexpectedEOF {
		if n == 0 {
			return io.EOF
		}
		return io.ErrUnexpectedEOF
	}
	return err
}
