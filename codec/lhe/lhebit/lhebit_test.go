/*
NAME
  lhebit_test.go

DESCRIPTION
  lhebit_test.go contains tests for the lhebit package.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package lhebit

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.Put(2, 0b11)
	w.Put(16, 12345)
	w.Put(3, 0b101)
	buf := w.FlushToByte()

	r := NewReader(buf, w.BitCount())
	if v, err := r.Get(2); err != nil || v != 0b11 {
		t.Fatalf("Get(2) = %v, %v; want 3, nil", v, err)
	}
	if v, err := r.Get(16); err != nil || v != 12345 {
		t.Fatalf("Get(16) = %v, %v; want 12345, nil", v, err)
	}
	if v, err := r.Get(3); err != nil || v != 0b101 {
		t.Fatalf("Get(3) = %v, %v; want 5, nil", v, err)
	}
}

func TestReaderShowDoesNotAdvance(t *testing.T) {
	w := NewWriter()
	w.Put(8, 0xAB)
	buf := w.FlushToByte()

	r := NewReader(buf, 8)
	v1, err := r.Show(4)
	if err != nil || v1 != 0xA {
		t.Fatalf("Show(4) = %v, %v; want 0xA, nil", v1, err)
	}
	v2, err := r.Show(4)
	if err != nil || v2 != 0xA {
		t.Fatalf("second Show(4) = %v, %v; want 0xA, nil (Show must not advance)", v2, err)
	}
	if err := r.Skip(4); err != nil {
		t.Fatalf("Skip(4): %v", err)
	}
	v3, err := r.Get(4)
	if err != nil || v3 != 0xB {
		t.Fatalf("Get(4) after skip = %v, %v; want 0xB, nil", v3, err)
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0xFF}, 4)
	if _, err := r.Get(8); err != ErrTruncated {
		t.Fatalf("Get(8) on 4-bit buffer: err = %v; want ErrTruncated", err)
	}
}

func TestWriterBitCountAndFlushPadding(t *testing.T) {
	w := NewWriter()
	w.Put(3, 0b101)
	if got := w.BitCount(); got != 3 {
		t.Fatalf("BitCount() = %d; want 3", got)
	}
	buf := w.FlushToByte()
	if len(buf) != 1 {
		t.Fatalf("len(buf) = %d; want 1", len(buf))
	}
	// 101 followed by 5 zero padding bits -> 1010 0000.
	if buf[0] != 0b10100000 {
		t.Fatalf("buf[0] = %08b; want 10100000", buf[0])
	}
}
