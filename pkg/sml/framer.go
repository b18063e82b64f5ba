// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sml

import (
	"bytes"
	"io"
)

var (
	frameStart   = []byte{0x1b, 0x1b, 0x1b, 0x1b, 0x01, 0x01, 0x01, 0x01}
	frameEndMark = []byte{0x1b, 0x1b, 0x1b, 0x1b, 0x1a}
)

// End mark plus padding byte and CRC16.
const frameTrailerLen = 8

// Soft cap on the rolling buffer. A meter frame is a few hundred bytes;
// reaching this means we are reading noise.
const maxBufferSize = 64 * 1024

// Framer extracts complete SML frames from a byte stream. Bytes before
// the start sentinel are discarded, so the reader may attach mid-frame.
type Framer struct {
	r     io.Reader
	buf   []byte
	chunk []byte
}

func NewFramer(r io.Reader) *Framer {
	return &Framer{r: r, chunk: make([]byte, 4096)}
}

// Next blocks until one complete frame (both sentinels included) is
// available and returns it. The returned slice is owned by the caller.
func (f *Framer) Next() ([]byte, error) {
	for {
		if frame, ok := f.extract(); ok {
			return frame, nil
		}
		n, err := f.r.Read(f.chunk)
		if n > 0 {
			f.buf = append(f.buf, f.chunk[:n]...)
		}
		if err != nil {
			return nil, err
		}
	}
}

func (f *Framer) extract() ([]byte, bool) {
	start := bytes.Index(f.buf, frameStart)
	if start < 0 {
		// Keep the tail; a start sentinel may be split across reads.
		if len(f.buf) >= maxBufferSize {
			f.buf = append(f.buf[:0], f.buf[len(f.buf)/2:]...)
		}
		return nil, false
	}
	body := f.buf[start+len(frameStart):]
	end := bytes.Index(body, frameEndMark)
	if end < 0 || len(body) < end+frameTrailerLen {
		if len(f.buf) >= maxBufferSize {
			f.buf = append(f.buf[:0], f.buf[start:]...)
		}
		return nil, false
	}
	total := start + len(frameStart) + end + frameTrailerLen
	frame := make([]byte, total-start)
	copy(frame, f.buf[start:total])
	f.buf = append(f.buf[:0], f.buf[total:]...)
	return frame, true
}
