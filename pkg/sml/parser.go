// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sml decodes the Smart Message Language binary format emitted
// by household smart meters on the optical IR interface, and extracts
// complete frames from a raw serial byte stream.
package sml

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// ErrParse is returned for any deviation from the supported grammar.
// Callers discard the frame and resynchronize on the next one; the
// exact position of the mismatch is of no use to them.
var ErrParse = errors.New("sml: malformed message")

// Parse decodes a full frame including the escape header and trailer.
func Parse(frame []byte) ([]Envelope, error) {
	d := &decoder{buf: frame}
	if err := d.expect(frameStart...); err != nil {
		return nil, ErrParse
	}
	msgs, err := d.envelopes()
	if err != nil {
		return nil, ErrParse
	}
	if err := d.expect(frameEndMark...); err != nil {
		return nil, ErrParse
	}
	// padding byte and CRC16, unchecked
	if _, err := d.take(3); err != nil {
		return nil, ErrParse
	}
	return msgs, nil
}

// ParseBody decodes a message sequence without header and trailer.
func ParseBody(body []byte) ([]Envelope, error) {
	d := &decoder{buf: body}
	msgs, err := d.envelopes()
	if err != nil || d.pos != len(d.buf) {
		return nil, ErrParse
	}
	return msgs, nil
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) peek() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, ErrParse
	}
	return d.buf[d.pos], nil
}

func (d *decoder) next() (byte, error) {
	b, err := d.peek()
	if err != nil {
		return 0, err
	}
	d.pos++
	return b, nil
}

func (d *decoder) take(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, ErrParse
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) expect(want ...byte) error {
	got, err := d.take(len(want))
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return ErrParse
	}
	return nil
}

func (d *decoder) envelopes() ([]Envelope, error) {
	var msgs []Envelope
	for {
		b, err := d.peek()
		if err != nil || b != 0x76 {
			return msgs, nil
		}
		msg, err := d.envelope()
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
}

// envelope: 0x76 transaction-id group-no abort-flag body crc end
func (d *decoder) envelope() (Envelope, error) {
	if err := d.expect(0x76); err != nil {
		return nil, err
	}
	if _, err := d.str(); err != nil { // transaction id
		return nil, err
	}
	if err := d.expect(0x62); err != nil { // group no
		return nil, err
	}
	if _, err := d.next(); err != nil {
		return nil, err
	}
	if err := d.expect(0x62, 0x00); err != nil { // abort on error
		return nil, err
	}
	msg, err := d.body()
	if err != nil {
		return nil, err
	}
	if err := d.expect(0x63); err != nil { // message CRC, unchecked
		return nil, err
	}
	if _, err := d.take(2); err != nil {
		return nil, err
	}
	if err := d.expect(0x00); err != nil { // end of message
		return nil, err
	}
	return msg, nil
}

func (d *decoder) body() (Envelope, error) {
	if err := d.expect(0x72, 0x63); err != nil {
		return nil, err
	}
	tag, err := d.next()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0x01:
		return d.openResponse()
	case 0x07:
		return d.listResponse()
	case 0x02:
		return d.closeResponse()
	}
	// other message types exist but never on the meter's push channel
	return nil, ErrParse
}

// open-resp: 72 63 01 01 76, then codepage clientId reqFileId serverId refTime smlVersion;
// codepage, clientId, refTime and smlVersion must be absent (0x01)
func (d *decoder) openResponse() (Envelope, error) {
	if err := d.expect(0x01, 0x76, 0x01, 0x01); err != nil {
		return nil, err
	}
	reqFileID, err := d.str()
	if err != nil {
		return nil, err
	}
	serverID, err := d.str()
	if err != nil {
		return nil, err
	}
	if err := d.expect(0x01, 0x01); err != nil {
		return nil, err
	}
	return OpenResponse{ServerID: serverID, ReqFileID: reqFileID}, nil
}

// close-resp: 72 63 02 01 71 01
func (d *decoder) closeResponse() (Envelope, error) {
	if err := d.expect(0x01, 0x71, 0x01); err != nil {
		return nil, err
	}
	return CloseResponse{}, nil
}

// list-resp: 72 63 07 01 77, then clientId serverId listName actSensorTime valList listSignature actGatewayTime;
// clientId and listSignature must be absent (0x01), actGatewayTime absent or omitted
func (d *decoder) listResponse() (Envelope, error) {
	if err := d.expect(0x01, 0x77, 0x01); err != nil {
		return nil, err
	}
	serverID, err := d.str()
	if err != nil {
		return nil, err
	}
	listName, err := d.str()
	if err != nil {
		return nil, err
	}
	// actSensorTime carries a fixed secIndex shape on every meter seen
	// so far; treated as opaque. Unexpected variants fail the parse.
	if err := d.expect(0x72, 0x62); err != nil {
		return nil, err
	}
	if _, err := d.next(); err != nil {
		return nil, err
	}
	if err := d.expect(0x65); err != nil {
		return nil, err
	}
	if _, err := d.take(4); err != nil {
		return nil, err
	}
	entries, err := d.entries()
	if err != nil {
		return nil, err
	}
	if err := d.expect(0x01); err != nil { // list signature
		return nil, err
	}
	// actGatewayTime, optional
	if b, err := d.peek(); err == nil && b == 0x01 {
		d.pos++
	}
	return ListResponse{ServerID: serverID, ListName: listName, Entries: entries}, nil
}

func (d *decoder) entries() ([]ListEntry, error) {
	prefix, err := d.next()
	if err != nil {
		return nil, err
	}
	if prefix < 0x71 || prefix > 0x7f {
		return nil, ErrParse
	}
	n := int(prefix - 0x70)
	entries := make([]ListEntry, 0, n)
	for i := 0; i < n; i++ {
		e, err := d.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// entry: 77 object_name status? value_time unit? scaler? value value_signature;
// value_signature must be absent (0x01)
func (d *decoder) entry() (ListEntry, error) {
	var e ListEntry
	if err := d.expect(0x77); err != nil {
		return e, err
	}
	var err error
	if e.ObjectName, err = d.str(); err != nil {
		return e, err
	}
	if e.Status, err = d.optionalUnsigned(); err != nil {
		return e, err
	}
	if e.ValueTime, err = d.str(); err != nil {
		return e, err
	}
	if e.Unit, err = d.optionalUnsigned(); err != nil {
		return e, err
	}
	if e.Scaler, err = d.optionalSigned(); err != nil {
		return e, err
	}
	if e.Value, err = d.value(); err != nil {
		return e, err
	}
	if err = d.expect(0x01); err != nil { // value signature
		return e, err
	}
	return e, nil
}

func (d *decoder) value() (Value, error) {
	b, err := d.peek()
	if err != nil {
		return Value{}, err
	}
	switch {
	case b >= 0x01 && b <= 0x0f, b >= 0x81 && b <= 0x83:
		s, err := d.str()
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case b >= 0x52 && b <= 0x59:
		v, err := d.signed()
		if err != nil {
			return Value{}, err
		}
		return SignedValue(v), nil
	case b >= 0x62 && b <= 0x69:
		v, err := d.unsigned()
		if err != nil {
			return Value{}, err
		}
		return UnsignedValue(v), nil
	}
	return Value{}, ErrParse
}

// unsigned: prefix 0x62..=0x69, big-endian, zero-padded to 8 bytes
func (d *decoder) unsigned() (uint64, error) {
	prefix, err := d.next()
	if err != nil {
		return 0, err
	}
	if prefix < 0x62 || prefix > 0x69 {
		return 0, ErrParse
	}
	data, err := d.take(int(prefix - 0x61))
	if err != nil {
		return 0, err
	}
	var padded [8]byte
	copy(padded[8-len(data):], data)
	return binary.BigEndian.Uint64(padded[:]), nil
}

// signed: prefix 0x52..=0x59, big-endian, sign-extended to 8 bytes.
// The pad byte depends on the high bit of the first data byte; getting
// this wrong flips every export reading positive.
func (d *decoder) signed() (int64, error) {
	prefix, err := d.next()
	if err != nil {
		return 0, err
	}
	if prefix < 0x52 || prefix > 0x59 {
		return 0, ErrParse
	}
	data, err := d.take(int(prefix - 0x51))
	if err != nil {
		return 0, err
	}
	var padded [8]byte
	if data[0] >= 0x80 {
		for i := range padded {
			padded[i] = 0xff
		}
	}
	copy(padded[8-len(data):], data)
	return int64(binary.BigEndian.Uint64(padded[:])), nil
}

func (d *decoder) optionalUnsigned() (*uint64, error) {
	b, err := d.peek()
	if err != nil {
		return nil, err
	}
	if b == 0x01 {
		d.pos++
		return nil, nil
	}
	v, err := d.unsigned()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (d *decoder) optionalSigned() (*int, error) {
	b, err := d.peek()
	if err != nil {
		return nil, err
	}
	if b == 0x01 {
		d.pos++
		return nil, nil
	}
	v, err := d.signed()
	if err != nil {
		return nil, err
	}
	s := int(v)
	return &s, nil
}

// str: short string (prefix 0x01..=0x0f) or long string (0x81..=0x83
// plus a nibble encoding the extra length)
func (d *decoder) str() ([]byte, error) {
	prefix, err := d.next()
	if err != nil {
		return nil, err
	}
	switch {
	case prefix >= 0x01 && prefix <= 0x0f:
		return d.take(int(prefix - 0x01))
	case prefix >= 0x81 && prefix <= 0x83:
		nibble, err := d.next()
		if err != nil {
			return nil, err
		}
		if nibble > 0x0f {
			return nil, ErrParse
		}
		base := map[byte]int{0x81: 14, 0x82: 30, 0x83: 46}[prefix]
		return d.take(base + int(nibble))
	}
	return nil, ErrParse
}
