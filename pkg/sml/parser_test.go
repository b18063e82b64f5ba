// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sml

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Captured from an ISKRA MT175 push telegram.
var openFrame = []byte{
	0x1b, 0x1b, 0x1b, 0x1b, 0x01, 0x01, 0x01, 0x01, // header
	0x76,
	0x05, 0x03, 0x2b, 0x18, 0x0f, // transaction id
	0x62, 0x00, // group no
	0x62, 0x00, // abort on error
	0x72,
	0x63, 0x01, 0x01, // getOpenResponse
	0x76,
	0x01,                         // codepage, absent
	0x01,                         // client id, absent
	0x05, 0x04, 0x03, 0x02, 0x01, // req file id
	0x0b, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, // server id
	0x01,             // ref time
	0x01,             // sml version
	0x63, 0x49, 0x00, // message CRC
	0x00, // end of message
	0x1b, 0x1b, 0x1b, 0x1b, // escape sequence
	0x1a, 0x00, 0x70, 0xb2, // 1a + padding + CRC16
}

var listBody = []byte{
	0x76,
	0x05, 0x01, 0xd3, 0xd7, 0xbb,
	0x62, 0x00,
	0x62, 0x00,
	0x72,
	0x63, 0x07, 0x01, // getListResponse
	0x77,
	0x01, // client id, absent
	0x0b, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, // server id
	0x07, 0x01, 0x00, 0x62, 0x0a, 0xff, 0xff, // list name
	0x72, // actSensorTime
	0x62, 0x01, // choice: secIndex
	0x65, 0x01, 0x8a, 0x4d, 0x15, // secIndex (uptime)
	0x72, // value list, 2 entries
	0x77,
	0x07, 0x81, 0x81, 0xc7, 0x82, 0x03, 0xff, // object name (manufacturer)
	0x01,                   // status, absent
	0x01,                   // value time, absent
	0x01,                   // unit, absent
	0x01,                   // scaler, absent
	0x04, 0x49, 0x53, 0x4b, // value "ISK"
	0x01, // value signature
	0x77,
	0x07, 0x01, 0x00, 0x01, 0x08, 0x00, 0xff, // object name (energy import)
	0x65, 0x00, 0x00, 0x01, 0x82, // status
	0x01,       // value time, absent
	0x62, 0x1e, // unit
	0x52, 0xff, // scaler
	0x59, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // value
	0x01, // value signature
	0x01, // list signature
	0x01, // actGatewayTime
	0x63, 0xc6, 0x12, // message CRC
	0x00, // end of message
}

var closeFrame = []byte{
	0x1b, 0x1b, 0x1b, 0x1b, 0x01, 0x01, 0x01, 0x01,
	0x76,
	0x05, 0x03, 0x2b, 0x18, 0x11,
	0x62, 0x00,
	0x62, 0x00,
	0x72,
	0x63, 0x02, 0x01, // getCloseResponse
	0x71,
	0x01,
	0x63, 0xfa, 0x36,
	0x00,
	0x1b, 0x1b, 0x1b, 0x1b,
	0x1a, 0x00, 0x70, 0xb2,
}

func TestParseOpenFrame(t *testing.T) {
	msgs, err := Parse(openFrame)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	open, ok := msgs[0].(OpenResponse)
	require.True(t, ok, "expected OpenResponse, got %T", msgs[0])
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, open.ServerID)
	assert.Equal(t, []byte{4, 3, 2, 1}, open.ReqFileID)
}

func TestParseListBody(t *testing.T) {
	msgs, err := ParseBody(listBody)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	list, ok := msgs[0].(ListResponse)
	require.True(t, ok, "expected ListResponse, got %T", msgs[0])
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, list.ServerID)
	assert.Equal(t, []byte{1, 0, 98, 10, 255, 255}, list.ListName)
	require.Len(t, list.Entries, 2)

	manufacturer := list.Entries[0]
	name, ok := manufacturer.OBIS()
	require.True(t, ok)
	assert.Equal(t, ObisManufacturer, name)
	assert.Nil(t, manufacturer.Status)
	assert.Nil(t, manufacturer.Unit)
	assert.Nil(t, manufacturer.Scaler)
	assert.Equal(t, StringValue([]byte("ISK")), manufacturer.Value)

	energy := list.Entries[1]
	name, ok = energy.OBIS()
	require.True(t, ok)
	assert.Equal(t, ObisEnergyImport, name)
	require.NotNil(t, energy.Status)
	assert.Equal(t, uint64(386), *energy.Status)
	require.NotNil(t, energy.Unit)
	assert.Equal(t, uint64(30), *energy.Unit)
	require.NotNil(t, energy.Scaler)
	assert.Equal(t, -1, *energy.Scaler)
	assert.Equal(t, SignedValue(0), energy.Value)
}

func TestParseCloseFrame(t *testing.T) {
	msgs, err := Parse(closeFrame)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	_, ok := msgs[0].(CloseResponse)
	assert.True(t, ok, "expected CloseResponse, got %T", msgs[0])
}

// A full telegram of an EMH meter: open response, a nine-entry list
// response with long strings and wide integers, close response.
func TestParseMeterTelegram(t *testing.T) {
	frame := []byte{
		0x1b, 0x1b, 0x1b, 0x1b, 0x01, 0x01, 0x01, 0x01, 0x76, 0x07, 0x00, 0x11, 0x06, 0x33,
		0x10, 0x11, 0x62, 0x00, 0x62, 0x00, 0x72, 0x63, 0x01, 0x01, 0x76, 0x01, 0x01, 0x07,
		0x00, 0x11, 0x04, 0x5d, 0x05, 0x5b, 0x0b, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x93, 0xa2, 0xc7, 0x01, 0x01, 0x63, 0xc0, 0xd3, 0x00, 0x76, 0x07, 0x00, 0x11, 0x06,
		0x33, 0x10, 0x12, 0x62, 0x00, 0x62, 0x00, 0x72, 0x63, 0x07, 0x01, 0x77, 0x01, 0x0b,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x93, 0xa2, 0xc7, 0x07, 0x01, 0x00, 0x62,
		0x0a, 0xff, 0xff, 0x72, 0x62, 0x01, 0x65, 0x04, 0x5d, 0x00, 0xd1, 0x79, 0x77, 0x07,
		0x81, 0x81, 0xc7, 0x82, 0x03, 0xff, 0x01, 0x01, 0x01, 0x01, 0x04, 0x45, 0x4d, 0x48,
		0x01, 0x77, 0x07, 0x01, 0x00, 0x00, 0x00, 0x09, 0xff, 0x01, 0x01, 0x01, 0x01, 0x0b,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x93, 0xa2, 0xc7, 0x01, 0x77, 0x07, 0x01,
		0x00, 0x01, 0x08, 0x00, 0xff, 0x64, 0x01, 0x02, 0x82, 0x01, 0x62, 0x1e, 0x52, 0x03,
		0x56, 0x00, 0x00, 0x00, 0x0e, 0x0d, 0x01, 0x77, 0x07, 0x01, 0x00, 0x02, 0x08, 0x00,
		0xff, 0x64, 0x01, 0x02, 0x82, 0x01, 0x62, 0x1e, 0x52, 0x03, 0x56, 0x00, 0x00, 0x00,
		0x14, 0xc1, 0x01, 0x77, 0x07, 0x01, 0x00, 0x01, 0x08, 0x01, 0xff, 0x01, 0x01, 0x62,
		0x1e, 0x52, 0x03, 0x56, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x77, 0x07, 0x01, 0x00,
		0x02, 0x08, 0x01, 0xff, 0x01, 0x01, 0x62, 0x1e, 0x52, 0x03, 0x56, 0x00, 0x00, 0x00,
		0x14, 0xc1, 0x01, 0x77, 0x07, 0x01, 0x00, 0x01, 0x08, 0x02, 0xff, 0x01, 0x01, 0x62,
		0x1e, 0x52, 0x03, 0x56, 0x00, 0x00, 0x00, 0x0e, 0x0d, 0x01, 0x77, 0x07, 0x01, 0x00,
		0x02, 0x08, 0x02, 0xff, 0x01, 0x01, 0x62, 0x1e, 0x52, 0x03, 0x56, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x01, 0x77, 0x07, 0x81, 0x81, 0xc7, 0x82, 0x05, 0xff, 0x01, 0x01, 0x01,
		0x01, 0x83, 0x02, 0x65, 0xdc, 0xe7, 0x5e, 0xa7, 0x7a, 0xdf, 0x65, 0x1c, 0xc3, 0xc3,
		0xde, 0x43, 0xe2, 0xf6, 0xb2, 0x72, 0x0d, 0x78, 0x0b, 0xd2, 0xf0, 0x54, 0xa4, 0xc7,
		0x8c, 0xc3, 0x8c, 0xfc, 0x42, 0xb0, 0x6e, 0xa5, 0x27, 0xbf, 0xe0, 0xfc, 0x51, 0x4a,
		0xb8, 0x6f, 0x83, 0x03, 0x0f, 0x54, 0x1b, 0x4f, 0x87, 0x01, 0x01, 0x01, 0x63, 0xaa,
		0x28, 0x00, 0x76, 0x07, 0x00, 0x11, 0x06, 0x33, 0x10, 0x15, 0x62, 0x00, 0x62, 0x00,
		0x72, 0x63, 0x02, 0x01, 0x71, 0x01, 0x63, 0x0b, 0x74, 0x00, 0x1b, 0x1b, 0x1b, 0x1b,
		0x1a, 0x00, 0x0b, 0xc6,
	}

	msgs, err := Parse(frame)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	list, ok := msgs[1].(ListResponse)
	require.True(t, ok, "expected ListResponse, got %T", msgs[1])
	assert.Len(t, list.Entries, 9)
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte{0x76, 0x05}); err != ErrParse {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if _, err := ParseBody([]byte{0x76, 0x05, 0x01, 0xd3}); err != ErrParse {
		t.Fatalf("expected ErrParse, got %v", err)
	}

	// truncated list response
	truncated := listBody[:len(listBody)-10]
	if _, err := ParseBody(truncated); err != ErrParse {
		t.Fatalf("expected ErrParse, got %v", err)
	}

	// unexpected actSensorTime shape must fail, not hang
	mangled := bytes.Clone(listBody)
	mangled[35] = 0x66
	if _, err := ParseBody(mangled); err != ErrParse {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestDecodeSigned(t *testing.T) {
	cases := []struct {
		in   []byte
		want int64
	}{
		{[]byte{0x52, 0x02}, 2},
		{[]byte{0x52, 0xfe}, -2},
		{[]byte{0x55, 0x00, 0x00, 0x00, 0x01}, 1},
		{[]byte{0x55, 0xff, 0xff, 0xff, 0xff}, -1},
		{[]byte{0x58, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}, 1},
		{[]byte{0x58, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, -1},
	}
	for _, c := range cases {
		d := &decoder{buf: c.in}
		got, err := d.signed()
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "input % x", c.in)
	}
}

func TestDecodeUnsigned(t *testing.T) {
	d := &decoder{buf: []byte{0x68, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}}
	got, err := d.unsigned()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)
}

// encodeSigned emits v with the shortest possible prefix.
func encodeSigned(v int64) []byte {
	n := 1
	for ; n < 8; n++ {
		shift := uint(64 - 8*n)
		if v<<shift>>shift == v {
			break
		}
	}
	out := []byte{byte(0x51 + n)}
	for i := n - 1; i >= 0; i-- {
		out = append(out, byte(uint64(v)>>(8*i)))
	}
	return out
}

func TestSignedRoundTrip(t *testing.T) {
	values := []int64{
		0, 1, -1, 2, -2, 127, -128, 128, -129, 255, -256,
		32767, -32768, 1 << 23, -(1 << 23), 1<<55 - 1, -(1 << 55),
	}
	for _, v := range values {
		d := &decoder{buf: encodeSigned(v)}
		got, err := d.signed()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestScaledValue(t *testing.T) {
	scaler := -1
	e := ListEntry{Value: SignedValue(4567), Scaler: &scaler}
	assert.Equal(t, int64(456), e.ScaledValue().Int)

	scaler = 2
	e = ListEntry{Value: SignedValue(-3), Scaler: &scaler}
	assert.Equal(t, int64(-300), e.ScaledValue().Int)

	e = ListEntry{Value: SignedValue(42)}
	assert.Equal(t, int64(42), e.ScaledValue().Int)
}

func TestWattsSaturates(t *testing.T) {
	w, ok := SignedValue(1 << 40).Watts()
	require.True(t, ok)
	assert.Equal(t, int32(1<<31-1), w)

	w, ok = SignedValue(-(1 << 40)).Watts()
	require.True(t, ok)
	assert.Equal(t, int32(-(1 << 31)), w)

	_, ok = StringValue([]byte("ISK")).Watts()
	assert.False(t, ok)
}
