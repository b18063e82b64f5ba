// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sml

import (
	"encoding/json"
	"math"
)

type ValueKind int

const (
	KindString ValueKind = iota
	KindSigned
	KindUnsigned
)

// Value is one decoded SML quantity. Exactly one of Bytes, Int or Uint
// is meaningful, selected by Kind.
type Value struct {
	Kind  ValueKind
	Bytes []byte
	Int   int64
	Uint  uint64
}

func StringValue(b []byte) Value  { return Value{Kind: KindString, Bytes: b} }
func SignedValue(v int64) Value   { return Value{Kind: KindSigned, Int: v} }
func UnsignedValue(v uint64) Value { return Value{Kind: KindUnsigned, Uint: v} }

// Scale applies the decimal scaler to a numeric value: scaled = raw * 10^scaler.
// Results are truncated toward zero for negative scalers. String values
// pass through unchanged.
func (v Value) Scale(scaler int) Value {
	if scaler == 0 {
		return v
	}
	switch v.Kind {
	case KindSigned:
		v.Int = scaleInt(v.Int, scaler)
	case KindUnsigned:
		v.Uint = uint64(scaleInt(int64(v.Uint), scaler))
	}
	return v
}

func scaleInt(raw int64, scaler int) int64 {
	for ; scaler > 0; scaler-- {
		raw *= 10
	}
	for ; scaler < 0; scaler++ {
		raw /= 10
	}
	return raw
}

// Watts narrows a numeric value to int32, saturating at the int32 range.
// Returns false for string values.
func (v Value) Watts() (int32, bool) {
	var w int64
	switch v.Kind {
	case KindSigned:
		w = v.Int
	case KindUnsigned:
		if v.Uint > math.MaxInt64 {
			return math.MaxInt32, true
		}
		w = int64(v.Uint)
	default:
		return 0, false
	}
	if w > math.MaxInt32 {
		return math.MaxInt32, true
	}
	if w < math.MinInt32 {
		return math.MinInt32, true
	}
	return int32(w), true
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindSigned:
		return json.Marshal(v.Int)
	case KindUnsigned:
		return json.Marshal(v.Uint)
	default:
		return json.Marshal(string(v.Bytes))
	}
}
