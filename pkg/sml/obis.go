// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sml

import (
	"fmt"
)

// OBIS is the 6-byte identifier naming a meter quantity
// (IEC 62056-61, value groups A-B:C.D.E*F).
type OBIS [6]byte

// Quantities seen on common SML household meters.
var (
	ObisSumActivePower = OBIS{1, 0, 16, 7, 0, 255}   // 1-0:16.7.0*255
	ObisEnergyImport   = OBIS{1, 0, 1, 8, 0, 255}    // 1-0:1.8.0*255
	ObisEnergyExport   = OBIS{1, 0, 2, 8, 0, 255}    // 1-0:2.8.0*255
	ObisManufacturer   = OBIS{129, 129, 199, 130, 3, 255} // 129-129:199.130.3*255
)

// ObisFromBytes converts a raw object name as found in a list entry.
// Returns false if the name is not a 6-byte OBIS code.
func ObisFromBytes(b []byte) (OBIS, bool) {
	var o OBIS
	if len(b) != len(o) {
		return o, false
	}
	copy(o[:], b)
	return o, true
}

func (o OBIS) String() string {
	return fmt.Sprintf("%d-%d:%d.%d.%d*%d", o[0], o[1], o[2], o[3], o[4], o[5])
}

// ParseOBIS parses the A-B:C.D.E*F notation used in the config file.
func ParseOBIS(s string) (OBIS, error) {
	var o OBIS
	var a, b, c, d, e, f int
	n, err := fmt.Sscanf(s, "%d-%d:%d.%d.%d*%d", &a, &b, &c, &d, &e, &f)
	if err != nil || n != 6 {
		return o, fmt.Errorf("sml: invalid OBIS code %q", s)
	}
	for i, v := range []int{a, b, c, d, e, f} {
		if v < 0 || v > 255 {
			return o, fmt.Errorf("sml: invalid OBIS code %q", s)
		}
		o[i] = byte(v)
	}
	return o, nil
}

func (o OBIS) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *OBIS) UnmarshalText(text []byte) error {
	parsed, err := ParseOBIS(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
