// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package schema holds the data types shared between the meter input,
// the sample store, the control loop and the HTTP API.
package schema

import (
	"encoding/json"
	"time"
)

// Sample is one net-power reading from the grid connection point.
// Positive values are import, negative values export.
type Sample struct {
	Time  time.Time
	Watts int32
}

type sampleJSON struct {
	// Milliseconds since the epoch, the unit the web UI plots in.
	Date  int64 `json:"date"`
	Value int32 `json:"value"`
}

func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal(sampleJSON{Date: s.Time.UnixMilli(), Value: s.Watts})
}

func (s *Sample) UnmarshalJSON(data []byte) error {
	var raw sampleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Time = time.UnixMilli(raw.Date).UTC()
	s.Watts = raw.Value
	return nil
}
