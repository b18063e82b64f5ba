// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package meter

import (
	"sync"

	"github.com/ClusterCockpit/cc-powerflow/pkg/sml"
)

// Snapshot is the last scaled value of every OBIS quantity the meter
// reported. Writer is the meter task, readers are the HTTP handlers.
type Snapshot struct {
	mu     sync.Mutex
	values map[sml.OBIS]sml.Value
}

func NewSnapshot() *Snapshot {
	return &Snapshot{values: make(map[sml.OBIS]sml.Value)}
}

func (s *Snapshot) Update(entries []sml.ListEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range entries {
		obis, ok := entries[i].OBIS()
		if !ok {
			continue
		}
		s.values[obis] = entries[i].ScaledValue()
	}
}

func (s *Snapshot) Get(name sml.OBIS) (sml.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	return v, ok
}

// All returns a copy keyed by OBIS notation, ready for JSON encoding.
func (s *Snapshot) All() map[string]sml.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]sml.Value, len(s.values))
	for obis, v := range s.values {
		out[obis.String()] = v
	}
	return out
}
