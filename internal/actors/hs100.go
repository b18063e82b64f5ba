// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package actors

import (
	"encoding/binary"
	"net"
	"strings"
	"time"

	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
)

// HS100 switches a TP-Link HS100/HS110 smart plug. The plug speaks a
// length-prefixed, XOR-autokey obfuscated JSON protocol on TCP 9999.
type HS100 struct {
	Address string
}

func (h *HS100) On()  { h.setRelayState(1) }
func (h *HS100) Off() { h.setRelayState(0) }

func (h *HS100) setRelayState(state int) {
	payload := `{"system":{"set_relay_state":{"state":0}}}`
	if state == 1 {
		payload = `{"system":{"set_relay_state":{"state":1}}}`
	}
	addr := h.Address
	if !strings.Contains(addr, ":") {
		addr += ":9999"
	}
	go func() {
		conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
		if err != nil {
			log.Warnf("hs100: connect %s: %s", addr, err.Error())
			return
		}
		defer conn.Close()
		conn.SetDeadline(time.Now().Add(5 * time.Second))
		if _, err := conn.Write(hs100Encrypt([]byte(payload))); err != nil {
			log.Warnf("hs100: write %s: %s", addr, err.Error())
		}
	}()
}

// hs100Encrypt prepends the 4-byte big-endian length and applies the
// autokey XOR starting at 171.
func hs100Encrypt(payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(out, uint32(len(payload)))
	key := byte(171)
	for i, b := range payload {
		key ^= b
		out[4+i] = key
	}
	return out
}
