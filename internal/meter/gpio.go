// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package meter

import (
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// EnablePowerSupply drives the GPIO line feeding the IR read head
// high. Some read heads take their supply from a host pin instead of
// the serial adapter.
func EnablePowerSupply(line string) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("meter: gpio host init: %w", err)
	}
	pin := gpioreg.ByName(line)
	if pin == nil {
		return fmt.Errorf("meter: no GPIO line '%s'", line)
	}
	if err := pin.Out(gpio.High); err != nil {
		return fmt.Errorf("meter: enable %s: %w", line, err)
	}
	return nil
}
