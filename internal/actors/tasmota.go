// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package actors

import (
	"net/http"
	"net/url"
	"time"

	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
)

// One shared client for all HTTP drivers. Devices on flaky WLAN must
// not hold a command goroutine longer than this.
var httpClient = &http.Client{Timeout: 5 * time.Second}

// Tasmota switches a load through the stock Tasmota firmware's
// 'cm?cmnd=Power on|off' endpoint.
type Tasmota struct {
	URL string
}

func (t *Tasmota) On()  { t.command("Power on") }
func (t *Tasmota) Off() { t.command("Power off") }

func (t *Tasmota) command(cmnd string) {
	u, err := commandURL(t.URL, "cm", url.Values{"cmnd": {cmnd}})
	if err != nil {
		log.Errorf("tasmota: bad url '%s': %s", t.URL, err.Error())
		return
	}
	go func() {
		resp, err := httpClient.Get(u)
		if err != nil {
			log.Warnf("tasmota: command failed: %s", err.Error())
			return
		}
		resp.Body.Close()
	}()
}

// commandURL joins a device base URL with an endpoint path and query.
func commandURL(base, path string, query url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u = u.JoinPath(path)
	u.RawQuery = query.Encode()
	return u.String(), nil
}
