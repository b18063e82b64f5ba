// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config holds the program configuration: the HTTP listen
// address, the dead-band limits, the meter input and the two ordered
// actor lists. The file is JSON, validated against an embedded schema
// before decoding. A malformed config is fatal at startup.
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
)

// Format of the configuration (file). See below for the defaults.
type ProgramConfig struct {
	// Address where the http server will listen on (for example: 'localhost:80').
	Addr string `json:"addr"`

	// Append-only sample log replayed on startup (CSV, one sample per line).
	SampleLog string `json:"sample-log"`

	// Dead-band limits in watts. Below lower-limit the site exports too
	// much, above upper-limit it imports too much. lower-limit is
	// typically negative.
	LowerLimit int `json:"lower-limit"`
	UpperLimit int `json:"upper-limit"`

	// The smart-meter input.
	Meter MeterConfig `json:"meter"`

	// Actors that add power to the local bus (battery discharge,
	// inverters) and actors that take power off it (battery charge,
	// switchable loads). List order is dispatch priority.
	Producers []ActorConfig `json:"producers"`
	Consumers []ActorConfig `json:"consumers"`

	// Optional OBIS→topic MQTT publications.
	MQTT *MQTTConfig `json:"mqtt,omitempty"`

	// Optional InfluxDB sample sink.
	InfluxDB *InfluxConfig `json:"influxdb,omitempty"`
}

type MeterConfig struct {
	// 'sml' (optical IR head on a serial port) or 'modbus'.
	Kind string `json:"kind"`

	// Serial device of the IR read head, 9600 8-N-1 (sml only).
	Device string `json:"device,omitempty"`

	// OBIS code of the instantaneous active power entry. Defaults to
	// 1-0:16.7.0*255.
	ActivePowerObis string `json:"active-power-obis,omitempty"`

	// GPIO line that powers the IR read head, driven high at startup.
	PowerGpio string `json:"power-gpio,omitempty"`

	Modbus *ModbusMeterConfig `json:"modbus,omitempty"`
}

type ModbusMeterConfig struct {
	Connection ModbusConnConfig `json:"connection"`

	// Holding register holding the signed net power.
	Register uint16 `json:"register"`

	PollIntervalMillis int `json:"poll-interval-ms"`
}

// Exactly one of TCP or RTU is set.
type ModbusConnConfig struct {
	// host:port of a Modbus TCP gateway.
	TCP string `json:"tcp,omitempty"`

	RTU *RTUConfig `json:"rtu,omitempty"`
}

type RTUConfig struct {
	Device   string `json:"device"`
	BaudRate int    `json:"baud-rate"`

	// 'one' or 'two'
	StopBits string `json:"stop-bits,omitempty"`

	// 'even' or 'odd'
	Parity string `json:"parity,omitempty"`

	// 'none', 'software' or 'hardware'. Only 'none' is supported by
	// the serial backend; anything else logs a warning.
	FlowControl string `json:"flow-control,omitempty"`
}

type ActorConfig struct {
	// Driver kind: 'tasmota', 'hs100', 'ahoy-dtu', 'open-dtu', 'ez1m',
	// 'marstek-charge' or 'marstek-discharge'.
	Kind string `json:"kind"`

	// Settle window after each command during which the actor refuses
	// further commands.
	SettlingSeconds uint `json:"settling-seconds"`

	// Switching actors: power the attached load draws when on.
	NominalWatts int `json:"nominal-watts,omitempty"`

	// Regulating actors: the most the control loop will ask for, and
	// the hard device limit the driver clamps against.
	MaxWatts        int `json:"max-watts,omitempty"`
	UpperLimitWatts int `json:"upper-limit-watts,omitempty"`

	// HTTP drivers.
	URL string `json:"url,omitempty"`

	// hs100: host or host:port of the plug.
	Address string `json:"address,omitempty"`

	// ahoy-dtu
	InverterNo int `json:"inverter,omitempty"`

	// open-dtu: the inverter's nameplate power the relative limit is
	// computed against. Defaults to max-watts.
	NameplateWatts int    `json:"nameplate-watts,omitempty"`
	Serial         string `json:"serial,omitempty"`
	Password       string `json:"password,omitempty"`

	// marstek-*
	Modbus *ModbusConnConfig `json:"modbus,omitempty"`
}

type MQTTConfig struct {
	Broker       string        `json:"broker"` // tcp://host:port
	Username     string        `json:"username,omitempty"`
	Password     string        `json:"password,omitempty"`
	ClientID     string        `json:"client-id,omitempty"`
	Publications []Publication `json:"publications"`
}

type Publication struct {
	Obis  string `json:"obis"`
	Topic string `json:"topic"`
}

type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`

	// Tag value identifying this meter in the measurement.
	Meter string `json:"meter,omitempty"`
}

var Keys ProgramConfig = ProgramConfig{
	Addr:       ":8080",
	SampleLog:  "./var/samples.csv",
	LowerLimit: -50,
	UpperLimit: 50,
}

func Init(flagConfigFile string) {
	raw, err := os.ReadFile(flagConfigFile)
	if err != nil {
		log.Abortf("Config Init: Could not read config file '%s'.\nError: %s\n",
			flagConfigFile, err.Error())
	}

	Validate(configSchema, raw)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		log.Abortf("Config Init: Could not decode config file '%s'.\nError: %s\n",
			flagConfigFile, err.Error())
	}

	if Keys.LowerLimit >= Keys.UpperLimit {
		log.Abortf("Config Init: lower-limit (%d) must be below upper-limit (%d)\n",
			Keys.LowerLimit, Keys.UpperLimit)
	}
}
