// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

var configSchema = `
{
  "type": "object",
  "properties": {
    "addr": {
      "description": "Address where the http server will listen on (for example: 'localhost:80').",
      "type": "string"
    },
    "sample-log": {
      "description": "Path of the append-only CSV sample log replayed on startup.",
      "type": "string"
    },
    "lower-limit": {
      "description": "Watt reading below which the site exports too much. Typically negative.",
      "type": "integer"
    },
    "upper-limit": {
      "description": "Watt reading above which the site imports too much.",
      "type": "integer"
    },
    "meter": {
      "description": "The smart-meter input.",
      "type": "object",
      "properties": {
        "kind": {
          "type": "string",
          "enum": ["sml", "modbus"]
        },
        "device": {
          "description": "Serial device of the optical IR read head.",
          "type": "string"
        },
        "active-power-obis": {
          "description": "OBIS code of the instantaneous active power entry.",
          "type": "string"
        },
        "power-gpio": {
          "description": "GPIO line powering the IR read head.",
          "type": "string"
        },
        "modbus": {
          "type": "object",
          "properties": {
            "connection": { "$ref": "#/$defs/modbus-connection" },
            "register": {
              "type": "integer",
              "minimum": 0,
              "maximum": 65535
            },
            "poll-interval-ms": {
              "type": "integer",
              "minimum": 1
            }
          },
          "required": ["connection", "register", "poll-interval-ms"]
        }
      },
      "required": ["kind"]
    },
    "producers": {
      "description": "Actors adding power to the local bus, in dispatch priority order.",
      "type": "array",
      "items": { "$ref": "#/$defs/actor" }
    },
    "consumers": {
      "description": "Actors taking power off the local bus, in dispatch priority order.",
      "type": "array",
      "items": { "$ref": "#/$defs/actor" }
    },
    "mqtt": {
      "type": "object",
      "properties": {
        "broker": { "type": "string" },
        "username": { "type": "string" },
        "password": { "type": "string" },
        "client-id": { "type": "string" },
        "publications": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "obis": { "type": "string" },
              "topic": { "type": "string" }
            },
            "required": ["obis", "topic"]
          }
        }
      },
      "required": ["broker", "publications"]
    },
    "influxdb": {
      "type": "object",
      "properties": {
        "url": { "type": "string" },
        "token": { "type": "string" },
        "org": { "type": "string" },
        "bucket": { "type": "string" },
        "meter": { "type": "string" }
      },
      "required": ["url", "token", "org", "bucket"]
    }
  },
  "required": ["meter", "lower-limit", "upper-limit"],
  "$defs": {
    "modbus-connection": {
      "type": "object",
      "properties": {
        "tcp": {
          "description": "host:port of a Modbus TCP gateway.",
          "type": "string"
        },
        "rtu": {
          "type": "object",
          "properties": {
            "device": { "type": "string" },
            "baud-rate": { "type": "integer" },
            "stop-bits": { "type": "string", "enum": ["one", "two"] },
            "parity": { "type": "string", "enum": ["even", "odd"] },
            "flow-control": { "type": "string", "enum": ["none", "software", "hardware"] }
          },
          "required": ["device", "baud-rate"]
        }
      }
    },
    "actor": {
      "type": "object",
      "properties": {
        "kind": {
          "type": "string",
          "enum": ["tasmota", "hs100", "ahoy-dtu", "open-dtu", "ez1m", "marstek-charge", "marstek-discharge"]
        },
        "settling-seconds": {
          "description": "Settle window after each command.",
          "type": "integer",
          "minimum": 0
        },
        "nominal-watts": { "type": "integer", "minimum": 0 },
        "max-watts": { "type": "integer", "minimum": 0 },
        "nameplate-watts": { "type": "integer", "minimum": 0 },
        "upper-limit-watts": { "type": "integer", "minimum": 0 },
        "url": { "type": "string" },
        "address": { "type": "string" },
        "inverter": { "type": "integer", "minimum": 0 },
        "serial": { "type": "string" },
        "password": { "type": "string" },
        "modbus": { "$ref": "#/$defs/modbus-connection" }
      },
      "required": ["kind", "settling-seconds"]
    }
  }
}`
