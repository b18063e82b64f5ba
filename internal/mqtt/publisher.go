// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mqtt publishes configured meter quantities to an MQTT
// broker, one topic per OBIS code. Useful for feeding the readings
// into home automation without going through the HTTP API.
package mqtt

import (
	"fmt"
	"strconv"

	"github.com/ClusterCockpit/cc-powerflow/internal/config"
	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/ClusterCockpit/cc-powerflow/pkg/sml"
	paho "github.com/eclipse/paho.mqtt.golang"
)

type publication struct {
	obis  sml.OBIS
	topic string
}

type Publisher struct {
	client paho.Client
	pubs   []publication
}

func New(cfg *config.MQTTConfig) (*Publisher, error) {
	pubs := make([]publication, 0, len(cfg.Publications))
	for _, p := range cfg.Publications {
		obis, err := sml.ParseOBIS(p.Obis)
		if err != nil {
			return nil, fmt.Errorf("mqtt: publication for topic '%s': %w", p.Topic, err)
		}
		pubs = append(pubs, publication{obis: obis, topic: p.Topic})
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "cc-powerflow"
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true)
	opts.OnConnect = func(paho.Client) {
		log.Infof("mqtt: connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Warnf("mqtt: connection lost: %s", err.Error())
	}

	client := paho.NewClient(opts)
	// Connect retries in the background; readings published before the
	// broker is up are lost, which is fine for live values.
	client.Connect()

	return &Publisher{client: client, pubs: pubs}, nil
}

// HandleEntries publishes every configured quantity found in one list
// response. Intended as the meter source's OnList observer.
func (p *Publisher) HandleEntries(entries []sml.ListEntry) {
	for _, pub := range p.pubs {
		for i := range entries {
			obis, ok := entries[i].OBIS()
			if !ok || obis != pub.obis {
				continue
			}
			p.client.Publish(pub.topic, 1, false, formatValue(entries[i].ScaledValue()))
		}
	}
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func formatValue(v sml.Value) string {
	switch v.Kind {
	case sml.KindSigned:
		return strconv.FormatInt(v.Int, 10)
	case sml.KindUnsigned:
		return strconv.FormatUint(v.Uint, 10)
	default:
		return string(v.Bytes)
	}
}
