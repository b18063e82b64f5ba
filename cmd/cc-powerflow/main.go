// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ClusterCockpit/cc-powerflow/internal/actors"
	"github.com/ClusterCockpit/cc-powerflow/internal/config"
	"github.com/ClusterCockpit/cc-powerflow/internal/controller"
	"github.com/ClusterCockpit/cc-powerflow/internal/datastore"
	"github.com/ClusterCockpit/cc-powerflow/internal/meter"
	"github.com/ClusterCockpit/cc-powerflow/internal/mqtt"
	"github.com/ClusterCockpit/cc-powerflow/internal/runtimeEnv"
	"github.com/ClusterCockpit/cc-powerflow/internal/sink"
	"github.com/ClusterCockpit/cc-powerflow/internal/taskManager"
	"github.com/ClusterCockpit/cc-powerflow/internal/util"
	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/ClusterCockpit/cc-powerflow/pkg/schema"
	"github.com/ClusterCockpit/cc-powerflow/pkg/sml"
	"github.com/google/gops/agent"
)

var (
	date    string
	commit  string
	version string
)

func main() {
	cliInit()

	if flagVersion {
		fmt.Printf("Version:\t%s\n", version)
		fmt.Printf("Git hash:\t%s\n", commit)
		fmt.Printf("Build time:\t%s\n", date)
		os.Exit(0)
	}

	log.Init(flagLogLevel, flagLogDateTime)

	// See https://github.com/google/gops (Runtime overhead is almost zero)
	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	if err := runtimeEnv.LoadEnv("./.env"); err != nil {
		log.Fatalf("parsing './.env' file failed: %s", err.Error())
	}

	config.Init(flagConfigFile)
	cfg := &config.Keys

	store := datastore.New(cfg.SampleLog)
	if util.CheckFileExists(cfg.SampleLog) {
		if err := store.ReplayFromLog(time.Now()); err != nil {
			log.Warnf("replaying sample log failed: %s", err.Error())
		}
	} else {
		log.Infof("no sample log at %s yet, starting empty", cfg.SampleLog)
	}

	snapshot := meter.NewSnapshot()

	var publisher *mqtt.Publisher
	if cfg.MQTT != nil {
		var err error
		if publisher, err = mqtt.New(cfg.MQTT); err != nil {
			log.Fatal(err)
		}
	}

	var influx *sink.InfluxSink
	var sampleSink meter.SampleSink
	if cfg.InfluxDB != nil {
		influx = sink.New(cfg.InfluxDB)
		sampleSink = influx
	}

	source := buildSource(cfg, snapshot, publisher)

	producers := buildActors(cfg.Producers)
	consumers := buildActors(cfg.Consumers)
	ctrl := controller.New(cfg.LowerLimit, cfg.UpperLimit, producers, consumers)

	ctx, cancel := context.WithCancel(context.Background())

	// meter -> pump -> controller, sized so a stalled consumer drops
	// instead of blocking the meter
	raw := make(chan schema.Sample, 100)
	dispatch := make(chan schema.Sample, 100)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		source.Run(ctx, raw)
		close(raw)
	}()
	go func() {
		defer wg.Done()
		meter.Pump(ctx, raw, store, sampleSink, dispatch)
	}()
	go func() {
		defer wg.Done()
		ctrl.Run(ctx, dispatch)
	}()

	taskManager.Start(store, cfg.SampleLog)
	serverInit(store, snapshot)

	wg.Add(1)
	go func() {
		defer wg.Done()
		serverStart()
	}()

	runtimeEnv.SystemdNotify(true, "running")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	log.Info("shutting down")
	serverShutdown()
	taskManager.Shutdown()
	cancel()
	wg.Wait()

	if publisher != nil {
		publisher.Close()
	}
	if influx != nil {
		influx.Close()
	}
}

func buildSource(cfg *config.ProgramConfig, snapshot *meter.Snapshot, publisher *mqtt.Publisher) meter.Source {
	switch cfg.Meter.Kind {
	case "sml":
		if cfg.Meter.PowerGpio != "" {
			if err := meter.EnablePowerSupply(cfg.Meter.PowerGpio); err != nil {
				log.Warnf("IR sensor power supply: %s", err.Error())
			}
		}

		activePower := sml.ObisSumActivePower
		if cfg.Meter.ActivePowerObis != "" {
			var err error
			if activePower, err = sml.ParseOBIS(cfg.Meter.ActivePowerObis); err != nil {
				log.Fatal(err)
			}
		}

		src := &meter.SMLSource{
			Device:      cfg.Meter.Device,
			ActivePower: activePower,
			Snapshot:    snapshot,
		}
		if publisher != nil {
			src.OnList = publisher.HandleEntries
		}
		return src

	case "modbus":
		if cfg.Meter.Modbus == nil {
			log.Fatal("meter kind 'modbus' needs a 'modbus' section")
		}
		return &meter.ModbusSource{
			Conn:         &cfg.Meter.Modbus.Connection,
			Register:     cfg.Meter.Modbus.Register,
			PollInterval: time.Duration(cfg.Meter.Modbus.PollIntervalMillis) * time.Millisecond,
		}
	}

	log.Fatalf("unknown meter kind '%s'", cfg.Meter.Kind)
	return nil
}

func buildActors(cfgs []config.ActorConfig) []*actors.State {
	out := make([]*actors.State, 0, len(cfgs))
	for i := range cfgs {
		actor, err := actors.FromConfig(&cfgs[i])
		if err != nil {
			log.Fatal(err)
		}
		out = append(out, actor)
	}
	return out
}
