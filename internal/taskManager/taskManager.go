// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package taskManager runs the recurring background jobs on one shared
// gocron scheduler.
package taskManager

import (
	"github.com/ClusterCockpit/cc-powerflow/internal/datastore"
	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/go-co-op/gocron/v2"
)

var s gocron.Scheduler

func Start(store *datastore.Store, logPath string) {
	var err error
	s, err = gocron.NewScheduler()
	if err != nil {
		log.Abortf("Taskmanager Start: Could not create gocron scheduler.\nError: %s\n", err.Error())
	}

	RegisterLogRotationService(store, logPath)

	s.Start()
}

func Shutdown() {
	if s != nil {
		s.Shutdown()
	}
}
