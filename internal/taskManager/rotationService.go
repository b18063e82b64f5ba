// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package taskManager

import (
	"time"

	"github.com/ClusterCockpit/cc-powerflow/internal/datastore"
	"github.com/ClusterCockpit/cc-powerflow/internal/util"
	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/go-co-op/gocron/v2"
)

// RegisterLogRotationService rewrites the sample log once a day so it
// only ever holds the retained window.
func RegisterLogRotationService(store *datastore.Store, logPath string) {
	log.Info("Register log rotation service")

	s.NewJob(gocron.DurationJob(24*time.Hour),
		gocron.NewTask(
			func() {
				start := time.Now()
				before := util.GetFilesize(logPath)
				if err := store.RotateLog(); err != nil {
					log.Errorf("Error while rotating sample log: %s", err.Error())
					return
				}
				log.Infof("Rotation: %d -> %d bytes, done in %s",
					before, util.GetFilesize(logPath), time.Since(start))
			}))
}
