// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ClusterCockpit/cc-powerflow/internal/api"
	"github.com/ClusterCockpit/cc-powerflow/internal/config"
	"github.com/ClusterCockpit/cc-powerflow/internal/datastore"
	"github.com/ClusterCockpit/cc-powerflow/internal/meter"
	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	router    *mux.Router
	server    *http.Server
	apiHandle *api.RestApi
)

func serverInit(store *datastore.Store, snapshot *meter.Snapshot) {
	apiHandle = api.New(store, snapshot)

	router = mux.NewRouter()
	apiHandle.MountRoutes(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.Use(handlers.CompressHandler)
	router.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))
}

func serverStart() {
	handler := handlers.CustomLoggingHandler(io.Discard, router, func(_ io.Writer, params handlers.LogFormatterParams) {
		log.Debugf("%s %s (%d, %.02fkb, %dms)",
			params.Request.Method, params.URL.RequestURI(),
			params.StatusCode, float32(params.Size)/1024,
			time.Since(params.TimeStamp).Milliseconds())
	})

	server = &http.Server{
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
		Handler:      handler,
		Addr:         config.Keys.Addr,
	}

	log.Infof("HTTP server listening at %s", config.Keys.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("starting server failed: %v", err)
	}
}

func serverShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}
