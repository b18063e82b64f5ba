// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api exposes the read-only projections the web UI consumes:
// the live OBIS snapshot and raw sample intervals from the retention
// store.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ClusterCockpit/cc-powerflow/internal/datastore"
	"github.com/ClusterCockpit/cc-powerflow/internal/meter"
	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/gorilla/mux"
)

type RestApi struct {
	Store    *datastore.Store
	Snapshot *meter.Snapshot
}

func New(store *datastore.Store, snapshot *meter.Snapshot) *RestApi {
	return &RestApi{Store: store, Snapshot: snapshot}
}

func (api *RestApi) MountRoutes(r *mux.Router) {
	r = r.PathPrefix("/api").Subrouter()
	r.StrictSlash(true)

	r.HandleFunc("/energy", api.getEnergy).Methods(http.MethodGet)
	r.HandleFunc("/data_raw", api.getDataRaw).Methods(http.MethodGet)
}

type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func handleError(err error, statusCode int, rw http.ResponseWriter) {
	log.Warnf("api: REST ERROR : %s", err.Error())
	rw.Header().Add("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(ErrorResponse{
		Status: http.StatusText(statusCode),
		Error:  err.Error(),
	})
}

// getEnergy godoc
// @summary Current meter snapshot
// @produce json
// @router  /api/energy [get]
func (api *RestApi) getEnergy(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(api.Snapshot.All()); err != nil {
		handleError(fmt.Errorf("encoding snapshot failed: %w", err), http.StatusInternalServerError, rw)
	}
}

// getDataRaw godoc
// @summary Samples in [from, to), milliseconds since the epoch
// @produce json
// @router  /api/data_raw [get]
func (api *RestApi) getDataRaw(rw http.ResponseWriter, r *http.Request) {
	from, err := msQueryParam(r, "from")
	if err != nil {
		handleError(err, http.StatusBadRequest, rw)
		return
	}
	to, err := msQueryParam(r, "to")
	if err != nil {
		handleError(err, http.StatusBadRequest, rw)
		return
	}

	samples := api.Store.GetInterval(from, to)
	rw.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(samples); err != nil {
		handleError(fmt.Errorf("encoding samples failed: %w", err), http.StatusInternalServerError, rw)
	}
}

func msQueryParam(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing query parameter '%s'", key)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing query parameter '%s' failed: %w", key, err)
	}
	return time.UnixMilli(ms), nil
}
