// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ClusterCockpit/cc-powerflow/internal/datastore"
	"github.com/ClusterCockpit/cc-powerflow/internal/meter"
	"github.com/ClusterCockpit/cc-powerflow/pkg/schema"
	"github.com/ClusterCockpit/cc-powerflow/pkg/sml"
	"github.com/gorilla/mux"
)

func testServer(t *testing.T) (*httptest.Server, *datastore.Store, *meter.Snapshot) {
	t.Helper()
	store := datastore.New(filepath.Join(t.TempDir(), "samples.csv"))
	snapshot := meter.NewSnapshot()

	r := mux.NewRouter()
	New(store, snapshot).MountRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store, snapshot
}

func TestGetEnergy(t *testing.T) {
	srv, _, snapshot := testServer(t)

	scaler := -1
	snapshot.Update([]sml.ListEntry{
		{ObjectName: []byte{1, 0, 16, 7, 0, 255}, Scaler: &scaler, Value: sml.SignedValue(-4200)},
		{ObjectName: []byte{129, 129, 199, 130, 3, 255}, Value: sml.StringValue([]byte("ISK"))},
	})

	resp, err := http.Get(srv.URL + "/api/energy")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if string(body["1-0:16.7.0*255"]) != "-420" {
		t.Errorf("active power: got %s", body["1-0:16.7.0*255"])
	}
	if string(body["129-129:199.130.3*255"]) != `"ISK"` {
		t.Errorf("manufacturer: got %s", body["129-129:199.130.3*255"])
	}
}

func TestGetDataRaw(t *testing.T) {
	srv, store, _ := testServer(t)

	base := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	store.Put(schema.Sample{Time: base, Watts: -700})
	store.Put(schema.Sample{Time: base.Add(time.Minute), Watts: 400})
	store.Put(schema.Sample{Time: base.Add(2 * time.Minute), Watts: 10})

	from := base.UnixMilli()
	to := base.Add(2 * time.Minute).UnixMilli()
	resp, err := http.Get(fmt.Sprintf("%s/api/data_raw?from=%d&to=%d", srv.URL, from, to))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	var samples []schema.Sample
	if err := json.NewDecoder(resp.Body).Decode(&samples); err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 || samples[0].Watts != -700 || samples[1].Watts != 400 {
		t.Fatalf("got %v", samples)
	}
	if samples[0].Time.UnixMilli() != from {
		t.Errorf("timestamp: got %d, want %d", samples[0].Time.UnixMilli(), from)
	}
}

func TestGetDataRawBadParams(t *testing.T) {
	srv, _, _ := testServer(t)

	for _, query := range []string{"", "?from=1", "?from=abc&to=2", "?from=1&to=xyz"} {
		resp, err := http.Get(srv.URL + "/api/data_raw" + query)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("query %q: status %d, want 400", query, resp.StatusCode)
		}
	}
}
