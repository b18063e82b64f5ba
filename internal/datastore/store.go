// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package datastore keeps the sliding window of watt samples the read
// API and the 7-day history are served from. The window lives in
// memory; an append-only CSV log makes it survive restarts.
package datastore

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/ClusterCockpit/cc-powerflow/pkg/schema"
)

const (
	// Samples older than this are dropped on every insert.
	RetentionPeriod = 7 * 24 * time.Hour

	persistLayout = "2006-01-02 15:04:05"
)

// Store is safe for one writer and any number of concurrent readers.
type Store struct {
	mu      sync.Mutex
	samples []schema.Sample
	logPath string
}

func New(logPath string) *Store {
	return &Store{logPath: logPath}
}

// Put appends a sample, drops the expired prefix and writes the log
// line. Log I/O is best-effort: a full disk must not stop the control
// loop.
func (s *Store) Put(sample schema.Sample) {
	s.mu.Lock()
	s.samples = append(s.samples, sample)
	cut := 0
	for cut < len(s.samples) && sample.Time.Sub(s.samples[cut].Time) > RetentionPeriod {
		cut++
	}
	if cut > 0 {
		s.samples = append(s.samples[:0], s.samples[cut:]...)
	}
	s.mu.Unlock()

	s.appendLog(sample)
}

// GetInterval returns the samples with from <= t < to, in insertion order.
func (s *Store) GetInterval(from, to time.Time) []schema.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]schema.Sample, 0)
	for _, sample := range s.samples {
		if !sample.Time.Before(from) && sample.Time.Before(to) {
			out = append(out, sample)
		}
	}
	return out
}

// Len reports the current window size.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

func (s *Store) appendLog(sample schema.Sample) {
	f, err := os.OpenFile(s.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Debugf("datastore: could not open sample log: %s", err.Error())
		return
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s;%d\n",
		sample.Time.UTC().Format(persistLayout), sample.Watts); err != nil {
		log.Debugf("datastore: could not append sample log: %s", err.Error())
	}
}

// ReplayFromLog refills the window from the on-disk log. Lines outside
// (now-7d, now) and unparsable lines are skipped. A missing log file is
// a fresh install, not an error.
func (s *Store) ReplayFromLog(now time.Time) error {
	f, err := os.Open(s.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	from := now.Add(-RetentionPeriod)
	count := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		sample, ok := parseLogLine(scanner.Text())
		if !ok {
			continue
		}
		if sample.Time.After(from) && sample.Time.Before(now) {
			s.mu.Lock()
			s.samples = append(s.samples, sample)
			s.mu.Unlock()
			count++
		}
	}
	log.Infof("datastore: replayed %d samples from %s", count, s.logPath)
	return scanner.Err()
}

func parseLogLine(line string) (schema.Sample, bool) {
	date, value, found := strings.Cut(line, ";")
	if !found {
		return schema.Sample{}, false
	}
	t, err := time.ParseInLocation(persistLayout, date, time.UTC)
	if err != nil {
		return schema.Sample{}, false
	}
	w, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return schema.Sample{}, false
	}
	return schema.Sample{Time: t, Watts: int32(w)}, true
}

// RotateLog rewrites the log with only the retained window so the file
// does not grow without bound. The new content is written to a temp
// file and renamed into place; readers of the store are never blocked.
func (s *Store) RotateLog() error {
	s.mu.Lock()
	retained := make([]schema.Sample, len(s.samples))
	copy(retained, s.samples)
	s.mu.Unlock()

	tmp := s.logPath + ".rotate"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for _, sample := range retained {
		fmt.Fprintf(w, "%s;%d\n", sample.Time.UTC().Format(persistLayout), sample.Watts)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.logPath)
}
