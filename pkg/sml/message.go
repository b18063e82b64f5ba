// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sml

// Envelope is one SML message body. The concrete types are
// OpenResponse, ListResponse and CloseResponse.
type Envelope interface {
	envelope()
}

type OpenResponse struct {
	ServerID  []byte
	ReqFileID []byte
}

type ListResponse struct {
	ServerID []byte
	ListName []byte
	Entries  []ListEntry
}

type CloseResponse struct{}

func (OpenResponse) envelope()  {}
func (ListResponse) envelope()  {}
func (CloseResponse) envelope() {}

// ListEntry is one quantity in a ListResponse. Status, Unit and Scaler
// are optional on the wire; nil means absent.
type ListEntry struct {
	ObjectName []byte
	Status     *uint64
	ValueTime  []byte
	Unit       *uint64
	Scaler     *int
	Value      Value
}

// OBIS returns the entry's object name as an OBIS code.
func (e *ListEntry) OBIS() (OBIS, bool) {
	return ObisFromBytes(e.ObjectName)
}

// ScaledValue applies the entry's scaler (0 when absent).
func (e *ListEntry) ScaledValue() Value {
	scaler := 0
	if e.Scaler != nil {
		scaler = *e.Scaler
	}
	return e.Value.Scale(scaler)
}
