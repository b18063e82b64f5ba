// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Provides a simple way of logging with different levels.
// Time/Date are not logged because systemd adds
// them for us (Default, can be changed by flag '-logdate').
//
// Uses these prefixes: https://www.freedesktop.org/software/systemd/man/sd-daemon.html

var logDateTime bool

var (
	DebugWriter io.Writer = os.Stderr
	InfoWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
	CritWriter  io.Writer = os.Stderr
)

var (
	DebugPrefix string = "<7>[DEBUG]    "
	InfoPrefix  string = "<6>[INFO]     "
	WarnPrefix  string = "<4>[WARNING]  "
	ErrPrefix   string = "<3>[ERROR]    "
	CritPrefix  string = "<2>[CRITICAL] "
)

var (
	// No Time/Date
	DebugLog *log.Logger = log.New(DebugWriter, DebugPrefix, 0)
	InfoLog  *log.Logger = log.New(InfoWriter, InfoPrefix, 0)
	WarnLog  *log.Logger = log.New(WarnWriter, WarnPrefix, log.Lshortfile)
	ErrLog   *log.Logger = log.New(ErrWriter, ErrPrefix, log.Llongfile)
	CritLog  *log.Logger = log.New(CritWriter, CritPrefix, log.Llongfile)
	// Log Time/Date
	DebugTimeLog *log.Logger = log.New(DebugWriter, DebugPrefix, log.LstdFlags)
	InfoTimeLog  *log.Logger = log.New(InfoWriter, InfoPrefix, log.LstdFlags)
	WarnTimeLog  *log.Logger = log.New(WarnWriter, WarnPrefix, log.LstdFlags|log.Lshortfile)
	ErrTimeLog   *log.Logger = log.New(ErrWriter, ErrPrefix, log.LstdFlags|log.Llongfile)
	CritTimeLog  *log.Logger = log.New(CritWriter, CritPrefix, log.LstdFlags|log.Llongfile)
)

/* CONFIG */

func Init(lvl string, logdate bool) {
	switch lvl {
	case "crit":
		ErrWriter = io.Discard
		fallthrough
	case "err", "fatal":
		WarnWriter = io.Discard
		fallthrough
	case "warn":
		InfoWriter = io.Discard
		fallthrough
	case "info":
		DebugWriter = io.Discard
	case "debug":
		// Nothing to do...
	default:
		fmt.Printf("pkg/log: Flag 'loglevel' has invalid value %#v\npkg/log: Will use default loglevel 'debug'\n", lvl)
	}

	logDateTime = logdate
}

/* PRINT */

func output(plain, dated *log.Logger, w io.Writer, out string) {
	if w == io.Discard {
		return
	}
	if logDateTime {
		dated.Output(3, out)
	} else {
		plain.Output(3, out)
	}
}

func Print(v ...interface{}) {
	Info(v...)
}

func Debug(v ...interface{}) {
	output(DebugLog, DebugTimeLog, DebugWriter, fmt.Sprint(v...))
}

func Info(v ...interface{}) {
	output(InfoLog, InfoTimeLog, InfoWriter, fmt.Sprint(v...))
}

func Warn(v ...interface{}) {
	output(WarnLog, WarnTimeLog, WarnWriter, fmt.Sprint(v...))
}

func Error(v ...interface{}) {
	output(ErrLog, ErrTimeLog, ErrWriter, fmt.Sprint(v...))
}

func Crit(v ...interface{}) {
	output(CritLog, CritTimeLog, CritWriter, fmt.Sprint(v...))
}

// Writes error log, stops application
func Fatal(v ...interface{}) {
	Error(v...)
	os.Exit(1)
}

/* PRINT FORMAT */

func Printf(format string, v ...interface{}) {
	Infof(format, v...)
}

func Debugf(format string, v ...interface{}) {
	output(DebugLog, DebugTimeLog, DebugWriter, fmt.Sprintf(format, v...))
}

func Infof(format string, v ...interface{}) {
	output(InfoLog, InfoTimeLog, InfoWriter, fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	output(WarnLog, WarnTimeLog, WarnWriter, fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	output(ErrLog, ErrTimeLog, ErrWriter, fmt.Sprintf(format, v...))
}

func Critf(format string, v ...interface{}) {
	output(CritLog, CritTimeLog, CritWriter, fmt.Sprintf(format, v...))
}

// Writes error log, stops application
func Fatalf(format string, v ...interface{}) {
	Errorf(format, v...)
	os.Exit(1)
}

// Writes critical log, stops application. Used for startup errors
// where continuing makes no sense.
func Abortf(format string, v ...interface{}) {
	Critf(format, v...)
	os.Exit(1)
}
