// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package sylog is a narrow façade over github.com/apex/log, used by every
// other package in this module instead of importing apex/log directly.
package sylog

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/fatih/color"
)

var logger log.Interface = log.Log

// SetLevel changes the minimum level that will be logged.
func SetLevel(level log.Level) {
	if h, ok := logger.(*log.Logger); ok {
		h.Level = level
	}
}

// SetHandler swaps the underlying apex/log handler, e.g. in tests that want
// to assert on emitted entries.
func SetHandler(h log.Handler) {
	log.SetHandler(h)
	logger = log.Log
}

func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func Warningf(format string, args ...interface{}) {
	logger.Warn(color.YellowString(fmt.Sprintf(format, args...)))
}

func Errorf(format string, args ...interface{}) {
	logger.Error(color.RedString(fmt.Sprintf(format, args...)))
}

// Fatalf logs at error level and terminates the process, matching the
// teacher's convention of a Fatalf that never returns.
func Fatalf(format string, args ...interface{}) {
	logger.Error(color.RedString(fmt.Sprintf(format, args...)))
	os.Exit(1)
}
