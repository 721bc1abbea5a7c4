// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package dbusiface narrows github.com/godbus/dbus/v5's *dbus.Conn down to
// the subset of methods the application and name-watcher packages need,
// so tests can substitute a fake bus without a live session daemon.
//
// *dbus.Conn already implements this interface; nothing needs to wrap it.
package dbusiface

import "github.com/godbus/dbus/v5"

// Conn is the bus-client facade consumed by pkg/application and
// pkg/namewatcher. It is satisfied by *dbus.Conn.
type Conn interface {
	BusObject() dbus.BusObject
	Object(dest string, path dbus.ObjectPath) dbus.BusObject

	// Signal registers ch to receive every signal dispatched on the
	// connection; it is never unregistered by namewatcher, so that a
	// watcher cancelled via Unwatch still observes ch closing when the
	// connection itself disconnects (see pkg/namewatcher's cancel).
	Signal(ch chan<- *dbus.Signal)
	AddMatchSignal(options ...dbus.MatchOption) error
	RemoveMatchSignal(options ...dbus.MatchOption) error

	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	ReleaseName(name string) (dbus.ReleaseNameReply, error)

	Export(v interface{}, path dbus.ObjectPath, iface string) error
	ExportMethodTable(methods map[string]interface{}, path dbus.ObjectPath, iface string) error

	Close() error
}

var _ Conn = (*dbus.Conn)(nil)
