// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package namewatcher

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"

	"github.com/sylabs/busapp/internal/pkg/dbusiface"
	"github.com/sylabs/busapp/internal/pkg/sylog"
)

// Registry owns the id space and the live watcher set. A process normally
// uses the package-level functions, which delegate to a shared Registry;
// tests construct their own with NewRegistry for isolation.
type Registry struct {
	nextID   uint64 // atomic; widened to 64 bits to retire the 32-bit wraparound noted in spec.md §9
	mu       sync.Mutex
	watchers map[ID]*watcher
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{watchers: make(map[ID]*watcher)}
}

var global = NewRegistry()

// Watch registers name on a connection obtained from getConn, lazily, the
// first time it's needed. This mirrors g_bus_watch_name's bus-type
// argument; getConn lets callers supply session, system, or any other
// dbusiface.Conn source without the registry importing a bus-type enum.
func (r *Registry) Watch(getConn func() (dbusiface.Conn, error), name string, flags Flags, cb Callbacks, opts ...Option) (ID, error) {
	if !ValidBusName(name) {
		return 0, fmt.Errorf("namewatcher: invalid bus name %q", name)
	}

	w := newWatcher(name, flags, cb, opts)
	id := ID(atomic.AddUint64(&r.nextID, 1))
	w.id = id

	r.mu.Lock()
	r.watchers[id] = w
	r.mu.Unlock()

	go w.start(getConn)

	return id, nil
}

// WatchConn registers name on an already-established connection, the
// common case once a process already holds its bus connection open
// (spec.md §4.7 transition 1 with the connection already resolved).
func (r *Registry) WatchConn(conn dbusiface.Conn, name string, flags Flags, cb Callbacks, opts ...Option) (ID, error) {
	return r.Watch(func() (dbusiface.Conn, error) { return conn, nil }, name, flags, cb, opts...)
}

// Unwatch cancels delivery for id and releases its resources. Unwatch is
// safe to call more than once or with an id that is no longer registered.
func (r *Registry) Unwatch(id ID) {
	r.mu.Lock()
	w, ok := r.watchers[id]
	if ok {
		delete(r.watchers, id)
	}
	r.mu.Unlock()

	if !ok {
		sylog.Warningf("namewatcher: unwatch called with unknown or already-removed id %d", id)
		return
	}
	w.cancel()
	w.release()
}

// Watch registers name against the shared process-wide registry.
func Watch(getConn func() (dbusiface.Conn, error), name string, flags Flags, cb Callbacks, opts ...Option) (ID, error) {
	return global.Watch(getConn, name, flags, cb, opts...)
}

// WatchConn registers name on conn against the shared process-wide registry.
func WatchConn(conn dbusiface.Conn, name string, flags Flags, cb Callbacks, opts ...Option) (ID, error) {
	return global.WatchConn(conn, name, flags, cb, opts...)
}

// Unwatch cancels id on the shared process-wide registry.
func Unwatch(id ID) {
	global.Unwatch(id)
}

// sessionBus and systemBus adapt dbus.ConnectSessionBus/ConnectSystemBus to
// the dbusiface.Conn result that Watch's getConn expects.
func sessionBus(opts ...dbus.ConnOption) (dbusiface.Conn, error) {
	c, err := dbus.ConnectSessionBus(opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func systemBus(opts ...dbus.ConnOption) (dbusiface.Conn, error) {
	c, err := dbus.ConnectSystemBus(opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SessionBus is a getConn source for Watch that connects to the session
// bus on demand.
func SessionBus() (dbusiface.Conn, error) { return sessionBus() }

// SystemBus is a getConn source for Watch that connects to the system bus
// on demand.
func SystemBus() (dbusiface.Conn, error) { return systemBus() }
