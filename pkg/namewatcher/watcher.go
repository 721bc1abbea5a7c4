// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package namewatcher

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/sylabs/busapp/internal/pkg/dbusiface"
	"github.com/sylabs/busapp/internal/pkg/sylog"
	"github.com/sylabs/busapp/pkg/namewatcher/sched"
)

// Flags is a bit set of watch options.
type Flags uint32

// AutoStart requests that the bus try to start a service providing the
// name before the first owner query (spec.md §3, §4.7 transition 3).
const AutoStart Flags = 1 << 0

const (
	dbusServiceName   = "org.freedesktop.DBus"
	nameOwnerChanged  = "org.freedesktop.DBus.NameOwnerChanged"
	ifaceGetOwner     = "org.freedesktop.DBus.GetNameOwner"
	ifaceStartService = "org.freedesktop.DBus.StartServiceByName"
)

// startReplySuccess / startReplyAlreadyRunning are StartServiceByName
// reply codes (spec.md §6 "Wire constants").
const (
	startReplySuccess        = 1
	startReplyAlreadyRunning = 2
)

// Callbacks are the observer functions for a watched name. Either may be
// nil, in which case that kind of delivery is a no-op (still subject to
// the alternation bookkeeping).
type Callbacks struct {
	Appeared func(conn dbusiface.Conn, name, owner string)
	Vanished func(conn dbusiface.Conn, name string)
}

type previousCall int

const (
	callNone previousCall = iota
	callAppeared
	callVanished
)

// ID identifies a registered watcher. The zero value is never issued and
// is reserved as "invalid" (spec.md §3 "id").
type ID uint64

// Option configures a watcher at registration time.
type Option func(*watcher)

// WithSchedulingContext pins callback delivery to ctx instead of the
// process default (spec.md §3 "scheduling_context").
func WithSchedulingContext(ctx *sched.Context) Option {
	return func(w *watcher) { w.schedCtx = ctx }
}

// WithCallerContext records the context.Context the registering goroutine
// is running under, so Deliver can recognize re-entrant delivery onto the
// same scheduling context (spec.md §4.8).
func WithCallerContext(ctx context.Context) Option {
	return func(w *watcher) { w.callerCtx = ctx }
}

// WithCleanup attaches fn to run exactly once, when the watcher's last
// reference is released — the Go equivalent of user_data_free_func
// (spec.md §3, §5 "Resource ownership").
func WithCleanup(fn func()) Option {
	return func(w *watcher) { w.cleanup = fn }
}

type watcher struct {
	id        ID
	name      string
	flags     Flags
	cb        Callbacks
	schedCtx  *sched.Context
	callerCtx context.Context
	cleanup   func()

	mu           sync.Mutex
	conn         dbusiface.Conn
	nameOwner    string
	previousCall previousCall
	cancelled    bool
	initialized  bool
	sigCh        chan *dbus.Signal
	released     bool
}

func newWatcher(name string, flags Flags, cb Callbacks, opts []Option) *watcher {
	w := &watcher{
		name:     name,
		flags:    flags,
		cb:       cb,
		schedCtx: sched.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// start acquires a bus connection asynchronously, mirroring
// g_bus_watch_name (spec.md §4.7 transitions 1-3).
func (w *watcher) start(get func() (dbusiface.Conn, error)) {
	conn, err := get()
	if err != nil {
		w.mu.Lock()
		w.initialized = true
		w.mu.Unlock()
		w.deliverVanished(false)
		w.release()
		return
	}
	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
	w.hasConnection()
}

// hasConnection subscribes to NameOwnerChanged and the connection's
// disconnection, then proceeds to either StartServiceByName or a direct
// GetNameOwner query (spec.md §4.7 transition 3).
func (w *watcher) hasConnection() {
	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		return
	}
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return
	}

	ch := make(chan *dbus.Signal, 16)
	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		return
	}
	w.sigCh = ch
	w.mu.Unlock()

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(dbusServiceName),
		dbus.WithMatchSender(dbusServiceName),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, w.name),
	); err != nil {
		sylog.Warningf("namewatcher: AddMatchSignal for %q: %v", w.name, err)
	}
	conn.Signal(ch)

	go w.handleSignals(ch)

	if w.flags&AutoStart != 0 {
		w.startService()
	} else {
		w.getNameOwner()
	}
}

// handleSignals is the per-watcher signal pump. ch is never closed by
// cancel (see cancel's comment): the only thing that closes it is the bus
// connection itself going away, so the channel closing always means a real
// disconnect, cancelled or not. This is what lets a disconnect that lands
// after Unwatch still reach onDisconnected/deliverVanished(true) — spec.md
// §4.8 "Cancellation honoring" and §9's "trailing Vanished after unwatch if
// the connection closes during the teardown race".
func (w *watcher) handleSignals(ch chan *dbus.Signal) {
	for sig := range ch {
		if sig.Name != nameOwnerChanged || len(sig.Body) < 3 {
			continue
		}
		name, _ := sig.Body[0].(string)
		if name != w.name {
			continue
		}
		oldOwner, _ := sig.Body[1].(string)
		newOwner, _ := sig.Body[2].(string)
		w.onNameOwnerChanged(oldOwner, newOwner)
	}
	w.onDisconnected()
}

// onNameOwnerChanged implements spec.md §4.7 transition 5.
func (w *watcher) onNameOwnerChanged(oldOwner, newOwner string) {
	w.mu.Lock()
	if !w.initialized {
		w.mu.Unlock()
		return
	}
	hadOwner := w.nameOwner != ""
	w.mu.Unlock()

	if oldOwner != "" && hadOwner {
		w.mu.Lock()
		w.nameOwner = ""
		w.mu.Unlock()
		w.deliverVanished(false)
	}

	if newOwner != "" {
		w.mu.Lock()
		w.nameOwner = newOwner
		w.mu.Unlock()
		w.deliverAppeared()
	}
}

// getNameOwner implements spec.md §4.7 transition 4.
func (w *watcher) getNameOwner() {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return
	}

	var owner string
	call := conn.BusObject().Call(ifaceGetOwner, 0, w.name)
	err := call.Store(&owner)

	w.mu.Lock()
	w.initialized = true
	w.mu.Unlock()

	if err == nil && owner != "" {
		w.mu.Lock()
		w.nameOwner = owner
		w.mu.Unlock()
		w.deliverAppeared()
	} else {
		w.deliverVanished(false)
	}
}

// startService implements spec.md §4.7 transition 3's AUTO_START branch.
func (w *watcher) startService() {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return
	}

	var result uint32
	call := conn.BusObject().Call(ifaceStartService, 0, w.name, uint32(0))
	if err := call.Store(&result); err != nil {
		// The bus commonly replies with ServiceUnknown when no .service
		// file provides the name; that doesn't mean the name is unowned.
		w.getNameOwner()
		return
	}

	switch result {
	case startReplySuccess, startReplyAlreadyRunning:
		w.getNameOwner()
	default:
		sylog.Warningf("namewatcher: unexpected StartServiceByName reply %d for %q", result, w.name)
		w.mu.Lock()
		w.initialized = true
		w.mu.Unlock()
		w.deliverVanished(false)
	}
}

// onDisconnected implements spec.md §4.7 transition 6.
func (w *watcher) onDisconnected() {
	w.mu.Lock()
	w.conn = nil
	w.mu.Unlock()
	w.deliverVanished(true)
}

// deliverAppeared and deliverVanished enforce the alternation invariant
// (spec.md §3 "Invariant (alternation)", §4.7 "Alternation enforcement").
func (w *watcher) deliverAppeared() {
	w.mu.Lock()
	if w.previousCall == callAppeared {
		w.mu.Unlock()
		return
	}
	w.previousCall = callAppeared
	cancelled := w.cancelled
	conn := w.conn
	owner := w.nameOwner
	w.mu.Unlock()

	// Cancellation is consulted before scheduling, not after (spec.md §4.8
	// "Cancellation honoring").
	if cancelled || w.cb.Appeared == nil {
		return
	}
	name := w.name
	cb := w.cb.Appeared
	w.schedule(func() { cb(conn, name, owner) })
}

func (w *watcher) deliverVanished(ignoreCancelled bool) {
	w.mu.Lock()
	if w.previousCall == callVanished {
		w.mu.Unlock()
		return
	}
	w.previousCall = callVanished
	cancelled := w.cancelled
	conn := w.conn
	w.mu.Unlock()

	if (cancelled && !ignoreCancelled) || w.cb.Vanished == nil {
		return
	}
	name := w.name
	cb := w.cb.Vanished
	w.schedule(func() { cb(conn, name) })
}

func (w *watcher) schedule(fn func()) {
	ctx := w.schedCtx
	if ctx == nil {
		ctx = sched.Default()
	}
	ctx.Deliver(w.callerCtx, fn)
}

// cancel marks the watcher cancelled, preventing further Appeared
// deliveries and ordinary (non-disconnect) Vanished deliveries (spec.md
// §4.7 transition 7). It stops the daemon from forwarding further
// NameOwnerChanged traffic for this watcher via RemoveMatchSignal, but
// deliberately leaves the signal channel itself registered with conn
// (does not call conn.RemoveSignal, does not close it): that channel is
// the connection's to close, and only the connection's own shutdown may
// do so. Closing or unregistering it here would make a disconnect that
// lands after Unwatch indistinguishable from ordinary teardown, silently
// dropping the trailing Vanished spec.md §4.8/§9 require.
func (w *watcher) cancel() {
	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		return
	}
	w.cancelled = true
	conn := w.conn
	w.mu.Unlock()

	if conn != nil {
		_ = conn.RemoveMatchSignal(
			dbus.WithMatchInterface(dbusServiceName),
			dbus.WithMatchSender(dbusServiceName),
			dbus.WithMatchMember("NameOwnerChanged"),
			dbus.WithMatchArg(0, w.name),
		)
	}
}

// release runs the cleanup callback exactly once, when the caller's last
// reference to the watcher is known to be gone (spec.md §5 "Resource
// ownership").
func (w *watcher) release() {
	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		return
	}
	w.released = true
	fn := w.cleanup
	w.mu.Unlock()
	if fn != nil {
		fn()
	}
}
