// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package application

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"

	"github.com/sylabs/busapp/internal/pkg/dbusiface"
	"github.com/sylabs/busapp/internal/pkg/sylog"
	"github.com/sylabs/busapp/pkg/namewatcher"
)

// Flags mirrors GApplicationFlags' single-instance-relevant bits.
type Flags uint32

const (
	// IsService requires exclusive bus-name ownership: if another
	// instance already owns the name, Register fails instead of
	// returning a remote App.
	IsService Flags = 1 << 0

	// IsLauncher never attempts to own the bus name or export a
	// dispatcher; it always behaves as remote. Useful for a helper
	// binary that only ever forwards to an already-running primary.
	IsLauncher Flags = 1 << 1
)

// App is a registered single-instance application: either the primary,
// serving Activate/Open/CommandLine for the rest of the process's
// lifetime, or remote, forwarding those same calls to whichever process
// holds the name.
type App struct {
	conn       dbusiface.Conn
	appID      string
	objectPath dbus.ObjectPath
	flags      Flags
	hooks      Hooks

	// IsRemote is true when another process already owns appID. A
	// remote App never serves Activate/Open/CommandLine; it only sends
	// them.
	IsRemote bool

	registered bool
}

// Register acquires appID's single-instance status on conn. hooks may be
// nil for a launcher that will only ever call the Activate/Open/
// CommandLine remote-forwarding methods.
func Register(conn dbusiface.Conn, appID string, flags Flags, hooks Hooks) (*App, error) {
	if !namewatcher.ValidBusName(appID) {
		return nil, fmt.Errorf("application: invalid application id %q", appID)
	}

	a := &App{
		conn:       conn,
		appID:      appID,
		objectPath: PathFromAppID(appID),
		flags:      flags,
		hooks:      hooks,
	}

	if flags&IsLauncher != 0 {
		a.IsRemote = true
		return a, nil
	}

	if err := conn.ExportMethodTable(a.methodTable(), a.objectPath, PrimaryIface); err != nil {
		return nil, errors.Wrap(err, "application: export dispatcher")
	}

	reply, err := conn.RequestName(appID, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Export(nil, a.objectPath, PrimaryIface)
		return nil, errors.Wrapf(err, "application: request name %q", appID)
	}

	if reply == dbus.RequestNameReplyExists {
		_ = conn.Export(nil, a.objectPath, PrimaryIface)
		a.IsRemote = true

		if flags&IsService != 0 {
			return nil, fmt.Errorf("application: unable to acquire bus name %q", appID)
		}
		return a, nil
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Export(nil, a.objectPath, PrimaryIface)
		return nil, fmt.Errorf("application: unexpected RequestName reply %d for %q", reply, appID)
	}

	a.registered = true
	return a, nil
}

// methodTable adapts dispatcher's reflection-friendly methods to
// conn.ExportMethodTable's explicit name table, so Activate/Open/
// CommandLine are reachable under PrimaryIface regardless of which
// export style the underlying connection prefers.
func (a *App) methodTable() map[string]interface{} {
	d := &dispatcher{conn: a.conn, hooks: a.hooks}
	return map[string]interface{}{
		"Activate":    d.Activate,
		"Open":        d.Open,
		"CommandLine": d.CommandLine,
	}
}

// Release gives up appID and stops serving the dispatcher. Release is a
// no-op for a remote or launcher App.
func (a *App) Release() {
	if a.IsRemote || !a.registered {
		return
	}
	if _, err := a.conn.ReleaseName(a.appID); err != nil {
		sylog.Warningf("application: release name %q: %v", a.appID, err)
	}
	_ = a.conn.Export(nil, a.objectPath, PrimaryIface)
	a.registered = false
}
