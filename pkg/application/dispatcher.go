// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package application

import (
	"github.com/godbus/dbus/v5"

	"github.com/sylabs/busapp/internal/pkg/dbusiface"
	"github.com/sylabs/busapp/internal/pkg/fileuri"
)

// PrimaryIface is the D-Bus interface a primary instance exports its
// dispatcher under.
const PrimaryIface = "org.gtk.Application"

// dispatcher is exported via conn.ExportMethodTable (see App.methodTable)
// at a primary instance's object path. Its methods are invoked by godbus's reflection-based
// dispatch, one goroutine per incoming call.
type dispatcher struct {
	conn  dbusiface.Conn
	hooks Hooks
}

// Activate implements the Activate D-Bus method. Every dispatch brackets
// its signal with BeforeEmit/AfterEmit, in that order.
func (d *dispatcher) Activate(platformData map[string]dbus.Variant) *dbus.Error {
	d.hooks.BeforeEmit(platformData)
	d.hooks.Activate(platformData)
	d.hooks.AfterEmit(platformData)
	return nil
}

// Open implements the Open D-Bus method.
func (d *dispatcher) Open(uris []string, hint string, platformData map[string]dbus.Variant) *dbus.Error {
	files, err := fileuri.ParseAll(uris)
	if err != nil {
		return dbus.NewError("org.gtk.Application.Error.InvalidArgs", []interface{}{err.Error()})
	}
	d.hooks.BeforeEmit(platformData)
	d.hooks.Open(files, hint, platformData)
	d.hooks.AfterEmit(platformData)
	return nil
}

// CommandLine implements the CommandLine D-Bus method. sender is filled
// in by godbus from the call's header, not read off the wire body.
func (d *dispatcher) CommandLine(replyPath dbus.ObjectPath, arguments [][]byte, platformData map[string]dbus.Variant, sender dbus.Sender) (int32, *dbus.Error) {
	cl := &CommandLine{
		conn:         d.conn,
		sender:       string(sender),
		replyPath:    replyPath,
		Arguments:    arguments,
		PlatformData: platformData,
	}
	d.hooks.BeforeEmit(platformData)
	status := d.hooks.CommandLine(cl)
	d.hooks.AfterEmit(platformData)
	return int32(status), nil
}
