// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package application

import (
	"fmt"
	"os"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sylabs/busapp/internal/pkg/fileuri"
)

// Activate sends the Activate method to the primary instance. It is only
// valid to call on a remote App. The call is fire-and-forget: no delivery
// acknowledgement is awaited (spec.md §4.4/§4.5).
func (a *App) Activate(platformData map[string]dbus.Variant) error {
	if !a.IsRemote {
		return fmt.Errorf("application: Activate is a remote-only operation for %q", a.appID)
	}
	call := a.conn.Object(a.appID, a.objectPath).Call(PrimaryIface+".Activate", dbus.FlagNoReplyExpected, platformData)
	return call.Err
}

// Open sends the Open method to the primary instance, converting files to
// URIs the way the D-Bus wire format expects. The call is fire-and-forget:
// no delivery acknowledgement is awaited (spec.md §4.4/§4.5).
func (a *App) Open(files []fileuri.File, hint string, platformData map[string]dbus.Variant) error {
	if !a.IsRemote {
		return fmt.Errorf("application: Open is a remote-only operation for %q", a.appID)
	}
	uris := make([]string, len(files))
	for i, f := range files {
		uris[i] = f.URI()
	}
	call := a.conn.Object(a.appID, a.objectPath).Call(PrimaryIface+".Open", dbus.FlagNoReplyExpected, uris, hint, platformData)
	return call.Err
}

// CommandLine forwards a full command-line invocation to the primary
// instance and blocks for its exit status. It exports a private,
// per-invocation reply object so that concurrent outstanding calls from
// the same process don't collide on a single fixed path (see
// cmdlinePrivateIface and the SPEC_FULL open-question resolution this
// addresses).
func (a *App) CommandLine(args []string, platformData map[string]dbus.Variant) (int, error) {
	if !a.IsRemote {
		return 0, fmt.Errorf("application: CommandLine is a remote-only operation for %q", a.appID)
	}

	replyPath := dbus.ObjectPath("/org/gtk/Application/CommandLine/" + strings.ReplaceAll(uuid.NewString(), "-", "_"))

	methods := map[string]interface{}{
		"Print": func(message string) *dbus.Error {
			fmt.Fprint(os.Stdout, message)
			return nil
		},
		"PrintError": func(message string) *dbus.Error {
			fmt.Fprint(os.Stderr, message)
			return nil
		},
	}
	if err := a.conn.ExportMethodTable(methods, replyPath, cmdlinePrivateIface); err != nil {
		return 0, errors.Wrap(err, "application: export command-line reply object")
	}
	defer func() { _ = a.conn.Export(nil, replyPath, cmdlinePrivateIface) }()

	argBytes := make([][]byte, len(args))
	for i, s := range args {
		argBytes[i] = []byte(s)
	}

	call := a.conn.Object(a.appID, a.objectPath).Call(PrimaryIface+".CommandLine", 0, replyPath, argBytes, platformData)
	if call.Err != nil {
		return 0, call.Err
	}

	var status int32
	if err := call.Store(&status); err != nil {
		return 0, errors.Wrap(err, "application: decode command-line status")
	}
	return int(status), nil
}
