// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package application

import (
	"github.com/godbus/dbus/v5"

	"github.com/sylabs/busapp/internal/pkg/dbusiface"
)

const cmdlinePrivateIface = "org.gtk.private.CommandLine"

// CommandLine is the primary-side handle for one remote CommandLine
// invocation: the arguments and platform data the remote sent, plus
// sinks that print back to the remote's stdout/stderr in real time,
// before the hook returns an exit status.
type CommandLine struct {
	conn         dbusiface.Conn
	sender       string
	replyPath    dbus.ObjectPath
	Arguments    [][]byte
	PlatformData map[string]dbus.Variant
}

// Args decodes Arguments as UTF-8 strings, the common case for a normal
// argv. Callers that need the raw bytes (e.g. for non-UTF-8 filenames)
// should use Arguments directly.
func (c *CommandLine) Args() []string {
	args := make([]string, len(c.Arguments))
	for i, a := range c.Arguments {
		args[i] = string(a)
	}
	return args
}

// Print writes message to the remote process's standard output. The call
// is fire-and-forget: no reply is awaited (spec.md §4.4/§4.5).
func (c *CommandLine) Print(message string) {
	c.conn.Object(c.sender, c.replyPath).Call(cmdlinePrivateIface+".Print", dbus.FlagNoReplyExpected, message)
}

// PrintError writes message to the remote process's standard error. The
// call is fire-and-forget: no reply is awaited (spec.md §4.4/§4.5).
func (c *CommandLine) PrintError(message string) {
	c.conn.Object(c.sender, c.replyPath).Call(cmdlinePrivateIface+".PrintError", dbus.FlagNoReplyExpected, message)
}
