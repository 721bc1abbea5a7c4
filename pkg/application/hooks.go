// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package application

import (
	"github.com/godbus/dbus/v5"

	"github.com/sylabs/busapp/internal/pkg/fileuri"
)

// Hooks are the callbacks a primary instance runs in response to a
// dispatched method call. Every dispatch (Activate, Open, or CommandLine)
// brackets its signal with BeforeEmit and AfterEmit, in that exact order —
// BeforeEmit, the signal-specific method, AfterEmit — mirroring the
// before_emit/emit-signal/after_emit collaborator contract the dispatcher
// is built around. All may be called from the dispatcher's own goroutine;
// an implementation that touches shared state with the rest of the
// application should serialize through its own means (e.g. a
// sched.Context), the same way a name watcher callback would.
type Hooks interface {
	// BeforeEmit runs before the signal-specific method on every dispatch.
	BeforeEmit(platformData map[string]dbus.Variant)

	// AfterEmit runs after the signal-specific method on every dispatch.
	// It always runs once BeforeEmit has run.
	AfterEmit(platformData map[string]dbus.Variant)

	// Activate handles a bare activation request, the D-Bus Activate
	// method with no files or command-line arguments attached.
	Activate(platformData map[string]dbus.Variant)

	// Open handles a request to open files, the D-Bus Open method. hint
	// is an application-defined string the remote passed along.
	Open(files []fileuri.File, hint string, platformData map[string]dbus.Variant)

	// CommandLine handles a full remote command-line invocation and
	// returns the process exit status to report back to the remote.
	CommandLine(cl *CommandLine) int
}

// NopHooks implements Hooks with no-ops, for callers that only care about
// a subset of the dispatch surface. Embed it and override what's needed.
type NopHooks struct{}

func (NopHooks) BeforeEmit(map[string]dbus.Variant)                   {}
func (NopHooks) AfterEmit(map[string]dbus.Variant)                    {}
func (NopHooks) Activate(map[string]dbus.Variant)                     {}
func (NopHooks) Open([]fileuri.File, string, map[string]dbus.Variant) {}
func (NopHooks) CommandLine(*CommandLine) int                         { return 0 }
