// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package application

import (
	"sync"
	"testing"

	"github.com/godbus/dbus/v5"

	"github.com/sylabs/busapp/internal/pkg/fakebus"
	"github.com/sylabs/busapp/internal/pkg/fileuri"
)

// TestRegisterBecomesPrimary covers spec.md scenario 1: the first
// registrant for an app ID owns the bus name and exports a dispatcher.
func TestRegisterBecomesPrimary(t *testing.T) {
	conn := fakebus.New()

	a, err := Register(conn, "org.example.App", 0, NopHooks{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if a.IsRemote {
		t.Fatalf("expected primary, got remote")
	}
}

// TestRegisterBecomesRemoteOnConflict covers spec.md scenario 2: a second
// registrant for the same app ID observes RequestNameReplyExists and
// becomes remote instead of failing, unless IsService was requested.
func TestRegisterBecomesRemoteOnConflict(t *testing.T) {
	conn := fakebus.New()
	if _, err := conn.RequestName("org.example.App", dbus.NameFlagDoNotQueue); err != nil {
		t.Fatalf("seed RequestName: %v", err)
	}

	a, err := Register(conn, "org.example.App", 0, NopHooks{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !a.IsRemote {
		t.Fatalf("expected remote, got primary")
	}
}

// TestRegisterServiceFailsOnConflict covers the IsService variant of
// scenario 2: a service-flagged app that can't acquire its name errors
// out rather than silently becoming remote.
func TestRegisterServiceFailsOnConflict(t *testing.T) {
	conn := fakebus.New()
	if _, err := conn.RequestName("org.example.Svc", dbus.NameFlagDoNotQueue); err != nil {
		t.Fatalf("seed RequestName: %v", err)
	}

	if _, err := Register(conn, "org.example.Svc", IsService, NopHooks{}); err == nil {
		t.Fatalf("expected error for IsService conflict")
	}
}

// TestRemoteActivateCallsPrimary covers spec.md scenario 3: a remote
// instance's Activate call reaches the primary's object path and
// interface.
func TestRemoteActivateCallsPrimary(t *testing.T) {
	conn := fakebus.New()
	if _, err := conn.RequestName("org.example.App", dbus.NameFlagDoNotQueue); err != nil {
		t.Fatalf("seed RequestName: %v", err)
	}
	a, err := Register(conn, "org.example.App", 0, NopHooks{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	called := false
	conn.Peers["org.example.App|/org/example/App|org.gtk.Application.Activate"] = func(args []interface{}) ([]interface{}, error) {
		called = true
		return nil, nil
	}

	if err := a.Activate(nil); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !called {
		t.Fatalf("expected Activate to reach the primary's Peers entry")
	}
}

// TestRemoteOpenSendsURIs covers spec.md scenario 4: Open converts local
// files to URIs before sending.
func TestRemoteOpenSendsURIs(t *testing.T) {
	conn := fakebus.New()
	if _, err := conn.RequestName("org.example.App", dbus.NameFlagDoNotQueue); err != nil {
		t.Fatalf("seed RequestName: %v", err)
	}
	a, err := Register(conn, "org.example.App", 0, NopHooks{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var gotURIs []string
	conn.Peers["org.example.App|/org/example/App|org.gtk.Application.Open"] = func(args []interface{}) ([]interface{}, error) {
		gotURIs = args[0].([]string)
		return nil, nil
	}

	files, err := fileuri.ParseAll([]string{"file:///tmp/a.txt"})
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if err := a.Open(files, "", nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(gotURIs) != 1 || gotURIs[0] != "file:///tmp/a.txt" {
		t.Fatalf("got uris %v", gotURIs)
	}
}

// TestRemoteCommandLineRoundTrip covers the CommandLine forwarding path:
// arguments go out as byte arrays, a per-call reply object path is
// exported, and the returned status is decoded back.
func TestRemoteCommandLineRoundTrip(t *testing.T) {
	conn := fakebus.New()
	if _, err := conn.RequestName("org.example.App", dbus.NameFlagDoNotQueue); err != nil {
		t.Fatalf("seed RequestName: %v", err)
	}
	a, err := Register(conn, "org.example.App", 0, NopHooks{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var gotPath dbus.ObjectPath
	var gotArgs [][]byte
	conn.Peers["org.example.App|/org/example/App|org.gtk.Application.CommandLine"] = func(args []interface{}) ([]interface{}, error) {
		gotPath = args[0].(dbus.ObjectPath)
		gotArgs = args[1].([][]byte)
		return []interface{}{int32(7)}, nil
	}

	status, err := a.CommandLine([]string{"build", "--flag"}, nil)
	if err != nil {
		t.Fatalf("CommandLine: %v", err)
	}
	if status != 7 {
		t.Fatalf("got status %d, want 7", status)
	}
	if gotPath == "" {
		t.Fatalf("expected a non-empty reply path")
	}
	if len(gotArgs) != 2 || string(gotArgs[0]) != "build" || string(gotArgs[1]) != "--flag" {
		t.Fatalf("got args %v", gotArgs)
	}
}

// orderRecordingHooks records the sequence of before_emit/signal/
// after_emit calls it receives, for asserting testable scenario 2's call
// order.
type orderRecordingHooks struct {
	NopHooks

	mu    sync.Mutex
	order []string
}

func (h *orderRecordingHooks) record(what string) {
	h.mu.Lock()
	h.order = append(h.order, what)
	h.mu.Unlock()
}

func (h *orderRecordingHooks) BeforeEmit(map[string]dbus.Variant) { h.record("before_emit") }
func (h *orderRecordingHooks) AfterEmit(map[string]dbus.Variant)  { h.record("after_emit") }
func (h *orderRecordingHooks) Activate(map[string]dbus.Variant)   { h.record("activate") }

// TestDispatcherOrdersBeforeEmitActivateAfterEmit covers testable scenario
// 2: before_emit, the signal-specific method, and after_emit fire in that
// exact order. The call is dispatched through the real ExportMethodTable
// path Register installs, not a hand-set Peers stub, so it exercises
// dispatcher.Activate directly.
func TestDispatcherOrdersBeforeEmitActivateAfterEmit(t *testing.T) {
	conn := fakebus.New()
	hooks := &orderRecordingHooks{}

	a, err := Register(conn, "org.example.App", 0, hooks)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if a.IsRemote {
		t.Fatalf("expected primary")
	}

	call := conn.Object("org.example.App", a.objectPath).
		Call(PrimaryIface+".Activate", 0, map[string]dbus.Variant(nil))
	if call.Err != nil {
		t.Fatalf("dispatched Activate: %v", call.Err)
	}

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	want := []string{"before_emit", "activate", "after_emit"}
	if len(hooks.order) != len(want) {
		t.Fatalf("got call order %v, want %v", hooks.order, want)
	}
	for i := range want {
		if hooks.order[i] != want[i] {
			t.Fatalf("got call order %v, want %v", hooks.order, want)
		}
	}
}

// TestIsLauncherAlwaysRemote covers the launcher flag: it never attempts
// to own the name or export a dispatcher.
func TestIsLauncherAlwaysRemote(t *testing.T) {
	conn := fakebus.New()
	a, err := Register(conn, "org.example.App", IsLauncher, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !a.IsRemote {
		t.Fatalf("expected launcher to be remote")
	}
	if len(conn.CallLog()) != 0 {
		t.Fatalf("launcher should not touch org.freedesktop.DBus, got %v", conn.CallLog())
	}
}
