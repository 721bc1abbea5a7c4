// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/sylabs/busapp/internal/pkg/fileuri"
	"github.com/sylabs/busapp/internal/pkg/sylog"
	"github.com/sylabs/busapp/pkg/application"
	"github.com/sylabs/busapp/pkg/cmdline"
)

var serviceFlagValue bool

var serviceFlag = &cmdline.Flag{
	ID:           "serviceFlag",
	Value:        &serviceFlagValue,
	DefaultValue: false,
	Name:         "service",
	Usage:        "require exclusive ownership of the application id; fail instead of becoming remote",
}

func registerRegisterCmd(m *cmdline.CommandManager) {
	cmd := &cobra.Command{
		Use:   "register <app-id>",
		Short: "Register an application id and serve it if no primary exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(args[0])
		},
	}
	if err := m.RegisterFlagForCmd(serviceFlag, cmd); err != nil {
		sylog.Fatalf("%s", err)
	}
	m.RegisterCmd(cmd)
}

func runRegister(appID string) error {
	conn, err := connect()
	if err != nil {
		return err
	}

	var flags application.Flags
	if serviceFlagValue {
		flags |= application.IsService
	}

	a, err := application.Register(conn, appID, flags, cliHooks{})
	if err != nil {
		return fmt.Errorf("register %q: %w", appID, err)
	}

	if a.IsRemote {
		fmt.Printf("%s is already running; this instance is remote\n", appID)
		return nil
	}

	fmt.Printf("%s registered as primary, serving Activate/Open/CommandLine\n", appID)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	a.Release()
	return nil
}

// cliHooks is the application.Hooks implementation backing "busapp
// register": it logs every dispatched call instead of doing real work,
// since this binary's purpose is to exercise the coordination layer.
type cliHooks struct{}

func (cliHooks) BeforeEmit(platformData map[string]dbus.Variant) {}

func (cliHooks) AfterEmit(platformData map[string]dbus.Variant) {}

func (cliHooks) Activate(platformData map[string]dbus.Variant) {
	sylog.Infof("Activate received")
}

func (cliHooks) Open(files []fileuri.File, hint string, platformData map[string]dbus.Variant) {
	for _, f := range files {
		sylog.Infof("Open received: %s", f.URI())
	}
}

func (cliHooks) CommandLine(cl *application.CommandLine) int {
	sylog.Infof("CommandLine received: %v", cl.Args())
	cl.Print(fmt.Sprintf("busapp: handled %d argument(s)\n", len(cl.Args())))
	return 0
}
