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

	"github.com/spf13/cobra"

	"github.com/sylabs/busapp/internal/pkg/dbusiface"
	"github.com/sylabs/busapp/internal/pkg/sylog"
	"github.com/sylabs/busapp/pkg/cmdline"
	"github.com/sylabs/busapp/pkg/namewatcher"
)

var autoStartFlagValue bool

var autoStartFlag = &cmdline.Flag{
	ID:           "autoStartFlag",
	Value:        &autoStartFlagValue,
	DefaultValue: false,
	Name:         "auto-start",
	Usage:        "ask the bus to start a service providing the name if it isn't running",
}

func registerWatchCmd(m *cmdline.CommandManager) {
	cmd := &cobra.Command{
		Use:   "watch <bus-name>",
		Short: "Watch a D-Bus name's ownership and print Appeared/Vanished transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args[0])
		},
	}
	if err := m.RegisterFlagForCmd(autoStartFlag, cmd); err != nil {
		sylog.Fatalf("%s", err)
	}
	m.RegisterCmd(cmd)
}

func runWatch(name string) error {
	var flags namewatcher.Flags
	if autoStartFlagValue {
		flags |= namewatcher.AutoStart
	}

	var getConn func() (dbusiface.Conn, error)
	switch busName {
	case "session", "":
		getConn = namewatcher.SessionBus
	case "system":
		getConn = namewatcher.SystemBus
	default:
		return fmt.Errorf("unknown --bus %q", busName)
	}

	id, err := namewatcher.Watch(getConn, name, flags, namewatcher.Callbacks{
		Appeared: func(_ dbusiface.Conn, name, owner string) {
			fmt.Printf("appeared: %s owner=%s\n", name, owner)
		},
		Vanished: func(_ dbusiface.Conn, name string) {
			fmt.Printf("vanished: %s\n", name)
		},
	})
	if err != nil {
		return fmt.Errorf("watch %q: %w", name, err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	namewatcher.Unwatch(id)
	return nil
}
