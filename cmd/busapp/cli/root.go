// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package cli wires busapp's subcommands to the application and
// namewatcher packages with cobra/pflag, in the same RegisterFlagForCmd
// style the cmdline package was built around.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sylabs/busapp/internal/pkg/dbusiface"
	"github.com/sylabs/busapp/internal/pkg/sylog"
	"github.com/sylabs/busapp/pkg/cmdline"
	"github.com/sylabs/busapp/pkg/namewatcher"
)

const envPrefix = "BUSAPP_"

var busName string

var busFlag = &cmdline.Flag{
	ID:           "busFlag",
	Value:        &busName,
	DefaultValue: "session",
	Name:         "bus",
	ShortHand:    "b",
	Usage:        `bus to connect to: "session" or "system"`,
	EnvKeys:      []string{"BUS"},
}

var rootCmd = &cobra.Command{
	Use:           "busapp",
	Short:         "Single-instance application coordination over D-Bus",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var manager = cmdline.NewCommandManager(rootCmd)

func init() {
	if err := manager.RegisterFlagForCmd(busFlag, rootCmd); err != nil {
		sylog.Fatalf("%s", err)
	}
	// --bus is read by every subcommand, so it is inherited by them too.
	rootCmd.PersistentFlags().AddFlag(rootCmd.Flags().Lookup(busFlag.Name))
	registerRegisterCmd(manager)
	registerActivateCmd(manager)
	registerOpenCmd(manager)
	registerCommandLineCmd(manager)
	registerWatchCmd(manager)
}

// Execute runs the busapp root command, printing any returned error and
// exiting non-zero.
func Execute() {
	if err := manager.UpdateCmdFlagFromEnv(rootCmd, envPrefix); err != nil {
		sylog.Warningf("%s", err)
	}
	if err := rootCmd.Execute(); err != nil {
		sylog.Fatalf("%s", err)
	}
}

// connect opens the bus selected by --bus.
func connect() (dbusiface.Conn, error) {
	switch busName {
	case "session", "":
		return namewatcher.SessionBus()
	case "system":
		return namewatcher.SystemBus()
	default:
		return nil, fmt.Errorf("unknown --bus %q, want %q or %q", busName, "session", "system")
	}
}
