// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sylabs/busapp/pkg/application"
	"github.com/sylabs/busapp/pkg/cmdline"
)

func registerCommandLineCmd(m *cmdline.CommandManager) {
	cmd := &cobra.Command{
		Use:   "command-line <app-id> -- <arg>...",
		Short: "Forward a full command line to a running primary instance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommandLine(args[0], args[1:])
		},
	}
	m.RegisterCmd(cmd)
}

func runCommandLine(appID string, cmdArgs []string) error {
	conn, err := connect()
	if err != nil {
		return err
	}

	a, err := application.Register(conn, appID, application.IsLauncher, nil)
	if err != nil {
		return fmt.Errorf("register %q: %w", appID, err)
	}

	status, err := a.CommandLine(cmdArgs, nil)
	if err != nil {
		return fmt.Errorf("command-line %q: %w", appID, err)
	}

	os.Exit(status)
	return nil
}
