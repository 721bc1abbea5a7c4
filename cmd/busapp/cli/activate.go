// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sylabs/busapp/pkg/application"
	"github.com/sylabs/busapp/pkg/cmdline"
)

func registerActivateCmd(m *cmdline.CommandManager) {
	cmd := &cobra.Command{
		Use:   "activate <app-id>",
		Short: "Send Activate to a running primary instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivate(args[0])
		},
	}
	m.RegisterCmd(cmd)
}

func runActivate(appID string) error {
	conn, err := connect()
	if err != nil {
		return err
	}

	a, err := application.Register(conn, appID, application.IsLauncher, nil)
	if err != nil {
		return fmt.Errorf("register %q: %w", appID, err)
	}

	if err := a.Activate(nil); err != nil {
		return fmt.Errorf("activate %q: %w", appID, err)
	}
	return nil
}
