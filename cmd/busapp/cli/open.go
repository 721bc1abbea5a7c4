// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sylabs/busapp/internal/pkg/fileuri"
	"github.com/sylabs/busapp/internal/pkg/sylog"
	"github.com/sylabs/busapp/pkg/application"
	"github.com/sylabs/busapp/pkg/cmdline"
)

var openHint string

var openHintFlag = &cmdline.Flag{
	ID:           "openHintFlag",
	Value:        &openHint,
	DefaultValue: "",
	Name:         "hint",
	Usage:        "application-defined hint passed alongside the opened files",
}

func registerOpenCmd(m *cmdline.CommandManager) {
	cmd := &cobra.Command{
		Use:   "open <app-id> <path|uri>...",
		Short: "Send Open to a running primary instance",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(args[0], args[1:])
		},
	}
	if err := m.RegisterFlagForCmd(openHintFlag, cmd); err != nil {
		sylog.Fatalf("%s", err)
	}
	m.RegisterCmd(cmd)
}

func runOpen(appID string, paths []string) error {
	conn, err := connect()
	if err != nil {
		return err
	}

	uris := make([]string, len(paths))
	for i, p := range paths {
		if strings.Contains(p, "://") {
			uris[i] = p
		} else {
			uris[i] = fileuri.ToURI(p)
		}
	}
	files, err := fileuri.ParseAll(uris)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	a, err := application.Register(conn, appID, application.IsLauncher, nil)
	if err != nil {
		return fmt.Errorf("register %q: %w", appID, err)
	}

	if err := a.Open(files, openHint, nil); err != nil {
		return fmt.Errorf("open %q: %w", appID, err)
	}
	return nil
}
