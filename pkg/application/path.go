// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package application

import (
	"strings"

	"github.com/godbus/dbus/v5"
)

// PathFromAppID derives the object path a primary instance publishes
// org.gtk.Application on: the application ID with dots turned into
// slashes and a leading slash prepended, e.g. "org.example.App" becomes
// "/org/example/App".
func PathFromAppID(appID string) dbus.ObjectPath {
	return dbus.ObjectPath("/" + strings.ReplaceAll(appID, ".", "/"))
}
