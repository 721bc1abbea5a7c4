// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package namewatcher watches D-Bus bus names for ownership changes,
// delivering Appeared/Vanished callbacks under the alternation invariant:
// Appeared and Vanished never fire twice in a row for the same watcher,
// and the very first notification after registration may be either one
// depending on whether the name is already owned. It is the Go
// counterpart of GLib's g_bus_watch_name family.
package namewatcher

