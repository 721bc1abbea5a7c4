// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package application implements single-instance coordination for a
// desktop-style app over D-Bus: one process per application ID becomes
// the primary and serves org.gtk.Application, every later launch of the
// same ID becomes remote and forwards its Activate/Open/CommandLine
// request to the primary instead of running its own copy.
package application
