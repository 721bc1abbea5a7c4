// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package namewatcher

import "regexp"

// wellKnownName matches a dotted bus name: two or more elements, each
// starting with a letter or underscore, made of [A-Za-z0-9_-].
var wellKnownName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*(\.[A-Za-z_][A-Za-z0-9_-]*)+$`)

// uniqueName matches a bus-assigned unique name, e.g. ":1.5".
var uniqueName = regexp.MustCompile(`^:[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)+$`)

// ValidBusName reports whether name could be a valid D-Bus bus name
// (well-known or unique), per the subset of the spec relevant to
// watching and registering names. Validation happens here rather than
// being assumed by the caller, since namewatcher is a library entry
// point independent of pkg/application's own validation.
func ValidBusName(name string) bool {
	if len(name) == 0 || len(name) > 255 {
		return false
	}
	return wellKnownName.MatchString(name) || uniqueName.MatchString(name)
}
