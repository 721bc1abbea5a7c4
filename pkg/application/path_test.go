// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package application

import "testing"

func TestPathFromAppID(t *testing.T) {
	cases := map[string]string{
		"org.example.App":  "/org/example/App",
		"com.acme.my.tool": "/com/acme/my/tool",
	}
	for id, want := range cases {
		if got := PathFromAppID(id); string(got) != want {
			t.Errorf("PathFromAppID(%q) = %q, want %q", id, got, want)
		}
	}
}
