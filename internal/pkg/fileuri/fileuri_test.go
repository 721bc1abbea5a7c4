// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package fileuri

import "testing"

func TestParseFileURI(t *testing.T) {
	f, err := Parse("file:///home/user/a.txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	path, ok := f.Path()
	if !ok {
		t.Fatalf("expected a local path")
	}
	if path != "/home/user/a.txt" {
		t.Fatalf("got path %q", path)
	}
	if f.URI() != "file:///home/user/a.txt" {
		t.Fatalf("got uri %q", f.URI())
	}
}

func TestParseNonFileURI(t *testing.T) {
	f, err := Parse("http://example.com/a")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := f.Path(); ok {
		t.Fatalf("expected no local path for non-file URI")
	}
}

func TestParseAllPreservesOrder(t *testing.T) {
	files, err := ParseAll([]string{"file:///a", "file:///b"})
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files", len(files))
	}
	pa, _ := files[0].Path()
	pb, _ := files[1].Path()
	if pa != "/a" || pb != "/b" {
		t.Fatalf("got paths %q, %q", pa, pb)
	}
}

func TestToURIRoundTrip(t *testing.T) {
	uri := ToURI("/tmp/x.txt")
	f, err := Parse(uri)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	path, ok := f.Path()
	if !ok || path != "/tmp/x.txt" {
		t.Fatalf("round trip failed: got %q ok=%v", path, ok)
	}
}
