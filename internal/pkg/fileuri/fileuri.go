// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package fileuri converts between local paths and file:// URIs for the
// Open dispatch path. This is the "file subsystem" collaborator that
// spec.md treats as external; a minimal implementation is needed to make
// Open observable end-to-end. It is deliberately built on net/url alone:
// nothing in the retrieved example pack carries a richer file-URI library,
// and the conversion is a single RFC 8089 decode/encode pair with no other
// caller in this module.
package fileuri

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// File is the minimal "GFile"-equivalent handle passed to Hooks.Open: just
// enough to recover the URI an application needs (spec.md §6 "URI-to-file
// conversion is supplied by the file subsystem").
type File struct {
	uri  string
	path string
}

// URI returns the original URI the file was constructed from.
func (f File) URI() string { return f.uri }

// Path returns the local filesystem path if the URI's scheme was "file" or
// empty, and ok=false otherwise.
func (f File) Path() (string, bool) { return f.path, f.path != "" }

func (f File) String() string { return f.uri }

// Parse converts a URI (as received over the Open method's "as" argument)
// into a File.
func Parse(uri string) (File, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return File{}, fmt.Errorf("fileuri: parse %q: %w", uri, err)
	}

	f := File{uri: uri}
	if u.Scheme == "file" || u.Scheme == "" {
		p := u.Path
		if u.Opaque != "" {
			p = u.Opaque
		}
		f.path = filepath.FromSlash(p)
	}
	return f, nil
}

// ParseAll converts a slice of URIs, stopping at the first error.
func ParseAll(uris []string) ([]File, error) {
	files := make([]File, 0, len(uris))
	for _, u := range uris {
		f, err := Parse(u)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// ToURI converts a local filesystem path to a file:// URI, the inverse
// operation used by the remote side before calling Open.
func ToURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	abs := filepath.ToSlash(path)
	if !strings.HasPrefix(abs, "/") {
		return (&url.URL{Path: abs}).String()
	}
	return (&url.URL{Scheme: "file", Path: abs}).String()
}
