// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package sched models the cooperative "scheduling context" of spec.md
// §4.8: a run loop that callbacks can be posted to, and which runs them in
// FIFO order. It is the Go-native stand-in for a GLib GMainContext: instead
// of a GLib-style thread-default main context, a Context is an explicit
// value threaded through registration and captured for the lifetime of a
// watcher.
package sched

import (
	"context"
	"sync"
)

type marker struct{}

// Context is a single dedicated goroutine draining an ordered task queue.
// Tasks posted from the goroutine the Context itself runs on could be
// invoked inline; Deliver implements that distinction (spec.md §4.8).
type Context struct {
	tasks chan func()
	stop  chan struct{}
	once  sync.Once
	self  context.Context
}

// New starts a fresh Context and its run loop.
func New() *Context {
	c := &Context{
		tasks: make(chan func(), 256),
	}
	c.stop = make(chan struct{})
	c.self = context.WithValue(context.Background(), marker{}, c)
	go c.run()
	return c
}

func (c *Context) run() {
	for {
		select {
		case f := <-c.tasks:
			f()
		case <-c.stop:
			return
		}
	}
}

// AsContext returns a context.Context value that IsCurrent/Deliver
// recognize as "running on c". Pass this to a goroutine that should be
// treated as c's own thread of execution for affinity checks.
func (c *Context) AsContext() context.Context {
	return c.self
}

// Post enqueues fn as a high-priority idle task, unconditionally, even if
// the caller happens to already be running on c.
func (c *Context) Post(fn func()) {
	select {
	case c.tasks <- fn:
	case <-c.stop:
	}
}

// Deliver invokes fn inline if callerCtx marks the caller as already
// running on c (see AsContext); otherwise it behaves like Post.
func (c *Context) Deliver(callerCtx context.Context, fn func()) {
	if callerCtx != nil {
		if v, _ := callerCtx.Value(marker{}).(*Context); v == c {
			fn()
			return
		}
	}
	c.Post(fn)
}

// Stop terminates the run loop. Pending tasks are discarded. Stop is
// idempotent.
func (c *Context) Stop() {
	c.once.Do(func() { close(c.stop) })
}

var defaultContext = New()

// Default returns the process-wide default scheduling context, used by
// any watcher registered without an explicit WithSchedulingContext option — the
// Go equivalent of "the process's default [main] context" in spec.md §3.
func Default() *Context {
	return defaultContext
}
