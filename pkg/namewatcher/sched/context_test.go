// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package sched

import (
	"context"
	"testing"
	"time"
)

func TestPostRunsOnContextGoroutine(t *testing.T) {
	c := New()
	defer c.Stop()

	done := make(chan struct{})
	c.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("posted task never ran")
	}
}

func TestDeliverInlineWhenCurrent(t *testing.T) {
	c := New()
	defer c.Stop()

	ran := make(chan bool, 1)
	c.Post(func() {
		invoked := false
		c.Deliver(c.AsContext(), func() { invoked = true })
		ran <- invoked
	})

	select {
	case invoked := <-ran:
		if !invoked {
			t.Fatal("expected inline delivery to run synchronously")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestDeliverPostsWhenNotCurrent(t *testing.T) {
	c := New()
	defer c.Stop()

	done := make(chan struct{})
	c.Deliver(context.Background(), func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected delivery to be posted and run")
	}
}

func TestFIFOOrdering(t *testing.T) {
	c := New()
	defer c.Stop()

	var order []int
	results := make(chan []int, 1)
	for i := 0; i < 10; i++ {
		i := i
		c.Post(func() { order = append(order, i) })
	}
	c.Post(func() { results <- order })

	select {
	case got := <-results:
		for i, v := range got {
			if v != i {
				t.Fatalf("out of order: %v", got)
			}
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}
