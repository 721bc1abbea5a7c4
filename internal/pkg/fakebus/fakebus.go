// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package fakebus is a deterministic, in-process double for
// github.com/godbus/dbus/v5, implementing just enough of
// internal/pkg/dbusiface.Conn and dbus.BusObject to drive the application
// and name-watcher state machines in tests without a live bus daemon.
package fakebus

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

// MethodFunc answers a single method call. args are the call arguments;
// the returned slice becomes the reply body.
type MethodFunc func(args []interface{}) ([]interface{}, error)

// Conn is a fake bus connection. Construct it with New; the zero value's
// internal maps are nil.
type Conn struct {
	mu sync.Mutex

	// Methods routes calls made against the org.freedesktop.DBus object
	// (BusObject()), keyed by "interface.Member", e.g.
	// "org.freedesktop.DBus.RequestName".
	Methods map[string]MethodFunc

	// Peers routes calls made against named peers via Object(dest, path),
	// keyed by "dest|path|interface.Member". Consulted only when no
	// matching entry was installed via Export/ExportMethodTable.
	Peers map[string]MethodFunc

	// SelfName is the unique bus name reported as the dbus.Sender on
	// calls dispatched into an exported method table. Tests that don't
	// care about the caller's identity can leave it empty.
	SelfName string

	names    map[string]bool
	sigChans []chan<- *dbus.Signal
	closed   bool
	exported map[string]interface{}
	callLog  []string
}

// New returns an empty fake connection.
func New() *Conn {
	return &Conn{
		Methods:  make(map[string]MethodFunc),
		Peers:    make(map[string]MethodFunc),
		names:    make(map[string]bool),
		exported: make(map[string]interface{}),
	}
}

// Emit delivers a signal to every channel registered via Signal.
func (c *Conn) Emit(sig *dbus.Signal) {
	c.mu.Lock()
	chans := append([]chan<- *dbus.Signal(nil), c.sigChans...)
	c.mu.Unlock()
	for _, ch := range chans {
		ch <- sig
	}
}

// CallLog returns the ordered list of "interface.Member" calls observed on
// the org.freedesktop.DBus object, for assertions in tests.
func (c *Conn) CallLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.callLog...)
}

func (c *Conn) BusObject() dbus.BusObject {
	return &object{conn: c, dest: "org.freedesktop.DBus", path: "/org/freedesktop/DBus"}
}

func (c *Conn) Object(dest string, path dbus.ObjectPath) dbus.BusObject {
	return &object{conn: c, dest: dest, path: path}
}

func (c *Conn) Signal(ch chan<- *dbus.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sigChans = append(c.sigChans, ch)
}

func (c *Conn) AddMatchSignal(options ...dbus.MatchOption) error    { return nil }
func (c *Conn) RemoveMatchSignal(options ...dbus.MatchOption) error { return nil }

func (c *Conn) RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.names[name] {
		return dbus.RequestNameReplyExists, nil
	}
	c.names[name] = true
	return dbus.RequestNameReplyPrimaryOwner, nil
}

func (c *Conn) ReleaseName(name string) (dbus.ReleaseNameReply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.names, name)
	return dbus.ReleaseNameReleased, nil
}

func (c *Conn) Export(v interface{}, path dbus.ObjectPath, iface string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := string(path) + "|" + iface
	if v == nil {
		delete(c.exported, key)
		return nil
	}
	c.exported[key] = v
	return nil
}

func (c *Conn) ExportMethodTable(methods map[string]interface{}, path dbus.ObjectPath, iface string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := string(path) + "|" + iface
	if methods == nil {
		delete(c.exported, key)
		return nil
	}
	c.exported[key] = methods
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, ch := range c.sigChans {
		close(ch)
	}
	c.sigChans = nil
	return nil
}

// object is the fake dbus.BusObject returned by Conn.Object/BusObject.
type object struct {
	conn *Conn
	dest string
	path dbus.ObjectPath
}

func (o *object) route(method string, args []interface{}) *dbus.Call {
	o.conn.mu.Lock()
	if o.conn.closed {
		o.conn.mu.Unlock()
		return &dbus.Call{Err: dbus.Error{Name: "org.freedesktop.DBus.Error.NoReply", Body: []interface{}{"connection closed"}}}
	}

	if o.dest == "org.freedesktop.DBus" {
		o.conn.callLog = append(o.conn.callLog, method)
		fn := o.conn.Methods[method]
		o.conn.mu.Unlock()
		return callMethodFunc(method, fn, args)
	}

	iface, member := splitMethod(method)
	table, exported := o.conn.exported[string(o.path)+"|"+iface]
	sender := dbus.Sender(o.conn.SelfName)
	o.conn.mu.Unlock()

	if exported {
		if call, ok := dispatchExported(table, member, args, sender); ok {
			return call
		}
	}

	o.conn.mu.Lock()
	fn := o.conn.Peers[o.dest+"|"+string(o.path)+"|"+method]
	o.conn.mu.Unlock()
	return callMethodFunc(method, fn, args)
}

func callMethodFunc(method string, fn MethodFunc, args []interface{}) *dbus.Call {
	if fn == nil {
		return &dbus.Call{Err: dbus.Error{Name: "org.freedesktop.DBus.Error.UnknownMethod", Body: []interface{}{method}}}
	}
	body, err := fn(args)
	if err != nil {
		return &dbus.Call{Err: err}
	}
	return &dbus.Call{Body: body}
}

func splitMethod(method string) (iface, member string) {
	i := strings.LastIndex(method, ".")
	if i < 0 {
		return "", method
	}
	return method[:i], method[i+1:]
}

var senderType = reflect.TypeOf(dbus.Sender(""))

// dispatchExported invokes a method previously installed via Export or
// ExportMethodTable, mirroring godbus's own reflection-based calling
// convention for exported objects: a trailing *dbus.Error return, and a
// dbus.Sender parameter filled from the caller's identity rather than
// taken off the argument list. This is what lets a real dispatcher
// installed by pkg/application's Register be exercised directly, instead
// of only simulated through Conn.Peers.
func dispatchExported(table interface{}, member string, args []interface{}, sender dbus.Sender) (*dbus.Call, bool) {
	var fn interface{}
	switch t := table.(type) {
	case map[string]interface{}:
		m, ok := t[member]
		if !ok {
			return nil, false
		}
		fn = m
	default:
		rv := reflect.ValueOf(table).MethodByName(member)
		if !rv.IsValid() {
			return nil, false
		}
		fn = rv.Interface()
	}

	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	in := make([]reflect.Value, ft.NumIn())
	argIdx := 0
	for i := 0; i < ft.NumIn(); i++ {
		if ft.In(i) == senderType {
			in[i] = reflect.ValueOf(sender)
			continue
		}
		if argIdx < len(args) {
			in[i] = reflect.ValueOf(args[argIdx])
			argIdx++
			continue
		}
		in[i] = reflect.Zero(ft.In(i))
	}

	call := &dbus.Call{}
	for _, v := range fv.Call(in) {
		if e, ok := v.Interface().(*dbus.Error); ok {
			if e != nil {
				call.Err = *e
			}
			continue
		}
		call.Body = append(call.Body, v.Interface())
	}
	return call, true
}

func (o *object) Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	return o.route(method, args)
}

func (o *object) CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	return o.route(method, args)
}

func (o *object) Go(method string, flags dbus.Flags, ch chan *dbus.Call, args ...interface{}) *dbus.Call {
	call := o.route(method, args)
	if ch != nil {
		call.Done = ch
		ch <- call
	}
	return call
}

func (o *object) GoWithContext(ctx context.Context, ch chan *dbus.Call, method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	return o.Go(method, flags, ch, args...)
}

func (o *object) AddMatchSignal(iface, member string, options ...dbus.MatchOption) error { return nil }
func (o *object) RemoveMatchSignal(iface, member string, options ...dbus.MatchOption) error {
	return nil
}

func (o *object) GetProperty(p string) (dbus.Variant, error) {
	return dbus.Variant{}, dbus.Error{Name: "org.freedesktop.DBus.Error.UnknownProperty", Body: []interface{}{p}}
}

func (o *object) StoreProperty(p string, value interface{}) error { return nil }

func (o *object) SetProperty(p string, v interface{}) error { return nil }

func (o *object) Destination() string   { return o.dest }
func (o *object) Path() dbus.ObjectPath { return o.path }

var _ dbus.BusObject = (*object)(nil)
