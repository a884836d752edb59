// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package lldrpc is the net/rpc service of the low level driver daemon and
// the client the debug commands use to reach it through the "@lldd" socket.
package lldrpc

import (
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"sort"
	"strings"

	"github.com/platinasystems/atsock"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/device"
	"github.com/platinasystems/tofino/internal/dr"
	"github.com/platinasystems/tofino/internal/intr"
)

const (
	SockName    = "lldd"
	ServiceName = "Lld"
)

var ErrNoDevice = errors.New("no such device")

type RingArgs struct {
	Dev chip.Dev
	// All includes every device.
	All bool
}

type DmaLogArgs struct {
	Dev    chip.Dev
	Subdev chip.Subdev
	// Rings filters by ring name; empty selects all.
	Rings []string
}

type IntrArgs struct {
	Dev    chip.Dev
	Subdev chip.Subdev
	// Leaf is the leaf name; empty selects every leaf.
	Leaf string
	// All shows zero count rows.
	All bool
}

type PollArgs struct {
	Dev   chip.Dev
	Force bool
}

// Lld is the rpc receiver; lldd registers one with rpc.RegisterName.
type Lld struct {
	devs map[chip.Dev]*device.Device
}

func New(devs ...*device.Device) *Lld {
	l := &Lld{devs: make(map[chip.Dev]*device.Device)}
	for _, d := range devs {
		l.devs[d.Dev] = d
	}
	return l
}

func (l *Lld) device(dev chip.Dev) (*device.Device, error) {
	d, found := l.devs[dev]
	if !found {
		return nil, fmt.Errorf("%s: %w", dev, ErrNoDevice)
	}
	return d, nil
}

func (l *Lld) sorted() (devs []*device.Device) {
	for _, d := range l.devs {
		devs = append(devs, d)
	}
	sort.Slice(devs, func(i, j int) bool { return devs[i].Dev < devs[j].Dev })
	return
}

func (l *Lld) RingStatus(args RingArgs, reply *string) error {
	var devs []*device.Device
	if args.All {
		devs = l.sorted()
	} else {
		d, err := l.device(args.Dev)
		if err != nil {
			return err
		}
		devs = append(devs, d)
	}
	buf := new(strings.Builder)
	for _, d := range devs {
		if err := d.UpdateRings(); err != nil {
			return err
		}
		d.WriteRingStatus(buf)
	}
	*reply = buf.String()
	return nil
}

func (l *Lld) DmaLog(args DmaLogArgs, reply *string) error {
	d, err := l.device(args.Dev)
	if err != nil {
		return err
	}
	var rings []dr.Id
	for _, s := range args.Rings {
		id, err := dr.ParseId(s)
		if err != nil {
			return err
		}
		rings = append(rings, id)
	}
	*reply, err = d.Log.Render(args.Dev, args.Subdev, rings...)
	return err
}

// leaves resolves the named leaf, or every leaf of the tree.
func leaves(x *intr.Dispatcher, name string) ([]*intr.Leaf, error) {
	if len(name) == 0 {
		return x.Tree.Leaves(), nil
	}
	l, err := x.Tree.LeafByName(name)
	if err != nil {
		return nil, err
	}
	return []*intr.Leaf{l}, nil
}

// intr applies fn to the selected leaves, counting the leaves visited.
func (l *Lld) intr(args IntrArgs, n *int,
	fn func(*intr.Dispatcher, *intr.Leaf) error) error {
	d, err := l.device(args.Dev)
	if err != nil {
		return err
	}
	*n = 0
	return d.Interrupts(func(x *intr.Dispatcher) error {
		ls, err := leaves(x, args.Leaf)
		if err != nil {
			return err
		}
		for _, leaf := range ls {
			if err = fn(x, leaf); err != nil {
				return err
			}
			*n++
		}
		return nil
	})
}

func (l *Lld) IntrShow(args IntrArgs, reply *string) error {
	d, err := l.device(args.Dev)
	if err != nil {
		return err
	}
	buf := new(strings.Builder)
	err = d.Interrupts(func(x *intr.Dispatcher) error {
		return x.WriteSummary(buf, args.Subdev, args.All)
	})
	*reply = buf.String()
	return err
}

func (l *Lld) IntrInject(args IntrArgs, reply *int) error {
	return l.intr(args, reply, func(x *intr.Dispatcher, leaf *intr.Leaf) error {
		return x.InjectAll(args.Subdev, leaf.Status)
	})
}

func (l *Lld) IntrEnable(args IntrArgs, reply *int) error {
	return l.intr(args, reply, func(x *intr.Dispatcher, leaf *intr.Leaf) error {
		return x.EnableAll(args.Subdev, leaf.Status, true)
	})
}

func (l *Lld) IntrDisable(args IntrArgs, reply *int) error {
	return l.intr(args, reply, func(x *intr.Dispatcher, leaf *intr.Leaf) error {
		return x.EnableAll(args.Subdev, leaf.Status, false)
	})
}

func (l *Lld) IntrPoll(args PollArgs, reply *uint) error {
	d, err := l.device(args.Dev)
	if err != nil {
		return err
	}
	*reply, err = d.Poll(args.Force)
	return err
}

// Register adds l to the default rpc server that atsock serves.
func Register(l *Lld) error { return rpc.RegisterName(ServiceName, l) }

// Pipe serves l on one end of an in-process connection and returns a
// client of the other.
func Pipe(l *Lld) (*Client, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName(ServiceName, l); err != nil {
		return nil, err
	}
	a, b := net.Pipe()
	go srv.ServeConn(a)
	return &Client{rpc.NewClient(b)}, nil
}

// Client wraps an rpc connection to lldd.
type Client struct {
	*rpc.Client
}

// Dial connects to the "@lldd" socket.
func Dial() (*Client, error) {
	c, err := atsock.NewRpcClient(SockName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SockName, err)
	}
	return &Client{c}, nil
}

func (c *Client) call(method string, args, reply interface{}) error {
	return c.Call(ServiceName+"."+method, args, reply)
}

func (c *Client) RingStatus(args RingArgs) (s string, err error) {
	err = c.call("RingStatus", args, &s)
	return
}

func (c *Client) DmaLog(args DmaLogArgs) (s string, err error) {
	err = c.call("DmaLog", args, &s)
	return
}

func (c *Client) IntrShow(args IntrArgs) (s string, err error) {
	err = c.call("IntrShow", args, &s)
	return
}

// IntrInject returns the number of leaves written.
func (c *Client) IntrInject(args IntrArgs) (n int, err error) {
	err = c.call("IntrInject", args, &n)
	return
}

func (c *Client) IntrEnable(args IntrArgs, on bool) (n int, err error) {
	method := "IntrDisable"
	if on {
		method = "IntrEnable"
	}
	err = c.call(method, args, &n)
	return
}

func (c *Client) IntrPoll(args PollArgs) (n uint, err error) {
	err = c.call("IntrPoll", args, &n)
	return
}
