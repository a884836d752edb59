// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package intr provides a command to show, inject, enable, disable and poll
// device interrupts.
package intr

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/lang"
	"github.com/platinasystems/tofino/internal/lldrpc"
)

type Command struct {
	Dial   func() (*lldrpc.Client, error)
	Stdout io.Writer
}

func (*Command) String() string { return "intr" }

func (*Command) Usage() string {
	return "intr [-dev N] [-subdev N] [-a] [-force] [show | inject | enable | disable | poll] [LEAF]"
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "show and control device interrupts",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	show	print the count of each interrupt status bit serviced, and
		those new since the last show (default)
	inject	raise every bit of LEAF, or of every leaf, through its
		inject register
	enable	enable every bit of LEAF, or of every leaf
	disable	disable every bit of LEAF, or of every leaf
	poll	service pending interrupts now

	Leaves of pipes and MACs the SKU disables are never written.

OPTIONS
	-dev N		default: 0
	-subdev N	default: 0
	-a		show every counted bit
	-force		poll every shadow slot regardless of the global status`,
	}
}

func (c *Command) Main(args ...string) error {
	flag, args := flags.New(args, "-a", "-force")
	parm, args := parms.New(args, "-dev", "-subdev")
	var ia lldrpc.IntrArgs
	var err error
	if s := parm.ByName["-dev"]; len(s) > 0 {
		if ia.Dev, err = chip.ParseDev(s); err != nil {
			return err
		}
	}
	if s := parm.ByName["-subdev"]; len(s) > 0 {
		if ia.Subdev, err = chip.ParseSubdev(s); err != nil {
			return err
		}
	}
	ia.All = flag.ByName["-a"]
	op := "show"
	if len(args) > 0 {
		op, args = args[0], args[1:]
	}
	if len(args) > 0 {
		ia.Leaf, args = args[0], args[1:]
	}
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	switch op {
	case "show", "inject", "enable", "disable", "poll":
	default:
		return fmt.Errorf("%s: unknown", op)
	}
	dial := c.Dial
	if dial == nil {
		dial = lldrpc.Dial
	}
	cl, err := dial()
	if err != nil {
		return err
	}
	defer cl.Close()
	w := c.Stdout
	if w == nil {
		w = os.Stdout
	}
	var n int
	switch op {
	case "show":
		s, err := cl.IntrShow(ia)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, s)
		return err
	case "inject":
		n, err = cl.IntrInject(ia)
	case "enable", "disable":
		n, err = cl.IntrEnable(ia, op == "enable")
	case "poll":
		var serviced uint
		serviced, err = cl.IntrPoll(lldrpc.PollArgs{
			Dev:   ia.Dev,
			Force: flag.ByName["-force"],
		})
		if err == nil {
			fmt.Fprintln(w, serviced, "serviced")
		}
		return err
	}
	if err == nil && isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(w, n, "leaves")
	}
	return err
}
