// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package drstatus provides a command that prints the DMA ring status of
// the devices lldd manages.
package drstatus

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
	// Dial defaults to lldrpc.Dial.
	Dial func() (*lldrpc.Client, error)
	// Stdout defaults to os.Stdout.
	Stdout io.Writer
}

func (*Command) String() string { return "drstatus" }

func (*Command) Usage() string { return "drstatus [-dev N]" }

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "print DMA ring status",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Print one line per configured DMA ring: device and die, hardware
	head and tail pointers, depth, words per descriptor, whether pushes
	must be serialized, the producer pointer count, ring memory base,
	occupancy and ring name.

	Without -dev, print the rings of every device.

OPTIONS
	-dev N	device id
	-H	print a header even if stdout isn't a terminal`,
	}
}

const header = "dev ring status\n"

func (c *Command) Main(args ...string) error {
	flag, args := flags.New(args, "-H")
	parm, args := parms.New(args, "-dev")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	ra := lldrpc.RingArgs{All: true}
	if s := parm.ByName["-dev"]; len(s) > 0 {
		dev, err := chip.ParseDev(s)
		if err != nil {
			return err
		}
		ra = lldrpc.RingArgs{Dev: dev}
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
	s, err := cl.RingStatus(ra)
	if err != nil {
		return err
	}
	w := c.Stdout
	if w == nil {
		w = os.Stdout
	}
	if flag.ByName["-H"] || (w == os.Stdout && isatty.IsTerminal(os.Stdout.Fd())) {
		io.WriteString(w, header)
	}
	_, err = io.WriteString(w, s)
	return err
}
