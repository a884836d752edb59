// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package dmalog provides a command that prints the DMA transaction log of
// a device die.
package dmalog

import (
	"io"
	"os"

	"github.com/platinasystems/parms"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/lang"
	"github.com/platinasystems/tofino/internal/lldrpc"
)

type Command struct {
	Dial   func() (*lldrpc.Client, error)
	Stdout io.Writer
}

func (*Command) String() string { return "dmalog" }

func (*Command) Usage() string {
	return "dmalog [-dev N] [-subdev N] [RING]..."
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "print DMA transaction log",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Print the last 1024 DMA ring transactions of a device die, oldest
	first: time, device and die, ring, operation, hardware head and tail
	and up to four data words. Operations are start, push, pull,
	service, dma-rd and dma-wr.

	Given RING names, e.g. rx_pkt_0, print only those rings.

OPTIONS
	-dev N		default: 0
	-subdev N	default: 0`,
	}
}

func (c *Command) Main(args ...string) error {
	parm, args := parms.New(args, "-dev", "-subdev")
	var la lldrpc.DmaLogArgs
	var err error
	if s := parm.ByName["-dev"]; len(s) > 0 {
		if la.Dev, err = chip.ParseDev(s); err != nil {
			return err
		}
	}
	if s := parm.ByName["-subdev"]; len(s) > 0 {
		if la.Subdev, err = chip.ParseSubdev(s); err != nil {
			return err
		}
	}
	la.Rings = args
	dial := c.Dial
	if dial == nil {
		dial = lldrpc.Dial
	}
	cl, err := dial()
	if err != nil {
		return err
	}
	defer cl.Close()
	s, err := cl.DmaLog(la)
	if err != nil {
		return err
	}
	w := c.Stdout
	if w == nil {
		w = os.Stdout
	}
	_, err = io.WriteString(w, s)
	return err
}
