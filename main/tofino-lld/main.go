// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// This is the tofino low level driver multicall binary: the lldd daemon and
// its debug commands.
package main

import (
	"fmt"
	"os"

	"github.com/platinasystems/tofino/cmd/dmalog"
	"github.com/platinasystems/tofino/cmd/drstatus"
	"github.com/platinasystems/tofino/cmd/intr"
	"github.com/platinasystems/tofino/cmd/lldd"
	"github.com/platinasystems/tofino/internal/goes"
)

func Goes() goes.ByName {
	return goes.New(
		new(lldd.Command),
		new(drstatus.Command),
		new(dmalog.Command),
		new(intr.Command),
	)
}

func main() {
	if err := Goes().Main(os.Args...); err != nil {
		fmt.Fprintln(os.Stderr, goes.ProgBase()+":", err)
		goes.Exit(1)
	}
}
