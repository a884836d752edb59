// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package drstatus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/device"
	"github.com/platinasystems/tofino/internal/dr"
	"github.com/platinasystems/tofino/internal/intr"
	"github.com/platinasystems/tofino/internal/lldrpc"
	"github.com/platinasystems/tofino/internal/reg"
)

func newCommand(t *testing.T, out *strings.Builder) *Command {
	var devs []*device.Device
	for dev, f := range []chip.Family{chip.Tofino, chip.Tofino2} {
		tree, err := intr.TreeOf(f)
		require.NoError(t, err)
		d, err := device.Open(chip.Dev(dev), device.NewSim(reg.NewMem(), tree),
			chip.FullSku(f), nil)
		require.NoError(t, err)
		require.NoError(t, d.Configure(device.RingConfig{
			Id: dr.RxLrn, Base: 0x4000, Depth: 32}))
		devs = append(devs, d)
	}
	l := lldrpc.New(devs...)
	return &Command{
		Dial:   func() (*lldrpc.Client, error) { return lldrpc.Pipe(l) },
		Stdout: out,
	}
}

func TestMainAll(t *testing.T) {
	out := new(strings.Builder)
	require.NoError(t, newCommand(t, out).Main())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "0.0 head"))
	assert.True(t, strings.HasPrefix(lines[1], "1.0 head"))
	assert.True(t, strings.HasSuffix(lines[1], dr.RxLrn.String()))
}

func TestMainDev(t *testing.T) {
	out := new(strings.Builder)
	require.NoError(t, newCommand(t, out).Main("-H", "-dev", "1"))
	assert.True(t, strings.HasPrefix(out.String(), header))
	assert.Equal(t, 2, strings.Count(out.String(), "\n"))

	out.Reset()
	assert.Error(t, newCommand(t, out).Main("-dev", "5"))
	assert.Error(t, newCommand(t, out).Main("-dev", "9"))
	assert.Error(t, newCommand(t, out).Main("extra"))
}
