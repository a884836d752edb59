// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package intr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/device"
	"github.com/platinasystems/tofino/internal/dr"
	tree "github.com/platinasystems/tofino/internal/intr"
	"github.com/platinasystems/tofino/internal/lldrpc"
	"github.com/platinasystems/tofino/internal/reg"
)

func newCommand(t *testing.T) (*Command, *device.Device, *strings.Builder) {
	tr, err := tree.TreeOf(chip.Tofino2)
	require.NoError(t, err)
	d, err := device.Open(1, device.NewSim(reg.NewMem(), tr),
		chip.FullSku(chip.Tofino2), nil)
	require.NoError(t, err)
	require.NoError(t, d.Configure(device.RingConfig{
		Id: dr.CmpTxPkt0, Base: 0x1000, Depth: 8}))
	out := new(strings.Builder)
	l := lldrpc.New(d)
	return &Command{
		Dial:   func() (*lldrpc.Client, error) { return lldrpc.Pipe(l) },
		Stdout: out,
	}, d, out
}

func TestInjectPoll(t *testing.T) {
	c, d, out := newCommand(t)
	sim := d.Transport().(*device.Sim)
	leaf, err := d.Tree().LeafByName("tbus_int_stat1")
	require.NoError(t, err)

	require.NoError(t, c.Main("-dev", "1", "enable", "tbus_int_stat1"))
	assert.EqualValues(t, 0xffffffff, sim.Peek(1, 0, leaf.EnableLo))
	require.NoError(t, c.Main("-dev", "1", "disable", "tbus_int_stat1"))
	assert.Zero(t, sim.Peek(1, 0, leaf.EnableLo))

	require.NoError(t, c.Main("-dev", "1", "inject", "tbus_int_stat1"))
	assert.NotZero(t, sim.Peek(1, 0, leaf.Status))

	out.Reset()
	require.NoError(t, c.Main("-dev", "1", "poll"))
	assert.Equal(t, "1 serviced\n", out.String())
	assert.Zero(t, sim.Peek(1, 0, leaf.Status))

	out.Reset()
	require.NoError(t, c.Main("-dev", "1"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2+31)
	assert.True(t, strings.HasPrefix(lines[0], "Interrupt"))
	assert.True(t, strings.HasPrefix(lines[1], "tbus_int_stat1"))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "Total"))

	// Nothing new since the last show.
	out.Reset()
	require.NoError(t, c.Main("-dev", "1", "show"))
	assert.Equal(t, 2, strings.Count(out.String(), "\n"))
	out.Reset()
	require.NoError(t, c.Main("-dev", "1", "-a", "show"))
	assert.Equal(t, 2+31, strings.Count(out.String(), "\n"))
}

func TestForcePoll(t *testing.T) {
	c, _, out := newCommand(t)
	require.NoError(t, c.Main("-dev", "1", "-force", "poll"))
	assert.Equal(t, "0 serviced\n", out.String())
}

func TestBadArgs(t *testing.T) {
	c, _, _ := newCommand(t)
	assert.Error(t, c.Main("-dev", "1", "bogus"))
	assert.Error(t, c.Main("-dev", "1", "inject", "a", "b"))
	assert.Error(t, c.Main("-dev", "1", "inject", "no_such_leaf"))
	assert.Error(t, c.Main("-dev", "0", "show"))
	assert.Error(t, c.Main("-dev", "1", "-subdev", "1", "show"))
}
