// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package lldd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/config"
	"github.com/platinasystems/tofino/internal/device"
	"github.com/platinasystems/tofino/internal/dmalog"
	"github.com/platinasystems/tofino/internal/dr"
	"github.com/platinasystems/tofino/internal/reg"
)

const sample = `
sim: true
poll: 1ms
stats: {interval: 1h}
devices:
  - id: 0
    family: tofino
    enable-interrupts: true
    rings:
      - {ring: rx_pkt_0, depth: 64, base: 0x10000000}
  - id: 1
    family: tofino3
    pipes: "0-1"
    enable-interrupts: true
    rings:
      - {subdev: 1, ring: tx_pkt_0, depth: 32, base: 0x20000000}
`

func TestOpen(t *testing.T) {
	cfg, err := config.Parse([]byte(sample))
	require.NoError(t, err)
	devs, err := new(Command).open(cfg, metrics.NewRegistry())
	require.NoError(t, err)
	require.Len(t, devs, 2)

	v, err := devs[1].Ring(1, dr.TxPkt0)
	require.NoError(t, err)
	assert.EqualValues(t, 32, v.Depth)
	assert.Equal(t, chip.Tofino3, devs[1].Family())

	// Leaves of disabled pipes stay disabled.
	tree := devs[1].Tree()
	on, err := tree.LeafByName("pipe1.ipb0.chnl_int_stat")
	require.NoError(t, err)
	off, err := tree.LeafByName("pipe2.ipb0.chnl_int_stat")
	require.NoError(t, err)
	sim := simOf(t, devs[1])
	assert.EqualValues(t, 0xffffffff, sim.Peek(1, 1, on.EnableHi))
	assert.Zero(t, sim.Peek(1, 1, off.EnableHi))

	cfg.Sim = false
	_, err = new(Command).open(cfg, nil)
	assert.True(t, errors.Is(err, ErrNoTransport))

	c := &Command{
		Transport: func(dev chip.Dev, sku chip.Sku) (reg.Transport, error) {
			return reg.NewMem(), nil
		},
	}
	devs, err = c.open(cfg, nil)
	require.NoError(t, err)
	assert.Len(t, devs, 2)
}

func simOf(t *testing.T, d *device.Device) *device.Sim {
	sim, ok := d.Transport().(*device.Sim)
	require.True(t, ok)
	return sim
}

func TestRun(t *testing.T) {
	cfg, err := config.Parse([]byte(sample))
	require.NoError(t, err)
	c := new(Command)
	devs, err := c.open(cfg, metrics.NewRegistry())
	require.NoError(t, err)

	d := devs[0]
	sim := simOf(t, d)
	l, err := d.Tree().LeafByName("tbus_int_stat2")
	require.NoError(t, err)
	sim.Poke(0, 0, dr.TailAddr(chip.Tofino, dr.RxPkt0), dr.Pointer{Index: 9}.Encode())
	sim.Raise(0, 0, l, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, c.run(ctx, cfg, devs, metrics.NewRegistry()))

	assert.NotZero(t, d.Polls(0))
	assert.NotZero(t, devs[1].Polls(1))
	v, err := d.Ring(0, dr.RxPkt0)
	require.NoError(t, err)
	assert.EqualValues(t, 9, v.Occupancy)
	var service int
	d.Log.Foreach(func(e dmalog.Entry) {
		if e.Op == dmalog.Service {
			service++
		}
	})
	assert.Equal(t, 1, service)
	assert.Zero(t, sim.Peek(0, 0, l.Status))
}
