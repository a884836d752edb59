// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/dr"
)

const sample = `
devices:
  - id: 0
    family: tofino2
    pipes: "0-1,3"
    macs: "0-32"
    enable-interrupts: true
    rings:
      - {subdev: 0, ring: rx_pkt_0, depth: 1024, base: 0x10000000}
      - {subdev: 0, ring: tx_pkt_0, depth: 256, base: 0x10100000}
  - id: 1
    family: tofino3
    rings:
      - {subdev: 1, ring: cmp_que_write_list_1, depth: 64, base: 0x20000000}
poll: 20ms
stats:
  redis: {address: "127.0.0.1:6379"}
  prometheus: {listen: ":9110"}
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, c.Devices, 2)
	assert.Equal(t, 20*time.Millisecond, c.Poll)
	assert.Equal(t, 5*time.Second, c.Stats.Interval)
	assert.Equal(t, "127.0.0.1:6379", c.Stats.Redis.Address)
	assert.Equal(t, "tofino", c.Stats.Redis.Hash)
	assert.Equal(t, "tofino.stats", c.Stats.Redis.Channel)
	assert.Equal(t, ":9110", c.Stats.Prometheus.Listen)
	assert.Equal(t, "/metrics", c.Stats.Prometheus.Path)
	assert.False(t, c.Sim)

	d := &c.Devices[0]
	assert.True(t, d.EnableInterrupts)
	sku, err := d.Sku()
	require.NoError(t, err)
	assert.Equal(t, chip.Tofino2, sku.Family)
	assert.False(t, sku.PipeActive(2))
	assert.True(t, sku.PipeActive(3))
	assert.True(t, sku.MacActive(32))
	id, err := d.Rings[1].Id()
	require.NoError(t, err)
	assert.Equal(t, dr.TxPkt0, id)
	assert.EqualValues(t, 0x10100000, d.Rings[1].Base)

	sku, err = c.Devices[1].Sku()
	require.NoError(t, err)
	assert.EqualValues(t, 4, sku.Pipes.Count())
}

func TestDefaults(t *testing.T) {
	c, err := Parse([]byte("sim: true\n"))
	require.NoError(t, err)
	assert.True(t, c.Sim)
	assert.Empty(t, c.Devices)
	assert.Equal(t, 10*time.Millisecond, c.Poll)
	assert.Empty(t, c.Stats.Redis.Address)
	assert.Equal(t, "tofino", c.Stats.Prometheus.Namespace)
}

func TestInvalid(t *testing.T) {
	for name, x := range map[string]struct {
		yaml string
		want error
	}{
		"unknown key": {"bogus: 1\n", nil},
		"family":      {"devices: [{id: 0, family: tofino9}]\n", chip.ErrFamily},
		"id":          {"devices: [{id: 8, family: tofino}]\n", ErrInvalid},
		"duplicate":   {"devices: [{id: 1, family: tofino}, {id: 1, family: tofino2}]\n", ErrInvalid},
		"pipes":       {"devices: [{id: 0, family: tofino, pipes: \"0-4\"}]\n", nil},
		"ring name":   {"devices: [{id: 0, family: tofino, rings: [{ring: rx_pkt_9, depth: 1, base: 1}]}]\n", dr.ErrInvalidRing},
		"ring family": {"devices: [{id: 0, family: tofino, rings: [{ring: tx_que_read_block_0, depth: 1, base: 1}]}]\n", dr.ErrInvalidRing},
		"ring subdev": {"devices: [{id: 0, family: tofino2, rings: [{subdev: 1, ring: rx_lrn, depth: 1, base: 1}]}]\n", ErrInvalid},
		"ring depth":  {"devices: [{id: 0, family: tofino, rings: [{ring: rx_lrn, depth: 0, base: 1}]}]\n", ErrInvalid},
		"ring base":   {"devices: [{id: 0, family: tofino, rings: [{ring: rx_lrn, depth: 8}]}]\n", ErrInvalid},
		"ring twice":  {"devices: [{id: 0, family: tofino, rings: [{ring: rx_lrn, depth: 8, base: 1}, {ring: rx_lrn, depth: 8, base: 2}]}]\n", ErrInvalid},
		"poll":        {"poll: -1s\n", ErrInvalid},
		"not yaml":    {"devices: {\n", nil},
	} {
		_, err := Parse([]byte(x.yaml))
		if assert.Error(t, err, name) && x.want != nil {
			assert.True(t, errors.Is(err, x.want), "%s: %v", name, err)
		}
	}
}

func TestLoad(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "tofino.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(sample), 0644))
	c, err := Load(fn)
	require.NoError(t, err)
	assert.Len(t, c.Devices, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
