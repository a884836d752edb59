// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package stats samples ring and interrupt counters of running devices and
// exports them to prometheus and redis.
package stats

import (
	"fmt"
	"sort"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/device"
	"github.com/platinasystems/tofino/internal/intr"
)

// Counter names of a Sample.
const (
	Occupancy  = "occupancy"
	Depth      = "depth"
	Descs      = "descs"
	Bytes      = "bytes"
	Interrupts = "interrupts"
	Polls      = "polls"
)

// Sample is one counter of a ring, or of a die when Ring is empty.
type Sample struct {
	Dev    chip.Dev
	Subdev chip.Subdev
	Ring   string
	Name   string
	Value  uint64
}

// Key names the sample in the redis hash, e.g. "dev0.subdev0.rx_pkt_0.descs"
func (s Sample) Key() string {
	if len(s.Ring) == 0 {
		return fmt.Sprintf("%s.%s.%s", s.Dev, s.Subdev, s.Name)
	}
	return fmt.Sprintf("%s.%s.%s.%s", s.Dev, s.Subdev, s.Ring, s.Name)
}

// Snapshot reads the cached counters of every device, taking each device
// lock in turn; it does not touch hardware.
func Snapshot(devs ...*device.Device) (samples []Sample) {
	for _, d := range devs {
		for _, v := range d.Rings() {
			ring := v.Id.String()
			for _, x := range []struct {
				name  string
				value uint64
			}{
				{Occupancy, uint64(v.Occupancy)},
				{Depth, uint64(v.Depth)},
				{Descs, v.NDescs},
				{Bytes, v.NBytes},
			} {
				samples = append(samples, Sample{
					Dev:    d.Dev,
					Subdev: v.Subdev,
					Ring:   ring,
					Name:   x.name,
					Value:  x.value,
				})
			}
		}
		for s := uint(0); s < d.Subdevs(); s++ {
			subdev := chip.Subdev(s)
			var total uint64
			d.Interrupts(func(x *intr.Dispatcher) error {
				total = x.Total(subdev)
				return nil
			})
			samples = append(samples,
				Sample{d.Dev, subdev, "", Interrupts, total},
				Sample{d.Dev, subdev, "", Polls, d.Polls(subdev)})
		}
	}
	sort.SliceStable(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		if a.Dev != b.Dev {
			return a.Dev < b.Dev
		}
		return a.Subdev < b.Subdev
	})
	return
}
