// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package device is the per device context of the low level driver: the
// register transport, ring views, DMA log and interrupt dispatcher of one
// Tofino.
//
// Two locks guard a Device. intrMu serializes the dispatcher: Poll,
// RegisterCallback and Interrupts. mu guards the ring table and poll
// counts. Interrupt callbacks run with intrMu held and mu free, so they may
// use Ring, Rings, Push, Pull, UpdateRings and WriteRingStatus but not
// Poll, RegisterCallback or Interrupts. intrMu is always taken before mu.
package device

import (
	"fmt"
	"io"
	"sync"

	"github.com/platinasystems/log"
	"github.com/rcrowley/go-metrics"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/dmalog"
	"github.com/platinasystems/tofino/internal/dr"
	"github.com/platinasystems/tofino/internal/intr"
	"github.com/platinasystems/tofino/internal/reg"
)

// RingConfig is one ring to program at bring-up.
type RingConfig struct {
	Subdev chip.Subdev
	Id     dr.Id
	Base   uint64
	Depth  uint32
}

type Device struct {
	Dev chip.Dev
	Sku chip.Sku

	// Log is internally synchronized and may be rendered without the
	// device lock.
	Log *dmalog.Log

	tr reg.Transport

	intrMu sync.Mutex
	intr   *intr.Dispatcher

	mu    sync.Mutex
	rings *dr.Table
	polls [chip.MaxSubdevs]uint64
}

// Open attaches to a device, discovers rings already running and installs
// the default ring service handlers. The DMA log meters register in r.
func Open(dev chip.Dev, tr reg.Transport, sku chip.Sku, r metrics.Registry) (*Device, error) {
	if !dev.Valid() {
		return nil, fmt.Errorf("%s: %w", dev, reg.ErrNoDevice)
	}
	d := &Device{
		Dev:   dev,
		Sku:   sku,
		Log:   dmalog.New(r),
		tr:    tr,
		rings: dr.NewTable(dev, sku.Family),
	}
	var err error
	if d.intr, err = intr.NewDispatcher(dev, tr, sku); err != nil {
		return nil, err
	}
	if err = d.rings.Discover(tr); err != nil {
		return nil, err
	}
	if err = d.registerRingHandlers(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) Family() chip.Family { return d.Sku.Family }

func (d *Device) Subdevs() uint { return d.Sku.Family.Subdevs() }

// Configure programs rings and rediscovers the table.
func (d *Device) Configure(rings ...RingConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range rings {
		if uint(c.Subdev) >= d.Subdevs() {
			return fmt.Errorf("%s %s: %w", d.Dev, c.Subdev, dr.ErrInvalidSubdev)
		}
		if err := dr.Program(d.tr, d.Dev, c.Subdev, d.Family(), c.Id,
			c.Base, c.Depth); err != nil {
			return fmt.Errorf("%s %s: %w", d.Dev, c.Subdev, err)
		}
		d.Log.Add(dmalog.Start, d.Dev, c.Subdev, c.Id, dr.Pointer{},
			dr.Pointer{}, c.Base, uint64(c.Depth))
	}
	return d.rings.Discover(d.tr)
}

// Push hands n descriptors to hardware on a software produced ring.
func (d *Device) Push(subdev chip.Subdev, id dr.Id, n uint32, data ...uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.rings.Lookup(subdev, id)
	if err != nil {
		return err
	}
	head, tail, err := dr.Push(d.tr, v, n)
	if err != nil {
		return err
	}
	d.Log.Add(dmalog.Push, d.Dev, subdev, id, head, tail, data...)
	return nil
}

// Pull returns n consumed descriptors of a hardware produced ring.
func (d *Device) Pull(subdev chip.Subdev, id dr.Id, n uint32, data ...uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.rings.Lookup(subdev, id)
	if err != nil {
		return err
	}
	head, tail, err := dr.Pull(d.tr, v, n)
	if err != nil {
		return err
	}
	d.Log.Add(dmalog.Pull, d.Dev, subdev, id, head, tail, data...)
	return nil
}

// Poll services interrupts on every die, returning the asserted leaf count
// and the first error. Callbacks run on the calling goroutine.
func (d *Device) Poll(force bool) (n uint, err error) {
	d.intrMu.Lock()
	defer d.intrMu.Unlock()
	for s := uint(0); s < d.Subdevs(); s++ {
		x, xerr := d.intr.Poll(chip.Subdev(s), force)
		n += x
		d.mu.Lock()
		d.polls[s]++
		d.mu.Unlock()
		if xerr != nil && err == nil {
			err = xerr
		}
	}
	return
}

// UpdateRings refreshes every configured ring view.
func (d *Device) UpdateRings() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rings.UpdateAll(d.tr)
}

// Ring returns a copy of one ring view.
func (d *Device) Ring(subdev chip.Subdev, id dr.Id) (dr.View, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.rings.Lookup(subdev, id)
	if err != nil {
		return dr.View{}, err
	}
	return *v, nil
}

// Rings returns copies of the configured ring views of every die.
func (d *Device) Rings() (views []dr.View) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for s := uint(0); s < d.Subdevs(); s++ {
		d.rings.Foreach(chip.Subdev(s), func(v *dr.View) {
			views = append(views, *v)
		})
	}
	return
}

func (d *Device) WriteRingStatus(w io.Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for s := uint(0); s < d.Subdevs(); s++ {
		d.rings.WriteStatus(w, chip.Subdev(s))
	}
}

// RegisterCallback replaces the handler of an interrupt leaf. The handler
// runs from Poll and may use the ring accessors of d but must not call
// Poll, RegisterCallback or Interrupts.
func (d *Device) RegisterCallback(status reg.Addr, fn intr.Callback,
	userdata interface{}) (intr.Callback, error) {
	d.intrMu.Lock()
	defer d.intrMu.Unlock()
	return d.intr.RegisterCallback(status, fn, userdata)
}

func (d *Device) Tree() *intr.Tree { return d.intr.Tree }

func (d *Device) Transport() reg.Transport { return d.tr }

// Interrupts runs fn with exclusive use of the dispatcher.
func (d *Device) Interrupts(fn func(*intr.Dispatcher) error) error {
	d.intrMu.Lock()
	defer d.intrMu.Unlock()
	return fn(d.intr)
}

// Polls is the number of polls of a die.
func (d *Device) Polls(subdev chip.Subdev) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if uint(subdev) >= chip.MaxSubdevs {
		return 0
	}
	return d.polls[subdev]
}

// ringKinds selects the rings a tbus leaf reports on.
type ringKinds []dr.Kind

func (ks ringKinds) has(k dr.Kind) bool {
	for _, x := range ks {
		if x == k {
			return true
		}
	}
	return false
}

var tbusRingKinds = map[string]ringKinds{
	"tbus_int_stat0": {dr.FreeMem, dr.Tx},
	"tbus_int_stat1": {dr.Completion},
	"tbus_int_stat2": {dr.Rx},
	"tbus_int_stat3": {dr.FreeMem, dr.Tx, dr.Completion, dr.Rx},
}

func (d *Device) registerRingHandlers() error {
	for _, l := range d.intr.Tree.BusLeaves(intr.Tbus) {
		kinds, ok := tbusRingKinds[l.Name]
		if !ok {
			continue
		}
		if _, err := d.intr.RegisterCallback(l.Status, d.serviceRings,
			kinds); err != nil {
			return err
		}
	}
	return nil
}

// serviceRings runs from Poll. It refreshes the rings of the reported
// kinds, logs those that moved and clears the status bits.
func (d *Device) serviceRings(dev chip.Dev, subdev chip.Subdev,
	status reg.Addr, bits uint32, _, _ reg.Addr, userdata interface{}) (err error) {
	kinds, _ := userdata.(ringKinds)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rings.Foreach(subdev, func(v *dr.View) {
		if !kinds.has(v.Id.Kind()) {
			return
		}
		head, tail := v.Head, v.Tail
		if xerr := v.Update(d.tr); xerr != nil {
			log.Print("err", dev, " ", subdev, " ", xerr)
			if err == nil {
				err = xerr
			}
			return
		}
		if v.Head != head || v.Tail != tail {
			d.Log.Add(dmalog.Service, dev, subdev, v.Id, v.Head, v.Tail,
				uint64(bits), uint64(v.Occupancy))
		}
	})
	if xerr := d.tr.Write(dev, subdev, status, bits); xerr != nil && err == nil {
		err = xerr
	}
	return
}
