// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dr

import (
	"errors"
	"fmt"
	"io"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/reg"
)

// Per ring register block.
const (
	ctrlOffset   = 0x00
	baseLoOffset = 0x04
	baseHiOffset = 0x08
	sizeOffset   = 0x0c
	headOffset   = 0x10
	tailOffset   = 0x14
	ringStride   = 0x40

	// ctrl[0] ring enable
	ctrlEnable = 1 << 0
)

type ringRegs struct {
	ctrl, baseLo, baseHi, size, head, tail reg.Addr
}

// Base of the DMA ring register blocks in each family's host space.
var layoutBase = [...]reg.Addr{
	chip.Tofino:  0x00030000,
	chip.Tofino2: 0x00400000,
	chip.Tofino3: 0x00400000,
}

func regsOf(f chip.Family, id Id) (r ringRegs) {
	b := layoutBase[f] + reg.Addr(id)*ringStride
	r.ctrl = b + ctrlOffset
	r.baseLo = b + baseLoOffset
	r.baseHi = b + baseHiOffset
	r.size = b + sizeOffset
	r.head = b + headOffset
	r.tail = b + tailOffset
	return
}

// LayoutOf gives the base of the family's ring register blocks and the
// stride between them.
func LayoutOf(f chip.Family) (base, stride reg.Addr) {
	if !f.Valid() {
		return 0, 0
	}
	return layoutBase[f], ringStride
}

// HeadAddr and TailAddr give the pointer registers of a ring.
func HeadAddr(f chip.Family, id Id) reg.Addr { return regsOf(f, id).head }
func TailAddr(f chip.Family, id Id) reg.Addr { return regsOf(f, id).tail }

var (
	ErrInvalidSubdev = errors.New("invalid subdevice")
	ErrNotConfigured = errors.New("ring not configured")
	ErrRingFull      = errors.New("ring full")
)

// Table holds the views of every ring of one device. It is sized at
// creation and never reallocated.
type Table struct {
	Dev    chip.Dev
	Family chip.Family
	views  [chip.MaxSubdevs][NId]View
}

func NewTable(dev chip.Dev, f chip.Family) *Table {
	t := &Table{Dev: dev, Family: f}
	for s := range t.views {
		for i := range t.views[s] {
			v := &t.views[s][i]
			v.Dev = dev
			v.Subdev = chip.Subdev(s)
			v.Id = Id(i)
			v.WordsPerDesc = v.Id.WordsPerDesc()
			v.LockRequired = v.Id.LockRequired()
			if f.Valid() {
				v.regs = regsOf(f, v.Id)
			}
		}
	}
	return t
}

func (t *Table) check(subdev chip.Subdev, id Id) error {
	if uint(subdev) >= t.Family.Subdevs() {
		return fmt.Errorf("%s %s: %w", t.Dev, subdev, ErrInvalidSubdev)
	}
	if !id.ValidFor(t.Family) {
		return fmt.Errorf("%s %s %s: %w", t.Dev, subdev, id, ErrInvalidRing)
	}
	return nil
}

// Lookup returns the view of a configured ring. Callers filter on the error
// once rather than checking depth at every use.
func (t *Table) Lookup(subdev chip.Subdev, id Id) (*View, error) {
	if err := t.check(subdev, id); err != nil {
		return nil, err
	}
	v := &t.views[subdev][id]
	if !v.Configured() {
		return nil, fmt.Errorf("%s %s %s: %w", t.Dev, subdev, id,
			ErrNotConfigured)
	}
	return v, nil
}

// Foreach calls fn with each configured ring of the subdevice in id order.
func (t *Table) Foreach(subdev chip.Subdev, fn func(v *View)) {
	if uint(subdev) >= t.Family.Subdevs() {
		return
	}
	for i := range t.views[subdev] {
		v := &t.views[subdev][i]
		if v.Id.ValidFor(t.Family) && v.Configured() {
			fn(v)
		}
	}
}

// Program sets up a ring at bring-up: base, size, pointers, then enable.
func Program(tr reg.Transport, dev chip.Dev, subdev chip.Subdev,
	f chip.Family, id Id, base uint64, depth uint32) error {
	if !id.ValidFor(f) {
		return fmt.Errorf("%s %s: %w", f, id, ErrInvalidRing)
	}
	if depth == 0 || depth > MaxDepth {
		return fmt.Errorf("%s: depth %d out of range", id, depth)
	}
	r := regsOf(f, id)
	for _, w := range []struct {
		a reg.Addr
		v uint32
	}{
		{r.ctrl, 0},
		{r.baseLo, uint32(base)},
		{r.baseHi, uint32(base >> 32)},
		{r.size, depth * 8 * id.WordsPerDesc()},
		{r.head, 0},
		{r.tail, 0},
		{r.ctrl, ctrlEnable},
	} {
		if err := tr.Write(dev, subdev, w.a, w.v); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
	}
	return nil
}

// Discover fills views from the ring registers. Disabled or zero sized
// rings stay unconfigured.
func (t *Table) Discover(tr reg.Transport) error {
	for s := uint(0); s < t.Family.Subdevs(); s++ {
		for i := range t.views[s] {
			v := &t.views[s][i]
			if !v.Id.ValidFor(t.Family) {
				continue
			}
			if err := v.discover(tr); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *View) discover(tr reg.Transport) error {
	var vals [6]uint32
	for i, a := range []reg.Addr{
		v.regs.ctrl,
		v.regs.baseLo,
		v.regs.baseHi,
		v.regs.size,
		v.regs.head,
		v.regs.tail,
	} {
		x, err := tr.Read(v.Dev, v.Subdev, a)
		if err != nil {
			return fmt.Errorf("%s %s: %w", v.Subdev, v.Id, err)
		}
		vals[i] = x
	}
	ctrl, size := vals[0], vals[3]
	v.Depth, v.Base = 0, 0
	if ctrl&ctrlEnable == 0 || size == 0 {
		return nil
	}
	v.Base = uint64(vals[2])<<32 | uint64(vals[1])
	v.Depth = size / v.DescBytes()
	v.Head, v.Tail = Decode(vals[4]), Decode(vals[5])
	v.Occupancy = Distance(v.Head, v.Tail, v.Depth)
	return nil
}

// UpdateAll refreshes every configured ring, continuing past errors and
// returning the first.
func (t *Table) UpdateAll(tr reg.Transport) (err error) {
	for s := uint(0); s < t.Family.Subdevs(); s++ {
		t.Foreach(chip.Subdev(s), func(v *View) {
			if xerr := v.Update(tr); xerr != nil && err == nil {
				err = xerr
			}
		})
	}
	return
}

// WriteStatus writes one status line per configured ring of the
// subdevice.
func (t *Table) WriteStatus(w io.Writer, subdev chip.Subdev) {
	t.Foreach(subdev, func(v *View) {
		fmt.Fprintf(w, "%d.%d %s\n", v.Dev, v.Subdev, v)
	})
}
