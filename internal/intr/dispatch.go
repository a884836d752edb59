// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package intr

import (
	"errors"
	"fmt"

	"github.com/platinasystems/log"

	"github.com/platinasystems/tofino/internal/bits"
	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/reg"
)

var ErrInvalidSubdev = errors.New("invalid subdevice")

// Callback services one asserted leaf. Errors are logged by the dispatcher.
type Callback func(dev chip.Dev, subdev chip.Subdev, status reg.Addr,
	bits uint32, enableHi, enableLo reg.Addr, userdata interface{}) error

type handler struct {
	fn       Callback
	userdata interface{}
}

// Counts of each status bit since start and as of the last summary.
type leafCounts struct {
	count, shown [LeafBits]uint64
}

// Dispatcher holds the interrupt state of one device: registered handlers
// and per die bit counts. Registration must not run concurrently with Poll.
type Dispatcher struct {
	Dev  chip.Dev
	Tree *Tree
	Sku  chip.Sku

	tr       reg.Transport
	handlers []handler
	counts   [chip.MaxSubdevs][]leafCounts
	total    [chip.MaxSubdevs]uint64
}

func NewDispatcher(dev chip.Dev, tr reg.Transport, sku chip.Sku) (*Dispatcher, error) {
	t, err := TreeOf(sku.Family)
	if err != nil {
		return nil, err
	}
	d := &Dispatcher{
		Dev:      dev,
		Tree:     t,
		Sku:      sku,
		tr:       tr,
		handlers: make([]handler, t.NLeaves()),
	}
	for s := range d.counts {
		d.counts[s] = make([]leafCounts, t.NLeaves())
	}
	return d, nil
}

func (d *Dispatcher) checkSubdev(subdev chip.Subdev) error {
	if uint(subdev) >= d.Tree.Family.Subdevs() {
		return fmt.Errorf("%s %s: %w", d.Dev, subdev, ErrInvalidSubdev)
	}
	return nil
}

// RegisterCallback installs the handler of the leaf with the given status
// register and returns the one it replaces. A nil fn removes the handler.
func (d *Dispatcher) RegisterCallback(status reg.Addr, fn Callback,
	userdata interface{}) (prev Callback, err error) {
	l, err := d.Tree.Leaf(status)
	if err != nil {
		return nil, err
	}
	h := &d.handlers[l.index]
	prev = h.fn
	h.fn, h.userdata = fn, userdata
	return
}

// Poll services pending interrupts of one die and returns how many leaves
// were found asserted. With force every mapped slot is scanned whatever the
// global word says. Each slot is masked, read, walked and unmasked in that
// order. Read failures skip the affected subtree; the first is returned
// after the walk completes.
func (d *Dispatcher) Poll(subdev chip.Subdev, force bool) (n uint, err error) {
	if err = d.checkSubdev(subdev); err != nil {
		return
	}
	g, err := d.tr.Read(d.Dev, subdev, d.Tree.GlobalStatus)
	if err != nil {
		return 0, fmt.Errorf("%s %s global status: %w", d.Dev, subdev, err)
	}
	if g == 0 && !force {
		return
	}
	if force {
		g = allOnes
	}
	w := walker{d: d, subdev: subdev}
	bits.Word(g).ForeachSetBit(func(i uint) {
		if i < NSlots && d.Tree.Slots[i] != nil {
			w.slot(d.Tree.Slots[i])
		}
	})
	d.total[subdev] += uint64(w.n)
	return w.n, w.err
}

type walker struct {
	d      *Dispatcher
	subdev chip.Subdev
	n      uint
	err    error
}

func (w *walker) fail(err error) {
	log.Print("err", err)
	if w.err == nil {
		w.err = err
	}
}

func (w *walker) read(what string, a reg.Addr) (uint32, bool) {
	v, err := w.d.tr.Read(w.d.Dev, w.subdev, a)
	if err != nil {
		w.fail(fmt.Errorf("%s %s %s %s: %w", w.d.Dev, w.subdev, what, a, err))
		return 0, false
	}
	return v, true
}

func (w *walker) write(what string, a reg.Addr, v uint32) bool {
	if err := w.d.tr.Write(w.d.Dev, w.subdev, a, v); err != nil {
		w.fail(fmt.Errorf("%s %s %s %s: %w", w.d.Dev, w.subdev, what, a, err))
		return false
	}
	return true
}

func (w *walker) slot(s *Slot) {
	if !w.write(s.String()+" mask", s.Mask, allOnes) {
		return
	}
	if v, ok := w.read(s.String()+" status", s.Status); ok {
		w.children(s.Children, v)
	}
	w.write(s.String()+" unmask", s.Mask, 0)
}

// children services, in ascending bit order, the nodes whose bit is set in
// word. Bits no node claims are ignored.
func (w *walker) children(nodes []*Node, word uint32) {
	for _, c := range nodes {
		if bits.Word(word).IsSet(c.Bit) {
			w.node(c)
		}
	}
}

func (w *walker) node(n *Node) {
	switch {
	case n.IsLeaf():
		w.leaf(n.Leaf)
	case n.Status == 0:
		for _, c := range n.Children {
			w.node(c)
		}
	default:
		if v, ok := w.read(n.Name, n.Status); ok {
			w.children(n.Children, v)
		}
	}
}

func (w *walker) leaf(l *Leaf) {
	v, ok := w.read(l.Name, l.Status)
	if !ok || v == 0 {
		return
	}
	w.n++
	c := &w.d.counts[w.subdev][l.index]
	bits.Word(v).ForeachSetBit(func(i uint) { c.count[i]++ })
	h := &w.d.handlers[l.index]
	if h.fn == nil {
		return
	}
	if err := h.fn(w.d.Dev, w.subdev, l.Status, v, l.EnableHi, l.EnableLo,
		h.userdata); err != nil {
		log.Print("err", w.d.Dev, " ", w.subdev, " ", l.Name, ": ", err)
	}
}

// Unmask clears every slot mask of the die, as at bring-up.
func (d *Dispatcher) Unmask(subdev chip.Subdev) error {
	if err := d.checkSubdev(subdev); err != nil {
		return err
	}
	for _, s := range d.Tree.Slots {
		if s == nil {
			continue
		}
		if err := d.tr.Write(d.Dev, subdev, s.Mask, 0); err != nil {
			return fmt.Errorf("%s %s %s unmask: %w", d.Dev, subdev, s, err)
		}
	}
	return nil
}

// Counts returns the per bit counts of a leaf and their values as of the
// last summary.
func (d *Dispatcher) Counts(subdev chip.Subdev, status reg.Addr) (count, shown [LeafBits]uint64, err error) {
	if err = d.checkSubdev(subdev); err != nil {
		return
	}
	l, err := d.Tree.Leaf(status)
	if err != nil {
		return
	}
	c := &d.counts[subdev][l.index]
	return c.count, c.shown, nil
}

// Total is the number of asserted leaves serviced on the die.
func (d *Dispatcher) Total(subdev chip.Subdev) uint64 {
	if uint(subdev) >= chip.MaxSubdevs {
		return 0
	}
	return d.total[subdev]
}
