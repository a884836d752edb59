// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package intr

import (
	"fmt"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/reg"
)

// Accessible is false for leaves on pipes or MACs the SKU has fused off;
// their registers must not be written.
func (d *Dispatcher) Accessible(l *Leaf) bool {
	return d.Sku.PipeActive(l.Pipe) && d.Sku.MacActive(l.Mac)
}

// InjectPattern is what InjectAll writes to the leaf.
func (d *Dispatcher) InjectPattern(l *Leaf) uint32 {
	if l.InjectMask != 0 {
		return l.InjectMask
	}
	return d.Tree.Inject
}

// InjectAll forces every injectable bit of the leaf. Inaccessible leaves
// are skipped without error.
func (d *Dispatcher) InjectAll(subdev chip.Subdev, status reg.Addr) error {
	l, err := d.accessible(subdev, status)
	if l == nil {
		return err
	}
	if err = d.tr.Write(d.Dev, subdev, l.Inject, d.InjectPattern(l)); err != nil {
		return fmt.Errorf("%s %s %s inject: %w", d.Dev, subdev, l, err)
	}
	return nil
}

// EnableAll sets or clears both enable registers of the leaf. Inaccessible
// leaves are skipped without error.
func (d *Dispatcher) EnableAll(subdev chip.Subdev, status reg.Addr, on bool) error {
	l, err := d.accessible(subdev, status)
	if l == nil {
		return err
	}
	var v uint32
	if on {
		v = allOnes
	}
	for _, a := range []reg.Addr{l.EnableHi, l.EnableLo} {
		if err = d.tr.Write(d.Dev, subdev, a, v); err != nil {
			return fmt.Errorf("%s %s %s enable: %w", d.Dev, subdev, l, err)
		}
	}
	return nil
}

// accessible returns the leaf if it may be written; a nil leaf with nil
// error means skip.
func (d *Dispatcher) accessible(subdev chip.Subdev, status reg.Addr) (*Leaf, error) {
	if err := d.checkSubdev(subdev); err != nil {
		return nil, err
	}
	l, err := d.Tree.Leaf(status)
	if err != nil {
		return nil, err
	}
	if !d.Accessible(l) {
		return nil, nil
	}
	return l, nil
}

// EnableAllLeaves applies EnableAll to every leaf of the die.
func (d *Dispatcher) EnableAllLeaves(subdev chip.Subdev, on bool) error {
	for _, l := range d.Tree.Leaves() {
		if err := d.EnableAll(subdev, l.Status, on); err != nil {
			return err
		}
	}
	return nil
}

// InjectAllLeaves applies InjectAll to every leaf of the die.
func (d *Dispatcher) InjectAllLeaves(subdev chip.Subdev) error {
	for _, l := range d.Tree.Leaves() {
		if err := d.InjectAll(subdev, l.Status); err != nil {
			return err
		}
	}
	return nil
}
