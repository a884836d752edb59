// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package intr

import (
	"fmt"
	"io"
	"sort"

	"github.com/platinasystems/tofino/internal/chip"
)

type summary struct {
	Interrupt string
	Bit       uint
	Count     uint64
	New       uint64
}

type byName []summary

func (a byName) Len() int      { return len(a) }
func (a byName) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a byName) Less(i, j int) bool {
	if a[i].Interrupt != a[j].Interrupt {
		return a[i].Interrupt < a[j].Interrupt
	}
	return a[i].Bit < a[j].Bit
}

// WriteSummary writes one row per counted leaf bit, or only bits that fired
// since the last summary unless all, then marks every count shown.
func (d *Dispatcher) WriteSummary(w io.Writer, subdev chip.Subdev, all bool) error {
	if err := d.checkSubdev(subdev); err != nil {
		return err
	}
	data := byName{}
	var total uint64
	for _, l := range d.Tree.Leaves() {
		c := &d.counts[subdev][l.index]
		for b := range c.count {
			n := c.count[b]
			if n == 0 {
				continue
			}
			total += n
			if all || n != c.shown[b] {
				data = append(data, summary{
					Interrupt: l.Name,
					Bit:       uint(b),
					Count:     n,
					New:       n - c.shown[b],
				})
			}
			c.shown[b] = n
		}
	}
	sort.Sort(data)
	fmt.Fprintf(w, "%-40s %3s %16s %16s\n", "Interrupt", "Bit", "Count", "New")
	for _, s := range data {
		fmt.Fprintf(w, "%-40s %3d %16d %16d\n", s.Interrupt, s.Bit, s.Count, s.New)
	}
	fmt.Fprintf(w, "%-40s %3s %16d\n", "Total", "", total)
	return nil
}
