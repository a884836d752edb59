// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dr

import (
	"fmt"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/reg"
)

// View is the software mirror of one hardware ring. After discovery only
// Update changes it.
type View struct {
	Dev    chip.Dev
	Subdev chip.Subdev
	Id     Id

	// Hardware owned ring memory.
	Base uint64

	// Number of descriptors; zero for an unconfigured ring.
	Depth        uint32
	WordsPerDesc uint32
	LockRequired bool

	Head, Tail Pointer

	// Descriptors the producer pointer has been advanced past; never
	// decreases.
	LastPtr uint64

	Occupancy uint32

	// Descriptors and bytes consumed since discovery.
	NDescs, NBytes uint64

	regs ringRegs
}

func (v *View) Configured() bool { return v.Depth != 0 && v.Base != 0 }

// Used is the number of descriptors between head and tail.
func (v *View) Used() uint32 { return Distance(v.Head, v.Tail, v.Depth) }

func (v *View) Free() uint32 { return v.Depth - v.Used() }

func (v *View) DescBytes() uint32 { return 8 * v.WordsPerDesc }

// Update re-reads the hardware head and tail. An unconfigured ring is left
// alone. The two reads are not atomic with respect to hardware so a
// transient miscount corrects itself on the next call.
func (v *View) Update(tr reg.Transport) error {
	if !v.Configured() {
		return nil
	}
	h, err := tr.Read(v.Dev, v.Subdev, v.regs.head)
	if err != nil {
		return fmt.Errorf("%s head: %w", v.Id, err)
	}
	t, err := tr.Read(v.Dev, v.Subdev, v.regs.tail)
	if err != nil {
		return fmt.Errorf("%s tail: %w", v.Id, err)
	}
	head, tail := Decode(h), Decode(t)
	n := uint64(Distance(v.Head, head, v.Depth))
	v.NDescs += n
	v.NBytes += n * uint64(v.DescBytes())
	v.LastPtr += uint64(Distance(v.Tail, tail, v.Depth))
	v.Head, v.Tail = head, tail
	v.Occupancy = Distance(head, tail, v.Depth)
	return nil
}

// String is the one line ring status dump.
func (v *View) String() string {
	return fmt.Sprintf("head %-9s tail %-9s depth %6d words %d lock %-5v last %10d base 0x%012x used %6d %s",
		v.Head, v.Tail, v.Depth, v.WordsPerDesc, v.LockRequired,
		v.LastPtr, v.Base, v.Occupancy, v.Id)
}
