// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dr

import "fmt"

// Pointer register encoding: [19:0] descriptor index, [20] wrap.
const (
	PtrWrap      = 1 << 20
	PtrIndexMask = PtrWrap - 1
	MaxDepth     = PtrWrap
)

// Pointer is a head or tail position. Wrap toggles each time Index passes
// the ring depth so that full and empty rings are distinguishable.
type Pointer struct {
	Wrap  bool
	Index uint32
}

func Decode(raw uint32) Pointer {
	return Pointer{
		Wrap:  raw&PtrWrap != 0,
		Index: raw & PtrIndexMask,
	}
}

func (p Pointer) Encode() (raw uint32) {
	raw = p.Index & PtrIndexMask
	if p.Wrap {
		raw |= PtrWrap
	}
	return
}

func (p Pointer) String() string {
	w := 0
	if p.Wrap {
		w = 1
	}
	return fmt.Sprintf("%d:%d", w, p.Index)
}

// Distance is the number of descriptors from "from" up to "to" on a ring of
// the given depth, clamped to [0, depth].
func Distance(from, to Pointer, depth uint32) uint32 {
	var d int64
	if from.Wrap == to.Wrap {
		d = int64(to.Index) - int64(from.Index)
	} else {
		d = int64(depth) - (int64(from.Index) - int64(to.Index))
	}
	switch {
	case d < 0:
		d = 0
	case d > int64(depth):
		d = int64(depth)
	}
	return uint32(d)
}

// Advance moves p forward n descriptors, toggling Wrap on each pass of
// depth.
func Advance(p Pointer, n, depth uint32) Pointer {
	if depth == 0 {
		return p
	}
	i := uint64(p.Index) + uint64(n)
	for i >= uint64(depth) {
		i -= uint64(depth)
		p.Wrap = !p.Wrap
	}
	p.Index = uint32(i)
	return p
}
