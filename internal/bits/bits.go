// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package bits provides 32 bit status word iteration and small growable
// bitmaps.
package bits

import (
	"fmt"
	"math/bits"
	"strings"
)

// Word is a 32 bit interrupt status, enable or mask register value.
type Word uint32

const WordBits = 32

// FirstSet gives 2^f where f is the lowest 1 bit in x.
func (x Word) FirstSet() Word { return x & -x }

// MinLog2 of a power of 2 is its bit index.
func (x Word) MinLog2() uint { return WordBits - 1 - uint(bits.LeadingZeros32(uint32(x))) }

func (x Word) NSetBits() uint { return uint(bits.OnesCount32(uint32(x))) }

func (x Word) IsSet(i uint) bool { return i < WordBits && x&(1<<i) != 0 }

// ForeachSetBit calls fn in ascending bit order.
func (x Word) ForeachSetBit(fn func(i uint)) {
	for x != 0 {
		f := x.FirstSet()
		x ^= f
		fn(f.MinLog2())
	}
}

func (x Word) String() string { return fmt.Sprintf("0x%08x", uint32(x)) }

const (
	log2BitmapWordBits = 6
	bitmapWordBits     = 1 << log2BitmapWordBits
)

// Bitmap is a growable set of small indices.
type Bitmap []uint64

func bitmapIndex(x uint) (i uint, m uint64) {
	i = x >> log2BitmapWordBits
	m = 1 << (x % bitmapWordBits)
	return
}

// Set returns the bitmap with x set, growing as needed.
func (b Bitmap) Set(x uint) Bitmap {
	i, m := bitmapIndex(x)
	for uint(len(b)) <= i {
		b = append(b, 0)
	}
	b[i] |= m
	return b
}

func (b Bitmap) Unset(x uint) Bitmap {
	i, m := bitmapIndex(x)
	if i < uint(len(b)) {
		b[i] &^= m
	}
	return b
}

func (b Bitmap) Test(x uint) bool {
	i, m := bitmapIndex(x)
	return i < uint(len(b)) && b[i]&m != 0
}

func (b Bitmap) Count() (n uint) {
	for _, w := range b {
		n += uint(bits.OnesCount64(w))
	}
	return
}

func (b Bitmap) ForeachSetBit(fn func(i uint)) {
	for wi, w := range b {
		for w != 0 {
			f := w & -w
			w ^= f
			fn(uint(wi)*bitmapWordBits + uint(bits.TrailingZeros64(f)))
		}
	}
}

// String formats as a range list, e.g. "0-3,6".
func (b Bitmap) String() string {
	var ranges []string
	lo, hi := -1, -1
	flush := func() {
		switch {
		case lo < 0:
		case lo == hi:
			ranges = append(ranges, fmt.Sprint(lo))
		default:
			ranges = append(ranges, fmt.Sprintf("%d-%d", lo, hi))
		}
	}
	b.ForeachSetBit(func(i uint) {
		if int(i) == hi+1 && lo >= 0 {
			hi = int(i)
			return
		}
		flush()
		lo, hi = int(i), int(i)
	})
	flush()
	if len(ranges) == 0 {
		return "none"
	}
	return strings.Join(ranges, ",")
}
