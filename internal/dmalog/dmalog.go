// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package dmalog keeps the last Depth descriptor ring transactions of a
// device for debugging.
package dmalog

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rcrowley/go-metrics"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/dr"
)

const (
	log2Depth = 10
	Depth     = 1 << log2Depth
	depthMask = Depth - 1

	MaxWords = 4

	// DefaultMaxRender bounds the text Render will build.
	DefaultMaxRender = 1 << 20
)

var ErrRenderTooLarge = errors.New("dma log render exceeds limit")

type Op uint8

const (
	Push Op = iota
	Pull
	Start
	Service
	DmaRead
	DmaWrite
	nOp
)

var opNames = [...]string{
	Push:     "push",
	Pull:     "pull",
	Start:    "start",
	Service:  "service",
	DmaRead:  "dma-rd",
	DmaWrite: "dma-wr",
}

func (op Op) String() string {
	if op < nOp {
		return opNames[op]
	}
	return fmt.Sprintf("op%d", uint8(op))
}

// Entry is one logged ring transaction. A zero Stamp marks a slot that was
// never written; an event logged at exactly the epoch would read as empty.
type Entry struct {
	Stamp  int64
	Op     Op
	Dev    chip.Dev
	Subdev chip.Subdev
	Ring   dr.Id
	NWords uint8
	Data   [MaxWords]uint64
	Head   dr.Pointer
	Tail   dr.Pointer
}

func (e *Entry) Empty() bool { return e.Stamp == 0 }

func (e *Entry) Time() time.Time { return time.Unix(0, e.Stamp) }

func (e *Entry) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %d.%d %-20s %-7s head %-9s tail %-9s",
		e.Time().Format("15:04:05.000000000"), e.Dev, e.Subdev,
		e.Ring, e.Op, e.Head, e.Tail)
	for _, d := range e.Data[:e.NWords] {
		fmt.Fprintf(&b, " 0x%016x", d)
	}
	return b.String()
}

// Log is a fixed circular array of entries. Producers claim a slot with a
// single atomic increment and fill it unlocked, so readers see best effort
// snapshots: a slot being rewritten after wrap may render half old.
//
// Foreach copies slots that Add may be writing, so a Render concurrent with
// Add is reported by the race detector. That is accepted; Add must stay a
// single atomic increment and never take a lock.
type Log struct {
	next    uint64
	entries [Depth]Entry

	// MaxRender bounds Render output; zero means DefaultMaxRender.
	MaxRender int

	now func() time.Time

	registry metrics.Registry
	counters [nOp]metrics.Counter
}

// New returns an empty log with one go-metrics counter per op registered in
// r; a nil r gets a private registry.
func New(r metrics.Registry) *Log {
	if r == nil {
		r = metrics.NewRegistry()
	}
	l := &Log{now: time.Now, registry: r}
	for op := Op(0); op < nOp; op++ {
		l.counters[op] = metrics.GetOrRegisterCounter("dmalog."+op.String(), r)
	}
	return l
}

func (l *Log) Registry() metrics.Registry { return l.registry }

// Add records a transaction; data beyond MaxWords words is dropped.
func (l *Log) Add(op Op, dev chip.Dev, subdev chip.Subdev, ring dr.Id,
	head, tail dr.Pointer, data ...uint64) {
	i := atomic.AddUint64(&l.next, 1) - 1
	e := &l.entries[i&depthMask]
	*e = Entry{
		Stamp:  l.now().UnixNano(),
		Op:     op,
		Dev:    dev,
		Subdev: subdev,
		Ring:   ring,
		Head:   head,
		Tail:   tail,
	}
	e.NWords = uint8(copy(e.Data[:], data))
	if op < nOp {
		l.counters[op].Inc(1)
	}
}

// Count is the number of entries ever added.
func (l *Log) Count() uint64 { return atomic.LoadUint64(&l.next) }

// Foreach calls fn with a copy of each non-empty entry, oldest first.
func (l *Log) Foreach(fn func(e Entry)) {
	next := atomic.LoadUint64(&l.next)
	for i := uint64(0); i < Depth; i++ {
		e := l.entries[(next+i)&depthMask]
		if !e.Empty() {
			fn(e)
		}
	}
}

// Len is the number of non-empty slots.
func (l *Log) Len() (n int) {
	l.Foreach(func(Entry) { n++ })
	return
}

// Render formats the entries of one device and subdevice, oldest first,
// restricted to the given rings when any are named. Output over the render
// limit is discarded and ErrRenderTooLarge returned.
func (l *Log) Render(dev chip.Dev, subdev chip.Subdev, rings ...dr.Id) (string, error) {
	limit := l.MaxRender
	if limit <= 0 {
		limit = DefaultMaxRender
	}
	var want [dr.NId]bool
	for _, id := range rings {
		if !id.Valid() {
			return "", fmt.Errorf("%s: %w", id, dr.ErrInvalidRing)
		}
		want[id] = true
	}
	var (
		b    bytes.Buffer
		over bool
	)
	l.Foreach(func(e Entry) {
		if over || e.Dev != dev || e.Subdev != subdev {
			return
		}
		if len(rings) > 0 && !want[e.Ring] {
			return
		}
		b.WriteString(e.String())
		b.WriteByte('\n')
		over = b.Len() > limit
	})
	if over {
		return "", ErrRenderTooLarge
	}
	return b.String(), nil
}
