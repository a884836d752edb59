// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package reg

import (
	"fmt"
	"sync"

	"github.com/platinasystems/tofino/internal/chip"
)

type OpKind uint8

const (
	OpRead OpKind = iota
	OpWrite
)

func (k OpKind) String() string {
	if k == OpWrite {
		return "wr"
	}
	return "rd"
}

// Op is one recorded register access. Value is the data read or written.
type Op struct {
	Kind   OpKind
	Dev    chip.Dev
	Subdev chip.Subdev
	Addr   Addr
	Value  uint32
}

func (op Op) String() string {
	return fmt.Sprintf("%s %d.%d %s %#x", op.Kind, op.Dev, op.Subdev,
		op.Addr, op.Value)
}

// Recorder passes accesses through to another Transport and keeps them in
// call order.
type Recorder struct {
	Transport
	mu  sync.Mutex
	ops []Op
}

func NewRecorder(t Transport) *Recorder { return &Recorder{Transport: t} }

func (r *Recorder) Read(dev chip.Dev, subdev chip.Subdev, a Addr) (uint32, error) {
	v, err := r.Transport.Read(dev, subdev, a)
	if err == nil {
		r.add(Op{OpRead, dev, subdev, a, v})
	}
	return v, err
}

func (r *Recorder) Write(dev chip.Dev, subdev chip.Subdev, a Addr, v uint32) error {
	err := r.Transport.Write(dev, subdev, a, v)
	if err == nil {
		r.add(Op{OpWrite, dev, subdev, a, v})
	}
	return err
}

func (r *Recorder) add(op Op) {
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
}

// Ops returns a copy of the accesses recorded so far.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

func (r *Recorder) Writes() (ops []Op) {
	for _, op := range r.Ops() {
		if op.Kind == OpWrite {
			ops = append(ops, op)
		}
	}
	return
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.ops = r.ops[:0]
	r.mu.Unlock()
}
