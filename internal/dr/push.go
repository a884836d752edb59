// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dr

import (
	"errors"
	"fmt"

	"github.com/platinasystems/tofino/internal/reg"
)

var ErrRingEmpty = errors.New("ring empty")

func (v *View) pointers(tr reg.Transport) (head, tail Pointer, err error) {
	h, err := tr.Read(v.Dev, v.Subdev, v.regs.head)
	if err != nil {
		return
	}
	t, err := tr.Read(v.Dev, v.Subdev, v.regs.tail)
	if err != nil {
		return
	}
	return Decode(h), Decode(t), nil
}

// Push gives n more descriptors to hardware on a ring software produces,
// by writing the tail. The view itself is not touched; Update picks up the
// new tail. Rings with LockRequired need the caller to serialize pushes.
func Push(tr reg.Transport, v *View, n uint32) (head, tail Pointer, err error) {
	if !v.Id.SoftwareProduces() {
		return head, tail, fmt.Errorf("%s: push on %s ring", v.Id, v.Id.Kind())
	}
	if !v.Configured() {
		return head, tail, fmt.Errorf("%s: %w", v.Id, ErrNotConfigured)
	}
	if head, tail, err = v.pointers(tr); err != nil {
		return
	}
	if Distance(head, tail, v.Depth)+n > v.Depth {
		return head, tail, fmt.Errorf("%s: %w", v.Id, ErrRingFull)
	}
	tail = Advance(tail, n, v.Depth)
	err = tr.Write(v.Dev, v.Subdev, v.regs.tail, tail.Encode())
	return
}

// Pull returns n consumed descriptors to hardware on a ring hardware
// produces, by writing the head.
func Pull(tr reg.Transport, v *View, n uint32) (head, tail Pointer, err error) {
	if v.Id.SoftwareProduces() {
		return head, tail, fmt.Errorf("%s: pull on %s ring", v.Id, v.Id.Kind())
	}
	if !v.Configured() {
		return head, tail, fmt.Errorf("%s: %w", v.Id, ErrNotConfigured)
	}
	if head, tail, err = v.pointers(tr); err != nil {
		return
	}
	if n > Distance(head, tail, v.Depth) {
		return head, tail, fmt.Errorf("%s: %w", v.Id, ErrRingEmpty)
	}
	head = Advance(head, n, v.Depth)
	err = tr.Write(v.Dev, v.Subdev, v.regs.head, head.Encode())
	return
}
