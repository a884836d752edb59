// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package device

import (
	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/intr"
	"github.com/platinasystems/tofino/internal/reg"
)

// Sim is a register file standing in for a chip. It models the interrupt
// hierarchy: inject writes raise leaf status bits, status writes clear the
// written bits, and every summary word up to the global word follows its
// leaves.
type Sim struct {
	*reg.Mem
	tree   *intr.Tree
	inject map[reg.Addr]*intr.Leaf
}

func NewSim(m *reg.Mem, tree *intr.Tree) *Sim {
	s := &Sim{
		Mem:    m,
		tree:   tree,
		inject: make(map[reg.Addr]*intr.Leaf),
	}
	for _, l := range tree.Leaves() {
		s.inject[l.Inject] = l
	}
	return s
}

func (s *Sim) Write(dev chip.Dev, subdev chip.Subdev, a reg.Addr, v uint32) error {
	if l, ok := s.inject[a]; ok {
		if err := s.Mem.Write(dev, subdev, a, v); err != nil {
			return err
		}
		s.Poke(dev, subdev, l.Status, s.Peek(dev, subdev, l.Status)|v)
		s.refresh(dev, subdev)
		return nil
	}
	if _, err := s.tree.Leaf(a); err == nil {
		if !dev.Valid() {
			return reg.ErrNoDevice
		}
		s.Poke(dev, subdev, a, s.Peek(dev, subdev, a)&^v)
		s.refresh(dev, subdev)
		return nil
	}
	return s.Mem.Write(dev, subdev, a, v)
}

// Raise asserts leaf status bits as hardware would.
func (s *Sim) Raise(dev chip.Dev, subdev chip.Subdev, l *intr.Leaf, bits uint32) {
	s.Poke(dev, subdev, l.Status, s.Peek(dev, subdev, l.Status)|bits)
	s.refresh(dev, subdev)
}

func (s *Sim) refresh(dev chip.Dev, subdev chip.Subdev) {
	var global uint32
	for _, sl := range s.tree.Slots {
		if sl == nil {
			continue
		}
		w := s.word(dev, subdev, sl.Children)
		s.Poke(dev, subdev, sl.Status, w)
		if w != 0 {
			global |= 1 << sl.Index
		}
	}
	s.Poke(dev, subdev, s.tree.GlobalStatus, global)
}

func (s *Sim) word(dev chip.Dev, subdev chip.Subdev, nodes []*intr.Node) (w uint32) {
	for _, n := range nodes {
		if s.pending(dev, subdev, n) {
			w |= 1 << n.Bit
		}
	}
	return
}

func (s *Sim) pending(dev chip.Dev, subdev chip.Subdev, n *intr.Node) bool {
	switch {
	case n.IsLeaf():
		return s.Peek(dev, subdev, n.Leaf.Status) != 0
	case n.Status == 0:
		p := false
		for _, c := range n.Children {
			if s.pending(dev, subdev, c) {
				p = true
			}
		}
		return p
	}
	w := s.word(dev, subdev, n.Children)
	s.Poke(dev, subdev, n.Status, w)
	return w != 0
}
