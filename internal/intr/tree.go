// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package intr demultiplexes Tofino interrupts. A global shadow word selects
// up to 16 shadow slots, each slot word selects bus class groups, and groups
// lead down to leaf status registers.
package intr

import (
	"errors"
	"fmt"
	"sort"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/reg"
)

const (
	NSlots   = 16
	LeafBits = 32

	allOnes = 0xffffffff
)

var ErrUnknownLeaf = errors.New("unknown interrupt leaf")

// Bus is the class of a shadow slot.
type Bus uint8

const (
	NoBus Bus = iota
	Host
	Tbus
	Cbus
	Pbus
	Mbus
)

var busNames = [...]string{
	NoBus: "none",
	Host:  "host",
	Tbus:  "tbus",
	Cbus:  "cbus",
	Pbus:  "pbus",
	Mbus:  "mbus",
}

func (b Bus) String() string {
	if int(b) < len(busNames) {
		return busNames[b]
	}
	return fmt.Sprintf("bus%d", uint8(b))
}

// Leaf is one interrupt status register with its enable and inject
// registers.
type Leaf struct {
	Name     string
	Status   reg.Addr
	EnableHi reg.Addr
	EnableLo reg.Addr
	Inject   reg.Addr

	Bus Bus
	// Owning pipe and MAC; -1 if the leaf belongs to neither.
	Pipe, Mac int

	// InjectMask replaces the family inject pattern on controllers that
	// fault on a full pattern.
	InjectMask uint32

	index int
}

func (l *Leaf) String() string { return l.Name }

// Node is a tagged tree node: a Leaf, or a group of children. A group with
// a zero Status is flat and services every child; otherwise each set bit of
// its status word services the children with that Bit.
type Node struct {
	Name     string
	Bit      uint
	Leaf     *Leaf
	Status   reg.Addr
	Children []*Node
}

func (n *Node) IsLeaf() bool { return n.Leaf != nil }

// Slot is one of the 16 shadow slots. Its status bits select Children by
// Bit; Mask gates the whole slot while it is serviced.
type Slot struct {
	Index    uint
	Bus      Bus
	Pipe     int
	Status   reg.Addr
	Mask     reg.Addr
	Children []*Node
}

func (s *Slot) String() string {
	if s.Bus == Pbus {
		return fmt.Sprintf("%s%d", s.Bus, s.Pipe)
	}
	return s.Bus.String()
}

// Tree is the interrupt hierarchy of one chip family. It is built once and
// shared by every device of that family.
type Tree struct {
	Family       chip.Family
	GlobalStatus reg.Addr
	Slots        [NSlots]*Slot

	// Inject is the family inject pattern.
	Inject uint32

	leaves   []*Leaf
	byStatus map[reg.Addr]*Leaf
}

// Leaves lists every leaf in walk order.
func (t *Tree) Leaves() []*Leaf { return t.leaves }

func (t *Tree) NLeaves() int { return len(t.leaves) }

// BusLeaves lists the leaves of one bus class in walk order.
func (t *Tree) BusLeaves(bus Bus) (ls []*Leaf) {
	for _, l := range t.leaves {
		if l.Bus == bus {
			ls = append(ls, l)
		}
	}
	return
}

// Leaf finds a leaf by status register address.
func (t *Tree) Leaf(status reg.Addr) (*Leaf, error) {
	if l, ok := t.byStatus[status]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("%s %s: %w", t.Family, status, ErrUnknownLeaf)
}

// LeafByName finds a leaf by name.
func (t *Tree) LeafByName(name string) (*Leaf, error) {
	for _, l := range t.leaves {
		if l.Name == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%s %q: %w", t.Family, name, ErrUnknownLeaf)
}

// finish sorts children by bit, numbers the leaves in walk order and
// indexes them by status address.
func (t *Tree) finish() *Tree {
	t.byStatus = make(map[reg.Addr]*Leaf)
	var visit func(nodes []*Node)
	visit = func(nodes []*Node) {
		sort.SliceStable(nodes, func(i, j int) bool {
			return nodes[i].Bit < nodes[j].Bit
		})
		for _, n := range nodes {
			if n.IsLeaf() {
				if _, dup := t.byStatus[n.Leaf.Status]; dup {
					panic(fmt.Errorf("%s: %s: duplicate status %s",
						t.Family, n.Leaf.Name, n.Leaf.Status))
				}
				n.Leaf.index = len(t.leaves)
				t.leaves = append(t.leaves, n.Leaf)
				t.byStatus[n.Leaf.Status] = n.Leaf
				continue
			}
			visit(n.Children)
		}
	}
	for _, s := range t.Slots {
		if s != nil {
			visit(s.Children)
		}
	}
	return t
}

// Foreach walks nodes depth first in service order.
func (t *Tree) Foreach(fn func(s *Slot, path []*Node)) {
	var walk func(s *Slot, path []*Node, nodes []*Node)
	walk = func(s *Slot, path []*Node, nodes []*Node) {
		for _, n := range nodes {
			p := append(path[:len(path):len(path)], n)
			fn(s, p)
			if !n.IsLeaf() {
				walk(s, p, n.Children)
			}
		}
	}
	for _, s := range t.Slots {
		if s != nil {
			walk(s, nil, s.Children)
		}
	}
}

// builder lays out leaf register blocks sequentially from a bus base. Each
// block is status, enable hi, enable lo, inject.
type builder struct {
	next   reg.Addr
	bus    Bus
	pipe   int
	prefix string
}

const leafBlock = 0x10

// Reduced inject patterns of the bus controllers.
const (
	cbcInjectMask = 0x0000000f
	pbcInjectMask = 0x0000003f
	mbcInjectMask = 0x00000007
)

func newBuilder(base reg.Addr, bus Bus, pipe int) *builder {
	b := &builder{next: base, bus: bus, pipe: pipe}
	if pipe >= 0 {
		b.prefix = fmt.Sprintf("pipe%d.", pipe)
	}
	return b
}

func (b *builder) alloc() (a reg.Addr) {
	a = b.next
	b.next += leafBlock
	return
}

func (b *builder) leaf(bit uint, name string) *Node {
	return b.leafMask(bit, name, 0)
}

func (b *builder) leafMask(bit uint, name string, injectMask uint32) *Node {
	a := b.alloc()
	name = b.prefix + name
	return &Node{
		Name: name,
		Bit:  bit,
		Leaf: &Leaf{
			Name:       name,
			Status:     a,
			EnableHi:   a + 0x4,
			EnableLo:   a + 0x8,
			Inject:     a + 0xc,
			Bus:        b.bus,
			Pipe:       b.pipe,
			Mac:        -1,
			InjectMask: injectMask,
		},
	}
}

func (b *builder) macLeaf(bit uint, name string, mac int) *Node {
	n := b.leaf(bit, name)
	n.Leaf.Mac = mac
	return n
}

// group has its own summary status register.
func (b *builder) group(bit uint, name string, children ...*Node) *Node {
	return &Node{
		Name:     b.prefix + name,
		Bit:      bit,
		Status:   b.alloc(),
		Children: children,
	}
}

// instances is a summary group with one sub group per block instance, each
// holding the named leaves.
func (b *builder) instances(bit uint, block string, n int, leaves ...string) *Node {
	children := make([]*Node, n)
	for i := range children {
		inst := fmt.Sprintf("%s%d", block, i)
		ls := make([]*Node, len(leaves))
		for j, l := range leaves {
			ls[j] = b.leaf(uint(j), inst+"."+l)
		}
		children[i] = b.group(uint(i), inst, ls...)
	}
	return b.group(bit, block+"_int_summary", children...)
}

// numbered is a summary group of n single leaf instances.
func (b *builder) numbered(bit uint, block string, n int, leaf string) *Node {
	children := make([]*Node, n)
	for i := range children {
		children[i] = b.leaf(uint(i), fmt.Sprintf("%s%d.%s", block, i, leaf))
	}
	return b.group(bit, block+"_int_summary", children...)
}

// macs gives one summary group per 32 MACs starting at bit.
func (b *builder) macs(bit uint, n int) (groups []*Node) {
	for g := 0; g*LeafBits < n; g++ {
		var children []*Node
		for m := g * LeafBits; m < n && m < (g+1)*LeafBits; m++ {
			children = append(children, b.macLeaf(uint(m%LeafBits),
				fmt.Sprintf("mac%d.int_stat", m), m))
		}
		groups = append(groups, b.group(bit+uint(g),
			fmt.Sprintf("mac_int_summary%d", g), children...))
	}
	return
}

// flat groups leaves sharing one parent bit.
func flat(bit uint, name string, children ...*Node) *Node {
	return &Node{
		Name:     name,
		Bit:      bit,
		Children: children,
	}
}

// shadow gives slot i its status and mask registers.
type shadow struct {
	status, mask reg.Addr
}

func (s shadow) slot(i uint, bus Bus, pipe int, children ...*Node) *Slot {
	return &Slot{
		Index:    i,
		Bus:      bus,
		Pipe:     pipe,
		Status:   s.status + reg.Addr(4*i),
		Mask:     s.mask + reg.Addr(4*i),
		Children: children,
	}
}

var trees = map[chip.Family]*Tree{}

func register(t *Tree) { trees[t.Family] = t.finish() }

// TreeOf returns the interrupt tree of a family.
func TreeOf(f chip.Family) (*Tree, error) {
	if t, ok := trees[f]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%s: %w", f, chip.ErrFamily)
}
