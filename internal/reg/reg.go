// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package reg is the 32 bit register transport between the driver and the
// hardware or chip model. Everything above it (ring views, interrupt tables)
// is expressed as reads and writes of (device, subdevice, address).
package reg

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/platinasystems/tofino/internal/chip"
)

// Addr is a byte address in the device register space.
type Addr uint32

func (a Addr) String() string { return fmt.Sprintf("0x%08x", uint32(a)) }

// Transport reads and writes device registers. Implementations for PCIe
// BAR access or the chip model live outside this module; Mem stands in for
// both in the daemon's sim mode and in tests.
type Transport interface {
	Read(dev chip.Dev, subdev chip.Subdev, a Addr) (uint32, error)
	Write(dev chip.Dev, subdev chip.Subdev, a Addr, v uint32) error
}

var ErrNoDevice = errors.New("no such device")

type key struct {
	dev    chip.Dev
	subdev chip.Subdev
	a      Addr
}

// Mem is a sparse register file; unwritten registers read as zero.
// OnWrite, when set, sees every write after it is stored.
type Mem struct {
	mu      sync.Mutex
	regs    map[key]uint32
	OnWrite func(dev chip.Dev, subdev chip.Subdev, a Addr, v uint32)
}

func NewMem() *Mem { return &Mem{regs: make(map[key]uint32)} }

func (m *Mem) Read(dev chip.Dev, subdev chip.Subdev, a Addr) (uint32, error) {
	if !dev.Valid() {
		return 0, fmt.Errorf("%s: %w", dev, ErrNoDevice)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[key{dev, subdev, a}], nil
}

func (m *Mem) Write(dev chip.Dev, subdev chip.Subdev, a Addr, v uint32) error {
	if !dev.Valid() {
		return fmt.Errorf("%s: %w", dev, ErrNoDevice)
	}
	m.mu.Lock()
	if m.regs == nil {
		m.regs = make(map[key]uint32)
	}
	m.regs[key{dev, subdev, a}] = v
	f := m.OnWrite
	m.mu.Unlock()
	if f != nil {
		f(dev, subdev, a, v)
	}
	return nil
}

// Poke sets a register without invoking OnWrite; it models the hardware
// side changing state.
func (m *Mem) Poke(dev chip.Dev, subdev chip.Subdev, a Addr, v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.regs == nil {
		m.regs = make(map[key]uint32)
	}
	m.regs[key{dev, subdev, a}] = v
}

func (m *Mem) Peek(dev chip.Dev, subdev chip.Subdev, a Addr) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[key{dev, subdev, a}]
}

// Addrs lists the non-zero registers of a device in address order.
func (m *Mem) Addrs(dev chip.Dev, subdev chip.Subdev) (as []Addr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.regs {
		if k.dev == dev && k.subdev == subdev && v != 0 {
			as = append(as, k.a)
		}
	}
	sort.Slice(as, func(i, j int) bool { return as[i] < as[j] })
	return
}
