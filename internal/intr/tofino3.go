// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package intr

import "github.com/platinasystems/tofino/internal/chip"

func init() { register(tofino3()) }

// Each Tofino3 die has the same tree; per die state lives in the
// Dispatcher.
func tofino3() *Tree {
	sh := shadow{status: 0x00100080, mask: 0x001000c0}
	t := &Tree{
		Family:       chip.Tofino3,
		GlobalStatus: 0x00100000,
		Inject:       tofino2Inject,
	}
	t.Slots[0] = sh.slot(0, Host, -1, tofino3Host()...)
	t.Slots[1] = sh.slot(1, Tbus, -1, tofino2Tbus()...)
	t.Slots[2] = sh.slot(2, Cbus, -1, tofino3Cbus()...)
	for p := 0; p < 4; p++ {
		i := uint(4 + p)
		t.Slots[i] = sh.slot(i, Pbus, p, tofino2Pbus(0x04000000, p)...)
	}
	t.Slots[8] = sh.slot(8, Mbus, -1, tofino2Mbus(0x00180000, 33)...)
	return t
}

func tofino3Host() []*Node {
	b := newBuilder(0x00140000, Host, -1)
	return []*Node{
		b.leaf(0, "pcie_bus_int_stat"),
		b.leaf(1, "misc_int_stat"),
		flat(2, "pcie_regs",
			b.leaf(0, "pcie_regs_dma_glb_int_stat"),
			b.leaf(0, "pcie_regs_msix_int_stat"),
			b.leaf(0, "pcie_regs_ram_int_stat"),
		),
		b.leaf(3, "i2c_int_stat"),
		b.leaf(4, "gpio_int_stat"),
		b.leaf(5, "die_to_die_int_stat"),
	}
}

func tofino3Cbus() []*Node {
	b := newBuilder(0x00160000, Cbus, -1)
	return []*Node{
		b.leafMask(0, "cbc_int_stat", cbcInjectMask),
		b.numbered(1, "tm_wac", 4, "int_stat"),
		b.leaf(2, "tm_caa_int_stat"),
		b.numbered(3, "tm_qac", 4, "int_stat"),
		b.numbered(4, "tm_sch", 2, "int_stat"),
		b.numbered(5, "tm_clc", 4, "int_stat"),
		b.numbered(6, "tm_pex", 4, "int_stat"),
		b.leaf(7, "tm_qlc_int_stat"),
		b.numbered(8, "tm_prc", 4, "int_stat"),
		b.numbered(9, "tm_pre", 4, "int_stat"),
		b.leaf(10, "tm_psc_int_stat"),
		b.leaf(11, "tm_pex_d2d_int_stat"),
		b.leaf(12, "lfltr_int_stat"),
		b.leaf(13, "mirr_int_stat"),
	}
}
