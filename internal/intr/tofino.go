// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package intr

import (
	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/reg"
)

func init() { register(tofino()) }

// Tofino shadow slot assignment.
const (
	tofinoSlotHost  = 0
	tofinoSlotTbus  = 1
	tofinoSlotCbus  = 2
	tofinoSlotPbus0 = 3 // pipes 0-3 in slots 3-6
	tofinoSlotMbus  = 7
)

func tofino() *Tree {
	sh := shadow{status: 0x000c0080, mask: 0x000c00c0}
	t := &Tree{
		Family:       chip.Tofino,
		GlobalStatus: 0x000c0000,
		Inject:       allOnes,
	}
	t.Slots[tofinoSlotHost] = sh.slot(tofinoSlotHost, Host, -1, tofinoHost()...)
	t.Slots[tofinoSlotTbus] = sh.slot(tofinoSlotTbus, Tbus, -1, tofinoTbus()...)
	t.Slots[tofinoSlotCbus] = sh.slot(tofinoSlotCbus, Cbus, -1, tofinoCbus()...)
	for p := 0; p < 4; p++ {
		i := uint(tofinoSlotPbus0 + p)
		t.Slots[i] = sh.slot(i, Pbus, p, tofinoPbus(p)...)
	}
	t.Slots[tofinoSlotMbus] = sh.slot(tofinoSlotMbus, Mbus, -1, tofinoMbus()...)
	return t
}

func tofinoHost() []*Node {
	b := newBuilder(0x00040000, Host, -1)
	return []*Node{
		b.leaf(0, "pcie_bus_int_stat"),
		b.leaf(1, "misc_regs_int_stat"),
		flat(2, "pcie_regs",
			b.leaf(0, "pcie_regs_dma_glb_int_stat"),
			b.leaf(0, "pcie_regs_msix_int_stat"),
		),
		b.leaf(3, "i2c_int_stat"),
	}
}

// tbus_int_stat0 reports free memory and tx ring events, stat1 completion
// and stat2 rx. Tofino has no tbus error leaf.
func tofinoTbus() []*Node {
	b := newBuilder(0x00050000, Tbus, -1)
	return []*Node{
		b.leaf(0, "tbc_int_stat"),
		b.leaf(1, "tbus_int_stat0"),
		b.leaf(2, "tbus_int_stat1"),
		b.leaf(3, "tbus_int_stat2"),
	}
}

func tofinoCbus() []*Node {
	b := newBuilder(0x00060000, Cbus, -1)
	return []*Node{
		b.leafMask(0, "cbc_int_stat", cbcInjectMask),
		b.leaf(1, "tm_wac_int_stat"),
		b.leaf(2, "tm_caa_int_stat"),
		b.leaf(3, "tm_qac_int_stat"),
		flat(4, "tm_sch",
			b.leaf(0, "tm_sch0_int_stat"),
			b.leaf(0, "tm_sch1_int_stat"),
		),
		b.leaf(5, "tm_clc_int_stat"),
		b.leaf(6, "tm_pex_int_stat"),
		b.leaf(7, "tm_qlc_int_stat"),
		b.leaf(8, "tm_prc_int_stat"),
		b.leaf(9, "tm_pre_int_stat"),
		b.leaf(10, "lfltr_int_stat"),
		b.leaf(11, "mirr_int_stat"),
	}
}

func tofinoPbus(pipe int) []*Node {
	b := newBuilder(0x01000000+reg.Addr(pipe)*0x00100000, Pbus, pipe)
	return []*Node{
		b.leafMask(0, "pbc_int_stat", pbcInjectMask),
		b.instances(1, "ibp", 18, "prsr_int_stat", "chnl_int_stat"),
		b.instances(2, "ebp", 18, "prsr_int_stat", "chnl_int_stat"),
		b.instances(3, "egr", 4, "ebuf_int_stat", "epb_int_stat"),
		b.numbered(4, "mau", 12, "int_stat"),
		flat(5, "dprsr",
			b.leaf(0, "dprsr_inp_int_stat"),
			b.leaf(0, "dprsr_out_int_stat"),
		),
		b.leaf(6, "pmarb_int_stat"),
		b.leaf(7, "pgr_int_stat"),
	}
}

func tofinoMbus() []*Node {
	b := newBuilder(0x00070000, Mbus, -1)
	nodes := []*Node{
		b.leafMask(0, "mbc_int_stat", mbcInjectMask),
	}
	return append(nodes, b.macs(1, 65)...)
}
