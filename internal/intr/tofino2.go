// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package intr

import (
	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/reg"
)

func init() { register(tofino2()) }

const tofino2Inject = 0x7fffffff

func tofino2() *Tree {
	sh := shadow{status: 0x00100080, mask: 0x001000c0}
	t := &Tree{
		Family:       chip.Tofino2,
		GlobalStatus: 0x00100000,
		Inject:       tofino2Inject,
	}
	t.Slots[0] = sh.slot(0, Host, -1, tofino2Host()...)
	t.Slots[1] = sh.slot(1, Tbus, -1, tofino2Tbus()...)
	t.Slots[2] = sh.slot(2, Cbus, -1, tofino2Cbus()...)
	for p := 0; p < 4; p++ {
		i := uint(4 + p)
		t.Slots[i] = sh.slot(i, Pbus, p, tofino2Pbus(0x02000000, p)...)
	}
	t.Slots[8] = sh.slot(8, Mbus, -1, tofino2Mbus(0x00180000, 33)...)
	return t
}

func tofino2Host() []*Node {
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
	}
}

func tofino2Tbus() []*Node {
	b := newBuilder(0x00150000, Tbus, -1)
	return []*Node{
		b.leaf(0, "tbc_int_stat"),
		b.leaf(1, "tbus_int_stat0"),
		b.leaf(2, "tbus_int_stat1"),
		b.leaf(3, "tbus_int_stat2"),
		b.leaf(4, "tbus_int_stat3"),
	}
}

func tofino2Cbus() []*Node {
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
		b.leaf(11, "lfltr_int_stat"),
		b.leaf(12, "mirr_int_stat"),
	}
}

func tofino2Pbus(base reg.Addr, pipe int) []*Node {
	b := newBuilder(base+reg.Addr(pipe)*0x00200000, Pbus, pipe)
	return []*Node{
		b.leafMask(0, "pbc_int_stat", pbcInjectMask),
		b.instances(1, "ipb", 9, "prsr_int_stat", "chnl_int_stat"),
		b.instances(2, "epb", 9, "prsr_int_stat", "chnl_int_stat"),
		b.instances(3, "egr", 4, "ebuf_int_stat", "epb_int_stat"),
		b.numbered(4, "mau", 20, "int_stat"),
		flat(5, "dprsr",
			b.leaf(0, "dprsr_ic_int_stat"),
			b.leaf(0, "dprsr_hi_int_stat"),
			b.leaf(0, "dprsr_ho_int_stat"),
		),
		b.leaf(6, "pmarb_int_stat"),
		b.leaf(7, "pgr_int_stat"),
		b.leaf(8, "mirr_pipe_int_stat"),
	}
}

func tofino2Mbus(base reg.Addr, nmacs int) []*Node {
	b := newBuilder(base, Mbus, -1)
	nodes := []*Node{
		b.leafMask(0, "mbc_int_stat", mbcInjectMask),
		b.leaf(1, "eth_gpio_int_stat"),
	}
	return append(nodes, b.macs(2, nmacs)...)
}
