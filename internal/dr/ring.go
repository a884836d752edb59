// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package dr mirrors the hardware DMA descriptor rings: which rings exist,
// where their registers are, and how full each one is.
package dr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/platinasystems/tofino/internal/chip"
)

// Id names a hardware ring by purpose.
type Id uint8

const (
	FmPkt0 Id = iota
	FmPkt1
	FmPkt2
	FmPkt3
	FmPkt4
	FmPkt5
	FmPkt6
	FmPkt7
	FmLrn
	FmMacStat
	FmDiag

	TxPipeInstList0
	TxPipeInstList1
	TxPipeInstList2
	TxPipeInstList3
	TxPipeWriteBlock
	TxPipeReadBlock
	TxQueWriteList
	TxPkt0
	TxPkt1
	TxPkt2
	TxPkt3
	TxMacStat
	TxQueReadBlock0
	TxQueReadBlock1
	TxQueWriteList1

	CmpPipeInstList0
	CmpPipeInstList1
	CmpPipeInstList2
	CmpPipeInstList3
	CmpQueWriteList
	CmpPipeWriteBlk
	CmpPipeReadBlk
	CmpMacStat
	CmpTxPkt0
	CmpTxPkt1
	CmpTxPkt2
	CmpTxPkt3
	CmpQueReadBlock0
	CmpQueReadBlock1
	CmpQueWriteList1

	RxPkt0
	RxPkt1
	RxPkt2
	RxPkt3
	RxPkt4
	RxPkt5
	RxPkt6
	RxPkt7
	RxLrn
	RxDiag

	NId
)

var idNames = [...]string{
	FmPkt0:    "fm_pkt_0",
	FmPkt1:    "fm_pkt_1",
	FmPkt2:    "fm_pkt_2",
	FmPkt3:    "fm_pkt_3",
	FmPkt4:    "fm_pkt_4",
	FmPkt5:    "fm_pkt_5",
	FmPkt6:    "fm_pkt_6",
	FmPkt7:    "fm_pkt_7",
	FmLrn:     "fm_lrn",
	FmMacStat: "fm_mac_stat",
	FmDiag:    "fm_diag",

	TxPipeInstList0:  "tx_pipe_inst_list_0",
	TxPipeInstList1:  "tx_pipe_inst_list_1",
	TxPipeInstList2:  "tx_pipe_inst_list_2",
	TxPipeInstList3:  "tx_pipe_inst_list_3",
	TxPipeWriteBlock: "tx_pipe_write_block",
	TxPipeReadBlock:  "tx_pipe_read_block",
	TxQueWriteList:   "tx_que_write_list",
	TxPkt0:           "tx_pkt_0",
	TxPkt1:           "tx_pkt_1",
	TxPkt2:           "tx_pkt_2",
	TxPkt3:           "tx_pkt_3",
	TxMacStat:        "tx_mac_stat",
	TxQueReadBlock0:  "tx_que_read_block_0",
	TxQueReadBlock1:  "tx_que_read_block_1",
	TxQueWriteList1:  "tx_que_write_list_1",

	CmpPipeInstList0: "cmp_pipe_inst_list_0",
	CmpPipeInstList1: "cmp_pipe_inst_list_1",
	CmpPipeInstList2: "cmp_pipe_inst_list_2",
	CmpPipeInstList3: "cmp_pipe_inst_list_3",
	CmpQueWriteList:  "cmp_que_write_list",
	CmpPipeWriteBlk:  "cmp_pipe_write_blk",
	CmpPipeReadBlk:   "cmp_pipe_read_blk",
	CmpMacStat:       "cmp_mac_stat",
	CmpTxPkt0:        "cmp_tx_pkt_0",
	CmpTxPkt1:        "cmp_tx_pkt_1",
	CmpTxPkt2:        "cmp_tx_pkt_2",
	CmpTxPkt3:        "cmp_tx_pkt_3",
	CmpQueReadBlock0: "cmp_que_read_block_0",
	CmpQueReadBlock1: "cmp_que_read_block_1",
	CmpQueWriteList1: "cmp_que_write_list_1",

	RxPkt0: "rx_pkt_0",
	RxPkt1: "rx_pkt_1",
	RxPkt2: "rx_pkt_2",
	RxPkt3: "rx_pkt_3",
	RxPkt4: "rx_pkt_4",
	RxPkt5: "rx_pkt_5",
	RxPkt6: "rx_pkt_6",
	RxPkt7: "rx_pkt_7",
	RxLrn:  "rx_lrn",
	RxDiag: "rx_diag",
}

func (id Id) String() string {
	if id < NId {
		return idNames[id]
	}
	return fmt.Sprintf("dr%d", uint8(id))
}

func (id Id) Valid() bool { return id < NId }

var ErrInvalidRing = errors.New("invalid ring id")

// ParseId accepts a ring name or its decimal index.
func ParseId(s string) (Id, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range idNames {
		if name == s {
			return Id(i), nil
		}
	}
	if i, err := strconv.ParseUint(s, 10, 8); err == nil && i < uint64(NId) {
		return Id(i), nil
	}
	return NId, fmt.Errorf("%q: %w", s, ErrInvalidRing)
}

// Kind says who produces and who consumes descriptors on a ring.
type Kind uint8

const (
	// Software supplies free buffers, hardware consumes them.
	FreeMem Kind = iota
	// Software pushes work, hardware consumes it.
	Tx
	// Hardware reports completion of Tx work.
	Completion
	// Hardware delivers packets, learn and diag records.
	Rx
)

var kindNames = [...]string{
	FreeMem:    "fm",
	Tx:         "tx",
	Completion: "cmp",
	Rx:         "rx",
}

func (k Kind) String() string { return kindNames[k] }

func (id Id) Kind() Kind {
	switch {
	case id <= FmDiag:
		return FreeMem
	case id <= TxQueWriteList1:
		return Tx
	case id <= CmpQueWriteList1:
		return Completion
	}
	return Rx
}

// WordsPerDesc is the descriptor size in 64 bit words.
func (id Id) WordsPerDesc() uint32 {
	switch id.Kind() {
	case FreeMem, Completion:
		return 1
	}
	return 2
}

// LockRequired is true for rings that more than one thread may push to.
func (id Id) LockRequired() bool { return id.Kind() == Tx }

// SoftwareProduces is true when software owns the tail pointer.
func (id Id) SoftwareProduces() bool {
	k := id.Kind()
	return k == FreeMem || k == Tx
}

// ValidFor is false for rings the family does not implement; those are
// never touched.
func (id Id) ValidFor(f chip.Family) bool {
	if !f.Valid() || !id.Valid() {
		return false
	}
	switch id {
	case TxQueReadBlock0, TxQueReadBlock1, TxQueWriteList1,
		CmpQueReadBlock0, CmpQueReadBlock1, CmpQueWriteList1:
		return f >= chip.Tofino2
	}
	return true
}
