// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dr

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/reg"
)

func TestDistanceExamples(t *testing.T) {
	for _, x := range []struct {
		head, tail Pointer
		depth      uint32
		want       uint32
	}{
		{Pointer{false, 4}, Pointer{false, 10}, 16, 6},
		{Pointer{false, 14}, Pointer{true, 2}, 16, 4},
		{Pointer{true, 14}, Pointer{false, 2}, 16, 4},
		{Pointer{false, 3}, Pointer{false, 3}, 16, 0},
		{Pointer{false, 3}, Pointer{true, 3}, 16, 16},
		{Pointer{false, 0}, Pointer{false, 0}, 0, 0},
	} {
		assert.Equal(t, x.want, Distance(x.head, x.tail, x.depth),
			"head %s tail %s depth %d", x.head, x.tail, x.depth)
	}
}

// Every reachable head/tail pair is in [0, depth] and matches the number of
// advances between them.
func TestDistanceGrid(t *testing.T) {
	for _, depth := range []uint32{1, 2, 3, 16, 17, 64} {
		for start := uint32(0); start < 2*depth; start++ {
			head := Advance(Pointer{}, start, depth)
			for n := uint32(0); n <= depth; n++ {
				tail := Advance(head, n, depth)
				got := Distance(head, tail, depth)
				require.Equal(t, n, got, "depth %d head %s tail %s",
					depth, head, tail)
			}
		}
	}
	// Garbage pointers still clamp.
	for _, x := range []struct{ head, tail Pointer }{
		{Pointer{false, 10}, Pointer{false, 4}},
		{Pointer{false, 2}, Pointer{true, 30}},
	} {
		d := Distance(x.head, x.tail, 16)
		assert.True(t, d <= 16, "%d", d)
	}
}

func TestPointerEncoding(t *testing.T) {
	p := Pointer{Wrap: true, Index: 0x1234}
	assert.Equal(t, uint32(PtrWrap|0x1234), p.Encode())
	assert.Equal(t, p, Decode(p.Encode()))
	assert.Equal(t, Pointer{false, 5}, Decode(5))
	assert.Equal(t, "1:4660", p.String())
	assert.Equal(t, Pointer{true, 1}, Advance(Pointer{false, 15}, 2, 16))
	assert.Equal(t, Pointer{false, 15}, Advance(Pointer{false, 15}, 32, 16))
}

func TestParseId(t *testing.T) {
	id, err := ParseId("RX_PKT_3")
	require.NoError(t, err)
	assert.Equal(t, RxPkt3, id)
	id, err = ParseId("0")
	require.NoError(t, err)
	assert.Equal(t, FmPkt0, id)
	_, err = ParseId("rx_pkt_9")
	assert.True(t, errors.Is(err, ErrInvalidRing))
	_, err = ParseId("200")
	assert.True(t, errors.Is(err, ErrInvalidRing))
	for i := Id(0); i < NId; i++ {
		assert.NotEmpty(t, i.String())
	}
}

func TestKinds(t *testing.T) {
	assert.Equal(t, FreeMem, FmDiag.Kind())
	assert.Equal(t, Tx, TxPkt0.Kind())
	assert.Equal(t, Completion, CmpTxPkt3.Kind())
	assert.Equal(t, Rx, RxLrn.Kind())
	assert.True(t, TxPkt2.LockRequired())
	assert.False(t, RxPkt2.LockRequired())
	assert.False(t, TxQueReadBlock1.ValidFor(chip.Tofino))
	assert.True(t, TxQueReadBlock1.ValidFor(chip.Tofino3))
	assert.False(t, RxPkt0.ValidFor(chip.Unknown))
}

func newRing(t *testing.T, f chip.Family, subdev chip.Subdev, id Id, depth uint32) (*reg.Mem, *Table, *View) {
	m := reg.NewMem()
	require.NoError(t, Program(m, 1, subdev, f, id, 0x1_2000_0000, depth))
	tbl := NewTable(1, f)
	require.NoError(t, tbl.Discover(m))
	v, err := tbl.Lookup(subdev, id)
	require.NoError(t, err)
	return m, tbl, v
}

func TestDiscover(t *testing.T) {
	_, tbl, v := newRing(t, chip.Tofino3, 1, RxPkt1, 256)
	assert.EqualValues(t, 256, v.Depth)
	assert.EqualValues(t, 0x1_2000_0000, v.Base)
	assert.EqualValues(t, 2, v.WordsPerDesc)
	assert.False(t, v.LockRequired)

	_, err := tbl.Lookup(0, RxPkt1)
	assert.True(t, errors.Is(err, ErrNotConfigured))
	_, err = tbl.Lookup(2, RxPkt1)
	assert.True(t, errors.Is(err, ErrInvalidSubdev))
	_, err = tbl.Lookup(0, NId)
	assert.True(t, errors.Is(err, ErrInvalidRing))

	n := 0
	tbl.Foreach(1, func(*View) { n++ })
	assert.Equal(t, 1, n)
}

func TestUpdate(t *testing.T) {
	m, tbl, v := newRing(t, chip.Tofino, 0, TxPkt0, 16)

	head, tail := Pointer{false, 4}, Pointer{false, 10}
	m.Poke(1, 0, v.regs.head, head.Encode())
	m.Poke(1, 0, v.regs.tail, tail.Encode())
	require.NoError(t, v.Update(m))
	assert.EqualValues(t, 6, v.Occupancy)
	assert.EqualValues(t, 6, v.Used())
	assert.EqualValues(t, 10, v.Free())
	assert.EqualValues(t, 4, v.NDescs)
	assert.EqualValues(t, 4*16, v.NBytes)
	assert.EqualValues(t, 10, v.LastPtr)

	head, tail = Pointer{false, 14}, Pointer{true, 2}
	m.Poke(1, 0, v.regs.head, head.Encode())
	m.Poke(1, 0, v.regs.tail, tail.Encode())
	require.NoError(t, tbl.UpdateAll(m))
	assert.EqualValues(t, 4, v.Occupancy)
	assert.EqualValues(t, 14, v.NDescs)
	assert.EqualValues(t, 18, v.LastPtr)

	// Nothing moved, nothing counted.
	require.NoError(t, v.Update(m))
	assert.EqualValues(t, 14, v.NDescs)
	assert.EqualValues(t, 18, v.LastPtr)
}

func TestUpdateUnconfigured(t *testing.T) {
	r := reg.NewRecorder(reg.NewMem())
	tbl := NewTable(0, chip.Tofino2)
	v := &tbl.views[0][RxPkt0]
	require.NoError(t, v.Update(r))
	require.NoError(t, tbl.UpdateAll(r))
	assert.Empty(t, r.Ops())
	assert.Zero(t, v.NDescs)
}

func TestPushPull(t *testing.T) {
	m, tbl, tx := newRing(t, chip.Tofino2, 0, TxPkt1, 8)
	_, tail, err := Push(m, tx, 5)
	require.NoError(t, err)
	assert.Equal(t, Pointer{false, 5}, tail)
	_, _, err = Push(m, tx, 4)
	assert.True(t, errors.Is(err, ErrRingFull))
	_, tail, err = Push(m, tx, 3)
	require.NoError(t, err)
	assert.Equal(t, Pointer{true, 0}, tail)
	require.NoError(t, tx.Update(m))
	assert.EqualValues(t, 8, tx.Occupancy)

	_, _, err = Pull(m, tx, 1)
	assert.Error(t, err)

	require.NoError(t, Program(m, 1, 0, chip.Tofino2, CmpTxPkt1, 0x4000, 8))
	require.NoError(t, tbl.Discover(m))
	cmp, err := tbl.Lookup(0, CmpTxPkt1)
	require.NoError(t, err)
	m.Poke(1, 0, cmp.regs.tail, Pointer{false, 3}.Encode())
	head, _, err := Pull(m, cmp, 2)
	require.NoError(t, err)
	assert.Equal(t, Pointer{false, 2}, head)
	_, _, err = Pull(m, cmp, 2)
	assert.True(t, errors.Is(err, ErrRingEmpty))
	_, _, err = Push(m, cmp, 1)
	assert.Error(t, err)
}

func TestWriteStatus(t *testing.T) {
	_, tbl, _ := newRing(t, chip.Tofino, 0, FmLrn, 32)
	var b strings.Builder
	tbl.WriteStatus(&b, 0)
	s := b.String()
	assert.Equal(t, 1, strings.Count(s, "\n"))
	assert.Contains(t, s, "depth     32")
	assert.Contains(t, s, "lock false")
	assert.True(t, strings.HasSuffix(s, " fm_lrn\n"), s)
	assert.True(t, strings.HasPrefix(s, "1.0 head 0:0"), s)
}
