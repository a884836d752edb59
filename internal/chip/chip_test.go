// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package chip

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFamily(t *testing.T) {
	for s, want := range map[string]Family{
		"tofino":   Tofino,
		" TF2 ":    Tofino2,
		"tofino3":  Tofino3,
		"tofino1":  Tofino,
		"tof3":     Tofino3,
		"tofino32": Unknown,
	} {
		f, err := ParseFamily(s)
		assert.Equal(t, want, f, s)
		if want == Unknown {
			assert.True(t, errors.Is(err, ErrFamily))
		} else {
			assert.NoError(t, err)
		}
	}
	assert.Equal(t, "tofino2", Tofino2.String())
	assert.Equal(t, "family9", Family(9).String())
}

func TestGeometry(t *testing.T) {
	assert.EqualValues(t, 0, Unknown.Subdevs())
	assert.EqualValues(t, 1, Tofino.Subdevs())
	assert.EqualValues(t, 2, Tofino3.Subdevs())
	assert.EqualValues(t, 65, Tofino.Macs())
	assert.EqualValues(t, 4, Tofino2.Pipes())
}

func TestSku(t *testing.T) {
	s := FullSku(Tofino2)
	assert.EqualValues(t, 4, s.Pipes.Count())
	assert.EqualValues(t, 33, s.Macs.Count())
	assert.True(t, s.PipeActive(-1))
	assert.True(t, s.PipeActive(3))
	assert.False(t, s.PipeActive(4))

	s.Pipes = s.Pipes.Unset(2)
	assert.False(t, s.PipeActive(2))
	assert.True(t, s.MacActive(-1))
	assert.False(t, s.MacActive(33))
	assert.Equal(t, "tofino2 pipes 0-1,3 macs 0-32", s.String())
}

func TestParseList(t *testing.T) {
	b, err := ParseList("0-3, 6", 8)
	require.NoError(t, err)
	assert.Equal(t, "0-3,6", b.String())

	b, err = ParseList("", 8)
	require.NoError(t, err)
	assert.Zero(t, b.Count())

	_, err = ParseList("3-1", 8)
	assert.Error(t, err)
	_, err = ParseList("8", 8)
	assert.Error(t, err)
	_, err = ParseList("x", 8)
	assert.Error(t, err)
}

func TestParseDev(t *testing.T) {
	d, err := ParseDev("dev3")
	require.NoError(t, err)
	assert.Equal(t, Dev(3), d)
	d, err = ParseDev("7")
	require.NoError(t, err)
	assert.Equal(t, Dev(7), d)
	_, err = ParseDev("8")
	assert.True(t, errors.Is(err, ErrRange))
	_, err = ParseDev("devx")
	assert.Error(t, err)

	s, err := ParseSubdev("subdev1")
	require.NoError(t, err)
	assert.Equal(t, Subdev(1), s)
	_, err = ParseSubdev("2")
	assert.True(t, errors.Is(err, ErrRange))
}
