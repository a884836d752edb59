// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinasystems/tofino/internal/goes"
)

func TestCommands(t *testing.T) {
	g := Goes()
	for _, name := range []string{"lldd", "drstatus", "dmalog", "intr"} {
		require.Contains(t, g, name)
		assert.NotEmpty(t, g[name].Apropos.String(), name)
		assert.NotEmpty(t, g[name].Man.String(), name)
		assert.True(t, strings.HasPrefix(g[name].Usage, name), name)
	}
	assert.True(t, g["lldd"].Kind.IsDaemon())

	buf := new(strings.Builder)
	saved := goes.Stdout
	goes.Stdout = buf
	defer func() { goes.Stdout = saved }()
	require.NoError(t, g.Main("tofino-lld", "help"))
	assert.Contains(t, buf.String(), "drstatus")
}
