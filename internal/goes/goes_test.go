// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinasystems/tofino/internal/lang"
)

type echo struct{ got []string }

func (*echo) String() string { return "echo" }
func (*echo) Usage() string  { return "echo [STRING]..." }

func (*echo) Apropos() lang.Alt {
	return lang.Alt{lang.EnUS: "print arguments"}
}

func (*echo) Man() lang.Alt {
	return lang.Alt{lang.EnUS: `
DESCRIPTION
	Record arguments.`}
}

func (c *echo) Main(args ...string) error {
	c.got = args
	if len(args) > 0 && args[0] == "fail" {
		return errors.New("failed")
	}
	return nil
}

type hidden struct{}

func (hidden) String() string       { return "hidden" }
func (hidden) Kind() Kind           { return Hidden }
func (hidden) Main(...string) error { return nil }

func run(t *testing.T, byName ByName, args ...string) (string, error) {
	buf := new(strings.Builder)
	saved := Stdout
	Stdout = buf
	defer func() { Stdout = saved }()
	err := byName.Main(args...)
	return buf.String(), err
}

func TestRun(t *testing.T) {
	e := new(echo)
	byName := New(e, hidden{})

	_, err := run(t, byName, "tofino-lld", "echo", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, e.got)

	_, err = run(t, byName, "echo", "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, e.got)

	_, err = run(t, byName, "echo", "fail")
	assert.EqualError(t, err, "echo: failed")

	_, err = run(t, byName, "tofino-lld", "bogus")
	assert.EqualError(t, err, "bogus: command not found")
}

func TestHelp(t *testing.T) {
	byName := New(new(echo), hidden{})
	assert.Equal(t, []string{"apropos", "echo", "help", "man", "usage"},
		byName.Names(""))

	out, err := run(t, byName, "tofino-lld")
	require.NoError(t, err)
	assert.Contains(t, out, "echo            print arguments\n")
	assert.NotContains(t, out, "hidden")

	out, err = run(t, byName, "echo", "-h")
	require.NoError(t, err)
	assert.Equal(t, "usage:\techo [STRING]...\nDESCRIPTION\n\tRecord arguments.\n", out)

	out, err = run(t, byName, "echo", "--usage")
	require.NoError(t, err)
	assert.Equal(t, "usage:\techo [STRING]...\n", out)

	out, err = run(t, byName, "echo", "-apropos")
	require.NoError(t, err)
	assert.Equal(t, "print arguments\n", out)

	out, err = run(t, byName, "man", "echo")
	require.NoError(t, err)
	assert.Equal(t, "DESCRIPTION\n\tRecord arguments.\n", out)

	_, err = run(t, byName, "man")
	assert.Error(t, err)
	_, err = run(t, byName, "usage", "bogus")
	assert.Error(t, err)
}

func TestPlot(t *testing.T) {
	byName := New(new(echo))
	assert.Panics(t, func() { byName.Plot(new(echo)) })
	assert.Panics(t, func() { byName.Plot(struct{}{}) })
	assert.True(t, byName["help"].Kind.IsDontFork())
	assert.True(t, Kind(Daemon).IsDaemon())
	assert.False(t, Kind(Daemon).IsInteractive())
	assert.Equal(t, "daemon", Daemon.String())
}

func TestProgBase(t *testing.T) {
	name := ProgBase()
	assert.NotEmpty(t, name)
	assert.NotContains(t, name, "/")
}
