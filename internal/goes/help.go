// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"fmt"
	"strings"

	"github.com/platinasystems/tofino/internal/lang"
)

// textCmd is one of the builtin commands that print another command's text.
type textCmd struct {
	name    string
	usage   string
	apropos string
	text    func(g *Goes) string
	byName  ByName
}

func builtins() []interface{} {
	return []interface{}{
		&textCmd{
			name:    "help",
			usage:   "help [COMMAND]",
			apropos: "print command guidance",
			text: func(g *Goes) string {
				if man := g.Man.String(); len(man) > 0 {
					return "usage:\t" + g.Usage + "\n" +
						strings.TrimSpace(man)
				}
				return "usage:\t" + g.Usage
			},
		},
		&textCmd{
			name:    "apropos",
			usage:   "apropos [COMMAND]...",
			apropos: "print a short command description",
			text:    func(g *Goes) string { return g.Apropos.String() },
		},
		&textCmd{
			name:    "man",
			usage:   "man COMMAND...",
			apropos: "print a command's manual",
			text:    func(g *Goes) string { return g.Man.String() },
		},
		&textCmd{
			name:    "usage",
			usage:   "usage COMMAND...",
			apropos: "print a command's synopsis",
			text:    func(g *Goes) string { return "usage:\t" + g.Usage },
		},
	}
}

func (c *textCmd) String() string       { return c.name }
func (c *textCmd) Usage() string        { return c.usage }
func (c *textCmd) ByName(byName ByName) { c.byName = byName }
func (c *textCmd) Kind() Kind           { return DontFork }

func (c *textCmd) Apropos() lang.Alt {
	return lang.Alt{lang.EnUS: c.apropos}
}

// Main without arguments lists the apropos of every visible command.
func (c *textCmd) Main(args ...string) error {
	if len(args) == 0 {
		if c.name == "man" || c.name == "usage" {
			return fmt.Errorf("COMMAND: missing")
		}
		for _, k := range c.byName.Names("") {
			format := "%-15s %s\n"
			if len(k) >= 16 {
				format = "%s\n\t\t%s\n"
			}
			fmt.Fprintf(Stdout, format, k, c.byName[k].Apropos)
		}
		return nil
	}
	for _, name := range args {
		g := c.byName[name]
		if g == nil {
			return fmt.Errorf("%s: not found", name)
		}
		fmt.Fprintln(Stdout, strings.TrimSpace(c.text(g)))
	}
	return nil
}
