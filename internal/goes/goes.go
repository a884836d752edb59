// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package goes is the multicall command framework of tofino-lld: each
// command is a type with String, Usage, Apropos, Man and Main methods that
// is plotted on a ByName map and run by name.
package goes

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"

	"github.com/platinasystems/tofino/internal/lang"
)

const (
	DontFork Kind = 1 << iota
	Daemon
	Hidden
)

var (
	Exit = os.Exit

	// Stdout is where the builtin help commands write.
	Stdout io.Writer = os.Stdout
)

type ByName map[string]*Goes

type Goes struct {
	Name    string
	ByName  func(ByName)
	Close   func() error
	Main    func(...string) error
	Kind    Kind
	Usage   string
	Apropos lang.Alt
	Man     lang.Alt
}

type Kind uint16

type aproposer interface {
	Apropos() lang.Alt
}

type byNamer interface {
	ByName(ByName)
}

type kinder interface {
	Kind() Kind
}

type mainer interface {
	Main(...string) error
}

type manner interface {
	Man() lang.Alt
}

type usager interface {
	Usage() string
}

// New returns a map of the given commands and the builtin "apropos",
// "help", "man" and "usage".
func New(cmds ...interface{}) ByName {
	byName := make(ByName)
	byName.Plot(builtins()...)
	byName.Plot(cmds...)
	return byName
}

// Names are the sorted, visible command names with the given prefix.
func (byName ByName) Names(prefix string) (ss []string) {
	for k, g := range byName {
		if strings.HasPrefix(k, prefix) && !g.Kind.IsHidden() {
			ss = append(ss, k)
		}
	}
	sort.Strings(ss)
	return
}

// Main runs the args[0] command, or os.Args if there are no args. A leading
// program name that isn't a command, like the multicall binary name, is
// skipped; with no command left this runs "help".
//
// If the args have "-h", "-help", or "--help", this runs
// ByName["help"].Main(name). Similarly for "-apropos", "-man" and "-usage".
//
// Daemon errors are logged rather than returned.
func (byName ByName) Main(args ...string) error {
	if len(args) == 0 {
		args = os.Args
	}
	if len(args) > 0 {
		if _, found := byName[args[0]]; !found {
			args = args[1:]
		}
	}
	if len(args) == 0 {
		args = []string{"help"}
	}
	name := args[0]
	args = args[1:]
	flag, args := flags.New(args,
		[]string{"-h", "-help", "--help"},
		[]string{"-apropos", "--apropos"},
		[]string{"-man", "--man"},
		[]string{"-usage", "--usage"})
	switch {
	case flag.ByName["-h"]:
		args, name = []string{name}, "help"
	case flag.ByName["-apropos"]:
		args, name = []string{name}, "apropos"
	case flag.ByName["-man"]:
		args, name = []string{name}, "man"
	case flag.ByName["-usage"]:
		args, name = []string{name}, "usage"
	}
	g := byName[name]
	if g == nil {
		return fmt.Errorf("%s: command not found", name)
	}
	if !g.Kind.IsDaemon() {
		if err := g.Main(args...); err != nil && err != io.EOF {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM)
	defer signal.Stop(sig)
	go g.wait(sig)
	err := g.Main(args...)
	if err != nil && err != io.EOF {
		log.Print("daemon", "err", name, ": ", err)
	}
	return nil
}

// Plot commands on map.
func (byName ByName) Plot(cmds ...interface{}) {
	for _, v := range cmds {
		g, ok := v.(*Goes)
		if ok {
			byName[g.Name] = g
			if g.ByName != nil {
				g.ByName(byName)
			}
			continue
		}
		g = new(Goes)
		if method, found := v.(fmt.Stringer); found {
			g.Name = method.String()
		} else {
			panic(fmt.Errorf("%T: doesn't have String method", v))
		}
		if _, found := byName[g.Name]; found {
			panic(fmt.Errorf("%s: duplicate", g.Name))
		}
		if method, found := v.(mainer); found {
			g.Main = method.Main
		} else {
			panic(fmt.Errorf("%s: doesn't have Main method",
				g.Name))
		}
		if method, found := v.(byNamer); found {
			method.ByName(byName)
		}
		if method, found := v.(io.Closer); found {
			g.Close = method.Close
		}
		if method, found := v.(kinder); found {
			g.Kind = method.Kind()
		}
		if method, found := v.(usager); found {
			g.Usage = method.Usage()
		}
		if method, found := v.(aproposer); found {
			g.Apropos = method.Apropos()
		}
		if method, found := v.(manner); found {
			g.Man = method.Man()
		}
		byName[g.Name] = g
	}
}

func (g *Goes) wait(ch chan os.Signal) {
	if _, ok := <-ch; !ok {
		return
	}
	if g.Close != nil {
		if err := g.Close(); err != nil {
			log.Print("daemon", "err", g.Name, ": ", err)
		}
	}
	Exit(0)
}

func (k Kind) IsDontFork() bool    { return (k & DontFork) == DontFork }
func (k Kind) IsDaemon() bool      { return (k & Daemon) == Daemon }
func (k Kind) IsHidden() bool      { return (k & Hidden) == Hidden }
func (k Kind) IsInteractive() bool { return (k & (Daemon | Hidden)) == 0 }

func (k Kind) String() string {
	s := "unknown"
	switch k {
	case DontFork:
		s = "don't fork"
	case Daemon:
		s = "daemon"
	case Hidden:
		s = "hidden"
	}
	return s
}
