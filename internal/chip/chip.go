// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package chip identifies Tofino devices, their generation and the pipes and
// MACs a given SKU leaves enabled.
package chip

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/platinasystems/tofino/internal/bits"
)

const (
	MaxDevs    = 8
	MaxSubdevs = 2
)

// Dev is the device id assigned by the driver at attach time.
type Dev uint8

// Subdev is the die index within a (multi-die) device.
type Subdev uint8

func (d Dev) String() string    { return fmt.Sprintf("dev%d", uint8(d)) }
func (s Subdev) String() string { return fmt.Sprintf("subdev%d", uint8(s)) }

func (d Dev) Valid() bool { return d < MaxDevs }

var ErrRange = errors.New("out of range")

// ParseDev accepts "N" or "devN".
func ParseDev(s string) (Dev, error) {
	u, err := strconv.ParseUint(strings.TrimPrefix(s, "dev"), 0, 8)
	if err != nil {
		return 0, err
	}
	if u >= MaxDevs {
		return 0, fmt.Errorf("dev %d: %w", u, ErrRange)
	}
	return Dev(u), nil
}

// ParseSubdev accepts "N" or "subdevN".
func ParseSubdev(s string) (Subdev, error) {
	u, err := strconv.ParseUint(strings.TrimPrefix(s, "subdev"), 0, 8)
	if err != nil {
		return 0, err
	}
	if u >= MaxSubdevs {
		return 0, fmt.Errorf("subdev %d: %w", u, ErrRange)
	}
	return Subdev(u), nil
}

type Family uint8

const (
	Unknown Family = iota
	Tofino
	Tofino2
	Tofino3
	nFamily
)

var familyNames = [...]string{
	Unknown: "unknown",
	Tofino:  "tofino",
	Tofino2: "tofino2",
	Tofino3: "tofino3",
}

func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return fmt.Sprintf("family%d", uint8(f))
}

var ErrFamily = errors.New("unknown chip family")

func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tofino", "tofino1", "tf1", "tof":
		return Tofino, nil
	case "tofino2", "tf2", "tof2":
		return Tofino2, nil
	case "tofino3", "tf3", "tof3":
		return Tofino3, nil
	}
	return Unknown, fmt.Errorf("%q: %w", s, ErrFamily)
}

// Per-generation geometry.
type geometry struct {
	subdevs uint
	pipes   uint // per subdev
	macs    uint // per subdev
}

var geometries = [...]geometry{
	Tofino:  {subdevs: 1, pipes: 4, macs: 65},
	Tofino2: {subdevs: 1, pipes: 4, macs: 33},
	Tofino3: {subdevs: 2, pipes: 4, macs: 33},
}

func (f Family) Valid() bool { return f > Unknown && f < nFamily }

func (f Family) Subdevs() uint {
	if !f.Valid() {
		return 0
	}
	return geometries[f].subdevs
}

func (f Family) Pipes() uint {
	if !f.Valid() {
		return 0
	}
	return geometries[f].pipes
}

func (f Family) Macs() uint {
	if !f.Valid() {
		return 0
	}
	return geometries[f].macs
}

// Sku describes what the efuses leave enabled. Pipes and MACs are logical
// indices within one subdevice.
type Sku struct {
	Family Family
	Pipes  bits.Bitmap
	Macs   bits.Bitmap
}

// FullSku has every pipe and MAC of the family enabled.
func FullSku(f Family) Sku {
	s := Sku{Family: f}
	for p := uint(0); p < f.Pipes(); p++ {
		s.Pipes = s.Pipes.Set(p)
	}
	for m := uint(0); m < f.Macs(); m++ {
		s.Macs = s.Macs.Set(m)
	}
	return s
}

// PipeActive is false for fused off pipes; a negative pipe is not pipe
// specific and always active.
func (s *Sku) PipeActive(pipe int) bool {
	if pipe < 0 {
		return true
	}
	return uint(pipe) < s.Family.Pipes() && s.Pipes.Test(uint(pipe))
}

func (s *Sku) MacActive(mac int) bool {
	if mac < 0 {
		return true
	}
	return uint(mac) < s.Family.Macs() && s.Macs.Test(uint(mac))
}

func (s *Sku) String() string {
	return fmt.Sprintf("%s pipes %s macs %s", s.Family, s.Pipes, s.Macs)
}

// ParseList parses index lists like "0-3,6,8-9".
func ParseList(s string, max uint) (b bits.Bitmap, err error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return
	}
	for _, field := range strings.Split(s, ",") {
		lo, hi := field, field
		if i := strings.IndexByte(field, '-'); i >= 0 {
			lo, hi = field[:i], field[i+1:]
		}
		l, err := strconv.ParseUint(strings.TrimSpace(lo), 0, 16)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		h, err := strconv.ParseUint(strings.TrimSpace(hi), 0, 16)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		if h < l || uint(h) >= max {
			return nil, fmt.Errorf("%s: out of range [0, %d)", field, max)
		}
		for i := uint(l); i <= uint(h); i++ {
			b = b.Set(i)
		}
	}
	return
}
