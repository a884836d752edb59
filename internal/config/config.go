// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package config loads the low level driver daemon configuration: which
// devices to manage, their SKU, the rings to bring up and where to export
// statistics.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"go.yaml.in/yaml/v3"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/dr"
)

const DefaultPath = "/etc/goes/tofino.yaml"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Devices []Device `yaml:"devices"`

	// Poll is the interrupt poll period.
	Poll time.Duration `yaml:"poll"`

	// Sim runs against an in memory register file instead of hardware.
	Sim bool `yaml:"sim"`

	Stats Stats `yaml:"stats"`
}

type Device struct {
	Id     uint8  `yaml:"id"`
	Family string `yaml:"family"`
	// Pipes and Macs are index lists like "0-3,6"; empty means all.
	Pipes string `yaml:"pipes"`
	Macs  string `yaml:"macs"`
	Rings []Ring `yaml:"rings"`
	// EnableInterrupts enables every accessible leaf at start.
	EnableInterrupts bool `yaml:"enable-interrupts"`
}

type Ring struct {
	Subdev uint8  `yaml:"subdev"`
	Ring   string `yaml:"ring"`
	Depth  uint32 `yaml:"depth"`
	Base   uint64 `yaml:"base"`
}

type Stats struct {
	Interval   time.Duration `yaml:"interval"`
	Redis      Redis         `yaml:"redis"`
	Prometheus Prometheus    `yaml:"prometheus"`
}

// Redis publishing is off unless Address is set.
type Redis struct {
	Address string `yaml:"address"`
	Hash    string `yaml:"hash"`
	Channel string `yaml:"channel"`
}

// Prometheus export is off unless Listen is set.
type Prometheus struct {
	Listen    string `yaml:"listen"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

var defaults = Config{
	Poll: 10 * time.Millisecond,
	Stats: Stats{
		Interval: 5 * time.Second,
		Redis: Redis{
			Hash:    "tofino",
			Channel: "tofino.stats",
		},
		Prometheus: Prometheus{
			Path:      "/metrics",
			Namespace: "tofino",
		},
	},
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML, rejecting unknown keys, then fills defaults and
// validates.
func Parse(b []byte) (*Config, error) {
	c := new(Config)
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return nil, err
	}
	if err := mergo.Merge(c, defaults); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Poll <= 0 {
		return fmt.Errorf("poll %s: %w", c.Poll, ErrInvalid)
	}
	seen := make(map[uint8]bool)
	for i := range c.Devices {
		d := &c.Devices[i]
		if seen[d.Id] {
			return fmt.Errorf("device %d: duplicate: %w", d.Id, ErrInvalid)
		}
		seen[d.Id] = true
		if err := d.validate(); err != nil {
			return fmt.Errorf("device %d: %w", d.Id, err)
		}
	}
	return nil
}

func (d *Device) validate() error {
	if !chip.Dev(d.Id).Valid() {
		return fmt.Errorf("id >= %d: %w", chip.MaxDevs, ErrInvalid)
	}
	f, err := chip.ParseFamily(d.Family)
	if err != nil {
		return err
	}
	if _, err = d.Sku(); err != nil {
		return err
	}
	type key struct {
		subdev uint8
		id     dr.Id
	}
	rings := make(map[key]bool)
	for _, r := range d.Rings {
		id, err := r.Id()
		if err != nil {
			return err
		}
		if !id.ValidFor(f) {
			return fmt.Errorf("%s on %s: %w", id, f, dr.ErrInvalidRing)
		}
		if uint(r.Subdev) >= f.Subdevs() {
			return fmt.Errorf("%s subdev %d: %w", id, r.Subdev, ErrInvalid)
		}
		if r.Depth == 0 || r.Depth > dr.MaxDepth {
			return fmt.Errorf("%s depth %d: %w", id, r.Depth, ErrInvalid)
		}
		if r.Base == 0 {
			return fmt.Errorf("%s: zero base: %w", id, ErrInvalid)
		}
		k := key{r.Subdev, id}
		if rings[k] {
			return fmt.Errorf("%s subdev %d: duplicate: %w", id, r.Subdev, ErrInvalid)
		}
		rings[k] = true
	}
	return nil
}

// Sku resolves the family and the pipe and MAC lists.
func (d *Device) Sku() (chip.Sku, error) {
	f, err := chip.ParseFamily(d.Family)
	if err != nil {
		return chip.Sku{}, err
	}
	sku := chip.FullSku(f)
	if len(d.Pipes) > 0 {
		if sku.Pipes, err = chip.ParseList(d.Pipes, f.Pipes()); err != nil {
			return chip.Sku{}, fmt.Errorf("pipes: %w", err)
		}
	}
	if len(d.Macs) > 0 {
		if sku.Macs, err = chip.ParseList(d.Macs, f.Macs()); err != nil {
			return chip.Sku{}, fmt.Errorf("macs: %w", err)
		}
	}
	return sku, nil
}

func (r *Ring) Id() (dr.Id, error) { return dr.ParseId(r.Ring) }
