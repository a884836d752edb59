// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package lldd provides the low level driver daemon. It brings up the
// configured rings, polls each device for interrupts, exports ring and
// interrupt statistics and serves the debug commands on "@lldd".
package lldd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rcrowley/go-metrics"
	"golang.org/x/sync/errgroup"

	"github.com/platinasystems/tofino/internal/chip"
	"github.com/platinasystems/tofino/internal/config"
	"github.com/platinasystems/tofino/internal/device"
	"github.com/platinasystems/tofino/internal/goes"
	"github.com/platinasystems/tofino/internal/intr"
	"github.com/platinasystems/tofino/internal/lang"
	"github.com/platinasystems/tofino/internal/lldrpc"
	"github.com/platinasystems/tofino/internal/reg"
	"github.com/platinasystems/tofino/internal/stats"
)

var ErrNoTransport = errors.New("no register transport; use -sim")

type Command struct {
	// Transport attaches the register transport of a configured device.
	// Without one only simulated devices can be opened.
	Transport func(dev chip.Dev, sku chip.Sku) (reg.Transport, error)

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (*Command) String() string { return "lldd" }

func (*Command) Usage() string { return "lldd [-sim] [-config FILE]" }

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "tofino low level driver daemon",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Bring up the DMA rings of each configured Tofino, poll the devices
	for interrupts and service the DMA ring interrupts. Ring occupancy,
	descriptor counts and interrupt counts are published to redis and
	prometheus when configured. The drstatus, dmalog and intr commands
	reach the daemon through the @lldd socket.

OPTIONS
	-config FILE
		default: /etc/goes/tofino.yaml
	-sim	run every device on a simulated register file`,
	}
}

func (*Command) Kind() goes.Kind { return goes.Daemon }

func (c *Command) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *Command) Main(args ...string) error {
	flag, args := flags.New(args, "-sim")
	parm, args := parms.New(args, "-config")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	fn := parm.ByName["-config"]
	if len(fn) == 0 {
		fn = config.DefaultPath
	}
	cfg, err := config.Load(fn)
	if err != nil {
		return err
	}
	if flag.ByName["-sim"] {
		cfg.Sim = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	r := metrics.NewRegistry()
	devs, err := c.open(cfg, r)
	if err != nil {
		return err
	}
	if err = lldrpc.Register(lldrpc.New(devs...)); err != nil {
		return err
	}
	srv, err := atsock.NewRpcServer(lldrpc.SockName)
	if err != nil {
		return err
	}
	defer srv.Close()
	log.Print("daemon", "info", "started ", len(devs), " devices")
	return c.run(ctx, cfg, devs, r)
}

// open attaches, configures and enables every configured device.
func (c *Command) open(cfg *config.Config, r metrics.Registry) ([]*device.Device, error) {
	var devs []*device.Device
	for i := range cfg.Devices {
		dc := &cfg.Devices[i]
		dev := chip.Dev(dc.Id)
		sku, err := dc.Sku()
		if err != nil {
			return nil, err
		}
		var tr reg.Transport
		switch {
		case cfg.Sim:
			tree, err := intr.TreeOf(sku.Family)
			if err != nil {
				return nil, err
			}
			tr = device.NewSim(reg.NewMem(), tree)
		case c.Transport != nil:
			if tr, err = c.Transport(dev, sku); err != nil {
				return nil, fmt.Errorf("%s: %w", dev, err)
			}
		default:
			return nil, fmt.Errorf("%s: %w", dev, ErrNoTransport)
		}
		d, err := device.Open(dev, tr, sku, r)
		if err != nil {
			return nil, err
		}
		var rings []device.RingConfig
		for _, rc := range dc.Rings {
			id, err := rc.Id()
			if err != nil {
				return nil, err
			}
			rings = append(rings, device.RingConfig{
				Subdev: chip.Subdev(rc.Subdev),
				Id:     id,
				Base:   rc.Base,
				Depth:  rc.Depth,
			})
		}
		if err = d.Configure(rings...); err != nil {
			return nil, err
		}
		if dc.EnableInterrupts {
			err = d.Interrupts(func(x *intr.Dispatcher) error {
				for s := uint(0); s < d.Subdevs(); s++ {
					if err := x.Unmask(chip.Subdev(s)); err != nil {
						return err
					}
					if err := x.EnableAllLeaves(chip.Subdev(s), true); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("%s: %w", dev, err)
			}
		}
		log.Print("daemon", "info", dev, " ", &sku, " ", len(rings), " rings")
		devs = append(devs, d)
	}
	return devs, nil
}

// run polls every device from its own goroutine and exports statistics
// until ctx is done.
func (c *Command) run(ctx context.Context, cfg *config.Config,
	devs []*device.Device, r metrics.Registry) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, d := range devs {
		d := d
		g.Go(func() error { return poll(ctx, d, cfg.Poll) })
	}
	var pub *stats.Publisher
	if len(cfg.Stats.Redis.Address) > 0 {
		pub = stats.NewPublisher(cfg.Stats.Redis.Address,
			cfg.Stats.Redis.Hash, cfg.Stats.Redis.Channel)
		defer pub.Close()
	}
	g.Go(func() error { return publish(ctx, devs, pub, cfg.Stats.Interval) })
	if p := cfg.Stats.Prometheus; len(p.Listen) > 0 {
		pr := prometheus.NewRegistry()
		if err := pr.Register(stats.NewCollector(p.Namespace, devs...)); err != nil {
			return err
		}
		g.Go(func() error {
			return stats.Bridge(ctx, r, p.Namespace, pr, cfg.Stats.Interval)
		})
		mux := http.NewServeMux()
		mux.Handle(p.Path, promhttp.HandlerFor(pr, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: p.Listen, Handler: mux}
		g.Go(func() error {
			log.Print("daemon", "info", "prometheus stats listening on ",
				p.Listen, " at ", p.Path)
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return srv.Close()
		})
	}
	return g.Wait()
}

// poll services interrupts every period. Poll errors are logged when they
// change so a dead transport doesn't flood the log.
func poll(ctx context.Context, d *device.Device, period time.Duration) error {
	t := time.NewTicker(period)
	defer t.Stop()
	var last string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		_, err := d.Poll(false)
		switch {
		case err != nil && err.Error() != last:
			last = err.Error()
			log.Print("daemon", "err", d.Dev, " poll: ", err)
		case err == nil && len(last) > 0:
			last = ""
			log.Print("daemon", "info", d.Dev, " poll recovered")
		}
	}
}

// publish refreshes the ring views every interval and sends the samples to
// redis when pub is set.
func publish(ctx context.Context, devs []*device.Device, pub *stats.Publisher,
	interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		for _, d := range devs {
			if err := d.UpdateRings(); err != nil {
				log.Print("daemon", "err", d.Dev, " rings: ", err)
			}
		}
		if pub == nil {
			continue
		}
		err := pub.Publish(stats.Snapshot(devs...))
		if err != nil && err != stats.ErrBackoff {
			log.Print("daemon", "warn", "publish: ", err)
		}
	}
}
