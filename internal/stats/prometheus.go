// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package stats

import (
	"context"
	"strconv"
	"time"

	mp "github.com/nbrownus/go-metrics-prometheus"
	"github.com/platinasystems/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rcrowley/go-metrics"

	"github.com/platinasystems/tofino/internal/device"
)

// Collector exports the Snapshot of its devices on each scrape.
type Collector struct {
	devs []*device.Device
	ring map[string]*prometheus.Desc
	die  map[string]*prometheus.Desc
}

func NewCollector(namespace string, devs ...*device.Device) *Collector {
	c := &Collector{
		devs: devs,
		ring: make(map[string]*prometheus.Desc),
		die:  make(map[string]*prometheus.Desc),
	}
	ringLabels := []string{"dev", "subdev", "ring"}
	for name, help := range map[string]string{
		Occupancy: "Descriptors between ring head and tail.",
		Depth:     "Configured ring depth in descriptors.",
		Descs:     "Descriptors consumed since discovery.",
		Bytes:     "Descriptor bytes consumed since discovery.",
	} {
		c.ring[name] = prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ring", metricName(name)),
			help, ringLabels, nil)
	}
	dieLabels := []string{"dev", "subdev"}
	for name, help := range map[string]string{
		Interrupts: "Asserted interrupt leaves serviced.",
		Polls:      "Interrupt polls.",
	} {
		c.die[name] = prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", metricName(name)),
			help, dieLabels, nil)
	}
	return c
}

func metricName(name string) string {
	switch name {
	case Descs, Bytes, Interrupts, Polls:
		return name + "_total"
	}
	return name
}

func valueType(name string) prometheus.ValueType {
	switch name {
	case Occupancy, Depth:
		return prometheus.GaugeValue
	}
	return prometheus.CounterValue
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.ring {
		ch <- d
	}
	for _, d := range c.die {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range Snapshot(c.devs...) {
		dev := strconv.Itoa(int(s.Dev))
		subdev := strconv.Itoa(int(s.Subdev))
		if len(s.Ring) > 0 {
			ch <- prometheus.MustNewConstMetric(c.ring[s.Name],
				valueType(s.Name), float64(s.Value),
				dev, subdev, s.Ring)
		} else {
			ch <- prometheus.MustNewConstMetric(c.die[s.Name],
				valueType(s.Name), float64(s.Value),
				dev, subdev)
		}
	}
}

// Bridge copies the go-metrics registry r, which holds the DMA log
// meters, into pr every interval until ctx is done.
func Bridge(ctx context.Context, r metrics.Registry, namespace string,
	pr prometheus.Registerer, interval time.Duration) error {
	p := mp.NewPrometheusProvider(r, namespace, "", pr, interval)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := p.UpdatePrometheusMetricsOnce(); err != nil {
			log.Print("err", "metrics bridge: ", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
