// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package stats

import (
	"errors"
	"fmt"
	"time"

	"github.com/garyburd/redigo/redis"
	"github.com/jpillora/backoff"
	"github.com/platinasystems/log"
)

var ErrBackoff = errors.New("redis: waiting to reconnect")

// Publisher writes every sample to a redis hash and publishes those that
// changed as "KEY: VALUE" messages on a channel. A failed connection is
// retried with exponential backoff on later calls.
type Publisher struct {
	Hash    string
	Channel string

	dial func() (redis.Conn, error)
	conn redis.Conn
	b    *backoff.Backoff
	next time.Time
	last map[string]uint64
	now  func() time.Time
}

func NewPublisher(address, hash, channel string) *Publisher {
	return newPublisher(hash, channel, func() (redis.Conn, error) {
		return redis.Dial("tcp", address,
			redis.DialConnectTimeout(2*time.Second),
			redis.DialWriteTimeout(2*time.Second),
			redis.DialReadTimeout(2*time.Second))
	})
}

func newPublisher(hash, channel string, dial func() (redis.Conn, error)) *Publisher {
	return &Publisher{
		Hash:    hash,
		Channel: channel,
		dial:    dial,
		b: &backoff.Backoff{
			Min:    1 * time.Second,
			Max:    60 * time.Second,
			Factor: 2,
			Jitter: false,
		},
		last: make(map[string]uint64),
		now:  time.Now,
	}
}

func (p *Publisher) connect() error {
	if p.conn != nil {
		return nil
	}
	if p.now().Before(p.next) {
		return ErrBackoff
	}
	conn, err := p.dial()
	if err != nil {
		p.next = p.now().Add(p.b.Duration())
		return err
	}
	p.b.Reset()
	p.conn = conn
	return nil
}

// Publish pipelines one HSET per sample and one PUBLISH per change.
func (p *Publisher) Publish(samples []Sample) error {
	if err := p.connect(); err != nil {
		return err
	}
	changed := make(map[string]uint64)
	for _, s := range samples {
		k := s.Key()
		if err := p.conn.Send("HSET", p.Hash, k, s.Value); err != nil {
			return p.drop(err)
		}
		if v, found := p.last[k]; !found || v != s.Value {
			changed[k] = s.Value
			msg := fmt.Sprint(k, ": ", s.Value)
			if err := p.conn.Send("PUBLISH", p.Channel, msg); err != nil {
				return p.drop(err)
			}
		}
	}
	if _, err := p.conn.Do(""); err != nil {
		return p.drop(err)
	}
	for k, v := range changed {
		p.last[k] = v
	}
	return nil
}

// drop closes a broken connection; the next Publish redials and
// republishes every sample.
func (p *Publisher) drop(err error) error {
	log.Print("err", "redis: ", err)
	p.conn.Close()
	p.conn = nil
	p.last = make(map[string]uint64)
	p.next = p.now().Add(p.b.Duration())
	return err
}

func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
