// Package kv provides the key-value namespace the inventory collections are
// persisted in. Every backend stores opaque byte values under string keys.
package kv

import (
	"context"
	"time"

	"github.com/juju/clock"
)

// Store is a flat key-value namespace.
type Store interface {
	// Get returns the value under key; ok is false when nothing is stored.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// WithLatency wraps s so every Get and Set waits d before touching the
// backend. Used to simulate a remote store; a zero d returns s unchanged.
func WithLatency(s Store, d time.Duration, clk clock.Clock) Store {
	if d <= 0 {
		return s
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &delayed{Store: s, delay: d, clock: clk}
}

type delayed struct {
	Store
	delay time.Duration
	clock clock.Clock
}

func (d *delayed) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.clock.After(d.delay):
		return nil
	}
}

func (d *delayed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := d.wait(ctx); err != nil {
		return nil, false, err
	}
	return d.Store.Get(ctx, key)
}

func (d *delayed) Set(ctx context.Context, key string, value []byte) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	return d.Store.Set(ctx, key, value)
}
