// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cache implements the cache_t<double> equivalent described in
// spec §5: a per-key float64 accumulator persisted across commands
// within one recording, backed by modernc.org/kv exactly as
// internal/store's blast-hit stores are (kv.Options{Compare: fn},
// BeginTransaction/Set/Commit).
package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"modernc.org/kv"
)

var order = binary.BigEndian

// byKey orders entries lexically by their raw key bytes, the simplest
// comparator that still gives deterministic iteration order.
func byKey(x, y []byte) int { return bytes.Compare(x, y) }

// Cache is a key -> float64 store persisted to a single db file for
// the lifetime of one recording's command sequence.
type Cache struct {
	db *kv.DB
}

// Open opens (or creates) the cache file at path.
func Open(path string) (*Cache, error) {
	opts := &kv.Options{Compare: byKey}
	db, err := kv.Open(path, opts)
	if err != nil {
		db, err = kv.Create(path, opts)
		if err != nil {
			return nil, fmt.Errorf("cache: open %s: %w", path, err)
		}
	}
	return &Cache{db: db}, nil
}

// Close flushes and closes the underlying store.
func (c *Cache) Close() error { return c.db.Close() }

// Get returns the value stored under key, or ok=false if absent.
func (c *Cache) Get(key string) (float64, bool, error) {
	v, err := c.db.Get(nil, []byte(key))
	if err != nil {
		return 0, false, err
	}
	if v == nil {
		return 0, false, nil
	}
	return math.Float64frombits(order.Uint64(v)), true, nil
}

// Set stores value under key, overwriting any previous value.
func (c *Cache) Set(key string, value float64) error {
	var buf [8]byte
	order.PutUint64(buf[:], math.Float64bits(value))
	if err := c.db.BeginTransaction(); err != nil {
		return err
	}
	if err := c.db.Set([]byte(key), buf[:]); err != nil {
		_ = c.db.Rollback()
		return err
	}
	return c.db.Commit()
}

// Accumulate adds delta to the value stored under key (treating an
// absent key as zero) and returns the updated total, matching
// cache_t<double>::add_to in the original.
func (c *Cache) Accumulate(key string, delta float64) (float64, error) {
	cur, _, err := c.Get(key)
	if err != nil {
		return 0, err
	}
	total := cur + delta
	if err := c.Set(key, total); err != nil {
		return 0, err
	}
	return total, nil
}

// Keys returns every key currently stored, in comparator order.
func (c *Cache) Keys() ([]string, error) {
	it, err := c.db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	var keys []string
	for {
		k, _, err := it.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		keys = append(keys, string(k))
	}
	return keys, nil
}
