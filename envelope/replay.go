// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package envelope

import (
	"sync"
	"time"
)

// ReplayCache remembers (sender key fingerprint, nonce) pairs seen within
// the freshness window and evicts them by age rather than by a fixed
// capacity, so memory use tracks live traffic instead of a worst case.
type ReplayCache struct {
	window time.Duration
	data   sync.Map // fingerprint -> *sync.Map (nonce -> expiry)
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

// NewReplayCache starts a cache with the given freshness window and a sweep
// interval of at most 60s.
func NewReplayCache(window time.Duration) *ReplayCache {
	sweep := window / 5
	if sweep <= 0 || sweep > 60*time.Second {
		sweep = 60 * time.Second
	}
	c := &ReplayCache{
		window: window,
		ticker: time.NewTicker(sweep),
		stop:   make(chan struct{}),
	}
	go c.gcLoop()
	return c
}

// SeenAndRecord reports whether (fingerprint, nonce) was already observed.
// If not, it records the pair and returns false.
func (c *ReplayCache) SeenAndRecord(fingerprint, nonce string) bool {
	if fingerprint == "" || nonce == "" {
		return false
	}
	exp := time.Now().Add(c.window).UnixNano()

	v, _ := c.data.LoadOrStore(fingerprint, &sync.Map{})
	inner := v.(*sync.Map)

	if prev, ok := inner.Load(nonce); ok {
		if prevExp, _ := prev.(int64); prevExp >= time.Now().UnixNano() {
			return true
		}
	}
	inner.Store(nonce, exp)
	return false
}

// Close stops the background sweep. Safe to call more than once.
func (c *ReplayCache) Close() {
	c.once.Do(func() {
		close(c.stop)
		c.ticker.Stop()
	})
}

func (c *ReplayCache) gcLoop() {
	for {
		select {
		case <-c.ticker.C:
			now := time.Now().UnixNano()
			c.data.Range(func(k, v any) bool {
				inner := v.(*sync.Map)
				empty := true
				inner.Range(func(nk, nv any) bool {
					if exp, _ := nv.(int64); exp < now {
						inner.Delete(nk)
					} else {
						empty = false
					}
					return true
				})
				if empty {
					c.data.Delete(k)
				}
				return true
			})
		case <-c.stop:
			return
		}
	}
}
