// Package delaytick provides a ticker with an initial randomized delay.
// It spreads out the first poll of daemons started in unison, for example
// by the same configuration-management run across a fleet, so their check
// commands do not all land on shared infrastructure at once.
package delaytick

import (
	"math/rand"
	"time"
)

// New returns a channel that ticks every d after an initial delay drawn
// uniformly from [d/2, d+d/2).
func New(s rand.Source, d time.Duration) <-chan time.Time {
	c := make(chan time.Time)

	go func() {
		// #nosec G404 -- math/rand is used here for non-security timing jitter
		splay := d/2 + time.Duration(rand.New(s).Float64()*float64(d))
		c <- <-time.After(splay)

		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for t := range ticker.C {
			c <- t
		}
	}()

	return c
}
