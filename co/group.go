// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
	"time"
)

// Group runs goroutines that share one stop channel and waits for them to exit.
type Group struct {
	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

func NewGroup() *Group {
	return &Group{
		stop: make(chan struct{}),
	}
}

// Go runs f in a goroutine. f must return once stop is closed.
func (g *Group) Go(f func(stop <-chan struct{})) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		f(g.stop)
	}()
}

// Stop closes the stop channel, it is safe to call more than once.
func (g *Group) Stop() {
	g.once.Do(func() {
		close(g.stop)
	})
}

func (g *Group) Wait() {
	g.wg.Wait()
}

// Done returns a channel closed when all goroutines have exited.
func (g *Group) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.wg.Wait()
	}()
	return done
}

// Every calls fn each interval until stop is closed.
func Every(stop <-chan struct{}, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			fn()
		}
	}
}
