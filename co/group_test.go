// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGroup(t *testing.T) {
	g := NewGroup()
	var stopped atomic.Int32
	for range 3 {
		g.Go(func(stop <-chan struct{}) {
			<-stop
			stopped.Add(1)
		})
	}

	select {
	case <-g.Done():
		t.Fatal("exited before stop")
	case <-time.After(10 * time.Millisecond):
	}

	g.Stop()
	g.Stop()
	g.Wait()
	assert.Equal(t, int32(3), stopped.Load())
	<-g.Done()
}

func TestEvery(t *testing.T) {
	g := NewGroup()
	var calls atomic.Int32
	reached := make(chan struct{})
	g.Go(func(stop <-chan struct{}) {
		Every(stop, time.Millisecond, func() {
			if calls.Add(1) == 3 {
				close(reached)
			}
		})
	})

	select {
	case <-reached:
	case <-time.After(time.Second):
		t.Fatal("ticker did not fire")
	}
	g.Stop()
	<-g.Done()
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}
