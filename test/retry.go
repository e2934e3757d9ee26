// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package test holds helpers shared by tests that wait on running services.
package test

import (
	"time"

	"github.com/pkg/errors"
)

// Retry calls fn every period until it succeeds. After timeout it gives up with the last error.
func Retry(fn func() error, period, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		err := fn()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.WithMessage(err, "retry timeout")
		}
		<-ticker.C
	}
}
