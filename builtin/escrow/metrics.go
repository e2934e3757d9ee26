// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"time"

	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/metrics"
)

var (
	metricOpCount    = metrics.LazyLoadCounterVec("escrow_op_count", []string{"op", "status"})
	metricOpDuration = metrics.LazyLoadHistogramVec("escrow_op_duration_us", []string{"op"}, metrics.BucketOpDuration)
	metricBoosted    = metrics.LazyLoadCounter("escrow_boost_count")
	metricClaimed    = metrics.LazyLoadCounterVec("escrow_claim_count", []string{"kind"})
	metricClock      = metrics.LazyLoadGauge("escrow_clock_seconds")
)

func observeOp(op string, start time.Time, err error) {
	status := "ok"
	switch {
	case err == nil:
	case reverts.IsRevertErr(err):
		status = "reverted"
	default:
		status = "failed"
	}
	metricOpCount().AddWithLabel(1, map[string]string{"op": op, "status": status})
	metricOpDuration().ObserveWithLabels(time.Since(start).Microseconds(), map[string]string{"op": op})
}
