// Copyright 2021 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package relay

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/metrics"
)

var (
	requestMeter   = metrics.NewRegisteredMeter("sponsor/requests", nil)
	sponsoredMeter = metrics.NewRegisteredMeter("sponsor/sponsored", nil)
	forwardedMeter = metrics.NewRegisteredMeter("sponsor/forwarded", nil)
	failureMeter   = metrics.NewRegisteredMeter("sponsor/failures", nil)

	// chainTimer measures round trips to the chain endpoint.
	chainTimer = metrics.NewRegisteredTimer("sponsor/chain/duration", nil)

	// serveTimeHistName is the prefix of the per-method serving time histograms.
	serveTimeHistName = "sponsor/duration"
)

// updateServeTimeHistogram tracks the serving time of a relayed call.
//
// 按方法、是否赞助以及成功与否分别记录耗时直方图。
func updateServeTimeHistogram(method string, sponsored bool, success bool, elapsed time.Duration) {
	path := "forward"
	if sponsored {
		path = "sponsor"
	}
	note := "success"
	if !success {
		note = "failure"
	}
	h := fmt.Sprintf("%s/%s/%s/%s", serveTimeHistName, method, path, note)
	sampler := func() metrics.Sample {
		return metrics.ResettingSample(
			metrics.NewExpDecaySample(1028, 0.015),
		)
	}
	metrics.GetOrRegisterHistogramLazy(h, nil, sampler).Update(elapsed.Nanoseconds())
}
