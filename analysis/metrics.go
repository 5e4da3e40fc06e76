// Copyright 2018 MPI-SWS and Valentin Wuestholz

// This file is part of Bran.
//
// Bran is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Bran is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Bran.  If not, see <https://www.gnu.org/licenses/>.

package analysis

import (
	"github.com/ethereum/go-ethereum/metrics"
)

// Counters are registered even when metrics.Enabled is off.
var (
	pathsCounter  = metrics.NewRegisteredCounterForced("symexec/paths", nil)
	failedCounter = metrics.NewRegisteredCounterForced("symexec/failed", nil)
	stepsCounter  = metrics.NewRegisteredCounterForced("symexec/steps", nil)
	foldedCounter = metrics.NewRegisteredCounterForced("symexec/folded", nil)
)

// Counters returns the totals of all explorations in this process: paths,
// failed paths, executed instructions and folded operations.
func Counters() map[string]int64 {
	return map[string]int64{
		"paths":  pathsCounter.Snapshot().Count(),
		"failed": failedCounter.Snapshot().Count(),
		"steps":  stepsCounter.Snapshot().Count(),
		"folded": foldedCounter.Snapshot().Count(),
	}
}
