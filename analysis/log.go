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
	"github.com/ethereum/go-ethereum/log"
)

// logPathResult reports a finished path. Paths cut off by a limit are logged
// at debug level, everything else at trace level.
func logPathResult(p *PathResult) {
	ctx := []interface{}{"id", p.ID, "parent", p.Parent, "reason", p.Reason, "pc", p.PC, "stack", len(p.Stack), "trace", len(p.Trace)}
	if n := len(p.Stack); n > 0 {
		ctx = append(ctx, "top", TermHex(p.Stack[n-1]))
	}
	switch {
	case p.Reason == ReasonPathLimitExceeded:
		log.Debug("Path cut off", append(ctx, "err", p.Err)...)
	case p.Failed():
		log.Trace("Path failed", append(ctx, "err", p.Err)...)
	default:
		log.Trace("Path terminated", ctx...)
	}
}
