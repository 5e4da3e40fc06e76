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
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
)

// pathState is the state of one execution path.
type pathState struct {
	id        int
	parent    int
	pc        uint64
	stack     *symStack
	mem       *symMem
	storage   *slotMap
	transient *slotMap
	trace     []TraceEntry
	// visited holds the signatures of the jump successors seen by this path
	// and its ancestors.
	visited mapset.Set[common.Hash]
	steps   int
}

// newPathState returns the initial state: pc 0 and everything empty.
func newPathState(id int) *pathState {
	return &pathState{
		id:        id,
		parent:    -1,
		stack:     newSymStack(),
		mem:       newSymMem(),
		storage:   newStorage(),
		transient: newTransientStorage(),
		visited:   mapset.NewThreadUnsafeSet[common.Hash](),
	}
}

// fork does a deep copy of the state for a new path.
func (s *pathState) fork(id int) *pathState {
	return &pathState{
		id:        id,
		parent:    s.id,
		pc:        s.pc,
		stack:     s.stack.clone(),
		mem:       s.mem.clone(),
		storage:   s.storage.clone(),
		transient: s.transient.clone(),
		// Entries are immutable, so the copy only needs its own capacity.
		trace:   s.trace[:len(s.trace):len(s.trace)],
		visited: s.visited.Clone(),
		steps:   s.steps,
	}
}

func (s *pathState) record(e TraceEntry) {
	s.trace = append(s.trace, e)
}

// markVisited adds the signature of continuing at pc with the current stack.
// It returns false if the path or an ancestor was already there.
func (s *pathState) markVisited(pc uint64) bool {
	return s.visited.Add(s.stack.signature(pc))
}
