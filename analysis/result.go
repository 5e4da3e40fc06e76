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

// Reasons for which a path ends.
var (
	ReasonStop         = "stop"
	ReasonReturn       = "return"
	ReasonRevert       = "revert"
	ReasonSelfDestruct = "selfdestruct"
	ReasonEndOfCode    = "end-of-code"

	ReasonStackUnderflow    = "stack-underflow"
	ReasonStackOverflow     = "stack-overflow"
	ReasonInvalidOpcode     = "invalid-opcode"
	ReasonInvalidJumpDest   = "invalid-jumpdest"
	ReasonPathLimitExceeded = "path-limit-exceeded"
	ReasonRevisited         = "revisited"
)

var successfulReasons = map[string]bool{
	ReasonStop:         true,
	ReasonReturn:       true,
	ReasonRevert:       true,
	ReasonSelfDestruct: true,
	ReasonEndOfCode:    true,
}

// PathResult is the outcome of one execution path.
type PathResult struct {
	ID int
	// Parent is the path this one was forked from, or -1.
	Parent int
	Reason string
	// Err is set for paths that did not end successfully.
	Err error
	// PC is the location of the last instruction executed.
	PC uint64
	// Stack is the final stack, bottom first.
	Stack []Term
	Trace []TraceEntry
	// ReturnData is the output of return and revert.
	ReturnData Term
}

// Failed reports whether the path ended in an error or was cut off.
func (r *PathResult) Failed() bool {
	return !successfulReasons[r.Reason]
}

// Result is the outcome of exploring a program.
type Result struct {
	// Paths are ordered by ID.
	Paths []*PathResult

	numSuccess    uint64
	numFail       uint64
	numSteps      uint64
	failureCauses map[string]uint64
}

func newResult() *Result {
	return &Result{failureCauses: map[string]uint64{}}
}

func (r *Result) recordSuccess() {
	r.numSuccess++
}

func (r *Result) recordFailure(cause string) {
	r.numFail++
	r.failureCauses[cause]++
}

func (r *Result) NumPaths() uint64 {
	return r.numSuccess + r.numFail
}

func (r *Result) NumSuccess() uint64 {
	return r.numSuccess
}

func (r *Result) NumFail() uint64 {
	return r.numFail
}

// NumSteps is the number of instructions executed over all paths.
func (r *Result) NumSteps() uint64 {
	return r.numSteps
}

func (r *Result) FailureCauses() map[string]uint64 {
	fcs := map[string]uint64{}
	for cause, cnt := range r.failureCauses {
		fcs[cause] = cnt
	}
	return fcs
}

// Path returns the path with the given ID.
func (r *Result) Path(id int) *PathResult {
	if id < 0 || id >= len(r.Paths) || r.Paths[id].ID != id {
		for _, p := range r.Paths {
			if p.ID == id {
				return p
			}
		}
		return nil
	}
	return r.Paths[id]
}
