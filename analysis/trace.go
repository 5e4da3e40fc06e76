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

// TraceEntry is a side effect performed by a path, in execution order.
type TraceEntry interface {
	// Location is the program counter of the instruction that caused the entry.
	Location() uint64
	traceEntry()
}

// SetMem records a memory write of Length bytes at Offset.
type SetMem struct {
	PC     uint64
	Offset Term
	Length Term
	Value  Term
}

// SStore records a storage write.
type SStore struct {
	PC    uint64
	Slot  Term
	Value Term
}

// TStore records a transient storage write.
type TStore struct {
	PC    uint64
	Slot  Term
	Value Term
}

// Log records an emitted event.
type Log struct {
	PC     uint64
	Data   Term
	Topics []Term
}

// Call records a message call. Value is nil for delegatecall and staticcall.
type Call struct {
	PC        uint64
	Kind      string
	Gas       Term
	Address   Term
	Value     Term
	Args      Term
	RetOffset Term
	RetLength Term
	Result    Term
}

// Create records a contract creation. Salt is only set for create2.
type Create struct {
	PC     uint64
	Kind   string
	Value  Term
	Init   Term
	Salt   Term
	Result Term
}

// SelfDestruct records the end of the contract.
type SelfDestruct struct {
	PC          uint64
	Beneficiary Term
}

// Branch records the assumption a path made at a conditional jump whose
// condition was not known.
type Branch struct {
	PC    uint64
	Cond  Term
	Taken bool
}

func (e *SetMem) Location() uint64       { return e.PC }
func (e *SStore) Location() uint64       { return e.PC }
func (e *TStore) Location() uint64       { return e.PC }
func (e *Log) Location() uint64          { return e.PC }
func (e *Call) Location() uint64         { return e.PC }
func (e *Create) Location() uint64       { return e.PC }
func (e *SelfDestruct) Location() uint64 { return e.PC }
func (e *Branch) Location() uint64       { return e.PC }

func (*SetMem) traceEntry()       {}
func (*SStore) traceEntry()       {}
func (*TStore) traceEntry()       {}
func (*Log) traceEntry()          {}
func (*Call) traceEntry()         {}
func (*Create) traceEntry()       {}
func (*SelfDestruct) traceEntry() {}
func (*Branch) traceEntry()       {}
