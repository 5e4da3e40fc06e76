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
	"github.com/hakangs/panoramix/vm"
)

// interpreter executes single instructions of one program on path states.
// It is read-only and shared by all paths.
type interpreter struct {
	code  []byte
	dests vm.JumpDests
	conc  *vm.JumpTable
	jt    *symJumpTable
	fold  bool
}

func newInterpreter(code []byte, conc *vm.JumpTable, jt *symJumpTable, fold bool) *interpreter {
	return &interpreter{
		code:  code,
		dests: vm.ValidJumpDests(code),
		conc:  conc,
		jt:    jt,
		fold:  fold,
	}
}

// step executes the instruction at st.pc. It does not move the program
// counter; the caller does that based on the result.
func (in *interpreter) step(st *pathState) stepRes {
	if st.pc >= uint64(len(in.code)) {
		return haltRes(ReasonEndOfCode)
	}
	op := vm.OpCode(in.code[st.pc])
	conc := in.conc.Lookup(byte(op))
	symOp := in.jt[op]
	st.steps++
	if !conc.Valid || !symOp.valid {
		return failRes(ReasonInvalidOpcode, &vm.ErrInvalidOpCode{Opcode: op})
	}
	if err := st.stack.validate(conc.Pops, conc.Pushes); err != nil {
		if _, ok := err.(*vm.ErrStackUnderflow); ok {
			return failRes(ReasonStackUnderflow, err)
		}
		return failRes(ReasonStackOverflow, err)
	}
	env := &execEnv{
		pc:    st.pc,
		op:    op,
		code:  in.code,
		dests: in.dests,
		fold:  in.fold,
		st:    st,
	}
	return symOp.exec(env)
}

// nextPC returns the location of the instruction following the one at pc.
func (in *interpreter) nextPC(pc uint64) uint64 {
	if pc >= uint64(len(in.code)) {
		return pc + 1
	}
	return pc + 1 + uint64(in.conc.Lookup(in.code[pc]).Immediate)
}
