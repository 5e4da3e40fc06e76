// Copyright 2017 The go-ethereum Authors
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

package vm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Instruction is one disassembled instruction. Arg is set for the PUSH family
// only; PUSH0 has a zero Arg and no immediate bytes.
type Instruction struct {
	PC  uint64
	Op  OpCode
	Arg *uint256.Int
}

func (in Instruction) String() string {
	if in.Arg != nil {
		return fmt.Sprintf("%05x: %v %s", in.PC, in.Op, in.Arg.Hex())
	}
	return fmt.Sprintf("%05x: %v", in.PC, in.Op)
}

// PushSize returns the number of immediate bytes read by a PUSH opcode.
func PushSize(op OpCode) int {
	if op < PUSH1 || op > PUSH32 {
		return 0
	}
	return int(op-PUSH1) + 1
}

// PushArg returns the immediate of the PUSH instruction at pc. Data running
// past the end of the code is right padded with zeros, as the EVM does.
func PushArg(code []byte, pc uint64, size int) *uint256.Int {
	start := pc + 1
	if start > uint64(len(code)) {
		start = uint64(len(code))
	}
	end := start + uint64(size)
	if end > uint64(len(code)) {
		end = uint64(len(code))
	}
	return new(uint256.Int).SetBytes(common.RightPadBytes(code[start:end], size))
}

// instructionIterator is an iterator for disassembled EVM instructions.
type instructionIterator struct {
	code    []byte
	pc      uint64
	size    int
	op      OpCode
	started bool
}

// newInstructionIterator creates a new instruction iterator.
func newInstructionIterator(code []byte) *instructionIterator {
	return &instructionIterator{code: code}
}

// Next returns true if there is a next instruction and moves on.
func (it *instructionIterator) Next() bool {
	if uint64(len(it.code)) <= it.pc {
		return false
	}
	if it.started {
		it.pc += uint64(it.size) + 1
	} else {
		it.started = true
	}
	if uint64(len(it.code)) <= it.pc {
		return false
	}
	it.op = OpCode(it.code[it.pc])
	it.size = PushSize(it.op)
	return true
}

func (it *instructionIterator) instruction() Instruction {
	in := Instruction{PC: it.pc, Op: it.op}
	if it.op.IsPush() {
		in.Arg = PushArg(it.code, it.pc, it.size)
	}
	return in
}

// Disassemble returns every instruction of code in order. A PUSH whose data is
// cut off by the end of the code is still reported, with zero padding.
func Disassemble(code []byte) []Instruction {
	var out []Instruction
	it := newInstructionIterator(code)
	for it.Next() {
		out = append(out, it.instruction())
	}
	return out
}
