// Copyright 2014 The go-ethereum Authors
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

import "fmt"

// OpCode is an EVM opcode
type OpCode byte

// IsPush specifies if an opcode is a PUSH opcode (PUSH0 included).
func (op OpCode) IsPush() bool {
	return PUSH0 <= op && op <= PUSH32
}

// 0x0 range - arithmetic ops.
const (
	STOP OpCode = iota
	ADD
	MUL
	SUB
	DIV
	SDIV
	MOD
	SMOD
	ADDMOD
	MULMOD
	EXP
	SIGNEXTEND
)

// 0x10 range - comparison ops.
const (
	LT OpCode = iota + 0x10
	GT
	SLT
	SGT
	EQ
	ISZERO
	AND
	OR
	XOR
	NOT
	BYTE
	SHL
	SHR
	SAR
)

// 0x20 range - crypto.
const (
	SHA3 OpCode = 0x20
)

// 0x30 range - closure state.
const (
	ADDRESS OpCode = 0x30 + iota
	BALANCE
	ORIGIN
	CALLER
	CALLVALUE
	CALLDATALOAD
	CALLDATASIZE
	CALLDATACOPY
	CODESIZE
	CODECOPY
	GASPRICE
	EXTCODESIZE
	EXTCODECOPY
	RETURNDATASIZE
	RETURNDATACOPY
	EXTCODEHASH
)

// 0x40 range - block operations.
const (
	BLOCKHASH OpCode = 0x40 + iota
	COINBASE
	TIMESTAMP
	NUMBER
	DIFFICULTY
	GASLIMIT
	CHAINID
	SELFBALANCE
	BASEFEE
	BLOBHASH
	BLOBBASEFEE
)

// 0x50 range - 'storage' and execution.
const (
	POP OpCode = 0x50 + iota
	MLOAD
	MSTORE
	MSTORE8
	SLOAD
	SSTORE
	JUMP
	JUMPI
	PC
	MSIZE
	GAS
	JUMPDEST
	TLOAD
	TSTORE
	MCOPY
	PUSH0
)

// 0x60 range - pushes.
const (
	PUSH1 OpCode = 0x60 + iota
	PUSH2
	PUSH3
	PUSH4
	PUSH5
	PUSH6
	PUSH7
	PUSH8
	PUSH9
	PUSH10
	PUSH11
	PUSH12
	PUSH13
	PUSH14
	PUSH15
	PUSH16
	PUSH17
	PUSH18
	PUSH19
	PUSH20
	PUSH21
	PUSH22
	PUSH23
	PUSH24
	PUSH25
	PUSH26
	PUSH27
	PUSH28
	PUSH29
	PUSH30
	PUSH31
	PUSH32
)

// 0x80 range - dups.
const (
	DUP1 OpCode = 0x80 + iota
	DUP2
	DUP3
	DUP4
	DUP5
	DUP6
	DUP7
	DUP8
	DUP9
	DUP10
	DUP11
	DUP12
	DUP13
	DUP14
	DUP15
	DUP16
)

// 0x90 range - swaps.
const (
	SWAP1 OpCode = 0x90 + iota
	SWAP2
	SWAP3
	SWAP4
	SWAP5
	SWAP6
	SWAP7
	SWAP8
	SWAP9
	SWAP10
	SWAP11
	SWAP12
	SWAP13
	SWAP14
	SWAP15
	SWAP16
)

// 0xa0 range - logging ops.
const (
	LOG0 OpCode = 0xa0 + iota
	LOG1
	LOG2
	LOG3
	LOG4
)

// 0xf0 range - closures.
const (
	CREATE       OpCode = 0xf0
	CALL         OpCode = 0xf1
	CALLCODE     OpCode = 0xf2
	RETURN       OpCode = 0xf3
	DELEGATECALL OpCode = 0xf4
	CREATE2      OpCode = 0xf5
	STATICCALL   OpCode = 0xfa
	REVERT       OpCode = 0xfd
	INVALID      OpCode = 0xfe
	SELFDESTRUCT OpCode = 0xff
)

// opCodeToString holds the mnemonics used in terms and traces. They are lower
// case so that a mnemonic can be used directly as an Op term name.
var opCodeToString = withRangeNames(map[OpCode]string{
	STOP:       "stop",
	ADD:        "add",
	MUL:        "mul",
	SUB:        "sub",
	DIV:        "div",
	SDIV:       "sdiv",
	MOD:        "mod",
	SMOD:       "smod",
	EXP:        "exp",
	NOT:        "not",
	LT:         "lt",
	GT:         "gt",
	SLT:        "slt",
	SGT:        "sgt",
	EQ:         "eq",
	ISZERO:     "iszero",
	SIGNEXTEND: "signextend",

	AND:    "and",
	OR:     "or",
	XOR:    "xor",
	BYTE:   "byte",
	SHL:    "shl",
	SHR:    "shr",
	SAR:    "sar",
	ADDMOD: "addmod",
	MULMOD: "mulmod",

	SHA3: "sha3",

	ADDRESS:        "address",
	BALANCE:        "balance",
	ORIGIN:         "origin",
	CALLER:         "caller",
	CALLVALUE:      "callvalue",
	CALLDATALOAD:   "calldataload",
	CALLDATASIZE:   "calldatasize",
	CALLDATACOPY:   "calldatacopy",
	CODESIZE:       "codesize",
	CODECOPY:       "codecopy",
	GASPRICE:       "gasprice",
	EXTCODESIZE:    "extcodesize",
	EXTCODECOPY:    "extcodecopy",
	RETURNDATASIZE: "returndatasize",
	RETURNDATACOPY: "returndatacopy",
	EXTCODEHASH:    "extcodehash",

	BLOCKHASH:   "blockhash",
	COINBASE:    "coinbase",
	TIMESTAMP:   "timestamp",
	NUMBER:      "number",
	DIFFICULTY:  "difficulty",
	GASLIMIT:    "gaslimit",
	CHAINID:     "chainid",
	SELFBALANCE: "selfbalance",
	BASEFEE:     "basefee",
	BLOBHASH:    "blobhash",
	BLOBBASEFEE: "blobbasefee",

	POP:      "pop",
	MLOAD:    "mload",
	MSTORE:   "mstore",
	MSTORE8:  "mstore8",
	SLOAD:    "sload",
	SSTORE:   "sstore",
	JUMP:     "jump",
	JUMPI:    "jumpi",
	PC:       "pc",
	MSIZE:    "msize",
	GAS:      "gas",
	JUMPDEST: "jumpdest",
	TLOAD:    "tload",
	TSTORE:   "tstore",
	MCOPY:    "mcopy",
	PUSH0:    "push0",

	LOG0: "log0",
	LOG1: "log1",
	LOG2: "log2",
	LOG3: "log3",
	LOG4: "log4",

	CREATE:       "create",
	CALL:         "call",
	CALLCODE:     "callcode",
	RETURN:       "return",
	DELEGATECALL: "delegatecall",
	CREATE2:      "create2",
	STATICCALL:   "staticcall",
	REVERT:       "revert",
	INVALID:      "invalid",
	SELFDESTRUCT: "selfdestruct",
})

// withRangeNames adds the numbered PUSH, DUP and SWAP mnemonics.
func withRangeNames(names map[OpCode]string) map[OpCode]string {
	for i := 0; i < 32; i++ {
		names[PUSH1+OpCode(i)] = fmt.Sprintf("push%d", i+1)
	}
	for i := 0; i < 16; i++ {
		names[DUP1+OpCode(i)] = fmt.Sprintf("dup%d", i+1)
		names[SWAP1+OpCode(i)] = fmt.Sprintf("swap%d", i+1)
	}
	return names
}

func (op OpCode) String() string {
	if s := opCodeToString[op]; s != "" {
		return s
	}
	return fmt.Sprintf("opcode %#x not defined", int(op))
}

var stringToOp = func() map[string]OpCode {
	m := make(map[string]OpCode, len(opCodeToString))
	for op, name := range opCodeToString {
		m[name] = op
	}
	return m
}()

// StringToOp finds the opcode whose name is stored in `str`.
func StringToOp(str string) (OpCode, bool) {
	op, ok := stringToOp[str]
	return op, ok
}
