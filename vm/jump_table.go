// Copyright 2015 The go-ethereum Authors
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
	"sort"
	"strings"
)

// Operation describes the static shape of one instruction. The symbolic
// interpreter decides the real stack movement of an instruction itself; Pops
// and Pushes are used for validation before the handler runs.
type Operation struct {
	// Name is the lower case mnemonic, also used as the name of Op terms.
	Name string
	// Pops tells how many stack items are required.
	Pops int
	// Pushes tells how many stack items are produced.
	Pushes int
	// Immediate is the number of code bytes following the opcode (PUSHn data).
	Immediate int

	Halts bool // indicates whether the operation should halt further execution
	Jumps bool // indicates whether the program counter should not increment
	Valid bool // indication whether the retrieved operation is valid and known
}

// StackDelta returns the net change of stack depth caused by the operation.
func (o Operation) StackDelta() int {
	return o.Pushes - o.Pops
}

// invalidOperation is returned for bytes that have no entry in a table.
var invalidOperation = Operation{Name: INVALID.String()}

var (
	frontierInstructionSet       = newFrontierInstructionSet()
	homesteadInstructionSet      = newHomesteadInstructionSet()
	byzantiumInstructionSet      = newByzantiumInstructionSet()
	constantinopleInstructionSet = newConstantinopleInstructionSet()
	istanbulInstructionSet       = newIstanbulInstructionSet()
	londonInstructionSet         = newLondonInstructionSet()
	shanghaiInstructionSet       = newShanghaiInstructionSet()
	cancunInstructionSet         = newCancunInstructionSet()
)

// JumpTable contains the EVM opcodes supported at a given fork.
type JumpTable [256]Operation

// Lookup never fails: bytes without an entry resolve to a synthetic invalid
// operation with a stack delta of zero.
func (jt *JumpTable) Lookup(b byte) Operation {
	op := jt[b]
	if !op.Valid {
		return invalidOperation
	}
	return op
}

// StackDelta returns the stack delta registered for a mnemonic.
func (jt *JumpTable) StackDelta(mnemonic string) (int, bool) {
	op, ok := StringToOp(strings.ToLower(mnemonic))
	if !ok || !jt[op].Valid {
		return 0, false
	}
	return jt[op].StackDelta(), true
}

// CancunInstructionSet returns the newest supported instruction set. The
// returned table is a copy; the package level tables are never mutated.
func CancunInstructionSet() JumpTable {
	return cancunInstructionSet
}

var forks = map[string]*JumpTable{
	"frontier":       &frontierInstructionSet,
	"homestead":      &homesteadInstructionSet,
	"byzantium":      &byzantiumInstructionSet,
	"constantinople": &constantinopleInstructionSet,
	"istanbul":       &istanbulInstructionSet,
	"london":         &londonInstructionSet,
	"shanghai":       &shanghaiInstructionSet,
	"cancun":         &cancunInstructionSet,
}

// Forks returns the names accepted by LookupInstructionSet.
func Forks() []string {
	names := make([]string, 0, len(forks))
	for name := range forks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupInstructionSet returns the instruction set for the fork specified.
func LookupInstructionSet(fork string) (JumpTable, error) {
	if fork == "" {
		return cancunInstructionSet, nil
	}
	jt, ok := forks[strings.ToLower(fork)]
	if !ok {
		return JumpTable{}, fmt.Errorf("unknown fork %q", fork)
	}
	return *jt, nil
}

// newCancunInstructionSet returns the shanghai instructions plus transient
// storage, MCOPY and the blob opcodes.
func newCancunInstructionSet() JumpTable {
	instructionSet := newShanghaiInstructionSet()
	enable4844(&instructionSet) // EIP-4844 (BLOBHASH opcode)
	enable7516(&instructionSet) // EIP-7516 (BLOBBASEFEE opcode)
	enable1153(&instructionSet) // EIP-1153 "Transient Storage"
	enable5656(&instructionSet) // EIP-5656 (MCOPY opcode)
	return named(instructionSet)
}

// newShanghaiInstructionSet returns the london instructions plus PUSH0.
func newShanghaiInstructionSet() JumpTable {
	instructionSet := newLondonInstructionSet()
	enable3855(&instructionSet) // PUSH0 instruction
	return named(instructionSet)
}

// newLondonInstructionSet returns the istanbul instructions plus BASEFEE.
func newLondonInstructionSet() JumpTable {
	instructionSet := newIstanbulInstructionSet()
	enable3198(&instructionSet) // Base fee opcode https://eips.ethereum.org/EIPS/eip-3198
	return named(instructionSet)
}

// newIstanbulInstructionSet returns the frontier, homestead
// byzantium, contantinople and petersburg instructions.
func newIstanbulInstructionSet() JumpTable {
	instructionSet := newConstantinopleInstructionSet()
	enable1344(&instructionSet) // ChainID opcode - https://eips.ethereum.org/EIPS/eip-1344
	enable1884(&instructionSet) // SELFBALANCE - https://eips.ethereum.org/EIPS/eip-1884
	return named(instructionSet)
}

// newConstantinopleInstructionSet returns the frontier, homestead
// byzantium and contantinople instructions.
func newConstantinopleInstructionSet() JumpTable {
	instructionSet := newByzantiumInstructionSet()
	instructionSet[SHL] = Operation{Pops: 2, Pushes: 1, Valid: true}
	instructionSet[SHR] = Operation{Pops: 2, Pushes: 1, Valid: true}
	instructionSet[SAR] = Operation{Pops: 2, Pushes: 1, Valid: true}
	instructionSet[EXTCODEHASH] = Operation{Pops: 1, Pushes: 1, Valid: true}
	instructionSet[CREATE2] = Operation{Pops: 4, Pushes: 1, Valid: true}
	return named(instructionSet)
}

// newByzantiumInstructionSet returns the frontier, homestead and
// byzantium instructions.
func newByzantiumInstructionSet() JumpTable {
	instructionSet := newHomesteadInstructionSet()
	instructionSet[STATICCALL] = Operation{Pops: 6, Pushes: 1, Valid: true}
	instructionSet[RETURNDATASIZE] = Operation{Pops: 0, Pushes: 1, Valid: true}
	instructionSet[RETURNDATACOPY] = Operation{Pops: 3, Pushes: 0, Valid: true}
	instructionSet[REVERT] = Operation{Pops: 2, Pushes: 0, Halts: true, Valid: true}
	return named(instructionSet)
}

// newHomesteadInstructionSet returns the frontier and homestead
// instructions that can be executed during the homestead phase.
func newHomesteadInstructionSet() JumpTable {
	instructionSet := newFrontierInstructionSet()
	instructionSet[DELEGATECALL] = Operation{Pops: 6, Pushes: 1, Valid: true}
	return named(instructionSet)
}

// newFrontierInstructionSet returns the frontier instructions
// that can be executed during the frontier phase.
func newFrontierInstructionSet() JumpTable {
	tbl := JumpTable{
		STOP:       {Halts: true, Valid: true},
		ADD:        {Pops: 2, Pushes: 1, Valid: true},
		MUL:        {Pops: 2, Pushes: 1, Valid: true},
		SUB:        {Pops: 2, Pushes: 1, Valid: true},
		DIV:        {Pops: 2, Pushes: 1, Valid: true},
		SDIV:       {Pops: 2, Pushes: 1, Valid: true},
		MOD:        {Pops: 2, Pushes: 1, Valid: true},
		SMOD:       {Pops: 2, Pushes: 1, Valid: true},
		ADDMOD:     {Pops: 3, Pushes: 1, Valid: true},
		MULMOD:     {Pops: 3, Pushes: 1, Valid: true},
		EXP:        {Pops: 2, Pushes: 1, Valid: true},
		SIGNEXTEND: {Pops: 2, Pushes: 1, Valid: true},

		LT:     {Pops: 2, Pushes: 1, Valid: true},
		GT:     {Pops: 2, Pushes: 1, Valid: true},
		SLT:    {Pops: 2, Pushes: 1, Valid: true},
		SGT:    {Pops: 2, Pushes: 1, Valid: true},
		EQ:     {Pops: 2, Pushes: 1, Valid: true},
		ISZERO: {Pops: 1, Pushes: 1, Valid: true},
		AND:    {Pops: 2, Pushes: 1, Valid: true},
		XOR:    {Pops: 2, Pushes: 1, Valid: true},
		OR:     {Pops: 2, Pushes: 1, Valid: true},
		NOT:    {Pops: 1, Pushes: 1, Valid: true},
		BYTE:   {Pops: 2, Pushes: 1, Valid: true},
		SHA3:   {Pops: 2, Pushes: 1, Valid: true},

		ADDRESS:      {Pushes: 1, Valid: true},
		BALANCE:      {Pops: 1, Pushes: 1, Valid: true},
		ORIGIN:       {Pushes: 1, Valid: true},
		CALLER:       {Pushes: 1, Valid: true},
		CALLVALUE:    {Pushes: 1, Valid: true},
		CALLDATALOAD: {Pops: 1, Pushes: 1, Valid: true},
		CALLDATASIZE: {Pushes: 1, Valid: true},
		CALLDATACOPY: {Pops: 3, Valid: true},
		CODESIZE:     {Pushes: 1, Valid: true},
		CODECOPY:     {Pops: 3, Valid: true},
		GASPRICE:     {Pushes: 1, Valid: true},
		EXTCODESIZE:  {Pops: 1, Pushes: 1, Valid: true},
		EXTCODECOPY:  {Pops: 4, Valid: true},

		BLOCKHASH:  {Pops: 1, Pushes: 1, Valid: true},
		COINBASE:   {Pushes: 1, Valid: true},
		TIMESTAMP:  {Pushes: 1, Valid: true},
		NUMBER:     {Pushes: 1, Valid: true},
		DIFFICULTY: {Pushes: 1, Valid: true},
		GASLIMIT:   {Pushes: 1, Valid: true},

		POP:      {Pops: 1, Valid: true},
		MLOAD:    {Pops: 1, Pushes: 1, Valid: true},
		MSTORE:   {Pops: 2, Valid: true},
		MSTORE8:  {Pops: 2, Valid: true},
		SLOAD:    {Pops: 1, Pushes: 1, Valid: true},
		SSTORE:   {Pops: 2, Valid: true},
		JUMP:     {Pops: 1, Jumps: true, Valid: true},
		JUMPI:    {Pops: 2, Jumps: true, Valid: true},
		PC:       {Pushes: 1, Valid: true},
		MSIZE:    {Pushes: 1, Valid: true},
		GAS:      {Pushes: 1, Valid: true},
		JUMPDEST: {Valid: true},

		CREATE:       {Pops: 3, Pushes: 1, Valid: true},
		CALL:         {Pops: 7, Pushes: 1, Valid: true},
		CALLCODE:     {Pops: 7, Pushes: 1, Valid: true},
		RETURN:       {Pops: 2, Halts: true, Valid: true},
		SELFDESTRUCT: {Pops: 1, Halts: true, Valid: true},
		// The designated invalid instruction is known but never executes.
		INVALID: {Halts: true},
	}
	for i := 0; i < 32; i++ {
		tbl[PUSH1+OpCode(i)] = Operation{Pushes: 1, Immediate: i + 1, Valid: true}
	}
	for i := 0; i < 16; i++ {
		tbl[DUP1+OpCode(i)] = Operation{Pops: i + 1, Pushes: i + 2, Valid: true}
		tbl[SWAP1+OpCode(i)] = Operation{Pops: i + 2, Pushes: i + 2, Valid: true}
	}
	for i := 0; i < 5; i++ {
		tbl[LOG0+OpCode(i)] = Operation{Pops: 2 + i, Valid: true}
	}
	return named(tbl)
}

// named fills in the mnemonic of every entry.
func named(jt JumpTable) JumpTable {
	for i := range jt {
		jt[i].Name = OpCode(i).String()
	}
	return jt
}
