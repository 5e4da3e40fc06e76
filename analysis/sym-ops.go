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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/hakangs/panoramix/vm"
)

type stepKind int

const (
	// stepNext continues with the following instruction.
	stepNext stepKind = iota
	// stepJump continues at target.
	stepJump
	// stepBranch splits the path at a conditional jump on cond.
	stepBranch
	// stepHalt ends the path.
	stepHalt
)

// stepRes represents the result of executing one instruction.
type stepRes struct {
	kind       stepKind
	target     uint64
	dest       Term
	cond       Term
	reason     string
	err        error
	returnData Term
}

func nextPcRes() stepRes {
	return stepRes{kind: stepNext}
}

func jumpRes(target uint64) stepRes {
	return stepRes{kind: stepJump, target: target}
}

func branchRes(dest, cond Term) stepRes {
	return stepRes{kind: stepBranch, dest: dest, cond: cond}
}

func haltRes(reason string) stepRes {
	return stepRes{kind: stepHalt, reason: reason}
}

// failRes ends the path with an error.
func failRes(reason string, err error) stepRes {
	return stepRes{kind: stepHalt, reason: reason, err: err}
}

// execEnv is the execution environment of a single instruction.
type execEnv struct {
	pc    uint64
	op    vm.OpCode
	code  []byte
	dests vm.JumpDests
	fold  bool
	st    *pathState
}

func (e *execEnv) unpack() (*symStack, *symMem) {
	return e.st.stack, e.st.mem
}

// execFn executes a symbolic operation. It can assume that the stack has been
// validated against the instruction's shape.
type execFn func(env *execEnv) stepRes

// symOp represents a symbolic operation.
type symOp struct {
	// valid is true if the operation has been initialized.
	valid bool
	exec  execFn
}

// symJumpTable represents a jump table for symbolic operations.
type symJumpTable [256]symOp

func fromExec(exec execFn) symOp {
	return symOp{valid: true, exec: exec}
}

var noOpOp = fromExec(func(env *execEnv) stepRes {
	return nextPcRes()
})

func makeHaltOp(reason string) symOp {
	return fromExec(func(env *execEnv) stepRes {
		return haltRes(reason)
	})
}

// makeTermOp returns an operation that replaces its operands with
// name(operands...), folded where possible.
func makeTermOp(name string, pop int) symOp {
	return fromExec(func(env *execEnv) stepRes {
		stack, _ := env.unpack()
		stack.push(reduce(name, stack.popN(pop), env.fold))
		return nextPcRes()
	})
}

// makeEnvOp returns an operation for a value provided by the execution
// environment. These are never folded.
func makeEnvOp(name string, pop int) symOp {
	return fromExec(func(env *execEnv) stepRes {
		stack, _ := env.unpack()
		stack.push(NewOp(name, stack.popN(pop)...))
		return nextPcRes()
	})
}

func makePush(size int) symOp {
	return fromExec(func(env *execEnv) stepRes {
		stack, _ := env.unpack()
		stack.push(NewLiteral(vm.PushArg(env.code, env.pc, size)))
		return nextPcRes()
	})
}

func makeDup(n int) symOp {
	return fromExec(func(env *execEnv) stepRes {
		env.st.stack.dup(n)
		return nextPcRes()
	})
}

func makeSwap(n int) symOp {
	return fromExec(func(env *execEnv) stepRes {
		env.st.stack.swap(n)
		return nextPcRes()
	})
}

func makeLog(size int) symOp {
	return fromExec(func(env *execEnv) stepRes {
		stack, mem := env.unpack()
		offset, length := stack.pop(), stack.pop()
		topics := stack.popN(size)
		env.st.record(&Log{PC: env.pc, Data: mem.load(offset, length), Topics: topics})
		return nextPcRes()
	})
}

// newSymJumpTable returns handlers for every opcode of the latest fork.
func newSymJumpTable() symJumpTable {
	jt := symJumpTable{
		vm.STOP: makeHaltOp(ReasonStop),

		vm.SHA3: fromExec(opSha3),

		vm.ADDRESS:        makeEnvOp("address", 0),
		vm.BALANCE:        makeEnvOp("balance", 1),
		vm.ORIGIN:         makeEnvOp("origin", 0),
		vm.CALLER:         makeEnvOp("caller", 0),
		vm.CALLVALUE:      makeEnvOp("callvalue", 0),
		vm.CALLDATALOAD:   makeEnvOp("calldataload", 1),
		vm.CALLDATASIZE:   makeEnvOp("calldatasize", 0),
		vm.CALLDATACOPY:   fromExec(opCallDataCopy),
		vm.CODESIZE:       fromExec(opCodeSize),
		vm.CODECOPY:       fromExec(opCodeCopy),
		vm.GASPRICE:       makeEnvOp("gasprice", 0),
		vm.EXTCODESIZE:    makeEnvOp("extcodesize", 1),
		vm.EXTCODECOPY:    fromExec(opExtCodeCopy),
		vm.RETURNDATASIZE: makeEnvOp("returndatasize", 0),
		vm.RETURNDATACOPY: fromExec(opReturnDataCopy),
		vm.EXTCODEHASH:    makeEnvOp("extcodehash", 1),

		vm.BLOCKHASH:   makeEnvOp("blockhash", 1),
		vm.COINBASE:    makeEnvOp("coinbase", 0),
		vm.TIMESTAMP:   makeEnvOp("timestamp", 0),
		vm.NUMBER:      makeEnvOp("number", 0),
		vm.DIFFICULTY:  makeEnvOp("difficulty", 0),
		vm.GASLIMIT:    makeEnvOp("gaslimit", 0),
		vm.CHAINID:     makeEnvOp("chainid", 0),
		vm.SELFBALANCE: makeEnvOp("selfbalance", 0),
		vm.BASEFEE:     makeEnvOp("basefee", 0),
		vm.BLOBHASH:    makeEnvOp("blobhash", 1),
		vm.BLOBBASEFEE: makeEnvOp("blobbasefee", 0),

		vm.POP:      fromExec(opPop),
		vm.MLOAD:    fromExec(opMload),
		vm.MSTORE:   fromExec(opMstore),
		vm.MSTORE8:  fromExec(opMstore8),
		vm.SLOAD:    fromExec(opSload),
		vm.SSTORE:   fromExec(opSstore),
		vm.JUMP:     fromExec(opJump),
		vm.JUMPI:    fromExec(opJumpi),
		vm.PC:       fromExec(opPc),
		vm.MSIZE:    fromExec(opMsize),
		vm.GAS:      makeEnvOp("gas", 0),
		vm.JUMPDEST: noOpOp,
		vm.TLOAD:    fromExec(opTload),
		vm.TSTORE:   fromExec(opTstore),
		vm.MCOPY:    fromExec(opMcopy),
		vm.PUSH0:    fromExec(opPush0),

		vm.CREATE:       fromExec(makeCreate("create", false)),
		vm.CALL:         fromExec(makeCall("call", true)),
		vm.CALLCODE:     fromExec(makeCall("callcode", true)),
		vm.RETURN:       fromExec(makeReturn(ReasonReturn)),
		vm.DELEGATECALL: fromExec(makeCall("delegatecall", false)),
		vm.CREATE2:      fromExec(makeCreate("create2", true)),
		vm.STATICCALL:   fromExec(makeCall("staticcall", false)),
		vm.REVERT:       fromExec(makeReturn(ReasonRevert)),
		vm.SELFDESTRUCT: fromExec(opSelfdestruct),
	}
	for _, op := range []vm.OpCode{vm.ADD, vm.MUL, vm.SUB, vm.DIV, vm.SDIV, vm.MOD, vm.SMOD, vm.EXP, vm.SIGNEXTEND,
		vm.LT, vm.GT, vm.SLT, vm.SGT, vm.EQ, vm.AND, vm.OR, vm.XOR, vm.BYTE, vm.SHL, vm.SHR, vm.SAR} {
		jt[op] = makeTermOp(op.String(), 2)
	}
	jt[vm.ADDMOD] = makeTermOp("addmod", 3)
	jt[vm.MULMOD] = makeTermOp("mulmod", 3)
	jt[vm.ISZERO] = makeTermOp("iszero", 1)
	jt[vm.NOT] = makeTermOp("not", 1)
	for i := 0; i < 32; i++ {
		jt[vm.PUSH1+vm.OpCode(i)] = makePush(i + 1)
	}
	for i := 0; i < 16; i++ {
		jt[vm.DUP1+vm.OpCode(i)] = makeDup(i + 1)
		jt[vm.SWAP1+vm.OpCode(i)] = makeSwap(i + 1)
	}
	for i := 0; i <= 4; i++ {
		jt[vm.LOG0+vm.OpCode(i)] = makeLog(i)
	}
	return jt
}

// checkCoverage makes sure every opcode of the instruction set has a
// symbolic counterpart.
func checkCoverage(conc *vm.JumpTable, jt *symJumpTable) error {
	for i := range conc {
		if conc[i].Valid && !jt[i].valid {
			return fmt.Errorf("no symbolic operation for %v", vm.OpCode(i))
		}
	}
	return nil
}

var defaultSymJumpTable = newSymJumpTable()

func init() {
	cancun := vm.CancunInstructionSet()
	if err := checkCoverage(&cancun, &defaultSymJumpTable); err != nil {
		panic(err)
	}
}

func opPop(env *execEnv) stepRes {
	env.st.stack.pop()
	return nextPcRes()
}

func opPush0(env *execEnv) stepRes {
	env.st.stack.push(Lit(0))
	return nextPcRes()
}

func opPc(env *execEnv) stepRes {
	env.st.stack.push(Lit(env.pc))
	return nextPcRes()
}

func opCodeSize(env *execEnv) stepRes {
	env.st.stack.push(Lit(uint64(len(env.code))))
	return nextPcRes()
}

func opMsize(env *execEnv) stepRes {
	stack, mem := env.unpack()
	stack.push(mem.msize())
	return nextPcRes()
}

func opSha3(env *execEnv) stepRes {
	stack, mem := env.unpack()
	offset, length := stack.pop(), stack.pop()
	if env.fold && !mem.isTop {
		if off, l, ok := concreteRange(offset, length); ok {
			mem.expand(off, l)
			if data, ok := mem.readBytes(off, l); ok {
				stack.push(NewLiteral(new(uint256.Int).SetBytes(crypto.Keccak256(data))))
				foldedCounter.Inc(1)
				return nextPcRes()
			}
		}
	}
	stack.push(NewOp("sha3", mem.load(offset, length)))
	return nextPcRes()
}

// setMem writes t, the term for length bytes, to memory and records it.
func setMem(env *execEnv, offset, length, t Term) {
	if isLit(length, 0) {
		return
	}
	width, _ := AsUint64(length)
	env.st.mem.store(offset, length, t, width)
	env.st.record(&SetMem{PC: env.pc, Offset: offset, Length: length, Value: t})
}

func opMload(env *execEnv) stepRes {
	stack, mem := env.unpack()
	offset := stack.pop()
	stack.push(mem.load(offset, Lit(32)))
	return nextPcRes()
}

func opMstore(env *execEnv) stepRes {
	stack, _ := env.unpack()
	offset, val := stack.pop(), stack.pop()
	setMem(env, offset, Lit(32), val)
	return nextPcRes()
}

func opMstore8(env *execEnv) stepRes {
	stack, mem := env.unpack()
	offset, val := stack.pop(), stack.pop()
	if off, ok := AsUint64(offset); ok && off <= maxMemOffset {
		mem.writeTerm(off, 1, val, 31, 32)
	} else {
		mem.setTop()
	}
	low := reduce("and", []Term{val, Lit(0xff)}, env.fold)
	env.st.record(&SetMem{PC: env.pc, Offset: offset, Length: Lit(1), Value: low})
	return nextPcRes()
}

func opCallDataCopy(env *execEnv) stepRes {
	stack, _ := env.unpack()
	memOffset, dataOffset, length := stack.pop(), stack.pop(), stack.pop()
	setMem(env, memOffset, length, NewOp("calldata", dataOffset, length))
	return nextPcRes()
}

func opReturnDataCopy(env *execEnv) stepRes {
	stack, _ := env.unpack()
	memOffset, dataOffset, length := stack.pop(), stack.pop(), stack.pop()
	setMem(env, memOffset, length, NewOp("returndata", dataOffset, length))
	return nextPcRes()
}

func opExtCodeCopy(env *execEnv) stepRes {
	stack, _ := env.unpack()
	addr, memOffset, codeOffset, length := stack.pop(), stack.pop(), stack.pop(), stack.pop()
	setMem(env, memOffset, length, NewOp("extcode", addr, codeOffset, length))
	return nextPcRes()
}

// opCodeCopy copies the actual code when the whole range is known.
func opCodeCopy(env *execEnv) stepRes {
	stack, mem := env.unpack()
	memOffset, codeOffset, length := stack.pop(), stack.pop(), stack.pop()
	t := NewOp("code", codeOffset, length)
	off, l, ok := concreteRange(memOffset, length)
	codeOff, known := AsLiteral(codeOffset)
	if !ok || !known || mem.isTop || l > maxConcreteRead {
		setMem(env, memOffset, length, t)
		return nextPcRes()
	}
	if l == 0 {
		return nextPcRes()
	}
	mem.writeBytes(off, getCode(env.code, codeOff, l))
	env.st.record(&SetMem{PC: env.pc, Offset: memOffset, Length: length, Value: t})
	return nextPcRes()
}

// getCode returns size bytes of code from start, padded with zeros past the
// end of the code.
func getCode(code []byte, start *uint256.Int, size uint64) []byte {
	if !start.IsUint64() || start.Uint64() >= uint64(len(code)) {
		return make([]byte, size)
	}
	s := start.Uint64()
	end := s + size
	if end > uint64(len(code)) {
		end = uint64(len(code))
	}
	return common.RightPadBytes(code[s:end], int(size))
}

// opMcopy moves memory within itself. A copy of zero bytes does nothing.
func opMcopy(env *execEnv) stepRes {
	stack, mem := env.unpack()
	dst, src, length := stack.pop(), stack.pop(), stack.pop()
	if isLit(length, 0) {
		return nextPcRes()
	}
	env.st.record(&SetMem{PC: env.pc, Offset: dst, Length: length, Value: NewMemoryRef(src, length)})
	mem.copyWithin(dst, src, length)
	return nextPcRes()
}

func opSload(env *execEnv) stepRes {
	stack := env.st.stack
	stack.push(env.st.storage.load(stack.pop()))
	return nextPcRes()
}

func opSstore(env *execEnv) stepRes {
	stack := env.st.stack
	slot, val := stack.pop(), stack.pop()
	env.st.storage.store(slot, val)
	env.st.record(&SStore{PC: env.pc, Slot: slot, Value: val})
	return nextPcRes()
}

func opTload(env *execEnv) stepRes {
	stack := env.st.stack
	stack.push(env.st.transient.load(stack.pop()))
	return nextPcRes()
}

func opTstore(env *execEnv) stepRes {
	stack := env.st.stack
	slot, val := stack.pop(), stack.pop()
	env.st.transient.store(slot, val)
	env.st.record(&TStore{PC: env.pc, Slot: slot, Value: val})
	return nextPcRes()
}

// resolveJump checks that dest is a literal jump destination.
func resolveJump(env *execEnv, dest Term) stepRes {
	target, ok := AsLiteral(dest)
	if !ok {
		return failRes(ReasonInvalidJumpDest, vm.ErrSymbolicTarget)
	}
	if !target.IsUint64() || !env.dests.Has(target.Uint64()) {
		return failRes(ReasonInvalidJumpDest, fmt.Errorf("%w: %v", vm.ErrInvalidJump, target.Hex()))
	}
	return jumpRes(target.Uint64())
}

func opJump(env *execEnv) stepRes {
	return resolveJump(env, env.st.stack.pop())
}

func opJumpi(env *execEnv) stepRes {
	stack := env.st.stack
	dest, cond := stack.pop(), stack.pop()
	if c, ok := AsLiteral(cond); ok {
		if c.IsZero() {
			return jumpRes(env.pc + 1)
		}
		return resolveJump(env, dest)
	}
	return branchRes(dest, cond)
}

func makeReturn(reason string) execFn {
	return func(env *execEnv) stepRes {
		stack, mem := env.unpack()
		offset, length := stack.pop(), stack.pop()
		res := haltRes(reason)
		res.returnData = mem.load(offset, length)
		return res
	}
}

func opSelfdestruct(env *execEnv) stepRes {
	env.st.record(&SelfDestruct{PC: env.pc, Beneficiary: env.st.stack.pop()})
	return haltRes(ReasonSelfDestruct)
}

// makeCall returns the operation for the call family. The pushed success
// flag stands for the whole call, and the return area is overwritten with
// data depending on it.
func makeCall(kind string, hasValue bool) execFn {
	return func(env *execEnv) stepRes {
		stack, mem := env.unpack()
		pops := 6
		if hasValue {
			pops = 7
		}
		operands := stack.popN(pops)
		gas, addr := operands[0], operands[1]
		var value Term
		rest := operands[2:]
		if hasValue {
			value, rest = operands[2], operands[3:]
		}
		argsOffset, argsLength, retOffset, retLength := rest[0], rest[1], rest[2], rest[3]
		result := NewOp(kind, operands...)
		env.st.record(&Call{
			PC:        env.pc,
			Kind:      kind,
			Gas:       gas,
			Address:   addr,
			Value:     value,
			Args:      mem.load(argsOffset, argsLength),
			RetOffset: retOffset,
			RetLength: retLength,
			Result:    result,
		})
		if !isLit(retLength, 0) {
			width, _ := AsUint64(retLength)
			mem.store(retOffset, retLength, NewOp("returndata", result, retLength), width)
		}
		stack.push(result)
		return nextPcRes()
	}
}

func makeCreate(kind string, hasSalt bool) execFn {
	return func(env *execEnv) stepRes {
		stack, mem := env.unpack()
		value, offset, length := stack.pop(), stack.pop(), stack.pop()
		operands := []Term{value, offset, length}
		var salt Term
		if hasSalt {
			salt = stack.pop()
			operands = append(operands, salt)
		}
		result := NewOp(kind, operands...)
		env.st.record(&Create{
			PC:     env.pc,
			Kind:   kind,
			Value:  value,
			Init:   mem.load(offset, length),
			Salt:   salt,
			Result: result,
		})
		stack.push(result)
		return nextPcRes()
	}
}
