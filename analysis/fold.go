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
	"github.com/holiman/uint256"
)

// foldFn evaluates an opcode on concrete operands given top of stack first.
// It must not modify its arguments.
type foldFn func(args []*uint256.Int) *uint256.Int

func binaryOp(f func(z, x, y *uint256.Int) *uint256.Int) foldFn {
	return func(args []*uint256.Int) *uint256.Int {
		return f(new(uint256.Int), args[0], args[1])
	}
}

func compare(f func(x, y *uint256.Int) bool) foldFn {
	return func(args []*uint256.Int) *uint256.Int {
		if f(args[0], args[1]) {
			return uint256.NewInt(1)
		}
		return new(uint256.Int)
	}
}

// folders follows the semantics of the go-ethereum instruction set.
var folders = map[string]foldFn{
	"add":  binaryOp((*uint256.Int).Add),
	"mul":  binaryOp((*uint256.Int).Mul),
	"sub":  binaryOp((*uint256.Int).Sub),
	"div":  binaryOp((*uint256.Int).Div),
	"sdiv": binaryOp((*uint256.Int).SDiv),
	"mod":  binaryOp((*uint256.Int).Mod),
	"smod": binaryOp((*uint256.Int).SMod),
	"exp":  binaryOp((*uint256.Int).Exp),
	"and":  binaryOp((*uint256.Int).And),
	"or":   binaryOp((*uint256.Int).Or),
	"xor":  binaryOp((*uint256.Int).Xor),
	"addmod": func(args []*uint256.Int) *uint256.Int {
		return new(uint256.Int).AddMod(args[0], args[1], args[2])
	},
	"mulmod": func(args []*uint256.Int) *uint256.Int {
		return new(uint256.Int).MulMod(args[0], args[1], args[2])
	},
	"signextend": func(args []*uint256.Int) *uint256.Int {
		return new(uint256.Int).ExtendSign(args[1], args[0])
	},
	"lt":  compare((*uint256.Int).Lt),
	"gt":  compare((*uint256.Int).Gt),
	"slt": compare((*uint256.Int).Slt),
	"sgt": compare((*uint256.Int).Sgt),
	"eq":  compare((*uint256.Int).Eq),
	"iszero": func(args []*uint256.Int) *uint256.Int {
		if args[0].IsZero() {
			return uint256.NewInt(1)
		}
		return new(uint256.Int)
	},
	"not": func(args []*uint256.Int) *uint256.Int {
		return new(uint256.Int).Not(args[0])
	},
	"byte": func(args []*uint256.Int) *uint256.Int {
		return new(uint256.Int).Set(args[1]).Byte(args[0])
	},
	"shl": func(args []*uint256.Int) *uint256.Int {
		shift, value := args[0], args[1]
		if shift.LtUint64(256) {
			return new(uint256.Int).Lsh(value, uint(shift.Uint64()))
		}
		return new(uint256.Int)
	},
	"shr": func(args []*uint256.Int) *uint256.Int {
		shift, value := args[0], args[1]
		if shift.LtUint64(256) {
			return new(uint256.Int).Rsh(value, uint(shift.Uint64()))
		}
		return new(uint256.Int)
	},
	"sar": func(args []*uint256.Int) *uint256.Int {
		shift, value := args[0], args[1]
		if shift.GtUint64(255) {
			if value.Sign() >= 0 {
				return new(uint256.Int)
			}
			return new(uint256.Int).Not(new(uint256.Int))
		}
		return new(uint256.Int).SRsh(value, uint(shift.Uint64()))
	},
}

// foldLiterals evaluates name when every operand is a literal.
func foldLiterals(name string, args []Term) (*Literal, bool) {
	f, ok := folders[name]
	if !ok {
		return nil, false
	}
	vals := make([]*uint256.Int, len(args))
	for i, a := range args {
		v, ok := AsLiteral(a)
		if !ok {
			return nil, false
		}
		vals[i] = v
	}
	return NewLiteral(f(vals)), true
}
