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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allOnes() *Literal {
	return NewLiteral(new(uint256.Int).Not(new(uint256.Int)))
}

func TestFoldLiterals(t *testing.T) {
	tests := []struct {
		name string
		args []Term
		want Term
	}{
		{"add", []Term{Lit(2), Lit(3)}, Lit(5)},
		{"sub", []Term{Lit(5), Lit(3)}, Lit(2)},
		{"sub", []Term{Lit(0), Lit(1)}, allOnes()},
		{"div", []Term{Lit(7), Lit(0)}, Lit(0)},
		{"div", []Term{Lit(7), Lit(2)}, Lit(3)},
		{"exp", []Term{Lit(2), Lit(10)}, Lit(1024)},
		{"addmod", []Term{Lit(10), Lit(10), Lit(8)}, Lit(4)},
		{"mulmod", []Term{Lit(10), Lit(10), Lit(0)}, Lit(0)},
		{"lt", []Term{Lit(1), Lit(2)}, Lit(1)},
		{"gt", []Term{Lit(1), Lit(2)}, Lit(0)},
		{"slt", []Term{allOnes(), Lit(0)}, Lit(1)},
		{"eq", []Term{Lit(3), Lit(3)}, Lit(1)},
		{"iszero", []Term{Lit(0)}, Lit(1)},
		{"not", []Term{Lit(0)}, allOnes()},
		{"byte", []Term{Lit(31), Lit(0xff)}, Lit(0xff)},
		{"byte", []Term{Lit(0), Lit(0xff)}, Lit(0)},
		{"shl", []Term{Lit(1), Lit(1)}, Lit(2)},
		{"shl", []Term{Lit(256), Lit(1)}, Lit(0)},
		{"shr", []Term{Lit(4), Lit(0xff)}, Lit(0x0f)},
		{"sar", []Term{Lit(300), allOnes()}, allOnes()},
		{"sar", []Term{Lit(300), Lit(5)}, Lit(0)},
		{"signextend", []Term{Lit(0), Lit(0xff)}, allOnes()},
		{"signextend", []Term{Lit(0), Lit(0x7f)}, Lit(0x7f)},
	}
	for _, tt := range tests {
		got := reduce(tt.name, tt.args, true)
		assert.True(t, Equal(tt.want, got), "%s%v: have %v, want %v", tt.name, tt.args, got, tt.want)
	}
}

func TestFoldingDisabled(t *testing.T) {
	got := reduce("add", []Term{Lit(1), Lit(2)}, false)
	op, ok := got.(*Op)
	require.True(t, ok)
	assert.Equal(t, "add", op.Name)

	x := NewOp("caller")
	assert.True(t, Equal(NewOp("add", x, Lit(0)), reduce("add", []Term{x, Lit(0)}, false)))
}

func TestEnvironmentValuesNotFolded(t *testing.T) {
	for _, name := range []string{"blobhash", "blobbasefee", "calldataload", "sha3", "balance"} {
		assert.NotContains(t, folders, name)
	}
	got := reduce("blobhash", []Term{Lit(0)}, true)
	assert.False(t, IsLiteral(got))
}

func TestSimplify(t *testing.T) {
	x := NewOp("calldataload", Lit(0))
	y := NewOp("caller")
	cond := NewOp("eq", x, y)
	tests := []struct {
		name string
		args []Term
		want Term
	}{
		{"add", []Term{x, Lit(0)}, x},
		{"add", []Term{Lit(0), x}, x},
		{"sub", []Term{x, Lit(0)}, x},
		{"sub", []Term{x, x}, Lit(0)},
		{"mul", []Term{x, Lit(1)}, x},
		{"mul", []Term{Lit(0), x}, Lit(0)},
		{"div", []Term{x, Lit(1)}, x},
		{"and", []Term{x, allOnes()}, x},
		{"and", []Term{allOnes(), x}, x},
		{"and", []Term{x, Lit(0)}, Lit(0)},
		{"or", []Term{x, Lit(0)}, x},
		{"xor", []Term{x, x}, Lit(0)},
		{"eq", []Term{x, x}, Lit(1)},
		{"iszero", []Term{NewOp("iszero", cond)}, cond},
		{"not", []Term{NewOp("not", x)}, x},
		{"shl", []Term{Lit(0), x}, x},
		// Not boolean, so the double negation is kept.
		{"iszero", []Term{NewOp("iszero", x)}, NewOp("iszero", NewOp("iszero", x))},
		{"add", []Term{x, y}, NewOp("add", x, y)},
	}
	for _, tt := range tests {
		got := reduce(tt.name, tt.args, true)
		assert.True(t, Equal(tt.want, got), "%s%v: have %v, want %v", tt.name, tt.args, got, tt.want)
	}
}
