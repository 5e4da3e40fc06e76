// Copyright 2022 The go-ethereum Authors
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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModernForkOpcodes(t *testing.T) {
	jt := CancunInstructionSet()
	tests := []struct {
		b     byte
		name  string
		delta int
	}{
		{0x49, "blobhash", 0},
		{0x4a, "blobbasefee", 1},
		{0x5c, "tload", 0},
		{0x5d, "tstore", -2},
		{0x5e, "mcopy", -3},
		{0x5f, "push0", 1},
	}
	for _, tt := range tests {
		op := jt.Lookup(tt.b)
		assert.True(t, op.Valid, "%#x", tt.b)
		assert.Equal(t, tt.name, op.Name, "%#x", tt.b)
		assert.Equal(t, tt.delta, op.StackDelta(), "%#x", tt.b)

		delta, ok := jt.StackDelta(tt.name)
		assert.True(t, ok)
		assert.Equal(t, tt.delta, delta)
	}
}

func TestLookupUnmapped(t *testing.T) {
	jt := CancunInstructionSet()
	for _, b := range []byte{0x0c, 0x21, 0xef, 0xfe} {
		op := jt.Lookup(b)
		assert.False(t, op.Valid, "%#x", b)
		assert.Equal(t, "invalid", op.Name)
		assert.Equal(t, 0, op.StackDelta())
	}
	_, ok := jt.StackDelta("nosuchop")
	assert.False(t, ok)
}

func TestForkLayering(t *testing.T) {
	shanghai, err := LookupInstructionSet("shanghai")
	require.NoError(t, err)
	assert.True(t, shanghai[PUSH0].Valid)
	assert.False(t, shanghai[TLOAD].Valid)
	assert.False(t, shanghai[BLOBHASH].Valid)

	london, err := LookupInstructionSet("London")
	require.NoError(t, err)
	assert.False(t, london[PUSH0].Valid)
	assert.True(t, london[BASEFEE].Valid)

	frontier, err := LookupInstructionSet("frontier")
	require.NoError(t, err)
	assert.False(t, frontier[DELEGATECALL].Valid)
	assert.False(t, frontier[REVERT].Valid)

	def, err := LookupInstructionSet("")
	require.NoError(t, err)
	assert.Equal(t, CancunInstructionSet(), def)

	_, err = LookupInstructionSet("prague")
	assert.Error(t, err)
	assert.Contains(t, Forks(), "cancun")
}

func TestStackShapes(t *testing.T) {
	jt := CancunInstructionSet()
	assert.Equal(t, 1, jt[DUP1].StackDelta())
	assert.Equal(t, 17, jt[SWAP16].Pops)
	assert.Equal(t, 0, jt[SWAP16].StackDelta())
	assert.Equal(t, -6, jt[LOG4].StackDelta())
	assert.Equal(t, -6, jt[CALL].StackDelta())
	assert.Equal(t, 32, jt[PUSH32].Immediate)
	assert.Equal(t, "push32", jt[PUSH32].Name)
	assert.True(t, jt[JUMPI].Jumps)
	assert.True(t, jt[REVERT].Halts)
}
