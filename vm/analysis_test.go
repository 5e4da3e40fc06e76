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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJumpDestAnalysis(t *testing.T) {
	tests := []struct {
		code  []byte
		exp   byte
		which int
	}{
		{[]byte{byte(PUSH1), 0x01, 0x01, 0x01}, 0b0000_0010, 0},
		{[]byte{byte(PUSH1), byte(PUSH1), byte(PUSH1), byte(PUSH1)}, 0b0000_1010, 0},
		{[]byte{0x00, byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(PUSH1)}, 0b0101_0100, 0},
		{[]byte{byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), 0x01, 0x01, 0x01}, bits(1, 2, 3, 4, 5, 6, 7), 0},
		{[]byte{byte(PUSH8), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}, 0b0000_0001, 1},
		{[]byte{0x01, 0x01, 0x01, 0x01, 0x01, byte(PUSH2), byte(PUSH2), byte(PUSH2), 0x01, 0x01, 0x01}, bits(6, 7), 0},
		{[]byte{byte(PUSH32)}, 0b1111_1110, 0},
		{[]byte{byte(PUSH0), byte(PUSH1), 0x5b}, 0b0000_0100, 0},
	}
	for i, test := range tests {
		ret := codeBitmap(test.code)
		assert.Equal(t, test.exp, ret[test.which], "test %d", i)
	}
}

func bits(pos ...int) byte {
	var b byte
	for _, p := range pos {
		b |= 1 << p
	}
	return b
}

func TestValidJumpDests(t *testing.T) {
	// PUSH1 0x5b JUMPDEST PUSH2 0x5b5b JUMPDEST
	code := []byte{byte(PUSH1), 0x5b, byte(JUMPDEST), byte(PUSH2), 0x5b, 0x5b, byte(JUMPDEST)}
	dests := ValidJumpDests(code)
	assert.False(t, dests.Has(1), "jumpdest byte inside push data")
	assert.True(t, dests.Has(2))
	assert.False(t, dests.Has(4))
	assert.False(t, dests.Has(5))
	assert.True(t, dests.Has(6))
	assert.False(t, dests.Has(7))
	assert.False(t, dests.Has(1<<40))
}
