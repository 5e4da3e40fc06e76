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
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUnwrittenIsZero(t *testing.T) {
	m := newSymMem()
	assert.True(t, Equal(Lit(0), m.load(Lit(0x40), Lit(32))))
	assert.True(t, Equal(Lit(0x60), m.msize()))
}

func TestMemoryWriteAfterWrite(t *testing.T) {
	m := newSymMem()
	m.writeBytes(0, bytes.Repeat([]byte{0x11}, 32))
	m.writeBytes(16, bytes.Repeat([]byte{0x22}, 32))
	require.Len(t, m.chunks, 2)

	b, ok := m.readBytes(0, 48)
	require.True(t, ok)
	assert.Equal(t, append(bytes.Repeat([]byte{0x11}, 16), bytes.Repeat([]byte{0x22}, 32)...), b)

	// A write in the middle splits the older chunk.
	m.writeBytes(20, []byte{0x33})
	b, _ = m.readBytes(16, 6)
	assert.Equal(t, []byte{0x22, 0x22, 0x22, 0x22, 0x33, 0x22}, b)
}

func TestMemoryTermChunks(t *testing.T) {
	x := NewOp("caller")
	m := newSymMem()
	m.store(Lit(0), Lit(32), x, 32)
	assert.True(t, Equal(x, m.load(Lit(0), Lit(32))))
	_, ok := m.readBytes(0, 32)
	assert.False(t, ok)

	m.writeBytes(0, []byte{0xaa})
	assert.True(t, Equal(NewOp("slice", x, Lit(1), Lit(31)), m.load(Lit(1), Lit(31))))

	word, ok := m.load(Lit(0), Lit(32)).(*Op)
	require.True(t, ok)
	assert.Equal(t, "concat", word.Name)
	require.Len(t, word.Args, 2)
	assert.True(t, Equal(NewOp("slice", Lit(0xaa), Lit(31), Lit(1)), word.Args[0]))
	assert.True(t, Equal(NewOp("slice", x, Lit(1), Lit(31)), word.Args[1]))
}

func TestMemoryLiteralWordsAreBytes(t *testing.T) {
	m := newSymMem()
	m.store(Lit(0), Lit(32), Lit(0xaabb), 32)
	b, ok := m.readBytes(30, 2)
	require.True(t, ok)
	assert.Equal(t, []byte{0xaa, 0xbb}, b)
	assert.True(t, Equal(Lit(0xaabb), m.load(Lit(0), Lit(32))))
}

func TestMemoryUnknownOffsetIsTop(t *testing.T) {
	m := newSymMem()
	m.writeBytes(0, []byte{1, 2, 3})
	off := NewOp("calldataload", Lit(0))
	m.store(off, Lit(32), Lit(1), 32)
	assert.True(t, m.isTop)
	assert.Empty(t, m.chunks)

	ref := m.load(Lit(0), Lit(32))
	assert.True(t, Equal(NewMemoryRef(Lit(0), Lit(32)), ref))
	assert.True(t, Equal(NewOp("msize"), m.msize()))

	m.writeBytes(0, []byte{1})
	assert.Empty(t, m.chunks)
}

func TestMemoryCopyOverlapping(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	m := newSymMem()
	m.writeBytes(0, data)
	m.copyWithin(Lit(2), Lit(0), Lit(6))
	b, ok := m.readBytes(0, 8)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 1, 2, 3, 4, 5, 6}, b)

	m = newSymMem()
	m.writeBytes(0, data)
	m.copyWithin(Lit(0), Lit(2), Lit(6))
	b, ok = m.readBytes(0, 8)
	require.True(t, ok)
	assert.Equal(t, []byte{3, 4, 5, 6, 7, 8, 7, 8}, b)
}

func TestMemoryCopyKeepsTerms(t *testing.T) {
	x := NewOp("caller")
	m := newSymMem()
	m.store(Lit(0), Lit(32), x, 32)
	m.copyWithin(Lit(64), Lit(0), Lit(32))
	assert.True(t, Equal(x, m.load(Lit(64), Lit(32))))

	m.copyWithin(Lit(0), Lit(0), Lit(0))
	assert.Equal(t, uint64(96), m.size)
}

func TestMemoryCopyFromUnknownSource(t *testing.T) {
	src := NewOp("calldataload", Lit(0))
	m := newSymMem()
	m.copyWithin(Lit(0), src, Lit(32))
	assert.False(t, m.isTop)
	assert.True(t, Equal(NewMemoryRef(src, Lit(32)), m.load(Lit(0), Lit(32))))
}

func TestMemoryCloneIsIndependent(t *testing.T) {
	m := newSymMem()
	m.writeBytes(0, []byte{1})
	c := m.clone()
	c.writeBytes(0, []byte{2})
	c.setTop()

	b, ok := m.readBytes(0, 1)
	require.True(t, ok)
	assert.Equal(t, []byte{1}, b)
	assert.False(t, m.isTop)
}

func TestMemoryLongReads(t *testing.T) {
	m := newSymMem()
	m.writeBytes(0, common.FromHex("0x01"))
	got := m.load(Lit(0), Lit(40))
	want := NewOp("concat",
		NewLiteral(new(uint256.Int).SetBytes(append([]byte{1}, make([]byte, 31)...))),
		NewOp("slice", Lit(0), Lit(24), Lit(8)))
	assert.True(t, Equal(want, got), "have %v", got)
}

func TestMemoryHugeRangesStaySymbolic(t *testing.T) {
	m := newSymMem()
	m.writeBytes(0, []byte{0xaa})
	n := maxConcreteRead + 1

	_, ok := m.readBytes(0, n)
	assert.False(t, ok)
	assert.True(t, Equal(NewMemoryRef(Lit(0), Lit(n)), m.load(Lit(0), Lit(n))))

	_, ok = m.readBytes(0, maxConcreteRead)
	assert.True(t, ok)

	m.copyWithin(Lit(64), Lit(0), Lit(n))
	require.False(t, m.isTop)
	assert.True(t, Equal(NewOp("slice", NewMemoryRef(Lit(0), Lit(n)), Lit(0), Lit(1)), m.load(Lit(64), Lit(1))))
}
