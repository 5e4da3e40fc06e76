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
	"sort"

	"github.com/holiman/uint256"
)

// maxMemOffset bounds concrete offsets. Ranges ending beyond it are handled as
// if their offset was unknown.
var maxMemOffset = MagicUInt64(1 << 32)

// maxConcreteRead bounds the ranges whose bytes are built one by one. Longer
// reads are described by a MemoryRef and longer copies by a term chunk.
var maxConcreteRead = MagicUInt64(1 << 16)

// memChunk is a run of size bytes starting at start. It either holds concrete
// bytes, or bytes [skip, skip+size) of the big-endian encoding of term, which
// is width bytes long.
type memChunk struct {
	start uint64
	size  uint64
	bytes []byte
	term  Term
	skip  uint64
	width uint64
}

func (c memChunk) end() uint64 {
	return c.start + c.size
}

func (c memChunk) isConcrete() bool {
	return c.term == nil
}

// cut returns the part of c within [from, to), which must overlap c.
func (c memChunk) cut(from, to uint64) memChunk {
	if from < c.start {
		from = c.start
	}
	if to > c.end() {
		to = c.end()
	}
	n := memChunk{start: from, size: to - from, term: c.term, width: c.width}
	if c.isConcrete() {
		n.bytes = c.bytes[from-c.start : to-c.start]
	} else {
		n.skip = c.skip + (from - c.start)
	}
	return n
}

// asTerm returns the term for the bytes of c.
func (c memChunk) asTerm() Term {
	if c.isConcrete() {
		return bytesTerm(c.bytes)
	}
	if c.skip == 0 && c.size == c.width {
		return c.term
	}
	return NewOp("slice", c.term, Lit(c.skip), Lit(c.size))
}

// bytesTerm represents concrete bytes. Up to 32 bytes become a literal when
// they fill a word, or the tail of a literal otherwise. Longer runs are
// concatenated words.
func bytesTerm(b []byte) Term {
	if len(b) <= 32 {
		v := NewLiteral(new(uint256.Int).SetBytes(b))
		if len(b) == 32 {
			return v
		}
		return NewOp("slice", v, Lit(uint64(32-len(b))), Lit(uint64(len(b))))
	}
	var parts []Term
	for len(b) > 0 {
		n := len(b)
		if n > 32 {
			n = 32
		}
		parts = append(parts, bytesTerm(b[:n]))
		b = b[n:]
	}
	return NewOp("concat", parts...)
}

// symMem is a byte addressed memory whose contents are pieces of terms.
// Memory is top once something was written at an unknown location; from then
// on nothing is known about any byte.
type symMem struct {
	isTop  bool
	chunks []memChunk // sorted by start, non-overlapping
	size   uint64
}

func newSymMem() *symMem {
	return &symMem{}
}

// clone does a copy of the memory. Chunks never change in place, so they can
// be shared.
func (m *symMem) clone() *symMem {
	chunks := make([]memChunk, len(m.chunks))
	copy(chunks, m.chunks)
	return &symMem{isTop: m.isTop, chunks: chunks, size: m.size}
}

func (m *symMem) setTop() {
	m.isTop = true
	m.chunks = nil
}

// concreteRange resolves a memory range with literal bounds.
func concreteRange(offset, length Term) (uint64, uint64, bool) {
	off, ok1 := AsUint64(offset)
	l, ok2 := AsUint64(length)
	if !ok1 || !ok2 || off > maxMemOffset || l > maxMemOffset {
		return 0, 0, false
	}
	return off, l, true
}

// expand grows the active size of memory to cover the given range, rounded up
// to words.
func (m *symMem) expand(offset, length uint64) {
	if length == 0 {
		return
	}
	if end := (offset + length + 31) / 32 * 32; end > m.size {
		m.size = end
	}
}

// msize returns the memory size term.
func (m *symMem) msize() Term {
	if m.isTop {
		return NewOp("msize")
	}
	return Lit(m.size)
}

// write stores c, replacing whatever overlaps it.
func (m *symMem) write(c memChunk) {
	if c.size == 0 || m.isTop {
		return
	}
	m.expand(c.start, c.size)
	var out []memChunk
	for _, old := range m.chunks {
		if old.end() <= c.start || c.end() <= old.start {
			out = append(out, old)
			continue
		}
		if old.start < c.start {
			out = append(out, old.cut(old.start, c.start))
		}
		if c.end() < old.end() {
			out = append(out, old.cut(c.end(), old.end()))
		}
	}
	out = append(out, c)
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	m.chunks = out
}

func (m *symMem) writeBytes(offset uint64, data []byte) {
	m.write(memChunk{start: offset, size: uint64(len(data)), bytes: data})
}

// writeTerm stores bytes [skip, skip+size) of t at offset. Literal words are
// stored as their bytes.
func (m *symMem) writeTerm(offset, size uint64, t Term, skip, width uint64) {
	if l, ok := t.(*Literal); ok && width == 32 {
		b := l.Value.Bytes32()
		m.writeBytes(offset, b[skip:skip+size])
		return
	}
	m.write(memChunk{start: offset, size: size, term: t, skip: skip, width: width})
}

// store writes t, which describes length bytes, at the given range. A range
// that cannot be resolved makes memory top.
func (m *symMem) store(offset, length Term, t Term, width uint64) {
	if m.isTop {
		return
	}
	off, l, ok := concreteRange(offset, length)
	if !ok {
		m.setTop()
		return
	}
	m.writeTerm(off, l, t, 0, width)
}

// pieces returns chunks covering [offset, offset+length) exactly, with starts
// relative to offset. Unwritten bytes are zero.
func (m *symMem) pieces(offset, length uint64) []memChunk {
	var out []memChunk
	pos := offset
	end := offset + length
	gap := func(to uint64) {
		if pos < to {
			out = append(out, memChunk{start: pos - offset, size: to - pos, bytes: make([]byte, to-pos)})
		}
	}
	for _, c := range m.chunks {
		if c.end() <= pos {
			continue
		}
		if end <= c.start {
			break
		}
		gap(c.start)
		p := c.cut(pos, end)
		pos = p.end()
		p.start -= offset
		out = append(out, p)
	}
	gap(end)
	return out
}

// readBytes returns the bytes of a range if they are all concrete.
func (m *symMem) readBytes(offset, length uint64) ([]byte, bool) {
	if m.isTop || length > maxConcreteRead {
		return nil, false
	}
	out := make([]byte, 0, length)
	for _, p := range m.pieces(offset, length) {
		if !p.isConcrete() {
			return nil, false
		}
		out = append(out, p.bytes...)
	}
	return out, true
}

// load returns a term describing the contents of the given range.
func (m *symMem) load(offset, length Term) Term {
	if m.isTop {
		return NewMemoryRef(offset, length)
	}
	off, l, ok := concreteRange(offset, length)
	if !ok {
		return NewMemoryRef(offset, length)
	}
	m.expand(off, l)
	return m.loadAt(off, l)
}

func (m *symMem) loadAt(offset, length uint64) Term {
	if length > maxConcreteRead {
		return NewMemoryRef(Lit(offset), Lit(length))
	}
	if length <= 32 {
		if b, ok := m.readBytes(offset, length); ok {
			return NewLiteral(new(uint256.Int).SetBytes(b))
		}
	}
	ps := m.pieces(offset, length)
	if len(ps) == 1 {
		return ps[0].asTerm()
	}
	// Neighbouring concrete pieces are merged first.
	var parts []Term
	var run []byte
	for _, p := range ps {
		if p.isConcrete() {
			run = append(run, p.bytes...)
			continue
		}
		if len(run) > 0 {
			parts = append(parts, bytesTerm(run))
			run = nil
		}
		parts = append(parts, p.asTerm())
	}
	if len(run) > 0 {
		parts = append(parts, bytesTerm(run))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return NewOp("concat", parts...)
}

// copyWithin copies length bytes from src to dst. The source is read in full
// before anything is written, so overlapping ranges behave like memmove.
func (m *symMem) copyWithin(dst, src, length Term) {
	if m.isTop {
		return
	}
	d, l, ok := concreteRange(dst, length)
	if !ok {
		m.setTop()
		return
	}
	if l == 0 {
		return
	}
	s, _, ok := concreteRange(src, length)
	if !ok || l > maxConcreteRead {
		m.writeTerm(d, l, NewMemoryRef(src, length), 0, l)
		return
	}
	m.expand(s, l)
	for _, p := range m.pieces(s, l) {
		p.start += d
		m.write(p)
	}
}
