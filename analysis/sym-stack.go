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
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"golang.org/x/crypto/sha3"

	"github.com/hakangs/panoramix/vm"
)

// symStack is an EVM stack of symbolic terms. Terms are immutable, so a clone
// only copies the slice.
type symStack struct {
	data []Term
}

func newSymStack() *symStack {
	return &symStack{data: make([]Term, 0, 16)}
}

func (s *symStack) len() int {
	return len(s.data)
}

func (s *symStack) push(t Term) {
	s.data = append(s.data, t)
}

func (s *symStack) pop() Term {
	t := s.data[len(s.data)-1]
	s.data[len(s.data)-1] = nil
	s.data = s.data[:len(s.data)-1]
	return t
}

// popN pops n terms and returns them top of stack first.
func (s *symStack) popN(n int) []Term {
	ts := make([]Term, n)
	for i := range ts {
		ts[i] = s.pop()
	}
	return ts
}

// back returns the n'th item from the top; back(0) is the top.
func (s *symStack) back(n int) Term {
	return s.data[len(s.data)-n-1]
}

// dup pushes a copy of the n'th item, counting from 1 as DUPn does.
func (s *symStack) dup(n int) {
	s.push(s.back(n - 1))
}

// swap exchanges the top with the (n+1)'th item, as SWAPn does.
func (s *symStack) swap(n int) {
	top := len(s.data) - 1
	s.data[top], s.data[top-n] = s.data[top-n], s.data[top]
}

func (s *symStack) clone() *symStack {
	data := make([]Term, len(s.data), cap(s.data))
	copy(data, s.data)
	return &symStack{data: data}
}

// terms returns the stack contents bottom first.
func (s *symStack) terms() []Term {
	ts := make([]Term, len(s.data))
	copy(ts, s.data)
	return ts
}

// validate checks that an instruction popping pops and pushing pushes items
// can run on the stack.
func (s *symStack) validate(pops, pushes int) error {
	if sLen := s.len(); sLen < pops {
		return &vm.ErrStackUnderflow{StackLen: sLen, Required: pops}
	} else if sLen-pops+pushes > int(params.StackLimit) {
		return &vm.ErrStackOverflow{StackLen: sLen, Limit: int(params.StackLimit)}
	}
	return nil
}

// signature identifies the pair of a program counter and this stack. Two
// states with equal signatures behave identically from here on, except for
// memory and storage.
func (s *symStack) signature(pc uint64) common.Hash {
	hasher := sha3.NewLegacyKeccak256()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], pc)
	hasher.Write(buf[:])
	for _, t := range s.data {
		h := t.Hash()
		hasher.Write(h[:])
	}
	var sig common.Hash
	hasher.Sum(sig[:0])
	return sig
}
