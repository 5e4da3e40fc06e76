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
	"github.com/ethereum/go-ethereum/common"
)

type slotEntry struct {
	slot  Term
	value Term
}

// slotMap holds the slots a path wrote, in the order they were first
// written. Slots are matched structurally: two different terms are assumed to
// name different slots.
type slotMap struct {
	index   map[common.Hash]int
	entries []slotEntry
	// ref builds the value of a slot that was never written.
	ref func(slot Term) Term
}

func newStorage() *slotMap {
	return &slotMap{
		index: map[common.Hash]int{},
		ref:   func(slot Term) Term { return NewStorageRef(slot) },
	}
}

func newTransientStorage() *slotMap {
	return &slotMap{
		index: map[common.Hash]int{},
		ref:   func(slot Term) Term { return NewTransientStorageRef(slot) },
	}
}

func (s *slotMap) load(slot Term) Term {
	if i, ok := s.index[slot.Hash()]; ok {
		return s.entries[i].value
	}
	return s.ref(slot)
}

func (s *slotMap) store(slot, value Term) {
	if i, ok := s.index[slot.Hash()]; ok {
		s.entries[i].value = value
		return
	}
	s.index[slot.Hash()] = len(s.entries)
	s.entries = append(s.entries, slotEntry{slot: slot, value: value})
}

func (s *slotMap) clone() *slotMap {
	index := make(map[common.Hash]int, len(s.index))
	for k, v := range s.index {
		index[k] = v
	}
	entries := make([]slotEntry, len(s.entries))
	copy(entries, s.entries)
	return &slotMap{index: index, entries: entries, ref: s.ref}
}
