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

	"github.com/stretchr/testify/assert"
)

func TestSlotMap(t *testing.T) {
	s := newStorage()
	x := NewOp("caller")
	assert.True(t, Equal(NewStorageRef(x), s.load(x)))

	s.store(x, Lit(1))
	s.store(Lit(0), Lit(2))
	s.store(NewOp("caller"), Lit(3))
	assert.Len(t, s.entries, 2)
	assert.True(t, Equal(Lit(3), s.load(x)))
	assert.True(t, Equal(x, s.entries[0].slot), "slots keep first write order")

	c := s.clone()
	c.store(Lit(0), Lit(4))
	c.store(Lit(9), Lit(9))
	assert.True(t, Equal(Lit(2), s.load(Lit(0))))
	assert.Len(t, s.entries, 2)

	ts := newTransientStorage()
	assert.True(t, Equal(NewTransientStorageRef(x), ts.load(x)))
}
