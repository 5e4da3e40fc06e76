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
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Term is a symbolic value. Terms are immutable once built and compared
// structurally: two terms built from equal inputs have the same Hash and are
// interchangeable, so they may be shared freely between paths.
type Term interface {
	// Hash is a digest over the structure of the term.
	Hash() common.Hash
	String() string
	term()
}

func (*Literal) term()             {}
func (*Op) term()                  {}
func (*MemoryRef) term()           {}
func (*StorageRef) term()          {}
func (*TransientStorageRef) term() {}

// Digest tags keep the variants apart.
const (
	tagLiteral byte = iota + 1
	tagOp
	tagMemoryRef
	tagStorageRef
	tagTransientRef
)

// Literal is a concrete 256-bit word.
type Literal struct {
	Value uint256.Int
	hash  common.Hash
}

// NewLiteral copies v into a literal term.
func NewLiteral(v *uint256.Int) *Literal {
	l := &Literal{Value: *v}
	b := v.Bytes32()
	l.hash = crypto.Keccak256Hash([]byte{tagLiteral}, b[:])
	return l
}

// Lit is a shorthand for small literals.
func Lit(v uint64) *Literal {
	return NewLiteral(uint256.NewInt(v))
}

func (l *Literal) Hash() common.Hash { return l.hash }
func (l *Literal) String() string    { return l.Value.Hex() }

// Op is an operation applied to operands, for example an opcode applied to
// the values it popped (top of stack first). Zero operand ops stand for values
// only known at execution time, like blobbasefee.
type Op struct {
	Name string
	Args []Term
	hash common.Hash
}

// NewOp builds an operation term.
func NewOp(name string, args ...Term) *Op {
	parts := make([][]byte, 0, len(args)+2)
	parts = append(parts, []byte{tagOp}, append([]byte(name), 0))
	for _, a := range args {
		h := a.Hash()
		parts = append(parts, h[:])
	}
	return &Op{Name: name, Args: args, hash: crypto.Keccak256Hash(parts...)}
}

func (o *Op) Hash() common.Hash { return o.hash }
func (o *Op) String() string    { return render(o, 0) }

// MemoryRef stands for the contents of a memory range that could not be
// resolved to something more precise.
type MemoryRef struct {
	Offset Term
	Length Term
	hash   common.Hash
}

// NewMemoryRef builds a memory range reference.
func NewMemoryRef(offset, length Term) *MemoryRef {
	o, l := offset.Hash(), length.Hash()
	return &MemoryRef{Offset: offset, Length: length, hash: crypto.Keccak256Hash([]byte{tagMemoryRef}, o[:], l[:])}
}

func (m *MemoryRef) Hash() common.Hash { return m.hash }
func (m *MemoryRef) String() string    { return render(m, 0) }

// StorageRef is the unknown value a storage slot held before the path wrote it.
type StorageRef struct {
	Slot Term
	hash common.Hash
}

// NewStorageRef builds a storage slot reference.
func NewStorageRef(slot Term) *StorageRef {
	s := slot.Hash()
	return &StorageRef{Slot: slot, hash: crypto.Keccak256Hash([]byte{tagStorageRef}, s[:])}
}

func (s *StorageRef) Hash() common.Hash { return s.hash }
func (s *StorageRef) String() string    { return render(s, 0) }

// TransientStorageRef is the unknown value a transient slot held before the
// path wrote it.
type TransientStorageRef struct {
	Slot Term
	hash common.Hash
}

// NewTransientStorageRef builds a transient storage slot reference.
func NewTransientStorageRef(slot Term) *TransientStorageRef {
	s := slot.Hash()
	return &TransientStorageRef{Slot: slot, hash: crypto.Keccak256Hash([]byte{tagTransientRef}, s[:])}
}

func (s *TransientStorageRef) Hash() common.Hash { return s.hash }
func (s *TransientStorageRef) String() string    { return render(s, 0) }

// Equal reports structural equality.
func Equal(a, b Term) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Hash() == b.Hash()
}

// AsLiteral returns the value of a literal term.
func AsLiteral(t Term) (*uint256.Int, bool) {
	if l, ok := t.(*Literal); ok {
		return &l.Value, true
	}
	return nil, false
}

// AsUint64 returns the value of a literal term that fits in 64 bits.
func AsUint64(t Term) (uint64, bool) {
	v, ok := AsLiteral(t)
	if !ok || !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}

// IsLiteral reports whether t is a Literal.
func IsLiteral(t Term) bool {
	_, ok := t.(*Literal)
	return ok
}

// maxRenderDepth keeps String output bounded for terms that share subterms.
var maxRenderDepth = MagicInt(12)

func render(t Term, depth int) string {
	if depth > maxRenderDepth {
		return "…"
	}
	switch t := t.(type) {
	case *Literal:
		return t.String()
	case *Op:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = render(a, depth+1)
		}
		return fmt.Sprintf("%s(%s)", t.Name, strings.Join(args, ", "))
	case *MemoryRef:
		return fmt.Sprintf("mem[%s len %s]", render(t.Offset, depth+1), render(t.Length, depth+1))
	case *StorageRef:
		return fmt.Sprintf("stor[%s]", render(t.Slot, depth+1))
	case *TransientStorageRef:
		return fmt.Sprintf("tstor[%s]", render(t.Slot, depth+1))
	case nil:
		return "<nil>"
	default:
		panic(fmt.Sprintf("unknown term %T", t))
	}
}
