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

// booleanOps always evaluate to 0 or 1.
var booleanOps = map[string]bool{
	"lt":     true,
	"gt":     true,
	"slt":    true,
	"sgt":    true,
	"eq":     true,
	"iszero": true,
}

// isBoolean determines if t is known to be either 0 or 1.
func isBoolean(t Term) bool {
	switch t := t.(type) {
	case *Literal:
		return t.Value.LtUint64(2)
	case *Op:
		return booleanOps[t.Name]
	}
	return false
}

func isLit(t Term, v uint64) bool {
	l, ok := t.(*Literal)
	return ok && l.Value.IsUint64() && l.Value.Uint64() == v
}

func isAllOnes(t Term) bool {
	l, ok := t.(*Literal)
	if !ok {
		return false
	}
	for _, w := range l.Value {
		if w != ^uint64(0) {
			return false
		}
	}
	return true
}

func unwrap(t Term, name string) (Term, bool) {
	if o, ok := t.(*Op); ok && o.Name == name && len(o.Args) == 1 {
		return o.Args[0], true
	}
	return nil, false
}

// simplify applies peephole rewrites that keep the value of o. Operands are
// top of stack first, so sub(x, y) is x - y.
func simplify(o *Op) Term {
	a := o.Args
	switch o.Name {
	case "add":
		if isLit(a[0], 0) {
			return a[1]
		}
		if isLit(a[1], 0) {
			return a[0]
		}
	case "sub":
		if isLit(a[1], 0) {
			return a[0]
		}
		if Equal(a[0], a[1]) {
			return Lit(0)
		}
	case "mul":
		if isLit(a[0], 0) || isLit(a[1], 0) {
			return Lit(0)
		}
		if isLit(a[0], 1) {
			return a[1]
		}
		if isLit(a[1], 1) {
			return a[0]
		}
	case "div":
		if isLit(a[1], 1) {
			return a[0]
		}
	case "and":
		if isLit(a[0], 0) || isLit(a[1], 0) {
			return Lit(0)
		}
		if isAllOnes(a[0]) {
			return a[1]
		}
		if isAllOnes(a[1]) || Equal(a[0], a[1]) {
			return a[0]
		}
	case "or":
		if isLit(a[0], 0) {
			return a[1]
		}
		if isLit(a[1], 0) || Equal(a[0], a[1]) {
			return a[0]
		}
	case "xor":
		if isLit(a[0], 0) {
			return a[1]
		}
		if isLit(a[1], 0) {
			return a[0]
		}
		if Equal(a[0], a[1]) {
			return Lit(0)
		}
	case "eq":
		if Equal(a[0], a[1]) {
			return Lit(1)
		}
	case "iszero":
		// iszero(iszero(c)) is c only if c is already 0 or 1.
		if inner, ok := unwrap(a[0], "iszero"); ok && isBoolean(inner) {
			return inner
		}
	case "not":
		if inner, ok := unwrap(a[0], "not"); ok {
			return inner
		}
	case "shl", "shr", "sar":
		if isLit(a[0], 0) {
			return a[1]
		}
	}
	return o
}

// reduce builds name(args...), evaluating it when all operands are literals
// and fold is set.
func reduce(name string, args []Term, fold bool) Term {
	if !fold {
		return NewOp(name, args...)
	}
	if l, ok := foldLiterals(name, args); ok {
		foldedCounter.Inc(1)
		return l
	}
	return simplify(NewOp(name, args...))
}
