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
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fxamacker/cbor/v2"
)

// TermNode is the exported form of a term.
type TermNode struct {
	// Kind is one of literal, op, memory, storage, transient or truncated.
	Kind  string      `json:"kind"`
	Value string      `json:"value,omitempty"`
	Name  string      `json:"name,omitempty"`
	Args  []*TermNode `json:"args,omitempty"`
	// Hash identifies a truncated term.
	Hash string `json:"hash,omitempty"`
}

// EntryNode is the exported form of a trace entry. Only the fields of the
// entry's kind are set.
type EntryNode struct {
	Kind        string      `json:"kind"`
	PC          uint64      `json:"pc"`
	Op          string      `json:"op,omitempty"`
	Offset      *TermNode   `json:"offset,omitempty"`
	Length      *TermNode   `json:"length,omitempty"`
	Slot        *TermNode   `json:"slot,omitempty"`
	Value       *TermNode   `json:"value,omitempty"`
	Data        *TermNode   `json:"data,omitempty"`
	Topics      []*TermNode `json:"topics,omitempty"`
	Gas         *TermNode   `json:"gas,omitempty"`
	Address     *TermNode   `json:"address,omitempty"`
	Args        *TermNode   `json:"args,omitempty"`
	RetOffset   *TermNode   `json:"ret_offset,omitempty"`
	RetLength   *TermNode   `json:"ret_length,omitempty"`
	Init        *TermNode   `json:"init,omitempty"`
	Salt        *TermNode   `json:"salt,omitempty"`
	Result      *TermNode   `json:"result,omitempty"`
	Beneficiary *TermNode   `json:"beneficiary,omitempty"`
	Cond        *TermNode   `json:"cond,omitempty"`
	Taken       *bool       `json:"taken,omitempty"`
}

// PathNode is the exported form of a path.
type PathNode struct {
	ID         int          `json:"id"`
	Parent     int          `json:"parent"`
	Reason     string       `json:"reason"`
	Error      string       `json:"error,omitempty"`
	PC         uint64       `json:"pc"`
	Stack      []*TermNode  `json:"stack"`
	Trace      []*EntryNode `json:"trace"`
	ReturnData *TermNode    `json:"return_data,omitempty"`
}

// Report is the exported form of a Result.
type Report struct {
	Paths         []*PathNode       `json:"paths"`
	NumPaths      uint64            `json:"num_paths"`
	NumFailed     uint64            `json:"num_failed"`
	NumSteps      uint64            `json:"num_steps"`
	FailureCauses map[string]uint64 `json:"failure_causes"`
}

// maxExportNodes bounds the size of one exported term. Terms share subterms,
// so their tree form can be exponentially larger than the terms themselves.
var maxExportNodes = MagicInt(4096)

type exporter struct {
	maxDepth int
	budget   int
}

// Export converts r into a plain tree. Terms deeper than maxDepth are
// replaced by truncated nodes.
func Export(r *Result, maxDepth int) *Report {
	x := &exporter{maxDepth: maxDepth}
	rep := &Report{
		NumPaths:      r.NumPaths(),
		NumFailed:     r.NumFail(),
		NumSteps:      r.NumSteps(),
		FailureCauses: r.FailureCauses(),
	}
	for _, p := range r.Paths {
		rep.Paths = append(rep.Paths, x.path(p))
	}
	return rep
}

func (x *exporter) path(p *PathResult) *PathNode {
	n := &PathNode{
		ID:         p.ID,
		Parent:     p.Parent,
		Reason:     p.Reason,
		PC:         p.PC,
		Stack:      make([]*TermNode, len(p.Stack)),
		Trace:      make([]*EntryNode, len(p.Trace)),
		ReturnData: x.term(p.ReturnData),
	}
	if p.Err != nil {
		n.Error = p.Err.Error()
	}
	for i, t := range p.Stack {
		n.Stack[i] = x.term(t)
	}
	for i, e := range p.Trace {
		n.Trace[i] = x.entry(e)
	}
	return n
}

func (x *exporter) entry(e TraceEntry) *EntryNode {
	n := &EntryNode{PC: e.Location()}
	switch e := e.(type) {
	case *SetMem:
		n.Kind = "setmem"
		n.Offset, n.Length, n.Value = x.term(e.Offset), x.term(e.Length), x.term(e.Value)
	case *SStore:
		n.Kind = "sstore"
		n.Slot, n.Value = x.term(e.Slot), x.term(e.Value)
	case *TStore:
		n.Kind = "tstore"
		n.Slot, n.Value = x.term(e.Slot), x.term(e.Value)
	case *Log:
		n.Kind = "log"
		n.Data = x.term(e.Data)
		n.Topics = make([]*TermNode, len(e.Topics))
		for i, t := range e.Topics {
			n.Topics[i] = x.term(t)
		}
	case *Call:
		n.Kind = "call"
		n.Op = e.Kind
		n.Gas, n.Address, n.Value = x.term(e.Gas), x.term(e.Address), x.term(e.Value)
		n.Args, n.RetOffset, n.RetLength = x.term(e.Args), x.term(e.RetOffset), x.term(e.RetLength)
		n.Result = x.term(e.Result)
	case *Create:
		n.Kind = "create"
		n.Op = e.Kind
		n.Value, n.Init, n.Salt = x.term(e.Value), x.term(e.Init), x.term(e.Salt)
		n.Result = x.term(e.Result)
	case *SelfDestruct:
		n.Kind = "selfdestruct"
		n.Beneficiary = x.term(e.Beneficiary)
	case *Branch:
		n.Kind = "branch"
		n.Cond = x.term(e.Cond)
		taken := e.Taken
		n.Taken = &taken
	}
	return n
}

// term exports t with a fresh node budget.
func (x *exporter) term(t Term) *TermNode {
	if t == nil {
		return nil
	}
	x.budget = maxExportNodes
	return x.node(t, 0)
}

func (x *exporter) node(t Term, depth int) *TermNode {
	if depth >= x.maxDepth || x.budget <= 0 {
		return &TermNode{Kind: "truncated", Hash: t.Hash().Hex()}
	}
	x.budget--
	switch t := t.(type) {
	case *Literal:
		return &TermNode{Kind: "literal", Value: t.Value.Hex()}
	case *Op:
		n := &TermNode{Kind: "op", Name: t.Name}
		for _, a := range t.Args {
			n.Args = append(n.Args, x.node(a, depth+1))
		}
		return n
	case *MemoryRef:
		return &TermNode{Kind: "memory", Args: []*TermNode{x.node(t.Offset, depth+1), x.node(t.Length, depth+1)}}
	case *StorageRef:
		return &TermNode{Kind: "storage", Args: []*TermNode{x.node(t.Slot, depth+1)}}
	case *TransientStorageRef:
		return &TermNode{Kind: "transient", Args: []*TermNode{x.node(t.Slot, depth+1)}}
	}
	return &TermNode{Kind: "truncated", Hash: t.Hash().Hex()}
}

// JSON encodes the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// cborEncMode sorts map keys, so equal reports encode to equal bytes.
var cborEncMode, _ = cbor.CoreDetEncOptions().EncMode()

// CBOR encodes the report as deterministic CBOR.
func (r *Report) CBOR() ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// DecodeReport decodes a report from CBOR.
func DecodeReport(data []byte) (*Report, error) {
	r := new(Report)
	if err := cbor.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}

// TermHex is a short form of a term for logs: the value of literals, the
// digest of anything else.
func TermHex(t Term) string {
	if l, ok := t.(*Literal); ok {
		return l.Value.Hex()
	}
	return hexutil.Encode(t.Hash().Bytes()[:8])
}
