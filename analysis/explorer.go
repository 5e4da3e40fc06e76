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
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/hakangs/panoramix/vm"
)

var errRevisited = errors.New("state already explored")

// Config holds the exploration limits. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// Fork selects the instruction set, e.g. "shanghai". Empty means cancun.
	Fork string `toml:"fork"`
	// MaxPaths bounds the number of paths, including the initial one.
	MaxPaths int `toml:"max_paths"`
	// MaxTraceLength bounds the trace of each path.
	MaxTraceLength int `toml:"max_trace_length"`
	// MaxSteps bounds the number of instructions a path executes, counting
	// those of its ancestors.
	MaxSteps int `toml:"max_steps"`
	// Workers is the number of paths executed in parallel. Results do not
	// depend on it.
	Workers int `toml:"workers"`
	// FoldConstants evaluates operations on literals and simplifies terms.
	FoldConstants bool `toml:"fold_constants"`
	// MaxExportDepth is the depth at which exported terms are cut.
	MaxExportDepth int `toml:"max_export_depth"`
}

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return Config{
		Fork:           "cancun",
		MaxPaths:       MagicInt(4096),
		MaxTraceLength: MagicInt(4096),
		MaxSteps:       MagicInt(100000),
		Workers:        MagicInt(1),
		FoldConstants:  MagicBool(true),
		MaxExportDepth: MagicInt(64),
	}
}

// Validate checks the configuration for values the explorer cannot run with.
func (c Config) Validate() error {
	if _, err := vm.LookupInstructionSet(c.Fork); err != nil {
		return err
	}
	switch {
	case c.MaxPaths < 1:
		return fmt.Errorf("max paths must be positive, have %d", c.MaxPaths)
	case c.MaxTraceLength < 1:
		return fmt.Errorf("max trace length must be positive, have %d", c.MaxTraceLength)
	case c.MaxSteps < 1:
		return fmt.Errorf("max steps must be positive, have %d", c.MaxSteps)
	case c.Workers < 0:
		return fmt.Errorf("workers must not be negative, have %d", c.Workers)
	case c.MaxExportDepth < 1:
		return fmt.Errorf("max export depth must be positive, have %d", c.MaxExportDepth)
	}
	return nil
}

// Explorer enumerates the execution paths of EVM programs.
type Explorer struct {
	cfg  Config
	conc vm.JumpTable
	jt   symJumpTable
}

// NewExplorer creates an explorer for the given configuration.
func NewExplorer(cfg Config) (*Explorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conc, err := vm.LookupInstructionSet(cfg.Fork)
	if err != nil {
		return nil, err
	}
	e := &Explorer{cfg: cfg, conc: conc, jt: defaultSymJumpTable}
	if err := checkCoverage(&e.conc, &e.jt); err != nil {
		return nil, err
	}
	return e, nil
}

// Config returns the configuration of the explorer.
func (e *Explorer) Config() Config {
	return e.cfg
}

// outcome is the result of running a path until it halts or branches.
type outcome struct {
	res   stepRes
	steps int
}

// Explore runs code from pc 0 with empty stack, memory and storage and
// returns every path it found. Paths are explored breadth first, one segment
// per path and round, where a segment ends when the path halts or reaches a
// conditional jump on an unknown condition. New paths are admitted between
// rounds in queue order, so the result does not depend on Workers.
//
// The only error returned is the one of ctx.
func (e *Explorer) Explore(ctx context.Context, code []byte) (*Result, error) {
	start := time.Now()
	in := newInterpreter(code, &e.conc, &e.jt, e.cfg.FoldConstants)
	res := newResult()

	nextID := 1
	queue := []*pathState{newPathState(0)}
	for 0 < len(queue) {
		outcomes, err := e.runRound(ctx, in, queue)
		if err != nil {
			return nil, err
		}
		var next []*pathState
		for i, st := range queue {
			out := outcomes[i]
			res.numSteps += uint64(out.steps)
			if out.res.kind == stepHalt {
				e.archive(res, st, out.res)
				continue
			}
			next = append(next, e.branch(res, in, st, out.res, &nextID)...)
		}
		queue = next
	}

	sort.Slice(res.Paths, func(i, j int) bool { return res.Paths[i].ID < res.Paths[j].ID })
	stepsCounter.Inc(int64(res.numSteps))
	log.Debug("Exploration finished", "paths", res.NumPaths(), "failed", res.NumFail(), "steps", res.numSteps,
		"elapsed", common.PrettyDuration(time.Since(start)))
	return res, nil
}

// runRound runs one segment for each path in the queue.
func (e *Explorer) runRound(ctx context.Context, in *interpreter, queue []*pathState) ([]outcome, error) {
	outcomes := make([]outcome, len(queue))
	if e.cfg.Workers <= 1 {
		for i, st := range queue {
			out, err := e.runSegment(ctx, in, st)
			if err != nil {
				return nil, err
			}
			outcomes[i] = out
		}
		return outcomes, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, st := range queue {
		i, st := i, st
		g.Go(func() error {
			out, err := e.runSegment(gctx, in, st)
			outcomes[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// ctxCheckInterval is the number of steps between checks for cancellation.
var ctxCheckInterval = MagicInt(1024)

// runSegment executes st until it halts or branches. Jumps that lead to a
// state the path has seen before end it.
func (e *Explorer) runSegment(ctx context.Context, in *interpreter, st *pathState) (outcome, error) {
	steps := 0
	for {
		if steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return outcome{}, err
			}
		}
		if e.cfg.MaxSteps <= st.steps {
			return outcome{failRes(ReasonPathLimitExceeded, fmt.Errorf("%w: %d steps", vm.ErrPathLimit, st.steps)), steps}, nil
		}
		if fail, ok := e.traceExceeded(st); ok {
			return outcome{fail, steps}, nil
		}
		res := in.step(st)
		steps++
		switch res.kind {
		case stepNext:
			st.pc = in.nextPC(st.pc)
		case stepJump:
			if !st.markVisited(res.target) {
				return outcome{failRes(ReasonRevisited, errRevisited), steps}, nil
			}
			st.pc = res.target
		case stepHalt:
			// The halting instruction may have added the entry that breaks the limit.
			if fail, ok := e.traceExceeded(st); ok {
				return outcome{fail, steps}, nil
			}
			return outcome{res, steps}, nil
		default:
			return outcome{res, steps}, nil
		}
	}
}

// traceExceeded returns the failure of a path whose trace is longer than
// allowed.
func (e *Explorer) traceExceeded(st *pathState) (stepRes, bool) {
	if len(st.trace) <= e.cfg.MaxTraceLength {
		return stepRes{}, false
	}
	return failRes(ReasonPathLimitExceeded, fmt.Errorf("%w: %d trace entries", vm.ErrPathLimit, len(st.trace))), true
}

// branch splits st at the conditional jump it stopped at. The path itself
// continues with the fall through and a new path takes the jump. Successors
// already seen by the path are dropped; if both are, the path ends.
func (e *Explorer) branch(res *Result, in *interpreter, st *pathState, out stepRes, nextID *int) []*pathState {
	pc := st.pc
	fallPC := pc + 1
	fallOK := !st.visited.Contains(st.stack.signature(fallPC))

	target, known := AsLiteral(out.dest)
	validTarget := known && target.IsUint64() && in.dests.Has(target.Uint64())
	takenOK := true
	if validTarget {
		takenOK = !st.visited.Contains(st.stack.signature(target.Uint64()))
	}

	take := func(s *pathState) []*pathState {
		s.record(&Branch{PC: pc, Cond: out.cond, Taken: true})
		if !validTarget {
			fail, ok := e.traceExceeded(s)
			if !ok {
				// Reuse the checks of an unconditional jump for the error.
				fail = resolveJump(&execEnv{pc: pc, dests: in.dests}, out.dest)
			}
			e.archive(res, s, fail)
			return nil
		}
		s.markVisited(target.Uint64())
		s.pc = target.Uint64()
		return []*pathState{s}
	}
	fall := func(s *pathState) []*pathState {
		s.record(&Branch{PC: pc, Cond: out.cond, Taken: false})
		s.markVisited(fallPC)
		s.pc = fallPC
		return []*pathState{s}
	}

	switch {
	case !fallOK && !takenOK:
		e.archive(res, st, failRes(ReasonRevisited, errRevisited))
		return nil
	case !fallOK:
		return take(st)
	case !takenOK:
		return fall(st)
	}
	if e.cfg.MaxPaths <= *nextID {
		e.archive(res, st, failRes(ReasonPathLimitExceeded, fmt.Errorf("%w: %d paths", vm.ErrPathLimit, *nextID)))
		return nil
	}
	child := st.fork(*nextID)
	*nextID++
	return append(fall(st), take(child)...)
}

// archive records the final state of a path.
func (e *Explorer) archive(res *Result, st *pathState, out stepRes) {
	p := &PathResult{
		ID:         st.id,
		Parent:     st.parent,
		Reason:     out.reason,
		Err:        out.err,
		PC:         st.pc,
		Stack:      st.stack.terms(),
		Trace:      st.trace,
		ReturnData: out.returnData,
	}
	res.Paths = append(res.Paths, p)
	pathsCounter.Inc(1)
	if p.Failed() {
		res.recordFailure(p.Reason)
		failedCounter.Inc(1)
	} else {
		res.recordSuccess()
	}
	logPathResult(p)
}
