// Package selftest fuzzes a rewrite rule's effect against a fixed battery
// of register/stack test vectors, the closest idiomatic equivalent this
// single-threaded, no-emulator core can offer to "run both sequences on a
// real 6809 and compare" on actual hardware.
//
// Grounded on pkg/search/verifier.go — TestVectors,
// QuickCheck, Fingerprint — restructured around pkg/sim.Simulator instead
// of a concrete cpu.State/Exec pair, since this package's rewrite rules
// operate on symbolic (possibly-unknown) values rather than a fully
// concrete machine state.
package selftest

import (
	"github.com/sarrazip/cmoc6809/pkg/asm"
	"github.com/sarrazip/cmoc6809/pkg/rewrite"
	"github.com/sarrazip/cmoc6809/pkg/sim"
)

// Vector is one fixed starting condition for the registers a rewrite
// rule's window might read, the 6809 analogue of cpu.State's
// TestVectors entries.
type Vector struct {
	A, B   uint8
	X, Y   uint16
	U, S   uint16
}

// Vectors are the fixed inputs checked against every rule — deliberately
// small and including the all-zero, all-ones, and alternating-bit-pattern
// shapes TestVectors uses, since those are the inputs most
// likely to expose an off-by-one in a bitmask or offset computation.
var Vectors = []Vector{
	{A: 0x00, B: 0x00, X: 0x0000, Y: 0x0000, U: 0x0000, S: 0x0000},
	{A: 0xFF, B: 0xFF, X: 0xFFFF, Y: 0xFFFF, U: 0xFFFF, S: 0xFFFF},
	{A: 0x01, B: 0x02, X: 0x1000, Y: 0x2000, U: 0x3000, S: 0x4000},
	{A: 0x80, B: 0x40, X: 0x8000, Y: 0x4000, U: 0x2000, S: 0x1000},
	{A: 0x55, B: 0xAA, X: 0x5555, Y: 0xAAAA, U: 0x5A5A, S: 0xA5A5},
}

func seed(v Vector) *sim.Simulator {
	m := sim.NewSimulator()
	m.State.A = sim.KnownVal(v.A, -1)
	m.State.B = sim.KnownVal(v.B, -1)
	m.State.X = sim.KnownVal(v.X, -1)
	m.State.Y = sim.KnownVal(v.Y, -1)
	m.State.U = sim.KnownVal(v.U, -1)
	m.State.S = sim.KnownVal(v.S, -1)
	return m
}

// run simulates elems[start:end] against v, returning the resulting state
// and whether every instruction in the window was fully understood. A
// false "understood" return means the window contains something (a
// memory-addressed load, a call, inline assembly) this simulator does not
// model precisely enough to found an equivalence check on.
func run(elems []asm.Element, start, end int, v Vector) (*sim.State, bool) {
	m := seed(v)
	understood := true
	for i := start; i < end; i++ {
		e := elems[i]
		if e.Kind != asm.Instr {
			continue
		}
		if !m.Process(e.Field0, e.Field1, i, true) {
			understood = false
		}
	}
	return m.State, understood
}

// Result reports what happened when a rule was tried at one index.
type Result struct {
	RuleName   string
	Index      int
	Fired      bool
	Checked    bool // false: the window wasn't simulatable enough to compare
	Equivalent bool
}

// stateSnapshot is a vector's worth of known-register values, comparable
// with ==, the 6809 analogue of Fingerprint bytes.
type stateSnapshot struct {
	a, b       sim.Known[uint8]
	x, y, u, s sim.Known[uint16]
}

func snapshot(s *sim.State) stateSnapshot {
	return stateSnapshot{a: s.A, b: s.B, x: s.X, y: s.Y, u: s.U, s: s.S}
}

// knownEqual compares only the fields both snapshots report as known —
// an unknown value on either side is never grounds for declaring the
// rewrite wrong, since "unknown" means this simulator simply didn't track
// it, not that the rewrite disagrees.
func knownEqual(before, after stateSnapshot) bool {
	eq8 := func(a, b sim.Known[uint8]) bool {
		return !(a.KnownFlag && b.KnownFlag) || a.Val == b.Val
	}
	eq16 := func(a, b sim.Known[uint16]) bool {
		return !(a.KnownFlag && b.KnownFlag) || a.Val == b.Val
	}
	return eq8(before.a, after.a) && eq8(before.b, after.b) &&
		eq16(before.x, after.x) && eq16(before.y, after.y) &&
		eq16(before.u, after.u) && eq16(before.s, after.s)
}

// CheckRule tries rule at every index of store and, for every index where
// it fires, simulates the whole store before and after the rewrite against
// each of Vectors and compares the final states. It never mutates store:
// each trial runs against a fresh Clone.
func CheckRule(store *asm.Store, rule rewrite.Rule) []Result {
	var results []Result
	beforeElems := store.Elements()

	for i := 0; i < store.Len(); i++ {
		clone := store.Clone()
		ctx := &rewrite.Ctx{Store: clone}
		if !rule.Apply(ctx, i) {
			continue
		}
		r := Result{RuleName: rule.Name, Index: i, Fired: true, Equivalent: true}
		afterElems := clone.Elements()

		checkedAny := false
		for _, v := range Vectors {
			beforeState, beforeOK := run(beforeElems, 0, len(beforeElems), v)
			afterState, afterOK := run(afterElems, 0, len(afterElems), v)
			if !beforeOK || !afterOK {
				continue
			}
			checkedAny = true
			if !knownEqual(snapshot(beforeState), snapshot(afterState)) {
				r.Equivalent = false
			}
		}
		r.Checked = checkedAny
		results = append(results, r)
	}
	return results
}

// CheckAll runs CheckRule for every rule in rules and concatenates the
// results, in rule order.
func CheckAll(store *asm.Store, rules []rewrite.Rule) []Result {
	var all []Result
	for _, r := range rules {
		all = append(all, CheckRule(store, r)...)
	}
	return all
}
