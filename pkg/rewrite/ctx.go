// Package rewrite implements the fixed-point peephole rewrite engine: a
// table of rules tried in fixed priority order against a sliding index
// into the element store, repeated until a full pass changes nothing.
//
// Grounded on pkg/search/pruner.go's predicate style — each
// rule here is a free function taking a window of elements and deciding
// whether to act, the same shape as ShouldPrune deciding whether to skip a
// candidate — generalized from "skip or don't" to "rewrite or don't", and
// on original_source/src/ASMText.h's ~80 private peephole methods (listed
// at lines 122-192), one Rule per method, renamed to this package's
// vocabulary.
package rewrite

import (
	"github.com/sarrazip/cmoc6809/pkg/asm"
	"github.com/sarrazip/cmoc6809/pkg/block"
	"github.com/sarrazip/cmoc6809/pkg/session"
	"github.com/sarrazip/cmoc6809/pkg/sim"
)

// Ctx bundles everything a Rule needs to inspect and mutate one function's
// worth of elements.
type Ctx struct {
	Store  *asm.Store
	Blocks []block.Block
	Sim    *sim.Simulator
	Sess   *session.Session
}

// Instr returns the (opcode, operand) pair at index, or ("","") if index
// is out of range or the element there is not an instruction — so rules
// can probe past the end of the store without bounds-checking first.
func (c *Ctx) Instr(index int) (opcode, operand string) {
	if index < 0 || index >= c.Store.Len() {
		return "", ""
	}
	e := c.Store.At(index)
	if e.Kind != asm.Instr {
		return "", ""
	}
	return e.Field0, e.Field1
}

// NextInstrIndex returns the index of the next Instr element at or after
// from, skipping Comment and Separator elements, or -1 if any other
// element (a Label, inline assembly, a section or function marker, ...)
// or the end of the store comes first (a rule must not skip over a label:
// that would change control-flow semantics, per the window-matching
// rules).
func (c *Ctx) NextInstrIndex(from int) int {
	for i := from; i < c.Store.Len(); i++ {
		e := c.Store.At(i)
		switch e.Kind {
		case asm.Instr:
			return i
		case asm.Label:
			return -1
		case asm.Comment, asm.Separator:
			continue
		default:
			return -1
		}
	}
	return -1
}

// LabelBetween reports whether a Label element sits anywhere in (start, end],
// i.e. whether anything in that open range could be a branch target —
// used by rules that must not assume fallthrough across a labeled
// instruction even when nothing branches to it *yet*.
func (c *Ctx) LabelBetween(start, end int) bool {
	for i := start + 1; i <= end && i < c.Store.Len(); i++ {
		if c.Store.At(i).Kind == asm.Label {
			return true
		}
	}
	return false
}
