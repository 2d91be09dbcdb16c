package rewrite

import (
	"github.com/sarrazip/cmoc6809/pkg/asm"
	"github.com/sarrazip/cmoc6809/pkg/block"
	"github.com/sarrazip/cmoc6809/pkg/session"
	"github.com/sarrazip/cmoc6809/pkg/sim"
)

// Rule is one peephole rewrite: Apply inspects the element(s) at and
// around index and, if its precondition matches, mutates the store and
// returns true.
type Rule struct {
	Name  string
	Apply func(*Ctx, int) bool
}

// Engine drives the fixed-point rewrite pass over one function's elements.
type Engine struct {
	Stage1Rules []Rule
	Stage2Rules []Rule

	// Report, if non-nil, accumulates a Firing for every successful rule
	// application across Run — a build driving several functions through
	// one Engine can share a Report to total savings across the unit.
	Report *Report
}

// NewEngine returns an Engine loaded with both the stage-1 and the stage-2
// catalogs; Run applies the stage-2 rules only when sess.EnableStage2.
func NewEngine() *Engine {
	return &Engine{Stage1Rules: Stage1Rules(), Stage2Rules: Stage2Rules()}
}

// Stats reports how many passes a Run made and how many times each rule
// fired, for diagnostics (the CLI's optimize command prints it).
type Stats struct {
	Passes     int
	RulesFired map[string]int
}

// Run repeats a full pass over store — removing useless labels, then
// trying every applicable rule at every index in fixed priority order —
// until a pass changes nothing.
//
// Grounded on ASMText::peepholeOptimize's outer "keep looping until a pass
// makes no change" structure (original_source/src/ASMText.cpp:440 on).
func (e *Engine) Run(store *asm.Store, sess *session.Session) Stats {
	stats := Stats{RulesFired: make(map[string]int)}
	ctx := &Ctx{Store: store, Sess: sess}

	rules := append(append([]Rule{}, e.Stage1Rules...), stage2If(sess, e.Stage2Rules)...)

	for {
		stats.Passes++
		changed := removeUselessLabels(store)

		// Basic blocks are rebuilt at the top of every pass: a prior
		// rule's comment-out/replace mutates elements in place without
		// changing indices, so block boundaries from an earlier pass
		// still line up, but rebuilding keeps this honest rather than
		// relying on that.
		ctx.Blocks = block.Build(store.Elements(), 0, store.Len())
		curBlock := -1
		ctx.Sim = sim.NewSimulator()

		for i := 0; i < store.Len(); i++ {
			if bi := block.IndexOf(ctx.Blocks, i); bi != curBlock {
				curBlock = bi
				ctx.Sim = sim.NewSimulator() // no state carries across a block boundary
			}

			for _, r := range rules {
				before := store.At(i)
				if r.Apply(ctx, i) {
					stats.RulesFired[r.Name]++
					changed = true
					if e.Report != nil && before.Kind == asm.Instr {
						e.Report.Add(Firing{RuleName: r.Name, Index: i, BytesSaved: estimateBytesSaved(before.Field0)})
					}
				}
			}

			// Advance the simulator past i's (possibly just-rewritten)
			// instruction so the next index sees accurate register state.
			// ignoreStackErrors=true: a rewrite rule may have left a
			// window the simulator can't fully reconstruct mid-pass; that
			// must not abort simulating the rest of the block. An
			// instruction Process does not model (false return) or an
			// inline-assembly blob may change any register, so the
			// simulator restarts from all-unknown after it.
			switch elem := store.At(i); elem.Kind {
			case asm.Instr:
				if !ctx.Sim.Process(elem.Field0, elem.Field1, i, true) {
					ctx.Sim = sim.NewSimulator()
				}
			case asm.InlineAsm:
				ctx.Sim = sim.NewSimulator()
			}
		}
		if !changed {
			return stats
		}
	}
}

func stage2If(sess *session.Session, rules []Rule) []Rule {
	if sess != nil && sess.EnableStage2 {
		return rules
	}
	return nil
}

// removeUselessLabels comments out any Label element nothing refers to.
// A label is useless once the store's LabelIndex table no longer finds a
// live referrer — this implementation takes the conservative approach of
// scanning every Instr operand for the label's name, since branch
// operands are plain strings rather than resolved references .
func removeUselessLabels(store *asm.Store) bool {
	used := map[string]bool{}
	for i := 0; i < store.Len(); i++ {
		e := store.At(i)
		if e.Kind == asm.Instr && e.Field1 != "" {
			used[e.Field1] = true
		}
	}
	changed := false
	for i := 0; i < store.Len(); i++ {
		e := store.At(i)
		if e.Kind == asm.Label && !used[e.Field0] {
			store.CommentOut(i, "unreferenced label "+e.Field0)
			store.RemoveLabel(e.Field0)
			changed = true
		}
	}
	return changed
}
