package selftest

import (
	"strconv"
	"strings"
	"testing"

	"github.com/sarrazip/cmoc6809/pkg/asm"
	"github.com/sarrazip/cmoc6809/pkg/rewrite"
)

func TestCombineConsecutiveOpsIsEquivalent(t *testing.T) {
	s := asm.NewStore()
	s.AppendInstr("LDA", "#1", "")
	s.AppendInstr("ADDA", "#2", "")
	s.AppendInstr("ADDA", "#3", "")

	results := CheckRule(s, rewrite.Rule{Name: "combineConsecutiveOps", Apply: combineConsecutiveOpsForTest})
	if len(results) == 0 {
		t.Fatal("expected the rule to fire at least once")
	}
	for _, r := range results {
		if r.Checked && !r.Equivalent {
			t.Errorf("rule at index %d reported non-equivalent rewrite", r.Index)
		}
	}
}

func TestCheckRuleNeverMutatesOriginalStore(t *testing.T) {
	s := asm.NewStore()
	s.AppendInstr("LDA", "#1", "")
	before := s.At(0)

	CheckRule(s, rewrite.Rule{Name: "noop", Apply: func(*rewrite.Ctx, int) bool { return false }})

	if s.At(0) != before {
		t.Fatal("CheckRule must not mutate the store it was given")
	}
}

// combineConsecutiveOpsForTest mirrors pkg/rewrite's unexported rule of
// the same name closely enough to exercise the harness without exporting
// rewrite internals just for this test.
func combineConsecutiveOpsForTest(c *rewrite.Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "ADDA" {
		return false
	}
	v1, err := strconv.Atoi(strings.TrimPrefix(operand, "#"))
	if err != nil {
		return false
	}
	j := c.NextInstrIndex(i + 1)
	if j == -1 {
		return false
	}
	nop, noperand := c.Instr(j)
	if nop != "ADDA" {
		return false
	}
	v2, err := strconv.Atoi(strings.TrimPrefix(noperand, "#"))
	if err != nil {
		return false
	}
	c.Store.ReplaceWithInstr(j, "ADDA", "#"+strconv.Itoa(v1+v2), "combined")
	c.Store.CommentOut(i, "combined")
	return true
}
