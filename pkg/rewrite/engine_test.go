package rewrite

import (
	"testing"

	"github.com/sarrazip/cmoc6809/pkg/asm"
	"github.com/sarrazip/cmoc6809/pkg/session"
)

func instrOpcodes(s *asm.Store) []string {
	var out []string
	for i := 0; i < s.Len(); i++ {
		e := s.At(i)
		if e.Kind == asm.Instr {
			out = append(out, e.Field0)
		}
	}
	return out
}

func TestBranchToNextLocationRemoved(t *testing.T) {
	s := asm.NewStore()
	s.AppendInstr("BRA", "skip", "")
	s.AppendLabel("skip", "")
	s.AppendInstr("RTS", "", "")

	e := NewEngine()
	e.Run(s, session.New(session.TargetDiskBasic))

	if s.At(0).Kind != asm.Comment {
		t.Fatalf("expected BRA to next location to be commented out, got %v", s.At(0).Kind)
	}
}

func TestDeadCodeAfterUnconditionalBranchRemoved(t *testing.T) {
	s := asm.NewStore()
	s.AppendInstr("RTS", "", "")
	s.AppendInstr("LDA", "#1", "")

	e := NewEngine()
	e.Run(s, session.New(session.TargetDiskBasic))

	if s.At(1).Kind != asm.Comment {
		t.Fatalf("expected dead LDA after RTS to be commented out, got %v", s.At(1).Kind)
	}
}

func TestStoreThenReloadRemoved(t *testing.T) {
	s := asm.NewStore()
	s.AppendInstr("STA", "foo", "")
	s.AppendInstr("LDA", "foo", "")

	e := NewEngine()
	e.Run(s, session.New(session.TargetDiskBasic))

	if s.At(1).Kind != asm.Comment {
		t.Fatalf("expected redundant reload to be commented out, got %v", s.At(1).Kind)
	}
}

func TestConditionalBranchOverUnconditionalInverted(t *testing.T) {
	s := asm.NewStore()
	s.AppendInstr("BEQ", "L1", "")
	s.AppendInstr("BRA", "L2", "")
	s.AppendLabel("L1", "")
	s.AppendInstr("RTS", "", "")

	e := NewEngine()
	e.Run(s, session.New(session.TargetDiskBasic))

	got := s.At(0)
	if got.Kind != asm.Instr || got.Field0 != "BNE" || got.Field1 != "L2" {
		t.Fatalf("expected inverted BNE L2 at index 0, got %+v", got)
	}
	if s.At(1).Kind != asm.Comment {
		t.Fatalf("expected superseded BRA to be commented out, got %v", s.At(1).Kind)
	}
}

func TestPushOpPullCancellationRemoved(t *testing.T) {
	s := asm.NewStore()
	s.AppendInstr("PSHS", "A", "")
	s.AppendInstr("LDB", "#1", "")
	s.AppendInstr("PULS", "A", "")

	e := NewEngine()
	e.Run(s, session.New(session.TargetDiskBasic))

	if s.At(0).Kind != asm.Comment || s.At(2).Kind != asm.Comment {
		t.Fatalf("expected push/pull pair to cancel, got kinds %v %v", s.At(0).Kind, s.At(2).Kind)
	}
}

func TestDeadWriteRemoved(t *testing.T) {
	s := asm.NewStore()
	s.AppendInstr("LDA", "#1", "")
	s.AppendInstr("LDA", "#2", "")
	s.AppendInstr("RTS", "", "")

	e := NewEngine()
	e.Run(s, session.New(session.TargetDiskBasic))

	if s.At(0).Kind != asm.Comment {
		t.Fatalf("expected first dead LDA to be commented out, got %v", s.At(0).Kind)
	}
}

func TestLoadCompareZeroBranchDropsRedundantCmp(t *testing.T) {
	s := asm.NewStore()
	s.AppendInstr("LDA", "foo", "")
	s.AppendInstr("CMPA", "#0", "")
	s.AppendInstr("BEQ", "done", "")
	s.AppendLabel("done", "")
	s.AppendInstr("RTS", "", "")

	e := NewEngine()
	e.Run(s, session.New(session.TargetDiskBasic))

	if s.At(1).Kind != asm.Comment {
		t.Fatalf("expected redundant CMPA #0 to be commented out, got %v", s.At(1).Kind)
	}
}

func TestRemoveUselessLabelEliminatesUnreferencedLabel(t *testing.T) {
	s := asm.NewStore()
	s.AppendLabel("unused", "")
	s.AppendInstr("RTS", "", "")

	e := NewEngine()
	e.Run(s, session.New(session.TargetDiskBasic))

	if s.At(0).Kind != asm.Comment {
		t.Fatalf("expected unreferenced label to be commented out, got %v", s.At(0).Kind)
	}
}

func TestStage2RulesOnlyRunWhenEnabled(t *testing.T) {
	s := asm.NewStore()
	s.AppendInstr("LEAX", "2,X", "")
	s.AppendInstr("LEAX", "3,X", "")
	s.AppendInstr("RTS", "", "")

	e := NewEngine()
	sess := session.New(session.TargetDiskBasic)
	e.Run(s, sess)
	if s.At(0).Kind == asm.Comment {
		t.Fatal("stage-2 rule coalesceConsecutiveLeax should not run with EnableStage2=false")
	}

	s2 := asm.NewStore()
	s2.AppendInstr("LEAX", "2,X", "")
	s2.AppendInstr("LEAX", "3,X", "")
	s2.AppendInstr("RTS", "", "")
	sess2 := session.New(session.TargetDiskBasic)
	sess2.EnableStage2 = true
	e.Run(s2, sess2)
	if s2.At(0).Kind != asm.Comment {
		t.Fatal("expected coalesceConsecutiveLeax to fire with EnableStage2=true")
	}
	merged := s2.At(1)
	if merged.Field0 != "LEAX" || merged.Field1 != "5,X" {
		t.Fatalf("expected coalesced LEAX 5,X, got %+v", merged)
	}
}

func TestDirectAddressSubstitutionFiresThroughRun(t *testing.T) {
	s := asm.NewStore()
	s.AppendInstr("LDX", "#$2000", "")
	s.AppendInstr("LDA", ",X", "")
	s.AppendInstr("RTS", "", "")

	sess := session.New(session.TargetDiskBasic)
	sess.EnableStage2 = true
	e := NewEngine()
	e.Run(s, sess)

	got := s.At(1)
	if got.Kind != asm.Instr || got.Field0 != "LDA" || got.Field1 != "$2000" {
		t.Fatalf("element 1 = %+v, want LDA $2000 (known X substituted by the engine's own simulator pass)", got)
	}
}

func TestDirectAddressSubstitutionDeclinesHardwareRange(t *testing.T) {
	s := asm.NewStore()
	s.AppendInstr("LDX", "#$FF20", "")
	s.AppendInstr("LDA", ",X", "")
	s.AppendInstr("RTS", "", "")

	sess := session.New(session.TargetDiskBasic)
	sess.EnableStage2 = true
	e := NewEngine()
	e.Run(s, sess)

	got := s.At(1)
	if got.Kind != asm.Instr || got.Field1 != ",X" {
		t.Fatalf("element 1 = %+v, want untouched LDA ,X (address is in the $FF00+ hardware range)", got)
	}
}

func TestNonCommentInstrCountNeverIncreasesAcrossRewrite(t *testing.T) {
	s := asm.NewStore()
	s.AppendInstr("LDA", "#1", "")
	s.AppendInstr("STA", "foo", "")
	s.AppendInstr("LDA", "foo", "")
	s.AppendInstr("RTS", "", "")
	before := instrOpcodes(s)

	e := NewEngine()
	e.Run(s, session.New(session.TargetDiskBasic))
	after := instrOpcodes(s)

	if len(after) > len(before) {
		t.Fatalf("instruction count grew from %d to %d", len(before), len(after))
	}
}
