package sim

import "testing"

func TestImmediateLoadIsKnown(t *testing.T) {
	m := NewSimulator()
	m.Process("LDA", "#5", 0, false)
	if !m.State.A.KnownFlag || m.State.A.Val != 5 {
		t.Fatalf("LDA #5: A = %+v, want known 5", m.State.A)
	}
}

func TestMemoryLoadIsUnknownButProduced(t *testing.T) {
	m := NewSimulator()
	m.Process("LDA", "foo", 3, false)
	if m.State.A.KnownFlag {
		t.Fatal("LDA foo should not be statically known")
	}
	if m.State.A.Producer != 3 {
		t.Fatalf("producer = %d, want 3", m.State.A.Producer)
	}
}

func TestTFRPropagatesKnownValue(t *testing.T) {
	m := NewSimulator()
	m.Process("LDX", "#$1000", 0, false)
	m.Process("TFR", "X,Y", 1, false)
	if !m.State.Y.KnownFlag || m.State.Y.Val != 0x1000 {
		t.Fatalf("Y = %+v, want known 0x1000", m.State.Y)
	}
}

func TestEXGSwapsBothRegisters(t *testing.T) {
	m := NewSimulator()
	m.Process("LDX", "#1", 0, false)
	m.Process("LDY", "#2", 1, false)
	m.Process("EXG", "X,Y", 2, false)
	if m.State.X.Val != 2 || m.State.Y.Val != 1 {
		t.Fatalf("after EXG X,Y: X=%v Y=%v, want X=2 Y=1", m.State.X.Val, m.State.Y.Val)
	}
}

func TestPushPullRoundTripsAccumulator(t *testing.T) {
	m := NewSimulator()
	m.Process("LDA", "#42", 0, false)
	m.Process("PSHS", "A", 1, false)
	m.Process("LDA", "#0", 2, false)
	m.Process("PULS", "A", 3, false)
	if !m.State.A.KnownFlag || m.State.A.Val != 42 {
		t.Fatalf("after push/pull round trip: A = %+v, want known 42", m.State.A)
	}
	if m.State.StackDepth() != 0 {
		t.Fatalf("stack depth = %d, want 0", m.State.StackDepth())
	}
}

func TestLEAWithKnownBaseComputesOffset(t *testing.T) {
	m := NewSimulator()
	m.Process("LDX", "#100", 0, false)
	m.Process("LEAY", "4,X", 1, false)
	if !m.State.Y.KnownFlag || m.State.Y.Val != 104 {
		t.Fatalf("LEAY 4,X: Y = %+v, want known 104", m.State.Y)
	}
}

func TestLEAWithUnknownBaseIsUnknown(t *testing.T) {
	m := NewSimulator()
	m.Process("LDX", "foo", 0, false)
	m.Process("LEAY", "4,X", 1, false)
	if m.State.Y.KnownFlag {
		t.Fatal("LEAY on an unknown base should not be known")
	}
}

func TestADDAAccumulatesKnownImmediate(t *testing.T) {
	m := NewSimulator()
	m.Process("LDA", "#10", 0, false)
	m.Process("ADDA", "#5", 1, false)
	if !m.State.A.KnownFlag || m.State.A.Val != 15 {
		t.Fatalf("A after ADDA #5 = %+v, want known 15", m.State.A)
	}
}

func TestDDerivedFromAAndB(t *testing.T) {
	m := NewSimulator()
	m.Process("LDA", "#1", 0, false)
	m.Process("LDB", "#2", 1, false)
	d := m.State.D()
	if !d.KnownFlag || d.Val != 0x0102 {
		t.Fatalf("D = %+v, want known 0x0102", d)
	}
}

func TestRecordUseAndUsesOf(t *testing.T) {
	s := New()
	s.RecordUse(2, 7)
	s.RecordUse(2, 9)
	uses := s.UsesOf(2)
	if len(uses) != 2 || uses[0] != 7 || uses[1] != 9 {
		t.Fatalf("UsesOf(2) = %v, want [7 9]", uses)
	}
}

func TestLEASPullsPushedBytes(t *testing.T) {
	m := NewSimulator()
	m.Process("LDB", "#1", 0, false)
	m.Process("LDA", "#2", 1, false)
	m.Process("PSHS", "B,A", 2, false)
	if m.State.StackDepth() != 2 {
		t.Fatalf("stack depth after PSHS B,A = %d, want 2", m.State.StackDepth())
	}
	if !m.Process("LEAS", "1,S", 3, false) {
		t.Fatal("LEAS 1,S should be understood")
	}
	if m.State.StackDepth() != 1 {
		t.Fatalf("stack depth after LEAS 1,S = %d, want 1", m.State.StackDepth())
	}
}

func TestLEASPushesUnknownBytesOnNegativeOffset(t *testing.T) {
	m := NewSimulator()
	m.Process("LDS", "#$4000", 0, false)
	if !m.Process("LEAS", "-2,S", 1, false) {
		t.Fatal("LEAS -2,S should be understood")
	}
	if m.State.StackDepth() != 2 {
		t.Fatalf("stack depth after LEAS -2,S = %d, want 2", m.State.StackDepth())
	}
	if !m.State.S.KnownFlag || m.State.S.Val != 0x3FFE {
		t.Fatalf("S after LEAS -2,S = %+v, want known 0x3FFE", m.State.S)
	}
}

func TestLEASUnderflowFailsWithoutIgnoreStackErrors(t *testing.T) {
	m := NewSimulator()
	if m.Process("LEAS", "2,S", 0, false) {
		t.Fatal("LEAS 2,S with nothing pushed should fail when ignoreStackErrors is false")
	}
}

func TestLEASUnderflowToleratedWithIgnoreStackErrors(t *testing.T) {
	m := NewSimulator()
	if !m.Process("LEAS", "2,S", 0, true) {
		t.Fatal("LEAS 2,S with nothing pushed should be tolerated when ignoreStackErrors is true")
	}
	if m.State.StackDepth() != 0 {
		t.Fatalf("stack depth = %d, want 0 (nothing to pull)", m.State.StackDepth())
	}
}

func TestLEASFromOtherRegisterIsNotAStackOp(t *testing.T) {
	m := NewSimulator()
	m.Process("LDX", "#100", 0, false)
	if !m.Process("LEAS", "4,X", 1, false) {
		t.Fatal("LEAS 4,X should be understood")
	}
	if !m.State.S.KnownFlag || m.State.S.Val != 104 {
		t.Fatalf("S after LEAS 4,X = %+v, want known 104", m.State.S)
	}
	if m.State.StackDepth() != 0 {
		t.Fatalf("stack depth = %d, want 0 (LEAS 4,X doesn't touch the tracked stack)", m.State.StackDepth())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := NewSimulator()
	m.Process("LDA", "#1", 0, false)
	clone := m.State.Clone()
	m.Process("LDA", "#2", 1, false)
	if clone.A.Val != 1 {
		t.Fatalf("clone.A = %v, want 1 (unaffected by later mutation)", clone.A.Val)
	}
}
