package effects

import "testing"

func TestLoadWritesDestinationOnly(t *testing.T) {
	read, written := Effects("LDA", "foo", "")
	if written != A {
		t.Errorf("LDA foo: written = %v, want A", written)
	}
	if read&A != 0 {
		t.Errorf("LDA foo: read should not include A, got %v", read)
	}
}

func TestIndexedOperandCreditsIndexRegister(t *testing.T) {
	read, _ := Effects("LDA", ",X", "")
	if read&X == 0 {
		t.Errorf("LDA ,X should read X, got %v", read)
	}
}

func TestIndirectOperandCreditsBothRegisters(t *testing.T) {
	read, _ := Effects("LDD", "[B,X]", "")
	if read&B == 0 || read&X == 0 {
		t.Errorf("LDD [B,X] should read both B and X, got %v", read)
	}
}

func TestTFRCreditsReadAndWrite(t *testing.T) {
	read, written := Effects("TFR", "X,Y", "")
	if read != X {
		t.Errorf("TFR X,Y: read = %v, want X", read)
	}
	if written != Y {
		t.Errorf("TFR X,Y: written = %v, want Y", written)
	}
}

func TestEXGCreditsBothDirections(t *testing.T) {
	read, written := Effects("EXG", "A,B", "")
	if read != (A | B) {
		t.Errorf("EXG A,B: read = %v, want A|B", read)
	}
	if written != (A | B) {
		t.Errorf("EXG A,B: written = %v, want A|B", written)
	}
}

func TestPSHSParsesRegisterList(t *testing.T) {
	read, written := Effects("PSHS", "A,B,X", "")
	want := A | B | X
	if read != want {
		t.Errorf("PSHS A,B,X: read = %v, want %v", read, want)
	}
	if written != 0 {
		t.Errorf("PSHS should not write registers unless CC is listed, got %v", written)
	}
}

func TestPSHSCCExposesFlags(t *testing.T) {
	_, written := Effects("PSHS", "CC,A", "")
	if written&CC == 0 {
		t.Error("PSHS CC,A should set CC in written (flags exposed to stored register)")
	}
}

func TestALUDoesNotExposeCC(t *testing.T) {
	_, written := Effects("ADDA", "#1", "")
	if written&CC != 0 {
		t.Error("ADDA must not set CC in written — flag updates are not 'exposed' per package contract")
	}
}

func TestConditionalBranchReadsCC(t *testing.T) {
	read, _ := Effects("LBEQ", "foo", "")
	if read != CC {
		t.Errorf("LBEQ foo: read = %v, want CC", read)
	}
}

func TestInlineAsmIsConservative(t *testing.T) {
	read, written := Effects("", "", "inline-asm")
	want := A | B | X | Y | U
	if read != want || written != want {
		t.Errorf("inline asm: got read=%v written=%v, want both %v", read, written, want)
	}
}

func TestBSRIsConservativeOnCaller(t *testing.T) {
	read, written := Effects("BSR", "foo", "")
	want := A | B | X | Y | U
	if read != want || written != want {
		t.Errorf("BSR: got read=%v written=%v, want both %v", read, written, want)
	}
}

func TestCLRDoesNotReadDestination(t *testing.T) {
	read, written := Effects("CLRA", "", "")
	if read&A != 0 {
		t.Error("CLRA should not read A")
	}
	if written&A == 0 {
		t.Error("CLRA should write A")
	}
}

func TestEmptyOpcodeIsZero(t *testing.T) {
	read, written := Effects("", "", "")
	if read != 0 || written != 0 {
		t.Errorf("empty opcode should yield (0, 0), got (%v, %v)", read, written)
	}
}
