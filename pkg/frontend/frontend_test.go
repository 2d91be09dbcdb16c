package frontend

import (
	"strings"
	"testing"

	"github.com/sarrazip/cmoc6809/pkg/asm"
)

func TestReadEmitsInstructionsLabelsAndComments(t *testing.T) {
	src := `
; add two numbers
LDA #1
loop:
ADDA #2
BNE loop
RTS
`
	s := asm.NewStore()
	if err := Read(strings.NewReader(src), s, "add"); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if _, ok := s.LabelIndex("loop"); !ok {
		t.Fatal("expected label 'loop' to be registered")
	}
	var opcodes []string
	for i := 0; i < s.Len(); i++ {
		if e := s.At(i); e.Kind == asm.Instr {
			opcodes = append(opcodes, e.Field0)
		}
	}
	want := []string{"LDA", "ADDA", "BNE", "RTS"}
	if len(opcodes) != len(want) {
		t.Fatalf("opcodes = %v, want %v", opcodes, want)
	}
	for i := range want {
		if opcodes[i] != want[i] {
			t.Errorf("opcodes[%d] = %q, want %q", i, opcodes[i], want[i])
		}
	}
}

func TestReadRejectsEmptyLabel(t *testing.T) {
	s := asm.NewStore()
	err := Read(strings.NewReader(":\n"), s, "f")
	if err == nil {
		t.Fatal("expected error for empty label")
	}
}

func TestReadSkipsWhitespaceOnlyLine(t *testing.T) {
	s := asm.NewStore()
	err := Read(strings.NewReader(" \t\n"), s, "f")
	if err != nil {
		t.Fatalf("blank line should be skipped, got %v", err)
	}
}
