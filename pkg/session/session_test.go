package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sarrazip/cmoc6809/pkg/asm"
)

func TestReservesYOnlyForOS9(t *testing.T) {
	if New(TargetDiskBasic).ReservesY() {
		t.Error("disk-basic target should not reserve Y")
	}
	if !New(TargetOS9).ReservesY() {
		t.Error("os9 target should reserve Y")
	}
}

func TestErrorAccumulation(t *testing.T) {
	s := New(TargetDiskBasic)
	s.AddError("bad thing: %d", 42)
	s.AddWarning("heads up")
	if s.ErrorCount() != 1 {
		t.Fatalf("ErrorCount = %d, want 1", s.ErrorCount())
	}
	if len(s.Warnings()) != 1 {
		t.Fatalf("len(Warnings) = %d, want 1", len(s.Warnings()))
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	store := asm.NewStore()
	store.AppendInstr("LDA", "#1", "")
	store.AppendInstr("RTS", "", "")

	path := filepath.Join(t.TempDir(), "ckpt.gob")
	want := &Checkpoint{Target: TargetOS9, EnableStage2: true, Elements: store.Elements(), RulesApplied: 3}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("checkpoint file missing: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Target != want.Target || got.EnableStage2 != want.EnableStage2 || got.RulesApplied != want.RulesApplied {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if len(got.Elements) != len(want.Elements) {
		t.Fatalf("got %d elements, want %d", len(got.Elements), len(want.Elements))
	}
}
