package rewrite

import (
	"strconv"
	"strings"

	"github.com/sarrazip/cmoc6809/pkg/asm"
	"github.com/sarrazip/cmoc6809/pkg/effects"
)

// Stage1Rules returns the always-on peephole catalog: nine representative
// rules, each grounded one-for-one on a private method of
// original_source/src/ASMText.h (renamed to this package's vocabulary).
func Stage1Rules() []Rule {
	return []Rule{
		{"branchToNextLocation", branchToNextLocation},
		{"deadCodeAfterUnconditionalBranch", deadCodeAfterUnconditionalBranch},
		{"loadWordUsedAsByte", loadWordUsedAsByte},
		{"storeThenReload", storeThenReload},
		{"conditionalBranchOverUnconditionalBranch", conditionalBranchOverUnconditionalBranch},
		{"shortenLongBranch", shortenLongBranch},
		{"pushOpPullCancellation", pushOpPullCancellation},
		{"deadWrite", deadWrite},
		{"loadCompareZeroBranch", loadCompareZeroBranch},
	}
}

// branchToNextLocation removes a branch whose target is the very next
// live instruction — the branch changes nothing about control flow.
// Grounded on ASMText::branchToNextLocation (ASMText.cpp:733).
func branchToNextLocation(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op == "" || !(op == "BRA" || op == "LBRA" || asm.IsConditionalBranch(op)) {
		return false
	}
	next := c.NextInstrIndex(i + 1)
	for j := i + 1; j < c.Store.Len(); j++ {
		e := c.Store.At(j)
		if e.Kind == asm.Label && e.Field0 == operand {
			// Only safe when the target label is literally the element
			// right after the branch or is preceded by comment-like
			// elements only; any other label in between blocks it.
			if j == i+1 || onlyCommentsBetween(c, i+1, j) {
				c.Store.CommentOut(i, "branch to next location")
				return true
			}
			return false
		}
		if e.Kind == asm.Instr {
			break
		}
	}
	_ = next
	return false
}

func onlyCommentsBetween(c *Ctx, start, end int) bool {
	for k := start; k < end; k++ {
		if !c.Store.At(k).IsCommentLike() {
			return false
		}
	}
	return true
}

// deadCodeAfterUnconditionalBranch comments out an instruction that
// immediately follows an unconditional transfer of control and is not a
// branch target, since it can never execute.
// Grounded on ASMText::instrFollowingUncondBranch (ASMText.cpp:747).
func deadCodeAfterUnconditionalBranch(c *Ctx, i int) bool {
	op, _ := c.Instr(i)
	if !(op == "BRA" || op == "LBRA" || op == "JMP" || op == "RTS" || op == "RTI") {
		return false
	}
	j := i + 1
	if j >= c.Store.Len() {
		return false
	}
	e := c.Store.At(j)
	if e.Kind != asm.Instr {
		return false
	}
	c.Store.CommentOut(j, "unreachable: follows unconditional transfer")
	return true
}

// loadWordUsedAsByte narrows an immediate LDD whose next instruction
// overwrites A from B or from nothing (CLRA or SEX) into an LDB of the
// immediate's low byte, since the high byte the LDD puts in A is never seen.
// Grounded on ASMText::lddToLDB (ASMText.cpp:762).
func loadWordUsedAsByte(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "LDD" {
		return false
	}
	imm, ok := parseImmediateOperand(operand)
	if !ok {
		return false
	}
	j := c.NextInstrIndex(i + 1)
	if j == -1 {
		return false
	}
	nop, _ := c.Instr(j)
	if nop != "CLRA" && nop != "SEX" {
		return false
	}
	c.Store.ReplaceWithInstr(i, "LDB", "#$"+strconv.FormatUint(uint64(uint8(imm)), 16), "narrowed from LDD: only low byte used")
	return true
}

// storeThenReload drops a load that immediately re-reads the value an
// adjacent store just wrote to the same location into the same register.
// Grounded on ASMText::storeLoad (ASMText.cpp:918).
func storeThenReload(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if !strings.HasPrefix(op, "ST") {
		return false
	}
	j := c.NextInstrIndex(i + 1)
	if j == -1 {
		return false
	}
	nop, noperand := c.Instr(j)
	if nop != "LD"+strings.TrimPrefix(op, "ST") || noperand != operand {
		return false
	}
	c.Store.CommentOut(j, "redundant reload after store to "+operand)
	return true
}

// conditionalBranchOverUnconditionalBranch rewrites
// "Bcc L1 / BRA L2 / L1:" into "Bcc-inverse L2 / L1:", since the BRA only
// ever runs when the condition is false.
// Grounded on ASMText::condBranchOverUncondBranch (ASMText.cpp:946).
func conditionalBranchOverUnconditionalBranch(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if !asm.IsConditionalBranch(op) {
		return false
	}
	j := c.NextInstrIndex(i + 1)
	if j == -1 {
		return false
	}
	nop, noperand := c.Instr(j)
	if nop != "BRA" && nop != "LBRA" {
		return false
	}
	k := j + 1
	if k >= c.Store.Len() {
		return false
	}
	e := c.Store.At(k)
	if e.Kind != asm.Label || e.Field0 != operand {
		return false
	}
	inv, ok := asm.InverseBranch(op)
	if !ok {
		return false
	}
	c.Store.ReplaceWithInstr(i, inv, noperand, "inverted over unconditional branch")
	c.Store.CommentOut(j, "superseded by inverted branch above")
	return true
}

// shortenLongBranch narrows a long branch (LBxx) to its short form (Bxx)
// when the front end has marked the branch as provably in short-branch
// range — this package has no addresses to measure distance itself, so it
// trusts an explicit "short-range" annotation left in the comment field by
// whatever produced the branch.
// Grounded on ASMText::shortenBranch (ASMText.cpp:983).
func shortenLongBranch(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if !strings.HasPrefix(op, "L") {
		return false
	}
	short := strings.TrimPrefix(op, "L")
	if !asm.IsConditionalBranch(short) && short != "BRA" {
		return false
	}
	e := c.Store.At(i)
	if !strings.Contains(e.Field2, "short-range") {
		return false
	}
	c.Store.ReplaceWithInstr(i, short, operand, "shortened: in short-branch range")
	return true
}

// pushOpPullCancellation removes a PSHS/PULS (or PSHU/PULU) pair of the
// same single register when nothing between them reads or writes it —
// the save/restore accomplishes nothing.
// Grounded on ASMText::stripUselessPushPull (ASMText.h:149).
func pushOpPullCancellation(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "PSHS" && op != "PSHU" {
		return false
	}
	if strings.Contains(operand, ",") {
		return false // single-register form only, matching the original's narrow pattern
	}
	pullOp := "PULS"
	if op == "PSHU" {
		pullOp = "PULU"
	}
	for j := i + 1; j < c.Store.Len(); j++ {
		e := c.Store.At(j)
		if e.Kind == asm.Label {
			return false
		}
		if e.Kind != asm.Instr {
			continue
		}
		if e.Field0 == pullOp && e.Field1 == operand {
			c.Store.CommentOut(i, "push/pull of "+operand+" cancel with nothing in between")
			c.Store.CommentOut(j, "push/pull of "+operand+" cancel with nothing in between")
			return true
		}
		r, w := effects.Effects(e.Field0, e.Field1, "")
		if touched, known := regMaskHas(r|w, operand); !known || touched {
			return false
		}
	}
	return false
}

func regMaskHas(m effects.RegMask, reg string) (bool, bool) {
	var bit effects.RegMask
	switch reg {
	case "A":
		bit = effects.A
	case "B":
		bit = effects.B
	case "X":
		bit = effects.X
	case "Y":
		bit = effects.Y
	case "U":
		bit = effects.U
	case "S":
		bit = effects.S
	case "DP":
		bit = effects.DP
	case "CC":
		bit = effects.CC
	default:
		return false, false
	}
	return m&bit != 0, true
}

// deadWrite comments out an instruction whose destination register is
// overwritten before being read anywhere later in the same block — the
// write it performs can never be observed.
// Grounded on ASMText::stripOpToDeadReg (ASMText.h:150).
func deadWrite(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	_, written := effects.Effects(op, operand, "")
	if written == 0 {
		return false
	}
	for j := i + 1; j < c.Store.Len(); j++ {
		e := c.Store.At(j)
		if e.Kind == asm.Label {
			return false // reachable from elsewhere; can't prove dead
		}
		if e.Kind != asm.Instr {
			continue
		}
		read, nextWritten := effects.Effects(e.Field0, e.Field1, "")
		if read&written != 0 {
			return false // read before overwritten: not dead
		}
		if asm.IsBasicBlockEndingElement(e.Field0, e.Field1) {
			return false // control leaves the block; can't prove dead past here
		}
		if nextWritten&written == written {
			c.Store.CommentOut(i, "write to "+operand+" is dead: overwritten before any read")
			return true
		}
	}
	return false
}

// loadCompareZeroBranch drops a CMPx #0 immediately following a load into
// the same register, since the load already set the flags a subsequent
// BEQ/BNE needs.
// Grounded on ASMText::loadCmpZeroBeqOrBne (ASMText.h:146).
func loadCompareZeroBranch(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if !strings.HasPrefix(op, "LD") {
		return false
	}
	reg := strings.TrimPrefix(op, "LD")
	j := c.NextInstrIndex(i + 1)
	if j == -1 {
		return false
	}
	nop, noperand := c.Instr(j)
	if nop != "CMP"+reg || noperand != "#0" {
		return false
	}
	k := c.NextInstrIndex(j + 1)
	if k == -1 {
		return false
	}
	kop, _ := c.Instr(k)
	if kop != "BEQ" && kop != "BNE" && kop != "LBEQ" && kop != "LBNE" {
		return false
	}
	_ = operand
	c.Store.CommentOut(j, "redundant: load already set flags for zero test")
	return true
}
