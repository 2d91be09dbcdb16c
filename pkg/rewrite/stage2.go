package rewrite

import (
	"strconv"
	"strings"

	"github.com/sarrazip/cmoc6809/pkg/asm"
	"github.com/sarrazip/cmoc6809/pkg/effects"
)

// Stage2Rules returns the rule catalog Jamie Cho's 2016 pass added to the
// original compiler — stack-operation folding, redundant pointer
// arithmetic, coalesced LEAX, dead-load removal, and known-value
// substitution guarded against hardware addresses — plus a handful of
// additional redundant transfer/load/logic idioms from the same era that
// are narrow literal pattern matches, not dependent on general stack-slot
// aliasing analysis. Gated behind sess.EnableStage2 since they are not
// safe to run under session.TargetOS9's register reservation until
// individually audited. A larger family of multi-shape push/arith/pull
// folds (optimizeStackOperations2..5, optimize16BitStackOps1/2,
// optimize8BitStackOps, and siblings) remains deferred — see DESIGN.md.
func Stage2Rules() []Rule {
	return []Rule{
		{"stackOperationFolding", stackOperationFolding},
		{"redundantPointerArithmetic", redundantPointerArithmetic},
		{"coalesceConsecutiveLeax", coalesceConsecutiveLeax},
		{"removeUselessLeax", removeUselessLeax},
		{"optimizeStackOperations1", optimizeStackOperations1},
		{"removeUnusedLoad", removeUnusedLoad},
		{"directAddressSubstitution", directAddressSubstitution},
		{"removeUselessTfr1", removeUselessTfr1},
		{"removeUselessTfr2", removeUselessTfr2},
		{"removeUselessClrb", removeUselessClrb},
		{"removeUselessLdx", makeRemoveUselessLoad("LDX")},
		{"removeUselessLdb", makeRemoveUselessLoad("LDB")},
		{"removeUselessLdd", makeRemoveUselessLoad("LDD")},
		{"optimizeAndbTstb", optimizeAndbTstb},
		{"andA_B0", andAWithZero},
		{"orAndA_B", orAWithAllOnes},
		{"optimize16BitCompares", optimize16BitCompares},
		{"combineConsecutiveOps", combineConsecutiveOps},
		{"removeConsecutivePshsPul", removeConsecutivePshsPul},
	}
}

// coalesceConsecutiveLeax merges two consecutive LEAX instructions into
// one by summing their offsets from the same base register.
// Grounded on ASMText::coalesceConsecutiveLeax (ASMText.cpp:3929).
func coalesceConsecutiveLeax(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "LEAX" {
		return false
	}
	off1, reg1, ok := parseOffsetReg(operand)
	if !ok {
		return false
	}
	j := c.NextInstrIndex(i + 1)
	if j == -1 {
		return false
	}
	nop, noperand := c.Instr(j)
	if nop != "LEAX" {
		return false
	}
	off2, reg2, ok := parseOffsetReg(noperand)
	if !ok || reg2 != "X" || reg1 != "X" {
		return false
	}
	c.Store.ReplaceWithInstr(j, "LEAX", strconv.Itoa(off1+off2)+",X", "coalesced from two LEAX")
	c.Store.CommentOut(i, "coalesced into following LEAX")
	return true
}

// stackOperationFolding recognizes the idiom that spills B and A to the
// stack only to immediately discard them: "PSHS B,A" to save the pair
// (A ends up on top), an immediate LDD that overwrites both registers,
// "LEAS 1,S" to drop the pushed A, and "ADDB ,S+" to add the pushed
// original B to the LDD's low byte. The whole window collapses to a single
// ADDB of that low byte to the original B; A then keeps its prior value
// rather than the LDD's high byte.
// Grounded on ASMText::pushLoadDiscardAdd (original_source/src/ASMText.cpp).
func stackOperationFolding(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "PSHS" || operand != "B,A" {
		return false
	}
	j1 := c.NextInstrIndex(i + 1)
	if j1 == -1 {
		return false
	}
	ldOp, ldOperand := c.Instr(j1)
	if ldOp != "LDD" {
		return false
	}
	imm, ok := parseImmediateOperand(ldOperand)
	if !ok {
		return false
	}
	j2 := c.NextInstrIndex(j1 + 1)
	if j2 == -1 {
		return false
	}
	leasOp, leasOperand := c.Instr(j2)
	if leasOp != "LEAS" || leasOperand != "1,S" {
		return false
	}
	j3 := c.NextInstrIndex(j2 + 1)
	if j3 == -1 {
		return false
	}
	addOp, addOperand := c.Instr(j3)
	if addOp != "ADDB" || addOperand != ",S+" {
		return false
	}

	low := uint8(imm)
	c.Store.ReplaceWithInstr(j3, "ADDB", "#$"+strconv.FormatUint(uint64(low), 16), "folded stack push/discard into immediate add")
	c.Store.CommentOut(j2, "folded into following ADDB")
	c.Store.CommentOut(j1, "folded into following ADDB")
	c.Store.CommentOut(i, "folded into following ADDB")
	return true
}

// redundantPointerArithmetic promotes "LDD ? / TFR D,X" straight to "LDX ?",
// provided nothing between here and the point D is next fully overwritten
// reads A or B — the stale D value the deleted TFR would otherwise have
// propagated is never observed, so dropping it changes nothing.
// Grounded on ASMText::removeTfrDX (original_source/src/ASMText.cpp).
func redundantPointerArithmetic(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "LDD" {
		return false
	}
	j := c.NextInstrIndex(i + 1)
	if j == -1 {
		return false
	}
	tfrOp, tfrOperand := c.Instr(j)
	if tfrOp != "TFR" || tfrOperand != "D,X" {
		return false
	}

	var written effects.RegMask
	k := j
	for {
		k = c.NextInstrIndex(k + 1)
		if k == -1 {
			return false
		}
		nop, noperand := c.Instr(k)
		if strings.Contains(nop, "BSR") {
			return false
		}
		if asm.IsBasicBlockEndingElement(nop, noperand) {
			return false
		}
		read, w := effects.Effects(nop, noperand, "")
		if read&(effects.A|effects.B)&^written != 0 {
			return false
		}
		written |= w
		if written&(effects.A|effects.B) == (effects.A | effects.B) {
			break
		}
	}

	c.Store.ReplaceWithInstr(i, "LDX", operand, "promoted from LDD; TFR D,X")
	c.Store.CommentOut(j, "folded into LDX above")
	return true
}

func parseOffsetReg(operand string) (offset int, reg string, ok bool) {
	parts := strings.SplitN(operand, ",", 2)
	if len(parts) != 2 {
		return 0, "", false
	}
	reg = strings.TrimSpace(parts[1])
	text := strings.TrimSpace(parts[0])
	if text == "" {
		return 0, reg, true
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, "", false
	}
	return n, reg, true
}

// removeUselessLeax drops a "LEAX 0,X" (or ",X"): it always computes the
// value X already holds.
// Grounded on ASMText::removeUselessLeax (ASMText.h:169).
func removeUselessLeax(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "LEAX" {
		return false
	}
	off, reg, ok := parseOffsetReg(operand)
	if !ok || reg != "X" || off != 0 {
		return false
	}
	c.Store.CommentOut(i, "LEAX 0,X is a no-op")
	return true
}

// optimizeStackOperations1 rewrites "PSHS r1 / PULS r2" (r1 != r2, nothing
// between) into "TFR r1,r2", removing the round trip through the stack.
// Grounded on ASMText::optimizeStackOperations1 (ASMText.h:152).
func optimizeStackOperations1(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "PSHS" || strings.Contains(operand, ",") {
		return false
	}
	j := c.NextInstrIndex(i + 1)
	if j == -1 {
		return false
	}
	nop, noperand := c.Instr(j)
	if nop != "PULS" || strings.Contains(noperand, ",") || noperand == operand {
		return false
	}
	c.Store.ReplaceWithInstr(j, "TFR", operand+","+noperand, "folded push/pull into register transfer")
	c.Store.CommentOut(i, "folded into following TFR")
	return true
}

// removeUnusedLoad comments out an LD* instruction that deadWrite proves
// dead: its destination is overwritten before any read, with no label or
// block-ending instruction in between. It checks same-block liveness only;
// it does not look at block successors or the simulator's producer/consumer
// map. deadWrite itself is an always-on stage-1 rule, so this adds no
// removal beyond it.
// Grounded on ASMText::removeUnusedLoad (ASMText.cpp:3201).
func removeUnusedLoad(c *Ctx, i int) bool {
	op, _ := c.Instr(i)
	if !strings.HasPrefix(op, "LD") {
		return false
	}
	return deadWrite(c, i)
}

// makeRemoveUselessLoad returns a rule that drops an instance of opcode
// immediately followed by another instance of opcode with the identical
// operand — the first load's result is entirely superseded.
// Grounded on ASMText::removeUselessLdx/removeUselessLdb/removeUselessLdd
// (ASMText.h:170-172), unified here into one parameterized helper.
func makeRemoveUselessLoad(opcode string) func(*Ctx, int) bool {
	return func(c *Ctx, i int) bool {
		op, operand := c.Instr(i)
		if op != opcode {
			return false
		}
		j := c.NextInstrIndex(i + 1)
		if j == -1 {
			return false
		}
		nop, noperand := c.Instr(j)
		if nop != opcode || noperand != operand {
			return false
		}
		c.Store.CommentOut(i, "superseded by identical "+opcode+" immediately after")
		return true
	}
}

// removeUselessTfr1 drops "TFR r,r": transferring a register to itself.
// Grounded on ASMText::removeUselessTfr1 (ASMText.h:173).
func removeUselessTfr1(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "TFR" {
		return false
	}
	r1, r2 := splitTfrPair(operand)
	if r1 == "" || r1 != r2 {
		return false
	}
	c.Store.CommentOut(i, "TFR to self is a no-op")
	return true
}

// removeUselessTfr2 drops a TFR immediately duplicated by an identical
// TFR right after it.
// Grounded on ASMText::removeUselessTfr2 (ASMText.h:174).
func removeUselessTfr2(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "TFR" {
		return false
	}
	j := c.NextInstrIndex(i + 1)
	if j == -1 {
		return false
	}
	nop, noperand := c.Instr(j)
	if nop != "TFR" || noperand != operand {
		return false
	}
	c.Store.CommentOut(i, "superseded by identical TFR immediately after")
	return true
}

func splitTfrPair(operand string) (string, string) {
	parts := strings.SplitN(operand, ",", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

// removeUselessClrb drops a CLRB immediately duplicated by another CLRB.
// Grounded on ASMText::removeUselessClrb (ASMText.h:176).
func removeUselessClrb(c *Ctx, i int) bool {
	op, _ := c.Instr(i)
	if op != "CLRB" {
		return false
	}
	j := c.NextInstrIndex(i + 1)
	if j == -1 {
		return false
	}
	nop, _ := c.Instr(j)
	if nop != "CLRB" {
		return false
	}
	c.Store.CommentOut(i, "superseded by identical CLRB immediately after")
	return true
}

// optimizeAndbTstb drops a TSTB immediately following an ANDB: ANDB
// already sets the N/Z flags TSTB would recompute.
// Grounded on ASMText::optimizeAndbTstb (ASMText.h:177).
func optimizeAndbTstb(c *Ctx, i int) bool {
	op, _ := c.Instr(i)
	if op != "ANDB" {
		return false
	}
	j := c.NextInstrIndex(i + 1)
	if j == -1 {
		return false
	}
	nop, _ := c.Instr(j)
	if nop != "TSTB" {
		return false
	}
	c.Store.CommentOut(j, "redundant: ANDB already set flags")
	return true
}

// andAWithZero replaces "ANDA #0" with "CLRA": ANDing with zero always
// produces zero, regardless of A's prior value.
// Grounded on ASMText::andA_B0 (ASMText.h:178).
func andAWithZero(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "ANDA" || !isImmediateZero(operand) {
		return false
	}
	c.Store.ReplaceWithInstr(i, "CLRA", "", "ANDA #0 always yields zero")
	return true
}

// orAWithAllOnes replaces "ORA #$FF" with "LDA #$FF": ORing with all-ones
// always produces all-ones, regardless of A's prior value.
// Grounded on ASMText::orAndA_B (ASMText.h:179).
func orAWithAllOnes(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "ORA" || !isImmediateAllOnes(operand) {
		return false
	}
	c.Store.ReplaceWithInstr(i, "LDA", "#$FF", "ORA #$FF always yields $FF")
	return true
}

func isImmediateZero(operand string) bool {
	v, ok := parseImmediateOperand(operand)
	return ok && v == 0
}

func isImmediateAllOnes(operand string) bool {
	v, ok := parseImmediateOperand(operand)
	return ok && v == 0xFF
}

func parseImmediateOperand(operand string) (int64, bool) {
	if !strings.HasPrefix(operand, "#") {
		return 0, false
	}
	text := strings.TrimPrefix(operand, "#")
	base := 10
	if strings.HasPrefix(text, "$") {
		text, base = strings.TrimPrefix(text, "$"), 16
	}
	n, err := strconv.ParseInt(text, base, 32)
	if err != nil {
		return 0, false
	}
	return n, true
}

// optimize16BitCompares drops a CMPD/CMPX/CMPY/CMPU/CMPS #0 immediately
// following an LEA into the same register: the LEA's result already set
// the flags the compare would recompute.
// Grounded on ASMText::optimize16BitCompares (ASMText.h:182).
func optimize16BitCompares(c *Ctx, i int) bool {
	op, _ := c.Instr(i)
	if !strings.HasPrefix(op, "LEA") {
		return false
	}
	reg := strings.TrimPrefix(op, "LEA")
	j := c.NextInstrIndex(i + 1)
	if j == -1 {
		return false
	}
	nop, noperand := c.Instr(j)
	if nop != "CMP"+reg || noperand != "#0" {
		return false
	}
	c.Store.CommentOut(j, "redundant: LEA already set flags for zero test")
	return true
}

// combineConsecutiveOps merges two consecutive immediate ADDA (or ADDB)
// into one, summing their constants.
// Grounded on ASMText::combineConsecutiveOps (ASMText.h:184).
func combineConsecutiveOps(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "ADDA" && op != "ADDB" {
		return false
	}
	v1, ok := parseImmediateOperand(operand)
	if !ok {
		return false
	}
	j := c.NextInstrIndex(i + 1)
	if j == -1 {
		return false
	}
	nop, noperand := c.Instr(j)
	if nop != op {
		return false
	}
	v2, ok := parseImmediateOperand(noperand)
	if !ok {
		return false
	}
	c.Store.ReplaceWithInstr(j, op, "#"+strconv.FormatInt(v1+v2, 10), "combined two consecutive immediate "+op)
	c.Store.CommentOut(i, "combined into following "+op)
	return true
}

// removeConsecutivePshsPul extends stage-1's single-register
// pushOpPullCancellation to a multi-register PSHS/PULS list that is
// immediately followed by the matching pull with nothing in between.
// Grounded on ASMText::removeConsecutivePshsPul (ASMText.h:185).
func removeConsecutivePshsPul(c *Ctx, i int) bool {
	op, operand := c.Instr(i)
	if op != "PSHS" && op != "PSHU" {
		return false
	}
	pullOp := "PULS"
	if op == "PSHU" {
		pullOp = "PULU"
	}
	j := i + 1
	if j >= c.Store.Len() {
		return false
	}
	e := c.Store.At(j)
	if e.Kind != asm.Instr || e.Field0 != pullOp || e.Field1 != operand {
		return false
	}
	c.Store.CommentOut(i, "push immediately undone by matching pull")
	c.Store.CommentOut(j, "push immediately undone by matching pull")
	return true
}

// directAddressSubstitution replaces an indexed-mode operand ",X" with a
// direct numeric address when the simulator knows X's value and that
// address is below $FF00 — the 6809 I/O and ROM-vector region on every
// supported target, which must never be folded into a direct address.
// With no simulator attached, this rule never fires: it has nothing to
// prove the substitution safe with.
// Grounded on ASMText's optimizeIndexedX/optimizeLdx family, which all
// guard the same way before replacing an indexed access.
func directAddressSubstitution(c *Ctx, i int) bool {
	if c.Sim == nil {
		return false
	}
	op, operand := c.Instr(i)
	if operand != ",X" {
		return false
	}
	if !strings.HasPrefix(op, "LD") && !strings.HasPrefix(op, "ST") {
		return false
	}
	x := c.Sim.State.X
	if !x.KnownFlag || x.Val >= 0xFF00 {
		return false
	}
	c.Store.ReplaceWithInstr(i, op, "$"+strconv.FormatUint(uint64(x.Val), 16), "substituted known address for indexed ,X")
	return true
}
