// Package block partitions one function's elements into basic blocks and
// determines each block's successors, the unit the rewrite engine reasons
// about when a rule needs to know "does control flow definitely continue
// here, or could it jump elsewhere".
//
// Grounded on original_source/src/ASMText.cpp's optimizeWholeFunctions /
// createBasicBlock (the partitioning algorithm and successor-classification
// rules), restructured in pkg/search's style of returning a
// plain slice of value structs instead of mutating a member vector.
package block

import "github.com/sarrazip/cmoc6809/pkg/asm"

// Block is a maximal run of instructions with no internal label and no
// internal branch: [Start, End) indexes into the owning function's
// element range, End exclusive.
type Block struct {
	Start, End int

	// SuccessorLabel, when non-empty, is the label this block's last
	// instruction branches to (conditionally or unconditionally).
	SuccessorLabel string

	// FallthroughIndex, when >= 0, is the element index execution
	// continues at when the block does not branch (or, for a
	// conditional branch, when the branch is not taken).
	FallthroughIndex int

	// HasSecondSuccessor is true for a conditional branch: the block has
	// both SuccessorLabel (branch taken) and FallthroughIndex (not taken).
	HasSecondSuccessor bool

	// Terminal is true for a block ending in RTS/RTI/"PULS U,PC": it has
	// no successor inside the function.
	Terminal bool
}

// Build partitions the elements in [start, end) — typically the body of
// one function, between its FunctionStart and FunctionEnd markers — into
// basic blocks. Labels end the preceding block without being part of it;
// trailing comment-like elements are excluded from a block, matching
// createBasicBlock's "decrement endIndex while comment-like" rule.
func Build(elements []asm.Element, start, end int) []Block {
	var blocks []Block
	blockStart := -1

	flush := func(limit int) {
		if blockStart == -1 {
			return
		}
		b, ok := finish(elements, blockStart, limit)
		blockStart = -1
		if ok {
			blocks = append(blocks, b)
		}
	}

	for i := start; i < end; i++ {
		e := elements[i]
		switch e.Kind {
		case asm.Comment, asm.Separator:
			continue
		case asm.Instr, asm.InlineAsm:
			if blockStart == -1 {
				blockStart = i
			}
			if e.Kind == asm.Instr && asm.IsBasicBlockEndingElement(e.Field0, e.Field1) {
				flush(i + 1)
			}
		case asm.Label:
			flush(i) // label excluded from the block that precedes it
		default:
			flush(i)
		}
	}
	flush(end)
	return blocks
}

// finish trims trailing comment-like elements from [start, limit) and
// classifies the resulting block's successors. ok is false for an empty
// interval once trimmed.
func finish(elements []asm.Element, start, limit int) (Block, bool) {
	for limit > start && elements[limit-1].IsCommentLike() {
		limit--
	}
	if start >= limit {
		return Block{}, false
	}

	b := Block{Start: start, End: limit, FallthroughIndex: -1}
	last := elements[limit-1]

	if last.Kind == asm.InlineAsm {
		b.FallthroughIndex = limit
		return b, true
	}

	opcode, operand := last.Field0, last.Field1
	switch {
	case opcode == "RTS" || opcode == "RTI" || (opcode == "PULS" && operand == "U,PC"):
		b.Terminal = true
	case opcode == "BRA" || opcode == "LBRA" || opcode == "JMP":
		b.SuccessorLabel = operand
	case asm.IsConditionalBranch(opcode):
		b.SuccessorLabel = operand
		b.FallthroughIndex = limit
		b.HasSecondSuccessor = true
	default:
		b.FallthroughIndex = limit
	}
	return b, true
}

// IndexOf returns the index of the block containing elementIndex, or -1.
// Grounded on ASMText::findBlockIndex, generalized from its "first block
// whose start is >= elementIndex" approximation to an exact containment
// check (spec requires exact lookups for rule precondition tests).
func IndexOf(blocks []Block, elementIndex int) int {
	for i, b := range blocks {
		if elementIndex >= b.Start && elementIndex < b.End {
			return i
		}
	}
	return -1
}
