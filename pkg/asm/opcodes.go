package asm

import "sort"

// requiresOperand lists opcodes whose operand field must not be empty.
// Grounded on the Info-table style of pkg/inst/catalog.go: a
// single authoritative table driven by struct literals rather than a long
// if-chain.
var requiresOperand = map[string]bool{
	"LDA": true, "LDB": true, "LDD": true, "LDX": true, "LDY": true, "LDU": true, "LDS": true,
	"STA": true, "STB": true, "STD": true, "STX": true, "STY": true, "STU": true, "STS": true,
	"ADDA": true, "ADDB": true, "ADDD": true, "SUBA": true, "SUBB": true, "SUBD": true,
	"ADCA": true, "ADCB": true, "SBCA": true, "SBCB": true,
	"ANDA": true, "ANDB": true, "ANDCC": true, "ORA": true, "ORB": true, "ORCC": true, "EORA": true, "EORB": true,
	"CMPA": true, "CMPB": true, "CMPD": true, "CMPX": true, "CMPY": true, "CMPU": true, "CMPS": true,
	"BITA": true, "BITB": true,
	"LEAX": true, "LEAY": true, "LEAU": true, "LEAS": true,
	"JMP": true, "JSR": true, "BSR": true, "LBSR": true,
	"TFR": true, "EXG": true, "PSHS": true, "PULS": true, "PSHU": true, "PULU": true,
	"INCLUDE": true, "SECTION": true, "EQU": true,
}

// MustHaveOperand reports whether opcode requires a non-empty operand.
// Branch mnemonics (BEQ/LBEQ/...) and JMP always require a target, handled
// separately in isBranchMnemonic below.
func MustHaveOperand(opcode string) bool {
	if requiresOperand[opcode] {
		return true
	}
	return isBranchMnemonic(opcode)
}

// blockEndingInstructions is kept in sorted order, mirroring the original's
// explicit "Must be in alphabetical order" static table so a binary search
// can be used instead of a linear if-chain.
var blockEndingInstructions = []string{
	"BCC", "BCS", "BEQ", "BGE", "BGT", "BHI", "BHS", "BLE", "BLO", "BLS",
	"BLT", "BMI", "BNE", "BPL", "BRA", "BVC", "BVS", "JMP",
	"LBCC", "LBCS", "LBEQ", "LBGE", "LBGT", "LBHI", "LBHS", "LBLE", "LBLO",
	"LBLS", "LBLT", "LBMI", "LBNE", "LBPL", "LBRA", "LBVC", "LBVS",
	"RTI", "RTS",
}

// IsBasicBlockEndingInstruction reports whether opcode ends a basic block.
func IsBasicBlockEndingInstruction(opcode string) bool {
	i := sort.SearchStrings(blockEndingInstructions, opcode)
	return i < len(blockEndingInstructions) && blockEndingInstructions[i] == opcode
}

// IsBasicBlockEndingElement reports whether the (opcode, operand) pair ends
// a basic block: either opcode is one of blockEndingInstructions, or it is
// the specific "PULS U,PC" idiom used as a function return when U holds the
// return address (grounded on ASMText::isBasicBlockEndingInstruction, which
// special-cases this one PULS form outside the sorted table).
func IsBasicBlockEndingElement(opcode, operand string) bool {
	if IsBasicBlockEndingInstruction(opcode) {
		return true
	}
	return opcode == "PULS" && operand == "U,PC"
}

// isBranchMnemonic reports whether opcode is any branch (conditional or
// not, long or short, BRN/LBRN included) or JMP: every one of them takes a
// target operand.
func isBranchMnemonic(opcode string) bool {
	switch opcode {
	case "BRA", "LBRA", "BRN", "LBRN":
		return true
	}
	return IsBasicBlockEndingInstruction(opcode) && opcode != "RTS" && opcode != "RTI"
}

// condInverse maps each conditional branch to its logical inverse, short
// form key, long form handled by stripping/re-adding the leading "L".
// Grounded on ASMText::isConditionalBranch's paired-instruction table.
var condInverse = map[string]string{
	"BEQ": "BNE", "BNE": "BEQ",
	"BCC": "BCS", "BCS": "BCC", "BHS": "BLO", "BLO": "BHS",
	"BHI": "BLS", "BLS": "BHI",
	"BGE": "BLT", "BLT": "BGE",
	"BGT": "BLE", "BLE": "BGT",
	"BMI": "BPL", "BPL": "BMI",
	"BVC": "BVS", "BVS": "BVC",
}

// InverseBranch returns the inverse mnemonic for a (possibly long) branch,
// preserving the L-prefix, and whether opcode was recognized as a
// conditional branch at all.
func InverseBranch(opcode string) (inverse string, ok bool) {
	long := false
	base := opcode
	if len(opcode) > 1 && opcode[0] == 'L' {
		if _, isCond := condInverse[opcode[1:]]; isCond {
			long = true
			base = opcode[1:]
		}
	}
	inv, isCond := condInverse[base]
	if !isCond {
		return "", false
	}
	if long {
		return "L" + inv, true
	}
	return inv, true
}

// IsConditionalBranch reports whether opcode (short or long form) is one of
// the relational/flag conditional branches (excludes BRA/LBRA/BRN/LBRN).
func IsConditionalBranch(opcode string) bool {
	_, ok := InverseBranch(opcode)
	return ok
}

// relationalSwap maps a signed/unsigned relational branch to the branch
// that tests the same relation with operands swapped (used by rules that
// reorder a CMP's operands). Grounded on
// ASMText::isRelativeSizeConditionalBranch.
var relationalSwap = map[string]string{
	"BGT": "BLT", "BLT": "BGT",
	"BGE": "BLE", "BLE": "BGE",
	"BHI": "BLO", "BLO": "BHI",
	"BHS": "BLS", "BLS": "BHS",
}

// SwappedRelation returns the branch mnemonic that tests the same relation
// with its operands reversed, if opcode is a relational branch.
func SwappedRelation(opcode string) (swapped string, ok bool) {
	swapped, ok = relationalSwap[opcode]
	return
}
