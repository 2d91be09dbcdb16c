package sim

import (
	"strconv"
	"strings"

	"github.com/sarrazip/cmoc6809/pkg/effects"
)

// Simulator forward-simulates one straight-line instruction stream,
// maintaining a State and the producer/consumer cross-references that
// hang off it. It is deliberately conservative: a load or LEA whose operand
// it cannot evaluate leaves the destination Unknown rather than guessing,
// and an instruction it does not model makes Process return false with
// State left as it was.
//
// Grounded on original_source/src/Pseudo6809.h's Pseudo6809::process
// (a big switch returning bool = "fully understood this instruction") and
// restructured, in pkg/cpu/exec.go's idiom, around a
// switch-over-opcode-prefix dispatcher instead of process()'s single
// giant if/else chain.
type Simulator struct {
	State *State
}

// NewSimulator returns a Simulator with a fresh, all-unknown State.
func NewSimulator() *Simulator {
	return &Simulator{State: New()}
}

// Process simulates the instruction at element index (opcode, operand)
// and reports whether it was fully understood. A false return means the
// caller should treat every register effects.Effects reports as written
// for this instruction as now Unknown — the simulator does not attempt to
// reconstruct partial knowledge for instructions it does not model.
//
// ignoreStackErrors governs only LEAS: an "LEAS n,S" that pops more bytes
// than this run has a record of pushing is a stack-depth mismatch the
// simulator cannot resolve (the missing pushes happened before this
// simulation began, or in a caller). With ignoreStackErrors set, the
// mismatch is treated as running off the tracked stack into unknown
// caller-owned bytes rather than a simulation failure — the right default
// for a peephole pass scanning an isolated window; set it false when the
// caller can prove the whole function's pushes are in view and a
// mismatch should instead mean "don't trust this".
func (m *Simulator) Process(opcode, operand string, index int, ignoreStackErrors bool) bool {
	s := m.State
	switch {
	case isImmediateLoad(opcode):
		return m.processImmediateLoad(index, opcode, operand)
	case opcode == "TFR":
		return m.processTFR(index, operand)
	case opcode == "EXG":
		return m.processEXG(index, operand)
	case opcode == "PSHS" || opcode == "PSHU":
		return m.processPush(index, operand)
	case opcode == "PULS" || opcode == "PULU":
		return m.processPull(index, operand)
	case opcode == "LEAS":
		return m.processLEAS(index, operand, ignoreStackErrors)
	case strings.HasPrefix(opcode, "LEA"):
		return m.processLEA(index, opcode, operand)
	case opcode == "CLRA" || opcode == "CLRB":
		reg := strings.TrimPrefix(opcode, "CLR")
		s.SetReg8(reg, KnownVal[uint8](0, index))
		s.MarkProducedKnown(index, true)
		return true
	case opcode == "ADDA" || opcode == "ADDB" || opcode == "SUBA" || opcode == "SUBB":
		return m.processALUImmediate8(index, opcode, operand)
	case opcode == "ADDD":
		return m.processADDDImmediate(index, operand)
	case opcode == "MUL":
		known := (s.A.KnownFlag && s.B.KnownFlag) || (s.A.KnownFlag && s.A.Val == 0) || (s.B.KnownFlag && s.B.Val == 0)
		s.SetD(Known[uint16]{Val: uint16(s.A.Val) * uint16(s.B.Val), KnownFlag: known, Producer: index, Producer2: -1})
		return true
	case opcode == "SEX":
		if !s.B.KnownFlag {
			s.A = Known[uint8]{Producer: index, Producer2: -1}
			return true
		}
		var hi uint8
		if s.B.Val&0x80 != 0 {
			hi = 0xFF
		}
		s.A = KnownVal(hi, index)
		return true
	default:
		return false
	}
}

func isImmediateLoad(opcode string) bool {
	switch opcode {
	case "LDA", "LDB", "LDD", "LDX", "LDY", "LDU", "LDS":
		return true
	}
	return false
}

func parseImmediate(operand string) (int64, bool) {
	if !strings.HasPrefix(operand, "#") {
		return 0, false
	}
	text := strings.TrimPrefix(operand, "#")
	base := 10
	switch {
	case strings.HasPrefix(text, "$"):
		text, base = strings.TrimPrefix(text, "$"), 16
	case strings.HasPrefix(text, "%"):
		text, base = strings.TrimPrefix(text, "%"), 2
	}
	v, err := strconv.ParseInt(text, base, 32)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (m *Simulator) processImmediateLoad(index int, opcode, operand string) bool {
	v, ok := parseImmediate(operand)
	if !ok {
		// Non-immediate load (memory or indexed): the value read is not
		// statically known to this simulator, but the register is still
		// fully accounted for as now-unknown-but-produced-here.
		reg := strings.TrimPrefix(opcode, "LD")
		if reg == "D" {
			m.State.SetD(Known[uint16]{Producer: index, Producer2: -1})
		} else if len(reg) == 1 {
			m.State.SetReg8(reg, Known[uint8]{Producer: index})
		} else {
			m.State.SetReg16(reg, Known[uint16]{Producer: index})
		}
		// A pre-decrement/post-increment operand also moves its index
		// register; its new value is not computed, only marked Unknown.
		if ireg, writes := effects.WritesIndexRegister(operand); writes {
			m.State.SetReg16(ireg, Known[uint16]{Producer: index, Producer2: -1})
		}
		m.State.MarkProducedKnown(index, false)
		return true
	}
	reg := strings.TrimPrefix(opcode, "LD")
	switch reg {
	case "D":
		m.State.SetD(KnownVal(uint16(v), index))
	case "A", "B":
		m.State.SetReg8(reg, KnownVal(uint8(v), index))
	default:
		m.State.SetReg16(reg, KnownVal(uint16(v), index))
	}
	m.State.MarkProducedKnown(index, true)
	return true
}

func (m *Simulator) processTFR(index int, operand string) bool {
	r1, r2 := splitPair(operand)
	if r1 == "" || r2 == "" {
		return false
	}
	if v, ok := m.State.Reg8(r1); ok {
		v.Producer = index
		if !m.State.SetReg8(r2, v) {
			return false
		}
		m.State.RecordUse(r1Producer(m.State, r1), index)
		return true
	}
	if v, ok := m.State.Reg16(r1); ok {
		v.Producer = index
		if r2 == "D" {
			m.State.SetD(v)
		} else if !m.State.SetReg16(r2, v) {
			return false
		}
		return true
	}
	return false
}

func (m *Simulator) processEXG(index int, operand string) bool {
	r1, r2 := splitPair(operand)
	if r1 == "" || r2 == "" {
		return false
	}
	if a, ok := m.State.Reg8(r1); ok {
		b, ok := m.State.Reg8(r2)
		if !ok {
			return false
		}
		a.Producer, b.Producer = index, index
		m.State.SetReg8(r1, b)
		m.State.SetReg8(r2, a)
		return true
	}
	v1, ok1 := m.State.Reg16(r1)
	v2, ok2 := m.State.Reg16(r2)
	if !ok1 || !ok2 {
		return false
	}
	v1.Producer, v2.Producer = index, index
	set := func(r string, v Known[uint16]) {
		if r == "D" {
			m.State.SetD(v)
		} else {
			m.State.SetReg16(r, v)
		}
	}
	set(r1, v2)
	set(r2, v1)
	return true
}

func (m *Simulator) processPush(index int, operand string) bool {
	// Pushed in PSHS/PSHU's fixed order: PC,U-or-S,Y,X,DP,B,A,CC (spec's
	// stack push order, grounded on Pseudo6809.h's push8/push16 call
	// sequence in processPush).
	regs := splitList(operand)
	order := []string{"PC", "U", "S", "Y", "X", "DP", "B", "A", "CC"}
	present := map[string]bool{}
	for _, r := range regs {
		present[r] = true
	}
	for _, r := range order {
		if !present[r] {
			continue
		}
		switch r {
		case "PC", "U", "S", "Y", "X":
			v, ok := m.State.Reg16(r)
			if !ok {
				continue
			}
			m.State.PushStack(Known[uint8]{Val: uint8(v.Val), KnownFlag: v.KnownFlag, Producer: index, Producer2: -1})
			m.State.PushStack(Known[uint8]{Val: uint8(v.Val >> 8), KnownFlag: v.KnownFlag, Producer: index, Producer2: -1})
		case "DP", "B", "A":
			v, _ := m.State.Reg8(r)
			m.State.PushStack(Known[uint8]{Val: v.Val, KnownFlag: v.KnownFlag, Producer: index, Producer2: -1})
		case "CC":
			m.State.PushStack(Unknown[uint8]())
		}
	}
	return true
}

func (m *Simulator) processPull(index int, operand string) bool {
	regs := splitList(operand)
	// Pulled in the reverse of the push order.
	order := []string{"CC", "A", "B", "DP", "X", "Y", "S", "U", "PC"}
	present := map[string]bool{}
	for _, r := range regs {
		present[r] = true
	}
	for _, r := range order {
		if !present[r] {
			continue
		}
		switch r {
		case "CC":
			m.State.PullStack()
		case "A", "B", "DP":
			v := m.State.PullStack()
			v.Producer = index
			m.State.SetReg8(r, v)
		case "X", "Y", "S", "U", "PC":
			hi := m.State.PullStack()
			lo := m.State.PullStack()
			v := Pair16(hi, lo)
			v.Producer = index
			if r != "PC" {
				m.State.SetReg16(r, v)
			}
		}
	}
	return true
}

func (m *Simulator) processLEA(index int, opcode, operand string) bool {
	dest := strings.TrimPrefix(opcode, "LEA")
	base, offset, ok := parseLEAOperand(operand)
	if !ok {
		m.State.SetReg16(dest, Known[uint16]{Producer: index})
		return true
	}
	baseVal, ok := m.State.Reg16(base)
	if !ok || !baseVal.KnownFlag {
		m.State.SetReg16(dest, Known[uint16]{Producer: index})
		return true
	}
	v := KnownVal(uint16(int64(baseVal.Val)+offset), index)
	m.State.SetReg16(dest, v)
	return true
}

// processLEAS gives LEAS the stack semantics the other LEA* variants don't
// need: unlike X/Y/U, S is the hardware stack pointer, so moving it also
// pushes or pulls the bytes the move steps over. A positive offset pulls
// (deallocates) that many bytes; a negative offset pushes that many
// Unknown placeholder bytes (space being reserved, not a value being
// produced). Grounded on spec's simulator contract for LEAS n,S.
func (m *Simulator) processLEAS(index int, operand string, ignoreStackErrors bool) bool {
	base, offset, ok := parseLEAOperand(operand)
	if !ok {
		m.State.SetReg16("S", Known[uint16]{Producer: index})
		return true
	}
	if base != "S" {
		// "LEAS n,X" (or Y/U): S is set from a different register
		// entirely, not adjusted relative to its own prior value, so this
		// is not a push or a pull of anything this simulator has tracked
		// on the stack — just an ordinary register computation.
		return m.processLEA(index, "LEAS", operand)
	}
	switch {
	case offset > 0:
		for n := int64(0); n < offset; n++ {
			if m.State.StackDepth() == 0 {
				if !ignoreStackErrors {
					return false
				}
				continue
			}
			m.State.PullStack()
		}
	case offset < 0:
		for n := int64(0); n < -offset; n++ {
			m.State.PushStack(Unknown[uint8]())
		}
	}
	sVal, _ := m.State.Reg16("S")
	if !sVal.KnownFlag {
		m.State.SetReg16("S", Known[uint16]{Producer: index})
		return true
	}
	m.State.SetReg16("S", KnownVal(uint16(int64(sVal.Val)+offset), index))
	return true
}

// parseLEAOperand recognizes "N,R" and ",R" indexed forms, the only ones
// for which the destination offset from R is statically known.
func parseLEAOperand(operand string) (base string, offset int64, ok bool) {
	parts := strings.SplitN(operand, ",", 2)
	if len(parts) != 2 {
		return "", 0, false
	}
	reg := strings.TrimSpace(parts[1])
	switch reg {
	case "X", "Y", "U", "S":
	default:
		return "", 0, false
	}
	offText := strings.TrimSpace(parts[0])
	if offText == "" {
		return reg, 0, true
	}
	n, err := strconv.ParseInt(offText, 10, 32)
	if err != nil {
		return "", 0, false
	}
	return reg, n, true
}

func (m *Simulator) processALUImmediate8(index int, opcode, operand string) bool {
	v, ok := parseImmediate(operand)
	if !ok {
		return false
	}
	reg := string(opcode[3])
	cur, _ := m.State.Reg8(reg)
	if !cur.KnownFlag {
		m.State.SetReg8(reg, Known[uint8]{Producer: index})
		return true
	}
	var result uint8
	if strings.HasPrefix(opcode, "ADD") {
		result = cur.Val + uint8(v)
	} else {
		result = cur.Val - uint8(v)
	}
	m.State.SetReg8(reg, KnownVal(result, index))
	return true
}

func (m *Simulator) processADDDImmediate(index int, operand string) bool {
	v, ok := parseImmediate(operand)
	if !ok {
		return false
	}
	cur := m.State.D()
	if !cur.KnownFlag {
		m.State.SetD(Known[uint16]{Producer: index})
		return true
	}
	m.State.SetD(KnownVal(cur.Val+uint16(v), index))
	return true
}

func splitPair(operand string) (string, string) {
	parts := strings.SplitN(operand, ",", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

func splitList(operand string) []string {
	var out []string
	for _, p := range strings.Split(operand, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func r1Producer(s *State, name string) int {
	if v, ok := s.Reg8(name); ok {
		return v.Producer
	}
	if v, ok := s.Reg16(name); ok {
		return v.Producer
	}
	return -1
}
