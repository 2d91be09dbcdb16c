package sim

// State holds the simulator's view of every 6809 register plus the
// hardware stack, at one point in a straight-line instruction sequence.
//
// Grounded on original_source/src/Pseudo6809.h's Pseudo6809Registers: A, B,
// X, Y, U, S, DP are modeled directly; D is derived from A and B rather
// than stored, mirroring the hardware (D is not a distinct register file
// slot on the 6809, just the A:B pair viewed as 16 bits).
type State struct {
	A, B   Known[uint8]
	DP     Known[uint8]
	X, Y   Known[uint16]
	U, S   Known[uint16]
	stack  []Known[uint8] // grows toward index 0, mirrors a descending hardware stack
	refs   map[int][]int  // producer element index -> consuming element indices
	consts map[int]bool   // element index -> whether its result was known when produced
}

// New returns a State with every register unknown, as at the entry to a
// function whose caller's register contents cannot be assumed .
func New() *State {
	return &State{
		A: Unknown[uint8](), B: Unknown[uint8](), DP: Unknown[uint8](),
		X: Unknown[uint16](), Y: Unknown[uint16](),
		U: Unknown[uint16](), S: Unknown[uint16](),
		refs:   make(map[int][]int),
		consts: make(map[int]bool),
	}
}

// D returns the 16-bit accumulator pair as a derived Known value; it is
// known only when both A and B are known, and unused once a half is lost.
func (s *State) D() Known[uint16] {
	if !s.A.KnownFlag || !s.B.KnownFlag {
		return Unknown[uint16]()
	}
	return Pair16(s.A, s.B)
}

// SetD splits a 16-bit value across A and B, crediting both halves to the
// same producer index (used by LDD/ADDD/etc.).
func (s *State) SetD(v Known[uint16]) {
	s.A = Known[uint8]{Val: uint8(v.Val >> 8), KnownFlag: v.KnownFlag, Producer: v.Producer, Producer2: -1}
	s.B = Known[uint8]{Val: uint8(v.Val), KnownFlag: v.KnownFlag, Producer: v.Producer, Producer2: -1}
}

// RecordUse notes that the element at consumerIndex consumed a value whose
// producer was producerIndex, provided the value came from a real
// instruction (producerIndex >= 0). This is the data the rewrite engine
// queries to decide whether a producer's result is dead .
func (s *State) RecordUse(producerIndex, consumerIndex int) {
	if producerIndex < 0 {
		return
	}
	s.refs[producerIndex] = append(s.refs[producerIndex], consumerIndex)
}

// UsesOf returns every recorded consumer of the value produced at index,
// in the order they were recorded.
func (s *State) UsesOf(index int) []int {
	return s.refs[index]
}

// MarkProducedKnown records whether the instruction at index produced a
// statically-known result, queryable later without re-deriving it.
func (s *State) MarkProducedKnown(index int, known bool) {
	s.consts[index] = known
}

// WasKnown reports whether the instruction at index was recorded as having
// produced a known value.
func (s *State) WasKnown(index int) bool {
	return s.consts[index]
}

// PushStack pushes a byte (the unit the 6809 stack operates in) onto the
// simulated stack, innermost element first.
func (s *State) PushStack(v Known[uint8]) {
	s.stack = append([]Known[uint8]{v}, s.stack...)
}

// PullStack pops and returns the top byte of the simulated stack, or
// Unknown if the stack model has been exhausted (a PULS deeper than
// anything this simulation run has pushed — conservative by construction).
func (s *State) PullStack() Known[uint8] {
	if len(s.stack) == 0 {
		return Unknown[uint8]()
	}
	v := s.stack[0]
	s.stack = s.stack[1:]
	return v
}

// StackDepth returns the number of bytes currently modeled on the
// simulated stack.
func (s *State) StackDepth() int {
	return len(s.stack)
}

// Reg8 looks up an 8-bit register by 6809 mnemonic.
func (s *State) Reg8(name string) (Known[uint8], bool) {
	switch name {
	case "A":
		return s.A, true
	case "B":
		return s.B, true
	case "DP":
		return s.DP, true
	default:
		return Known[uint8]{}, false
	}
}

// Reg16 looks up a 16-bit register by 6809 mnemonic.
func (s *State) Reg16(name string) (Known[uint16], bool) {
	switch name {
	case "X":
		return s.X, true
	case "Y":
		return s.Y, true
	case "U":
		return s.U, true
	case "S":
		return s.S, true
	case "D":
		return s.D(), true
	default:
		return Known[uint16]{}, false
	}
}

// SetReg16 stores v into the named 16-bit register; D is rejected since it
// has no independent storage (use SetD).
func (s *State) SetReg16(name string, v Known[uint16]) bool {
	switch name {
	case "X":
		s.X = v
	case "Y":
		s.Y = v
	case "U":
		s.U = v
	case "S":
		s.S = v
	default:
		return false
	}
	return true
}

// SetReg8 stores v into the named 8-bit register.
func (s *State) SetReg8(name string, v Known[uint8]) bool {
	switch name {
	case "A":
		s.A = v
	case "B":
		s.B = v
	case "DP":
		s.DP = v
	default:
		return false
	}
	return true
}

// Clone returns a deep-enough copy of s for exploring a second successor
// of a conditional branch .
func (s *State) Clone() *State {
	c := &State{A: s.A, B: s.B, DP: s.DP, X: s.X, Y: s.Y, U: s.U, S: s.S}
	c.stack = append([]Known[uint8]{}, s.stack...)
	c.refs = make(map[int][]int, len(s.refs))
	for k, v := range s.refs {
		c.refs[k] = append([]int{}, v...)
	}
	c.consts = make(map[int]bool, len(s.consts))
	for k, v := range s.consts {
		c.consts[k] = v
	}
	return c
}
